// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package chunkmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMap_ClosesOnBoundary(t *testing.T) {
	var notified []Chunk
	m := New(1, func(c Chunk) { notified = append(notified, c) })

	m.BeginRow(0, 0, -1, nil)
	closed := m.EndRow(0, 6, -1, nil)
	require.NotNil(t, closed)
	assert.Equal(t, int64(0), closed.FirstRow())
	assert.Equal(t, int64(6), closed.LastByte())

	m.BeginRow(1, 6, -1, nil)
	closed = m.EndRow(1, 12, -1, nil)
	require.NotNil(t, closed)

	assert.Len(t, m.Chunks(), 2)
	assert.Len(t, notified, 2)
	assert.Equal(t, int64(2), m.RowCount())
	assert.Equal(t, int64(12), m.LastByte())
}

func TestChunkMap_ShortChunkOnClose(t *testing.T) {
	m := New(10, nil)
	m.BeginRow(0, 0, -1, nil)
	assert.Nil(t, m.EndRow(0, 6, -1, nil), "chunk_size 10 must not close after one row")

	closed := m.Close()
	require.NotNil(t, closed)
	assert.Equal(t, int64(0), closed.LastRow())
	assert.False(t, m.IsOpen())
}

func TestChunkMap_NoRowsNoChunks(t *testing.T) {
	m := New(10, nil)
	assert.Nil(t, m.Close())
	assert.Empty(t, m.Chunks())
	assert.Equal(t, int64(0), m.RowCount())
}

func TestChunkMap_TagAndTimestampRanges(t *testing.T) {
	m := New(2, nil)
	ts0, ts1 := int64(1000), int64(2000)

	m.BeginRow(0, 0, 0, &ts0)
	m.EndRow(0, 5, 0, &ts0)
	m.BeginRow(1, 5, 1, &ts1)
	closed := m.EndRow(1, 10, 1, &ts1)

	require.NotNil(t, closed)
	require.NotNil(t, closed.Tags)
	assert.Equal(t, [2]int{0, 1}, *closed.Tags)
	require.NotNil(t, closed.TS)
	assert.Equal(t, [2]int64{1000, 2000}, *closed.TS)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt.mapping.json")

	chunks := []Chunk{
		{Rows: [2]int64{0, 0}, Bytes: [2]int64{0, 6}},
		{Rows: [2]int64{1, 1}, Bytes: [2]int64{6, 12}},
	}
	require.NoError(t, Save(path, chunks))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, chunks, loaded)
}

func TestSave_EmptyWritesJSONArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt.mapping.json")
	require.NoError(t, Save(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	chunks, err := Load(filepath.Join(t.TempDir(), "absent.mapping.json"))
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestResume_SeedsFromTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt.mapping.json")
	chunks := []Chunk{{Rows: [2]int64{0, 99}, Bytes: [2]int64{0, 600}}}
	require.NoError(t, Save(path, chunks))

	_, nextRow, nextByte, err := Resume(path)
	require.NoError(t, err)
	assert.Equal(t, int64(100), nextRow)
	assert.Equal(t, int64(600), nextByte)
}

func TestResume_EmptyMappingStartsAtZero(t *testing.T) {
	_, nextRow, nextByte, err := Resume(filepath.Join(t.TempDir(), "absent.mapping.json"))
	require.NoError(t, err)
	assert.Zero(t, nextRow)
	assert.Zero(t, nextByte)
}

func TestTailChecksum_MatchesOnCleanFile(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")
	mappingPath := filepath.Join(dir, "out.txt.mapping.json")
	require.NoError(t, os.WriteFile(outPath, []byte("T\t0\ta\n"), 0o644))

	require.NoError(t, SaveTailChecksum(mappingPath, outPath))
	assert.NoError(t, VerifyTailChecksum(mappingPath, outPath))
}

func TestTailChecksum_DetectsTruncation(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")
	mappingPath := filepath.Join(dir, "out.txt.mapping.json")
	require.NoError(t, os.WriteFile(outPath, []byte("T\t0\ta\n"), 0o644))
	require.NoError(t, SaveTailChecksum(mappingPath, outPath))

	require.NoError(t, os.WriteFile(outPath, []byte("T\t0\t"), 0o644))
	assert.Error(t, VerifyTailChecksum(mappingPath, outPath))
}

func TestTailChecksum_MissingSidecarIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")
	mappingPath := filepath.Join(dir, "out.txt.mapping.json")
	require.NoError(t, os.WriteFile(outPath, []byte("T\t0\ta\n"), 0o644))

	assert.NoError(t, VerifyTailChecksum(mappingPath, outPath))
}

func TestLock_SecondAcquireFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt.mapping.json")

	l1, err := AcquireLock(path)
	require.NoError(t, err)
	defer l1.Release()

	_, err = AcquireLock(path)
	assert.Error(t, err)
}

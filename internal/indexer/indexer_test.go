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

package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamtag/logtrail/internal/chunkmap"
	"github.com/streamtag/logtrail/internal/engine"
	"github.com/streamtag/logtrail/internal/rowio"
)

func TestRun_ScenarioOneTwoLinesChunkSizeOne(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	res, err := Run(context.Background(), strings.NewReader("a\nb\n"), outPath, Config{
		Tag:       "T",
		ChunkSize: 1,
		Delimiter: rowio.DefaultDelimiter,
	})
	require.NoError(t, err)
	assert.Equal(t, engine.Closed, res.State)
	assert.Equal(t, int64(2), res.RowCount)
	assert.Equal(t, int64(12), res.BytesWritten)
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, [2]int64{0, 0}, res.Chunks[0].Rows)
	assert.Equal(t, [2]int64{0, 6}, res.Chunks[0].Bytes)
	assert.Equal(t, [2]int64{1, 1}, res.Chunks[1].Rows)
	assert.Equal(t, [2]int64{6, 12}, res.Chunks[1].Bytes)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "T\t0\ta\nT\t1\tb\n", string(data))

	mapping, err := chunkmap.Load(chunkmap.MappingPath(outPath))
	require.NoError(t, err)
	assert.Equal(t, res.Chunks, mapping)
}

func TestRun_NoTrailingTerminator(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	res, err := Run(context.Background(), strings.NewReader("x"), outPath, Config{
		Tag:       "T",
		ChunkSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowCount)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "T\t0\tx\n", string(data))
}

func TestRun_EmptyInputProducesEmptyMapping(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	res, err := Run(context.Background(), strings.NewReader(""), outPath, Config{
		Tag:       "T",
		ChunkSize: 10,
	})
	require.NoError(t, err)
	assert.Zero(t, res.RowCount)
	assert.Empty(t, res.Chunks)

	mapping, err := chunkmap.Load(chunkmap.MappingPath(outPath))
	require.NoError(t, err)
	assert.Empty(t, mapping)
}

func TestRun_AppendContinuesNumbering(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	_, err := Run(context.Background(), strings.NewReader("a\n"), outPath, Config{
		Tag:       "T",
		ChunkSize: 10,
	})
	require.NoError(t, err)

	res, err := Run(context.Background(), strings.NewReader("b\n"), outPath, Config{
		Tag:       "T",
		ChunkSize: 10,
		Append:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowCount)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "T\t0\ta\nT\t1\tb\n", string(data))
}

func TestRun_AppendIdempotentWithSingleShot(t *testing.T) {
	dirA := t.TempDir()
	outA := filepath.Join(dirA, "out.txt")
	_, err := Run(context.Background(), strings.NewReader("a\n"), outA, Config{Tag: "T", ChunkSize: 1})
	require.NoError(t, err)
	_, err = Run(context.Background(), strings.NewReader("b\n"), outA, Config{Tag: "T", ChunkSize: 1, Append: true})
	require.NoError(t, err)

	dirB := t.TempDir()
	outB := filepath.Join(dirB, "out.txt")
	_, err = Run(context.Background(), strings.NewReader("a\nb\n"), outB, Config{Tag: "T", ChunkSize: 1})
	require.NoError(t, err)

	dataA, err := os.ReadFile(outA)
	require.NoError(t, err)
	dataB, err := os.ReadFile(outB)
	require.NoError(t, err)
	assert.Equal(t, dataB, dataA)

	mapA, err := chunkmap.Load(chunkmap.MappingPath(outA))
	require.NoError(t, err)
	mapB, err := chunkmap.Load(chunkmap.MappingPath(outB))
	require.NoError(t, err)
	assert.Equal(t, mapB, mapA)
}

func TestRun_AppendDetectsTamperedOutput(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")
	_, err := Run(context.Background(), strings.NewReader("a\n"), outPath, Config{Tag: "T", ChunkSize: 1})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(outPath, []byte("T\t0\tX\n"), 0o644))

	_, err = Run(context.Background(), strings.NewReader("b\n"), outPath, Config{Tag: "T", ChunkSize: 1, Append: true})
	require.Error(t, err)
	assert.True(t, engine.IsIoError(err))
}

func TestRun_CancellationLeavesConsistentMapping(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before the first line is even read

	res, err := Run(ctx, strings.NewReader("a\nb\nc\n"), outPath, Config{Tag: "T", ChunkSize: 10})
	require.NoError(t, err)
	assert.Equal(t, engine.Cancelled, res.State)

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), res.BytesWritten)
}

func TestRun_InvalidUTF8PassesThroughVerbatim(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	raw := "\xff\xfehi\n"
	_, err := Run(context.Background(), strings.NewReader(raw), outPath, Config{Tag: "T", ChunkSize: 10})
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "T\t0\t\xff\xfehi\n", string(data))
}

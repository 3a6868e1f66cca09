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

package rowio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamtag/logtrail/internal/textline"
)

func TestWriteRow_ScenarioOne(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	w, err := Open(path, DefaultDelimiter, false, 0)
	require.NoError(t, err)

	off0, len0, err := w.WriteRow("T", 0, textline.Line{Bytes: []byte("a"), Terminator: textline.LF})
	require.NoError(t, err)
	assert.Equal(t, int64(0), off0)
	assert.Equal(t, int64(6), len0)

	off1, len1, err := w.WriteRow("T", 1, textline.Line{Bytes: []byte("b"), Terminator: textline.LF})
	require.NoError(t, err)
	assert.Equal(t, int64(6), off1)
	assert.Equal(t, int64(6), len1)

	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "T\t0\ta\nT\t1\tb\n", string(data))
}

func TestWriteRow_SynthesizesTerminator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	w, err := Open(path, DefaultDelimiter, false, 0)
	require.NoError(t, err)
	_, n, err := w.WriteRow("T", 0, textline.Line{Bytes: []byte("x"), Terminator: textline.None})
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "T\t0\tx\n", string(data))
}

func TestWriteRow_PreservesCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	w, err := Open(path, DefaultDelimiter, false, 0)
	require.NoError(t, err)
	_, _, err = w.WriteRow("T", 0, textline.Line{Bytes: []byte("a"), Terminator: textline.CRLF})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "T\t0\ta\r\n", string(data))
}

func TestWriteRow_AppendStartsAtGivenOffset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("T\t0\ta\n"), 0o644))

	w, err := Open(path, DefaultDelimiter, true, 6)
	require.NoError(t, err)
	off, _, err := w.WriteRow("T", 1, textline.Line{Bytes: []byte("b"), Terminator: textline.LF})
	require.NoError(t, err)
	assert.Equal(t, int64(6), off)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "T\t0\ta\nT\t1\tb\n", string(data))
}

func TestWriteRow_ByteForByteBinaryPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	w, err := Open(path, DefaultDelimiter, false, 0)
	require.NoError(t, err)
	raw := []byte{0xff, 0xfe, 'h', 'i'}
	_, _, err = w.WriteRow("T", 0, textline.Line{Bytes: raw, Terminator: textline.LF})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, append([]byte("T\t0\t"), append(raw, '\n')...), data)
}

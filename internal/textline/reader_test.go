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

package textline

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *Reader) []Line {
	t.Helper()
	var lines []Line
	for {
		l, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		lines = append(lines, l)
	}
	return lines
}

func TestReader_EmptyInput(t *testing.T) {
	r := New(bytes.NewReader(nil))
	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_BasicLF(t *testing.T) {
	r := New(bytes.NewReader([]byte("a\nb\n")))
	lines := readAll(t, r)
	require.Len(t, lines, 2)
	assert.Equal(t, "a", string(lines[0].Bytes))
	assert.Equal(t, LF, lines[0].Terminator)
	assert.Equal(t, int64(0), lines[0].Offset)
	assert.Equal(t, "b", string(lines[1].Bytes))
	assert.Equal(t, int64(2), lines[1].Offset)
}

func TestReader_UnterminatedFinalLine(t *testing.T) {
	r := New(bytes.NewReader([]byte("x")))
	lines := readAll(t, r)
	require.Len(t, lines, 1)
	assert.Equal(t, "x", string(lines[0].Bytes))
	assert.Equal(t, None, lines[0].Terminator)
}

func TestReader_LoneCRAtEOF(t *testing.T) {
	r := New(bytes.NewReader([]byte("a\rb\r")))
	lines := readAll(t, r)
	require.Len(t, lines, 1)
	assert.Equal(t, "a\rb\r", string(lines[0].Bytes))
	assert.Equal(t, None, lines[0].Terminator)
}

func TestReader_LeadingCRLFNotSpurious(t *testing.T) {
	r := New(bytes.NewReader([]byte("\r\nhello\n")))
	lines := readAll(t, r)
	require.Len(t, lines, 2)
	assert.Equal(t, "", string(lines[0].Bytes))
	assert.Equal(t, CRLF, lines[0].Terminator)
	assert.Equal(t, "hello", string(lines[1].Bytes))
	assert.Equal(t, LF, lines[1].Terminator)
}

func TestReader_CRLFPreserved(t *testing.T) {
	r := New(bytes.NewReader([]byte("one\r\ntwo\r\n")))
	lines := readAll(t, r)
	require.Len(t, lines, 2)
	assert.Equal(t, CRLF, lines[0].Terminator)
	assert.Equal(t, CRLF, lines[1].Terminator)
}

func TestReader_RoundTrip(t *testing.T) {
	input := "first\r\nsecond\nthird"
	r := New(bytes.NewReader([]byte(input)))
	var rebuilt bytes.Buffer
	for {
		l, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		rebuilt.Write(l.Bytes)
		rebuilt.Write(l.Terminator.Bytes())
	}
	assert.Equal(t, input, rebuilt.String())
}

func TestReader_InvalidUTF8Preserved(t *testing.T) {
	raw := []byte{0xff, 0xfe, 'a', '\n'}
	r := New(bytes.NewReader(raw))
	l, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, raw[:3], l.Bytes)
	assert.NotContains(t, l.Text(), string(raw[:3]))
}

func TestReader_OffsetTracksConsumedBytes(t *testing.T) {
	r := New(bytes.NewReader([]byte("aaa\nbb\nc")))
	offsets := []int64{}
	for {
		l, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		offsets = append(offsets, l.Offset)
	}
	assert.Equal(t, []int64{0, 4, 7}, offsets)
}

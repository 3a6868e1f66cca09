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
	"bufio"
	"os"
	"strconv"

	"github.com/streamtag/logtrail/internal/engine"
	"github.com/streamtag/logtrail/internal/textline"
)

// DefaultDelimiter is the delimiter byte used when none is configured.
const DefaultDelimiter = '\t'

// Writer appends TAG+DELIMITER+ROW+DELIMITER+ORIGINAL+LF records to an
// output file, tracking the byte offset and length of each row it
// writes so the caller can feed them directly to a chunkmap.ChunkMap.
type Writer struct {
	f         *os.File
	buf       *bufio.Writer
	delimiter byte
	offset    int64
}

// Open opens path for writing. If append is true the file is opened in
// O_APPEND mode and startOffset should be the byte offset recorded by
// the mapping file's tail (per spec: append position comes from the
// mapping, not from the file's own length). If append is false the file
// is truncated and startOffset is ignored.
func Open(path string, delimiter byte, appendMode bool, startOffset int64) (*Writer, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, engine.NewIoError("open output file", err)
	}
	offset := int64(0)
	if appendMode {
		offset = startOffset
	}
	return &Writer{f: f, buf: bufio.NewWriter(f), delimiter: delimiter, offset: offset}, nil
}

// WriteRow emits one row and returns its byte offset and length in the
// output file. line.Bytes is written verbatim regardless of whether it
// is valid UTF-8; if line.Terminator is textline.None a LF is
// synthesized, per the Indexer's "if the source had no terminator,
// append LF" rule.
func (w *Writer) WriteRow(tag string, row int64, line textline.Line) (byteOffset, byteLength int64, err error) {
	byteOffset = w.offset

	n, err := w.writeField(tag)
	if err != nil {
		return 0, 0, err
	}
	total := n

	n, err = w.writeByte(w.delimiter)
	if err != nil {
		return 0, 0, err
	}
	total += n

	n, err = w.writeField(strconv.FormatInt(row, 10))
	if err != nil {
		return 0, 0, err
	}
	total += n

	n, err = w.writeByte(w.delimiter)
	if err != nil {
		return 0, 0, err
	}
	total += n

	n, err = w.writeBytes(line.Bytes)
	if err != nil {
		return 0, 0, err
	}
	total += n

	term := line.Terminator.Bytes()
	if len(term) == 0 {
		term = []byte{'\n'}
	}
	n, err = w.writeBytes(term)
	if err != nil {
		return 0, 0, err
	}
	total += n

	w.offset += int64(total)
	return byteOffset, int64(total), nil
}

func (w *Writer) writeField(s string) (int, error) {
	n, err := w.buf.WriteString(s)
	if err != nil {
		return n, engine.NewIoError("write output field", err)
	}
	return n, nil
}

func (w *Writer) writeBytes(b []byte) (int, error) {
	n, err := w.buf.Write(b)
	if err != nil {
		return n, engine.NewIoError("write output bytes", err)
	}
	return n, nil
}

func (w *Writer) writeByte(b byte) (int, error) {
	if err := w.buf.WriteByte(b); err != nil {
		return 0, engine.NewIoError("write output delimiter", err)
	}
	return 1, nil
}

// Flush flushes buffered output and fsyncs the underlying file, per the
// ChunkMap's "writers call flush after every closed chunk and again at
// end-of-run" invariant.
func (w *Writer) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return engine.NewIoError("flush output writer", err)
	}
	if err := w.f.Sync(); err != nil {
		return engine.NewIoError("fsync output file", err)
	}
	return nil
}

// Offset returns the current end-of-file byte offset according to this
// Writer's own bookkeeping.
func (w *Writer) Offset() int64 { return w.offset }

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	flushErr := w.Flush()
	closeErr := w.f.Close()
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return engine.NewIoError("close output file", closeErr)
	}
	return nil
}

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
	"strings"
	"unicode/utf8"
)

// Terminator identifies how a line ended in the source stream.
type Terminator int

const (
	// None means the line was the final, unterminated segment of the stream.
	None Terminator = iota
	// LF means the line ended with a single '\n'.
	LF
	// CRLF means the line ended with "\r\n".
	CRLF
)

// Bytes returns the literal terminator bytes for t.
func (t Terminator) Bytes() []byte {
	switch t {
	case LF:
		return []byte{'\n'}
	case CRLF:
		return []byte{'\r', '\n'}
	default:
		return nil
	}
}

func (t Terminator) String() string {
	switch t {
	case LF:
		return "LF"
	case CRLF:
		return "CRLF"
	default:
		return "none"
	}
}

// Line is one logical line read from a stream: the raw bytes (never the
// terminator), the terminator kind, and the byte offset at which Bytes
// began in the source.
type Line struct {
	Bytes      []byte
	Terminator Terminator
	Offset     int64
}

// Text returns a string view of Bytes suitable for regexp matching: any
// ill-formed UTF-8 byte sequence is replaced with utf8.RuneError so the
// matcher never panics or misaligns on raw binary garbage. The original
// Bytes are unaffected; Text is a throwaway decoding used only to find
// where a timestamp lives in the line.
func (l Line) Text() string {
	if utf8.Valid(l.Bytes) {
		return string(l.Bytes)
	}
	var b strings.Builder
	b.Grow(len(l.Bytes))
	data := l.Bytes
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size <= 1 {
			b.WriteRune(utf8.RuneError)
			data = data[1:]
			continue
		}
		b.WriteRune(r)
		data = data[size:]
	}
	return b.String()
}

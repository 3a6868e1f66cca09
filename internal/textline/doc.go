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

// Package textline provides byte-exact line scanning over a text stream.
//
// # Overview
//
// Reader yields successive logical lines from an io.Reader, preserving the
// original terminator (LF, CRLF, or none) and reporting the byte offset at
// which each line began. It never validates or rewrites the bytes it
// returns: a line's Bytes field is exactly what appeared in the source,
// including any invalid UTF-8. Callers that need a decoded view for
// matching (regexp, etc.) use Text, which substitutes the Unicode
// replacement character for ill-formed sequences without touching Bytes.
//
// Concatenating Bytes+Terminator across every Line read from a stream
// reproduces that stream exactly.
package textline

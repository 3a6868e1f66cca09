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

// Chunk is one closed window of rows, matching the "r"/"b"/"t"/"ts"
// mapping object fields exactly. Rows is the inclusive row pair
// [FirstRow, LastRow]; Bytes is the half-open byte range
// [FirstByte, LastByte) of those rows in the output file.
type Chunk struct {
	Rows  [2]int64  `json:"r"`
	Bytes [2]int64  `json:"b"`
	Tags  *[2]int   `json:"t,omitempty"`
	TS    *[2]int64 `json:"ts,omitempty"`
}

// FirstRow and LastRow are the inclusive row bounds of the chunk.
func (c Chunk) FirstRow() int64 { return c.Rows[0] }
func (c Chunk) LastRow() int64  { return c.Rows[1] }

// FirstByte and LastByte are the half-open byte bounds of the chunk in
// the output file: [FirstByte, LastByte).
func (c Chunk) FirstByte() int64 { return c.Bytes[0] }
func (c Chunk) LastByte() int64  { return c.Bytes[1] }

// RowCount returns the number of rows covered by the chunk.
func (c Chunk) RowCount() int64 { return c.Rows[1] - c.Rows[0] + 1 }

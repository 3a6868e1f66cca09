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

package cmd

import (
	"encoding/json"
	"io"

	"github.com/streamtag/logtrail/internal/chunkmap"
)

// progressLine is one line of the stdout progress channel named in
// spec.md §6: the mapping entry's own fields plus a progress fraction.
type progressLine struct {
	Rows     [2]int64  `json:"r"`
	Bytes    [2]int64  `json:"b"`
	Tags     *[2]int   `json:"t,omitempty"`
	TS       *[2]int64 `json:"ts,omitempty"`
	Progress float64   `json:"p"`
}

// emitProgressLine writes one newline-terminated JSON object to w,
// mirroring c plus fraction, clamped to [0,1].
func emitProgressLine(w io.Writer, c chunkmap.Chunk, fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	line := progressLine{
		Rows:     c.Rows,
		Bytes:    c.Bytes,
		Tags:     c.Tags,
		TS:       c.TS,
		Progress: fraction,
	}
	data, err := json.Marshal(line)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = w.Write(data)
}

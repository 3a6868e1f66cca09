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

// Notify is called once for every chunk closed by EndRow or Close, in
// closing order, right after the chunk is appended to the in-memory vector.
// The caller (normally cmd/'s stdout-mirror channel) decides what, if
// anything, to do with it; the core never assumes a destination.
type Notify func(Chunk)

// ChunkMap accumulates closed chunks in memory and knows how to persist
// itself as the mapping file. It is owned exclusively by one Indexer or
// Merger run, matching spec's single-owner ChunkMap.
type ChunkMap struct {
	chunkSize int64
	chunks    []Chunk
	notify    Notify

	open     bool
	curFirst Chunk // accumulates the chunk currently being built
	haveTags bool
	haveTS   bool
}

// New returns an empty ChunkMap that closes a chunk every chunkSize rows.
// notify may be nil.
func New(chunkSize int64, notify Notify) *ChunkMap {
	return &ChunkMap{chunkSize: chunkSize, notify: notify}
}

// NewWithExisting returns a ChunkMap seeded with chunks already on
// record from a prior run, for append-mode resumption. New chunks are
// appended after them.
func NewWithExisting(chunkSize int64, existing []Chunk, notify Notify) *ChunkMap {
	m := New(chunkSize, notify)
	m.chunks = append(m.chunks, existing...)
	return m
}

// BeginRow records the start of a row about to be emitted. It opens a
// new chunk if none is currently open.
func (m *ChunkMap) BeginRow(row, byteOffset int64, tagIndex int, ts *int64) {
	if !m.open {
		m.curFirst = Chunk{
			Rows:  [2]int64{row, row},
			Bytes: [2]int64{byteOffset, byteOffset},
		}
		m.haveTags = false
		m.haveTS = false
		if tagIndex >= 0 {
			m.curFirst.Tags = &[2]int{tagIndex, tagIndex}
			m.haveTags = true
		}
		if ts != nil {
			m.curFirst.TS = &[2]int64{*ts, *ts}
			m.haveTS = true
		}
		m.open = true
	}
}

// EndRow records the end of the row begun by the matching BeginRow and
// closes the chunk if row completes a chunk_size boundary. It returns
// the closed Chunk, or nil if the chunk remains open.
func (m *ChunkMap) EndRow(row, byteEnd int64, tagIndex int, ts *int64) *Chunk {
	m.curFirst.Rows[1] = row
	m.curFirst.Bytes[1] = byteEnd
	if m.haveTags && tagIndex >= 0 {
		m.curFirst.Tags[1] = tagIndex
	}
	if m.haveTS && ts != nil {
		m.curFirst.TS[1] = *ts
	}

	if (row+1)%m.chunkSize != 0 {
		return nil
	}
	return m.closeCurrent()
}

// Close force-closes whatever chunk is currently open, even if short of
// chunk_size rows. It is a no-op if no chunk is open. Used at end of
// input and on cancellation, per the Flushing state's "close any open
// chunk (possibly short)" requirement.
func (m *ChunkMap) Close() *Chunk {
	if !m.open {
		return nil
	}
	return m.closeCurrent()
}

func (m *ChunkMap) closeCurrent() *Chunk {
	c := m.curFirst
	m.open = false
	m.chunks = append(m.chunks, c)
	if m.notify != nil {
		m.notify(c)
	}
	return &m.chunks[len(m.chunks)-1]
}

// Chunks returns every chunk closed so far, in closing order. The
// returned slice must not be mutated by the caller.
func (m *ChunkMap) Chunks() []Chunk {
	return m.chunks
}

// RowCount returns the number of rows covered by all closed chunks.
func (m *ChunkMap) RowCount() int64 {
	if len(m.chunks) == 0 {
		return 0
	}
	last := m.chunks[len(m.chunks)-1]
	return last.LastRow() + 1
}

// LastByte returns the output byte offset immediately after the last
// closed chunk, i.e. the current output file size according to the map.
func (m *ChunkMap) LastByte() int64 {
	if len(m.chunks) == 0 {
		return 0
	}
	return m.chunks[len(m.chunks)-1].LastByte()
}

// IsOpen reports whether a chunk is currently accumulating rows.
func (m *ChunkMap) IsOpen() bool { return m.open }

// ExtendLastByte grows the byte range of whichever chunk last accounted
// for output bytes — the currently open one, or the most recently
// closed one if the row boundary and the chunk boundary happened to
// land together — without changing its row range. This is how a merge
// carry (an untimestamped line attached to the previous row) keeps the
// mapping agreeing with the bytes actually on disk without minting a
// new row.
func (m *ChunkMap) ExtendLastByte(newLastByte int64) {
	if m.open {
		m.curFirst.Bytes[1] = newLastByte
		return
	}
	if len(m.chunks) > 0 {
		m.chunks[len(m.chunks)-1].Bytes[1] = newLastByte
	}
}

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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/cespare/xxhash/v2"
	"github.com/oklog/ulid/v2"

	"github.com/streamtag/logtrail/internal/engine"
)

// MappingPath returns the mapping file path for the given output path,
// per the "<output>.mapping.json" naming rule.
func MappingPath(outputPath string) string {
	return outputPath + ".mapping.json"
}

// Save writes chunks as the mapping file's JSON array atomically: a
// ULID-named temp file in the mapping's own directory is written,
// fsynced, and renamed over the mapping path, following the teacher's
// create-temp-then-rename idiom for same-directory atomic replacement.
func Save(mappingPath string, chunks []Chunk) error {
	dir := filepath.Dir(mappingPath)
	if chunks == nil {
		chunks = []Chunk{}
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return engine.NewIoError("marshal mapping", err)
	}

	tmpName := filepath.Join(dir, "."+ulid.Make().String()+".mapping.json.tmp")
	f, err := os.OpenFile(tmpName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return engine.NewIoError("create mapping temp file", err)
	}
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := f.Write(data); err != nil {
		f.Close()
		return engine.NewIoError("write mapping temp file", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return engine.NewIoError("fsync mapping temp file", err)
	}
	if err := f.Close(); err != nil {
		return engine.NewIoError("close mapping temp file", err)
	}
	// tmpName and mappingPath are in the same directory, so this rename
	// is atomic on POSIX filesystems.
	if err := os.Rename(tmpName, mappingPath); err != nil {
		return engine.NewIoError("rename mapping temp file", err)
	}
	return nil
}

// Load parses an existing mapping file. A missing file is equivalent to
// an empty mapping, per spec's "missing mapping file is equivalent to a
// zero starting point" rule; any other read or parse failure is an
// IoError.
func Load(mappingPath string) ([]Chunk, error) {
	data, err := os.ReadFile(mappingPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, engine.NewIoError("read mapping file", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, engine.NewIoError("parse mapping file", err)
	}
	return chunks, nil
}

// Resume loads an existing mapping and returns the row number and byte
// offset at which a new append-mode run should continue, along with the
// chunks already on record. An empty or absent mapping resumes at
// (0, 0) regardless of whether append mode was requested.
func Resume(mappingPath string) (chunks []Chunk, nextRow int64, nextByte int64, err error) {
	chunks, err = Load(mappingPath)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(chunks) == 0 {
		return nil, 0, 0, nil
	}
	last := chunks[len(chunks)-1]
	return chunks, last.LastRow() + 1, last.LastByte(), nil
}

// TailCheckBytes caps how much of the output file's tail the checksum
// covers, so the check stays cheap even on a large existing output.
const TailCheckBytes = 4096

// checksumSidecarPath names the small auxiliary file that records the
// tail checksum alongside the mapping file. It is not part of any wire
// format named by the mapping file, output file, or merge config
// shapes; losing it just disables the active check, it never changes
// what a run produces.
func checksumSidecarPath(mappingPath string) string {
	return mappingPath + ".sum"
}

// SaveTailChecksum computes an xxhash checksum over the last
// TailCheckBytes bytes of outputPath (or the whole file if smaller) and
// records it, paired with the file size it was computed at, in the
// mapping's checksum sidecar. The Indexer calls this after every Save;
// the Merger calls it once, after its final Save.
func SaveTailChecksum(mappingPath, outputPath string) error {
	sum, size, err := tailChecksum(outputPath)
	if err != nil {
		return err
	}
	data := fmt.Sprintf("%d %x\n", size, sum)
	return os.WriteFile(checksumSidecarPath(mappingPath), []byte(data), 0o644)
}

// VerifyTailChecksum recomputes the tail checksum of outputPath and
// compares it against the value SaveTailChecksum last recorded. A
// missing sidecar (e.g. a mapping written before this check existed) is
// not an error: there is simply nothing to verify against. A mismatch
// means the output file has drifted from what the mapping believes is
// there (truncation, external edit, a crash mid-write) and append must
// not proceed on top of it.
func VerifyTailChecksum(mappingPath, outputPath string) error {
	sidecar, err := os.ReadFile(checksumSidecarPath(mappingPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return engine.NewIoError("read mapping checksum sidecar", err)
	}

	var wantSize int64
	var wantSum uint64
	if _, err := fmt.Sscanf(string(sidecar), "%d %x", &wantSize, &wantSum); err != nil {
		return engine.NewIoError("parse mapping checksum sidecar", err)
	}

	gotSum, gotSize, err := tailChecksum(outputPath)
	if err != nil {
		return err
	}
	if gotSize != wantSize {
		return engine.NewIoError("verify output tail",
			fmt.Errorf("output file is %d bytes, expected %d from last recorded checksum", gotSize, wantSize))
	}
	if gotSum != wantSum {
		return engine.NewIoError("verify output tail",
			fmt.Errorf("checksum mismatch: output file tail does not match its last recorded checksum"))
	}
	return nil
}

func tailChecksum(outputPath string) (sum uint64, size int64, err error) {
	f, err := os.Open(outputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, 0, nil
		}
		return 0, 0, engine.NewIoError("open output file for tail checksum", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, 0, engine.NewIoError("stat output file", err)
	}
	size = info.Size()

	tailLen := int64(TailCheckBytes)
	if tailLen > size {
		tailLen = size
	}
	buf := make([]byte, tailLen)
	if tailLen > 0 {
		if _, err := f.ReadAt(buf, size-tailLen); err != nil && err != io.EOF {
			return 0, 0, engine.NewIoError("read output tail", err)
		}
	}
	return xxhash.Sum64(buf), size, nil
}

// Lock is an advisory exclusive lock on the mapping file, held for the
// duration of an append-mode run's tail read plus the operation that
// follows it, so two indexers never race on the same output.
type Lock struct {
	f *os.File
}

// AcquireLock opens (creating if necessary) the lock file
// mappingPath+".lock" and flock(2)s it non-blocking, exclusively. It returns an IoError if the lock is
// already held by another process.
func AcquireLock(mappingPath string) (*Lock, error) {
	f, err := os.OpenFile(mappingPath+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, engine.NewIoError("open mapping lock file", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, engine.NewIoError("acquire mapping lock",
			fmt.Errorf("another operation holds the lock on %s: %w", mappingPath, err))
	}
	return &Lock{f: f}, nil
}

// Release drops the advisory lock.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	closeErr := l.f.Close()
	if err != nil {
		return engine.NewIoError("release mapping lock", err)
	}
	return closeErr
}

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
	"io"
	"log/slog"

	"github.com/streamtag/logtrail/internal/chunkmap"
	"github.com/streamtag/logtrail/internal/engine"
	"github.com/streamtag/logtrail/internal/rowio"
	"github.com/streamtag/logtrail/internal/textline"
)

// Config configures one Indexer run.
type Config struct {
	Tag       string
	ChunkSize int64
	Delimiter byte
	Append    bool

	// Notify, if set, is called once per chunk closed during this run,
	// in closing order. Notify never sees chunks resumed from a prior
	// run, only ones this run closes.
	Notify chunkmap.Notify
	// Sink, if set, receives formatted log lines alongside stderr.
	Sink engine.Sink
}

// Result summarizes one completed, cancelled, or failed run.
type Result struct {
	State        engine.State
	RowCount     int64
	BytesWritten int64
	Chunks       []chunkmap.Chunk
	OperationID  string
}

// Run reads lines from src and writes them to outputPath in the tagged,
// row-numbered output format, updating outputPath's mapping file as it
// goes. It returns once src is exhausted, ctx is cancelled, or a fatal
// error occurs; in every case the mapping file on disk agrees with the
// bytes actually present in the output file.
func Run(ctx context.Context, src io.Reader, outputPath string, cfg Config) (Result, error) {
	opID, err := engine.NewOperationID()
	if err != nil {
		return Result{}, err
	}
	logger := engine.NewLogger(opID, cfg.Sink)

	machine := engine.NewMachine()
	if err := machine.Start(); err != nil {
		return Result{}, engine.NewInternal(err.Error())
	}

	delimiter := cfg.Delimiter
	if delimiter == 0 {
		delimiter = rowio.DefaultDelimiter
	}

	mappingPath := chunkmap.MappingPath(outputPath)

	var lock *chunkmap.Lock
	var existing []chunkmap.Chunk
	var nextRow, nextByte int64
	if cfg.Append {
		lock, err = chunkmap.AcquireLock(mappingPath)
		if err != nil {
			machine.Fail()
			machine.Done()
			return Result{State: engine.Errored}, err
		}
		defer lock.Release()

		existing, nextRow, nextByte, err = chunkmap.Resume(mappingPath)
		if err != nil {
			machine.Fail()
			machine.Done()
			return Result{State: engine.Errored}, err
		}
		if len(existing) > 0 {
			if err := chunkmap.VerifyTailChecksum(mappingPath, outputPath); err != nil {
				machine.Fail()
				machine.Done()
				return Result{State: engine.Errored}, err
			}
		}
	}

	cm := chunkmap.NewWithExisting(cfg.ChunkSize, existing, cfg.Notify)
	writer, err := rowio.Open(outputPath, delimiter, cfg.Append, nextByte)
	if err != nil {
		machine.Fail()
		machine.Done()
		return Result{State: engine.Errored}, err
	}
	defer writer.Close()

	reader := textline.New(src)
	row := nextRow

	runErr := runLoop(ctx, machine, reader, writer, cm, cfg.Tag, &row, logger, mappingPath, outputPath)

	closeErr := finish(mappingPath, outputPath, writer, cm)
	state := machine.Done()

	logger.Info("indexer run finished", slog.String("state", state.String()), slog.Int64("row_count", cm.RowCount()))

	if runErr != nil {
		return Result{State: state, RowCount: cm.RowCount(), BytesWritten: cm.LastByte(), Chunks: cm.Chunks(), OperationID: opID}, runErr
	}
	if closeErr != nil {
		return Result{State: state, RowCount: cm.RowCount(), BytesWritten: cm.LastByte(), Chunks: cm.Chunks(), OperationID: opID}, closeErr
	}
	return Result{State: state, RowCount: cm.RowCount(), BytesWritten: cm.LastByte(), Chunks: cm.Chunks(), OperationID: opID}, nil
}

func runLoop(ctx context.Context, machine *engine.Machine, reader *textline.Reader, writer *rowio.Writer, cm *chunkmap.ChunkMap, tag string, row *int64, logger *slog.Logger, mappingPath, outputPath string) error {
	for {
		select {
		case <-ctx.Done():
			logger.Info("indexer run cancelled")
			machine.Cancel()
			return nil
		default:
		}

		line, err := reader.Next()
		if err == io.EOF {
			machine.Finish()
			return nil
		}
		if err != nil {
			machine.Fail()
			return engine.NewIoError("read source line", err)
		}

		cm.BeginRow(*row, writer.Offset(), -1, nil)
		if _, _, err := writer.WriteRow(tag, *row, line); err != nil {
			machine.Fail()
			return err
		}
		closed := cm.EndRow(*row, writer.Offset(), -1, nil)
		*row++

		if closed != nil {
			if err := writer.Flush(); err != nil {
				machine.Fail()
				return err
			}
			if err := chunkmap.Save(mappingPath, cm.Chunks()); err != nil {
				machine.Fail()
				return err
			}
			if err := chunkmap.SaveTailChecksum(mappingPath, outputPath); err != nil {
				machine.Fail()
				return err
			}
		}
	}
}

// finish runs the Flushing-state work common to every terminal outcome:
// close any open chunk, flush and fsync the output, persist the mapping,
// and record its tail checksum. The writer itself is closed by the
// caller so a later error here never leaks its file descriptor.
func finish(mappingPath, outputPath string, writer *rowio.Writer, cm *chunkmap.ChunkMap) error {
	cm.Close()
	if err := writer.Flush(); err != nil {
		return err
	}
	if err := chunkmap.Save(mappingPath, cm.Chunks()); err != nil {
		return err
	}
	return chunkmap.SaveTailChecksum(mappingPath, outputPath)
}

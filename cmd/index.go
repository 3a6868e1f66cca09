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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/streamtag/logtrail/internal/chunkmap"
	"github.com/streamtag/logtrail/internal/config"
	"github.com/streamtag/logtrail/internal/indexer"
)

func init() {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index a single log file into a tagged, row-numbered output",
		RunE: func(c *cobra.Command, _ []string) error {
			input, err := c.Flags().GetString("input")
			if err != nil {
				return fmt.Errorf("failed to get input flag: %w", err)
			}
			output, err := c.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("failed to get output flag: %w", err)
			}
			tag, err := c.Flags().GetString("tag")
			if err != nil {
				return fmt.Errorf("failed to get tag flag: %w", err)
			}
			chunkSize, err := c.Flags().GetInt64("chunk-size")
			if err != nil {
				return fmt.Errorf("failed to get chunk-size flag: %w", err)
			}
			appendMode, err := c.Flags().GetBool("append")
			if err != nil {
				return fmt.Errorf("failed to get append flag: %w", err)
			}

			return runIndex(input, output, tag, chunkSize, appendMode)
		},
	}

	cmd.Flags().String("input", "", "path to the source log file")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Errorf("failed to mark input flag as required: %w", err))
	}
	cmd.Flags().String("output", "", "path to the output file to write")
	if err := cmd.MarkFlagRequired("output"); err != nil {
		panic(fmt.Errorf("failed to mark output flag as required: %w", err))
	}
	cmd.Flags().String("tag", "L0", "source tag to stamp every emitted row with")
	cmd.Flags().Int64("chunk-size", 0, "rows per chunk; 0 uses the configured default")
	cmd.Flags().Bool("append", false, "append to an existing output, resuming row numbers from its mapping")

	rootCmd.AddCommand(cmd)
}

func runIndex(input, output, tag string, chunkSize int64, appendMode bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if chunkSize <= 0 {
		chunkSize = cfg.Index.ChunkSize
	}

	src, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	var totalBytes int64
	if info, statErr := src.Stat(); statErr == nil {
		totalBytes = info.Size()
	}
	counted := &countingReader{r: src}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		<-sig
		cancel()
	}()

	notify, sink := indexStdoutMirror(cfg.Index.StdoutMirror, counted, totalBytes)

	result, err := indexer.Run(ctx, counted, output, indexer.Config{
		Tag:       tag,
		ChunkSize: chunkSize,
		Delimiter: cfg.Index.DelimiterByte(),
		Append:    appendMode,
		Notify:    notify,
		Sink:      sink,
	})
	if err != nil {
		return fmt.Errorf("index run (%s): %w", result.State, err)
	}
	fmt.Fprintf(os.Stdout, "indexed %d rows into %s (%d bytes)\n", result.RowCount, output, result.BytesWritten)
	return nil
}

// indexStdoutMirror builds the optional stdout progress channel named
// in spec.md §6 for a single-stream index run: one JSON object per
// closed chunk, newline-terminated, with the progress fraction computed
// from bytes consumed from the source against its known size. It is
// disabled unless enabled is true.
func indexStdoutMirror(enabled bool, counted *countingReader, totalBytes int64) (chunkmap.Notify, func(string)) {
	if !enabled {
		return nil, nil
	}
	notify := func(c chunkmap.Chunk) {
		fraction := 0.0
		if totalBytes > 0 {
			fraction = float64(counted.n) / float64(totalBytes)
		}
		emitProgressLine(os.Stdout, c, fraction)
	}
	sink := func(line string) {
		fmt.Fprint(os.Stderr, line)
	}
	return notify, sink
}

// countingReader wraps an io.Reader, tracking how many bytes have been
// read from it so far, for progress-fraction estimation.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

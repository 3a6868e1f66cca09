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

package engine

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// Sink is the external "logging/progress reporting sink" named in the
// spec: a callback that accepts one line of textual status at a time.
// The CLI front end supplies this; the core never assumes anything about
// where it ends up.
type Sink func(line string)

// sinkWriter adapts a Sink into an io.Writer so it can back a standard
// slog.Handler instead of requiring a bespoke Handler implementation.
type sinkWriter struct {
	sink Sink
}

func (w sinkWriter) Write(p []byte) (int, error) {
	w.sink(string(p))
	return len(p), nil
}

// NewLogger builds the *slog.Logger used for one Indexer/Merger run. Log
// records go to stderr and, if sink is non-nil, to the caller's progress
// sink as well, via slogmulti.Fanout. Every record carries opID so a
// caller running several operations concurrently can tell their
// interleaved output apart.
func NewLogger(opID string, sink Sink) *slog.Logger {
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, nil),
	}
	if sink != nil {
		handlers = append(handlers, slog.NewTextHandler(sinkWriter{sink: sink}, &slog.HandlerOptions{
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.Attr{}
				}
				return a
			},
		}))
	}
	return slog.New(slogmulti.Fanout(handlers...)).With(slog.String("op_id", opID))
}

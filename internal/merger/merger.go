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

package merger

import (
	"container/heap"
	"context"
	"io"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/streamtag/logtrail/internal/chunkmap"
	"github.com/streamtag/logtrail/internal/dateformat"
	"github.com/streamtag/logtrail/internal/engine"
	"github.com/streamtag/logtrail/internal/rowio"
	"github.com/streamtag/logtrail/internal/textline"
	"github.com/streamtag/logtrail/internal/tsextract"
)

// Stream is one merge input: a source reader, its tag and priority
// index (ties in the heap are broken by this index), and the compiled
// format used to extract a timestamp from its lines.
type Stream struct {
	Tag      string
	TagIndex int
	Source   io.Reader
	Spec     *dateformat.Spec
}

// Config configures one Merger run.
type Config struct {
	ChunkSize int64
	Delimiter byte

	Notify chunkmap.Notify
	Sink   engine.Sink
}

// Result summarizes one completed, cancelled, or failed run. StreamErrs
// collects every per-stream read failure encountered; it is non-nil only
// when at least one stream failed, and a failure never aborts the
// streams that are still healthy.
type Result struct {
	State        engine.State
	RowCount     int64
	BytesWritten int64
	Chunks       []chunkmap.Chunk
	OperationID  string
	StreamErrs   *multierror.Error
}

// msgKind distinguishes the four things a puller goroutine can report
// for one request.
type msgKind int

const (
	msgHead msgKind = iota
	msgCarry
	msgDone
	msgErr
)

type streamMsg struct {
	kind msgKind
	line textline.Line
	ts   int64
	err  error
}

// headEntry is one stream's current heap-resident head.
type headEntry struct {
	tagIndex int
	ts       int64
	line     textline.Line
}

type headHeap []headEntry

func (h headHeap) Len() int { return len(h) }
func (h headHeap) Less(i, j int) bool {
	if h[i].ts != h[j].ts {
		return h[i].ts < h[j].ts
	}
	return h[i].tagIndex < h[j].tagIndex
}
func (h headHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *headHeap) Push(x any)        { *h = append(*h, x.(headEntry)) }
func (h *headHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Run opens every stream, merges their lines in (timestamp_ms asc,
// stream priority asc) order, and writes the result to outputPath in
// the same tagged, row-numbered format the Indexer uses.
func Run(ctx context.Context, streams []Stream, outputPath string, cfg Config) (Result, error) {
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

	writer, err := rowio.Open(outputPath, delimiter, false, 0)
	if err != nil {
		machine.Fail()
		machine.Done()
		return Result{State: engine.Errored}, err
	}
	defer writer.Close()

	mappingPath := chunkmap.MappingPath(outputPath)
	cm := chunkmap.New(cfg.ChunkSize, cfg.Notify)

	m := &runState{
		machine:     machine,
		writer:      writer,
		cm:          cm,
		logger:      logger,
		streams:     streams,
		mappingPath: mappingPath,
	}
	runErr := m.run(ctx)

	cm.Close()
	flushErr := writer.Flush()
	saveErr := chunkmap.Save(mappingPath, cm.Chunks())
	sumErr := chunkmap.SaveTailChecksum(mappingPath, outputPath)
	state := machine.Done()

	logger.Info("merger run finished", slog.String("state", state.String()), slog.Int64("row_count", cm.RowCount()))

	result := Result{
		State:        state,
		RowCount:     cm.RowCount(),
		BytesWritten: cm.LastByte(),
		Chunks:       cm.Chunks(),
		OperationID:  opID,
		StreamErrs:   m.streamErrs,
	}
	for _, e := range []error{runErr, flushErr, saveErr, sumErr} {
		if e != nil {
			return result, e
		}
	}
	return result, nil
}

// runState holds everything the merge loop needs, split out of Run so
// the loop's bookkeeping isn't threaded through long parameter lists.
type runState struct {
	machine     *engine.Machine
	writer      *rowio.Writer
	cm          *chunkmap.ChunkMap
	logger      *slog.Logger
	streams     []Stream
	mappingPath string

	streamErrs *multierror.Error
}

func (m *runState) run(ctx context.Context) error {
	n := len(m.streams)
	if n == 0 {
		m.machine.Finish()
		return nil
	}

	req := make([]chan struct{}, n)
	rsp := make([]chan streamMsg, n)
	for i, s := range m.streams {
		req[i] = make(chan struct{}, 1)
		rsp[i] = make(chan streamMsg, 1)
		go pull(ctx, textline.New(s.Source), s.Spec, req[i], rsp[i])
	}
	defer func() {
		for i := range req {
			close(req[i])
		}
	}()

	h := &headHeap{}
	heap.Init(h)

	open := make([]bool, n)
	inHeap := make([]bool, n)
	awaiting := make([]bool, n)
	openCount := n

	lastRowNumber := int64(-1)
	haveEmittedRow := false
	everHadHead := make([]bool, n)
	pendingBeforeFirstHead := make([][]textline.Line, n) // this stream's own lines seen before its first head
	deferredHeadless := make([][]textline.Line, n)       // committed once the stream proves it will never have a head

	request := func(i int) {
		open[i] = true
		awaiting[i] = true
		select {
		case <-ctx.Done():
		case req[i] <- struct{}{}:
		}
	}

	// writeCarryLine appends line to the output sharing lastRowNumber,
	// extending that row's chunk byte range instead of starting a new
	// row, per the carry policy. Only valid once haveEmittedRow is true.
	writeCarryLine := func(i int, line textline.Line) error {
		if _, _, err := m.writer.WriteRow(m.streams[i].Tag, lastRowNumber, line); err != nil {
			return err
		}
		m.cm.ExtendLastByte(m.writer.Offset())
		return chunkmap.Save(m.mappingPath, m.cm.Chunks())
	}

	// flushPending writes out every line buffered in lines as carries,
	// once some row exists to attach them to.
	flushPending := func(i int, lines []textline.Line) error {
		for _, l := range lines {
			if err := writeCarryLine(i, l); err != nil {
				return err
			}
		}
		return nil
	}

	handle := func(i int, msg streamMsg) error {
		// A carry does not satisfy the outstanding request: the puller
		// keeps reading and will send another message for the same
		// request, so awaiting[i] stays true until a head or a terminal
		// message arrives.
		if msg.kind != msgCarry {
			awaiting[i] = false
		}
		switch msg.kind {
		case msgHead:
			if !everHadHead[i] {
				everHadHead[i] = true
				if haveEmittedRow {
					if err := flushPending(i, pendingBeforeFirstHead[i]); err != nil {
						return err
					}
					pendingBeforeFirstHead[i] = nil
				}
				// If no row has been emitted anywhere yet, leave
				// pendingBeforeFirstHead[i] in place: it is flushed once
				// the very first row of the whole merge is written.
			}
			heap.Push(h, headEntry{tagIndex: i, ts: msg.ts, line: msg.line})
			inHeap[i] = true
		case msgCarry:
			if everHadHead[i] {
				if !haveEmittedRow {
					pendingBeforeFirstHead[i] = append(pendingBeforeFirstHead[i], msg.line)
					return nil
				}
				return writeCarryLine(i, msg.line)
			}
			// This stream has never produced a head yet: it may still
			// turn out to be entirely untimestamped, in which case its
			// content must sink to the end of the merge, per policy.
			pendingBeforeFirstHead[i] = append(pendingBeforeFirstHead[i], msg.line)
		case msgDone:
			if !everHadHead[i] {
				deferredHeadless[i] = pendingBeforeFirstHead[i]
				pendingBeforeFirstHead[i] = nil
			}
			open[i] = false
			openCount--
		case msgErr:
			m.streamErrs = multierror.Append(m.streamErrs, msg.err)
			if !everHadHead[i] {
				deferredHeadless[i] = pendingBeforeFirstHead[i]
				pendingBeforeFirstHead[i] = nil
			}
			open[i] = false
			openCount--
		}
		return nil
	}

	// Keep draining responses for stream i until its current request is
	// satisfied (a head or a terminal message), absorbing any number of
	// interleaved carries first.
	drain := func(i int) error {
		for awaiting[i] {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-rsp[i]:
				if !ok {
					// The puller closed its response channel without a
					// terminal message because ctx was cancelled out from
					// under it; the outer ctx.Done() check takes it from
					// here, so treat this request as abandoned rather than
					// acting on a zero-value streamMsg.
					awaiting[i] = false
					return nil
				}
				if err := handle(i, msg); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for i := range m.streams {
		request(i)
	}
	for i := range m.streams {
		if err := drain(i); err != nil {
			m.machine.Fail()
			return err
		}
		if ctx.Err() != nil {
			m.machine.Cancel()
			return nil
		}
	}

	haveHeads := func() int {
		c := 0
		for i := range inHeap {
			if inHeap[i] {
				c++
			}
		}
		return c
	}

	row := int64(0)

	// flushDeferredHeadless emits, in stream priority order, the content
	// of every stream that reached end-of-input without ever producing a
	// single timestamped line. Per policy their content sinks to the end
	// of the merge; if literally nothing has been emitted by any stream
	// (every input was untimestamped), there is no row to carry onto, so
	// each line becomes its own row instead, in stream order.
	flushDeferredHeadless := func() error {
		carry := haveEmittedRow
		for i := range m.streams {
			lines := deferredHeadless[i]
			deferredHeadless[i] = nil
			for _, l := range lines {
				if carry {
					if err := writeCarryLine(i, l); err != nil {
						return err
					}
					continue
				}
				m.cm.BeginRow(row, m.writer.Offset(), i, nil)
				if _, _, err := m.writer.WriteRow(m.streams[i].Tag, row, l); err != nil {
					return err
				}
				m.cm.EndRow(row, m.writer.Offset(), i, nil)
				lastRowNumber = row
				haveEmittedRow = true
				row++
			}
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			m.machine.Cancel()
			return nil
		default:
		}

		if openCount == 0 && h.Len() == 0 {
			if err := flushDeferredHeadless(); err != nil {
				m.machine.Fail()
				return err
			}
			m.machine.Finish()
			return nil
		}
		if haveHeads() < openCount || h.Len() == 0 {
			// Not every open stream has a head yet. Every open stream is
			// either inHeap or awaiting a response by construction, so
			// one must be awaiting here; block on it.
			idx := -1
			for i := range m.streams {
				if awaiting[i] {
					idx = i
					break
				}
			}
			if idx == -1 {
				m.machine.Fail()
				return engine.NewInternal("merge loop: no stream awaiting a response but heads are short of open streams")
			}
			select {
			case <-ctx.Done():
				m.machine.Cancel()
				return nil
			case msg, ok := <-rsp[idx]:
				if !ok {
					awaiting[idx] = false
					m.machine.Cancel()
					return nil
				}
				if err := handle(idx, msg); err != nil {
					m.machine.Fail()
					return err
				}
			}
			continue
		}

		best := heap.Pop(h).(headEntry)
		inHeap[best.tagIndex] = false

		ts := best.ts
		m.cm.BeginRow(row, m.writer.Offset(), best.tagIndex, &ts)
		_, _, err := m.writer.WriteRow(m.streams[best.tagIndex].Tag, row, best.line)
		if err != nil {
			m.machine.Fail()
			return err
		}
		closed := m.cm.EndRow(row, m.writer.Offset(), best.tagIndex, &ts)
		lastRowNumber = row
		row++

		if !haveEmittedRow {
			// This is the very first row the whole merge has written:
			// flush every stream's lines that arrived before any head
			// existed to attach to, in stream priority order, now that
			// one finally exists.
			haveEmittedRow = true
			for i := range m.streams {
				if len(pendingBeforeFirstHead[i]) == 0 {
					continue
				}
				if err := flushPending(i, pendingBeforeFirstHead[i]); err != nil {
					m.machine.Fail()
					return err
				}
				pendingBeforeFirstHead[i] = nil
			}
		}

		if closed != nil {
			if err := m.writer.Flush(); err != nil {
				m.machine.Fail()
				return err
			}
			if err := chunkmap.Save(m.mappingPath, m.cm.Chunks()); err != nil {
				m.machine.Fail()
				return err
			}
		}

		if open[best.tagIndex] {
			request(best.tagIndex)
			if err := drain(best.tagIndex); err != nil {
				m.machine.Fail()
				return err
			}
		}
	}
}

// extractTimestamp applies spec to line, if one was supplied. A stream
// with no compiled format (discovery found nothing) never yields a
// timestamp and every one of its lines is carried, per the "untimestamped
// content sinks to the end of its own stream order" policy.
func extractTimestamp(line textline.Line, spec *dateformat.Spec) (int64, bool, error) {
	if spec == nil {
		return 0, false, nil
	}
	return tsextract.Extract(line.Text(), spec)
}

// pull is the per-stream goroutine: on every request it reads lines
// until one carries a timestamp (reporting each untimestamped line
// along the way as a carry) or the stream ends. This generalizes the
// teacher's one-head-per-request channel protocol to a
// many-carries-then-one-head response sequence per request, so a
// stalled read on one stream never blocks the merge loop from polling
// the others.
func pull(ctx context.Context, reader *textline.Reader, spec *dateformat.Spec, req <-chan struct{}, rsp chan<- streamMsg) {
	defer close(rsp)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-req:
			if !ok {
				return
			}
		}

		for {
			line, err := reader.Next()
			if err == io.EOF {
				select {
				case <-ctx.Done():
					return
				case rsp <- streamMsg{kind: msgDone}:
				}
				break
			}
			if err != nil {
				select {
				case <-ctx.Done():
					return
				case rsp <- streamMsg{kind: msgErr, err: engine.NewIoError("read merge stream", err)}:
				}
				break
			}

			ts, ok, extractErr := extractTimestamp(line, spec)
			if extractErr != nil {
				select {
				case <-ctx.Done():
					return
				case rsp <- streamMsg{kind: msgErr, err: extractErr}:
				}
				break
			}
			if ok {
				select {
				case <-ctx.Done():
					return
				case rsp <- streamMsg{kind: msgHead, line: line, ts: ts}:
				}
				break
			}

			select {
			case <-ctx.Done():
				return
			case rsp <- streamMsg{kind: msgCarry, line: line}:
			}
			// Request satisfied only by a head or a terminal message;
			// keep pulling for this same request.
		}
	}
}

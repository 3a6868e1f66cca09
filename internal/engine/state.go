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
	"fmt"
	"sync"
)

// State is one node of the shared Indexer/Merger lifecycle:
//
//	Idle -> Running -> (Flushing -> Closed) | Cancelled | Errored
//
// Closed, Cancelled, and Errored are absorbing: once reached, the
// Machine accepts no further transitions. Flushing is always entered on
// the way to one of those three, even when the run is being cancelled or
// has failed, so the chunk map write always happens.
type State int

const (
	Idle State = iota
	Running
	Flushing
	Closed
	Cancelled
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Flushing:
		return "Flushing"
	case Closed:
		return "Closed"
	case Cancelled:
		return "Cancelled"
	case Errored:
		return "Errored"
	default:
		return "Unknown"
	}
}

func (s State) terminal() bool {
	return s == Closed || s == Cancelled || s == Errored
}

// Machine tracks the current State and rejects transitions that don't
// fit the lifecycle above. It is safe for concurrent use: the driver
// calls Start/Cancel/Fail from whatever goroutine observes the
// triggering event, and the pipeline goroutine calls Finish/Done once it
// reacts.
type Machine struct {
	mu     sync.Mutex
	state  State
	reason State // the terminal state Flushing is heading toward
}

// NewMachine returns a Machine in the Idle state.
func NewMachine() *Machine {
	return &Machine{state: Idle}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start transitions Idle -> Running.
func (m *Machine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Idle {
		return fmt.Errorf("engine: cannot start from state %s", m.state)
	}
	m.state = Running
	return nil
}

// Cancel records that the run should end as Cancelled once flushed. It
// is idempotent and safe to call more than once or after the run has
// already begun flushing for another reason; it replaces a Finish
// recorded earlier.
func (m *Machine) Cancel() {
	m.beginFlush(Cancelled)
}

// Fail records that the run should end as Errored once flushed.
func (m *Machine) Fail() {
	m.beginFlush(Errored)
}

// Finish records that the run completed normally and should end as
// Closed once flushed.
func (m *Machine) Finish() {
	m.beginFlush(Closed)
}

func (m *Machine) beginFlush(reason State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.terminal() {
		return
	}
	if m.state == Flushing {
		// A late Finish never replaces a recorded reason; a Cancel or
		// Fail replaces whatever was recorded before it.
		if reason == Closed {
			return
		}
		m.reason = reason
		return
	}
	m.state = Flushing
	m.reason = reason
}

// Flushing reports whether the machine is currently in the Flushing
// state, i.e. whether the caller should be running its final chunk-close
// and mapping-write sequence right now.
func (m *Machine) Flushing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Flushing
}

// Done transitions Flushing into whichever terminal state was recorded
// (Closed, Cancelled, or Errored) by Finish/Cancel/Fail. It is a no-op
// if the machine is already terminal.
func (m *Machine) Done() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.terminal() {
		return m.state
	}
	if m.state != Flushing {
		// Flush was never entered (e.g. Start() was never called); treat
		// as an internal invariant violation rather than silently
		// fabricating a terminal state.
		m.state = Errored
		return m.state
	}
	m.state = m.reason
	return m.state
}

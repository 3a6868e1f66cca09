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

// Package engine holds the pieces shared by Indexer and Merger: the
// Idle -> Running -> (Flushing -> Closed) | Cancelled | Errored state
// machine, the typed error kinds used throughout the core, per-run
// operation IDs, and the logging setup that fans output out to both the
// terminal and the caller's progress sink.
package engine

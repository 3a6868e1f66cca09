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

// Package merger drives the multi-stream k-way merge: one goroutine per
// input stream feeds a single-owner min-heap over a one-slot
// request/response channel pair, so a stall on one stream's disk read
// never blocks polling the others for cancellation. The heap orders
// heads by (timestamp_ms, stream priority index); untimestamped lines
// are carried onto the previously emitted row instead of starting a new
// one.
package merger

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

package dateformat

import "fmt"

// FormatError reports a problem compiling a date format string, pinned to
// the byte position in the original format where the problem was found.
type FormatError struct {
	Format   string
	Position int
	Reason   string
}

func (e FormatError) Error() string {
	return fmt.Sprintf("dateformat: %s at position %d in %q", e.Reason, e.Position, e.Format)
}

func newFormatError(format string, pos int, reason string) error {
	return FormatError{Format: format, Position: pos, Reason: reason}
}

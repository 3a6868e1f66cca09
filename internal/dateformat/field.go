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

// Field identifies which part of a timestamp a capture group feeds.
type Field int

const (
	FieldYear Field = iota
	FieldMonth
	FieldDay
	FieldHour
	FieldMinute
	FieldSecond
	FieldFraction
	FieldTZOffset
)

func (f Field) String() string {
	switch f {
	case FieldYear:
		return "year"
	case FieldMonth:
		return "month"
	case FieldDay:
		return "day"
	case FieldHour:
		return "hour"
	case FieldMinute:
		return "minute"
	case FieldSecond:
		return "second"
	case FieldFraction:
		return "fraction"
	case FieldTZOffset:
		return "tzoffset"
	default:
		return "unknown"
	}
}

// Defaults supplies values for fields a format never captures.
// Year/month/day let a caller pin a format to a known calendar date,
// e.g. when scanning an archive whose filename carries the year.
// TZOffsetMinutes lets a caller pin a fixed timezone for a format with
// no TZD specifier (a merge config's per-file "offset" field); it is
// otherwise zero, meaning UTC.
type Defaults struct {
	Year            int
	Month           int
	Day             int
	TZOffsetMinutes int
}

type specifierToken struct {
	token   string
	field   Field
	pattern string
}

// specifiers is checked longest-token-first at each letter position so
// that, e.g., "hh" is matched before considering "h" alone (which is not
// a valid token and would otherwise be ambiguous with nothing).
var specifiers = []specifierToken{
	{"YYYY", FieldYear, `\d{4}`},
	{"TZD", FieldTZOffset, `Z|[+-]\d{2}:?\d{2}`},
	{"MM", FieldMonth, `0[1-9]|1[0-2]`},
	{"DD", FieldDay, `0[1-9]|[12]\d|3[01]`},
	{"hh", FieldHour, `[01]\d|2[0-3]`},
	{"mm", FieldMinute, `[0-5]\d`},
	{"ss", FieldSecond, `[0-5]\d`},
	{"s", FieldFraction, `\d+`},
}

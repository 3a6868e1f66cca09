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

package tsextract

import (
	"strconv"
	"strings"
	"time"

	"github.com/streamtag/logtrail/internal/dateformat"
)

// Extract applies spec to text and returns the timestamp it carries, in
// epoch milliseconds UTC. ok is false when spec never matched text at
// all (FormatMismatch / Absent in the data model), and also when the
// month or day, captured or taken from spec.Defaults, is out of range
// (e.g. a format without MM or DD and zero defaults); that is never an
// error, just "this line has no timestamp".
func Extract(text string, spec *dateformat.Spec) (ms int64, ok bool, err error) {
	m := spec.Regex.FindStringSubmatch(text)
	if m == nil {
		return 0, false, nil
	}

	captured := make(map[dateformat.Field]string)
	for i, name := range spec.Regex.SubexpNames() {
		if name == "" || m[i] == "" {
			continue
		}
		if field, known := spec.Fields[name]; known {
			captured[field] = m[i]
		}
	}

	year := spec.Defaults.Year
	month := spec.Defaults.Month
	day := spec.Defaults.Day
	hour, minute, second := 0, 0, 0
	fractionMs := 0
	tzOffsetMinutes := spec.Defaults.TZOffsetMinutes

	if v, present := captured[dateformat.FieldYear]; present {
		year, err = strconv.Atoi(v)
		if err != nil {
			return 0, false, err
		}
	}
	if v, present := captured[dateformat.FieldMonth]; present {
		month, err = strconv.Atoi(v)
		if err != nil {
			return 0, false, err
		}
	}
	if v, present := captured[dateformat.FieldDay]; present {
		day, err = strconv.Atoi(v)
		if err != nil {
			return 0, false, err
		}
	}
	if v, present := captured[dateformat.FieldHour]; present {
		hour, err = strconv.Atoi(v)
		if err != nil {
			return 0, false, err
		}
	}
	if v, present := captured[dateformat.FieldMinute]; present {
		minute, err = strconv.Atoi(v)
		if err != nil {
			return 0, false, err
		}
	}
	if v, present := captured[dateformat.FieldSecond]; present {
		second, err = strconv.Atoi(v)
		if err != nil {
			return 0, false, err
		}
	}
	if v, present := captured[dateformat.FieldFraction]; present {
		fractionMs = fractionToMillis(v)
	}
	if v, present := captured[dateformat.FieldTZOffset]; present {
		tzOffsetMinutes, err = parseTZOffsetMinutes(v)
		if err != nil {
			return 0, false, err
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, false, nil
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	total := t.UnixMilli() + int64(fractionMs) - int64(tzOffsetMinutes)*60_000
	return total, true, nil
}

// fractionToMillis scales a captured run of fractional-second digits to
// milliseconds by truncation: shorter runs are scaled up ("5" -> 500ms,
// a tenth of a second), longer runs are truncated to the first three
// digits ("1234567" -> 123ms).
func fractionToMillis(digits string) int {
	switch {
	case len(digits) == 3:
		v, _ := strconv.Atoi(digits)
		return v
	case len(digits) < 3:
		padded := digits + strings.Repeat("0", 3-len(digits))
		v, _ := strconv.Atoi(padded)
		return v
	default:
		v, _ := strconv.Atoi(digits[:3])
		return v
	}
}

// parseTZOffsetMinutes parses "Z", "+hh:mm", "+hhmm", "-hh:mm", or
// "-hhmm" into a signed minute offset, positive east of UTC.
func parseTZOffsetMinutes(tzd string) (int, error) {
	if tzd == "Z" {
		return 0, nil
	}
	sign := 1
	if tzd[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(tzd[1:], ":", "")
	hh, err := strconv.Atoi(digits[:2])
	if err != nil {
		return 0, err
	}
	mm, err := strconv.Atoi(digits[2:])
	if err != nil {
		return 0, err
	}
	return sign * (hh*60 + mm), nil
}

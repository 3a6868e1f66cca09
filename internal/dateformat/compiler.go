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

import (
	"regexp"
	"strings"
	"unicode"
)

// Spec is a compiled date format: an anchored-by-search regular
// expression, the field each named capture group feeds, and the defaults
// to use for any field the format never mentions.
type Spec struct {
	Source   string
	Regex    *regexp.Regexp
	Fields   map[string]Field // capture group name -> field
	Defaults Defaults
}

// Compile translates a format string written in the specifier
// mini-language into a Spec. defaults fills in any field the format
// itself never captures.
func Compile(format string, defaults Defaults) (*Spec, error) {
	if format == "" {
		return nil, newFormatError(format, 0, "empty format")
	}

	var pattern strings.Builder
	fields := make(map[string]Field)
	used := make(map[Field]bool)

	runes := []rune(format)
	bytePos := 0
	lastWasFraction := false

	for i := 0; i < len(runes); {
		r := runes[i]

		if !unicode.IsLetter(r) {
			pattern.WriteString(regexp.QuoteMeta(string(r)))
			bytePos += len(string(r))
			i++
			lastWasFraction = false
			continue
		}

		tok, matched := matchSpecifier(runes[i:])
		if !matched {
			if r == 'T' {
				// ISO 8601 date/time separator, as in "YYYY-MM-DDThh:mm:ss".
				pattern.WriteString("T")
				bytePos++
				i++
				lastWasFraction = false
				continue
			}
			return nil, newFormatError(format, bytePos, "unknown specifier")
		}
		if used[tok.field] {
			return nil, newFormatError(format, bytePos, "duplicate specifier "+tok.token)
		}
		if lastWasFraction && tok.field != FieldTZOffset {
			return nil, newFormatError(format, bytePos, "ambiguous format: variable-width fractional seconds ('s') must be followed by a literal separator or TZD")
		}

		used[tok.field] = true
		name := tok.field.String()
		fields[name] = tok.field
		pattern.WriteString("(?P<" + name + ">" + tok.pattern + ")")

		lastWasFraction = tok.field == FieldFraction
		bytePos += len(tok.token)
		i += len([]rune(tok.token))
	}

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, newFormatError(format, 0, "internal regex compile failure: "+err.Error())
	}

	return &Spec{
		Source:   format,
		Regex:    re,
		Fields:   fields,
		Defaults: defaults,
	}, nil
}

// matchSpecifier finds the longest known specifier token matching the
// start of runes, trying 4, 3, 2, then 1 character windows.
func matchSpecifier(runes []rune) (specifierToken, bool) {
	for _, width := range []int{4, 3, 2, 1} {
		if len(runes) < width {
			continue
		}
		candidate := string(runes[:width])
		for _, s := range specifiers {
			if s.token == candidate {
				return s, true
			}
		}
	}
	return specifierToken{}, false
}

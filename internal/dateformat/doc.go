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

// Package dateformat compiles the specifier mini-language (YYYY, MM, DD,
// hh, mm, ss, s, TZD, plus literal separators) into a Spec: a
// search-anywhere regular expression, a capture-group-to-field map, and
// the defaults supplied for fields the format never mentions.
//
// Letters are reserved for specifiers, with one exception: a 'T' that
// does not begin TZD is the ISO 8601 date/time separator and is copied
// as a literal. Any other non-letter character is a literal separator
// copied into the compiled pattern verbatim (escaped for regexp). A run
// of letters that doesn't exactly match a known specifier, a specifier
// repeated within one format, or the fractional-second 's' followed
// directly by any specifier other than TZD, is a FormatError naming the
// byte position of the offending text. Month/day ordering is taken purely
// from specifier order in the format string, so there is no historic
// day/month swap: whichever of MM/DD appears first in the format is
// captured first.
package dateformat

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

// Package tsextract applies a compiled dateformat.Spec to a line of text
// and produces an epoch-millisecond timestamp, or reports that the line
// carries none. A FormatMismatch is never an error: it collapses into
// "no timestamp" at the call site, same as a field the regex never
// captured falls back to spec.Defaults.
//
// Detect tries a fixed catalog of common patterns against a sample line
// and returns the first one that matches, for callers (the discovery
// service) that need to guess a format instead of being told one.
package tsextract

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

// Package chunkmap accumulates fixed-size windows of output rows and
// persists them as the JSON mapping file that sits beside an Indexer or
// Merger's output. It also seeds append-mode resumption from a mapping
// file's tail and, on append, verifies that the output file's tail bytes
// still match what the mapping last recorded.
package chunkmap

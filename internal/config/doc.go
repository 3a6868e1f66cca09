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

// Package config loads CLI-wide defaults (chunk size, delimiter byte,
// discovery sample count, stdout-mirror toggle) from ./logtrail.yaml and
// LOGTRAIL_* environment variables. The merge config document (the list
// of input files for one merge) is a distinct, explicit input handled by
// internal/mergeconfig instead — this package only covers the ambient
// defaults every subcommand shares.
package config

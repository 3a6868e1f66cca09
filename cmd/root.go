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

// Package cmd is the thin cobra application wiring the internal
// indexing/merging engine to a command line. It carries no correctness
// logic of its own: every subcommand parses flags, assembles a Config
// from internal/config and internal/mergeconfig, and hands off to
// internal/indexer, internal/merger, or internal/discovery.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "logtrail",
	Short: "Index and merge log files for range-addressable viewing",
	Long: `logtrail rewrites one or more plain-text log files into a tagged,
row-numbered output stream plus a JSON chunk map, so a downstream viewer
can address ranges of lines without rescanning the original files.`,
}

// Execute adds all child commands to the root command and runs it. It is
// called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

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

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamtag/logtrail/internal/config"
	"github.com/streamtag/logtrail/internal/dateformat"
	"github.com/streamtag/logtrail/internal/discovery"
	"github.com/streamtag/logtrail/internal/tsextract"
)

func init() {
	cmd := &cobra.Command{
		Use:   "discover [files...]",
		Short: "Sample candidate files and propose a date format for each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			sampleLines, err := c.Flags().GetInt("sample-lines")
			if err != nil {
				return fmt.Errorf("failed to get sample-lines flag: %w", err)
			}
			return runDiscover(args, sampleLines)
		},
	}

	cmd.Flags().Int("sample-lines", 0, "non-empty lines sampled per file; 0 uses the configured default")

	rootCmd.AddCommand(cmd)
}

func runDiscover(paths []string, sampleLines int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if sampleLines <= 0 {
		sampleLines = cfg.Discover.SampleLines
	}

	sources := make([]discovery.Source, len(paths))
	for i, p := range paths {
		sources[i] = discovery.FileSource(p)
	}

	detector := tsextract.NewDetector(5 * time.Minute)
	report, err := discovery.Discover(sources, sampleLines, dateformat.Defaults{}, detector)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}

	for _, f := range report.Files {
		if f.Matched {
			fmt.Fprintf(os.Stdout, "%s: format=%q sample=%q\n", f.Path, f.Format, f.Sample)
		} else {
			fmt.Fprintf(os.Stdout, "%s: no format matched\n", f.Path)
		}
	}
	return nil
}

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

	"github.com/spf13/cobra"

	"github.com/streamtag/logtrail/internal/dateformat"
)

func init() {
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Test a date format specifier string against an example line",
		Long: `Implements the -f/-x contract: compiles the format named by -f and
reports whether it matches the example named by -x.`,
		RunE: func(c *cobra.Command, _ []string) error {
			spec, err := c.Flags().GetString("f")
			if err != nil {
				return fmt.Errorf("failed to get f flag: %w", err)
			}
			example, err := c.Flags().GetString("x")
			if err != nil {
				return fmt.Errorf("failed to get x flag: %w", err)
			}
			return runFormat(spec, example)
		},
	}

	cmd.Flags().StringP("f", "f", "", "date format specifier string")
	if err := cmd.MarkFlagRequired("f"); err != nil {
		panic(fmt.Errorf("failed to mark f flag as required: %w", err))
	}
	cmd.Flags().StringP("x", "x", "", "example line to test the format against")
	if err := cmd.MarkFlagRequired("x"); err != nil {
		panic(fmt.Errorf("failed to mark x flag as required: %w", err))
	}

	rootCmd.AddCommand(cmd)
}

func runFormat(spec, example string) error {
	compiled, err := dateformat.Compile(spec, dateformat.Defaults{})
	if err != nil {
		return fmt.Errorf("compile format: %w", err)
	}
	fmt.Fprintf(os.Stdout, "match: %t\n", compiled.Regex.MatchString(example))
	return nil
}

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

package discovery

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamtag/logtrail/internal/dateformat"
	"github.com/streamtag/logtrail/internal/tsextract"
)

type memSource struct {
	path string
	body string
}

func (s memSource) Open() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(s.body)), nil }
func (s memSource) Path() string                 { return s.path }

func TestDiscover_DetectsFirstMatchingCatalogFormat(t *testing.T) {
	sources := []Source{
		memSource{path: "a.log", body: "hello\nworld\n2024-03-01 10:20:30 started up\n"},
		memSource{path: "b.log", body: "05-22 12:36:36.506 +0100 boot\n"},
		memSource{path: "c.log", body: "no timestamps in here at all\nnope\n"},
	}

	detector := tsextract.NewDetector(time.Minute)
	report, err := Discover(sources, 10, dateformat.Defaults{Year: 2024}, detector)
	require.NoError(t, err)
	require.Len(t, report.Files, 3)

	assert.True(t, report.Files[0].Matched)
	assert.Equal(t, "YYYY-MM-DD hh:mm:ss", report.Files[0].Format)

	assert.True(t, report.Files[1].Matched)
	assert.Equal(t, "MM-DD hh:mm:ss.s TZD", report.Files[1].Format)

	assert.False(t, report.Files[2].Matched)
	assert.Empty(t, report.Files[2].Format)

	assert.ElementsMatch(t, []string{"YYYY-MM-DD hh:mm:ss", "MM-DD hh:mm:ss.s TZD"}, report.FormatsUsed)
}

func TestDiscover_StopsAtSampleLimit(t *testing.T) {
	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, "plain line with no timestamp")
	}
	lines = append(lines, "2024-03-01 10:20:30 too late")
	body := strings.Join(lines, "\n") + "\n"

	detector := tsextract.NewDetector(time.Minute)
	report, err := Discover([]Source{memSource{path: "late.log", body: body}}, 5, dateformat.Defaults{}, detector)
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.False(t, report.Files[0].Matched)
}

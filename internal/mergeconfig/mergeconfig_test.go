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

package mergeconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamtag/logtrail/internal/engine"
	"github.com/streamtag/logtrail/internal/tsextract"
)

func TestLoad_IgnoresUnknownKeysAndRejectsDuplicateTags(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "merge.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`[
		{"path": "a.log", "tag": "A", "format": "YYYY-MM-DD hh:mm:ss", "unknown_field": 123},
		{"path": "b.log", "tag": "B", "year": 2024}
	]`), 0o644))

	entries, err := Load(cfgPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "YYYY-MM-DD hh:mm:ss", entries[0].Format)
	require.NotNil(t, entries[1].Year)
	assert.Equal(t, 2024, *entries[1].Year)

	dupPath := filepath.Join(dir, "dup.json")
	require.NoError(t, os.WriteFile(dupPath, []byte(`[
		{"path": "a.log", "tag": "A"},
		{"path": "b.log", "tag": "A"}
	]`), 0o644))
	_, err = Load(dupPath)
	require.Error(t, err)
	assert.True(t, engine.IsConfigError(err))
}

func TestResolve_CompilesExplicitFormatAndDiscoversMissingOne(t *testing.T) {
	dir := t.TempDir()
	explicitPath := filepath.Join(dir, "explicit.log")
	require.NoError(t, os.WriteFile(explicitPath, []byte("2024-01-01 10:00:00 hi\n"), 0o644))
	discoveredPath := filepath.Join(dir, "discovered.log")
	require.NoError(t, os.WriteFile(discoveredPath, []byte("05-22 12:36:36.506 +0100 boot\n"), 0o644))

	entries := []Entry{
		{Path: explicitPath, Tag: "A", Format: "YYYY-MM-DD hh:mm:ss"},
		{Path: discoveredPath, Tag: "B"},
	}

	resolved, err := Resolve(entries, 10, tsextract.NewDetector(time.Minute))
	require.NoError(t, err)
	require.Len(t, resolved, 2)

	require.NotNil(t, resolved[0].Spec)
	assert.Empty(t, resolved[0].DetectedFormat)

	require.NotNil(t, resolved[1].Spec)
	assert.Equal(t, "MM-DD hh:mm:ss.s TZD", resolved[1].DetectedFormat)
}

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
	"encoding/json"
	"fmt"
	"os"

	"github.com/streamtag/logtrail/internal/dateformat"
	"github.com/streamtag/logtrail/internal/discovery"
	"github.com/streamtag/logtrail/internal/engine"
	"github.com/streamtag/logtrail/internal/sourcetag"
	"github.com/streamtag/logtrail/internal/tsextract"
)

// Entry is one element of the merge config document. Unknown JSON keys
// are ignored by encoding/json's default unmarshalling, per spec.
type Entry struct {
	Path   string `json:"path"`
	Tag    string `json:"tag"`
	Format string `json:"format,omitempty"`
	Year   *int   `json:"year,omitempty"`
	Offset *int   `json:"offset,omitempty"`
}

// Load parses path as a merge config document: a JSON array of Entry
// objects. A missing path, blank tag, or duplicate tag is a ConfigError.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.NewIoError("read merge config", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, engine.NewConfigError(fmt.Sprintf("parse merge config: %v", err))
	}

	registry := sourcetag.New()
	for i, e := range entries {
		if e.Path == "" {
			return nil, engine.NewConfigError(fmt.Sprintf("entry %d: missing path", i))
		}
		if e.Tag == "" {
			return nil, engine.NewConfigError(fmt.Sprintf("entry %d: missing tag", i))
		}
		if _, err := registry.Add(e.Tag); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// Resolved pairs one merge config entry with its compiled format,
// ready to become a merger.Stream once its file is opened.
type Resolved struct {
	Path           string
	Tag            string
	Spec           *dateformat.Spec // nil if neither the entry nor discovery found a format
	DetectedFormat string           // non-empty only when Spec came from discovery, not the entry itself
}

// Resolve compiles each entry's format, or — if it named none — runs
// discovery against the entry's own file to propose one. sampleLines
// and detector configure the discovery fallback; detector may be nil to
// skip caching.
func Resolve(entries []Entry, sampleLines int, detector *tsextract.Detector) ([]Resolved, error) {
	out := make([]Resolved, len(entries))
	for i, e := range entries {
		defaults := dateformat.Defaults{}
		if e.Year != nil {
			defaults.Year = *e.Year
		}
		if e.Offset != nil {
			defaults.TZOffsetMinutes = *e.Offset
		}

		resolved := Resolved{Path: e.Path, Tag: e.Tag}

		if e.Format != "" {
			spec, err := dateformat.Compile(e.Format, defaults)
			if err != nil {
				return nil, err
			}
			resolved.Spec = spec
			out[i] = resolved
			continue
		}

		report, err := discovery.Discover([]discovery.Source{discovery.FileSource(e.Path)}, sampleLines, defaults, detector)
		if err != nil {
			return nil, err
		}
		if len(report.Files) == 1 && report.Files[0].Matched {
			spec, err := dateformat.Compile(report.Files[0].Format, defaults)
			if err != nil {
				return nil, err
			}
			resolved.Spec = spec
			resolved.DetectedFormat = report.Files[0].Format
		}
		out[i] = resolved
	}
	return out, nil
}

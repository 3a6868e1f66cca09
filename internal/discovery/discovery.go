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
	"os"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/streamtag/logtrail/internal/dateformat"
	"github.com/streamtag/logtrail/internal/engine"
	"github.com/streamtag/logtrail/internal/textline"
	"github.com/streamtag/logtrail/internal/tsextract"
)

// DefaultSampleLines is the number of non-empty lines read from each
// candidate file when no override is configured, per spec's "default
// N=64".
const DefaultSampleLines = 64

// FileResult is one candidate's detection outcome.
type FileResult struct {
	Path    string
	Format  string // the catalog format string that matched; empty if Matched is false
	Sample  string // the sample line the format matched against
	Matched bool
}

// Report summarizes one Discover call across every candidate file.
type Report struct {
	Files []FileResult
	// FormatsUsed names every distinct catalog format that matched at
	// least one file, so a caller browsing results can see which
	// patterns actually earned their place in the catalog on this run.
	FormatsUsed []string
}

// Source narrows what Discover needs from a candidate input to an
// openable byte stream, so tests can supply an in-memory buffer instead
// of a real file.
type Source interface {
	Open() (io.ReadCloser, error)
	Path() string
}

// FileSource opens path as a regular file.
type FileSource string

func (s FileSource) Open() (io.ReadCloser, error) { return os.Open(string(s)) }
func (s FileSource) Path() string                 { return string(s) }

// Discover samples up to sampleLines non-empty lines from each source
// and runs the detector against them in order, stopping at the first
// source line that matches any catalog format. sampleLines <= 0 uses
// DefaultSampleLines.
func Discover(sources []Source, sampleLines int, defaults dateformat.Defaults, detector *tsextract.Detector) (Report, error) {
	if sampleLines <= 0 {
		sampleLines = DefaultSampleLines
	}

	used := mapset.NewThreadUnsafeSet[string]()
	report := Report{Files: make([]FileResult, 0, len(sources))}

	for _, src := range sources {
		result, err := discoverOne(src, sampleLines, defaults, detector)
		if err != nil {
			return Report{}, err
		}
		if result.Matched {
			used.Add(result.Format)
		}
		report.Files = append(report.Files, result)
	}

	report.FormatsUsed = used.ToSlice()
	return report, nil
}

func discoverOne(src Source, sampleLines int, defaults dateformat.Defaults, detector *tsextract.Detector) (FileResult, error) {
	result := FileResult{Path: src.Path()}

	f, err := src.Open()
	if err != nil {
		return FileResult{}, engine.NewIoError("open discovery candidate "+src.Path(), err)
	}
	defer f.Close()

	reader := textline.New(f)
	sampled := 0
	for sampled < sampleLines {
		line, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return FileResult{}, engine.NewIoError("read discovery candidate "+src.Path(), err)
		}
		if len(line.Bytes) == 0 {
			continue
		}
		sampled++

		text := line.Text()
		spec, ok := detector.Detect(text, defaults)
		if !ok {
			continue
		}
		result.Matched = true
		result.Format = spec.Source
		result.Sample = text
		return result, nil
	}
	return result, nil
}

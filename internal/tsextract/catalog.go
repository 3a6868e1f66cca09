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

package tsextract

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jellydator/ttlcache/v3"

	"github.com/streamtag/logtrail/internal/dateformat"
)

// catalogFormats lists the built-in formats tried, in order, by Detect.
// Ties are broken by this order: the first catalog entry that matches a
// sample line wins, even if a later entry would also match.
var catalogFormats = []string{
	"MM-DD hh:mm:ss.s TZD",
	"MM-DD-YYYY hh:mm:ss.s",
	"YYYY-MM-DD hh:mm:ss",
	"YYYY-MM-DDThh:mm:ss.sTZD",
	"YYYY-MM-DDThh:mm:ss",
}

type catalogEntry struct {
	format string
	spec   *dateformat.Spec
}

var catalog = compileCatalog()

func compileCatalog() []catalogEntry {
	entries := make([]catalogEntry, 0, len(catalogFormats))
	for _, f := range catalogFormats {
		spec, err := dateformat.Compile(f, dateformat.Defaults{})
		if err != nil {
			// A bad built-in catalog entry is a programming error, not a
			// runtime condition callers can recover from.
			panic(fmt.Sprintf("tsextract: built-in catalog format %q failed to compile: %v", f, err))
		}
		entries = append(entries, catalogEntry{format: f, spec: spec})
	}
	return entries
}

// Detect tries every catalog format against sample, in catalog order, and
// returns a copy of the first compiled Spec that matches, carrying
// defaults. It returns ok=false if nothing in the catalog matches.
func Detect(sample string, defaults dateformat.Defaults) (*dateformat.Spec, bool) {
	for _, entry := range catalog {
		if entry.spec.Regex.MatchString(sample) {
			spec := *entry.spec
			spec.Defaults = defaults
			return &spec, true
		}
	}
	return nil, false
}

// Detector wraps Detect with a bounded, time-limited cache so that a
// caller probing many files (or the same file more than once) doesn't
// re-run the whole catalog against an unchanged sample line.
type Detector struct {
	cache *ttlcache.Cache[uint64, *detectResult]
}

type detectResult struct {
	spec *dateformat.Spec
	ok   bool
}

// NewDetector creates a Detector whose cached results expire after ttl.
func NewDetector(ttl time.Duration) *Detector {
	return &Detector{
		cache: ttlcache.New[uint64, *detectResult](ttlcache.WithTTL[uint64, *detectResult](ttl)),
	}
}

// Detect behaves like the package-level Detect, but skips the catalog
// scan entirely on a cache hit for the same (sample, defaults) pair.
// A nil Detector has no cache and always runs the catalog scan.
func (d *Detector) Detect(sample string, defaults dateformat.Defaults) (*dateformat.Spec, bool) {
	if d == nil {
		return Detect(sample, defaults)
	}
	key := cacheKey(sample, defaults)
	if item := d.cache.Get(key); item != nil {
		r := item.Value()
		return r.spec, r.ok
	}

	spec, ok := Detect(sample, defaults)
	d.cache.Set(key, &detectResult{spec: spec, ok: ok}, ttlcache.DefaultTTL)
	return spec, ok
}

func cacheKey(sample string, defaults dateformat.Defaults) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(sample)
	_, _ = fmt.Fprintf(h, "|%d-%d-%d|%d", defaults.Year, defaults.Month, defaults.Day, defaults.TZOffsetMinutes)
	return h.Sum64()
}

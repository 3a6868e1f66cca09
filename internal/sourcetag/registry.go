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

package sourcetag

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/streamtag/logtrail/internal/engine"
)

// Registry assigns each distinct tag a stable zero-based priority index
// in first-seen order and rejects a tag registered twice, matching the
// "unique within a merge operation" invariant on SourceTag.
type Registry struct {
	seen  mapset.Set[string]
	order []string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{seen: mapset.NewThreadUnsafeSet[string]()}
}

// Add registers tag and returns its priority index. It returns a
// ConfigError if tag has already been registered.
func (r *Registry) Add(tag string) (int, error) {
	if r.seen.Contains(tag) {
		return 0, engine.NewConfigError(fmt.Sprintf("duplicate source tag %q", tag))
	}
	r.seen.Add(tag)
	r.order = append(r.order, tag)
	return len(r.order) - 1, nil
}

// Index returns the priority index previously assigned to tag, and
// whether tag has been registered at all.
func (r *Registry) Index(tag string) (int, bool) {
	for i, t := range r.order {
		if t == tag {
			return i, true
		}
	}
	return 0, false
}

// Tags returns every registered tag in priority order.
func (r *Registry) Tags() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tags.
func (r *Registry) Len() int { return len(r.order) }

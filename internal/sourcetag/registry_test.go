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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamtag/logtrail/internal/engine"
)

func TestRegistry_AssignsStableOrder(t *testing.T) {
	r := New()
	i0, err := r.Add("A")
	require.NoError(t, err)
	i1, err := r.Add("B")
	require.NoError(t, err)

	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)
	assert.Equal(t, []string{"A", "B"}, r.Tags())
}

func TestRegistry_RejectsDuplicate(t *testing.T) {
	r := New()
	_, err := r.Add("A")
	require.NoError(t, err)

	_, err = r.Add("A")
	require.Error(t, err)
	assert.True(t, engine.IsConfigError(err))
}

func TestRegistry_IndexLookup(t *testing.T) {
	r := New()
	_, _ = r.Add("A")
	_, _ = r.Add("B")

	idx, ok := r.Index("B")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = r.Index("missing")
	assert.False(t, ok)
}

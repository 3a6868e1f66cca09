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

package engine

import (
	"fmt"
	"sync"

	"github.com/sony/sonyflake"
)

var (
	idGenOnce sync.Once
	idGen     *sonyflake.Sonyflake
	idGenErr  error
)

// NewOperationID returns a short, sortable identifier for one
// Indexer/Merger run, used only to correlate log lines and stdout
// progress entries belonging to the same run. It never appears in the
// output file or the mapping file.
func NewOperationID() (string, error) {
	idGenOnce.Do(func() {
		idGen, idGenErr = sonyflake.New(sonyflake.Settings{})
	})
	if idGenErr != nil {
		return "", fmt.Errorf("engine: initialize operation id generator: %w", idGenErr)
	}
	id, err := idGen.NextID()
	if err != nil {
		return "", fmt.Errorf("engine: generate operation id: %w", err)
	}
	return fmt.Sprintf("%x", id), nil
}

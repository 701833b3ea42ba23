/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package network

import (
	"fmt"

	"github.com/pkg/errors"
)

// Source is a leaf of a learning network holding mutable, externally supplied
// data. Sources have identity semantics: two sources holding equal data are
// still different sources, and the same Source object may be shared by any
// number of nodes and machines.
type Source struct {
	id   int64
	data any
}

// NewSource creates a Source seeded with the given data. Pass Absent to create
// a placeholder source with no data bound.
func NewSource(data any) *Source {
	return &Source{id: nextId.Add(1), data: data}
}

// Get returns the currently bound data, which may be Absent.
func (s *Source) Get() any { return s.data }

// Set replaces the bound data wholesale. Installing Absent detaches the
// source. The replacement is visible to every node referencing s.
func (s *Source) Set(data any) { s.data = data }

// IsAbsent reports whether the source currently holds the Absent marker.
func (s *Source) IsAbsent() bool {
	_, ok := s.data.(absent)
	return ok
}

// Value implements GraphNode. It fails if no data is bound.
func (s *Source) Value() (any, error) {
	if s.IsAbsent() {
		return nil, errors.Errorf("%s has no data bound", s)
	}
	return s.data, nil
}

// String implements fmt.Stringer.
func (s *Source) String() string {
	return fmt.Sprintf("Source#%d", s.id)
}

/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package apis

import (
	"errors"

	"dirpx.dev/tdx/converter"
	"dirpx.dev/tdx/internal/memo"
	"dirpx.dev/tdx/typegraph"
)

// ErrRegistrationRequired is returned in strict mode for a type that is
// neither registered nor intrinsic.
var ErrRegistrationRequired = errors.New("tdx: type must be registered before use")

// Registry tracks registration records per type. Each record owns the
// per-type descriptor state (TypeData) which Refresh replaces without
// touching the registration itself.
type Registry interface {
	// Register marks t as explicitly registered. It is idempotent and never
	// replaces an existing record's TypeData.
	Register(t *typegraph.Node) error
	// IsRegistered reports whether t has an explicit registration or is
	// intrinsic.
	IsRegistered(t *typegraph.Node) bool
	// Acquire returns the TypeData for t, creating an unregistered record on
	// first use. In strict mode it fails with ErrRegistrationRequired for a
	// type that is neither registered nor intrinsic.
	Acquire(t *typegraph.Node) (*TypeData, error)
	// Find returns the TypeData for t without creating a record.
	Find(t *typegraph.Node) (*TypeData, bool)
	// Refresh drops the populated state of t. Registration is kept.
	Refresh(t *typegraph.Node)
	// Entries returns a snapshot of all records (order is unspecified).
	Entries() []Record
	// Count returns the number of explicitly registered types.
	Count() int
	// Reset clears all records.
	Reset()
}

// Record is a single entry in a Registry snapshot.
type Record struct {
	// Type is the node the record is keyed by.
	Type *typegraph.Node
	// Registered is true after Register.
	Registered bool
	// Populated is true once a full scan of at least one descriptor facet
	// (attributes, properties or events) has succeeded. See TypeData.IsPopulated.
	Populated bool
}

// TypeData holds the memoized descriptor facets of one type. Each facet is
// published at most once; Refresh swaps in a fresh TypeData instead of
// clearing fields.
type TypeData struct {
	Type       *typegraph.Node
	Attributes memo.Cell[*AttributeSet]
	Properties memo.Cell[*PropertyCollection]
	Events     memo.Cell[*EventCollection]
	Converter  memo.Cell[converter.Converter]
}

// NewTypeData returns empty state for t.
func NewTypeData(t *typegraph.Node) *TypeData { return &TypeData{Type: t} }

// IsPopulated reports whether a full attribute, property or event scan of
// the type has completed successfully. Each facet is scanned as a whole and
// only successful scans are stored, so a failed scan leaves the type
// unpopulated. The converter facet does not count.
func (d *TypeData) IsPopulated() bool {
	return d.Attributes.Loaded() || d.Properties.Loaded() || d.Events.Loaded()
}

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

package memo

// State is the resolution state of a Slot.
type State uint8

const (
	// Unresolved means no lookup has completed yet.
	Unresolved State = iota
	// Resolved means the lookup produced a value.
	Resolved
	// KnownAbsent means the lookup completed and found nothing.
	KnownAbsent
)

func (s State) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case KnownAbsent:
		return "known-absent"
	default:
		return "unresolved"
	}
}

// Slot records the outcome of a lookup that may legitimately find nothing.
// The zero Slot is Unresolved.
type Slot[V any] struct {
	State State
	Value V
}

// ResolvedTo returns a Resolved slot holding v.
func ResolvedTo[V any](v V) Slot[V] { return Slot[V]{State: Resolved, Value: v} }

// Absent returns a KnownAbsent slot.
func Absent[V any]() Slot[V] { return Slot[V]{State: KnownAbsent} }

// Get returns the value and whether the slot is Resolved.
func (s Slot[V]) Get() (V, bool) { return s.Value, s.State == Resolved }

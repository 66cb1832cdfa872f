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

package extender

import (
	"sync"

	"dirpx.dev/tdx/apis"
)

// MapStore is an apis.Store backed by sync.Map.
type MapStore struct {
	m sync.Map
}

// NewStore returns an empty store.
func NewStore() *MapStore { return &MapStore{} }

var _ apis.Store = (*MapStore)(nil)

func (s *MapStore) Load(key any) (any, bool) { return s.m.Load(key) }
func (s *MapStore) Store(key, value any)     { s.m.Store(key, value) }
func (s *MapStore) Delete(key any)           { s.m.Delete(key) }

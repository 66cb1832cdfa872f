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

package strategy

import (
	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/converter"
	"dirpx.dev/tdx/intrinsic"
	"dirpx.dev/tdx/typegraph"
)

// NewIntrinsicStrategy creates an apis.Strategy backed by an intrinsic table.
// A nil table selects intrinsic.Default().
func NewIntrinsicStrategy(table *intrinsic.Table) apis.Strategy {
	if table == nil {
		table = intrinsic.Default()
	}
	return &intrinsicStrategy{table: table}
}

// intrinsicStrategy consults the intrinsic table. The universal Object
// converter is treated as a miss so reflected discovery gets a turn.
type intrinsicStrategy struct {
	table *intrinsic.Table
}

var _ apis.Strategy = (*intrinsicStrategy)(nil)

// TryResolve looks t up in the intrinsic table.
func (s *intrinsicStrategy) TryResolve(t *typegraph.Node, _ any, _ apis.Config) (converter.Converter, bool, error) {
	if t == nil {
		return nil, false, nil
	}
	c, err := s.table.Lookup(t)
	if err != nil {
		return nil, false, err
	}
	if s.table.IsFallback(c) {
		return nil, false, nil
	}
	return c, true, nil
}

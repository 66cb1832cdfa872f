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
	"dirpx.dev/tdx/typegraph"
)

// NewFallbackStrategy creates the universal fallback: every type gets the
// Object converter.
func NewFallbackStrategy() apis.Strategy {
	return fallbackStrategy{}
}

type fallbackStrategy struct{}

var _ apis.Strategy = fallbackStrategy{}

// TryResolve always handles t.
func (fallbackStrategy) TryResolve(*typegraph.Node, any, apis.Config) (converter.Converter, bool, error) {
	return converter.Object{}, true, nil
}

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
	"dirpx.dev/tdx/converter"
	"dirpx.dev/tdx/typegraph"
)

// Strategy is a pluggable converter discovery step. A Resolver chains
// strategies in order (e.g., Instance -> Intrinsic -> Attribute -> Fallback).
type Strategy interface {
	// TryResolve attempts to find the converter for type t, optionally
	// consulting instance. It returns (c, true, nil) if handled and
	// (nil, false, nil) to fall through. Errors stop the chain.
	TryResolve(t *typegraph.Node, instance any, cfg Config) (converter.Converter, bool, error)
}

// ConverterProvider is implemented by instances that supply their own
// converter ahead of any type-based lookup.
type ConverterProvider interface {
	Converter() converter.Converter
}

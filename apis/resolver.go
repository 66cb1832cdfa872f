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

// Resolver coordinates strategies to find the converter for a type.
type Resolver interface {
	// Resolve returns the converter for t, consulting instance when given.
	Resolve(t *typegraph.Node, instance any, cfg Config) (converter.Converter, error)
}

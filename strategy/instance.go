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

// NewInstanceStrategy creates an apis.Strategy that uses apis.ConverterProvider.
func NewInstanceStrategy() apis.Strategy {
	return &instanceStrategy{}
}

// instanceStrategy is a zero-cost fast path: if the instance implements
// apis.ConverterProvider, return its converter and stop the chain.
type instanceStrategy struct{}

// Ensure instanceStrategy implements apis.Strategy.
var _ apis.Strategy = (*instanceStrategy)(nil)

// TryResolve checks if instance implements apis.ConverterProvider.
func (*instanceStrategy) TryResolve(_ *typegraph.Node, instance any, _ apis.Config) (converter.Converter, bool, error) {
	if instance == nil {
		return nil, false, nil
	}
	if p, ok := instance.(apis.ConverterProvider); ok {
		if c := p.Converter(); c != nil {
			return c, true, nil
		}
	}
	return nil, false, nil
}

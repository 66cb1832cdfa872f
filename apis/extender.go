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

import "dirpx.dev/tdx/typegraph"

// Provider contributes extended properties to the instances it can extend.
// Its Type carries the ProvideProperty attributes and Get/Set methods.
type Provider interface {
	CanExtend(instance any) bool
	Type() *typegraph.Node
}

// Component is an instance that may live in a container.
type Component interface {
	// Site returns the container site, or nil when unsited.
	Site() Site
}

// Site connects a component to its container's services.
type Site interface {
	// Extenders lists the container's extender providers in order.
	Extenders() []Provider
	// Store returns the per-component cache, or nil when caching is not
	// supported.
	Store() Store
}

// Store is a concurrent key/value cache owned by one component.
type Store interface {
	Load(key any) (any, bool)
	Store(key, value any)
	Delete(key any)
}

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

// Package tdx answers design-time questions about types loaded from
// metadata: which attributes, properties and events a type exposes, which
// converter turns its values into text and back, and which extra properties
// the providers of an instance's container contribute.
//
// # Design
//
// The core of tdx is a read-mostly global snapshot (state). The snapshot
// holds:
//
//   - Config: strict registration, the ancestor-walk depth guard and the
//     log level.
//
//   - Registry: one record per type that has been registered or queried.
//     A record carries the registered flag and the lazily merged
//     descriptors of its type. Registering is permanent; Refresh drops the
//     merged descriptors but keeps the registration.
//
//   - Resolver: the converter chain. The default chain tries, in order:
//     1. an instance implementing apis.ConverterProvider;
//     2. the intrinsic table (scalars, enums, arrays, nullables,
//     collections, interfaces, Uri and CultureInfo bases);
//     3. a TypeConverter attribute naming a registered factory;
//     4. the universal Object converter.
//
//   - Builder: constructs Registry and Resolver for a Config and carries
//     registrations over from the previous registry.
//
// Readers load the current snapshot atomically and never lock. Writers
// take a build mutex, assemble a new snapshot and swap it in.
//
// # Caching
//
// Two levels of cache sit behind the queries:
//
//   - process-wide memo tables hold what each type declares on its own
//     (attributes, properties, events, extender templates). ClearAll drops
//     them.
//
//   - each registry record holds the merged view along the type's
//     lineage. Refresh drops it for one type.
//
// Population runs once per key under a single coarse lock and publishes
// with insert-if-absent, so concurrent first queries observe the same
// collection. Failures are never cached.
//
// # Pinning
//
// SetRegistry and SetResolver pin their layer: later SetConfig, SetBuilder
// and SetExt calls leave a pinned layer alone until it is unpinned.
//
// # Usage
//
//	g := typegraph.New(src)
//	widget, _ := g.ResolveDefinition("Sample.Widget")
//	_ = tdx.Register(widget)
//	props, _ := tdx.PropertiesOf(widget, nil)
//	for p := range props.All() {
//		fmt.Println(p.Name, p.Type)
//	}
package tdx

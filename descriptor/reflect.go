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

package descriptor

import (
	"dirpx.dev/tdx/apis"
	"dirpx.dev/tdx/internal/memo"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
)

// Process-wide caches of what each node declares itself. They never recurse
// to the base type and are only dropped by ClearAll.
var (
	attributeCache memo.Table[*typegraph.Node, []metadata.Attribute]
	propertyCache  memo.Table[*typegraph.Node, []*apis.PropertyDescriptor]
	eventCache     memo.Table[*typegraph.Node, []*apis.EventDescriptor]
)

// skipInterfaceAttributes never flow from an interface to its implementers.
var skipInterfaceAttributes = map[metadata.TypeRef]struct{}{
	metadata.AttrGuid:          {},
	metadata.AttrInterfaceType: {},
	metadata.AttrComVisible:    {},
}

// ClearAll drops the process-wide declared-member caches. Per-type state
// held by registries is not touched; use Refresh for that.
func ClearAll() {
	attributeCache.Clear()
	propertyCache.Clear()
	eventCache.Clear()
}

// Callers hold the population lock.
func declaredAttributes(n *typegraph.Node) ([]metadata.Attribute, error) {
	return attributeCache.GetLocked(n, n.Attributes)
}

func declaredProperties(n *typegraph.Node) ([]*apis.PropertyDescriptor, error) {
	return propertyCache.GetLocked(n, func() ([]*apis.PropertyDescriptor, error) {
		var out []*apis.PropertyDescriptor
		for m, err := range n.SpecializeMembers(metadata.MemberProperty, nil) {
			if err != nil {
				return nil, err
			}
			// Write-only, static and indexed properties are not surfaced.
			if m.Static || len(m.Params) > 0 || m.Get == nil || !m.Get.Public {
				continue
			}
			attrs, err := m.Attributes()
			if err != nil {
				return nil, err
			}
			out = append(out, &apis.PropertyDescriptor{
				Name:          m.Name,
				Type:          m.Type,
				ComponentType: n,
				ReadOnly:      m.Set == nil || !m.Set.Public,
				Attributes:    apis.NewAttributeSet(attrs...),
				Member:        m,
			})
		}
		return out, nil
	})
}

func declaredEvents(n *typegraph.Node) ([]*apis.EventDescriptor, error) {
	return eventCache.GetLocked(n, func() ([]*apis.EventDescriptor, error) {
		var out []*apis.EventDescriptor
		for m, err := range n.SpecializeMembers(metadata.MemberEvent, nil) {
			if err != nil {
				return nil, err
			}
			// A half-overridden event is skipped here; the base scan
			// supplies the complete pair.
			if m.Static || !m.Public || m.Add == nil || m.Remove == nil {
				continue
			}
			attrs, err := m.Attributes()
			if err != nil {
				return nil, err
			}
			out = append(out, &apis.EventDescriptor{
				Name:          m.Name,
				HandlerType:   m.Type,
				ComponentType: n,
				Attributes:    apis.NewAttributeSet(attrs...),
				Member:        m,
			})
		}
		return out, nil
	})
}

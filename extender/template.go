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
	"errors"

	"dirpx.dev/tdx/internal/memo"
	"dirpx.dev/tdx/metadata"
	"dirpx.dev/tdx/typegraph"
	"dirpx.dev/tdx/utils/ancestry"
)

// template is the per provider type part of an extended property: the
// accessor methods and the receiver type. It is shared by every provider
// instance of the type.
type template struct {
	name     string
	typ      *typegraph.Node
	receiver *typegraph.Node
	get, set *typegraph.MemberView
}

// templateCache maps a provider type to its templates. Dropped by ClearAll.
var templateCache memo.Table[*typegraph.Node, []*template]

// templatesLocked returns the templates of provider type pt. The caller
// holds the population lock.
func templatesLocked(w ancestry.Walker, pt *typegraph.Node) ([]*template, error) {
	return templateCache.GetLocked(pt, func() ([]*template, error) {
		return buildTemplates(w, pt)
	})
}

// buildTemplates pairs each ProvideProperty attribute with a public
// instance Get<Name>(receiver) method and an optional matching
// Set<Name>(receiver, value) method.
func buildTemplates(w ancestry.Walker, pt *typegraph.Node) ([]*template, error) {
	lineage, err := w.Lineage(pt)
	if err != nil {
		return nil, err
	}
	var methods []*typegraph.MemberView
	var provides []metadata.Attribute
	for _, n := range lineage {
		attrs, err := n.Attributes()
		if err != nil {
			return nil, err
		}
		for _, a := range attrs {
			if a.Type == metadata.AttrProvideProperty {
				provides = append(provides, a)
			}
		}
		ms, err := n.Members(metadata.MemberMethod)
		if err != nil {
			return nil, err
		}
		methods = append(methods, ms...)
	}

	var out []*template
	for _, a := range provides {
		name, ok1 := a.StringArg(0)
		recv, ok2 := a.StringArg(1)
		if !ok1 || !ok2 || name == "" {
			continue
		}
		receiver, err := pt.Graph().ResolveDefinition(metadata.TypeRef(recv))
		if errors.Is(err, metadata.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		get := findMethod(methods, "Get"+name, func(m *typegraph.MemberView) bool {
			return m.Type != nil && len(m.Params) == 1 && m.Params[0] == receiver
		})
		if get == nil {
			continue
		}
		set := findMethod(methods, "Set"+name, func(m *typegraph.MemberView) bool {
			return len(m.Params) == 2 && m.Params[0] == receiver && m.Params[1] == get.Type
		})
		out = append(out, &template{name: name, typ: get.Type, receiver: receiver, get: get, set: set})
	}
	return out, nil
}

func findMethod(methods []*typegraph.MemberView, name string, match func(*typegraph.MemberView) bool) *typegraph.MemberView {
	for _, m := range methods {
		if m.Name == name && m.Public && !m.Static && match(m) {
			return m
		}
	}
	return nil
}

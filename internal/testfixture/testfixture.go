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

// Package testfixture builds a small sample metadata library shared by the
// package tests.
package testfixture

import (
	"dirpx.dev/tdx/metadata"
)

// Sample type refs.
const (
	RefMarker         metadata.TypeRef = "Sample.IMarker"
	RefOther          metadata.TypeRef = "Sample.IOther"
	RefService        metadata.TypeRef = "Sample.IService"
	RefColor          metadata.TypeRef = "Sample.Color"
	RefFlags          metadata.TypeRef = "Sample.Flags"
	RefWidget         metadata.TypeRef = "Sample.Widget"
	RefFancyWidget    metadata.TypeRef = "Sample.FancyWidget"
	RefBox            metadata.TypeRef = "Sample.Box`1"
	RefPair           metadata.TypeRef = "Sample.Pair`2"
	RefIntBox         metadata.TypeRef = "Sample.IntBox"
	RefOuter          metadata.TypeRef = "Sample.Outer"
	RefInner          metadata.TypeRef = "Sample.Outer+Inner"
	RefGlobal         metadata.TypeRef = "GlobalThing"
	RefIntList        metadata.TypeRef = "Sample.IntList"
	RefMyUri          metadata.TypeRef = "Sample.MyUri"
	RefMyCulture      metadata.TypeRef = "Sample.MyCulture"
	RefShape          metadata.TypeRef = "Sample.Shape"
	RefCircle         metadata.TypeRef = "Sample.Circle"
	RefBroken         metadata.TypeRef = "Sample.Broken"
	RefWidgetExtender metadata.TypeRef = "Sample.WidgetExtender"
	RefPlain          metadata.TypeRef = "Sample.Plain"
	RefBadBase        metadata.TypeRef = "Sample.BadBase"

	AttrOwn    metadata.TypeRef = "Sample.OwnAttribute"
	AttrMarker metadata.TypeRef = "Sample.MarkerAttribute"
	AttrOther  metadata.TypeRef = "Sample.OtherAttribute"
	AttrBase   metadata.TypeRef = "Sample.BaseAttribute"

	// ShapeConverterName is the TypeConverterAttribute argument on Sample.Shape.
	ShapeConverterName = "Sample.ShapeConverter"
	// MissingConverterName names a converter no factory is registered for.
	MissingConverterName = "Sample.MissingConverter"
	// WidgetGUID is the GuidAttribute value on Sample.Widget.
	WidgetGUID = "6f9619ff-8b86-d011-b42d-00c04fc964ff"
)

var (
	pub    = &metadata.Accessor{Public: true}
	object = metadata.Named(metadata.RefObject)
)

func named(ref metadata.TypeRef) metadata.TypeSig { return metadata.Named(ref) }

func class(ref metadata.TypeRef, name string, base metadata.TypeSig) *metadata.TypeDefinition {
	return &metadata.TypeDefinition{Ref: ref, Name: name, Namespace: "Sample", Kind: metadata.KindClass, Base: &base, Public: true}
}

func iface(ref metadata.TypeRef, name string, attrs ...metadata.Attribute) *metadata.TypeDefinition {
	return &metadata.TypeDefinition{Ref: ref, Name: name, Namespace: "Sample", Kind: metadata.KindInterface, Public: true, Attributes: attrs}
}

func enum(ref metadata.TypeRef, name string, underlying metadata.TypeRef, names ...string) *metadata.TypeDefinition {
	d := &metadata.TypeDefinition{Ref: ref, Name: name, Namespace: "Sample", Kind: metadata.KindEnum, Underlying: underlying, Public: true}
	for i, n := range names {
		d.Fields = append(d.Fields, metadata.Field{Name: n, Type: named(ref), Public: true, Static: true, Literal: int64(i)})
	}
	return d
}

func attr(t metadata.TypeRef, args ...any) metadata.Attribute {
	return metadata.Attribute{Type: t, Args: args}
}

// Definitions returns the sample library without the core library.
func Definitions() []*metadata.TypeDefinition {
	widget := class(RefWidget, "Widget", object)
	widget.Interfaces = []metadata.TypeSig{named(RefMarker), named(RefOther)}
	widget.Layout = metadata.Layout{Kind: metadata.LayoutSequential, CharSet: metadata.CharSetUnicode, Pack: 8}
	widget.Attributes = []metadata.Attribute{
		attr(AttrOwn),
		attr(metadata.AttrGuid, WidgetGUID),
		attr(metadata.AttrDefaultProperty, "Size"),
		attr(metadata.AttrDefaultEvent, "Click"),
	}
	widget.Constructors = []metadata.Method{{Name: ".ctor", Public: true}}
	widget.Properties = []metadata.Property{
		{Name: "Size", Type: named(metadata.RefInt32), Get: pub, Set: pub,
			Attributes: []metadata.Attribute{attr(AttrOwn)}},
		{Name: "Name", Type: named(metadata.RefString), Get: pub},
		{Name: "Secret", Type: named(metadata.RefInt32), Set: pub},
		{Name: "Item", Type: named(metadata.RefString), Get: pub, Index: []metadata.TypeSig{named(metadata.RefInt32)}},
		{Name: "Count", Type: named(metadata.RefInt32), Get: pub, Static: true},
		{Name: "Hidden", Type: named(metadata.RefInt32), Get: &metadata.Accessor{}},
	}
	widget.Events = []metadata.Event{
		{Name: "Click", Handler: named(metadata.RefDelegate), Add: pub, Remove: pub},
		{Name: "Changed", Handler: named(metadata.RefDelegate), Add: pub, Remove: pub},
		{Name: "Half", Handler: named(metadata.RefDelegate), Add: pub},
	}

	fancy := class(RefFancyWidget, "FancyWidget", named(RefWidget))
	fancy.Attributes = []metadata.Attribute{attr(AttrOwn, "fancy")}
	fancy.Properties = []metadata.Property{
		{Name: "Name", Type: named(metadata.RefString), Get: pub, Set: pub},
		{Name: "Color", Type: named(RefColor), Get: pub, Set: pub},
	}
	fancy.Events = []metadata.Event{
		{Name: "Changed", Handler: named(metadata.RefDelegate), Add: pub},
		{Name: "Hover", Handler: named(metadata.RefDelegate), Add: pub, Remove: pub},
	}

	box := class(RefBox, "Box`1", object)
	box.GenericParams = []string{"T"}
	box.Fields = []metadata.Field{{Name: "items", Type: metadata.ArraySig(metadata.Param(0), 1)}}
	box.Methods = []metadata.Method{
		{Name: "Get", Return: ptr(metadata.Param(0)), Public: true},
		{Name: "Put", Params: []metadata.TypeSig{metadata.Param(0)}, Public: true},
		{Name: "Maybe", Return: ptr(metadata.Generic(metadata.RefNullable, metadata.Param(0))), Public: true},
	}
	box.Properties = []metadata.Property{{Name: "Value", Type: metadata.Param(0), Get: pub, Set: pub}}

	pair := class(RefPair, "Pair`2", object)
	pair.GenericParams = []string{"K", "V"}
	pair.Properties = []metadata.Property{
		{Name: "Key", Type: metadata.Param(0), Get: pub},
		{Name: "Value", Type: metadata.Param(1), Get: pub},
	}

	intBox := class(RefIntBox, "IntBox", metadata.Generic(RefBox, named(metadata.RefInt32)))

	outer := class(RefOuter, "Outer", object)
	inner := class(RefInner, "Inner", object)
	inner.Declaring = RefOuter
	inner.Namespace = ""

	global := &metadata.TypeDefinition{Ref: RefGlobal, Name: "GlobalThing", Kind: metadata.KindClass, Base: &object}

	intList := class(RefIntList, "IntList", object)
	intList.Interfaces = []metadata.TypeSig{named(metadata.RefICollection)}

	shape := class(RefShape, "Shape", object)
	shape.Attributes = []metadata.Attribute{attr(metadata.AttrTypeConverter, ShapeConverterName), attr(AttrBase)}
	circle := class(RefCircle, "Circle", named(RefShape))
	broken := class(RefBroken, "Broken", object)
	broken.Attributes = []metadata.Attribute{attr(metadata.AttrTypeConverter, MissingConverterName)}

	extender := class(RefWidgetExtender, "WidgetExtender", object)
	extender.Attributes = []metadata.Attribute{
		attr(metadata.AttrProvideProperty, "ToolTip", string(RefWidget)),
		attr(metadata.AttrProvideProperty, "HelpText", string(RefWidget)),
		attr(metadata.AttrProvideProperty, "Margin", string(RefFancyWidget)),
		attr(metadata.AttrProvideProperty, "Ghost", string(RefWidget)),
	}
	extender.Methods = []metadata.Method{
		{Name: "GetToolTip", Return: ptr(named(metadata.RefString)), Params: []metadata.TypeSig{named(RefWidget)}, Public: true},
		{Name: "SetToolTip", Params: []metadata.TypeSig{named(RefWidget), named(metadata.RefString)}, Public: true},
		{Name: "GetHelpText", Return: ptr(named(metadata.RefString)), Params: []metadata.TypeSig{named(RefWidget)}, Public: true},
		{Name: "GetMargin", Return: ptr(named(metadata.RefInt32)), Params: []metadata.TypeSig{named(RefFancyWidget)}, Public: true},
		{Name: "SetMargin", Params: []metadata.TypeSig{named(RefFancyWidget), named(metadata.RefInt32)}, Public: true},
	}

	badBase := class(RefBadBase, "BadBase", named("Sample.DoesNotExist"))

	return []*metadata.TypeDefinition{
		iface(RefMarker, "IMarker",
			attr(AttrMarker),
			attr(metadata.AttrGuid, "00000000-0000-0000-0000-000000000001"),
			attr(metadata.AttrComVisible, true),
			attr(metadata.AttrInterfaceType, 1)),
		iface(RefOther, "IOther", attr(AttrOther)),
		iface(RefService, "IService"),
		enum(RefColor, "Color", metadata.RefInt32, "Red", "Green", "Blue"),
		enum(RefFlags, "Flags", metadata.RefByte, "None", "One"),
		widget, fancy, box, pair, intBox, outer, inner, global, intList,
		class(RefMyUri, "MyUri", named(metadata.RefUri)),
		class(RefMyCulture, "MyCulture", named(metadata.RefCultureInfo)),
		shape, circle, broken, extender,
		class(RefPlain, "Plain", object),
		badBase,
	}
}

// Source returns a fresh source holding the core library and the sample
// library.
func Source() *metadata.MemorySource {
	src, err := metadata.NewMemorySource("sample", append(metadata.CoreLibrary(), Definitions()...)...)
	if err != nil {
		panic(err)
	}
	return src
}

func ptr(s metadata.TypeSig) *metadata.TypeSig { return &s }

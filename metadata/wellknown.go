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

package metadata

// Well-known core type refs.
const (
	RefObject         TypeRef = "System.Object"
	RefValueType      TypeRef = "System.ValueType"
	RefEnum           TypeRef = "System.Enum"
	RefArray          TypeRef = "System.Array"
	RefBoolean        TypeRef = "System.Boolean"
	RefChar           TypeRef = "System.Char"
	RefSByte          TypeRef = "System.SByte"
	RefByte           TypeRef = "System.Byte"
	RefInt16          TypeRef = "System.Int16"
	RefUInt16         TypeRef = "System.UInt16"
	RefInt32          TypeRef = "System.Int32"
	RefUInt32         TypeRef = "System.UInt32"
	RefInt64          TypeRef = "System.Int64"
	RefUInt64         TypeRef = "System.UInt64"
	RefInt128         TypeRef = "System.Int128"
	RefUInt128        TypeRef = "System.UInt128"
	RefHalf           TypeRef = "System.Half"
	RefSingle         TypeRef = "System.Single"
	RefDouble         TypeRef = "System.Double"
	RefDecimal        TypeRef = "System.Decimal"
	RefString         TypeRef = "System.String"
	RefDateTime       TypeRef = "System.DateTime"
	RefDateTimeOffset TypeRef = "System.DateTimeOffset"
	RefDateOnly       TypeRef = "System.DateOnly"
	RefTimeOnly       TypeRef = "System.TimeOnly"
	RefTimeSpan       TypeRef = "System.TimeSpan"
	RefGuid           TypeRef = "System.Guid"
	RefUri            TypeRef = "System.Uri"
	RefVersion        TypeRef = "System.Version"
	RefDBNull         TypeRef = "System.DBNull"
	RefCultureInfo    TypeRef = "System.Globalization.CultureInfo"
	RefNullable       TypeRef = "System.Nullable`1"
	RefICollection    TypeRef = "System.Collections.ICollection"
	RefDelegate       TypeRef = "System.EventHandler"
)

// Well-known attribute refs.
const (
	AttrGuid             TypeRef = "System.Runtime.InteropServices.GuidAttribute"
	AttrInterfaceType    TypeRef = "System.Runtime.InteropServices.InterfaceTypeAttribute"
	AttrComVisible       TypeRef = "System.Runtime.InteropServices.ComVisibleAttribute"
	AttrTypeConverter    TypeRef = "System.ComponentModel.TypeConverterAttribute"
	AttrProvideProperty  TypeRef = "System.ComponentModel.ProvidePropertyAttribute"
	AttrDefaultProperty  TypeRef = "System.ComponentModel.DefaultPropertyAttribute"
	AttrDefaultEvent     TypeRef = "System.ComponentModel.DefaultEventAttribute"
	AttrExtenderProvided TypeRef = "System.ComponentModel.ExtenderProvidedPropertyAttribute"
)

// CoreLibrary returns definitions for the core types the engine relies on:
// the primitives, the intrinsic converter targets and the marker types used
// by the intrinsic lookup. Sources built for tests or tools usually start
// from this set.
func CoreLibrary() []*TypeDefinition {
	object := Named(RefObject)
	valueType := Named(RefValueType)

	class := func(ref TypeRef, name string) *TypeDefinition {
		return &TypeDefinition{Ref: ref, Name: name, Namespace: "System", Kind: KindClass, Base: &object, Public: true}
	}
	value := func(ref TypeRef, name string) *TypeDefinition {
		return &TypeDefinition{Ref: ref, Name: name, Namespace: "System", Kind: KindStruct, Base: &valueType, Public: true,
			Layout: Layout{Kind: LayoutSequential}}
	}

	defs := []*TypeDefinition{
		{Ref: RefObject, Name: "Object", Namespace: "System", Kind: KindClass, Public: true},
		class(RefValueType, "ValueType"),
		{Ref: RefEnum, Name: "Enum", Namespace: "System", Kind: KindClass, Base: &valueType, Public: true},
		class(RefArray, "Array"),
		class(RefString, "String"),
		class(RefUri, "Uri"),
		class(RefVersion, "Version"),
		class(RefDBNull, "DBNull"),
		class(RefDelegate, "EventHandler"),
		{Ref: RefCultureInfo, Name: "CultureInfo", Namespace: "System.Globalization", Kind: KindClass, Base: &object, Public: true},
		{Ref: RefICollection, Name: "ICollection", Namespace: "System.Collections", Kind: KindInterface, Public: true},
		{Ref: RefNullable, Name: "Nullable`1", Namespace: "System", Kind: KindStruct, Base: &valueType, Public: true,
			GenericParams: []string{"T"},
			Members: Members{Properties: []Property{
				{Name: "HasValue", Type: Named(RefBoolean), Get: &Accessor{Public: true}},
				{Name: "Value", Type: Param(0), Get: &Accessor{Public: true}},
			}}},
	}
	for _, v := range []struct {
		ref  TypeRef
		name string
	}{
		{RefBoolean, "Boolean"}, {RefChar, "Char"}, {RefSByte, "SByte"}, {RefByte, "Byte"},
		{RefInt16, "Int16"}, {RefUInt16, "UInt16"}, {RefInt32, "Int32"}, {RefUInt32, "UInt32"},
		{RefInt64, "Int64"}, {RefUInt64, "UInt64"}, {RefInt128, "Int128"}, {RefUInt128, "UInt128"},
		{RefHalf, "Half"}, {RefSingle, "Single"}, {RefDouble, "Double"}, {RefDecimal, "Decimal"},
		{RefDateTime, "DateTime"}, {RefDateTimeOffset, "DateTimeOffset"}, {RefDateOnly, "DateOnly"},
		{RefTimeOnly, "TimeOnly"}, {RefTimeSpan, "TimeSpan"}, {RefGuid, "Guid"},
	} {
		defs = append(defs, value(v.ref, v.name))
	}
	return defs
}

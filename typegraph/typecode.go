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

package typegraph

import (
	"dirpx.dev/tdx/metadata"
)

// TypeCode classifies a type against the well-known core types.
type TypeCode int

const (
	TypeCodeEmpty TypeCode = iota
	TypeCodeObject
	TypeCodeDBNull
	TypeCodeBoolean
	TypeCodeChar
	TypeCodeSByte
	TypeCodeByte
	TypeCodeInt16
	TypeCodeUInt16
	TypeCodeInt32
	TypeCodeUInt32
	TypeCodeInt64
	TypeCodeUInt64
	TypeCodeSingle
	TypeCodeDouble
	TypeCodeDecimal
	TypeCodeDateTime
	TypeCodeString
)

var typeCodeNames = [...]string{
	"Empty", "Object", "DBNull", "Boolean", "Char", "SByte", "Byte", "Int16", "UInt16",
	"Int32", "UInt32", "Int64", "UInt64", "Single", "Double", "Decimal", "DateTime", "String",
}

func (c TypeCode) String() string {
	if c < 0 || int(c) >= len(typeCodeNames) {
		return "Unknown"
	}
	return typeCodeNames[c]
}

// typeCodeOrder is checked top to bottom; the first match wins.
var typeCodeOrder = []struct {
	ref  metadata.TypeRef
	code TypeCode
}{
	{metadata.RefBoolean, TypeCodeBoolean},
	{metadata.RefChar, TypeCodeChar},
	{metadata.RefSByte, TypeCodeSByte},
	{metadata.RefByte, TypeCodeByte},
	{metadata.RefInt16, TypeCodeInt16},
	{metadata.RefUInt16, TypeCodeUInt16},
	{metadata.RefInt32, TypeCodeInt32},
	{metadata.RefUInt32, TypeCodeUInt32},
	{metadata.RefInt64, TypeCodeInt64},
	{metadata.RefUInt64, TypeCodeUInt64},
	{metadata.RefSingle, TypeCodeSingle},
	{metadata.RefDouble, TypeCodeDouble},
	{metadata.RefString, TypeCodeString},
	{metadata.RefDateTime, TypeCodeDateTime},
	{metadata.RefDecimal, TypeCodeDecimal},
	{metadata.RefDBNull, TypeCodeDBNull},
}

// TypeCode classifies n, or its underlying storage type when n is an enum.
// Anything that is not a plain definition of a listed core type is Object.
func (n *Node) TypeCode() (TypeCode, error) {
	if err := n.g.alive(); err != nil {
		return TypeCodeEmpty, err
	}
	t := n
	if n.IsEnum() {
		u, err := n.underlying()
		if err != nil {
			return TypeCodeEmpty, err
		}
		t = u
	}
	if t.kind != KindDefinition {
		return TypeCodeObject, nil
	}
	for _, e := range typeCodeOrder {
		if t.def.Ref == e.ref {
			return e.code, nil
		}
	}
	return TypeCodeObject, nil
}

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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/tdx/internal/testfixture"
	"dirpx.dev/tdx/metadata"
)

func newGraph(t *testing.T) *Graph {
	t.Helper()
	return New(testfixture.Source())
}

func mustDef(t *testing.T, g *Graph, ref metadata.TypeRef) *Node {
	t.Helper()
	n, err := g.ResolveDefinition(ref)
	require.NoError(t, err)
	return n
}

func TestResolveDefinition_Idempotent(t *testing.T) {
	g := newGraph(t)
	a := mustDef(t, g, testfixture.RefWidget)
	b := mustDef(t, g, testfixture.RefWidget)
	assert.Same(t, a, b)
	assert.True(t, a.IsDefinition())
	assert.False(t, a.IsGenericDefinition())

	_, err := g.ResolveDefinition("Nope.Missing")
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func TestInstantiate_Identity(t *testing.T) {
	g := newGraph(t)
	box := mustDef(t, g, testfixture.RefBox)
	i32 := mustDef(t, g, metadata.RefInt32)
	str := mustDef(t, g, metadata.RefString)

	a, err := g.Instantiate(box, i32)
	require.NoError(t, err)
	b, err := g.Instantiate(box, i32)
	require.NoError(t, err)
	c, err := box.MakeGeneric(i32)
	require.NoError(t, err)
	d, err := g.Instantiate(box, str)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Same(t, a, c)
	assert.NotSame(t, a, d)
	assert.True(t, a.IsConstructedGeneric())
	assert.Same(t, box, a.GenericDefinition())
	assert.Equal(t, []*Node{i32}, a.Args())
}

func TestInstantiate_Errors(t *testing.T) {
	g := newGraph(t)
	box := mustDef(t, g, testfixture.RefBox)
	pair := mustDef(t, g, testfixture.RefPair)
	i32 := mustDef(t, g, metadata.RefInt32)

	_, err := g.Instantiate(pair, i32)
	assert.ErrorIs(t, err, ErrArityMismatch)

	_, err = g.Instantiate(box, nil)
	assert.ErrorIs(t, err, ErrNullArgument)

	other := New(testfixture.Source())
	foreign := mustDef(t, other, metadata.RefInt32)
	_, err = g.Instantiate(box, foreign)
	assert.ErrorIs(t, err, ErrForeignArgument)

	plain, err := g.Instantiate(i32)
	require.NoError(t, err)
	assert.Same(t, i32, plain)
}

func TestMakeGeneric_Errors(t *testing.T) {
	g := newGraph(t)
	box := mustDef(t, g, testfixture.RefBox)
	i32 := mustDef(t, g, metadata.RefInt32)

	_, err := i32.MakeGeneric(i32)
	assert.ErrorIs(t, err, ErrNotGenericDefinition)

	closed, err := box.MakeGeneric(i32)
	require.NoError(t, err)
	_, err = closed.MakeGeneric(i32)
	assert.ErrorIs(t, err, ErrNotGenericDefinition)

	_, err = box.MakeGeneric()
	assert.ErrorIs(t, err, ErrGenericArityMismatch)
	_, err = box.MakeGeneric(i32, i32)
	assert.ErrorIs(t, err, ErrGenericArityMismatch)

	_, err = box.MakeGeneric(nil)
	assert.ErrorIs(t, err, ErrNullArgument)
}

func TestFullName(t *testing.T) {
	g := newGraph(t)
	cases := []struct {
		ref  metadata.TypeRef
		want string
	}{
		{testfixture.RefWidget, "Sample.Widget"},
		{testfixture.RefInner, "Sample.Outer+Inner"},
		{testfixture.RefGlobal, "GlobalThing"},
		{testfixture.RefBox, "Sample.Box`1"},
	}
	for _, tc := range cases {
		got, ok := mustDef(t, g, tc.ref).FullName()
		assert.True(t, ok, tc.ref)
		assert.Equal(t, tc.want, got)
	}

	box := mustDef(t, g, testfixture.RefBox)
	closed, err := box.MakeGeneric(mustDef(t, g, metadata.RefInt32))
	require.NoError(t, err)
	_, ok := closed.FullName()
	assert.False(t, ok)
	assert.Equal(t, "Sample.Box`1[System.Int32]", closed.String())

	arr, err := g.ArrayOf(mustDef(t, g, metadata.RefByte), 2)
	require.NoError(t, err)
	_, ok = arr.FullName()
	assert.False(t, ok)
	assert.Equal(t, "System.Byte[,]", arr.String())
}

func TestFullName_DeclaringCycle(t *testing.T) {
	object := metadata.Named(metadata.RefObject)
	src, err := metadata.NewMemorySource("cycle", append(metadata.CoreLibrary(),
		&metadata.TypeDefinition{Ref: "Loop.A", Name: "A", Namespace: "Loop", Kind: metadata.KindClass,
			Base: &object, Declaring: "Loop.B"},
		&metadata.TypeDefinition{Ref: "Loop.B", Name: "B", Namespace: "Loop", Kind: metadata.KindClass,
			Base: &object, Declaring: "Loop.A"},
	)...)
	require.NoError(t, err)
	g := New(src)
	a, b := mustDef(t, g, "Loop.A"), mustDef(t, g, "Loop.B")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ok := a.FullName()
		assert.False(t, ok)
		_, ok = b.FullName()
		assert.False(t, ok)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("FullName did not return on a declaring cycle")
	}
}

func TestTypeCode(t *testing.T) {
	g := newGraph(t)
	cases := []struct {
		ref  metadata.TypeRef
		want TypeCode
	}{
		{metadata.RefBoolean, TypeCodeBoolean},
		{metadata.RefInt32, TypeCodeInt32},
		{metadata.RefString, TypeCodeString},
		{metadata.RefDecimal, TypeCodeDecimal},
		{metadata.RefDBNull, TypeCodeDBNull},
		{metadata.RefGuid, TypeCodeObject},
		{testfixture.RefColor, TypeCodeInt32},
		{testfixture.RefFlags, TypeCodeByte},
		{testfixture.RefWidget, TypeCodeObject},
	}
	for _, tc := range cases {
		got, err := mustDef(t, g, tc.ref).TypeCode()
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.ref)
	}
}

func TestBaseTypeAndInterfaces(t *testing.T) {
	g := newGraph(t)
	fancy := mustDef(t, g, testfixture.RefFancyWidget)
	widget := mustDef(t, g, testfixture.RefWidget)

	base, err := fancy.BaseType()
	require.NoError(t, err)
	assert.Same(t, widget, base)

	ifaces, err := widget.Interfaces()
	require.NoError(t, err)
	require.Len(t, ifaces, 2)
	assert.Equal(t, testfixture.RefMarker, ifaces[0].Ref())
	assert.Equal(t, testfixture.RefOther, ifaces[1].Ref())

	intBox := mustDef(t, g, testfixture.RefIntBox)
	b, err := intBox.BaseType()
	require.NoError(t, err)
	assert.True(t, b.IsConstructedGeneric())
	assert.Equal(t, metadata.RefInt32, b.Args()[0].Ref())

	bad := mustDef(t, g, testfixture.RefBadBase)
	_, err = bad.BaseType()
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func TestLayoutAndGUID(t *testing.T) {
	g := newGraph(t)
	widget := mustDef(t, g, testfixture.RefWidget)
	l, ok := widget.Layout()
	require.True(t, ok)
	assert.Equal(t, metadata.LayoutSequential, l.Kind)
	assert.Equal(t, 8, l.Pack)

	_, ok = mustDef(t, g, testfixture.RefMarker).Layout()
	assert.False(t, ok)

	assert.Equal(t, uuid.MustParse(testfixture.WidgetGUID), widget.GUID())
	assert.Equal(t, uuid.Nil, mustDef(t, g, testfixture.RefPlain).GUID())
}

func TestArrayOf_Canonical(t *testing.T) {
	g := newGraph(t)
	i32 := mustDef(t, g, metadata.RefInt32)
	a, err := g.ArrayOf(i32, 1)
	require.NoError(t, err)
	b, err := g.Resolve(metadata.MustParseSig("System.Int32[]"))
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.True(t, a.IsArray())

	base, err := a.BaseType()
	require.NoError(t, err)
	assert.Equal(t, metadata.RefArray, base.Ref())
}

func TestResolve_Signature(t *testing.T) {
	g := newGraph(t)
	n, err := g.Resolve(metadata.MustParseSig("Sample.Pair`2<System.String,Sample.Box`1<System.Int32>>"))
	require.NoError(t, err)
	assert.Equal(t, "Sample.Pair`2[System.String,Sample.Box`1[System.Int32]]", n.String())

	_, err = g.Resolve(metadata.Param(0))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestUnload(t *testing.T) {
	g := newGraph(t)
	widget := mustDef(t, g, testfixture.RefWidget)
	g.Unload()
	assert.True(t, g.Unloaded())

	_, err := g.ResolveDefinition(testfixture.RefWidget)
	assert.ErrorIs(t, err, ErrSourceUnloaded)
	_, err = widget.BaseType()
	assert.ErrorIs(t, err, ErrSourceUnloaded)
	_, err = widget.Members(metadata.MemberAll)
	assert.ErrorIs(t, err, ErrSourceUnloaded)

	g.Unload()
}

func TestNodes(t *testing.T) {
	g := newGraph(t)
	box := mustDef(t, g, testfixture.RefBox)
	_, err := box.MakeGeneric(mustDef(t, g, metadata.RefInt32))
	require.NoError(t, err)

	count := 0
	for range g.Nodes() {
		count++
	}
	assert.Equal(t, 3, count)
}

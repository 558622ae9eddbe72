/*
 *	Copyright 2025 The symgraph Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symgraph/symgraph/types/exprs"
	"github.com/symgraph/symgraph/types/shapes"
)

func TestResolvedDimsNeedsBindings(t *testing.T) {
	g := New("resolve")
	x := g.NewTensor("x", shapes.Make(shapes.Dynamic("batch"), shapes.Constant(4)))
	g.MustOk()

	dims, err := g.ResolvedDims(x, exprs.Bindings{"batch": 3})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, dims)

	_, err = g.ResolvedDims(x, nil)
	assert.Error(t, err)

	_, err = g.ResolvedDims(InvalidTensor(), nil)
	assert.Error(t, err)
	g.MustOk()
}

func TestResolveRejectsInvertedRange(t *testing.T) {
	g := New("resolve")
	seq := exprs.Sym("seq")
	x := g.NewTensor("x", shapes.Make(shapes.Dynamic("seq")))
	tail := g.Slice(x, shapes.From(seq.Sub(exprs.Const(2))))
	g.MustOk()

	dims, err := g.ResolvedDims(tail, exprs.Bindings{"seq": 10})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, dims)

	// seq = 1 makes the range [seq-2, seq) start below zero.
	_, err = g.ResolvedDims(tail, exprs.Bindings{"seq": 1})
	assert.Error(t, err)
}

// Realize pairings involving a dynamic side are deferred to CheckObligations.
func TestCheckObligations(t *testing.T) {
	g := New("obligations")
	x := g.NewTensor("x", shapes.Make(shapes.Dynamic("batch"), shapes.Dynamic("seq")))
	realized := g.Realize(x, shapes.Make(shapes.Dynamic("batch"), shapes.Constant(7)))
	g.MustOk()
	assert.True(t, realized.Shape().Dim(1).Equal(shapes.Constant(7)))

	require.NoError(t, g.CheckObligations(exprs.Bindings{"batch": 2, "seq": 7}))

	err := g.CheckObligations(exprs.Bindings{"batch": 2, "seq": 5})
	assert.True(t, errors.Is(err, ErrUnresolvedDynamicMismatch))

	// Unbound symbols cannot be checked at all.
	assert.Error(t, g.CheckObligations(nil))
}

func TestCheckObligationsDynamicPair(t *testing.T) {
	g := New("obligations")
	x := g.NewTensor("x", shapes.Make(shapes.Dynamic("seq")))
	_ = g.Realize(x, shapes.Make(shapes.Dynamic("total")))
	g.MustOk()

	require.NoError(t, g.CheckObligations(exprs.Bindings{"seq": 4, "total": 4}))
	err := g.CheckObligations(exprs.Bindings{"seq": 4, "total": 5})
	assert.True(t, errors.Is(err, ErrUnresolvedDynamicMismatch))
}

func TestRealizeAnonymousTargetHasNoObligation(t *testing.T) {
	g := New("obligations")
	x := g.NewTensor("x", shapes.Make(shapes.Dynamic("seq")))
	sliced := g.Slice(x, shapes.FromN(1))
	_ = g.Realize(sliced, shapes.Make(shapes.Dynamic(shapes.AnonymousSymbol)))
	g.MustOk()

	// The anonymous symbol stays unbound and must not be demanded.
	require.NoError(t, g.CheckObligations(exprs.Bindings{"seq": 9}))
}

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
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symgraph/symgraph/types/exprs"
	"github.com/symgraph/symgraph/types/shapes"
)

func TestARange(t *testing.T) {
	g := New("arange")
	x := g.NewTensor("x", shapes.Make(shapes.Dynamic("batch"), shapes.Dynamic("seq")))
	idx := g.ARange(x, 1)
	g.MustOk()

	require.Equal(t, 1, idx.Rank())
	assert.Equal(t, "seq", idx.Shape().Dim(0).Symbol())

	node := g.NodeById(idx.Id())
	require.Equal(t, OpFunction, node.Op())
	assert.Equal(t, "ARange", node.Name())
	assert.Equal(t, []NodeId{x.Id()}, node.Inputs())

	bindings := exprs.Bindings{"batch": 2, "seq": 4}
	data, view, err := g.Invoke(idx.Id(), bindings)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 2, 3}, data.Data)
	assert.Equal(t, idx.Id(), view.Id)

	dims, err := view.Tracker.ResolveDims(nil)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, dims)

	// The declared view resolves through the peer's symbol too.
	dims, err = g.ResolvedDims(idx, bindings)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, dims)
}

func TestARangeNegativeAxis(t *testing.T) {
	g := New("arange")
	x := g.NewTensor("x", shapes.Make(shapes.Dynamic("batch"), shapes.Constant(3)))
	idx := g.ARange(x, -1)
	g.MustOk()
	assert.True(t, idx.Shape().Dim(0).Equal(shapes.Constant(3)))

	out := g.ARange(x, 2)
	assert.False(t, out.Ok())
	assert.True(t, errors.Is(g.Error(), ErrInvalidRange))
}

func TestCausalMask(t *testing.T) {
	g := New("mask")
	x := g.NewTensor("x", shapes.Make(shapes.Dynamic("batch"), shapes.Dynamic("seq"), shapes.Constant(64)))
	mask := g.CausalMask(x, 1)
	g.MustOk()

	require.Equal(t, 2, mask.Rank())
	assert.Equal(t, "seq", mask.Shape().Dim(0).Symbol())
	assert.Equal(t, "seq", mask.Shape().Dim(1).Symbol())

	data, view, err := g.Invoke(mask.Id(), exprs.Bindings{"batch": 1, "seq": 3})
	require.NoError(t, err)
	require.Equal(t, 2, view.Tracker.Rank())

	negInf := float32(math.Inf(-1))
	assert.Equal(t, []float32{
		0, negInf, negInf,
		0, 0, negInf,
		0, 0, 0,
	}, data.Data)
}

// Payloads must be deterministic: two invocations under the same bindings
// return the same data and view.
func TestInvokeIsDeterministic(t *testing.T) {
	g := New("determinism")
	x := g.NewTensor("x", shapes.Make(shapes.Dynamic("seq")))
	idx := g.ARange(x, 0)
	g.MustOk()

	bindings := exprs.Bindings{"seq": 5}
	first, firstView, err := g.Invoke(idx.Id(), bindings)
	require.NoError(t, err)
	second, secondView, err := g.Invoke(idx.Id(), bindings)
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, firstView.Id, secondView.Id)
}

func TestFunctionCustomPayload(t *testing.T) {
	g := New("custom")
	x := g.NewTensor("x", shapes.Make(shapes.Dynamic("seq"), shapes.Constant(2)))

	// Sums of the resolved input dims, as a rank-1 tensor of length 1.
	payload := func(inputs []ResolvedInput, out NodeId) (*Tensor, View, error) {
		total := 0
		for _, dim := range inputs[0].Dims {
			total += dim
		}
		return &Tensor{Data: []float32{float32(total)}}, View{
			Id:      out,
			Tracker: shapes.DenseTracker([]exprs.Expression{exprs.Const(1)}),
		}, nil
	}
	sum := g.Function("dimSum", payload, shapes.Make(shapes.Constant(1)), x)
	g.MustOk()

	data, _, err := g.Invoke(sum.Id(), exprs.Bindings{"seq": 7})
	require.NoError(t, err)
	assert.Equal(t, []float32{9}, data.Data)
}

// A payload may return nil data: the node then only carries shape metadata.
func TestFunctionNilDataPayload(t *testing.T) {
	g := New("metadata")
	x := g.NewTensor("x", shapes.Make(shapes.Dynamic("seq")))
	meta := g.Function("metaOnly", func(inputs []ResolvedInput, out NodeId) (*Tensor, View, error) {
		return nil, View{
			Id:      out,
			Tracker: shapes.DenseTracker([]exprs.Expression{exprs.Const(inputs[0].Dims[0])}),
		}, nil
	}, shapes.Make(shapes.Dynamic("seq")), x)
	g.MustOk()

	data, view, err := g.Invoke(meta.Id(), exprs.Bindings{"seq": 3})
	require.NoError(t, err)
	assert.Nil(t, data)
	dims, err := view.Tracker.ResolveDims(nil)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, dims)
}

func TestFunctionPayloadError(t *testing.T) {
	g := New("failing")
	x := g.NewTensor("x", shapes.Make(shapes.Constant(2)))
	failing := g.Function("failing", func(inputs []ResolvedInput, out NodeId) (*Tensor, View, error) {
		return nil, View{}, fmt.Errorf("host side exploded")
	}, shapes.Make(shapes.Constant(1)), x)
	g.MustOk()

	_, _, err := g.Invoke(failing.Id(), nil)
	assert.True(t, errors.Is(err, ErrFunctionPayload))
	assert.Contains(t, err.Error(), "host side exploded")
}

func TestFunctionRankContract(t *testing.T) {
	g := New("contract")
	x := g.NewTensor("x", shapes.Make(shapes.Constant(2)))

	// Declared rank 2, returned rank 1.
	wrongRank := g.Function("wrongRank", func(inputs []ResolvedInput, out NodeId) (*Tensor, View, error) {
		return nil, View{
			Id:      out,
			Tracker: shapes.DenseTracker([]exprs.Expression{exprs.Const(2)}),
		}, nil
	}, shapes.Make(shapes.Constant(2), shapes.Constant(2)), x)

	// Returned view for the wrong node.
	wrongId := g.Function("wrongId", func(inputs []ResolvedInput, out NodeId) (*Tensor, View, error) {
		return nil, View{
			Id:      out + 1,
			Tracker: shapes.DenseTracker([]exprs.Expression{exprs.Const(2)}),
		}, nil
	}, shapes.Make(shapes.Constant(2)), x)
	g.MustOk()

	_, _, err := g.Invoke(wrongRank.Id(), nil)
	assert.True(t, errors.Is(err, ErrFunctionPayload))
	_, _, err = g.Invoke(wrongId.Id(), nil)
	assert.True(t, errors.Is(err, ErrFunctionPayload))
}

func TestFunctionValidation(t *testing.T) {
	g := New("validation")
	out := g.Function("nil", nil, shapes.Make(shapes.Constant(1)))
	assert.False(t, out.Ok())
	assert.Error(t, g.Error())
	g.ResetError()

	out = g.Function("badShape", func(inputs []ResolvedInput, o NodeId) (*Tensor, View, error) {
		return nil, View{Id: o}, nil
	}, shapes.Invalid())
	assert.False(t, out.Ok())
	assert.Error(t, g.Error())
}

func TestInvokeRejectsNonFunctionNode(t *testing.T) {
	g := New("invoke")
	x := g.NewTensor("x", shapes.Make(shapes.Constant(2)))
	g.MustOk()

	_, _, err := g.Invoke(x.Id(), nil)
	assert.Error(t, err)
	_, _, err = g.Invoke(NodeId(42), nil)
	assert.Error(t, err)
	g.MustOk()
}

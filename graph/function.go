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

// Function nodes are the general escape hatch for operations whose shape or
// values depend on another tensor's resolved (run-time) size: an index
// sequence [0..N) where N is only known from a peer tensor's realized axis
// length, a triangular causal mask sized by the realized sequence length,
// and so on. The host computes the data; the graph only carries the
// declared shape contract.

import (
	"math"

	"github.com/symgraph/symgraph/types/exprs"
	"github.com/symgraph/symgraph/types/shapes"
)

// View locates a tensor value: the producing node id plus the ShapeTracker
// describing which part of its storage is visible.
type View struct {
	Id      NodeId
	Tracker shapes.ShapeTracker
}

// ResolvedInput is one input handed to a Function payload, with its view
// fully resolved to concrete per-axis [start,end) ranges and lengths.
type ResolvedInput struct {
	Id     NodeId
	Dims   []int
	Ranges [][2]int
}

// Payload is the host computation of a Function node. It must be a pure
// function of its declared inputs: identical resolved inputs yield identical
// output data and view across invocations. It may return nil data when the
// node exists purely to carry shape metadata. The returned View must use the
// assigned output id and a tracker whose rank matches the rank declared at
// node creation.
type Payload func(inputs []ResolvedInput, out NodeId) (*Tensor, View, error)

// Function is the payload carried by a Function node. The name is
// diagnostic only.
type Function struct {
	Name string
	Call Payload
}

// Function adds a node computed by the given host payload, with the declared
// output shape, reading the given inputs. The payload is invoked by the
// execution backend (or Graph.Invoke) once every input view is resolved.
//
// Axes of the declared shape that use the anonymous dynamic symbol resolve
// through the payload's returned view only; prefer named symbols or the
// ARange/CausalMask constructors, which track their peer's axis length
// symbolically.
func (g *Graph) Function(name string, payload Payload, declared shapes.Shape, inputs ...GraphTensor) GraphTensor {
	if !g.Ok() {
		return InvalidTensor()
	}
	if payload == nil {
		g.SetErrorf("Function(%q): nil payload", name)
		return InvalidTensor()
	}
	if !declared.Ok() {
		g.SetErrorf("Function(%q): invalid declared shape", name)
		return InvalidTensor()
	}
	return g.functionNode(name, payload, declared, shapes.FromShape(declared).Ranges(), inputs)
}

// functionNode finalizes a Function node with explicit per-axis lengths
// taken from the given ranges.
func (g *Graph) functionNode(name string, payload Payload, declared shapes.Shape, ranges []shapes.Range, inputs []GraphTensor) GraphTensor {
	lengths := make([]exprs.Expression, len(ranges))
	for i, r := range ranges {
		lengths[i] = r.Len()
	}
	ids := make([]NodeId, len(inputs))
	for i, t := range inputs {
		node := g.nodeOf("Function("+name+")", t)
		if node == nil {
			return InvalidTensor()
		}
		ids[i] = node.id
	}
	return g.newNode(&Node{
		op:      OpFunction,
		inputs:  ids,
		shape:   declared.Clone(),
		tracker: shapes.DenseTracker(lengths),
		name:    name,
		fn:      &Function{Name: name, Call: payload},
	})
}

// ARange adds a Function node producing the index sequence [0..N) as
// float32, where N is the resolved size of peer's given axis (negative axes
// count from the end). The declared shape is one axis classified like the
// peer's.
func (g *Graph) ARange(peer GraphTensor, axis int) GraphTensor {
	node := g.nodeOf("ARange", peer)
	if node == nil {
		return InvalidTensor()
	}
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += node.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= node.Rank() {
		g.setErrorWithCause(ErrInvalidRange, "ARange: invalid axis %d for rank %d", axis, node.Rank())
		return InvalidTensor()
	}
	payload := func(inputs []ResolvedInput, out NodeId) (*Tensor, View, error) {
		n := inputs[0].Dims[adjustedAxis]
		data := make([]float32, n)
		for i := range data {
			data[i] = float32(i)
		}
		return &Tensor{Data: data}, View{
			Id:      out,
			Tracker: shapes.DenseTracker([]exprs.Expression{exprs.Const(n)}),
		}, nil
	}
	declared := shapes.Make(node.shape.Dimensions[adjustedAxis])
	ranges := []shapes.Range{{Start: exprs.Const(0), End: node.tracker.AxisLen(adjustedAxis)}}
	return g.functionNode("ARange", payload, declared, ranges, []GraphTensor{peer})
}

// CausalMask adds a Function node producing an (S, S) additive attention
// mask, where S is the resolved size of peer's given axis: zero on and below
// the diagonal, negative infinity above it.
func (g *Graph) CausalMask(peer GraphTensor, axis int) GraphTensor {
	node := g.nodeOf("CausalMask", peer)
	if node == nil {
		return InvalidTensor()
	}
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += node.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= node.Rank() {
		g.setErrorWithCause(ErrInvalidRange, "CausalMask: invalid axis %d for rank %d", axis, node.Rank())
		return InvalidTensor()
	}
	negInf := float32(math.Inf(-1))
	payload := func(inputs []ResolvedInput, out NodeId) (*Tensor, View, error) {
		n := inputs[0].Dims[adjustedAxis]
		data := make([]float32, n*n)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				data[i*n+j] = negInf
			}
		}
		size := exprs.Const(n)
		return &Tensor{Data: data}, View{
			Id:      out,
			Tracker: shapes.DenseTracker([]exprs.Expression{size, size}),
		}, nil
	}
	seq := node.shape.Dimensions[adjustedAxis]
	length := node.tracker.AxisLen(adjustedAxis)
	declared := shapes.Make(seq, seq)
	ranges := []shapes.Range{
		{Start: exprs.Const(0), End: length},
		{Start: exprs.Const(0), End: length},
	}
	return g.functionNode("CausalMask", payload, declared, ranges, []GraphTensor{peer})
}

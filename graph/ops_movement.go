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

// View-only transforms: slice, permute, reshape, expand, concat and realize.
// None of them moves or copies data at build time; they only compose
// ShapeTrackers and infer output Shapes. All validation happens before any
// node is inserted.

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/symgraph/symgraph/types/exprs"
	"github.com/symgraph/symgraph/types/shapes"
)

// NewTensor registers a named leaf tensor with the given shape and returns
// its handle. Leaves carry no data until Graph.SetData; dynamic axes are
// bound by the execution backend.
//
// An empty name is replaced by a generated one. Requesting an existing name
// with an equal shape returns the existing leaf; with a different shape it is
// a ShapeMismatch error.
func (g *Graph) NewTensor(name string, shape shapes.Shape) GraphTensor {
	if !g.Ok() {
		return InvalidTensor()
	}
	if !shape.Ok() {
		g.SetErrorf("NewTensor(%q): invalid shape", name)
		return InvalidTensor()
	}
	for axis, dim := range shape.Dimensions {
		if dim.Symbol() == shapes.AnonymousSymbol {
			g.SetErrorf("NewTensor(%q): axis %d uses the anonymous dynamic symbol; leaves need named symbols", name, axis)
			return InvalidTensor()
		}
	}
	if name == "" {
		name = fmt.Sprintf("t#%d", g.nextAnonymousId)
		g.nextAnonymousId++
	}
	if id, found := g.leafNameToId[name]; found {
		existing := g.nodes[id]
		if !existing.shape.Equal(shape) {
			g.setErrorWithCause(ErrShapeMismatch,
				"NewTensor(%q): leaf already exists with shape %s, requested %s",
				name, existing.shape, shape)
			return InvalidTensor()
		}
		return existing.Handle()
	}
	node := &Node{
		op:      OpLeaf,
		shape:   shape.Clone(),
		tracker: shapes.FromShape(shape),
		name:    name,
	}
	t := g.newNode(node)
	if !t.Ok() {
		return t
	}
	g.leaves = append(g.leaves, node)
	g.leafNameToId[name] = node.id
	return t
}

// SetData attaches host data to a leaf tensor. When the leaf's shape is
// fully constant the length is validated against the element count;
// dynamic-shaped leaves are validated by the backend after binding.
func (g *Graph) SetData(t GraphTensor, data []float32) error {
	node := g.nodeOf("SetData", t)
	if node == nil {
		return g.Error()
	}
	if node.op != OpLeaf {
		return errors.Errorf("SetData on node #%d (%s): only leaf tensors carry data", node.id, node.op)
	}
	if size, ok := node.shape.Size().AsInt(); ok && size != len(data) {
		return errors.WithMessagef(ErrShapeMismatch,
			"SetData on leaf %q: shape %s holds %d elements, got %d",
			node.name, node.shape, size, len(data))
	}
	node.data = &Tensor{Data: data}
	return nil
}

// Slice takes a per-axis range of t. Missing trailing specs are taken in
// full; use shapes.Full, From, UpTo, Through, Between and BetweenInclusive to
// build the specs.
//
// A Full spec preserves the axis's Dimension classification; any partial
// spec, even with literal bounds, yields a Dynamic output axis. Specs compose
// with the input's current view, so slicing a slice behaves like one fused
// slice. A spec that is inconsistent after composition fails with
// ErrInvalidRange before any node is inserted.
func (g *Graph) Slice(t GraphTensor, specs ...shapes.RangeSpec) GraphTensor {
	node := g.nodeOf("Slice", t)
	if node == nil {
		return InvalidTensor()
	}
	rank := node.Rank()
	if len(specs) > rank {
		g.setErrorWithCause(ErrInvalidRange, "Slice: %d axis ranges on a rank-%d tensor", len(specs), rank)
		return InvalidTensor()
	}
	for len(specs) < rank {
		specs = append(specs, shapes.Full())
	}
	tracker, err := node.tracker.Slice(specs)
	if err != nil {
		g.setErrorWithCause(ErrInvalidRange, "Slice on node #%d: %v", node.id, err)
		return InvalidTensor()
	}
	dims := make([]shapes.Dimension, rank)
	for axis, spec := range specs {
		dims[axis] = spec.OutputDimension(node.shape.Dimensions[axis])
	}
	return g.newNode(&Node{
		op:      OpSlice,
		inputs:  []NodeId{node.id},
		shape:   shapes.Make(dims...),
		tracker: tracker,
	})
}

// Permute relabels t's axis order by the given permutation: output axis i
// reads input axis perm[i]. perm must be a bijection over [0, rank), or the
// op fails with ErrInvalidRange.
func (g *Graph) Permute(t GraphTensor, perm ...int) GraphTensor {
	node := g.nodeOf("Permute", t)
	if node == nil {
		return InvalidTensor()
	}
	tracker, err := node.tracker.Permute(perm)
	if err != nil {
		g.setErrorWithCause(ErrInvalidRange, "Permute on node #%d: %v", node.id, err)
		return InvalidTensor()
	}
	dims := make([]shapes.Dimension, len(perm))
	for i, axis := range perm {
		dims[i] = node.shape.Dimensions[axis]
	}
	return g.newNode(&Node{
		op:      OpPermute,
		inputs:  []NodeId{node.id},
		shape:   shapes.Make(dims...),
		tracker: tracker,
	})
}

// ReshapeDim is one output axis of a Reshape: either a literal size or a
// marker to reuse the size of an input axis -- needed because batch and
// sequence sizes are only known at run time.
type ReshapeDim struct {
	size     int
	axis     int
	fromAxis bool
}

// ReshapeConst declares an output axis with the literal size n.
func ReshapeConst(n int) ReshapeDim { return ReshapeDim{size: n} }

// ReshapeAxis declares an output axis that reuses the size of input axis i,
// whatever it resolves to.
func ReshapeAxis(i int) ReshapeDim { return ReshapeDim{axis: i, fromAxis: true} }

// String implements fmt.Stringer.
func (d ReshapeDim) String() string {
	if d.fromAxis {
		return fmt.Sprintf("axis(%d)", d.axis)
	}
	return fmt.Sprintf("%d", d.size)
}

// Reshape lays t's elements into a new shape. Every output axis must resolve
// through its ReshapeDim -- a literal constant or "size of input axis i" --
// or the op fails with ErrInvalidRange. When both input and output are fully
// constant, the element counts must agree, or the op fails with
// ErrShapeMismatch. Symbolic element-count equality is the caller's
// responsibility, checked by the backend after binding.
func (g *Graph) Reshape(t GraphTensor, dims ...ReshapeDim) GraphTensor {
	node := g.nodeOf("Reshape", t)
	if node == nil {
		return InvalidTensor()
	}
	rank := node.Rank()
	outDims := make([]shapes.Dimension, len(dims))
	lengths := make([]exprs.Expression, len(dims))
	for i, dim := range dims {
		switch {
		case dim.fromAxis:
			if dim.axis < 0 || dim.axis >= rank {
				g.setErrorWithCause(ErrInvalidRange,
					"Reshape: output axis %d reuses input axis %d, but input rank is %d", i, dim.axis, rank)
				return InvalidTensor()
			}
			outDims[i] = node.shape.Dimensions[dim.axis]
			lengths[i] = node.tracker.AxisLen(dim.axis)
		case dim.size > 0:
			outDims[i] = shapes.Constant(dim.size)
			lengths[i] = exprs.Const(dim.size)
		default:
			g.setErrorWithCause(ErrInvalidRange, "Reshape: output axis %d has no valid resolution rule (%s)", i, dim)
			return InvalidTensor()
		}
	}
	outShape := shapes.Make(outDims...)
	if inSize, ok := node.shape.Size().AsInt(); ok {
		if outSize, ok := outShape.Size().AsInt(); ok && inSize != outSize {
			g.setErrorWithCause(ErrShapeMismatch,
				"Reshape from %s (%d elements) to %s (%d elements)", node.shape, inSize, outShape, outSize)
			return InvalidTensor()
		}
	}
	return g.newNode(&Node{
		op:      OpReshape,
		inputs:  []NodeId{node.id},
		shape:   outShape,
		tracker: shapes.DenseTracker(lengths),
	})
}

// Expand broadcasts t by inserting a new axis at position axis
// (0 <= axis <= rank) presenting the given Dimension. The new axis visits no
// storage: downstream elementwise ops replicate along it rather than iterate.
func (g *Graph) Expand(t GraphTensor, axis int, dim shapes.Dimension) GraphTensor {
	node := g.nodeOf("Expand", t)
	if node == nil {
		return InvalidTensor()
	}
	tracker, err := node.tracker.Expand(axis, dim)
	if err != nil {
		g.setErrorWithCause(ErrInvalidRange, "Expand on node #%d: %v", node.id, err)
		return InvalidTensor()
	}
	dims := make([]shapes.Dimension, 0, node.Rank()+1)
	dims = append(dims, node.shape.Dimensions[:axis]...)
	dims = append(dims, dim)
	dims = append(dims, node.shape.Dimensions[axis:]...)
	return g.newNode(&Node{
		op:      OpExpand,
		inputs:  []NodeId{node.id},
		shape:   shapes.Make(dims...),
		tracker: tracker,
	})
}

// Concat concatenates the inputs along the given axis (negative axes count
// from the end). Inputs must agree on rank and on every Dimension except the
// concatenation axis. The output axis is the sum of the inputs' axis sizes
// when all are constant, and Dynamic otherwise. Purely bookkeeping: the data
// interleaving belongs to the execution backend.
func (g *Graph) Concat(axis int, inputs ...GraphTensor) GraphTensor {
	if !g.Ok() {
		return InvalidTensor()
	}
	if len(inputs) == 0 {
		g.SetErrorf("Concat: no inputs")
		return InvalidTensor()
	}
	nodes := make([]*Node, len(inputs))
	for i, t := range inputs {
		nodes[i] = g.nodeOf("Concat", t)
		if nodes[i] == nil {
			return InvalidTensor()
		}
	}
	rank := nodes[0].Rank()
	for i, node := range nodes[1:] {
		if node.Rank() != rank {
			g.setErrorWithCause(ErrShapeMismatch,
				"Concat: input 0 has rank %d, input %d has rank %d", rank, i+1, node.Rank())
			return InvalidTensor()
		}
	}
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += rank
	}
	if adjustedAxis < 0 || adjustedAxis >= rank {
		g.setErrorWithCause(ErrInvalidRange, "Concat: invalid axis %d for rank %d", axis, rank)
		return InvalidTensor()
	}
	for a := 0; a < rank; a++ {
		if a == adjustedAxis {
			continue
		}
		want := nodes[0].shape.Dimensions[a]
		for i, node := range nodes[1:] {
			if !node.shape.Dimensions[a].Equal(want) {
				g.setErrorWithCause(ErrShapeMismatch,
					"Concat along axis %d: inputs 0 and %d disagree on axis %d (%s vs %s)",
					adjustedAxis, i+1, a, want, node.shape.Dimensions[a])
				return InvalidTensor()
			}
		}
	}

	dims := append([]shapes.Dimension(nil), nodes[0].shape.Dimensions...)
	total := 0
	allConst := true
	for _, node := range nodes {
		size, ok := node.shape.Dimensions[adjustedAxis].Size()
		if !ok {
			allConst = false
			break
		}
		total += size
	}
	if allConst {
		dims[adjustedAxis] = shapes.Constant(total)
	} else {
		dims[adjustedAxis] = shapes.Dynamic(shapes.AnonymousSymbol)
	}

	outShape := shapes.Make(dims...)
	lengths := shapeLengths(outShape, nodes[0].tracker)
	sum := nodes[0].tracker.AxisLen(adjustedAxis)
	for _, node := range nodes[1:] {
		sum = sum.Add(node.tracker.AxisLen(adjustedAxis))
	}
	lengths[adjustedAxis] = sum

	ids := make([]NodeId, len(nodes))
	for i, node := range nodes {
		ids[i] = node.id
	}
	return g.newNode(&Node{
		op:      OpConcat,
		inputs:  ids,
		shape:   outShape,
		tracker: shapes.DenseTracker(lengths),
	})
}

// Realize relabels t's compile-time Shape to a different but size-compatible
// one, without touching the underlying node or its view. No node is
// inserted.
//
// The target must have the same rank; axes that are constant on both sides
// must agree (ErrShapeMismatch at build time). Any axis pairing involving a
// dynamic side cannot be proven equal before symbol binding: it is recorded
// as an equality obligation and verified by CheckObligations, surfacing as
// ErrUnresolvedDynamicMismatch once concrete sizes are known.
func (g *Graph) Realize(t GraphTensor, target shapes.Shape) GraphTensor {
	node := g.nodeOf("Realize", t)
	if node == nil {
		return InvalidTensor()
	}
	if !target.Ok() {
		g.SetErrorf("Realize on node #%d: invalid target shape", node.id)
		return InvalidTensor()
	}
	if target.Rank() != t.shape.Rank() {
		g.setErrorWithCause(ErrShapeMismatch,
			"Realize from %s to %s: rank cannot change", t.shape, target)
		return InvalidTensor()
	}
	for axis := 0; axis < target.Rank(); axis++ {
		cur, want := t.shape.Dimensions[axis], target.Dimensions[axis]
		if cur.Equal(want) {
			continue
		}
		curSize, curConst := cur.Size()
		wantSize, wantConst := want.Size()
		if curConst && wantConst {
			if curSize != wantSize {
				g.setErrorWithCause(ErrShapeMismatch,
					"Realize from %s to %s: axis %d differs (%d vs %d)", t.shape, target, axis, curSize, wantSize)
				return InvalidTensor()
			}
			continue
		}
		if want.Symbol() == shapes.AnonymousSymbol {
			// Nothing to check: the anonymous axis accepts any size.
			continue
		}
		g.obligations = append(g.obligations, sizeObligation{
			id:   node.id,
			axis: axis,
			got:  node.tracker.AxisLen(axis),
			want: want.Expr(),
		})
	}
	return GraphTensor{id: node.id, shape: target.Clone()}
}

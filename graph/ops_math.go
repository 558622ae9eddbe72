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

// Elementwise and matrix primitives. Only their shape contracts are enforced
// here; the arithmetic itself belongs to the execution backend.

import (
	"github.com/symgraph/symgraph/types/exprs"
	"github.com/symgraph/symgraph/types/shapes"
)

// binaryElementwise checks the elementwise shape contract and inserts the
// node. Inputs must agree in rank and, whenever both sides are statically
// known, per-axis size. Axes where only one side is constant keep the
// constant classification in the output; dynamic-vs-dynamic disagreements
// are opaque at build time and left to the backend.
func (g *Graph) binaryElementwise(op OpType, lhs, rhs GraphTensor) GraphTensor {
	lhsNode := g.nodeOf(op.String(), lhs)
	if lhsNode == nil {
		return InvalidTensor()
	}
	rhsNode := g.nodeOf(op.String(), rhs)
	if rhsNode == nil {
		return InvalidTensor()
	}
	if lhsNode.Rank() != rhsNode.Rank() {
		g.setErrorWithCause(ErrShapeMismatch,
			"%s: rank %d vs rank %d (%s vs %s)", op, lhsNode.Rank(), rhsNode.Rank(), lhsNode.shape, rhsNode.shape)
		return InvalidTensor()
	}
	rank := lhsNode.Rank()
	dims := make([]shapes.Dimension, rank)
	lengths := make([]exprs.Expression, rank)
	lhsLengths := shapeLengths(lhsNode.shape, lhsNode.tracker)
	rhsLengths := shapeLengths(rhsNode.shape, rhsNode.tracker)
	for axis := 0; axis < rank; axis++ {
		a, b := lhsNode.shape.Dimensions[axis], rhsNode.shape.Dimensions[axis]
		aSize, aConst := a.Size()
		bSize, bConst := b.Size()
		switch {
		case aConst && bConst:
			if aSize != bSize {
				g.setErrorWithCause(ErrShapeMismatch,
					"%s: axis %d differs, %s vs %s", op, axis, lhsNode.shape, rhsNode.shape)
				return InvalidTensor()
			}
			dims[axis], lengths[axis] = a, lhsLengths[axis]
		case aConst:
			dims[axis], lengths[axis] = a, lhsLengths[axis]
		case bConst:
			dims[axis], lengths[axis] = b, rhsLengths[axis]
		default:
			dims[axis], lengths[axis] = a, lhsLengths[axis]
		}
	}
	return g.newNode(&Node{
		op:      op,
		inputs:  []NodeId{lhsNode.id, rhsNode.id},
		shape:   shapes.Make(dims...),
		tracker: shapes.DenseTracker(lengths),
	})
}

// unaryElementwise inserts a shape-preserving unary node.
func (g *Graph) unaryElementwise(op OpType, t GraphTensor) GraphTensor {
	node := g.nodeOf(op.String(), t)
	if node == nil {
		return InvalidTensor()
	}
	return g.newNode(&Node{
		op:      op,
		inputs:  []NodeId{node.id},
		shape:   node.shape.Clone(),
		tracker: shapes.DenseTracker(shapeLengths(node.shape, node.tracker)),
	})
}

// Add returns lhs + rhs, elementwise.
func (g *Graph) Add(lhs, rhs GraphTensor) GraphTensor {
	return g.binaryElementwise(OpAdd, lhs, rhs)
}

// Sub returns lhs - rhs, elementwise.
func (g *Graph) Sub(lhs, rhs GraphTensor) GraphTensor {
	return g.binaryElementwise(OpSub, lhs, rhs)
}

// Mul returns lhs * rhs, elementwise.
func (g *Graph) Mul(lhs, rhs GraphTensor) GraphTensor {
	return g.binaryElementwise(OpMul, lhs, rhs)
}

// AddScalar returns t + scalar, broadcast over every element.
func (g *Graph) AddScalar(t GraphTensor, scalar float32) GraphTensor {
	node := g.nodeOf("AddScalar", t)
	if node == nil {
		return InvalidTensor()
	}
	out := g.newNode(&Node{
		op:            OpAddScalar,
		inputs:        []NodeId{node.id},
		shape:         node.shape.Clone(),
		tracker:       shapes.DenseTracker(shapeLengths(node.shape, node.tracker)),
		scalarOperand: scalar,
	})
	return out
}

// Neg returns -t, elementwise.
func (g *Graph) Neg(t GraphTensor) GraphTensor { return g.unaryElementwise(OpNeg, t) }

// Sin returns sin(t), elementwise.
func (g *Graph) Sin(t GraphTensor) GraphTensor { return g.unaryElementwise(OpSin, t) }

// Cos returns cos(t), elementwise.
func (g *Graph) Cos(t GraphTensor) GraphTensor { return g.unaryElementwise(OpCos, t) }

// Sigmoid returns sigmoid(t), elementwise.
func (g *Graph) Sigmoid(t GraphTensor) GraphTensor { return g.unaryElementwise(OpSigmoid, t) }

// Softmax normalizes along the given axis (negative axes count from the
// end); the shape is preserved.
func (g *Graph) Softmax(t GraphTensor, axis int) GraphTensor {
	node := g.nodeOf("Softmax", t)
	if node == nil {
		return InvalidTensor()
	}
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += node.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= node.Rank() {
		g.setErrorWithCause(ErrInvalidRange, "Softmax: invalid axis %d for rank %d", axis, node.Rank())
		return InvalidTensor()
	}
	return g.newNode(&Node{
		op:      OpSoftmax,
		inputs:  []NodeId{node.id},
		shape:   node.shape.Clone(),
		tracker: shapes.DenseTracker(shapeLengths(node.shape, node.tracker)),
	})
}

// MatMul multiplies lhs (rank >= 2, trailing axis k) by the rank-2 rhs
// (k, n): the output keeps lhs's leading axes and replaces the trailing axis
// with n. The contraction axis sizes must agree whenever both are constant.
func (g *Graph) MatMul(lhs, rhs GraphTensor) GraphTensor {
	lhsNode := g.nodeOf("MatMul", lhs)
	if lhsNode == nil {
		return InvalidTensor()
	}
	rhsNode := g.nodeOf("MatMul", rhs)
	if rhsNode == nil {
		return InvalidTensor()
	}
	if lhsNode.Rank() < 2 || rhsNode.Rank() != 2 {
		g.setErrorWithCause(ErrShapeMismatch,
			"MatMul: lhs must have rank >= 2 and rhs rank 2, got %s x %s", lhsNode.shape, rhsNode.shape)
		return InvalidTensor()
	}
	inner, innerConst := lhsNode.shape.Dim(-1).Size()
	k, kConst := rhsNode.shape.Dim(0).Size()
	if innerConst && kConst && inner != k {
		g.setErrorWithCause(ErrShapeMismatch,
			"MatMul: contraction axes differ, %s x %s", lhsNode.shape, rhsNode.shape)
		return InvalidTensor()
	}
	rank := lhsNode.Rank()
	dims := make([]shapes.Dimension, rank)
	lengths := shapeLengths(lhsNode.shape, lhsNode.tracker)
	copy(dims, lhsNode.shape.Dimensions[:rank-1])
	dims[rank-1] = rhsNode.shape.Dimensions[1]
	lengths[rank-1] = shapeLengths(rhsNode.shape, rhsNode.tracker)[1]
	return g.newNode(&Node{
		op:      OpMatMul,
		inputs:  []NodeId{lhsNode.id, rhsNode.id},
		shape:   shapes.Make(dims...),
		tracker: shapes.DenseTracker(lengths),
	})
}

// BatchMatMul multiplies two equal-rank (>= 3) operands shaped
// (batch..., m, k) x (batch..., k, n) -> (batch..., m, n). Batch axes and
// the contraction axis must agree whenever both sides are constant.
func (g *Graph) BatchMatMul(lhs, rhs GraphTensor) GraphTensor {
	lhsNode := g.nodeOf("BatchMatMul", lhs)
	if lhsNode == nil {
		return InvalidTensor()
	}
	rhsNode := g.nodeOf("BatchMatMul", rhs)
	if rhsNode == nil {
		return InvalidTensor()
	}
	rank := lhsNode.Rank()
	if rank < 3 || rhsNode.Rank() != rank {
		g.setErrorWithCause(ErrShapeMismatch,
			"BatchMatMul: operands must share a rank >= 3, got %s x %s", lhsNode.shape, rhsNode.shape)
		return InvalidTensor()
	}
	for axis := 0; axis < rank-2; axis++ {
		aSize, aConst := lhsNode.shape.Dimensions[axis].Size()
		bSize, bConst := rhsNode.shape.Dimensions[axis].Size()
		if aConst && bConst && aSize != bSize {
			g.setErrorWithCause(ErrShapeMismatch,
				"BatchMatMul: batch axis %d differs, %s x %s", axis, lhsNode.shape, rhsNode.shape)
			return InvalidTensor()
		}
	}
	inner, innerConst := lhsNode.shape.Dim(-1).Size()
	k, kConst := rhsNode.shape.Dim(-2).Size()
	if innerConst && kConst && inner != k {
		g.setErrorWithCause(ErrShapeMismatch,
			"BatchMatMul: contraction axes differ, %s x %s", lhsNode.shape, rhsNode.shape)
		return InvalidTensor()
	}
	dims := make([]shapes.Dimension, rank)
	lengths := shapeLengths(lhsNode.shape, lhsNode.tracker)
	rhsLengths := shapeLengths(rhsNode.shape, rhsNode.tracker)
	for axis := 0; axis < rank-2; axis++ {
		if _, bConst := rhsNode.shape.Dimensions[axis].Size(); bConst {
			if _, aConst := lhsNode.shape.Dimensions[axis].Size(); !aConst {
				dims[axis], lengths[axis] = rhsNode.shape.Dimensions[axis], rhsLengths[axis]
				continue
			}
		}
		dims[axis] = lhsNode.shape.Dimensions[axis]
	}
	dims[rank-2] = lhsNode.shape.Dimensions[rank-2]
	dims[rank-1] = rhsNode.shape.Dimensions[rank-1]
	lengths[rank-1] = rhsLengths[rank-1]
	return g.newNode(&Node{
		op:      OpBatchMatMul,
		inputs:  []NodeId{lhsNode.id, rhsNode.id},
		shape:   shapes.Make(dims...),
		tracker: shapes.DenseTracker(lengths),
	})
}

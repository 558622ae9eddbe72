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

// Package shapes defines Dimension, Shape, the per-axis range specifications
// used for slicing and the ShapeTracker view representation.
//
// A Shape is an ordered sequence of Dimension values, one per axis; each
// Dimension is either Constant (size fixed at graph-build time) or Dynamic
// (size bound to a named run-time symbol, e.g. "batch" or "seq").
//
// Shapes are values: operations derive new Shapes, they never mutate one in
// place. Programmer misuse (out-of-range axis, invalid constructor argument)
// panics; conditions that depend on caller-provided graph inputs return
// errors instead, see the graph package.
//
// ## Glossary
//
//   - Rank: number of axes of a tensor.
//   - Axis: the index of one dimension; negative axes count from the end,
//     so axis=-1 is the last axis.
//   - Dimension: the (possibly symbolic) size of one axis.
//   - ShapeTracker: per-axis half-open [start,end) ranges plus axis order --
//     the zero-copy representation behind slice/permute/expand views.
package shapes

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"github.com/symgraph/symgraph/types/exprs"
)

// Shape is an ordered sequence of Dimension, one per axis.
//
// Use Make to create one. The zero Shape is invalid (Ok returns false), which
// is distinct from a valid rank-0 shape created with Make().
type Shape struct {
	Dimensions []Dimension
}

// Make returns the Shape with the given per-axis dimensions. Make() with no
// arguments is the valid rank-0 shape.
func Make(dimensions ...Dimension) Shape {
	dims := make([]Dimension, len(dimensions))
	for axis, dim := range dimensions {
		if !dim.Ok() {
			exceptions.Panicf("shapes.Make: axis %d has an invalid (zero) Dimension", axis)
		}
		dims[axis] = dim
	}
	return Shape{Dimensions: dims}
}

// Invalid returns an invalid Shape: Invalid().Ok() == false.
func Invalid() Shape { return Shape{} }

// Ok reports whether this is a valid Shape created with Make.
func (s Shape) Ok() bool { return s.Dimensions != nil }

// Shape returns a shallow copy of itself. It implements the HasShape
// interface.
func (s Shape) Shape() Shape { return s }

// Rank of the shape, that is, the number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// Dim returns the Dimension of the given axis. axis can take negative
// numbers, in which case it counts from the end -- so axis=-1 refers to the
// last axis. Like with slice indexing, it panics for an out-of-bounds axis.
func (s Shape) Dim(axis int) Dimension {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// Size returns the total element count as an Expression, the product of every
// axis size. It folds to a literal when every axis is Constant.
func (s Shape) Size() exprs.Expression {
	size := exprs.Const(1)
	for _, dim := range s.Dimensions {
		size = size.Mul(dim.Expr())
	}
	return size
}

// IsFullyConstant reports whether every axis is Constant.
func (s Shape) IsFullyConstant() bool {
	for _, dim := range s.Dimensions {
		if !dim.IsConstant() {
			return false
		}
	}
	return true
}

// Resolve returns the concrete per-axis sizes under the given bindings.
func (s Shape) Resolve(bindings exprs.Bindings) ([]int, error) {
	dims := make([]int, s.Rank())
	for axis, dim := range s.Dimensions {
		size, err := dim.Resolve(bindings)
		if err != nil {
			return nil, errors.WithMessagef(err, "resolving axis %d of shape %s", axis, s)
		}
		dims[axis] = size
	}
	return dims, nil
}

// Equal compares two shapes for structural equality: same rank and, per axis,
// Equal Dimensions (see Dimension.Equal).
func (s Shape) Equal(other Shape) bool {
	if s.Rank() != other.Rank() {
		return false
	}
	for axis, dim := range s.Dimensions {
		if !dim.Equal(other.Dimensions[axis]) {
			return false
		}
	}
	return s.Ok() == other.Ok()
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	if !s.Ok() {
		return Shape{}
	}
	return Shape{Dimensions: append([]Dimension(nil), s.Dimensions...)}
}

// String implements fmt.Stringer, e.g. "(batch, seq, 8)".
func (s Shape) String() string {
	if !s.Ok() {
		return "(invalid)"
	}
	parts := make([]string, 0, s.Rank())
	for _, dim := range s.Dimensions {
		parts = append(parts, dim.String())
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
}

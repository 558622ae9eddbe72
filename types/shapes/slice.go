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

package shapes

import (
	"fmt"
	"math"

	"github.com/symgraph/symgraph/types/exprs"
)

// UnboundedSize is the sentinel used for an unbounded range end when the axis
// has no size information to fall back on.
const UnboundedSize = math.MaxInt32

type boundKind uint8

const (
	unboundedBound boundKind = iota
	includedBound
	excludedBound
)

// Bound is one end of a range specification: unbounded, or an Expression
// taken inclusively or exclusively.
type Bound struct {
	kind boundKind
	expr exprs.Expression
}

// Included returns the bound at expr, inclusive.
func Included(expr exprs.Expression) Bound { return Bound{kind: includedBound, expr: expr} }

// Excluded returns the bound at expr, exclusive.
func Excluded(expr exprs.Expression) Bound { return Bound{kind: excludedBound, expr: expr} }

// Unbounded returns the open bound.
func Unbounded() Bound { return Bound{} }

// RangeSpec is a caller-facing per-axis slice specification. Use the
// constructors Full, From, UpTo, Through, Between and BetweenInclusive.
//
// Whatever bound style the caller uses, the spec canonicalizes to a half-open
// [start,end) pair of Expressions (see Canonical) -- the only form
// ShapeTracker deals in.
type RangeSpec struct {
	start, end Bound
}

// Full selects the whole axis. It is the only spec that preserves the axis's
// Dimension classification, see OutputDimension.
func Full() RangeSpec { return RangeSpec{} }

// From selects [start, axis-size).
func From(start exprs.Expression) RangeSpec {
	return RangeSpec{start: Included(start)}
}

// FromN is From with a literal start.
func FromN(start int) RangeSpec { return From(exprs.Const(start)) }

// UpTo selects [0, end), the end exclusive.
func UpTo(end exprs.Expression) RangeSpec {
	return RangeSpec{end: Excluded(end)}
}

// UpToN is UpTo with a literal end.
func UpToN(end int) RangeSpec { return UpTo(exprs.Const(end)) }

// Through selects [0, end], the end inclusive.
func Through(end exprs.Expression) RangeSpec {
	return RangeSpec{end: Included(end)}
}

// ThroughN is Through with a literal end.
func ThroughN(end int) RangeSpec { return Through(exprs.Const(end)) }

// Between selects the half-open [start, end).
func Between(start, end exprs.Expression) RangeSpec {
	return RangeSpec{start: Included(start), end: Excluded(end)}
}

// BetweenN is Between with literal bounds.
func BetweenN(start, end int) RangeSpec {
	return Between(exprs.Const(start), exprs.Const(end))
}

// BetweenInclusive selects the closed [start, end].
func BetweenInclusive(start, end exprs.Expression) RangeSpec {
	return RangeSpec{start: Included(start), end: Included(end)}
}

// Bounds returns a RangeSpec built from explicit Bound values, for callers
// that need the full generality (e.g. an exclusive start).
func Bounds(start, end Bound) RangeSpec {
	return RangeSpec{start: start, end: end}
}

// IsFull reports whether the spec selects the whole axis.
func (spec RangeSpec) IsFull() bool {
	return spec.start.kind == unboundedBound && spec.end.kind == unboundedBound
}

// startOffset translates the start bound: inclusive start X is X, exclusive
// start X is X+1, unbounded is 0.
func (spec RangeSpec) startOffset() exprs.Expression {
	switch spec.start.kind {
	case includedBound:
		return spec.start.expr
	case excludedBound:
		return spec.start.expr.AddN(1)
	}
	return exprs.Const(0)
}

// endOffset translates the end bound: exclusive end X is X, inclusive end X
// is X+1. The second result is false when the end is unbounded.
func (spec RangeSpec) endOffset() (exprs.Expression, bool) {
	switch spec.end.kind {
	case excludedBound:
		return spec.end.expr, true
	case includedBound:
		return spec.end.expr.AddN(1), true
	}
	return exprs.Expression{}, false
}

// Canonical translates the spec into the half-open [start,end) range over an
// axis of the given size. An unbounded end becomes the size Expression
// itself.
func (spec RangeSpec) Canonical(axisSize exprs.Expression) Range {
	end, bounded := spec.endOffset()
	if !bounded {
		end = axisSize
	}
	return Range{Start: spec.startOffset(), End: end}
}

// OutputDimension maps the spec to the Dimension of the output axis.
//
// A Full spec preserves the input axis's Dimension, including a Constant
// classification. Every other spec yields a Dynamic axis, even when both
// bounds are build-time literals: bounds live in the Expression domain, which
// may contain symbols, and the mapper never tries to prove a partial slice's
// length constant.
func (spec RangeSpec) OutputDimension(axis Dimension) Dimension {
	if spec.IsFull() {
		return axis
	}
	return Dynamic(AnonymousSymbol)
}

// SizeOrSentinel returns the axis size as an Expression, or the
// UnboundedSize sentinel for an invalid Dimension with no size information.
func SizeOrSentinel(d Dimension) exprs.Expression {
	if !d.Ok() {
		return exprs.Const(UnboundedSize)
	}
	return d.Expr()
}

// String implements fmt.Stringer, using Go range notation, e.g. "2:5",
// "3:", ":", ":=5".
func (spec RangeSpec) String() string {
	if spec.IsFull() {
		return ":"
	}
	start := ""
	if spec.start.kind != unboundedBound {
		start = spec.startOffset().String()
	}
	switch spec.end.kind {
	case unboundedBound:
		return fmt.Sprintf("%s:", start)
	case includedBound:
		return fmt.Sprintf("%s:=%s", start, spec.end.expr)
	}
	return fmt.Sprintf("%s:%s", start, spec.end.expr)
}

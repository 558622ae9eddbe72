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
	"strings"

	"github.com/pkg/errors"
	"github.com/symgraph/symgraph/types/exprs"
)

// Range is a half-open [Start,End) interval in Expression terms.
type Range struct {
	Start, End exprs.Expression
}

// Len returns End-Start as an Expression.
func (r Range) Len() exprs.Expression { return r.End.Sub(r.Start) }

// Validate fails when the range is provably inverted, that is, when both
// bounds are literal and Start > End. Symbolic bounds pass: they are only
// checkable after resolution.
func (r Range) Validate() error {
	start, startConst := r.Start.AsInt()
	end, endConst := r.End.AsInt()
	if startConst && endConst && start > end {
		return errors.Errorf("range [%s,%s) has start > end", r.Start, r.End)
	}
	return nil
}

// Resolve returns the concrete [start,end) pair under the given bindings,
// failing on unbound symbols or an inverted range.
func (r Range) Resolve(bindings exprs.Bindings) (start, end int, err error) {
	start, err = r.Start.Resolve(bindings)
	if err != nil {
		return 0, 0, err
	}
	end, err = r.End.Resolve(bindings)
	if err != nil {
		return 0, 0, err
	}
	if start > end {
		return 0, 0, errors.Errorf("range [%s,%s) resolved to inverted [%d,%d)", r.Start, r.End, start, end)
	}
	if start < 0 {
		return 0, 0, errors.Errorf("range [%s,%s) resolved to negative start %d", r.Start, r.End, start)
	}
	return start, end, nil
}

// String implements fmt.Stringer.
func (r Range) String() string {
	return fmt.Sprintf("[%s,%s)", r.Start, r.End)
}

// AxisView is one axis of a ShapeTracker: the half-open range of the
// underlying storage axis it selects, plus which source axis it reads.
//
// Broadcast axes (introduced by expand) visit no storage: Source is -1 and
// downstream elementwise consumers replicate along them instead of iterating.
type AxisView struct {
	Range     Range
	Source    int // Index into the underlying node's axes; -1 for broadcast.
	Broadcast bool
}

// ShapeTracker is the zero-copy view representation: one AxisView per output
// axis, in view order. Slice, permute and expand compose trackers without
// moving data; the execution backend interprets the final ranges.
//
// Invariant: the number of axes always equals the rank of the Shape the view
// presents. Composition is associative: applying transforms one at a time or
// as one fused transform yields identical final ranges.
type ShapeTracker struct {
	axes []AxisView
}

// FromShape returns the identity tracker over shape: axis i selects
// [0, size_i) of source axis i.
func FromShape(shape Shape) ShapeTracker {
	axes := make([]AxisView, shape.Rank())
	for i, dim := range shape.Dimensions {
		axes[i] = AxisView{
			Range:  Range{Start: exprs.Const(0), End: dim.Expr()},
			Source: i,
		}
	}
	return ShapeTracker{axes: axes}
}

// DenseTracker returns the identity tracker for a freshly materialized
// result whose axis lengths are the given Expressions: axis i selects
// [0, lengths[i]) of its own storage. Compute nodes use this to keep
// symbolic axis lengths resolvable downstream of partial slices, where the
// Shape alone only records an anonymous dynamic axis.
func DenseTracker(lengths []exprs.Expression) ShapeTracker {
	axes := make([]AxisView, len(lengths))
	for i, length := range lengths {
		axes[i] = AxisView{
			Range:  Range{Start: exprs.Const(0), End: length},
			Source: i,
		}
	}
	return ShapeTracker{axes: axes}
}

// Rank returns the number of view axes.
func (t ShapeTracker) Rank() int { return len(t.axes) }

// AxisLen returns the length (end-start) of the i-th view axis as an
// Expression.
func (t ShapeTracker) AxisLen(i int) exprs.Expression { return t.axes[i].Range.Len() }

// Axis returns the i-th view axis.
func (t ShapeTracker) Axis(i int) AxisView { return t.axes[i] }

// Ranges returns a copy of the per-axis ranges, in view order.
func (t ShapeTracker) Ranges() []Range {
	ranges := make([]Range, len(t.axes))
	for i, axis := range t.axes {
		ranges[i] = axis.Range
	}
	return ranges
}

// Slice composes the given per-axis specs with the tracker's current ranges.
// One spec per axis is required.
//
// Spec offsets are relative to the current view, so nested slicing composes:
// slicing [2,8) then [1,4) leaves the source axis range [3,6). A composed
// range that is provably inverted or provably escapes the current range is
// rejected without modifying the tracker.
func (t ShapeTracker) Slice(specs []RangeSpec) (ShapeTracker, error) {
	if len(specs) != t.Rank() {
		return ShapeTracker{}, errors.Errorf("slice with %d axis ranges on a rank-%d view", len(specs), t.Rank())
	}
	axes := make([]AxisView, t.Rank())
	for i, spec := range specs {
		cur := t.axes[i]
		composed, err := composeRange(cur.Range, spec)
		if err != nil {
			return ShapeTracker{}, errors.WithMessagef(err, "axis %d", i)
		}
		cur.Range = composed
		axes[i] = cur
	}
	return ShapeTracker{axes: axes}, nil
}

// composeRange applies spec, whose offsets are relative to cur's view, onto
// the absolute range cur.
func composeRange(cur Range, spec RangeSpec) (Range, error) {
	if spec.IsFull() {
		return cur, nil
	}
	composed := Range{Start: cur.Start.Add(spec.startOffset())}
	if end, bounded := spec.endOffset(); bounded {
		composed.End = cur.Start.Add(end)
	} else {
		composed.End = cur.End
	}
	if err := composed.Validate(); err != nil {
		return Range{}, err
	}
	// Reject a provable escape past the current view's end.
	if end, ok := composed.End.AsInt(); ok {
		if curEnd, ok := cur.End.AsInt(); ok && end > curEnd {
			return Range{}, errors.Errorf("range %s ends past the current view %s", composed, cur)
		}
	}
	return composed, nil
}

// Permute relabels the axis order. perm must be a bijection over axis
// indices: every index in [0,rank) used exactly once.
func (t ShapeTracker) Permute(perm []int) (ShapeTracker, error) {
	if len(perm) != t.Rank() {
		return ShapeTracker{}, errors.Errorf("permutation of %d axes on a rank-%d view", len(perm), t.Rank())
	}
	used := make([]bool, t.Rank())
	axes := make([]AxisView, t.Rank())
	for i, axis := range perm {
		if axis < 0 || axis >= t.Rank() {
			return ShapeTracker{}, errors.Errorf("permutation index %d out of range for rank %d", axis, t.Rank())
		}
		if used[axis] {
			return ShapeTracker{}, errors.Errorf("permutation %v uses axis %d more than once", perm, axis)
		}
		used[axis] = true
		axes[i] = t.axes[axis]
	}
	return ShapeTracker{axes: axes}, nil
}

// Expand inserts a broadcast axis at the given position (0 <= axis <= rank)
// presenting the given Dimension. The new axis visits no storage.
func (t ShapeTracker) Expand(axis int, dim Dimension) (ShapeTracker, error) {
	if axis < 0 || axis > t.Rank() {
		return ShapeTracker{}, errors.Errorf("expand at axis %d on a rank-%d view", axis, t.Rank())
	}
	if !dim.Ok() {
		return ShapeTracker{}, errors.Errorf("expand with an invalid (zero) Dimension")
	}
	axes := make([]AxisView, 0, t.Rank()+1)
	axes = append(axes, t.axes[:axis]...)
	axes = append(axes, AxisView{
		Range:     Range{Start: exprs.Const(0), End: dim.Expr()},
		Source:    -1,
		Broadcast: true,
	})
	axes = append(axes, t.axes[axis:]...)
	return ShapeTracker{axes: axes}, nil
}

// Resolve returns the concrete per-axis [start,end) pairs under bindings.
func (t ShapeTracker) Resolve(bindings exprs.Bindings) ([][2]int, error) {
	resolved := make([][2]int, t.Rank())
	for i, axis := range t.axes {
		start, end, err := axis.Range.Resolve(bindings)
		if err != nil {
			return nil, errors.WithMessagef(err, "resolving axis %d of view %s", i, t)
		}
		resolved[i] = [2]int{start, end}
	}
	return resolved, nil
}

// ResolveDims returns the concrete per-axis lengths (end-start) under
// bindings.
func (t ShapeTracker) ResolveDims(bindings exprs.Bindings) ([]int, error) {
	ranges, err := t.Resolve(bindings)
	if err != nil {
		return nil, err
	}
	dims := make([]int, len(ranges))
	for i, r := range ranges {
		dims[i] = r[1] - r[0]
	}
	return dims, nil
}

// String implements fmt.Stringer, e.g. "{[0,batch) [2,seq) [0,8)b}".
func (t ShapeTracker) String() string {
	parts := make([]string, 0, t.Rank())
	for _, axis := range t.axes {
		s := axis.Range.String()
		if axis.Broadcast {
			s += "b"
		}
		parts = append(parts, s)
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, " "))
}

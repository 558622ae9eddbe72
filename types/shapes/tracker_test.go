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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/symgraph/symgraph/types/exprs"
)

func constRange(t *testing.T, r Range) (int, int) {
	t.Helper()
	start, ok := r.Start.AsInt()
	require.True(t, ok)
	end, ok := r.End.AsInt()
	require.True(t, ok)
	return start, end
}

func TestFromShape(t *testing.T) {
	tracker := FromShape(Make(Dynamic("batch"), Constant(10)))
	require.Equal(t, 2, tracker.Rank())

	start, ok := tracker.Axis(0).Range.Start.AsInt()
	require.True(t, ok)
	assert.Equal(t, 0, start)
	assert.True(t, tracker.Axis(0).Range.End.Equal(exprs.Sym("batch")))
	assert.Equal(t, 0, tracker.Axis(0).Source)

	start, end := constRange(t, tracker.Axis(1).Range)
	assert.Equal(t, 0, start)
	assert.Equal(t, 10, end)
	assert.Equal(t, 1, tracker.Axis(1).Source)
}

// TestNestedSliceComposition: slicing [2,8) then [1,4) must equal the single
// slice [3,6) on the original axis.
func TestNestedSliceComposition(t *testing.T) {
	tracker := FromShape(Make(Constant(10)))

	once, err := tracker.Slice([]RangeSpec{BetweenN(2, 8)})
	require.NoError(t, err)
	twice, err := once.Slice([]RangeSpec{BetweenN(1, 4)})
	require.NoError(t, err)

	fused, err := tracker.Slice([]RangeSpec{BetweenN(3, 6)})
	require.NoError(t, err)

	start, end := constRange(t, twice.Axis(0).Range)
	assert.Equal(t, 3, start)
	assert.Equal(t, 6, end)
	fusedStart, fusedEnd := constRange(t, fused.Axis(0).Range)
	assert.Equal(t, fusedStart, start)
	assert.Equal(t, fusedEnd, end)
	assert.Equal(t, 0, twice.Axis(0).Source, "composition keeps the original source axis")
}

func TestSliceFullKeepsRange(t *testing.T) {
	tracker := FromShape(Make(Dynamic("seq"), Constant(8)))
	sliced, err := tracker.Slice([]RangeSpec{Full(), Full()})
	require.NoError(t, err)
	assert.Equal(t, tracker.Ranges(), sliced.Ranges())
}

func TestSliceSymbolicComposition(t *testing.T) {
	// [2, seq) then [1, ...) on a dynamic axis: start accumulates, end stays
	// the symbolic axis end.
	tracker := FromShape(Make(Dynamic("seq")))
	once, err := tracker.Slice([]RangeSpec{FromN(2)})
	require.NoError(t, err)
	twice, err := once.Slice([]RangeSpec{FromN(1)})
	require.NoError(t, err)

	start, ok := twice.Axis(0).Range.Start.AsInt()
	require.True(t, ok)
	assert.Equal(t, 3, start)
	assert.True(t, twice.Axis(0).Range.End.Equal(exprs.Sym("seq")))

	dims, err := twice.ResolveDims(exprs.Bindings{"seq": 10})
	require.NoError(t, err)
	assert.Equal(t, []int{7}, dims)
}

func TestSliceInvalidRange(t *testing.T) {
	tracker := FromShape(Make(Constant(10)))

	_, err := tracker.Slice([]RangeSpec{BetweenN(6, 3)})
	require.Error(t, err, "start > end must be rejected")

	// Escaping past the current view end is rejected, not clamped.
	_, err = tracker.Slice([]RangeSpec{BetweenN(2, 12)})
	require.Error(t, err)

	// Wrong number of axis specs.
	_, err = tracker.Slice([]RangeSpec{Full(), Full()})
	require.Error(t, err)
}

func TestPermuteRoundTrip(t *testing.T) {
	tracker := FromShape(Make(Dynamic("batch"), Constant(3), Constant(2)))
	perm := []int{2, 0, 1}
	inverse := []int{1, 2, 0}

	permuted, err := tracker.Permute(perm)
	require.NoError(t, err)
	assert.Equal(t, 2, permuted.Axis(0).Source)
	assert.Equal(t, 0, permuted.Axis(1).Source)

	restored, err := permuted.Permute(inverse)
	require.NoError(t, err)
	assert.Equal(t, tracker.Ranges(), restored.Ranges())
	for i := 0; i < tracker.Rank(); i++ {
		assert.Equal(t, tracker.Axis(i).Source, restored.Axis(i).Source)
	}
}

func TestPermuteRejectsNonBijection(t *testing.T) {
	tracker := FromShape(Make(Constant(4), Constant(3)))
	_, err := tracker.Permute([]int{0, 0})
	require.Error(t, err)
	_, err = tracker.Permute([]int{0, 2})
	require.Error(t, err)
	_, err = tracker.Permute([]int{0})
	require.Error(t, err)
	_, err = tracker.Permute([]int{-1, 1})
	require.Error(t, err)
}

func TestExpand(t *testing.T) {
	tracker := FromShape(Make(Dynamic("seq"), Constant(8)))
	expanded, err := tracker.Expand(0, Dynamic("batch"))
	require.NoError(t, err)
	require.Equal(t, 3, expanded.Rank())
	assert.True(t, expanded.Axis(0).Broadcast)
	assert.Equal(t, -1, expanded.Axis(0).Source)
	assert.Equal(t, 0, expanded.Axis(1).Source)

	// Appending at the end.
	expanded, err = tracker.Expand(2, Constant(4))
	require.NoError(t, err)
	assert.True(t, expanded.Axis(2).Broadcast)

	_, err = tracker.Expand(3, Constant(4))
	require.Error(t, err)
	_, err = tracker.Expand(-1, Constant(4))
	require.Error(t, err)
}

func TestTrackerResolve(t *testing.T) {
	tracker := FromShape(Make(Dynamic("batch"), Dynamic("seq"), Constant(8)))
	sliced, err := tracker.Slice([]RangeSpec{Full(), FromN(2), Full()})
	require.NoError(t, err)

	ranges, err := sliced.Resolve(exprs.Bindings{"batch": 2, "seq": 5})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 2}, {2, 5}, {0, 8}}, ranges)

	dims, err := sliced.ResolveDims(exprs.Bindings{"batch": 2, "seq": 5})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 8}, dims)

	_, err = sliced.Resolve(exprs.Bindings{"batch": 2})
	require.Error(t, err)

	// A symbolic range that resolves inverted fails at resolution.
	sliced, err = tracker.Slice([]RangeSpec{Full(), FromN(7), Full()})
	require.NoError(t, err)
	_, err = sliced.Resolve(exprs.Bindings{"batch": 2, "seq": 5})
	require.Error(t, err)
}

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

// TestBoundTranslation checks the canonical half-open translation on a
// concrete axis of size 10.
func TestBoundTranslation(t *testing.T) {
	size := exprs.Const(10)
	tests := []struct {
		name       string
		spec       RangeSpec
		start, end int
	}{
		{"exclusive 2..5", BetweenN(2, 5), 2, 5},
		{"inclusive 2..=5", BetweenInclusive(exprs.Const(2), exprs.Const(5)), 2, 6},
		{"from 3..", FromN(3), 3, 10},
		{"to ..4", UpToN(4), 0, 4},
		{"to inclusive ..=4", ThroughN(4), 0, 5},
		{"full", Full(), 0, 10},
		{"excluded start", Bounds(Excluded(exprs.Const(2)), Unbounded()), 3, 10},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := test.spec.Canonical(size)
			start, ok := r.Start.AsInt()
			require.True(t, ok)
			end, ok := r.End.AsInt()
			require.True(t, ok)
			assert.Equal(t, test.start, start)
			assert.Equal(t, test.end, end)
		})
	}
}

func TestCanonicalSymbolicEnd(t *testing.T) {
	// On a dynamic axis, an unbounded end stays symbolic.
	r := FromN(3).Canonical(exprs.Sym("seq"))
	start, ok := r.Start.AsInt()
	require.True(t, ok)
	assert.Equal(t, 3, start)
	assert.True(t, r.End.Equal(exprs.Sym("seq")))

	end, err := r.End.Resolve(exprs.Bindings{"seq": 10})
	require.NoError(t, err)
	assert.Equal(t, 10, end)
}

func TestOutputDimension(t *testing.T) {
	constAxis := Constant(10)
	dynAxis := Dynamic("seq")

	// Full preserves the classification exactly.
	assert.Equal(t, constAxis, Full().OutputDimension(constAxis))
	assert.Equal(t, dynAxis, Full().OutputDimension(dynAxis))

	// Everything else is Dynamic, even with literal bounds on a constant
	// axis.
	for _, spec := range []RangeSpec{
		BetweenN(2, 5),
		FromN(0),
		UpToN(10),
		ThroughN(9),
		BetweenInclusive(exprs.Const(0), exprs.Const(9)),
	} {
		got := spec.OutputDimension(constAxis)
		assert.False(t, got.IsConstant(), "spec %s must map to a dynamic axis", spec)
		assert.Equal(t, AnonymousSymbol, got.Symbol())
		got = spec.OutputDimension(dynAxis)
		assert.Equal(t, AnonymousSymbol, got.Symbol())
	}
}

func TestSizeOrSentinel(t *testing.T) {
	e := SizeOrSentinel(Constant(10))
	v, ok := e.AsInt()
	require.True(t, ok)
	assert.Equal(t, 10, v)

	e = SizeOrSentinel(Dynamic("seq"))
	assert.True(t, e.Equal(exprs.Sym("seq")))

	e = SizeOrSentinel(Dimension{})
	v, ok = e.AsInt()
	require.True(t, ok)
	assert.Equal(t, UnboundedSize, v)
}

func TestRangeSpecString(t *testing.T) {
	assert.Equal(t, ":", Full().String())
	assert.Equal(t, "2:5", BetweenN(2, 5).String())
	assert.Equal(t, "3:", FromN(3).String())
	assert.Equal(t, ":4", UpToN(4).String())
	assert.Equal(t, ":=4", ThroughN(4).String())
}

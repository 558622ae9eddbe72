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

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"github.com/symgraph/symgraph/types/exprs"
)

// AnonymousSymbol is the symbol given to a Dynamic dimension produced by the
// range-to-dimension mapper: a partial slice always yields a dynamic axis
// (see RangeSpec), and the resulting axis is not tied to any named run-time
// symbol -- its concrete size comes from the ShapeTracker ranges instead.
const AnonymousSymbol = "-"

// Dimension classifies the size of one tensor axis: either a size fixed at
// graph-build time (Constant) or a size known only when the graph runs
// (Dynamic, tied to a named run-time symbol like "batch" or "seq").
//
// Dimension is a pure value; the zero Dimension is invalid.
type Dimension struct {
	size   int    // Valid when symbol is empty.
	symbol string // Non-empty for dynamic dimensions.
}

// Constant returns the Dimension for an axis whose size n is fixed at
// graph-build time. It panics if n <= 0.
func Constant(n int) Dimension {
	if n <= 0 {
		exceptions.Panicf("shapes.Constant(%d): axis size must be positive", n)
	}
	return Dimension{size: n}
}

// Dynamic returns the Dimension for an axis whose size is only known at run
// time, identified by the given symbol name. It panics on an empty name.
func Dynamic(symbol string) Dimension {
	if symbol == "" {
		exceptions.Panicf("shapes.Dynamic: symbol name cannot be empty")
	}
	return Dimension{symbol: symbol}
}

// Ok reports whether d was created with Constant or Dynamic, as opposed to
// being the (invalid) zero value.
func (d Dimension) Ok() bool {
	return d.size > 0 || d.symbol != ""
}

// IsConstant reports whether the axis size is fixed at graph-build time.
func (d Dimension) IsConstant() bool {
	return d.symbol == "" && d.size > 0
}

// Size returns the build-time size, or false for a Dynamic dimension.
func (d Dimension) Size() (int, bool) {
	if !d.IsConstant() {
		return 0, false
	}
	return d.size, true
}

// Symbol returns the run-time symbol name, or "" for a Constant dimension.
func (d Dimension) Symbol() string {
	return d.symbol
}

// Expr returns the axis size as an Expression: a literal for Constant, the
// symbol for Dynamic.
func (d Dimension) Expr() exprs.Expression {
	if d.symbol != "" {
		return exprs.Sym(d.symbol)
	}
	if d.size <= 0 {
		exceptions.Panicf("shapes.Dimension.Expr() on an invalid (zero) Dimension")
	}
	return exprs.Const(d.size)
}

// Resolve returns the concrete axis size under the given bindings.
func (d Dimension) Resolve(bindings exprs.Bindings) (int, error) {
	if d.IsConstant() {
		return d.size, nil
	}
	if d.symbol == "" {
		return 0, errors.Errorf("cannot resolve an invalid (zero) Dimension")
	}
	size, found := bindings[d.symbol]
	if !found {
		return 0, errors.Errorf("dynamic dimension %q is not bound", d.symbol)
	}
	return size, nil
}

// Equal reports structural equality: Constant sizes match, or Dynamic symbols
// match. A Constant is never Equal to a Dynamic, even if the dynamic axis
// would resolve to the same size.
func (d Dimension) Equal(other Dimension) bool {
	return d == other
}

// String implements fmt.Stringer: "8" for Constant(8), "batch" for
// Dynamic("batch").
func (d Dimension) String() string {
	if d.symbol != "" {
		return d.symbol
	}
	if d.size <= 0 {
		return "?"
	}
	return fmt.Sprintf("%d", d.size)
}

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

// Package exprs implements symbolic integer arithmetic over named run-time
// symbols and literal values.
//
// An Expression is an immutable value: arithmetic methods return new
// Expressions and never modify their receiver. Literal sub-terms are folded
// eagerly, so an Expression built only from literals is always a single
// literal, and AsInt succeeds on it. An Expression still containing symbols
// only becomes a number once every symbol is bound, see Expression.Resolve.
//
// Every axis size and axis range in the packages above (types/shapes, graph)
// is an Expression -- there is no separate code path for sizes known at
// graph-build time, they are simply Expressions that fold to a literal.
package exprs

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Bindings maps run-time symbol names (e.g. "batch", "seq") to their concrete
// values. The execution backend fills one in before resolving shapes or
// invoking function payloads.
type Bindings map[string]int

type exprKind uint8

const (
	literalExpr exprKind = iota
	symbolExpr
	addExpr
	subExpr
	mulExpr
	divExpr
)

var kindToOpRune = map[exprKind]rune{addExpr: '+', subExpr: '-', mulExpr: '*', divExpr: '/'}

// Expression is a symbolic integer term. The zero value is the literal 0.
//
// Use Const or Sym to create one, and the arithmetic methods (Add, Sub, Mul,
// Div) to combine them.
type Expression struct {
	kind     exprKind
	value    int    // Set for literalExpr.
	symbol   string // Set for symbolExpr.
	lhs, rhs *Expression
}

// Const returns the literal Expression for value.
func Const(value int) Expression {
	return Expression{kind: literalExpr, value: value}
}

// ConstFrom is a generic version of Const for any integer type.
func ConstFrom[T constraints.Integer](value T) Expression {
	return Const(int(value))
}

// Sym returns the Expression for the run-time symbol with the given name.
// It panics on an empty name.
func Sym(name string) Expression {
	if name == "" {
		exceptions.Panicf("exprs.Sym: symbol name cannot be empty")
	}
	return Expression{kind: symbolExpr, symbol: name}
}

// IsConst reports whether e carries no symbols. Since literal sub-terms fold
// eagerly, this is equivalent to e being a single literal.
func (e Expression) IsConst() bool {
	return e.kind == literalExpr
}

// AsInt returns the concrete value of e, if it has no remaining symbols.
func (e Expression) AsInt() (int, bool) {
	if e.kind != literalExpr {
		return 0, false
	}
	return e.value, true
}

// combine builds a binary term, eagerly folding when both sides are literal
// and applying the cheap identities (x+0, x-0, x*1, x*0, x/1).
func combine(kind exprKind, lhs, rhs Expression) Expression {
	if lv, ok := lhs.AsInt(); ok {
		if rv, ok := rhs.AsInt(); ok {
			return Const(evalBinary(kind, lv, rv))
		}
	}
	switch kind {
	case addExpr:
		if lhs.isLiteral(0) {
			return rhs
		}
		if rhs.isLiteral(0) {
			return lhs
		}
	case subExpr:
		if rhs.isLiteral(0) {
			return lhs
		}
	case mulExpr:
		if lhs.isLiteral(0) || rhs.isLiteral(0) {
			return Const(0)
		}
		if lhs.isLiteral(1) {
			return rhs
		}
		if rhs.isLiteral(1) {
			return lhs
		}
	case divExpr:
		if rhs.isLiteral(0) {
			exceptions.Panicf("exprs: division of %s by literal zero", lhs)
		}
		if rhs.isLiteral(1) {
			return lhs
		}
	}
	l, r := lhs, rhs
	return Expression{kind: kind, lhs: &l, rhs: &r}
}

func evalBinary(kind exprKind, lhs, rhs int) int {
	switch kind {
	case addExpr:
		return lhs + rhs
	case subExpr:
		return lhs - rhs
	case mulExpr:
		return lhs * rhs
	case divExpr:
		if rhs == 0 {
			exceptions.Panicf("exprs: division of %d by zero", lhs)
		}
		return lhs / rhs
	}
	exceptions.Panicf("exprs: unknown binary operation %d", kind)
	return 0
}

func (e Expression) isLiteral(value int) bool {
	return e.kind == literalExpr && e.value == value
}

// Add returns e + other.
func (e Expression) Add(other Expression) Expression { return combine(addExpr, e, other) }

// Sub returns e - other.
func (e Expression) Sub(other Expression) Expression { return combine(subExpr, e, other) }

// Mul returns e * other.
func (e Expression) Mul(other Expression) Expression { return combine(mulExpr, e, other) }

// Div returns e / other, with integer (truncating) division semantics.
// It panics if other is the literal zero; a symbolic divisor that resolves to
// zero fails at Resolve time instead.
func (e Expression) Div(other Expression) Expression { return combine(divExpr, e, other) }

// AddN is a shortcut for e.Add(Const(value)).
func (e Expression) AddN(value int) Expression { return e.Add(Const(value)) }

// Resolve substitutes every symbol with its value in bindings and evaluates.
// It fails if any symbol remains unbound or a symbolic divisor resolves to
// zero.
func (e Expression) Resolve(bindings Bindings) (int, error) {
	switch e.kind {
	case literalExpr:
		return e.value, nil
	case symbolExpr:
		value, found := bindings[e.symbol]
		if !found {
			return 0, errors.Errorf("expression %s: symbol %q is not bound", e, e.symbol)
		}
		return value, nil
	}
	lhs, err := e.lhs.Resolve(bindings)
	if err != nil {
		return 0, err
	}
	rhs, err := e.rhs.Resolve(bindings)
	if err != nil {
		return 0, err
	}
	if e.kind == divExpr && rhs == 0 {
		return 0, errors.Errorf("expression %s: division by zero after binding", e)
	}
	return evalBinary(e.kind, lhs, rhs), nil
}

// Equal reports structural equality: same literals, symbols and operation
// tree. It does not attempt algebraic equivalence -- `a+b` and `b+a` are not
// Equal.
func (e Expression) Equal(other Expression) bool {
	if e.kind != other.kind {
		return false
	}
	switch e.kind {
	case literalExpr:
		return e.value == other.value
	case symbolExpr:
		return e.symbol == other.symbol
	}
	return e.lhs.Equal(*other.lhs) && e.rhs.Equal(*other.rhs)
}

// Symbols returns the distinct symbol names in e, in first-appearance order.
func (e Expression) Symbols() []string {
	var names []string
	seen := make(map[string]bool)
	var visit func(e Expression)
	visit = func(e Expression) {
		switch e.kind {
		case literalExpr:
		case symbolExpr:
			if !seen[e.symbol] {
				seen[e.symbol] = true
				names = append(names, e.symbol)
			}
		default:
			visit(*e.lhs)
			visit(*e.rhs)
		}
	}
	visit(e)
	return names
}

// String implements fmt.Stringer. Composite terms are parenthesized.
func (e Expression) String() string {
	switch e.kind {
	case literalExpr:
		return fmt.Sprintf("%d", e.value)
	case symbolExpr:
		return e.symbol
	}
	return fmt.Sprintf("(%s%c%s)", e.lhs, kindToOpRune[e.kind], e.rhs)
}

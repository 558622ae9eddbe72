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

import "github.com/pkg/errors"

var (
	// ErrShapeMismatch reports inputs that disagree in rank or in a
	// non-broadcastable axis's constant size. Only raised at build time when
	// the disagreement is statically provable.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidRange reports an internally inconsistent slice, permutation
	// or reshape specification: start > end after composition, a permutation
	// that is not a bijection, a reshape mapping that is not total. Raised
	// before any node is inserted, so the Graph is never left partially
	// built.
	ErrInvalidRange = errors.New("invalid range")

	// ErrUnresolvedDynamicMismatch reports two dynamic axes that were
	// expected to be equal (e.g. at a Realize) but differ once their concrete
	// sizes are known. Undetectable at build time: dynamic sizes are opaque
	// symbols. Surfaced by Graph.CheckObligations once bindings exist.
	ErrUnresolvedDynamicMismatch = errors.New("unresolved dynamic size mismatch")

	// ErrFunctionPayload reports a Function node whose host computation
	// failed or violated its declared contract. Surfaced by Graph.Invoke.
	ErrFunctionPayload = errors.New("function payload failed")
)

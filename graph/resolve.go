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

import (
	"github.com/pkg/errors"

	"github.com/symgraph/symgraph/types/exprs"
)

// Resolution-time entry points: once the caller knows concrete values for
// every dynamic symbol (batch size, sequence length, ...) these turn the
// symbolic views built at graph-construction time into concrete integers and
// host data. Resolution never mutates the graph; unlike the builder methods
// above, failures are returned, not deferred.

// lookup returns the node for id, or an error. It does not touch the
// graph's deferred error state.
func (g *Graph) lookup(id NodeId) (*Node, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, errors.Errorf("graph %q has no node #%d", g.name, id)
	}
	return g.nodes[id], nil
}

// ResolvedDims returns the concrete per-axis lengths of t's view under the
// given bindings. Every dynamic symbol reachable from the view must be
// bound.
func (g *Graph) ResolvedDims(t GraphTensor, bindings exprs.Bindings) ([]int, error) {
	node, err := g.lookup(t.Id())
	if err != nil {
		return nil, err
	}
	dims, err := node.tracker.ResolveDims(bindings)
	if err != nil {
		return nil, errors.WithMessagef(err, "resolving dims of node #%d (%s)", node.id, node.op)
	}
	return dims, nil
}

// ResolvedRanges returns the concrete [start,end) window of t's view on
// each axis under the given bindings.
func (g *Graph) ResolvedRanges(t GraphTensor, bindings exprs.Bindings) ([][2]int, error) {
	node, err := g.lookup(t.Id())
	if err != nil {
		return nil, err
	}
	ranges, err := node.tracker.Resolve(bindings)
	if err != nil {
		return nil, errors.WithMessagef(err, "resolving ranges of node #%d (%s)", node.id, node.op)
	}
	return ranges, nil
}

// Invoke runs the payload of the Function node identified by id, resolving
// every input view under the given bindings first. It enforces the node's
// declared contract on the payload's result: the returned view must carry
// the assigned output id and a tracker of the declared rank. Payload
// failures and contract violations are reported as ErrFunctionPayload.
func (g *Graph) Invoke(id NodeId, bindings exprs.Bindings) (*Tensor, View, error) {
	node, err := g.lookup(id)
	if err != nil {
		return nil, View{}, err
	}
	if node.op != OpFunction {
		return nil, View{}, errors.Errorf("Invoke: node #%d is %s, not a Function node", id, node.op)
	}
	inputs := make([]ResolvedInput, len(node.inputs))
	for i, inputId := range node.inputs {
		in := g.nodes[inputId]
		ranges, err := in.tracker.Resolve(bindings)
		if err != nil {
			return nil, View{}, errors.WithMessagef(err, "Invoke(%q): resolving input #%d", node.name, inputId)
		}
		dims := make([]int, len(ranges))
		for axis, r := range ranges {
			dims[axis] = r[1] - r[0]
		}
		inputs[i] = ResolvedInput{Id: inputId, Dims: dims, Ranges: ranges}
	}
	data, view, err := node.fn.Call(inputs, node.id)
	if err != nil {
		return nil, View{}, errors.WithMessagef(ErrFunctionPayload, "%q on node #%d: %v", node.name, node.id, err)
	}
	if view.Id != node.id {
		return nil, View{}, errors.WithMessagef(ErrFunctionPayload,
			"%q returned a view for node #%d, expected #%d", node.name, view.Id, node.id)
	}
	if view.Tracker.Rank() != node.Rank() {
		return nil, View{}, errors.WithMessagef(ErrFunctionPayload,
			"%q returned rank %d, declared rank %d", node.name, view.Tracker.Rank(), node.Rank())
	}
	return data, view, nil
}

// CheckObligations verifies every size equality deferred by Realize calls
// that paired a dynamic dimension with another dimension. Mismatches under
// the given bindings are reported as ErrUnresolvedDynamicMismatch.
func (g *Graph) CheckObligations(bindings exprs.Bindings) error {
	for _, ob := range g.obligations {
		got, err := ob.got.Resolve(bindings)
		if err != nil {
			return errors.WithMessagef(err, "checking realized size of node #%d axis %d", ob.id, ob.axis)
		}
		want, err := ob.want.Resolve(bindings)
		if err != nil {
			return errors.WithMessagef(err, "checking realized size of node #%d axis %d", ob.id, ob.axis)
		}
		if got != want {
			return errors.WithMessagef(ErrUnresolvedDynamicMismatch,
				"node #%d axis %d resolves to %d, realized as %d", ob.id, ob.axis, got, want)
		}
	}
	return nil
}

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

// Package graph is the core package for symgraph. It is used to describe
// tensor computations as a lazy graph of symbolic operations, where some axis
// sizes are fixed when the graph is built and others (batch size, sequence
// length) are only known when it runs.
//
// The main elements in the package are:
//
//   - Graph: owns an append-only list of operation nodes. To construct one,
//     put together ops (NewTensor, Slice, Permute, Reshape, Expand, Concat,
//     the elementwise and matmul primitives, and Function nodes) -- no data
//     is touched, only shapes are inferred and checked.
//
//   - GraphTensor: an opaque handle (node id + Shape) into its owning Graph.
//     It carries no data and no back-pointer: every operation takes the Graph
//     explicitly, and the handle stays valid for as long as the Graph lives.
//
//   - Node: one finalized operation -- kind, ordered input ids, output Shape
//     and ShapeTracker, and optionally a Function payload. The node list in
//     insertion order is what an execution backend consumes.
//
// ## Deferred error handling
//
// Graph methods don't return errors; instead the first error that happens
// during building is stored on the Graph, and all further operations become
// no-ops returning invalid handles. Check Graph.Error at the end of building.
// A failing operation never inserts a node, so the Graph is never left
// partially built. Errors are typed: test them with errors.Is against
// ErrShapeMismatch, ErrInvalidRange, ErrUnresolvedDynamicMismatch and
// ErrFunctionPayload.
//
// ## Build time vs. run time
//
// Shape checks happen at graph building time whenever both sides are
// statically known. Equalities between dynamic axes (recorded by Realize)
// cannot be proven then; they are kept as obligations and checked by
// CheckObligations once the backend binds every symbol to a concrete size.
package graph

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/symgraph/symgraph/types/exprs"
	"github.com/symgraph/symgraph/types/shapes"
	"k8s.io/klog/v2"
)

// NodeId is a unique node id within a Graph. Ids are assigned monotonically
// at insertion and never reused or deleted.
type NodeId int

// InvalidNodeId indicates a node that failed to be created.
const InvalidNodeId = NodeId(-1)

// Graph with the operations and dependencies needed to describe a
// computation.
//
// It uses a deferred error reporting model: if any error happens during the
// building of a graph the first error is stored, and all further operations
// become no-ops. At the very end one can check with Graph.Error() whether
// any error occurred. See discussion in the package documentation.
//
// Graph construction is single-threaded and synchronous; there is no
// concurrent-construction contract.
type Graph struct {
	error error

	name  string
	nodes []*Node

	leaves          []*Node
	leafNameToId    map[string]NodeId
	nextAnonymousId int

	// obligations are dynamic-size equalities recorded by Realize, checked
	// by CheckObligations after symbol binding.
	obligations []sizeObligation

	traced bool
}

type sizeObligation struct {
	id        NodeId
	axis      int
	got, want exprs.Expression
}

// New creates an empty Graph with the given name (used in diagnostics only).
func New(name string) *Graph {
	return &Graph{
		name:         name,
		leafNameToId: make(map[string]NodeId),
	}
}

// Name of the computation this Graph defines, set during its construction.
func (g *Graph) Name() string { return g.name }

// Error returns the first error that happened during the building of the
// Graph. It's a convenience so errors can be handled at the end of building
// (as opposed to at every step). Op methods become no-ops if the graph has an
// error.
func (g *Graph) Error() error {
	if g == nil {
		return errors.Errorf("the Graph is nil")
	}
	return g.error
}

// Ok returns whether there were no errors during graph building so far.
func (g *Graph) Ok() bool { return g != nil && g.error == nil }

// MustOk panics if the graph is not ok, printing the error with its stack.
// Otherwise it's a no-op.
func (g *Graph) MustOk() {
	if !g.Ok() {
		panic(fmt.Sprintf("Graph %q failed: %+v", g.name, g.Error()))
	}
}

// SetError for the Graph. After an error is set, op methods become no-ops.
// Only the first error is kept.
func (g *Graph) SetError(err error) {
	if !g.Ok() {
		return
	}
	g.error = err
}

// SetErrorf is similar to SetError, but allows formatting in place. It also
// automatically adds a stack trace.
func (g *Graph) SetErrorf(format string, args ...any) {
	if !g.Ok() {
		return
	}
	g.SetError(errors.WithStack(fmt.Errorf(format, args...)))
}

// setErrorWithCause stores a formatted error whose cause is the given typed
// sentinel (ErrShapeMismatch, ErrInvalidRange, ...), so callers can test it
// with errors.Is.
func (g *Graph) setErrorWithCause(sentinel error, format string, args ...any) {
	if !g.Ok() {
		return
	}
	g.SetError(errors.WithMessagef(sentinel, format, args...))
}

// ResetError clears the Graph error state. This will not fix any underlying
// cause and may leave the Graph in an undefined state. A convenience for
// tests that deliberately provoke errors.
func (g *Graph) ResetError() {
	g.error = nil
}

// SetTraced defines whether node registration is logged (at klog verbosity
// 1), which helps debugging graph construction.
func (g *Graph) SetTraced(traced bool) {
	g.traced = traced
}

// registerNode in the graph, returning a new unique id within the Graph.
// Callers must have finished all validation: once registered, the node is
// final.
func (g *Graph) registerNode(node *Node) NodeId {
	if !g.Ok() {
		return InvalidNodeId
	}
	node.id = NodeId(len(g.nodes))
	g.nodes = append(g.nodes, node)
	if g.traced {
		klog.V(1).Infof("graph %q: registered node #%d %s", g.name, node.id, node)
	}
	return node.id
}

// newNode finalizes an already validated op into an immutable node and
// returns its handle.
func (g *Graph) newNode(node *Node) GraphTensor {
	id := g.registerNode(node)
	if id == InvalidNodeId {
		return InvalidTensor()
	}
	return GraphTensor{id: id, shape: node.shape}
}

// NumNodes returns the number of nodes inserted so far.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NodeById returns the node with the given id, or nil (with the Graph put in
// error) for an out-of-range id.
func (g *Graph) NodeById(id NodeId) *Node {
	if id == InvalidNodeId || int(id) >= len(g.nodes) {
		g.SetErrorf("invalid request Graph.NodeById(id=%d): there are %d nodes", id, len(g.nodes))
		return nil
	}
	return g.nodes[id]
}

// Nodes returns the finalized node list in insertion order. This is the
// interface the execution backend consumes. The returned slice is a copy;
// the nodes themselves are shared and must be treated as immutable.
func (g *Graph) Nodes() []*Node {
	return append([]*Node(nil), g.nodes...)
}

// Leaves returns the leaf tensor nodes (created with NewTensor) in creation
// order. Checkpointing layers use this to enumerate named weights with their
// declared Shapes.
func (g *Graph) Leaves() []*Node {
	return append([]*Node(nil), g.leaves...)
}

// LeafByName returns the leaf node registered with the given name, or nil if
// no such leaf exists.
func (g *Graph) LeafByName(name string) *Node {
	id, found := g.leafNameToId[name]
	if !found {
		return nil
	}
	return g.nodes[id]
}

// nodeOf resolves a handle to its node, validating that the handle is ok and
// belongs to this graph. On failure it records the error and returns nil.
func (g *Graph) nodeOf(opName string, t GraphTensor) *Node {
	if !g.Ok() {
		return nil
	}
	if !t.Ok() {
		g.SetErrorf("%s: invalid input tensor handle", opName)
		return nil
	}
	if int(t.id) >= len(g.nodes) {
		g.SetErrorf("%s: tensor handle #%d does not belong to graph %q (%d nodes)",
			opName, t.id, g.name, len(g.nodes))
		return nil
	}
	return g.nodes[t.id]
}

// String converts the Graph to a multi-line listing of its nodes.
func (g *Graph) String() string {
	if !g.Ok() {
		return fmt.Sprintf("Graph %q: #ERROR: %v", g.name, g.error)
	}
	parts := []string{fmt.Sprintf("Graph %q: %d nodes, %d leaves", g.name, len(g.nodes), len(g.leaves))}
	for _, node := range g.nodes {
		parts = append(parts, fmt.Sprintf("#%d\t%s", node.id, node))
	}
	return strings.Join(parts, "\n")
}

// shapeLengths returns per-axis length Expressions of a dense result shaped
// like shape, preferring the tracker's (resolvable) lengths for anonymous
// dynamic axes.
func shapeLengths(shape shapes.Shape, tracker shapes.ShapeTracker) []exprs.Expression {
	lengths := make([]exprs.Expression, shape.Rank())
	for axis, dim := range shape.Dimensions {
		if dim.Symbol() == shapes.AnonymousSymbol && tracker.Rank() == shape.Rank() {
			lengths[axis] = tracker.AxisLen(axis)
			continue
		}
		lengths[axis] = shapes.SizeOrSentinel(dim)
	}
	return lengths
}

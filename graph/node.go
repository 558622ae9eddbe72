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
	"fmt"
	"strings"

	"github.com/symgraph/symgraph/types/shapes"
)

// OpType identifies the operation performed by a node.
type OpType int

const (
	OpInvalid OpType = iota
	OpLeaf
	OpSlice
	OpPermute
	OpReshape
	OpExpand
	OpConcat
	OpAdd
	OpSub
	OpMul
	OpAddScalar
	OpNeg
	OpSin
	OpCos
	OpSigmoid
	OpSoftmax
	OpMatMul
	OpBatchMatMul
	OpFunction
)

var opTypeNames = map[OpType]string{
	OpInvalid:     "Invalid",
	OpLeaf:        "Leaf",
	OpSlice:       "Slice",
	OpPermute:     "Permute",
	OpReshape:     "Reshape",
	OpExpand:      "Expand",
	OpConcat:      "Concat",
	OpAdd:         "Add",
	OpSub:         "Sub",
	OpMul:         "Mul",
	OpAddScalar:   "AddScalar",
	OpNeg:         "Neg",
	OpSin:         "Sin",
	OpCos:         "Cos",
	OpSigmoid:     "Sigmoid",
	OpSoftmax:     "Softmax",
	OpMatMul:      "MatMul",
	OpBatchMatMul: "BatchMatMul",
	OpFunction:    "Function",
}

// String implements fmt.Stringer.
func (op OpType) String() string {
	if name, found := opTypeNames[op]; found {
		return name
	}
	return fmt.Sprintf("OpType(%d)", int(op))
}

// Node is one finalized operation of a Graph: kind, ordered input ids,
// output Shape and ShapeTracker, and for Function nodes the host payload.
//
// Nodes are immutable once registered (the one exception is the leaf data
// set with Graph.SetData, which attaches values without changing the node's
// structure). They form a DAG through their input ids.
type Node struct {
	id      NodeId
	op      OpType
	inputs  []NodeId
	shape   shapes.Shape
	tracker shapes.ShapeTracker

	// name is diagnostic: the leaf name for OpLeaf, the function name for
	// OpFunction.
	name string

	fn   *Function // Only for OpFunction.
	data *Tensor   // Only for OpLeaf, set with Graph.SetData.

	// scalarOperand is the literal operand of OpAddScalar.
	scalarOperand float32
}

// Id is the unique id of this node within its Graph.
func (n *Node) Id() NodeId { return n.id }

// Op identifies the operation performed by the node.
func (n *Node) Op() OpType {
	if n == nil {
		return OpInvalid
	}
	return n.op
}

// Shape of the node's output.
func (n *Node) Shape() shapes.Shape {
	if n == nil {
		return shapes.Invalid()
	}
	return n.shape
}

// Rank returns the rank of the node's output shape.
func (n *Node) Rank() int { return n.shape.Rank() }

// Tracker returns the node's view representation: per-axis [start,end)
// ranges over its storage (or its input's storage, for view-only nodes).
func (n *Node) Tracker() shapes.ShapeTracker { return n.tracker }

// Inputs returns the ordered input node ids. The returned slice is a copy.
func (n *Node) Inputs() []NodeId { return append([]NodeId(nil), n.inputs...) }

// Name returns the diagnostic name: the leaf name for leaves, the function
// name for Function nodes, "" otherwise.
func (n *Node) Name() string { return n.name }

// Fn returns the Function payload, or nil if this is not a Function node.
func (n *Node) Fn() *Function { return n.fn }

// Data returns the host data attached to a leaf with Graph.SetData, or nil.
func (n *Node) Data() *Tensor { return n.data }

// ScalarOperand returns the literal operand of an AddScalar node.
func (n *Node) ScalarOperand() float32 { return n.scalarOperand }

// Handle returns the GraphTensor handle for this node.
func (n *Node) Handle() GraphTensor {
	if n == nil {
		return InvalidTensor()
	}
	return GraphTensor{id: n.id, shape: n.shape}
}

// String implements fmt.Stringer, e.g. `Slice[#2] -> (batch, -, 8)`.
func (n *Node) String() string {
	if n == nil {
		return "Node(nil)"
	}
	var b strings.Builder
	b.WriteString(n.op.String())
	if n.name != "" {
		fmt.Fprintf(&b, "(%q)", n.name)
	}
	if len(n.inputs) > 0 {
		refs := make([]string, len(n.inputs))
		for i, id := range n.inputs {
			refs[i] = fmt.Sprintf("#%d", id)
		}
		fmt.Fprintf(&b, "[%s]", strings.Join(refs, ", "))
	}
	fmt.Fprintf(&b, " -> %s", n.shape)
	return b.String()
}

// GraphTensor is an opaque handle to a node's output: the node id plus the
// inferred Shape. It carries no data and no reference to the Graph --
// operations take the owning Graph explicitly -- and must only be used with
// the Graph that created it, for as long as that Graph is alive.
type GraphTensor struct {
	id    NodeId
	shape shapes.Shape
}

// InvalidTensor returns the handle returned by failed operations.
func InvalidTensor() GraphTensor {
	return GraphTensor{id: InvalidNodeId}
}

// Id returns the node id this handle refers to.
func (t GraphTensor) Id() NodeId { return t.id }

// Shape returns the tensor's inferred shape.
func (t GraphTensor) Shape() shapes.Shape { return t.shape }

// Rank returns the rank of the tensor's shape.
func (t GraphTensor) Rank() int { return t.shape.Rank() }

// Ok reports whether the handle refers to a successfully created node.
func (t GraphTensor) Ok() bool { return t.id != InvalidNodeId && t.shape.Ok() }

// Tensor is a host-side data block for a leaf or a Function node result.
// The core never interprets it beyond its length; layout is the backend's
// concern.
type Tensor struct {
	Data []float32
}

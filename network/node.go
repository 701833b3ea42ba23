/*
 *	Copyright 2023 Jan Pfeifer
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

package network

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/gomlx/mlnets/models"
)

// OpFunc is the pure function applied by a Node. args holds the evaluated
// values of the node's ordinary arguments, in order. For machine-bound nodes
// m is the bound Machine, whose trained artifact (FitResult) and current model
// the function may consult; for stateless nodes m is nil.
type OpFunc func(m *Machine, args []any) (any, error)

// Operation names an OpFunc. The name identifies the operation in tree records
// and error messages.
type Operation struct {
	name string
	fn   OpFunc
}

// NewOperation creates a named operation from fn.
func NewOperation(name string, fn OpFunc) Operation {
	if fn == nil {
		exceptions.Panicf("NewOperation(%q): fn is nil", name)
	}
	return Operation{name: name, fn: fn}
}

// Name of the operation.
func (op Operation) Name() string { return op.name }

// IsValid reports whether the operation carries a function. The zero Operation
// is invalid.
func (op Operation) IsValid() bool { return op.fn != nil }

// String implements fmt.Stringer.
func (op Operation) String() string { return op.name }

// Node is an interior element of a learning network: an Operation over the
// values of its ordered ordinary arguments and, when machine is set, over the
// bound Machine's trained artifact. A Node with no bound Machine is a
// stateless combinator. Topology is immutable after composition; only cloning
// (StrippedCopy, Reconstruct) produces new topology.
type Node struct {
	id      int64
	op      Operation
	machine *Machine
	args    []GraphNode
}

// NewNode creates a stateless Node applying op to the given arguments. It
// panics if op is invalid or any argument is nil.
func NewNode(op Operation, args ...GraphNode) *Node {
	return NewBoundNode(op, nil, args...)
}

// NewBoundNode creates a Node applying op to the given arguments with machine
// bound, so op can query the machine's trained artifact. A nil machine gives a
// stateless node. It panics if op is invalid or any argument is nil.
func NewBoundNode(op Operation, machine *Machine, args ...GraphNode) *Node {
	if !op.IsValid() {
		exceptions.Panicf("NewNode(%q): invalid operation", op.name)
	}
	for i, arg := range args {
		if arg == nil {
			exceptions.Panicf("NewNode(%q): argument #%d is nil", op.name, i)
		}
	}
	return &Node{id: nextId.Add(1), op: op, machine: machine, args: args}
}

// Operation applied by the node.
func (n *Node) Operation() Operation { return n.op }

// Machine bound to the node, or nil for stateless nodes.
func (n *Node) Machine() *Machine { return n.machine }

// Args returns the ordered ordinary-argument elements.
func (n *Node) Args() []GraphNode { return n.args }

// Value implements GraphNode: it evaluates every ordinary argument
// recursively and applies the operation, passing it the bound machine if any.
// Results are not cached; shared sub-graphs are re-evaluated per reference.
//
// Evaluating a node whose bound machine is untrained fails: call Fit first.
func (n *Node) Value() (any, error) {
	if n.machine != nil && n.machine.state == 0 {
		return nil, errors.Errorf("%s: bound %s is untrained, call Fit first", n, n.machine.Name())
	}
	values := make([]any, len(n.args))
	for i, arg := range n.args {
		v, err := arg.Value()
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	v, err := n.op.fn(n.machine, values)
	if err != nil {
		return nil, errors.WithMessagef(err, "evaluating %s", n)
	}
	return v, nil
}

// Call evaluates the node with the network's first source temporarily rebound
// to x -- the entry point for applying a trained network to new input. The
// source's previous data is restored before returning.
func (n *Node) Call(x any) (any, error) {
	srcs := Sources(n)
	if len(srcs) == 0 {
		return nil, errors.Errorf("%s: network has no sources to bind input to", n)
	}
	saved := srcs[0].Get()
	srcs[0].Set(x)
	defer srcs[0].Set(saved)
	return n.Value()
}

// String implements fmt.Stringer. It prints the operation applied to its
// immediate arguments, without expanding the arguments recursively.
func (n *Node) String() string {
	parts := make([]string, 0, len(n.args)+1)
	if n.machine != nil {
		parts = append(parts, n.machine.Name())
	}
	for _, arg := range n.args {
		switch a := arg.(type) {
		case *Source:
			parts = append(parts, a.String())
		case *Node:
			parts = append(parts, a.op.Name()+"(…)")
		default:
			parts = append(parts, fmt.Sprintf("%T", arg))
		}
	}
	return fmt.Sprintf("Node#%d[%s(%s)]", n.id, n.op.Name(), strings.Join(parts, ", "))
}

// Predict creates the node that applies the supervised model bound by m to the
// value of x, using m's trained artifact.
func Predict(m *Machine, x GraphNode) *Node {
	op := NewOperation("predict", func(mach *Machine, args []any) (any, error) {
		supervised, ok := mach.Model().(models.Supervised)
		if !ok {
			return nil, errors.Errorf("predict: model %T is not supervised", mach.Model())
		}
		return supervised.Predict(mach.FitResult(), args[0])
	})
	return NewBoundNode(op, m, x)
}

// Transform creates the node that applies the transformer bound by m to the
// value of x, using m's trained artifact.
func Transform(m *Machine, x GraphNode) *Node {
	op := NewOperation("transform", func(mach *Machine, args []any) (any, error) {
		transformer, ok := mach.Model().(models.Transformer)
		if !ok {
			return nil, errors.Errorf("transform: model %T is not a transformer", mach.Model())
		}
		return transformer.Transform(mach.FitResult(), args[0])
	})
	return NewBoundNode(op, m, x)
}

// Replace is reserved for rewriting a network in place: substituting sources
// or models of an already-composed graph. It currently performs no rewriting
// and returns n unchanged.
//
// TODO: implement source and model substitution.
func Replace(n *Node, _ ...any) *Node { return n }

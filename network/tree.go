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
	"github.com/gomlx/exceptions"

	"github.com/gomlx/mlnets/models"
)

// Tree is the nested-record serialization of a network: an inspectable
// structure mirroring the graph, suited for structural analysis and for
// rebuilding an equivalent graph with Reconstruct.
//
// A record is one of two shapes:
//
//   - a source tag: Source is set and every other field is zero. The live
//     *Source object itself is carried -- sources hold live data and are never
//     silently duplicated by the codec;
//   - a node record: Op is set, Model is the bound machine's model or nil for
//     stateless nodes, Args holds one recursively expanded record per ordinary
//     argument and TrainArgs one per training argument (TrainArgs is only
//     non-nil when a machine is bound).
//
// Tree groups ordinary and training arguments into two ordered sequences;
// Flatten returns the same information as flat positional fields.
//
// Note expanding a DAG into a tree duplicates shared interior structure: a
// node reachable twice yields two records. Reconstruct therefore returns a
// structurally distinct graph whose machines are fresh and independent.
type Tree struct {
	Source *Source

	Op        Operation
	Model     models.Model
	Args      []*Tree
	TrainArgs []*Tree
}

// TreeOf serializes the network rooted at n into its tree record.
func TreeOf(n GraphNode) *Tree {
	switch e := n.(type) {
	case *Source:
		return &Tree{Source: e}
	case *Node:
		t := &Tree{Op: e.op}
		for _, arg := range e.args {
			t.Args = append(t.Args, TreeOf(arg))
		}
		if e.machine != nil {
			t.Model = e.machine.model
			for _, arg := range e.machine.args {
				t.TrainArgs = append(t.TrainArgs, TreeOf(arg))
			}
		}
		return t
	default:
		exceptions.Panicf("TreeOf: %T is not a network element", n)
		return nil
	}
}

// IsSource reports whether the record is a source tag.
func (t *Tree) IsSource() bool { return t.Source != nil }

// Flatten returns the record's fields as a flat positional sequence: the
// operation, the model if present, then each ordinary-argument record and each
// training-argument record, recursively flattened in order. A source tag
// flattens to the source itself.
func (t *Tree) Flatten() []any {
	if t.IsSource() {
		return []any{t.Source}
	}
	fields := []any{t.Op}
	if t.Model != nil {
		fields = append(fields, t.Model)
	}
	for _, arg := range t.Args {
		fields = append(fields, arg.Flatten()...)
	}
	for _, arg := range t.TrainArgs {
		fields = append(fields, arg.Flatten()...)
	}
	return fields
}

// Reconstruct is the inverse of TreeOf. A source tag yields the same *Source
// object (identity preserved). A record without a model builds a stateless
// node over the recursively reconstructed arguments. A record with a model
// builds a fresh, untrained Machine over the reconstructed training arguments
// and binds it to a node over the reconstructed ordinary arguments.
//
// The result is evaluation-equivalent to the serialized network -- same
// outputs for the same source data after training -- but is an independent
// graph: mutating or training one never affects the other.
//
// Reconstruct panics on a malformed record (nil, or neither source tag nor
// valid operation).
func Reconstruct(t *Tree) GraphNode {
	if t == nil {
		exceptions.Panicf("Reconstruct: nil tree record")
	}
	if t.IsSource() {
		return t.Source
	}
	if !t.Op.IsValid() {
		exceptions.Panicf("Reconstruct: record has neither a source tag nor a valid operation")
	}
	args := make([]GraphNode, len(t.Args))
	for i, arg := range t.Args {
		args[i] = Reconstruct(arg)
	}
	if t.Model == nil {
		return NewNode(t.Op, args...)
	}
	trainArgs := make([]GraphNode, len(t.TrainArgs))
	for i, arg := range t.TrainArgs {
		trainArgs[i] = Reconstruct(arg)
	}
	return NewBoundNode(t.Op, NewMachine(t.Model, trainArgs...), args...)
}

// Models enumerates every distinct model configuration reachable from n --
// including models reachable only through training arguments -- deduplicated
// by identity, in first-encountered (tree) order.
func Models(n GraphNode) []models.Model {
	var out []models.Model
	seen := make(map[models.Model]bool)
	visited := make(map[*Node]bool)
	walk(n, visited, func(node *Node) {
		m := node.machine
		if m == nil || seen[m.model] {
			return
		}
		seen[m.model] = true
		out = append(out, m.model)
	})
	return out
}

// Sources enumerates every distinct Source reachable from n, deduplicated by
// identity, in first-encountered (tree) order.
func Sources(n GraphNode) []*Source {
	var out []*Source
	seen := make(map[*Source]bool)
	visited := make(map[*Node]bool)
	if s, ok := n.(*Source); ok {
		return []*Source{s}
	}
	walkSources(n, visited, seen, &out)
	return out
}

// walk visits every node reachable from gn in tree order -- the node itself,
// then ordinary arguments, then training arguments -- deduplicating node
// visits by identity so shared sub-graphs are expanded once.
func walk(gn GraphNode, visited map[*Node]bool, fn func(*Node)) {
	node, ok := gn.(*Node)
	if !ok || visited[node] {
		return
	}
	visited[node] = true
	fn(node)
	for _, arg := range node.args {
		walk(arg, visited, fn)
	}
	if node.machine != nil {
		for _, arg := range node.machine.args {
			walk(arg, visited, fn)
		}
	}
}

func walkSources(gn GraphNode, visited map[*Node]bool, seen map[*Source]bool, out *[]*Source) {
	switch e := gn.(type) {
	case *Source:
		if !seen[e] {
			seen[e] = true
			*out = append(*out, e)
		}
	case *Node:
		if visited[e] {
			return
		}
		visited[e] = true
		for _, arg := range e.args {
			walkSources(arg, visited, seen, out)
		}
		if e.machine != nil {
			for _, arg := range e.machine.args {
				walkSources(arg, visited, seen, out)
			}
		}
	}
}

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
	"github.com/pkg/errors"

	"github.com/gomlx/mlnets/models"
)

// StrippedCopy deep-copies the network rooted at n with its data detached: it
// temporarily replaces the data of every reachable source with Absent, clones
// the reachable graph -- every node, machine, source and model configuration,
// preserving shared substructure -- and restores n's own sources before
// returning. The returned clone's sources hold Absent; n itself is unchanged.
//
// The blueprint contract is positional: a network promoted to a template is
// assumed to have exactly two sources, features first, then target (see
// FitMethod). A network with a different source arity is copied all the same,
// but rebinding it positionally will silently misassign data -- a documented
// limitation of the contract, not a checked error.
//
// Cloned machines keep their state counter and carry the original fit-result,
// cache and report references until retrained; FitMethod always resets and
// retrains its clones, which is what guarantees independent training state
// across calls.
func StrippedCopy(n *Node) *Node {
	if n == nil {
		exceptions.Panicf("StrippedCopy: nil node")
	}
	srcs := Sources(n)
	saved := make([]any, len(srcs))
	for i, s := range srcs {
		saved[i] = s.Get()
		s.Set(Absent)
	}
	defer func() {
		for i, s := range srcs {
			s.Set(saved[i])
		}
	}()
	c := &graphCopier{
		nodes:    make(map[*Node]*Node),
		sources:  make(map[*Source]*Source),
		machines: make(map[*Machine]*Machine),
		models:   make(map[models.Model]models.Model),
	}
	return c.copyNode(n)
}

// graphCopier memoizes per-object copies so the clone preserves the DAG's
// shared substructure: an element reachable via multiple paths is cloned once.
type graphCopier struct {
	nodes    map[*Node]*Node
	sources  map[*Source]*Source
	machines map[*Machine]*Machine
	models   map[models.Model]models.Model
}

func (c *graphCopier) copyElement(gn GraphNode) GraphNode {
	switch e := gn.(type) {
	case *Source:
		return c.copySource(e)
	case *Node:
		return c.copyNode(e)
	default:
		exceptions.Panicf("StrippedCopy: %T is not a network element", gn)
		return nil
	}
}

func (c *graphCopier) copySource(s *Source) *Source {
	if clone, found := c.sources[s]; found {
		return clone
	}
	clone := NewSource(s.data)
	c.sources[s] = clone
	return clone
}

func (c *graphCopier) copyModel(m models.Model) models.Model {
	if clone, found := c.models[m]; found {
		return clone
	}
	clone := m.Clone()
	c.models[m] = clone
	return clone
}

func (c *graphCopier) copyMachine(m *Machine) *Machine {
	if clone, found := c.machines[m]; found {
		return clone
	}
	args := make([]GraphNode, len(m.args))
	for i, arg := range m.args {
		args[i] = c.copyElement(arg)
	}
	clone := NewMachine(c.copyModel(m.model), args...)
	clone.state = m.state
	clone.fitResult = m.fitResult
	clone.cache = m.cache
	clone.report = m.report
	c.machines[m] = clone
	return clone
}

func (c *graphCopier) copyNode(n *Node) *Node {
	if clone, found := c.nodes[n]; found {
		return clone
	}
	args := make([]GraphNode, len(n.args))
	for i, arg := range n.args {
		args[i] = c.copyElement(arg)
	}
	var machine *Machine
	if n.machine != nil {
		machine = c.copyMachine(n.machine)
	}
	clone := NewBoundNode(n.op, machine, args...)
	c.nodes[n] = clone
	return clone
}

// FitFn is the train entry point of a blueprint network: it fits the
// blueprint's template on concrete (features, target) data and returns the
// trained clone as the fit-result. Cache and report are empty placeholders at
// this layer -- the clone's internal machines carry the real ones.
type FitFn func(verbosity int, x, y any) (fitResult *Node, cache, report any, err error)

// FitMethod closes the blueprint network n over a reusable train entry point.
// Every invocation of the returned FitFn:
//
//  1. produces a fresh StrippedCopy of n;
//  2. rebinds the copy's two sources -- features first, then target -- to the
//     supplied data;
//  3. resets the copy's tape;
//  4. runs Fit on the copy;
//  5. returns the trained copy.
//
// Each call allocates its own clone: no state is shared or aliased across
// calls, so concurrent calls training on different datasets are safe.
func FitMethod(n *Node) FitFn {
	if n == nil {
		exceptions.Panicf("FitMethod: nil blueprint")
	}
	return func(verbosity int, x, y any) (*Node, any, any, error) {
		clone := StrippedCopy(n)
		srcs := Sources(clone)
		if len(srcs) < 2 {
			return nil, nil, nil, errors.Errorf("FitMethod: blueprint exposes %d source(s), the (features, target) contract needs 2", len(srcs))
		}
		srcs[0].Set(x)
		srcs[1].Set(y)
		Reset(clone)
		if err := Fit(clone, verbosity); err != nil {
			return nil, nil, nil, err
		}
		return clone, nil, nil, nil
	}
}

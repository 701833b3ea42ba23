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
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Machines returns the tape of n: every Machine transitively reachable from
// n, deduplicated by identity and ordered so that a machine needed to train
// another appears before it. The tape is derived from the graph on every call,
// never stored.
func Machines(n GraphNode) []*Machine {
	t := &tapeBuilder{
		visited: make(map[*Node]bool),
		seen:    make(map[*Machine]bool),
	}
	t.visit(n)
	return t.tape
}

type tapeBuilder struct {
	visited map[*Node]bool
	seen    map[*Machine]bool
	tape    []*Machine
}

func (t *tapeBuilder) visit(gn GraphNode) {
	node, ok := gn.(*Node)
	if !ok || t.visited[node] {
		return
	}
	t.visited[node] = true
	for _, arg := range node.args {
		t.visit(arg)
	}
	m := node.machine
	if m == nil || t.seen[m] {
		return
	}
	// Machines upstream of m's training data must train first.
	for _, arg := range m.args {
		t.visit(arg)
	}
	t.seen[m] = true
	t.tape = append(t.tape, m)
}

// Fit trains every untrained machine in n's tape, in dependency order.
// Machines shared across branches train at most once, and machines already
// trained (state > 0) are left untouched: use Reset to force full retraining.
//
// verbosity controls diagnostic volume only: values >= 1 log one line per
// machine trained, and verbosity-1 is passed down to each model's fit.
func Fit(n GraphNode, verbosity int) error {
	for _, m := range Machines(n) {
		if m.state > 0 {
			continue
		}
		if verbosity >= 1 {
			klog.Infof("training %s (%T)", m.Name(), m.Model())
		}
		if err := m.Train(verbosity); err != nil {
			return errors.WithMessagef(err, "Fit(%s)", n)
		}
	}
	return nil
}

// Reset marks every machine in n's tape as untrained, so the next Fit
// retrains all of them. It does not retrain and does not discard previous
// fit-results, caches or reports; those remain until overwritten.
func Reset(n GraphNode) {
	for _, m := range Machines(n) {
		m.reset()
	}
}

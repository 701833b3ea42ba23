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

// Package network implements learning networks: lazily-evaluated, shareable
// computation DAGs whose leaves (Source) hold externally supplied data and
// whose interior elements (Node) combine the values of their arguments,
// optionally through a trained model bound by a Machine.
//
// The main elements in the package are:
//
//   - Source: a leaf holding mutable external data. Identity-significant: the
//     same Source may feed many nodes and machines, and rebinding its data is
//     how a network is pointed at new inputs.
//
//   - Machine: binds a model configuration (see package models) to the nodes
//     that produce its training data, and owns the training state: a state
//     counter, the fit-result, cache and report of the last training run.
//
//   - Node: an interior DAG element: an Operation applied to the values of its
//     ordinary arguments -- and, when a Machine is bound, to that Machine's
//     trained artifact.
//
// On top of the graph the package provides Fit (dependency-ordered training of
// every machine reachable from a node), Reset, the enumerators Models and
// Sources, the tree codec TreeOf/Reconstruct, and the blueprint machinery
// StrippedCopy/FitMethod that turns a composed network into a reusable,
// retrainable template (see package composite for promoting a template to a
// first-class model type).
//
// Composition-time structural errors (nil operations, nil arguments, malformed
// tree records) panic immediately with an exception; training and evaluation
// failures are returned as errors, with the wrapped model's own failure as the
// cause.
//
// The package is synchronous and performs no locking: concurrently training or
// mutating the same Machine or Source must be serialized by the caller. Clones
// produced by StrippedCopy/FitMethod share no mutable state with each other,
// so concurrent use of independent clones is safe.
package network

import (
	"sync/atomic"
)

// GraphNode is an element of a learning network: either a *Source leaf or a
// *Node. Values are produced lazily by Value, re-evaluating the reachable
// sub-graph on every call.
type GraphNode interface {
	// Value evaluates the element eagerly and returns its current value.
	Value() (any, error)
}

// absent is the type of the Absent marker.
type absent struct{}

// String implements fmt.Stringer.
func (absent) String() string { return "<absent>" }

// Absent is the marker installed in a Source's data slot to signal that no
// data is bound -- used by StrippedCopy to detach a template network from the
// data it was composed with.
var Absent any = absent{}

// nextId generates unique ids for sources, nodes and machines. Ids give the
// elements a stable identity for printing and debugging; deduplication uses
// pointer identity directly.
var nextId atomic.Int64

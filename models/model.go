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

// Package models defines the model-configuration contract consumed by the
// learning-network engine (package network), plus a few small concrete models.
//
// A Model here is a *configuration*: a plain struct of hyperparameters. It is
// never mutated by training. Training instead returns an opaque fit-result that
// prediction/transformation methods consume. This split is what lets the
// network engine clone and replay configurations freely: a Machine owns the
// mutable training state, the Model stays a value-like description.
//
// Conventions for the concrete models in this package: feature data is a
// *mat.Dense with one row per example, targets are a []float64. The engine
// itself is agnostic; it moves `any` values between nodes.
package models

// PredictionKind tags the prediction style of a supervised model: point
// estimates or distributions. The composite-type factory dispatches on it.
type PredictionKind int

const (
	// KindDeterministic models predict point estimates.
	KindDeterministic PredictionKind = iota

	// KindProbabilistic models predict distributions.
	KindProbabilistic
)

// String implements fmt.Stringer.
func (k PredictionKind) String() string {
	switch k {
	case KindDeterministic:
		return "deterministic"
	case KindProbabilistic:
		return "probabilistic"
	default:
		return "invalid"
	}
}

// Model is a trainable model configuration.
//
// Implementations must use pointer receivers: the engine deduplicates models by
// reference identity, and value-type implementations would break that.
type Model interface {
	// Fit trains the model on the given arguments -- their number and types are
	// model-specific (typically features for transformers, features and target
	// for supervised models). It returns an opaque fit-result consumed by
	// Predict/Transform, an optional cache with state reusable by warm
	// restarts, and an optional report with training diagnostics.
	//
	// verbosity controls diagnostic volume only; values < 1 mean silent.
	// Fit must not mutate the configuration itself.
	Fit(verbosity int, args ...any) (fitResult, cache, report any, err error)

	// Clone returns an independent deep copy of the configuration. Training
	// state is not part of a configuration, so there is nothing else to copy.
	Clone() Model
}

// Supervised is a Model trained on (features, target) that can predict targets
// for new features.
type Supervised interface {
	Model

	// Predict computes predictions for x given the fit-result of a previous
	// Fit. The prediction style is advertised by Kind.
	Predict(fitResult any, x any) (any, error)

	// Kind returns the prediction style marker.
	Kind() PredictionKind
}

// Transformer is a Model trained on features whose fitted state maps feature
// data to transformed feature data.
type Transformer interface {
	Model

	// Transform maps x given the fit-result of a previous Fit.
	Transform(fitResult any, x any) (any, error)
}

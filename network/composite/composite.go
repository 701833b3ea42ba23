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

// Package composite promotes a frozen learning network (a blueprint) into a
// first-class, configurable model type, usable like any primitive model.
//
// Go has no way of minting struct types at run time, so a "generated type" is
// a registered Definition -- a template descriptor carrying the blueprint, its
// prediction-kind marker, the requested field names and the default component
// models -- and instances of it are *Model values: each holds its own
// independent copies of the component models and trains by replaying the
// blueprint on new data through the blueprint's train entry point.
package composite

import (
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"k8s.io/klog/v2"

	"github.com/gomlx/mlnets/models"
	"github.com/gomlx/mlnets/network"
)

// Definition is a generated composite model type: the registered descriptor
// from which instances are constructed.
type Definition struct {
	name       string
	kind       models.PredictionKind
	fieldNames []string
	blueprint  *network.Node
	fit        network.FitFn
	defaults   []models.Model
}

var (
	muRegistry sync.Mutex
	registry   = make(map[string]*Definition)
)

// FromNetwork generates, registers and instantiates a composite model type
// from the blueprint rooted at n. fieldNames gives the generated type one
// field per component model of the blueprint, in the order Models(n) returns
// them; the first of those models must be a supervised predictor, and its
// prediction kind (point estimate vs. distributional) becomes the generated
// type's kind.
//
// On success the new Definition is registered under name and a
// default-constructed instance is returned: its fields hold independent deep
// copies of the blueprint's component models.
//
// If the first model is not supervised no type is generated: a warning is
// logged and FromNetwork returns nil. Structural errors -- nil blueprint, a
// blueprint without models, a field-count mismatch, a name already taken --
// are fatal and panic immediately.
func FromNetwork(name string, fieldNames []string, n *network.Node) *Model {
	if n == nil {
		exceptions.Panicf("composite.FromNetwork(%q): nil blueprint", name)
	}
	blueprintModels := network.Models(n)
	if len(blueprintModels) == 0 {
		exceptions.Panicf("composite.FromNetwork(%q): blueprint has no models", name)
	}
	first, ok := blueprintModels[0].(models.Supervised)
	if !ok {
		klog.Warningf("composite.FromNetwork(%q): first model %T is not a supervised predictor, no type generated", name, blueprintModels[0])
		return nil
	}
	if len(fieldNames) != len(blueprintModels) {
		exceptions.Panicf("composite.FromNetwork(%q): %d field names for %d component models", name, len(fieldNames), len(blueprintModels))
	}

	def := &Definition{
		name:       name,
		kind:       first.Kind(),
		fieldNames: slices.Clone(fieldNames),
		blueprint:  n,
		fit:        network.FitMethod(n),
		// Deep copies of the blueprint's models, in first-encountered order,
		// detached from its data.
		defaults: network.Models(network.StrippedCopy(n)),
	}

	muRegistry.Lock()
	defer muRegistry.Unlock()
	if _, taken := registry[name]; taken {
		exceptions.Panicf("composite.FromNetwork(%q): name already registered", name)
	}
	registry[name] = def
	return def.New()
}

// Lookup returns the registered Definition with the given name, or nil.
func Lookup(name string) *Definition {
	muRegistry.Lock()
	defer muRegistry.Unlock()
	return registry[name]
}

// Names lists the registered composite type names, sorted.
func Names() []string {
	muRegistry.Lock()
	defer muRegistry.Unlock()
	names := maps.Keys(registry)
	slices.Sort(names)
	return names
}

// Name of the generated type.
func (d *Definition) Name() string { return d.name }

// Kind returns the prediction-kind marker selected from the blueprint's first
// model.
func (d *Definition) Kind() models.PredictionKind { return d.kind }

// FieldNames returns the generated type's field names, in order.
func (d *Definition) FieldNames() []string { return slices.Clone(d.fieldNames) }

// Blueprint returns the blueprint network the type was generated from.
func (d *Definition) Blueprint() *network.Node { return d.blueprint }

// New is the generated type's default constructor: it returns an instance
// whose fields are fresh deep copies of the blueprint's component models.
func (d *Definition) New() *Model {
	fields := make([]models.Model, len(d.defaults))
	for i, m := range d.defaults {
		fields[i] = m.Clone()
	}
	return &Model{def: d, fields: fields}
}

// Model is an instance of a generated composite type. It implements
// models.Supervised: training replays the blueprint on the supplied data and
// prediction evaluates the trained network on new input.
type Model struct {
	def    *Definition
	fields []models.Model
}

// Definition returns the generated type this instance belongs to.
func (m *Model) Definition() *Definition { return m.def }

// Fields returns the instance's component models, in field-name order.
func (m *Model) Fields() []models.Model { return slices.Clone(m.fields) }

// Field returns the component model stored under the given field name, or nil.
func (m *Model) Field(name string) models.Model {
	for i, fieldName := range m.def.fieldNames {
		if fieldName == name {
			return m.fields[i]
		}
	}
	return nil
}

// Clone implements models.Model.
func (m *Model) Clone() models.Model {
	fields := make([]models.Model, len(m.fields))
	for i, field := range m.fields {
		fields[i] = field.Clone()
	}
	return &Model{def: m.def, fields: fields}
}

// Fit implements models.Model: it replays the blueprint on (features, target),
// returning the trained network clone as fit-result. Every call trains a fresh
// clone; nothing is shared across calls.
func (m *Model) Fit(verbosity int, args ...any) (fitResult, cache, report any, err error) {
	if len(args) != 2 {
		return nil, nil, nil, errors.Errorf("%s.Fit: got %d training arguments, want (features, target)", m.def.name, len(args))
	}
	fitted, cache, report, err := m.def.fit(verbosity, args[0], args[1])
	if err != nil {
		return nil, nil, nil, errors.WithMessagef(err, "%s.Fit", m.def.name)
	}
	return fitted, cache, report, nil
}

// Predict implements models.Supervised by evaluating the trained network on x.
func (m *Model) Predict(fitResult any, x any) (any, error) {
	fitted, ok := fitResult.(*network.Node)
	if !ok {
		return nil, errors.Errorf("%s.Predict: fit-result is %T, want *network.Node", m.def.name, fitResult)
	}
	return fitted.Call(x)
}

// Kind implements models.Supervised.
func (m *Model) Kind() models.PredictionKind { return m.def.kind }

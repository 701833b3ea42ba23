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

	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/mlnets/models"
)

// Machine binds a model configuration to the nodes producing its training
// data, and owns all mutable training state: a state counter (0 means
// untrained, incremented on every training run), and the fit-result, cache and
// report returned by the last run.
//
// Machines are created at composition time and mutated only by Train and
// Reset. None of that mutation is synchronized.
type Machine struct {
	id    int64
	label string

	model models.Model
	args  []GraphNode

	state     int
	fitResult any
	cache     any
	report    any
}

// NewMachine binds model to the given training-argument nodes. Training data
// may itself be the output of upstream transforms: Train evaluates the full
// chain. It panics if model or any argument is nil.
func NewMachine(model models.Model, trainingArgs ...GraphNode) *Machine {
	if model == nil {
		exceptions.Panicf("NewMachine: model is nil")
	}
	for i, arg := range trainingArgs {
		if arg == nil {
			exceptions.Panicf("NewMachine: training argument #%d is nil", i)
		}
	}
	return &Machine{
		id:    nextId.Add(1),
		label: fmt.Sprintf("machine_%s", uuid.NewString()[:8]),
		model: model,
		args:  trainingArgs,
	}
}

// Model returns the bound model configuration.
func (m *Machine) Model() models.Model { return m.model }

// SetModel replaces the bound model configuration. It does not touch training
// state: call Reset to force retraining with the new model.
func (m *Machine) SetModel(model models.Model) {
	if model == nil {
		exceptions.Panicf("Machine.SetModel: model is nil")
	}
	m.model = model
}

// TrainingArgs returns the ordered training-argument nodes.
func (m *Machine) TrainingArgs() []GraphNode { return m.args }

// Name returns the machine's unique label, used in logs and error messages.
func (m *Machine) Name() string { return m.label }

// State returns the training-run counter: 0 means untrained.
func (m *Machine) State() int { return m.state }

// FitResult returns the trained artifact of the last training run, or nil.
func (m *Machine) FitResult() any { return m.fitResult }

// Cache returns the cache of the last training run, or nil.
func (m *Machine) Cache() any { return m.cache }

// Report returns the report of the last training run, or nil.
func (m *Machine) Report() any { return m.report }

// Train evaluates every training-argument node and fits the bound model on the
// resulting values, storing fit-result, cache and report and incrementing the
// state counter. It always retrains; skipping already-trained machines is
// Fit's job. The model receives verbosity-1.
//
// A failure from the model's own fitting step is returned as the cause,
// unchanged.
func (m *Machine) Train(verbosity int) error {
	values := make([]any, len(m.args))
	for i, arg := range m.args {
		v, err := arg.Value()
		if err != nil {
			return errors.WithMessagef(err, "%s: evaluating training argument #%d", m.Name(), i)
		}
		values[i] = v
	}
	if verbosity >= 2 {
		klog.Infof("%s: fitting %T on %d training arguments", m.Name(), m.model, len(values))
	}
	fitResult, cache, report, err := m.model.Fit(verbosity-1, values...)
	if err != nil {
		return errors.WithMessagef(err, "%s: fitting %T", m.Name(), m.model)
	}
	m.state++
	m.fitResult = fitResult
	m.cache = cache
	m.report = report
	return nil
}

// reset marks the machine as untrained. Previous fit-result, cache and report
// are kept until overwritten by the next training run.
func (m *Machine) reset() { m.state = 0 }

// String implements fmt.Stringer.
func (m *Machine) String() string {
	return fmt.Sprintf("Machine#%d[%T]", m.id, m.model)
}

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

package models

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MeanRegressor predicts the training-target mean for every example. Useful as
// a baseline and in tests.
type MeanRegressor struct{}

// NewMeanRegressor returns a MeanRegressor configuration.
func NewMeanRegressor() *MeanRegressor { return &MeanRegressor{} }

// meanFit is the fitted state of MeanRegressor.
type meanFit struct {
	mean float64
}

// Clone implements Model.
func (m *MeanRegressor) Clone() Model {
	clone := *m
	return &clone
}

// Fit computes the target mean. args must be (x *mat.Dense, y []float64).
func (m *MeanRegressor) Fit(verbosity int, args ...any) (fitResult, cache, report any, err error) {
	_, y, err := supervisedArgs("MeanRegressor", args)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(y) == 0 {
		return nil, nil, nil, errors.Errorf("MeanRegressor.Fit: empty target")
	}
	return &meanFit{mean: stat.Mean(y, nil)}, nil, nil, nil
}

// Predict returns a []float64 with the fitted mean repeated per row of x.
func (m *MeanRegressor) Predict(fitResult any, x any) (any, error) {
	fit, ok := fitResult.(*meanFit)
	if !ok {
		return nil, errors.Errorf("MeanRegressor.Predict: fit-result is %T, want *meanFit", fitResult)
	}
	numRows, err := NumRows(x)
	if err != nil {
		return nil, errors.WithMessage(err, "MeanRegressor.Predict")
	}
	predictions := make([]float64, numRows)
	for i := range predictions {
		predictions[i] = fit.mean
	}
	return predictions, nil
}

// Kind implements Supervised.
func (m *MeanRegressor) Kind() PredictionKind { return KindDeterministic }

// NormalPredictor fits a normal distribution to the training target and
// predicts that distribution for every example: the simplest probabilistic
// supervised model.
type NormalPredictor struct{}

// NewNormalPredictor returns a NormalPredictor configuration.
func NewNormalPredictor() *NormalPredictor { return &NormalPredictor{} }

// normalFit is the fitted state of NormalPredictor.
type normalFit struct {
	mu, sigma float64
}

// Clone implements Model.
func (n *NormalPredictor) Clone() Model {
	clone := *n
	return &clone
}

// Fit estimates mean and standard deviation of the target.
// args must be (x *mat.Dense, y []float64).
func (n *NormalPredictor) Fit(verbosity int, args ...any) (fitResult, cache, report any, err error) {
	_, y, err := supervisedArgs("NormalPredictor", args)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(y) < 2 {
		return nil, nil, nil, errors.Errorf("NormalPredictor.Fit: need at least 2 examples, got %d", len(y))
	}
	mu, sigma := stat.MeanStdDev(y, nil)
	if sigma == 0 {
		sigma = 1e-8
	}
	return &normalFit{mu: mu, sigma: sigma}, nil, nil, nil
}

// Predict returns a []distuv.Normal with one distribution per row of x.
func (n *NormalPredictor) Predict(fitResult any, x any) (any, error) {
	fit, ok := fitResult.(*normalFit)
	if !ok {
		return nil, errors.Errorf("NormalPredictor.Predict: fit-result is %T, want *normalFit", fitResult)
	}
	numRows, err := NumRows(x)
	if err != nil {
		return nil, errors.WithMessage(err, "NormalPredictor.Predict")
	}
	predictions := make([]distuv.Normal, numRows)
	for i := range predictions {
		predictions[i] = distuv.Normal{Mu: fit.mu, Sigma: fit.sigma}
	}
	return predictions, nil
}

// Kind implements Supervised.
func (n *NormalPredictor) Kind() PredictionKind { return KindProbabilistic }

// NumRows returns the number of examples in a feature value. It understands
// the data conventions of this package: *mat.Dense and []float64.
func NumRows(x any) (int, error) {
	switch v := x.(type) {
	case *mat.Dense:
		rows, _ := v.Dims()
		return rows, nil
	case []float64:
		return len(v), nil
	default:
		return 0, errors.Errorf("cannot count rows of %T", x)
	}
}

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
	"k8s.io/klog/v2"
)

// Standardizer rescales every feature column to zero mean and unit variance.
// Constant columns are centered but not scaled.
type Standardizer struct{}

// NewStandardizer returns a Standardizer configuration.
func NewStandardizer() *Standardizer { return &Standardizer{} }

// StandardizerFit holds per-column statistics learned by Standardizer.Fit.
type StandardizerFit struct {
	Mean []float64
	Std  []float64
}

// Clone implements Model.
func (s *Standardizer) Clone() Model {
	clone := *s
	return &clone
}

// Fit learns per-column mean and standard deviation. args must be a single
// *mat.Dense of features.
func (s *Standardizer) Fit(verbosity int, args ...any) (fitResult, cache, report any, err error) {
	x, err := transformerArgs("Standardizer", args)
	if err != nil {
		return nil, nil, nil, err
	}
	numRows, numCols := x.Dims()
	if numRows == 0 {
		return nil, nil, nil, errors.Errorf("Standardizer.Fit: empty training data")
	}
	fit := &StandardizerFit{
		Mean: make([]float64, numCols),
		Std:  make([]float64, numCols),
	}
	col := make([]float64, numRows)
	for j := 0; j < numCols; j++ {
		mat.Col(col, j, x)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || numRows < 2 {
			std = 1
		}
		fit.Mean[j] = mean
		fit.Std[j] = std
	}
	if verbosity >= 1 {
		klog.Infof("Standardizer: fitted %d columns on %d examples", numCols, numRows)
	}
	return fit, nil, nil, nil
}

// Transform returns a new *mat.Dense with standardized columns.
func (s *Standardizer) Transform(fitResult any, x any) (any, error) {
	fit, ok := fitResult.(*StandardizerFit)
	if !ok {
		return nil, errors.Errorf("Standardizer.Transform: fit-result is %T, want *StandardizerFit", fitResult)
	}
	xm, ok := x.(*mat.Dense)
	if !ok {
		return nil, errors.Errorf("Standardizer.Transform: features are %T, want *mat.Dense", x)
	}
	numRows, numCols := xm.Dims()
	if numCols != len(fit.Mean) {
		return nil, errors.Errorf("Standardizer.Transform: features have %d columns, model was fitted on %d", numCols, len(fit.Mean))
	}
	out := mat.NewDense(numRows, numCols, nil)
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			out.Set(i, j, (xm.At(i, j)-fit.Mean[j])/fit.Std[j])
		}
	}
	return out, nil
}

// transformerArgs unpacks the single features training argument shared by the
// transformers in this package.
func transformerArgs(name string, args []any) (*mat.Dense, error) {
	if len(args) != 1 {
		return nil, errors.Errorf("%s.Fit: got %d training arguments, want (features)", name, len(args))
	}
	x, ok := args[0].(*mat.Dense)
	if !ok {
		return nil, errors.Errorf("%s.Fit: features are %T, want *mat.Dense", name, args[0])
	}
	return x, nil
}

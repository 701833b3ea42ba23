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
	"k8s.io/klog/v2"
)

// Ridge is an L2-regularized linear regressor with an (unpenalized) intercept.
type Ridge struct {
	// Alpha is the L2 penalty applied to the coefficients. Zero gives ordinary
	// least squares.
	Alpha float64
}

// NewRidge returns a Ridge configuration with the given L2 penalty.
func NewRidge(alpha float64) *Ridge {
	return &Ridge{Alpha: alpha}
}

// RidgeFit holds the fitted parameters of a Ridge model.
type RidgeFit struct {
	Coef      []float64
	Intercept float64
}

// Clone implements Model.
func (r *Ridge) Clone() Model {
	clone := *r
	return &clone
}

// Fit solves the penalized normal equations on (features, target).
// args must be (x *mat.Dense, y []float64).
func (r *Ridge) Fit(verbosity int, args ...any) (fitResult, cache, report any, err error) {
	x, y, err := supervisedArgs("Ridge", args)
	if err != nil {
		return nil, nil, nil, err
	}
	numRows, numCols := x.Dims()
	if numRows != len(y) {
		return nil, nil, nil, errors.Errorf("Ridge.Fit: features have %d rows, target has %d", numRows, len(y))
	}
	if numRows == 0 {
		return nil, nil, nil, errors.Errorf("Ridge.Fit: empty training data")
	}

	// Design matrix with a leading all-ones column for the intercept.
	design := mat.NewDense(numRows, numCols+1, nil)
	for i := 0; i < numRows; i++ {
		design.Set(i, 0, 1)
		for j := 0; j < numCols; j++ {
			design.Set(i, j+1, x.At(i, j))
		}
	}

	// gram = designᵀ·design + α·I, with the intercept unpenalized.
	var gram mat.Dense
	gram.Mul(design.T(), design)
	for j := 1; j <= numCols; j++ {
		gram.Set(j, j, gram.At(j, j)+r.Alpha)
	}
	var rhs mat.VecDense
	rhs.MulVec(design.T(), mat.NewVecDense(numRows, y))

	var beta mat.VecDense
	if err = beta.SolveVec(&gram, &rhs); err != nil {
		return nil, nil, nil, errors.WithMessagef(err, "Ridge.Fit: singular system (%d rows, %d columns)", numRows, numCols)
	}

	fit := &RidgeFit{
		Intercept: beta.AtVec(0),
		Coef:      make([]float64, numCols),
	}
	for j := 0; j < numCols; j++ {
		fit.Coef[j] = beta.AtVec(j + 1)
	}
	if verbosity >= 1 {
		klog.Infof("Ridge(alpha=%g): fitted %d coefficients on %d examples", r.Alpha, numCols, numRows)
	}
	return fit, nil, map[string]any{"rows": numRows, "columns": numCols}, nil
}

// Predict returns a []float64 with one prediction per row of x.
func (r *Ridge) Predict(fitResult any, x any) (any, error) {
	fit, ok := fitResult.(*RidgeFit)
	if !ok {
		return nil, errors.Errorf("Ridge.Predict: fit-result is %T, want *RidgeFit", fitResult)
	}
	xm, ok := x.(*mat.Dense)
	if !ok {
		return nil, errors.Errorf("Ridge.Predict: features are %T, want *mat.Dense", x)
	}
	numRows, numCols := xm.Dims()
	if numCols != len(fit.Coef) {
		return nil, errors.Errorf("Ridge.Predict: features have %d columns, model was fitted on %d", numCols, len(fit.Coef))
	}
	predictions := make([]float64, numRows)
	for i := 0; i < numRows; i++ {
		v := fit.Intercept
		for j := 0; j < numCols; j++ {
			v += fit.Coef[j] * xm.At(i, j)
		}
		predictions[i] = v
	}
	return predictions, nil
}

// Kind implements Supervised.
func (r *Ridge) Kind() PredictionKind { return KindDeterministic }

// supervisedArgs unpacks the (features, target) training arguments shared by
// the supervised models in this package.
func supervisedArgs(name string, args []any) (*mat.Dense, []float64, error) {
	if len(args) != 2 {
		return nil, nil, errors.Errorf("%s.Fit: got %d training arguments, want (features, target)", name, len(args))
	}
	x, ok := args[0].(*mat.Dense)
	if !ok {
		return nil, nil, errors.Errorf("%s.Fit: features are %T, want *mat.Dense", name, args[0])
	}
	y, ok := args[1].([]float64)
	if !ok {
		return nil, nil, errors.Errorf("%s.Fit: target is %T, want []float64", name, args[1])
	}
	return x, y, nil
}

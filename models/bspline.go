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
	"github.com/gomlx/bsplines"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"
)

// BSplineExpander is a transformer that expands every feature column into
// NumBasis B-spline basis-function values, a non-linear feature map for linear
// downstream models. The basis is a regular B-spline over the column's
// training range, with constant extrapolation outside it.
type BSplineExpander struct {
	// Degree of the B-spline basis. Defaults to 3 when zero.
	Degree int

	// NumBasis is the number of basis functions (control points) per input
	// column. Defaults to 8 when zero.
	NumBasis int
}

// NewBSplineExpander returns a BSplineExpander with the given degree and
// basis size.
func NewBSplineExpander(degree, numBasis int) *BSplineExpander {
	return &BSplineExpander{Degree: degree, NumBasis: numBasis}
}

// BSplineExpanderFit holds the per-column training ranges and the shared basis
// splines, one per basis function (control points set to the corresponding
// indicator vector).
type BSplineExpanderFit struct {
	Min, Max []float64
	basis    []*bsplines.BSpline
}

// Clone implements Model.
func (b *BSplineExpander) Clone() Model {
	clone := *b
	return &clone
}

func (b *BSplineExpander) degree() int {
	if b.Degree <= 0 {
		return 3
	}
	return b.Degree
}

func (b *BSplineExpander) numBasis() int {
	if b.NumBasis <= 0 {
		return 8
	}
	return b.NumBasis
}

// Fit learns the per-column value ranges and builds the basis splines.
// args must be a single *mat.Dense of features.
func (b *BSplineExpander) Fit(verbosity int, args ...any) (fitResult, cache, report any, err error) {
	x, err := transformerArgs("BSplineExpander", args)
	if err != nil {
		return nil, nil, nil, err
	}
	numRows, numCols := x.Dims()
	if numRows == 0 {
		return nil, nil, nil, errors.Errorf("BSplineExpander.Fit: empty training data")
	}
	numBasis := b.numBasis()
	if numBasis <= b.degree() {
		return nil, nil, nil, errors.Errorf("BSplineExpander.Fit: NumBasis=%d must be larger than Degree=%d", numBasis, b.degree())
	}

	fit := &BSplineExpanderFit{
		Min:   make([]float64, numCols),
		Max:   make([]float64, numCols),
		basis: make([]*bsplines.BSpline, numBasis),
	}
	for j := 0; j < numCols; j++ {
		lo, hi := x.At(0, j), x.At(0, j)
		for i := 1; i < numRows; i++ {
			v := x.At(i, j)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi == lo {
			hi = lo + 1
		}
		fit.Min[j], fit.Max[j] = lo, hi
	}
	for k := 0; k < numBasis; k++ {
		controlPoints := make([]float64, numBasis)
		controlPoints[k] = 1
		fit.basis[k] = bsplines.NewRegular(b.degree(), numBasis).
			WithControlPoints(controlPoints).
			WithExtrapolation(bsplines.ExtrapolateConstant)
	}
	if verbosity >= 1 {
		klog.Infof("BSplineExpander(degree=%d, basis=%d): fitted ranges for %d columns", b.degree(), numBasis, numCols)
	}
	return fit, nil, nil, nil
}

// Transform returns a *mat.Dense with NumBasis columns per input column.
func (b *BSplineExpander) Transform(fitResult any, x any) (any, error) {
	fit, ok := fitResult.(*BSplineExpanderFit)
	if !ok {
		return nil, errors.Errorf("BSplineExpander.Transform: fit-result is %T, want *BSplineExpanderFit", fitResult)
	}
	xm, ok := x.(*mat.Dense)
	if !ok {
		return nil, errors.Errorf("BSplineExpander.Transform: features are %T, want *mat.Dense", x)
	}
	numRows, numCols := xm.Dims()
	if numCols != len(fit.Min) {
		return nil, errors.Errorf("BSplineExpander.Transform: features have %d columns, model was fitted on %d", numCols, len(fit.Min))
	}
	numBasis := len(fit.basis)
	out := mat.NewDense(numRows, numCols*numBasis, nil)
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			// Rescale to the [0, 1] domain of the regular basis.
			u := (xm.At(i, j) - fit.Min[j]) / (fit.Max[j] - fit.Min[j])
			for k := 0; k < numBasis; k++ {
				out.Set(i, j*numBasis+k, fit.basis[k].Evaluate(u))
			}
		}
	}
	return out, nil
}

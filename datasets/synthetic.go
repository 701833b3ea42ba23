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

// Package datasets provides small synthetic datasets as gota dataframes, and
// helpers to split a dataframe into the (features, target) values that the
// models in this repo consume.
package datasets

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// TargetCol is the name of the target column in generated dataframes.
const TargetCol = "target"

// Regression generates a dataframe with numFeatures float columns named
// "x1".."xN" plus a TargetCol column. The target is a fixed linear combination
// of the features plus a sine non-linearity on the first feature and gaussian
// noise with the given standard deviation. Generation is deterministic per
// seed.
func Regression(numExamples, numFeatures int, noise float64, seed int64) dataframe.DataFrame {
	rng := rand.New(rand.NewSource(seed))
	columns := make([][]float64, numFeatures)
	for j := range columns {
		columns[j] = make([]float64, numExamples)
		for i := range columns[j] {
			columns[j][i] = rng.NormFloat64()
		}
	}
	target := make([]float64, numExamples)
	for i := range target {
		v := 0.0
		for j := range columns {
			v += float64(j+1) * columns[j][i]
		}
		v += math.Sin(2 * columns[0][i])
		target[i] = v + noise*rng.NormFloat64()
	}

	allSeries := make([]series.Series, 0, numFeatures+1)
	for j, col := range columns {
		allSeries = append(allSeries, series.New(col, series.Float, fmt.Sprintf("x%d", j+1)))
	}
	allSeries = append(allSeries, series.New(target, series.Float, TargetCol))
	return dataframe.New(allSeries...)
}

// SplitXY splits df into a feature matrix (every column except target, in
// dataframe order) and the target column as a []float64.
func SplitXY(df dataframe.DataFrame, target string) (*mat.Dense, []float64, error) {
	names := df.Names()
	featureNames := make([]string, 0, len(names))
	found := false
	for _, name := range names {
		if name == target {
			found = true
			continue
		}
		featureNames = append(featureNames, name)
	}
	if !found {
		return nil, nil, errors.Errorf("SplitXY: dataframe has no column %q (columns: %v)", target, names)
	}
	if len(featureNames) == 0 {
		return nil, nil, errors.Errorf("SplitXY: dataframe has no feature columns besides %q", target)
	}

	numRows := df.Nrow()
	x := mat.NewDense(numRows, len(featureNames), nil)
	for j, name := range featureNames {
		col := df.Col(name).Float()
		for i, v := range col {
			x.Set(i, j, v)
		}
	}
	y := df.Col(target).Float()
	return x, y, nil
}

package composite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gomlx/mlnets/models"
	"github.com/gomlx/mlnets/network"
)

// ridgeBlueprint composes a template network with placeholder sources:
// standardize the features, ridge-regress the target on them.
func ridgeBlueprint() (blueprint *network.Node, ridge *models.Ridge, standardizer *models.Standardizer) {
	xs, ys := network.NewSource(network.Absent), network.NewSource(network.Absent)
	standardizer = models.NewStandardizer()
	w := network.Transform(network.NewMachine(standardizer, xs), xs)
	ridge = models.NewRidge(0.1)
	blueprint = network.Predict(network.NewMachine(ridge, w, ys), w)
	return
}

func trainingData() (*mat.Dense, []float64) {
	x := mat.NewDense(6, 2, []float64{
		0, 0,
		1, 0,
		0, 1,
		1, 1,
		2, 1,
		1, 2,
	})
	y := make([]float64, 6)
	for i := range y {
		y[i] = 1 - x.At(i, 0) + 2*x.At(i, 1)
	}
	return x, y
}

func TestFromNetwork(t *testing.T) {
	blueprint, ridge, standardizer := ridgeBlueprint()
	instance := FromNetwork("TestFromNetwork_Pipeline", []string{"regressor", "scaler"}, blueprint)
	require.NotNil(t, instance)

	def := instance.Definition()
	assert.Equal(t, "TestFromNetwork_Pipeline", def.Name())
	assert.Equal(t, models.KindDeterministic, def.Kind())
	assert.Equal(t, []string{"regressor", "scaler"}, def.FieldNames())
	assert.Same(t, def, Lookup("TestFromNetwork_Pipeline"))
	assert.Contains(t, Names(), "TestFromNetwork_Pipeline")

	// Default-constructed fields are configuration-equal to, but not identical
	// objects as, the blueprint's models.
	gotRidge := instance.Field("regressor")
	require.NotNil(t, gotRidge)
	assert.NotSame(t, models.Model(ridge), gotRidge)
	assert.Equal(t, ridge.Alpha, gotRidge.(*models.Ridge).Alpha)
	gotScaler := instance.Field("scaler")
	require.NotNil(t, gotScaler)
	assert.NotSame(t, models.Model(standardizer), gotScaler)
	assert.Nil(t, instance.Field("no_such_field"))
}

func TestGeneratedModelTrainsAndPredicts(t *testing.T) {
	blueprint, _, _ := ridgeBlueprint()
	instance := FromNetwork("TestGeneratedModel_Pipeline", []string{"regressor", "scaler"}, blueprint)
	require.NotNil(t, instance)

	x, y := trainingData()
	fitResult, cache, report, err := instance.Fit(0, x, y)
	require.NoError(t, err)
	assert.Nil(t, cache)
	assert.Nil(t, report)

	predictions, err := instance.Predict(fitResult, x)
	require.NoError(t, err)
	got := predictions.([]float64)
	require.Len(t, got, len(y))
	for i, p := range got {
		assert.InDeltaf(t, y[i], p, 0.5, "row %d", i)
	}

	// The blueprint stays untrained: every call trains a private clone.
	for _, m := range network.Machines(blueprint) {
		assert.Equal(t, 0, m.State())
	}
}

func TestGeneratedModelIndependentFits(t *testing.T) {
	blueprint, _, _ := ridgeBlueprint()
	instance := FromNetwork("TestIndependentFits_Pipeline", []string{"regressor", "scaler"}, blueprint)
	require.NotNil(t, instance)

	x, y := trainingData()
	yShifted := make([]float64, len(y))
	for i, v := range y {
		yShifted[i] = v + 100
	}

	fit1, _, _, err := instance.Fit(0, x, y)
	require.NoError(t, err)
	fit2, _, _, err := instance.Fit(0, x, yShifted)
	require.NoError(t, err)

	p1, err := instance.Predict(fit1, x)
	require.NoError(t, err)
	p2, err := instance.Predict(fit2, x)
	require.NoError(t, err)
	assert.InDelta(t, p1.([]float64)[0]+100, p2.([]float64)[0], 0.5)
}

func TestFromNetworkProbabilistic(t *testing.T) {
	xs, ys := network.NewSource(network.Absent), network.NewSource(network.Absent)
	normal := models.NewNormalPredictor()
	blueprint := network.Predict(network.NewMachine(normal, xs, ys), xs)

	instance := FromNetwork("TestProbabilistic_Pipeline", []string{"distribution"}, blueprint)
	require.NotNil(t, instance)
	assert.Equal(t, models.KindProbabilistic, instance.Kind())

	x := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := []float64{5, 6, 7}
	fitResult, _, _, err := instance.Fit(0, x, y)
	require.NoError(t, err)
	predictions, err := instance.Predict(fitResult, x)
	require.NoError(t, err)
	dists := predictions.([]distuv.Normal)
	require.Len(t, dists, 3)
	assert.InDelta(t, 6, dists[0].Mu, 1e-8)
}

func TestFromNetworkNotSupervised(t *testing.T) {
	// First (and only) model is a transformer: no type is generated.
	xs := network.NewSource(network.Absent)
	w := network.Transform(network.NewMachine(models.NewStandardizer(), xs), xs)

	instance := FromNetwork("TestNotSupervised_Pipeline", []string{"scaler"}, w)
	assert.Nil(t, instance)
	assert.Nil(t, Lookup("TestNotSupervised_Pipeline"))
}

func TestFromNetworkStructuralErrors(t *testing.T) {
	blueprint, _, _ := ridgeBlueprint()
	require.Panics(t, func() { FromNetwork("TestStructural_NilBlueprint", nil, nil) })
	require.Panics(t, func() {
		FromNetwork("TestStructural_FieldMismatch", []string{"only_one"}, blueprint)
	})
	// No models at all in the network.
	op := network.NewOperation("id", func(_ *network.Machine, args []any) (any, error) {
		return args[0], nil
	})
	modelFree := network.NewNode(op, network.NewSource(network.Absent))
	require.Panics(t, func() {
		FromNetwork("TestStructural_NoModels", nil, modelFree)
	})

	// Duplicate registration.
	FromNetwork("TestStructural_Duplicate", []string{"regressor", "scaler"}, blueprint)
	require.Panics(t, func() {
		FromNetwork("TestStructural_Duplicate", []string{"regressor", "scaler"}, blueprint)
	})
}

func TestInstanceCloneIsIndependent(t *testing.T) {
	blueprint, _, _ := ridgeBlueprint()
	a := FromNetwork("TestInstanceClone_Pipeline", []string{"regressor", "scaler"}, blueprint)
	require.NotNil(t, a)
	b := a.Clone().(*Model)

	require.NotSame(t, a, b)
	assert.Same(t, a.Definition(), b.Definition())
	aRidge := a.Field("regressor").(*models.Ridge)
	bRidge := b.Field("regressor").(*models.Ridge)
	require.NotSame(t, aRidge, bRidge)
	bRidge.Alpha = 99
	assert.Equal(t, 0.1, aRidge.Alpha)
}

package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/gomlx/mlnets/models"
)

// testData returns a small noiseless linear problem: y = 3 + x1 + 2*x2.
func testData() (*mat.Dense, []float64) {
	x := mat.NewDense(8, 2, []float64{
		0, 0,
		1, 0,
		0, 1,
		1, 1,
		2, 1,
		1, 2,
		3, 1,
		2, 3,
	})
	y := make([]float64, 8)
	for i := range y {
		y[i] = 3 + x.At(i, 0) + 2*x.At(i, 1)
	}
	return x, y
}

// ridgePipeline composes the canonical two-machine network:
//
//	W    = transform(machine(Standardizer, X), X)
//	yhat = predict(machine(Ridge, W, y), W)
func ridgePipeline(xs, ys *Source) (yhat *Node, standMach, ridgeMach *Machine) {
	standMach = NewMachine(models.NewStandardizer(), xs)
	w := Transform(standMach, xs)
	ridgeMach = NewMachine(models.NewRidge(0), w, ys)
	yhat = Predict(ridgeMach, w)
	return
}

func TestFitAndEvaluate(t *testing.T) {
	xdata, ydata := testData()
	xs, ys := NewSource(xdata), NewSource(ydata)
	yhat, standMach, ridgeMach := ridgePipeline(xs, ys)

	require.NoError(t, Fit(yhat, 0))
	assert.Equal(t, 1, standMach.State())
	assert.Equal(t, 1, ridgeMach.State())
	assert.NotNil(t, ridgeMach.FitResult())

	v, err := yhat.Value()
	require.NoError(t, err)
	predictions := v.([]float64)
	require.Len(t, predictions, len(ydata))
	for i, p := range predictions {
		assert.InDeltaf(t, ydata[i], p, 1e-6, "prediction for row %d", i)
	}
}

func TestFitSkipsTrainedMachines(t *testing.T) {
	xdata, ydata := testData()
	yhat, standMach, ridgeMach := ridgePipeline(NewSource(xdata), NewSource(ydata))

	require.NoError(t, Fit(yhat, 0))
	firstFit := ridgeMach.FitResult()

	// Second Fit leaves trained machines untouched.
	require.NoError(t, Fit(yhat, 0))
	assert.Equal(t, 1, standMach.State())
	assert.Equal(t, 1, ridgeMach.State())
	assert.Same(t, firstFit, ridgeMach.FitResult())
}

func TestResetForcesRetraining(t *testing.T) {
	xdata, ydata := testData()
	yhat, standMach, ridgeMach := ridgePipeline(NewSource(xdata), NewSource(ydata))

	require.NoError(t, Fit(yhat, 0))
	firstFit := ridgeMach.FitResult()

	Reset(yhat)
	assert.Equal(t, 0, standMach.State())
	assert.Equal(t, 0, ridgeMach.State())
	// Reset does not discard previous results.
	assert.Same(t, firstFit, ridgeMach.FitResult())

	require.NoError(t, Fit(yhat, 0))
	assert.Equal(t, 1, standMach.State())
	assert.Equal(t, 1, ridgeMach.State())
	assert.NotSame(t, firstFit, ridgeMach.FitResult())
}

func TestTapeOrderAndDedup(t *testing.T) {
	xdata, ydata := testData()
	yhat, standMach, ridgeMach := ridgePipeline(NewSource(xdata), NewSource(ydata))

	tape := Machines(yhat)
	require.Len(t, tape, 2)
	// The standardizer produces the ridge's training data: it must come first.
	assert.Same(t, standMach, tape[0])
	assert.Same(t, ridgeMach, tape[1])
}

func TestSharedMachineTrainsOnce(t *testing.T) {
	xdata, ydata := testData()
	xs, ys := NewSource(xdata), NewSource(ydata)
	standMach := NewMachine(models.NewStandardizer(), xs)
	// The same machine reached via two branches.
	w1 := Transform(standMach, xs)
	w2 := Transform(standMach, xs)
	ridgeMach := NewMachine(models.NewRidge(0), w1, ys)
	yhat := Predict(ridgeMach, w2)

	tape := Machines(yhat)
	require.Len(t, tape, 2)
	require.NoError(t, Fit(yhat, 0))
	assert.Equal(t, 1, standMach.State())
}

func TestEnumerators(t *testing.T) {
	xdata, ydata := testData()
	xs, ys := NewSource(xdata), NewSource(ydata)
	yhat, standMach, ridgeMach := ridgePipeline(xs, ys)

	// First-encountered order is tree order: the root's own model comes first,
	// models reachable only through training arguments still show up.
	ms := Models(yhat)
	require.Len(t, ms, 2)
	assert.Same(t, ridgeMach.Model(), ms[0])
	assert.Same(t, standMach.Model(), ms[1])

	srcs := Sources(yhat)
	require.Len(t, srcs, 2)
	assert.Same(t, xs, srcs[0])
	assert.Same(t, ys, srcs[1])
}

func TestSourceRebinding(t *testing.T) {
	s := NewSource(42)
	v, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	s.Set(Absent)
	assert.True(t, s.IsAbsent())
	_, err = s.Value()
	require.Error(t, err)

	s.Set("hello")
	assert.False(t, s.IsAbsent())
	v, err = s.Value()
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestValueOnUntrainedMachineFails(t *testing.T) {
	xdata, ydata := testData()
	yhat, _, _ := ridgePipeline(NewSource(xdata), NewSource(ydata))
	_, err := yhat.Value()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "untrained")
}

func TestCallRebindsFirstSource(t *testing.T) {
	xdata, ydata := testData()
	xs, ys := NewSource(xdata), NewSource(ydata)
	yhat, _, _ := ridgePipeline(xs, ys)
	require.NoError(t, Fit(yhat, 0))

	xnew := mat.NewDense(2, 2, []float64{1, 1, 2, 2})
	v, err := yhat.Call(xnew)
	require.NoError(t, err)
	predictions := v.([]float64)
	require.Len(t, predictions, 2)
	assert.InDelta(t, 3+1+2*1, predictions[0], 1e-6)
	assert.InDelta(t, 3+2+2*2, predictions[1], 1e-6)

	// The feature source's data is restored after the call.
	assert.Same(t, xdata, xs.Get())
}

func TestStatelessCombinatorNode(t *testing.T) {
	a, b := NewSource(2.0), NewSource(3.0)
	add := NewOperation("add", func(_ *Machine, args []any) (any, error) {
		return args[0].(float64) + args[1].(float64), nil
	})
	sum := NewNode(add, a, b)
	require.Nil(t, sum.Machine())

	v, err := sum.Value()
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)

	assert.Empty(t, Machines(sum))
	assert.Empty(t, Models(sum))
	assert.Len(t, Sources(sum), 2)
}

func TestCompositionErrorsPanic(t *testing.T) {
	require.Panics(t, func() { NewOperation("bad", nil) })
	require.Panics(t, func() { NewNode(Operation{}) })
	require.Panics(t, func() { NewMachine(nil) })
	require.Panics(t, func() { NewMachine(models.NewRidge(0), nil) })
	op := NewOperation("id", func(_ *Machine, args []any) (any, error) { return args[0], nil })
	require.Panics(t, func() { NewNode(op, nil) })
}

func TestReplaceIsInert(t *testing.T) {
	xdata, ydata := testData()
	yhat, _, _ := ridgePipeline(NewSource(xdata), NewSource(ydata))
	assert.Same(t, yhat, Replace(yhat, "anything"))
}

func TestTrainingErrorPropagates(t *testing.T) {
	// Fitting a supervised model with a single training argument fails inside
	// the model; Fit must surface that failure.
	xs := NewSource(mat.NewDense(2, 1, []float64{1, 2}))
	mach := NewMachine(models.NewRidge(0), xs)
	yhat := Predict(mach, xs)
	err := Fit(yhat, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "training arguments")
}

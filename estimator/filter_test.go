package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticNoise() NoiseParams {
	return NoiseParams{InputVar: 1.0, BiasVar: 0.01, AccTVar: 0.5}
}

func TestVariantDims(t *testing.T) {
	assert.Equal(t, 3, DecoupledStatic.Dim())
	assert.Equal(t, 4, DecoupledMoving.Dim())
	assert.Equal(t, 9, CoupledStatic.Dim())
	assert.Equal(t, 12, CoupledMoving.Dim())
	assert.Equal(t, 15, CoupledMovingAug.Dim())
}

func TestPredictPropagatesPositionByVelocity(t *testing.T) {
	f := New(DecoupledStatic, staticNoise(), 10, 0)
	require.NoError(t, f.Init(InitState{
		Pos: []float64{0}, Vel: []float64{2}, Bias: []float64{0},
		PosVar: []float64{1}, VelVar: []float64{1}, BiasVar: []float64{0.1},
	}))

	require.NoError(t, f.Predict(1.0, []float64{0}))

	assert.InDelta(t, 2.0, f.Position()[0], 1e-9)
	assert.Greater(t, f.PositionVar()[0], 1.0, "predicted position variance must grow")
}

func TestPredictRejectsBadInputs(t *testing.T) {
	f := New(DecoupledStatic, staticNoise(), 10, 0)
	require.NoError(t, f.Init(InitState{
		Pos: []float64{0}, Vel: []float64{0}, Bias: []float64{0},
		PosVar: []float64{1}, VelVar: []float64{1}, BiasVar: []float64{0.1},
	}))
	assert.Error(t, f.Predict(0, []float64{0}))
	assert.Error(t, f.Predict(-1, []float64{0}))
	assert.Error(t, f.Predict(1, []float64{0, 0}))
}

func TestUpdatePullsStateTowardMeasurement(t *testing.T) {
	f := New(DecoupledStatic, staticNoise(), 10, 0)
	require.NoError(t, f.Init(InitState{
		Pos: []float64{0}, Vel: []float64{0}, Bias: []float64{0},
		PosVar: []float64{100}, VelVar: []float64{1}, BiasVar: []float64{0.1},
	}))
	h, ok := f.BuildH(KindRelativePosition, 0)
	require.True(t, ok)

	res, err := f.Update(5.0, 0.1, h)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.InDelta(t, 5.0, f.Position()[0], 0.2, "confident measurement should pull the estimate close to z")
}

func TestUpdateGatesOutliers(t *testing.T) {
	f := New(DecoupledStatic, staticNoise(), 10, 0)
	require.NoError(t, f.Init(InitState{
		Pos: []float64{0}, Vel: []float64{0}, Bias: []float64{0},
		PosVar: []float64{0.01}, VelVar: []float64{0.01}, BiasVar: []float64{0.01},
	}))
	h, ok := f.BuildH(KindRelativePosition, 0)
	require.True(t, ok)

	res, err := f.Update(50.0, 0.01, h)
	require.NoError(t, err)
	assert.False(t, res.Accepted, "a measurement 50m from a tightly converged estimate must be gated")
	assert.InDelta(t, 0.0, f.Position()[0], 1e-9, "state must not move on a rejected update")
}

func TestUpdateHonorsConfiguredGateThreshold(t *testing.T) {
	f := New(DecoupledStatic, staticNoise(), 10, 100.0)
	require.NoError(t, f.Init(InitState{
		Pos: []float64{0}, Vel: []float64{0}, Bias: []float64{0},
		PosVar: []float64{0.01}, VelVar: []float64{0.01}, BiasVar: []float64{0.01},
	}))
	h, ok := f.BuildH(KindRelativePosition, 0)
	require.True(t, ok)

	// NIS = 0.5^2 / (0.01 + 0.01) = 12.5: above the 3.84 default, below 100.
	res, err := f.Update(0.5, 0.01, h)
	require.NoError(t, err)
	assert.Equal(t, 100.0, f.GateThreshold())
	assert.Equal(t, 100.0, res.GateThreshold)
	assert.True(t, res.Accepted, "a looser configured gate must accept what the default gate would reject")
}

func TestNewFallsBackToDefaultGateWhenUnset(t *testing.T) {
	f := New(DecoupledStatic, staticNoise(), 10, 0)
	assert.Equal(t, chiSquareGate95, f.GateThreshold())
}

func TestBuildHRejectsUnsupportedKinds(t *testing.T) {
	f := New(DecoupledStatic, staticNoise(), 10, 0)
	require.NoError(t, f.Init(InitState{
		Pos: []float64{0}, Vel: []float64{0}, Bias: []float64{0},
		PosVar: []float64{1}, VelVar: []float64{1}, BiasVar: []float64{0.1},
	}))
	_, ok := f.BuildH(KindVehicleVelocity, 0)
	assert.False(t, ok, "a non-augmented filter has no vehicle-velocity state")
}

func TestCoupledMovingAugDynamics(t *testing.T) {
	f := New(CoupledMovingAug, NoiseParams{InputVar: 0.5, BiasVar: 0.01, AccTVar: 0.1}, 10, 0)
	require.NoError(t, f.Init(InitState{
		Pos:    []float64{0, 0, 0},
		Vel:    []float64{1, 0, 0}, // vU
		Bias:   []float64{0, 0, 0},
		AccT:   []float64{0, 0, 0},
		VelT:   []float64{0, 0, 0}, // vT
		PosVar: []float64{1, 1, 1}, VelVar: []float64{1, 1, 1}, BiasVar: []float64{0.1, 0.1, 0.1},
		AccTVar: []float64{0.1, 0.1, 0.1}, VelTVar: []float64{1, 1, 1},
	}))

	require.NoError(t, f.Predict(1.0, []float64{0, 0, 0}))

	// vU=1, vT=0 => relative velocity is vT-vU=-1, so p_x should decrease.
	assert.Less(t, f.Position()[0], 0.0)
	assert.InDelta(t, 1.0, f.Velocity()[0], 1e-9, "vU integrates only the control input, not aT")
}

func TestBankDecoupledAssemblesPerAxis(t *testing.T) {
	b := NewBank(DecoupledStatic, staticNoise(), 10, 0)
	require.NoError(t, b.Init(InitState{
		Pos: []float64{1, 2, 3}, Vel: []float64{0, 0, 0}, Bias: []float64{0, 0, 0},
		PosVar: []float64{1, 1, 1}, VelVar: []float64{1, 1, 1}, BiasVar: []float64{0.1, 0.1, 0.1},
	}))
	p := b.Position()
	assert.Equal(t, [3]float64{1, 2, 3}, p)
}

func TestBankCoupledSharesOneFilter(t *testing.T) {
	b := NewBank(CoupledStatic, staticNoise(), 10, 0)
	require.NoError(t, b.Init(InitState{
		Pos: []float64{1, 2, 3}, Vel: []float64{0, 0, 0}, Bias: []float64{0, 0, 0},
		PosVar: []float64{1, 1, 1}, VelVar: []float64{1, 1, 1}, BiasVar: []float64{0.1, 0.1, 0.1},
	}))
	fx, _ := b.Filter(0)
	fz, _ := b.Filter(2)
	assert.Same(t, fx, fz, "coupled variants share a single filter instance across axes")
}

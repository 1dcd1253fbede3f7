package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ltest-go/estimator"
)

func TestDefaultMatchesPX4Defaults(t *testing.T) {
	c := Default()
	assert.Equal(t, AidRelGPSVel|AidVision|AidIRLock|AidMissionLanding, c.AidMask)
	assert.Equal(t, 46, c.AidMask)
	assert.Equal(t, 3.0, c.BTOUT)
	assert.Equal(t, 1.0, c.BiasLim)
	assert.Equal(t, estimator.CoupledMoving, c.Variant())
}

func TestVariantSelection(t *testing.T) {
	cases := []struct {
		mode  Mode
		model Model
		want  estimator.Variant
	}{
		{ModeStatic, ModelDecoupled, estimator.DecoupledStatic},
		{ModeMoving, ModelDecoupled, estimator.DecoupledMoving},
		{ModeStatic, ModelCoupled, estimator.CoupledStatic},
		{ModeMoving, ModelCoupled, estimator.CoupledMoving},
		{ModeMovingAug, ModelCoupled, estimator.CoupledMovingAug},
	}
	for _, tc := range cases {
		c := Default()
		c.Mode, c.Model = tc.mode, tc.model
		assert.Equal(t, tc.want, c.Variant())
	}
}

func TestValidateForcesCoupledOnMovingAug(t *testing.T) {
	c := Default()
	c.Mode = ModeMovingAug
	c.Model = ModelDecoupled
	require.NoError(t, c.Validate())
	assert.Equal(t, ModelCoupled, c.Model)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	partial := map[string]any{"btout": 5.0, "bias_lim": 2.0}
	data, err := json.Marshal(partial)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5.0, c.BTOUT)
	assert.Equal(t, 2.0, c.BiasLim)
	assert.Equal(t, Default().GPSPNoise, c.GPSPNoise, "unspecified fields keep their default")
}

func TestDefaultGateChiSquareMatchesFivePercentGate(t *testing.T) {
	assert.Equal(t, 3.84, Default().GateChiSquare)
}

func TestLoadOverridesGateChiSquare(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"gate_chi_square": 9.21}`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9.21, c.GateChiSquare)
}

func TestValidateRejectsNonPositiveGateChiSquare(t *testing.T) {
	c := Default()
	c.GateChiSquare = 0
	assert.Error(t, c.Validate())
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"btout": 0}`), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

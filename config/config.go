// Package config loads the flat parameter table that drives the
// estimator, grounded on the teacher's fusion/config_parser.go
// parse/validate shape but JSON-backed rather than XML, since this
// parameter set is a flat key/value table rather than a floor-plan
// project map.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"ltest-go/estimator"
)

// Mode selects the target-motion model.
type Mode int

const (
	ModeStatic Mode = iota
	ModeMoving
	ModeMovingAug
)

// Model selects axis coupling.
type Model int

const (
	ModelDecoupled Model = iota
	ModelCoupled
)

// AidMask bits, grounded on landing_target_estimator_params.c's
// LTEST_AID_MASK (default 46 = relGPSvel|vision|IRLOCK|missionLanding).
const (
	AidTargetGPS       = 1 << 0
	AidRelGPSVel       = 1 << 1
	AidVision          = 1 << 2
	AidIRLock          = 1 << 3
	AidUWB             = 1 << 4
	AidMissionLanding  = 1 << 5
)

// Config is the full LTEST_*/LTE_* parameter table.
type Config struct {
	AidMask int  `json:"aid_mask"`
	Mode    Mode `json:"mode"`
	Model   Model `json:"model"`

	BTOUT float64 `json:"btout"` // filter timeout, seconds

	AccDUnc  float64 `json:"acc_d_unc"`
	AccTUnc  float64 `json:"acc_t_unc"`
	BiasUnc  float64 `json:"bias_unc"`
	BiasLim  float64 `json:"bias_lim"`

	MeasUnc    float64 `json:"meas_unc"`
	GPSPNoise  float64 `json:"gps_p_noise"`
	GPSVNoise  float64 `json:"gps_v_noise"`
	EVANoise   float64 `json:"eva_noise"`
	EVPNoise   float64 `json:"evp_noise"`
	EVNoiseMD  int     `json:"ev_noise_md"`

	PosUncIn float64 `json:"pos_unc_in"`
	VelUncIn float64 `json:"vel_unc_in"`
	BiaUncIn float64 `json:"bia_unc_in"`
	AccUncIn float64 `json:"acc_unc_in"`

	ScaleX float64 `json:"scale_x"`
	ScaleY float64 `json:"scale_y"`

	SensRot  int     `json:"sens_rot"`
	SensPosX float64 `json:"sens_pos_x"`
	SensPosY float64 `json:"sens_pos_y"`
	SensPosZ float64 `json:"sens_pos_z"`

	MeasurementUpdatedTimeout float64 `json:"measurement_updated_timeout"`
	MeasurementValidTimeout   float64 `json:"measurement_valid_timeout"`
	InitDelay                 float64 `json:"init_delay"`

	// GateChiSquare is the one-degree-of-freedom chi-square threshold
	// every scalar fusion step gates its NIS against. 3.84 is the 5%
	// false-alarm value (P(chi2_1 > 3.84) = 0.05).
	GateChiSquare float64 `json:"gate_chi_square"`
}

// Default returns the parameter table with the same defaults as
// landing_target_estimator_params.c.
func Default() Config {
	return Config{
		AidMask: AidRelGPSVel | AidVision | AidIRLock | AidMissionLanding,
		Mode:    ModeMoving,
		Model:   ModelCoupled,

		BTOUT: 3.0,

		AccDUnc: 1.0,
		AccTUnc: 1.0,
		BiasUnc: 0.05,
		BiasLim: 1.0,

		MeasUnc:   0.05,
		GPSPNoise: 0.5,
		GPSVNoise: 0.3,
		EVANoise:  0.05,
		EVPNoise:  0.1,
		EVNoiseMD: 0,

		PosUncIn: 0.5,
		VelUncIn: 0.5,
		BiaUncIn: 1.0,
		AccUncIn: 0.1,

		ScaleX: 1.0,
		ScaleY: 1.0,

		SensRot:  2,
		SensPosX: 0,
		SensPosY: 0,
		SensPosZ: 0,

		MeasurementUpdatedTimeout: 0.1,
		MeasurementValidTimeout:   1.0,
		InitDelay:                 1.0,

		GateChiSquare: 3.84,
	}
}

// Load reads a JSON parameter file, applying it on top of Default so
// a partial file only overrides what it names.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate applies the one configuration-conflict rule named in the
// error handling design: MovingAug without Coupled is corrected in
// place to Coupled rather than rejected, mirroring PX4's own
// auto-correction of that combination.
func (c *Config) Validate() error {
	if c.Mode == ModeMovingAug && c.Model != ModelCoupled {
		c.Model = ModelCoupled
	}
	if c.BTOUT <= 0 {
		return fmt.Errorf("btout must be positive, got %v", c.BTOUT)
	}
	if c.BiasLim < 0 {
		return fmt.Errorf("bias_lim must be non-negative, got %v", c.BiasLim)
	}
	if c.GateChiSquare <= 0 {
		return fmt.Errorf("gate_chi_square must be positive, got %v", c.GateChiSquare)
	}
	return nil
}

// Variant maps Mode+Model onto the concrete estimator.Variant to
// construct, per spec.md §4.3's "MovingAug forces coupled" rule.
func (c Config) Variant() estimator.Variant {
	switch {
	case c.Mode == ModeStatic && c.Model == ModelDecoupled:
		return estimator.DecoupledStatic
	case c.Mode == ModeMoving && c.Model == ModelDecoupled:
		return estimator.DecoupledMoving
	case c.Mode == ModeStatic && c.Model == ModelCoupled:
		return estimator.CoupledStatic
	case c.Mode == ModeMoving && c.Model == ModelCoupled:
		return estimator.CoupledMoving
	default:
		return estimator.CoupledMovingAug
	}
}

// AidEnabled reports whether the given AID_MASK bit is set.
func (c Config) AidEnabled(bit int) bool { return c.AidMask&bit != 0 }

// Noise builds the estimator's process-noise parameters from this
// configuration.
func (c Config) Noise() estimator.NoiseParams {
	return estimator.NoiseParams{
		InputVar: c.AccDUnc,
		BiasVar:  c.BiasUnc,
		AccTVar:  c.AccTUnc,
	}
}

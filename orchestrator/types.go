// Package orchestrator implements the fusion orchestrator and the
// life-cycle/bias layer: it drives the filter bank's predict/update
// cycle from a periodic tick, assembles observations through the
// observation package, and never lets a fault escape the tick as a
// Go error — only as a Status on the returned Result, per the
// error-handling design's "all errors are local" rule.
package orchestrator

import (
	"time"

	"ltest-go/observation"
)

// Status enumerates every outcome a single Tick can report.
type Status int

const (
	StatusOK Status = iota
	StatusSensorGapTransient
	StatusReset
	StatusGateRejected
	StatusNumericFault
	StatusConfigConflict
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSensorGapTransient:
		return "sensor_gap_transient"
	case StatusReset:
		return "reset"
	case StatusGateRejected:
		return "gate_rejected"
	case StatusNumericFault:
		return "numeric_fault"
	case StatusConfigConflict:
		return "config_conflict"
	default:
		return "unknown"
	}
}

// Pose is the published landing_target_pose message: the fused
// relative position and velocity, their marginal variances, and the
// validity flags a landing controller would gate on.
type Pose struct {
	Timestamp time.Time

	PositionNED [3]float64
	VelocityNED [3]float64
	PositionVar [3]float64
	VelocityVar [3]float64

	IsStatic     bool
	RelPosValid  bool
	RelVelValid  bool
	AbsPosValid  bool
}

// Innovation is one per-sensor-axis innovation record, published
// alongside the pose for diagnostic monitoring.
type Innovation struct {
	Sensor        observation.SensorType
	Axis          int
	Timestamp     time.Time
	Innovation    float64
	InnovationVar float64
	TestRatio     float64
	GateThreshold float64
	Fused         bool
}

// Diagnostics accumulates the counters the telemetry layer surfaces,
// grounded on the teacher's EKF.ret status code and
// FusionPipeline.divergeCount field.
type Diagnostics struct {
	Faults              int
	Resets              int
	GateRejections      int
	LastPredictDuration time.Duration
	LastUpdateDuration  time.Duration
}

// Result is everything one Tick call produces. It is always returned,
// never wrapped in an error: Status carries the outcome.
type Result struct {
	Status      Status
	Pose        Pose
	Innovations []Innovation
	Diagnostics Diagnostics
}

// Package observation implements the observation assembler: it turns
// heterogeneous, sensor-frame raw reports into canonical NED-frame
// scalar samples the filter bank can fuse, without ever looking at
// filter state.
package observation

import "time"

// Quaternion is a body-to-NED attitude quaternion in (w, x, y, z) order.
type Quaternion struct {
	W, X, Y, Z float64
}

// VehicleAcceleration is the vehicle's own NED acceleration, used as
// the filter bank's control input.
type VehicleAcceleration struct {
	Timestamp time.Time
	NED       [3]float64
}

// VehicleAttitude carries the current body-to-NED rotation.
type VehicleAttitude struct {
	Timestamp time.Time
	Q         Quaternion
}

// VehicleLocalPosition carries the range-finder-derived distance to
// ground, used to scale IRLOCK/UWB angular measurements.
type VehicleLocalPosition struct {
	Timestamp       time.Time
	DistBottom      float64
	DistBottomValid bool
}

// VehicleGPSPosition is the vehicle's own global fix plus NED velocity.
type VehicleGPSPosition struct {
	Timestamp   time.Time
	Valid       bool
	LatDeg      float64
	LonDeg      float64
	AltM        float64
	VelNED      [3]float64
	VelValid    bool
	EPH, EPV    float64
}

// TargetGNSSReport is the target's own GPS fix, reported over a
// separate link (e.g. a beacon on the landing pad).
type TargetGNSSReport struct {
	Timestamp time.Time
	Valid     bool
	LatDeg    float64
	LonDeg    float64
	AltM      float64
	VelNED    [3]float64
	VelValid  bool
}

// PositionSetpointTriplet carries the mission-planned landing point,
// used only when no target GPS report is available.
type PositionSetpointTriplet struct {
	Timestamp time.Time
	Valid     bool
	LatDeg    float64
	LonDeg    float64
	AltM      float64
}

// IRLockReport carries the two small-angle tangents to the target as
// seen by a downward IR-LOCK sensor.
type IRLockReport struct {
	Timestamp    time.Time
	AngleX       float64
	AngleY       float64
	SignalQuality int
}

// UWBDistance carries a 3D target position in the UWB module's own
// grid frame.
type UWBDistance struct {
	Timestamp time.Time
	GridPos   [3]float64
}

// FiducialMarkerReport is a vision pose estimate of the target in the
// camera's own sensor frame, with an optional 3x3 position covariance.
type FiducialMarkerReport struct {
	Timestamp     time.Time
	PosSensor     [3]float64
	CovValid      bool
	Cov           [3][3]float64
}

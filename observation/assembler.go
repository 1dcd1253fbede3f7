package observation

import (
	"math"
	"time"

	"ltest-go/config"
	"ltest-go/estimator"
	"ltest-go/observation/geo"
)

// Assembler turns raw sensor reports into canonical Samples. It never
// reads filter state; every rule here depends only on the current
// configuration and the reports themselves.
type Assembler struct {
	cfg config.Config
}

// NewAssembler builds an Assembler bound to the given parameter table.
// The orchestrator rebuilds one whenever the configuration reloads.
func NewAssembler(cfg config.Config) *Assembler {
	return &Assembler{cfg: cfg}
}

func toQ(q Quaternion) geo.Quaternion { return geo.Quaternion(q) }

// TargetGPSPosition assembles the target's raw GPS fix, expressed as a
// NED displacement from the vehicle using the vehicle fix as the
// local-tangent origin. Requires both fixes valid.
func (a *Assembler) TargetGPSPosition(veh VehicleGPSPosition, target TargetGNSSReport, now time.Time) (Sample, bool) {
	if !veh.Valid || !target.Valid {
		return Sample{}, false
	}
	if now.Sub(veh.Timestamp) > timeoutDur(a.cfg.MeasurementValidTimeout) ||
		now.Sub(target.Timestamp) > timeoutDur(a.cfg.MeasurementValidTimeout) {
		return Sample{}, false
	}

	north, east := geo.VectorToTarget(veh.LatDeg, veh.LonDeg, target.LatDeg, target.LonDeg)
	down := geo.Down(veh.AltM, target.AltM)

	gpsVar := a.cfg.GPSPNoise * a.cfg.GPSPNoise
	return Sample{
		Type: SensorTargetGPS, Timestamp: target.Timestamp, Kind: estimator.KindTargetPosition,
		Mask: [3]bool{true, true, true},
		Z:    [3]float64{north, east, down},
		R:    [3]float64{gpsVar, gpsVar, 4 * gpsVar},
	}, true
}

// MissionLandingPosition assembles the downstream planner's landing
// point as a pseudo target-GPS position, used only when the target's
// own GPS report is unavailable. Since the landing point is a
// surveyed waypoint rather than a second noisy GPS receiver, it does
// not exercise the bias state (no ionospheric offset to reconcile).
func (a *Assembler) MissionLandingPosition(veh VehicleGPSPosition, sp PositionSetpointTriplet, now time.Time) (Sample, bool) {
	if !veh.Valid || !sp.Valid {
		return Sample{}, false
	}
	if now.Sub(veh.Timestamp) > timeoutDur(a.cfg.MeasurementValidTimeout) {
		return Sample{}, false
	}

	north, east := geo.VectorToTarget(veh.LatDeg, veh.LonDeg, sp.LatDeg, sp.LonDeg)
	down := geo.Down(veh.AltM, sp.AltM)

	gpsVar := a.cfg.GPSPNoise * a.cfg.GPSPNoise
	return Sample{
		Type: SensorMissionLanding, Timestamp: sp.Timestamp, Kind: estimator.KindRelativePosition,
		Mask: [3]bool{true, true, true},
		Z:    [3]float64{north, east, down},
		R:    [3]float64{gpsVar, gpsVar, gpsVar},
	}, true
}

// VehicleGPSVelocity assembles the vehicle's own (or relative) GPS
// velocity depending on target motion model, grounded on PX4's
// processObsGNSSVelRel three-way branch.
func (a *Assembler) VehicleGPSVelocity(veh VehicleGPSPosition, target TargetGNSSReport, augmented bool, now time.Time) (Sample, bool) {
	if !veh.Valid || !veh.VelValid {
		return Sample{}, false
	}
	if now.Sub(veh.Timestamp) > timeoutDur(a.cfg.MeasurementUpdatedTimeout) {
		return Sample{}, false
	}
	velVar := a.cfg.GPSVNoise * a.cfg.GPSVNoise

	if augmented {
		return Sample{
			Type: SensorVehicleGPSVel, Timestamp: veh.Timestamp, Kind: estimator.KindVehicleVelocity,
			Mask: [3]bool{true, true, true}, Z: veh.VelNED, R: [3]float64{velVar, velVar, velVar},
		}, true
	}

	if target.Valid && target.VelValid && now.Sub(target.Timestamp) <= timeoutDur(a.cfg.MeasurementValidTimeout) {
		rel := [3]float64{
			veh.VelNED[0] - target.VelNED[0],
			veh.VelNED[1] - target.VelNED[1],
			veh.VelNED[2] - target.VelNED[2],
		}
		return Sample{
			Type: SensorVehicleGPSVel, Timestamp: veh.Timestamp, Kind: estimator.KindRelativeVelocity,
			Mask: [3]bool{true, true, true}, Z: rel, R: [3]float64{2 * velVar, 2 * velVar, 2 * velVar},
		}, true
	}

	neg := [3]float64{-veh.VelNED[0], -veh.VelNED[1], -veh.VelNED[2]}
	return Sample{
		Type: SensorVehicleGPSVel, Timestamp: veh.Timestamp, Kind: estimator.KindRelativeVelocity,
		Mask: [3]bool{true, true, true}, Z: neg, R: [3]float64{velVar, velVar, velVar},
	}, true
}

// TargetGPSVelocity assembles the target's own GPS velocity, fused
// only against the augmented variant's separate target-velocity
// state.
func (a *Assembler) TargetGPSVelocity(target TargetGNSSReport, augmented bool, now time.Time) (Sample, bool) {
	if !augmented || !target.Valid || !target.VelValid {
		return Sample{}, false
	}
	if now.Sub(target.Timestamp) > timeoutDur(a.cfg.MeasurementUpdatedTimeout) {
		return Sample{}, false
	}
	velVar := a.cfg.GPSVNoise * a.cfg.GPSVNoise
	return Sample{
		Type: SensorTargetGPSVel, Timestamp: target.Timestamp, Kind: estimator.KindTargetVelocity,
		Mask: [3]bool{true, true, true}, Z: target.VelNED, R: [3]float64{velVar, velVar, velVar},
	}, true
}

// Vision assembles a fiducial-marker pose: sensor mount rotation, then
// body offset, then attitude rotation into NED.
func (a *Assembler) Vision(msg FiducialMarkerReport, att VehicleAttitude, distBottom float64, distValid bool, now time.Time) (Sample, bool) {
	if now.Sub(msg.Timestamp) > timeoutDur(a.cfg.MeasurementUpdatedTimeout) {
		return Sample{}, false
	}

	rot := geo.SensorRotation(a.cfg.SensRot)
	bodyVec := rot.Rotate(msg.PosSensor)
	bodyVec[0] += a.cfg.SensPosX
	bodyVec[1] += a.cfg.SensPosY
	bodyVec[2] += a.cfg.SensPosZ
	ned := geo.RotateBodyToNED(toQ(att.Q), bodyVec)

	var rDiag [3]float64
	useMsgCov := msg.CovValid && a.cfg.EVNoiseMD == 0
	if useMsgCov {
		const epsilon = 1e-9
		if msg.Cov[0][0] > epsilon || msg.Cov[1][1] > epsilon || msg.Cov[2][2] > epsilon {
			rDiag = [3]float64{msg.Cov[0][0], msg.Cov[1][1], msg.Cov[2][2]}
		} else {
			useMsgCov = false
		}
	}
	if !useMsgCov {
		scale := 1.0
		switch {
		case distValid:
			scale = math.Max(distBottom, 1.0)
		default:
			scale = 10.0
		}
		v := a.cfg.EVPNoise * a.cfg.EVPNoise * scale
		rDiag = [3]float64{v, v, v}
	}

	return Sample{
		Type: SensorVision, Timestamp: msg.Timestamp, Kind: estimator.KindRelativePosition,
		Mask: [3]bool{true, true, true}, Z: ned, R: rDiag,
	}, true
}

// IRLock assembles a tangent-angle report into a NED position
// observation, gated on a valid range-finder reading.
func (a *Assembler) IRLock(msg IRLockReport, att VehicleAttitude, distBottom float64, distValid bool, now time.Time) (Sample, bool) {
	if !distValid {
		return Sample{}, false
	}
	if now.Sub(msg.Timestamp) > timeoutDur(a.cfg.MeasurementUpdatedTimeout) {
		return Sample{}, false
	}

	scaledX := a.cfg.ScaleX * msg.AngleX
	scaledY := a.cfg.ScaleY * msg.AngleY
	raySensor := [3]float64{scaledX, scaledY, 1}
	rayBody := geo.SensorRotation(a.cfg.SensRot).Rotate(raySensor)

	distZ := distBottom - a.cfg.SensPosZ
	bodyVec := [3]float64{
		rayBody[0]*distZ + a.cfg.SensPosX,
		rayBody[1]*distZ + a.cfg.SensPosY,
		-distBottom,
	}
	ned := geo.RotateBodyToNED(toQ(att.Q), bodyVec)

	rVar := a.cfg.MeasUnc * a.cfg.MeasUnc * distBottom * distBottom
	return Sample{
		Type: SensorIRLock, Timestamp: msg.Timestamp, Kind: estimator.KindRelativePosition,
		Mask: [3]bool{true, true, true}, Z: ned, R: [3]float64{rVar, rVar, rVar},
	}, true
}

// UWB assembles a UWB grid-frame position report. The grid frame is
// already NED-relative-to-vehicle up to sign, per original_source's
// processObsUWB.
func (a *Assembler) UWB(msg UWBDistance, distBottom float64, distValid bool, now time.Time) (Sample, bool) {
	if !distValid {
		return Sample{}, false
	}
	if now.Sub(msg.Timestamp) > timeoutDur(a.cfg.MeasurementUpdatedTimeout) {
		return Sample{}, false
	}

	ned := [3]float64{-msg.GridPos[0], -msg.GridPos[1], -msg.GridPos[2]}
	distZ := distBottom - a.cfg.SensPosZ
	rVar := a.cfg.MeasUnc * a.cfg.MeasUnc * distZ * distZ

	return Sample{
		Type: SensorUWB, Timestamp: msg.Timestamp, Kind: estimator.KindRelativePosition,
		Mask: [3]bool{true, true, true}, Z: ned, R: [3]float64{rVar, rVar, rVar},
	}, true
}

func timeoutDur(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

package observation

import (
	"time"

	"ltest-go/estimator"
)

// SensorType names the physical source of an assembled Sample. Its
// AID_MASK bit is given by AidMaskBit, not by the constant's value.
type SensorType int

const (
	SensorTargetGPS SensorType = iota
	SensorVehicleGPSVel
	SensorTargetGPSVel
	SensorVision
	SensorIRLock
	SensorUWB
	SensorMissionLanding
)

func (s SensorType) String() string {
	switch s {
	case SensorTargetGPS:
		return "target_gps"
	case SensorVehicleGPSVel:
		return "vehicle_gps_vel"
	case SensorTargetGPSVel:
		return "target_gps_vel"
	case SensorVision:
		return "vision"
	case SensorIRLock:
		return "irlock"
	case SensorUWB:
		return "uwb"
	case SensorMissionLanding:
		return "mission_landing"
	default:
		return "unknown"
	}
}

// AidMaskBit returns this sensor's bit in the LTEST_AID_MASK bitmask,
// grounded on PX4's SensorFusionMask enum order (targetGPS=1,
// relGPSvel=2, vision=4, IRLOCK=8, UWB=16, missionLanding=32).
// SensorTargetGPSVel has no independent mask bit: it rides on
// relGPSvel, since original_source polls it in the same GPS-timing
// gated step as the vehicle's own GPS velocity.
func (s SensorType) AidMaskBit() int {
	switch s {
	case SensorTargetGPS:
		return 1 << 0
	case SensorVehicleGPSVel, SensorTargetGPSVel:
		return 1 << 1
	case SensorVision:
		return 1 << 2
	case SensorIRLock:
		return 1 << 3
	case SensorUWB:
		return 1 << 4
	case SensorMissionLanding:
		return 1 << 5
	default:
		return 0
	}
}

// Sample is the canonical, filter-agnostic observation the assembler
// produces from one raw sensor report: up to three axes of a single
// ObservationKind, each independently valid.
type Sample struct {
	Type      SensorType
	Timestamp time.Time
	Kind      estimator.ObservationKind
	Mask      [3]bool
	Z         [3]float64
	R         [3]float64
}

// Rows expands a Sample into one ScalarRow per valid axis, in N, E, D
// order, ready to hand to a Filter's Update once BuildH has resolved
// the H row for the target variant.
func (s Sample) Rows() []ScalarRow {
	rows := make([]ScalarRow, 0, 3)
	for axis := 0; axis < 3; axis++ {
		if !s.Mask[axis] {
			continue
		}
		rows = append(rows, ScalarRow{
			Type: s.Type, Timestamp: s.Timestamp, Kind: s.Kind,
			Axis: axis, Z: s.Z[axis], R: s.R[axis],
		})
	}
	return rows
}

// ScalarRow is one axis of a Sample, the unit of work the fusion
// orchestrator hands to a Filter's Update.
type ScalarRow struct {
	Type      SensorType
	Timestamp time.Time
	Kind      estimator.ObservationKind
	Axis      int
	Z, R      float64
}

// Package binlog records and replays a tick-by-tick trace of the
// estimator's inputs and outputs. It is adapted from the teacher's
// PCAP/UNIB binary packet log into a JSON-lines session log, since
// there is no packet-radio wire format in the UAV landing domain the
// teacher's pcap writer/parser modeled — each line here is one
// self-contained tick, not one radio frame.
package binlog

import (
	"time"

	"ltest-go/observation"
	"ltest-go/orchestrator"
)

// Record is one line of a session log: everything Tick consumed and
// produced for a single scheduler period.
type Record struct {
	Vehicle orchestrator.VehicleSnapshot `json:"vehicle"`
	Sensors SensorSnapshotWire           `json:"sensors"`
	Result  orchestrator.Result          `json:"result"`
}

// SensorSnapshotWire mirrors orchestrator.SensorSnapshot field for
// field, adding JSON tags; a nil pointer is omitted on write and
// decodes back to nil, so Record needs no custom UnmarshalJSON.
type SensorSnapshotWire struct {
	TargetGPS *observation.TargetGNSSReport      `json:"target_gps,omitempty"`
	Mission   *observation.PositionSetpointTriplet `json:"mission,omitempty"`
	Vision    *observation.FiducialMarkerReport  `json:"vision,omitempty"`
	IRLock    *observation.IRLockReport          `json:"irlock,omitempty"`
	UWB       *observation.UWBDistance           `json:"uwb,omitempty"`
}

// ToWire converts a live SensorSnapshot into its JSON-friendly form.
func ToWire(s orchestrator.SensorSnapshot) SensorSnapshotWire { return toWire(s) }

func toWire(s orchestrator.SensorSnapshot) SensorSnapshotWire {
	return SensorSnapshotWire{
		TargetGPS: s.TargetGPS,
		Mission:   s.Mission,
		Vision:    s.Vision,
		IRLock:    s.IRLock,
		UWB:       s.UWB,
	}
}

// ToSnapshot converts a decoded wire form back into a live SensorSnapshot.
func (w SensorSnapshotWire) ToSnapshot() orchestrator.SensorSnapshot { return w.toSnapshot() }

func (w SensorSnapshotWire) toSnapshot() orchestrator.SensorSnapshot {
	return orchestrator.SensorSnapshot{
		TargetGPS: w.TargetGPS,
		Mission:   w.Mission,
		Vision:    w.Vision,
		IRLock:    w.IRLock,
		UWB:       w.UWB,
	}
}

// Timestamp reports the tick time this record was captured at, taken
// from the vehicle snapshot's attitude sample.
func (r Record) Timestamp() time.Time { return r.Vehicle.Attitude.Timestamp }

package orchestrator

import "ltest-go/observation"

// VehicleSnapshot is the cached vehicle state refreshed once per
// tick, step 1 of the tick sequence.
type VehicleSnapshot struct {
	Attitude  observation.VehicleAttitude
	Accel     observation.VehicleAcceleration
	LocalPos  observation.VehicleLocalPosition
	GPS       observation.VehicleGPSPosition
}

// SensorSnapshot carries the latest sample of each optional sensor,
// nil when nothing fresh arrived this tick. The bus package fills
// this from its non-destructive poll of the message bus.
type SensorSnapshot struct {
	TargetGPS *observation.TargetGNSSReport
	Mission   *observation.PositionSetpointTriplet
	Vision    *observation.FiducialMarkerReport
	IRLock    *observation.IRLockReport
	UWB       *observation.UWBDistance
}

package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ltest-go/config"
	"ltest-go/observation"
	"ltest-go/telemetry"
)

func staticVehicle(now time.Time) VehicleSnapshot {
	return VehicleSnapshot{
		Attitude: observation.VehicleAttitude{Timestamp: now, Q: observation.Quaternion{W: 1}},
		Accel:    observation.VehicleAcceleration{Timestamp: now},
		LocalPos: observation.VehicleLocalPosition{Timestamp: now, DistBottom: 5.0, DistBottomValid: true},
		GPS:      observation.VehicleGPSPosition{Timestamp: now, Valid: true, LatDeg: 47.0, LonDeg: 8.0, AltM: 500, VelValid: true},
	}
}

func staticConfig() config.Config {
	cfg := config.Default()
	cfg.Mode = config.ModeStatic
	cfg.Model = config.ModelCoupled
	cfg.InitDelay = 1.0
	cfg.BTOUT = 3.0
	return cfg
}

// TestInitRequiresSustainedSeed verifies the 1s init-delay buffering:
// a single tick with a fresh IRLOCK lock never initializes the bank on
// its own.
func TestInitRequiresSustainedSeed(t *testing.T) {
	o := New(staticConfig(), telemetry.New("test"))
	now := time.Now()
	veh := staticVehicle(now)
	sensors := SensorSnapshot{IRLock: &observation.IRLockReport{Timestamp: now, AngleX: 0.1}}

	res := o.Tick(now, veh, sensors)
	assert.Equal(t, StatusOK, res.Status)
	assert.False(t, o.initialized)
}

// TestInitCommitsAfterDelay verifies the bank is constructed once the
// pending seed has held for InitDelay seconds, per the 1s wait grounded
// on original_source's hard-coded init timer.
func TestInitCommitsAfterDelay(t *testing.T) {
	cfg := staticConfig()
	cfg.SensRot = 0 // RotationNone, so AngleX maps straight onto +north
	o := New(cfg, telemetry.New("test"))
	t0 := time.Now()
	veh := staticVehicle(t0)
	sensors := SensorSnapshot{IRLock: &observation.IRLockReport{Timestamp: t0, AngleX: 0.1}}

	o.Tick(t0, veh, sensors)
	require.False(t, o.initialized)

	t1 := t0.Add(1100 * time.Millisecond)
	veh1 := staticVehicle(t1)
	sensors1 := SensorSnapshot{IRLock: &observation.IRLockReport{Timestamp: t1, AngleX: 0.1}}
	res := o.Tick(t1, veh1, sensors1)

	require.True(t, o.initialized)
	assert.InDelta(t, 0.5, res.Pose.PositionNED[0], 0.05)
	assert.InDelta(t, -5.0, res.Pose.PositionNED[2], 0.05)
}

// TestGapResetsFilter checks the >1s predict-gap reset path.
func TestGapResetsFilter(t *testing.T) {
	o := New(staticConfig(), telemetry.New("test"))
	t0 := time.Now()
	veh := staticVehicle(t0)
	sensors := SensorSnapshot{IRLock: &observation.IRLockReport{Timestamp: t0, AngleX: 0.1}}
	o.Tick(t0, veh, sensors)
	t1 := t0.Add(1100 * time.Millisecond)
	o.Tick(t1, staticVehicle(t1), SensorSnapshot{IRLock: &observation.IRLockReport{Timestamp: t1, AngleX: 0.1}})
	require.True(t, o.initialized)

	t2 := t1.Add(2 * time.Second)
	res := o.Tick(t2, staticVehicle(t2), SensorSnapshot{})
	assert.Equal(t, StatusReset, res.Status)
	assert.False(t, o.initialized)
}

// TestSustainedTimeoutResetsAtBTOUT checks the BTOUT sustained-gap
// reset when the filter is initialized but nothing fuses for longer
// than the timeout, even though predict keeps running on schedule.
func TestSustainedTimeoutResetsAtBTOUT(t *testing.T) {
	cfg := staticConfig()
	cfg.BTOUT = 1.0
	o := New(cfg, telemetry.New("test"))
	t0 := time.Now()
	sensors := SensorSnapshot{IRLock: &observation.IRLockReport{Timestamp: t0, AngleX: 0.1}}
	o.Tick(t0, staticVehicle(t0), sensors)
	t1 := t0.Add(1100 * time.Millisecond)
	o.Tick(t1, staticVehicle(t1), SensorSnapshot{IRLock: &observation.IRLockReport{Timestamp: t1, AngleX: 0.1}})
	require.True(t, o.initialized)

	step := 100 * time.Millisecond
	now := t1
	sawReset := false
	for i := 0; i < 15 && !sawReset; i++ {
		now = now.Add(step)
		veh := staticVehicle(now)
		veh.GPS.Valid = false // no vehicle GPS telemetry: nothing should fuse this stretch
		res := o.Tick(now, veh, SensorSnapshot{})
		if res.Status == StatusReset {
			sawReset = true
		}
	}
	assert.True(t, sawReset, "expected a BTOUT reset within 1.5s of silence")
}

// TestMaskedSensorNeverSeedsTheBank checks spec.md §8's sensor-masking
// invariant at init time: with AID_MASK's target-GPS bit clear (the
// default), a sustained target-GPS fix must never construct the bank
// on its own, even past InitDelay.
func TestMaskedSensorNeverSeedsTheBank(t *testing.T) {
	cfg := staticConfig()
	require.False(t, cfg.AidEnabled(config.AidTargetGPS), "target-GPS is disabled by default")

	o := New(cfg, telemetry.New("test"))
	t0 := time.Now()
	veh := staticVehicle(t0)
	target := &observation.TargetGNSSReport{Valid: true, Timestamp: t0, LatDeg: 47.0, LonDeg: 8.0, AltM: 495}
	sensors := SensorSnapshot{TargetGPS: target}

	o.Tick(t0, veh, sensors)
	t1 := t0.Add(1100 * time.Millisecond)
	target.Timestamp = t1
	res := o.Tick(t1, staticVehicle(t1), SensorSnapshot{TargetGPS: target})

	assert.Equal(t, StatusOK, res.Status)
	assert.False(t, o.initialized, "a masked sensor must never seed the bank")
}

// TestMaskedSensorNeverTriggersBiasResync checks spec.md §8's masking
// invariant once the bank is already running: a masked target-GPS
// sample must not set sawGPSFixSinceInit, update lastGNSSRelativePos,
// or arm the one-shot bias-resync reset.
func TestMaskedSensorNeverTriggersBiasResync(t *testing.T) {
	cfg := staticConfig()
	require.False(t, cfg.AidEnabled(config.AidTargetGPS), "target-GPS is disabled by default")

	o := New(cfg, telemetry.New("test"))
	t0 := time.Now()
	sensors := SensorSnapshot{IRLock: &observation.IRLockReport{Timestamp: t0, AngleX: 0.1}}
	o.Tick(t0, staticVehicle(t0), sensors)
	t1 := t0.Add(1100 * time.Millisecond)
	o.Tick(t1, staticVehicle(t1), SensorSnapshot{IRLock: &observation.IRLockReport{Timestamp: t1, AngleX: 0.1}})
	require.True(t, o.initialized)
	require.True(t, o.sawNonGPSFixSinceInit)

	t2 := t1.Add(50 * time.Millisecond)
	target := &observation.TargetGNSSReport{Valid: true, Timestamp: t2, LatDeg: 47.0, LonDeg: 8.0, AltM: 495}
	res := o.Tick(t2, staticVehicle(t2), SensorSnapshot{TargetGPS: target})

	assert.NotEqual(t, StatusReset, res.Status)
	assert.True(t, o.initialized, "masked target-GPS must not wipe the bank via bias resync")
	assert.False(t, o.sawGPSFixSinceInit, "a masked sample must not update GPS provenance")
	assert.Nil(t, o.lastGNSSRelativePos, "a masked sample must not update bias bookkeeping")
}

// TestGateRejectedOutlierSurfacesStatus checks a wildly inconsistent
// vision reading is rejected without corrupting the estimate, and the
// tick still reports StatusGateRejected.
func TestGateRejectedOutlierSurfacesStatus(t *testing.T) {
	o := New(staticConfig(), telemetry.New("test"))
	t0 := time.Now()
	sensors := SensorSnapshot{IRLock: &observation.IRLockReport{Timestamp: t0, AngleX: 0.1}}
	o.Tick(t0, staticVehicle(t0), sensors)
	t1 := t0.Add(1100 * time.Millisecond)
	o.Tick(t1, staticVehicle(t1), SensorSnapshot{IRLock: &observation.IRLockReport{Timestamp: t1, AngleX: 0.1}})
	require.True(t, o.initialized)

	before := o.bank.Position()

	t2 := t1.Add(50 * time.Millisecond)
	outlier := &observation.FiducialMarkerReport{Timestamp: t2, PosSensor: [3]float64{500, 500, 500}}
	res := o.Tick(t2, staticVehicle(t2), SensorSnapshot{Vision: outlier})

	assert.Equal(t, StatusGateRejected, res.Status)
	after := o.bank.Position()
	assert.InDelta(t, before[0], after[0], 0.2, "gated outlier should not move the estimate materially")
}

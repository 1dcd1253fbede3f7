package orchestrator

import (
	"time"

	"ltest-go/estimator"
	"ltest-go/observation"
)

// reset tears down the filter bank and every one-shot life-cycle flag,
// so the next tick re-enters tryInit from scratch. status is only used
// to count numeric faults in Diagnostics; Tick decides what the caller
// sees.
func (o *Orchestrator) reset(status Status) {
	o.bank = nil
	o.initialized = false
	o.lastPredict = time.Time{}
	o.lastUpdate = time.Time{}
	o.pendingSeed = nil
	o.sawGPSFixSinceInit = false
	o.sawNonGPSFixSinceInit = false
	o.biasResyncDone = false
	o.diag.Resets++
	if status == StatusNumericFault {
		o.diag.Faults++
	}
}

// tryInit implements the fixed sensor poll order and the 1s init
// delay: the first valid position fix arms a pending seed, and the
// bank is only actually constructed once that seed has held for
// InitDelay seconds without a gap, per original_source's 1,000,000us
// wait before publishing the first estimate.
func (o *Orchestrator) tryInit(now time.Time, veh VehicleSnapshot, sensors SensorSnapshot) bool {
	seed, seedType := o.firstAvailableSeed(veh, sensors, now)

	if seed == nil {
		o.pendingSeed = nil
		return false
	}

	if o.pendingSeed == nil {
		o.pendingSeed = seed
		o.pendingSeedAt = now
		return false
	}

	if now.Sub(o.pendingSeedAt) < timeoutDur(o.cfg.InitDelay) {
		// keep the most recent seed while the delay elapses.
		o.pendingSeed = seed
		return false
	}

	o.commitInit(now, *seed, seedType, veh)
	return o.initialized
}

// firstAvailableSeed polls target_gps_pos, vision, irlock and uwb in
// that order, then mission_landing as the last fallback, per spec.md
// §4.3's sensor selection rule: any *enabled*
// position sensor may seed initialization, but GPS-vs-non-GPS
// provenance controls the bias-resync rule below. A sensor whose
// AID_MASK bit is clear is skipped entirely, per spec.md §8's masking
// invariant — it must never be able to construct/seed the bank.
func (o *Orchestrator) firstAvailableSeed(veh VehicleSnapshot, sensors SensorSnapshot, now time.Time) (*observation.Sample, observation.SensorType) {
	if sensors.TargetGPS != nil && o.cfg.AidEnabled(observation.SensorTargetGPS.AidMaskBit()) {
		if s, ok := o.assembler.TargetGPSPosition(veh.GPS, *sensors.TargetGPS, now); ok {
			return &s, observation.SensorTargetGPS
		}
	}
	if sensors.Vision != nil && o.cfg.AidEnabled(observation.SensorVision.AidMaskBit()) {
		if s, ok := o.assembler.Vision(*sensors.Vision, veh.Attitude, veh.LocalPos.DistBottom, veh.LocalPos.DistBottomValid, now); ok {
			return &s, observation.SensorVision
		}
	}
	if sensors.IRLock != nil && o.cfg.AidEnabled(observation.SensorIRLock.AidMaskBit()) {
		if s, ok := o.assembler.IRLock(*sensors.IRLock, veh.Attitude, veh.LocalPos.DistBottom, veh.LocalPos.DistBottomValid, now); ok {
			return &s, observation.SensorIRLock
		}
	}
	if sensors.UWB != nil && o.cfg.AidEnabled(observation.SensorUWB.AidMaskBit()) {
		if s, ok := o.assembler.UWB(*sensors.UWB, veh.LocalPos.DistBottom, veh.LocalPos.DistBottomValid, now); ok {
			return &s, observation.SensorUWB
		}
	}
	if sensors.Mission != nil && o.cfg.AidEnabled(observation.SensorMissionLanding.AidMaskBit()) {
		if s, ok := o.assembler.MissionLandingPosition(veh.GPS, *sensors.Mission, now); ok {
			return &s, observation.SensorMissionLanding
		}
	}
	return nil, 0
}

// commitInit constructs the bank and seeds its state, applying the
// bias initialization rule: a non-GPS seed picks up whatever
// discrepancy exists against the last known GPS-relative position, a
// GPS seed starts with zero bias since it defines that displacement.
func (o *Orchestrator) commitInit(now time.Time, seed observation.Sample, seedType observation.SensorType, veh VehicleSnapshot) {
	variant := o.cfg.Variant()
	o.bank = estimator.NewBank(variant, o.cfg.Noise(), o.cfg.BiasLim, o.cfg.GateChiSquare)

	var bias [3]float64
	if seedType != observation.SensorTargetGPS && o.lastGNSSRelativePos != nil &&
		now.Sub(o.lastGNSSRelativePosAt) <= timeoutDur(o.cfg.MeasurementValidTimeout) {
		for i := range bias {
			bias[i] = o.lastGNSSRelativePos[i] - seed.Z[i]
		}
	}

	init := estimator.InitState{
		Pos:     seed.Z[:],
		Bias:    bias[:],
		PosVar:  []float64{o.cfg.PosUncIn, o.cfg.PosUncIn, o.cfg.PosUncIn},
		VelVar:  []float64{o.cfg.VelUncIn, o.cfg.VelUncIn, o.cfg.VelUncIn},
		BiasVar: []float64{o.cfg.BiaUncIn, o.cfg.BiaUncIn, o.cfg.BiaUncIn},
	}
	if variant.IsAugmented() && veh.GPS.Valid && veh.GPS.VelValid {
		init.Vel = veh.GPS.VelNED[:]
	} else {
		init.Vel = []float64{0, 0, 0}
	}
	if variant.IsMoving() {
		init.AccT = []float64{0, 0, 0}
		init.AccTVar = []float64{o.cfg.AccUncIn, o.cfg.AccUncIn, o.cfg.AccUncIn}
	}
	if variant.IsAugmented() {
		init.VelT = []float64{0, 0, 0}
		init.VelTVar = []float64{o.cfg.VelUncIn, o.cfg.VelUncIn, o.cfg.VelUncIn}
	}

	if err := o.bank.Init(init); err != nil {
		o.log.Error("bank init failed: %v", err)
		o.bank = nil
		return
	}
	o.initialized = true
	o.lastPredict = now
	o.lastUpdate = now
	o.pendingSeed = nil

	if seedType == observation.SensorTargetGPS {
		o.sawGPSFixSinceInit = true
	} else {
		o.sawNonGPSFixSinceInit = true
	}

	o.log.Info("filter initialized: variant=%s seed=%s pos=%.2f,%.2f,%.2f",
		variant, seedType, seed.Z[0], seed.Z[1], seed.Z[2])
}

// fuseAll polls every sensor in the fixed order and fuses whatever
// resolves, tracking GPS/non-GPS provenance to detect the one-shot
// bias-resync condition: once both a GPS and a non-GPS position fix
// have been seen since init, in either order, the filter is restarted
// before this tick's samples are fused rather than silently re-biased,
// per original_source's LTestPosition "restarting filter" path.
func (o *Orchestrator) fuseAll(now time.Time, veh VehicleSnapshot, sensors SensorSnapshot) (innovations []Innovation, gateRejected, resync bool) {
	variant := o.bank.Variant()
	augmented := variant.IsAugmented()
	target := valueOrZero(sensors.TargetGPS)

	var samples []observation.Sample

	switch {
	case sensors.TargetGPS != nil:
		if s, ok := o.assembler.TargetGPSPosition(veh.GPS, target, now); ok {
			samples = append(samples, s)
		}
	case sensors.Mission != nil:
		if s, ok := o.assembler.MissionLandingPosition(veh.GPS, *sensors.Mission, now); ok {
			samples = append(samples, s)
		}
	}
	if s, ok := o.assembler.VehicleGPSVelocity(veh.GPS, target, augmented, now); ok {
		samples = append(samples, s)
	}
	if sensors.TargetGPS != nil {
		if s, ok := o.assembler.TargetGPSVelocity(*sensors.TargetGPS, augmented, now); ok {
			samples = append(samples, s)
		}
	}
	if sensors.Vision != nil {
		if s, ok := o.assembler.Vision(*sensors.Vision, veh.Attitude, veh.LocalPos.DistBottom, veh.LocalPos.DistBottomValid, now); ok {
			samples = append(samples, s)
		}
	}
	if sensors.IRLock != nil {
		if s, ok := o.assembler.IRLock(*sensors.IRLock, veh.Attitude, veh.LocalPos.DistBottom, veh.LocalPos.DistBottomValid, now); ok {
			samples = append(samples, s)
		}
	}
	if sensors.UWB != nil {
		if s, ok := o.assembler.UWB(*sensors.UWB, veh.LocalPos.DistBottom, veh.LocalPos.DistBottomValid, now); ok {
			samples = append(samples, s)
		}
	}

	enabled := samples[:0]
	for _, s := range samples {
		if !o.cfg.AidEnabled(s.Type.AidMaskBit()) {
			continue
		}
		enabled = append(enabled, s)
	}
	samples = enabled

	for _, s := range samples {
		o.trackProvenance(s.Type)
		if s.Type == observation.SensorTargetGPS {
			rel := s.Z
			o.lastGNSSRelativePos = &rel
			o.lastGNSSRelativePosAt = now
		}
	}

	if o.sawGPSFixSinceInit && o.sawNonGPSFixSinceInit && !o.biasResyncDone {
		o.biasResyncDone = true
		return innovations, false, true
	}

	for _, s := range samples {
		for _, row := range s.Rows() {
			f, err := o.bank.Filter(row.Axis)
			if err != nil {
				continue
			}
			h, ok := f.BuildH(row.Kind, row.Axis)
			if !ok {
				continue
			}
			res, err := f.Update(row.Z, row.R, h)
			if err != nil {
				continue
			}
			o.lastUpdate = now
			if !res.Accepted {
				gateRejected = true
				o.diag.GateRejections++
			}
			innovations = append(innovations, Innovation{
				Sensor: row.Type, Axis: row.Axis, Timestamp: row.Timestamp,
				Innovation: res.Innovation, InnovationVar: res.InnovationVar,
				TestRatio: res.NIS, GateThreshold: res.GateThreshold, Fused: res.Accepted,
			})
		}
	}

	return innovations, gateRejected, false
}

func (o *Orchestrator) trackProvenance(t observation.SensorType) {
	switch t {
	case observation.SensorTargetGPS:
		o.sawGPSFixSinceInit = true
	case observation.SensorVision, observation.SensorIRLock, observation.SensorUWB, observation.SensorMissionLanding:
		o.sawNonGPSFixSinceInit = true
	}
}

func valueOrZero(t *observation.TargetGNSSReport) observation.TargetGNSSReport {
	if t == nil {
		return observation.TargetGNSSReport{}
	}
	return *t
}

package estimator

import "errors"

// Bank owns the concrete Filter instance(s) backing a Variant: three
// single-axis filters for the decoupled variants, one multi-axis
// filter for the coupled variants. It exists so the orchestrator can
// address "the position estimate" or "predict everything one dt"
// without branching on Variant.IsCoupled() at every call site.
type Bank struct {
	variant Variant
	axes    []*Filter // len 1 (coupled) or 3 (decoupled)
}

// NewBank builds an uninitialized bank for the given variant.
func NewBank(v Variant, noise NoiseParams, biasLimit, gateThreshold float64) *Bank {
	b := &Bank{variant: v}
	if v.IsCoupled() {
		b.axes = []*Filter{New(v, noise, biasLimit, gateThreshold)}
	} else {
		b.axes = []*Filter{
			New(v, noise, biasLimit, gateThreshold),
			New(v, noise, biasLimit, gateThreshold),
			New(v, noise, biasLimit, gateThreshold),
		}
	}
	return b
}

func (b *Bank) Variant() Variant { return b.variant }

// Filter returns the Filter instance responsible for the given
// north/east/down axis (0, 1, 2). For coupled variants this is always
// the same single instance.
func (b *Bank) Filter(axis int) (*Filter, error) {
	if axis < 0 || axis > 2 {
		return nil, errors.New("estimator: axis out of range")
	}
	if b.variant.IsCoupled() {
		return b.axes[0], nil
	}
	return b.axes[axis], nil
}

// Init seeds every filter instance in the bank from a full 3-axis
// InitState. For decoupled banks each instance receives the
// corresponding single-axis slice.
func (b *Bank) Init(full InitState) error {
	if b.variant.IsCoupled() {
		return b.axes[0].Init(full)
	}
	for axis, f := range b.axes {
		if err := f.Init(sliceAxis(full, axis)); err != nil {
			return err
		}
	}
	return nil
}

func sliceAxis(s InitState, axis int) InitState {
	pick := func(v []float64) []float64 {
		if v == nil {
			return nil
		}
		return []float64{v[axis]}
	}
	return InitState{
		Pos: pick(s.Pos), Vel: pick(s.Vel), Bias: pick(s.Bias),
		AccT: pick(s.AccT), VelT: pick(s.VelT),
		PosVar: pick(s.PosVar), VelVar: pick(s.VelVar), BiasVar: pick(s.BiasVar),
		AccTVar: pick(s.AccTVar), VelTVar: pick(s.VelTVar),
	}
}

// Predict advances every filter instance by dt under a 3-axis
// acceleration input (N, E, D).
func (b *Bank) Predict(dt float64, accelNED []float64) error {
	if len(accelNED) != 3 {
		return errors.New("estimator: accelNED must have length 3")
	}
	if b.variant.IsCoupled() {
		return b.axes[0].Predict(dt, accelNED)
	}
	for axis, f := range b.axes {
		if err := f.Predict(dt, accelNED[axis:axis+1]); err != nil {
			return err
		}
	}
	return nil
}

// IsInitialized reports whether every filter instance in the bank has
// been seeded.
func (b *Bank) IsInitialized() bool {
	for _, f := range b.axes {
		if !f.IsInitialized() {
			return false
		}
	}
	return true
}

// IsHealthy reports whether every filter instance in the bank holds
// finite state and covariance.
func (b *Bank) IsHealthy() bool {
	for _, f := range b.axes {
		if !f.IsHealthy() {
			return false
		}
	}
	return true
}

// Position, Velocity and Bias assemble the 3-axis estimate across
// whichever filter instance(s) hold each axis.
func (b *Bank) Position() [3]float64 { return b.assemble((*Filter).Position) }
func (b *Bank) Velocity() [3]float64 { return b.assemble((*Filter).Velocity) }
func (b *Bank) Bias() [3]float64     { return b.assemble((*Filter).Bias) }

func (b *Bank) TargetAcceleration() ([3]float64, bool) {
	if !b.variant.IsMoving() {
		return [3]float64{}, false
	}
	return b.assemble((*Filter).TargetAcceleration), true
}

func (b *Bank) TargetVelocity() ([3]float64, bool) {
	if !b.variant.IsAugmented() {
		return [3]float64{}, false
	}
	return b.assemble((*Filter).TargetVelocity), true
}

func (b *Bank) assemble(get func(*Filter) []float64) [3]float64 {
	var out [3]float64
	if b.variant.IsCoupled() {
		copy(out[:], get(b.axes[0]))
		return out
	}
	for axis, f := range b.axes {
		v := get(f)
		if len(v) == 1 {
			out[axis] = v[0]
		}
	}
	return out
}

// Package estimator implements the filter bank: the family of Kalman
// filter variants that turn a stream of predict/update ticks into a
// relative position/velocity/acceleration/bias estimate of a landing
// target.
//
// Every variant shares the same predict/update contract (see Filter);
// they differ only in state layout and in how the transition and
// process-noise matrices are built for a given time step. That keeps
// the bank a flat, tagged set of layouts rather than a class hierarchy.
package estimator

// Variant selects which combination of target-motion model
// (static/moving) and axis coupling (decoupled/coupled) a Filter runs.
type Variant int

const (
	// DecoupledStatic runs three independent single-axis filters,
	// each with state [p, v, b]. v is the relative (target-vehicle)
	// velocity; the target is assumed stationary.
	DecoupledStatic Variant = iota
	// DecoupledMoving adds a target-acceleration state per axis:
	// [p, v, b, aT].
	DecoupledMoving
	// CoupledStatic runs one filter across all three axes with a
	// single 9x9 covariance, state [p(3), v(3), b(3)].
	CoupledStatic
	// CoupledMoving is the coupled counterpart of DecoupledMoving:
	// state [p(3), v(3), b(3), aT(3)], dim 12.
	CoupledMoving
	// CoupledMovingAug additionally splits the combined relative
	// velocity into the vehicle's own velocity and the target's
	// velocity: state [p(3), vU(3), b(3), aT(3), vT(3)], dim 15.
	CoupledMovingAug
)

func (v Variant) String() string {
	switch v {
	case DecoupledStatic:
		return "decoupled_static"
	case DecoupledMoving:
		return "decoupled_moving"
	case CoupledStatic:
		return "coupled_static"
	case CoupledMoving:
		return "coupled_moving"
	case CoupledMovingAug:
		return "coupled_moving_aug"
	default:
		return "unknown"
	}
}

// IsCoupled reports whether the variant maintains a single covariance
// matrix spanning all three axes, as opposed to three independent
// single-axis filters.
func (v Variant) IsCoupled() bool {
	return v == CoupledStatic || v == CoupledMoving || v == CoupledMovingAug
}

// IsMoving reports whether the variant carries a target-acceleration
// state (i.e. does not assume a stationary target).
func (v Variant) IsMoving() bool {
	return v == DecoupledMoving || v == CoupledMoving || v == CoupledMovingAug
}

// IsAugmented reports whether the variant splits relative velocity
// into separate vehicle and target velocity states.
func (v Variant) IsAugmented() bool {
	return v == CoupledMovingAug
}

// numAxes returns how many spatial axes a single Filter instance of
// this variant spans: 1 for the decoupled variants (one Filter per
// axis) and 3 for the coupled variants (one Filter for x, y, z
// together).
func (v Variant) numAxes() int {
	if v.IsCoupled() {
		return 3
	}
	return 1
}

// blockKind names a per-axis sub-state; blocks() lists the ones
// present, in state order, for a given variant. Every block occupies
// numAxes() contiguous state slots.
type blockKind int

const (
	blockPos blockKind = iota
	blockVel   // relative velocity (non-augmented) or vehicle velocity (augmented)
	blockBias
	blockAccT // target acceleration, moving variants only
	blockVelT // target velocity, augmented variant only
)

func (v Variant) blocks() []blockKind {
	switch v {
	case DecoupledStatic, CoupledStatic:
		return []blockKind{blockPos, blockVel, blockBias}
	case DecoupledMoving, CoupledMoving:
		return []blockKind{blockPos, blockVel, blockBias, blockAccT}
	case CoupledMovingAug:
		return []blockKind{blockPos, blockVel, blockBias, blockAccT, blockVelT}
	default:
		return nil
	}
}

// Dim returns the total state dimension for the variant.
func (v Variant) Dim() int {
	return len(v.blocks()) * v.numAxes()
}

// offset returns the starting index of the given block in the state
// vector, or -1 if the variant does not carry that block.
func (v Variant) offset(k blockKind) int {
	na := v.numAxes()
	for i, b := range v.blocks() {
		if b == k {
			return i * na
		}
	}
	return -1
}

package estimator

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NoiseParams carries the process-noise constants that drive Predict.
// InputVar is the variance of the vehicle acceleration input used to
// propagate position/velocity; BiasVar and AccTVar are the random-walk
// process noise for the GPS bias and target-acceleration states.
type NoiseParams struct {
	InputVar float64
	BiasVar  float64
	AccTVar  float64
}

// InitState seeds a Filter's state and diagonal covariance. Every
// slice must have length equal to the filter's axis count (1 for
// decoupled variants, 3 for coupled). AccT/AccTVar/VelT/VelTVar may be
// nil for variants that do not carry those states.
type InitState struct {
	Pos, Vel, Bias, AccT, VelT             []float64
	PosVar, VelVar, BiasVar, AccTVar, VelTVar []float64
}

// UpdateResult reports the outcome of a single scalar fusion step.
type UpdateResult struct {
	Accepted      bool
	Innovation    float64
	InnovationVar float64
	NIS           float64
	GateThreshold float64
}

// Filter is a single Kalman filter instance implementing one Variant.
// A DecoupledStatic/DecoupledMoving bank runs three Filter instances,
// one per axis; a coupled bank runs a single Filter spanning all
// three axes in one covariance matrix.
type Filter struct {
	variant       Variant
	dim           int
	na            int
	noise         NoiseParams
	biasLimit     float64
	gateThreshold float64
	x             *mat.VecDense
	p             *mat.Dense
	init          bool
}

// New builds an uninitialized Filter for the given variant. Init must
// be called before Predict/Update are used. gateThreshold is the
// one-degree-of-freedom chi-square value each scalar update's NIS is
// gated against; a value <= 0 falls back to the 5% false-alarm level
// (3.84) used by default.
func New(v Variant, noise NoiseParams, biasLimit, gateThreshold float64) *Filter {
	if gateThreshold <= 0 {
		gateThreshold = chiSquareGate95
	}
	return &Filter{
		variant:       v,
		dim:           v.Dim(),
		na:            v.numAxes(),
		noise:         noise,
		biasLimit:     biasLimit,
		gateThreshold: gateThreshold,
	}
}

func (f *Filter) Variant() Variant       { return f.variant }
func (f *Filter) Dim() int               { return f.dim }
func (f *Filter) NumAxes() int           { return f.na }
func (f *Filter) IsInitialized() bool    { return f.init }
func (f *Filter) GateThreshold() float64 { return f.gateThreshold }

// Init seeds the state and a diagonal covariance from InitState.
func (f *Filter) Init(s InitState) error {
	x := make([]float64, f.dim)
	diag := make([]float64, f.dim)

	posOff := f.variant.offset(blockPos)
	velOff := f.variant.offset(blockVel)
	biasOff := f.variant.offset(blockBias)
	accOff := f.variant.offset(blockAccT)
	velTOff := f.variant.offset(blockVelT)

	if err := fillBlock(x, diag, posOff, f.na, s.Pos, s.PosVar); err != nil {
		return err
	}
	if err := fillBlock(x, diag, velOff, f.na, s.Vel, s.VelVar); err != nil {
		return err
	}
	if err := fillBlock(x, diag, biasOff, f.na, s.Bias, s.BiasVar); err != nil {
		return err
	}
	if accOff >= 0 {
		if err := fillBlock(x, diag, accOff, f.na, s.AccT, s.AccTVar); err != nil {
			return err
		}
	}
	if velTOff >= 0 {
		if err := fillBlock(x, diag, velTOff, f.na, s.VelT, s.VelTVar); err != nil {
			return err
		}
	}

	f.x = mat.NewVecDense(f.dim, x)
	f.p = mat.NewDense(f.dim, f.dim, nil)
	for i := 0; i < f.dim; i++ {
		f.p.Set(i, i, diag[i])
	}
	f.init = true
	return nil
}

func fillBlock(x, diag []float64, off, na int, vals, vars []float64) error {
	if off < 0 {
		return nil
	}
	if len(vals) != na || len(vars) != na {
		return errors.New("estimator: init slice length mismatch for filter axis count")
	}
	copy(x[off:off+na], vals)
	copy(diag[off:off+na], vars)
	return nil
}

// velCoefficients returns the coefficient of the primary velocity state
// (v for non-augmented variants, vU for the augmented variant) in the
// position row of F, and the coefficient of the control input in that
// velocity state's row of G.
func (f *Filter) velCoefficients(dt float64) (posVelCoeff, velInputCoeff float64) {
	if f.variant.IsAugmented() {
		return -dt, dt
	}
	return dt, -dt
}

// Predict advances the filter state by dt seconds under a piecewise
// constant vehicle-acceleration input. accel must have length NumAxes().
func (f *Filter) Predict(dt float64, accel []float64) error {
	if !f.init {
		return errors.New("estimator: Predict called before Init")
	}
	if dt <= 0 {
		return errors.New("estimator: non-positive dt")
	}
	if len(accel) != f.na {
		return errors.New("estimator: accel length mismatch")
	}

	F := f.buildF(dt)
	G := f.buildG(dt)
	Q := f.buildQ(G)

	u := mat.NewVecDense(f.na, append([]float64(nil), accel...))

	var xNew mat.VecDense
	xNew.MulVec(F, f.x)
	var gu mat.VecDense
	gu.MulVec(G, u)
	xNew.AddVec(&xNew, &gu)
	f.x = &xNew

	var fp mat.Dense
	fp.Mul(F, f.p)
	var fpft mat.Dense
	fpft.Mul(&fp, F.T())
	fpft.Add(&fpft, Q)
	f.p = &fpft
	f.symmetrize()
	f.clampBias()
	return nil
}

func (f *Filter) buildF(dt float64) *mat.Dense {
	n := f.dim
	F := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		F.Set(i, i, 1)
	}
	posOff := f.variant.offset(blockPos)
	velOff := f.variant.offset(blockVel)
	accOff := f.variant.offset(blockAccT)
	velTOff := f.variant.offset(blockVelT)
	half := 0.5 * dt * dt
	posVelCoeff, _ := f.velCoefficients(dt)

	for a := 0; a < f.na; a++ {
		p := posOff + a
		v := velOff + a
		F.Set(p, v, posVelCoeff)
		if accOff >= 0 {
			acc := accOff + a
			F.Set(p, acc, half)
			if !f.variant.IsAugmented() {
				F.Set(v, acc, dt)
			}
		}
		if velTOff >= 0 {
			vt := velTOff + a
			F.Set(p, vt, dt)
			F.Set(vt, accOff+a, dt)
		}
	}
	return F
}

func (f *Filter) buildG(dt float64) *mat.Dense {
	n, na := f.dim, f.na
	G := mat.NewDense(n, na, nil)
	posOff := f.variant.offset(blockPos)
	velOff := f.variant.offset(blockVel)
	half := 0.5 * dt * dt
	_, velInputCoeff := f.velCoefficients(dt)
	for a := 0; a < na; a++ {
		G.Set(posOff+a, a, -half)
		G.Set(velOff+a, a, velInputCoeff)
	}
	return G
}

func (f *Filter) buildQ(G *mat.Dense) *mat.Dense {
	n := f.dim
	Q := mat.NewDense(n, n, nil)
	var ggt mat.Dense
	ggt.Mul(G, G.T())
	ggt.Scale(f.noise.InputVar, &ggt)
	Q.Add(Q, &ggt)

	biasOff := f.variant.offset(blockBias)
	accOff := f.variant.offset(blockAccT)
	for a := 0; a < f.na; a++ {
		if biasOff >= 0 {
			idx := biasOff + a
			Q.Set(idx, idx, Q.At(idx, idx)+f.noise.BiasVar)
		}
		if accOff >= 0 {
			idx := accOff + a
			Q.Set(idx, idx, Q.At(idx, idx)+f.noise.AccTVar)
		}
	}
	return Q
}

// BuildH returns the measurement row selecting the given observation
// kind and axis for this filter's state layout, or ok=false if this
// variant does not carry the required state (e.g. KindVehicleVelocity
// against a non-augmented filter).
func (f *Filter) BuildH(kind ObservationKind, axis int) (h []float64, ok bool) {
	if axis < 0 || axis >= f.na {
		return nil, false
	}
	h = make([]float64, f.dim)
	posOff := f.variant.offset(blockPos)

	switch kind {
	case KindTargetPosition:
		biasOff := f.variant.offset(blockBias)
		h[posOff+axis] = 1
		h[biasOff+axis] = 1
		return h, true
	case KindRelativePosition:
		h[posOff+axis] = 1
		return h, true
	case KindRelativeVelocity:
		if f.variant.IsAugmented() {
			return nil, false
		}
		velOff := f.variant.offset(blockVel)
		h[velOff+axis] = 1
		return h, true
	case KindVehicleVelocity:
		if !f.variant.IsAugmented() {
			return nil, false
		}
		velOff := f.variant.offset(blockVel)
		h[velOff+axis] = 1
		return h, true
	case KindTargetVelocity:
		if !f.variant.IsAugmented() {
			return nil, false
		}
		off := f.variant.offset(blockVelT)
		h[off+axis] = 1
		return h, true
	default:
		return nil, false
	}
}

// Update fuses a single scalar measurement z, of variance r, observed
// through row h (length Dim()). It applies the chi-square gate and,
// on acceptance, updates state and covariance in place.
func (f *Filter) Update(z, r float64, h []float64) (UpdateResult, error) {
	if !f.init {
		return UpdateResult{}, errors.New("estimator: Update called before Init")
	}
	if len(h) != f.dim {
		return UpdateResult{}, errors.New("estimator: H row length mismatch")
	}

	hv := mat.NewVecDense(f.dim, h)
	var ph mat.VecDense
	ph.MulVec(f.p, hv)
	s := mat.Dot(hv, &ph) + r
	if s < minInnovationVariance {
		return UpdateResult{}, errors.New("estimator: degenerate innovation covariance")
	}

	innov := z - mat.Dot(hv, f.x)
	nis := innov * innov / s

	res := UpdateResult{
		Innovation:    innov,
		InnovationVar: s,
		NIS:           nis,
		GateThreshold: f.gateThreshold,
	}
	if nis > f.gateThreshold {
		res.Accepted = false
		return res, nil
	}

	k := make([]float64, f.dim)
	for i := range k {
		k[i] = ph.AtVec(i) / s
	}
	kv := mat.NewVecDense(f.dim, k)

	var dx mat.VecDense
	dx.ScaleVec(innov, kv)
	f.x.AddVec(f.x, &dx)

	var khp mat.Dense
	khp.Outer(1, kv, &ph)
	f.p.Sub(f.p, &khp)
	f.symmetrize()
	f.clampBias()

	res.Accepted = true
	return res, nil
}

func (f *Filter) symmetrize() {
	n := f.dim
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			avg := 0.5 * (f.p.At(i, j) + f.p.At(j, i))
			f.p.Set(i, j, avg)
			f.p.Set(j, i, avg)
		}
	}
}

func (f *Filter) clampBias() {
	if f.biasLimit <= 0 {
		return
	}
	biasOff := f.variant.offset(blockBias)
	if biasOff < 0 {
		return
	}
	for a := 0; a < f.na; a++ {
		idx := biasOff + a
		b := f.x.AtVec(idx)
		if b > f.biasLimit {
			f.x.SetVec(idx, f.biasLimit)
		} else if b < -f.biasLimit {
			f.x.SetVec(idx, -f.biasLimit)
		}
	}
}

// IsHealthy reports whether the current state and covariance contain
// only finite values.
func (f *Filter) IsHealthy() bool {
	if !f.init {
		return false
	}
	for i := 0; i < f.dim; i++ {
		if !isFinite(f.x.AtVec(i)) {
			return false
		}
		for j := 0; j < f.dim; j++ {
			if !isFinite(f.p.At(i, j)) {
				return false
			}
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (f *Filter) block(k blockKind) []float64 {
	off := f.variant.offset(k)
	if off < 0 {
		return nil
	}
	out := make([]float64, f.na)
	for a := 0; a < f.na; a++ {
		out[a] = f.x.AtVec(off + a)
	}
	return out
}

func (f *Filter) blockVar(k blockKind) []float64 {
	off := f.variant.offset(k)
	if off < 0 {
		return nil
	}
	out := make([]float64, f.na)
	for a := 0; a < f.na; a++ {
		out[a] = f.p.At(off+a, off+a)
	}
	return out
}

func (f *Filter) Position() []float64            { return f.block(blockPos) }
func (f *Filter) Velocity() []float64            { return f.block(blockVel) }
func (f *Filter) Bias() []float64                { return f.block(blockBias) }
func (f *Filter) TargetAcceleration() []float64  { return f.block(blockAccT) }
func (f *Filter) TargetVelocity() []float64      { return f.block(blockVelT) }
func (f *Filter) PositionVar() []float64         { return f.blockVar(blockPos) }
func (f *Filter) VelocityVar() []float64         { return f.blockVar(blockVel) }
func (f *Filter) BiasVar() []float64             { return f.blockVar(blockBias) }

// State returns a copy of the full state vector.
func (f *Filter) State() []float64 {
	out := make([]float64, f.dim)
	for i := range out {
		out[i] = f.x.AtVec(i)
	}
	return out
}

// Covariance returns a copy of the full covariance matrix, row-major.
func (f *Filter) Covariance() [][]float64 {
	out := make([][]float64, f.dim)
	for i := range out {
		out[i] = make([]float64, f.dim)
		for j := range out[i] {
			out[i][j] = f.p.At(i, j)
		}
	}
	return out
}

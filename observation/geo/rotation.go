package geo

import "math"

// SensorRotation names a fixed sensor mount rotation relative to the
// vehicle body frame, the subset of PX4's Rotation enum this module
// exposes as LTEST_SENS_ROT.
type SensorRotation int

const (
	RotationNone SensorRotation = iota
	RotationYaw90
	RotationYaw180
	RotationYaw270
	RotationRoll180
	RotationPitch180
)

// Rotate applies the fixed mount rotation to a sensor-frame vector,
// producing the equivalent body-frame vector.
func (r SensorRotation) Rotate(v [3]float64) [3]float64 {
	switch r {
	case RotationYaw90:
		return [3]float64{-v[1], v[0], v[2]}
	case RotationYaw180:
		return [3]float64{-v[0], -v[1], v[2]}
	case RotationYaw270:
		return [3]float64{v[1], -v[0], v[2]}
	case RotationRoll180:
		return [3]float64{v[0], -v[1], -v[2]}
	case RotationPitch180:
		return [3]float64{-v[0], v[1], -v[2]}
	default:
		return v
	}
}

// Quaternion is duplicated here (rather than imported from
// observation) to keep geo dependency-free of its parent package.
type Quaternion struct {
	W, X, Y, Z float64
}

// RotateBodyToNED rotates a body-frame vector into the NED frame using
// the vehicle's current attitude quaternion.
func RotateBodyToNED(q Quaternion, v [3]float64) [3]float64 {
	// Standard quaternion-vector rotation: v' = q * v * q^-1, expanded
	// into the equivalent rotation-matrix form.
	w, x, y, z := q.W, q.X, q.Y, q.Z
	n := math.Sqrt(w*w + x*x + y*y + z*z)
	if n < 1e-12 {
		return v
	}
	w, x, y, z = w/n, x/n, y/n, z/n

	r00 := 1 - 2*(y*y+z*z)
	r01 := 2 * (x*y - w*z)
	r02 := 2 * (x*z + w*y)
	r10 := 2 * (x*y + w*z)
	r11 := 1 - 2*(x*x+z*z)
	r12 := 2 * (y*z - w*x)
	r20 := 2 * (x*z - w*y)
	r21 := 2 * (y*z + w*x)
	r22 := 1 - 2*(x*x+y*y)

	return [3]float64{
		r00*v[0] + r01*v[1] + r02*v[2],
		r10*v[0] + r11*v[1] + r12*v[2],
		r20*v[0] + r21*v[1] + r22*v[2],
	}
}

// RotateNEDToBody applies the inverse (transpose) rotation.
func RotateNEDToBody(q Quaternion, v [3]float64) [3]float64 {
	conj := Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
	return RotateBodyToNED(conj, v)
}

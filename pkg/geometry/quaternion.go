package geometry

import "math"

// Quaternion represents a rotation in 3D space
type Quaternion struct {
	X, Y, Z, W float64
}

// NewQuaternion returns the identity rotation
func NewQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// NewQuaternionFromAxisAngle creates a rotation of angle radians around axis.
// The axis must be normalized.
func NewQuaternionFromAxisAngle(axis Vector3, angle float64) Quaternion {
	half := angle / 2
	s := math.Sin(half)
	return Quaternion{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: math.Cos(half),
	}
}

// NewQuaternionFromEuler creates a rotation from XYZ-order Euler angles in radians
func NewQuaternionFromEuler(x, y, z float64) Quaternion {
	cx, sx := math.Cos(x/2), math.Sin(x/2)
	cy, sy := math.Cos(y/2), math.Sin(y/2)
	cz, sz := math.Cos(z/2), math.Sin(z/2)
	return Quaternion{
		X: sx*cy*cz + cx*sy*sz,
		Y: cx*sy*cz - sx*cy*sz,
		Z: cx*cy*sz + sx*sy*cz,
		W: cx*cy*cz - sx*sy*sz,
	}
}

// Mul returns the composed rotation q then other (other applied first)
func (q Quaternion) Mul(other Quaternion) Quaternion {
	return Quaternion{
		X: q.X*other.W + q.W*other.X + q.Y*other.Z - q.Z*other.Y,
		Y: q.Y*other.W + q.W*other.Y + q.Z*other.X - q.X*other.Z,
		Z: q.Z*other.W + q.W*other.Z + q.X*other.Y - q.Y*other.X,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// Length returns the quaternion magnitude
func (q Quaternion) Length() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize returns a unit quaternion in the same orientation
func (q Quaternion) Normalize() Quaternion {
	l := q.Length()
	if l == 0 {
		return Quaternion{W: 1}
	}
	return Quaternion{X: q.X / l, Y: q.Y / l, Z: q.Z / l, W: q.W / l}
}

// Conjugate returns the inverse rotation for a unit quaternion
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Rotate applies the rotation to a vector
func (q Quaternion) Rotate(v Vector3) Vector3 {
	// v' = q * (v, 0) * q^-1, expanded
	ix := q.W*v.X + q.Y*v.Z - q.Z*v.Y
	iy := q.W*v.Y + q.Z*v.X - q.X*v.Z
	iz := q.W*v.Z + q.X*v.Y - q.Y*v.X
	iw := -q.X*v.X - q.Y*v.Y - q.Z*v.Z

	return Vector3{
		X: ix*q.W + iw*-q.X + iy*-q.Z - iz*-q.Y,
		Y: iy*q.W + iw*-q.Y + iz*-q.X - ix*-q.Z,
		Z: iz*q.W + iw*-q.Z + ix*-q.Y - iy*-q.X,
	}
}

package geometry

// Plane represents an infinite plane in Hessian normal form: all points p
// with Normal·p + Constant == 0. The normal points into the kept half-space,
// so a point with SignedDistance >= 0 is on the visible side.
type Plane struct {
	Normal   Vector3
	Constant float64
}

// NewPlane creates a plane from a unit normal and signed distance from origin
func NewPlane(normal Vector3, constant float64) Plane {
	return Plane{Normal: normal, Constant: constant}
}

// NewPlaneFromNormalAndPoint creates a plane with the given normal passing
// through the given point. The normal is normalized.
func NewPlaneFromNormalAndPoint(normal, point Vector3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, Constant: -n.Dot(point)}
}

// SignedDistance returns the signed distance from the point to the plane.
// Positive means the point is on the side the normal points to.
func (p Plane) SignedDistance(point Vector3) float64 {
	return p.Normal.Dot(point) + p.Constant
}

// Flip returns the plane with its orientation reversed
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Negate(), Constant: -p.Constant}
}

// CoplanarPoint returns a point on the plane (the projection of the origin)
func (p Plane) CoplanarPoint() Vector3 {
	return p.Normal.Mul(-p.Constant)
}

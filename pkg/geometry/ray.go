package geometry

import "math"

// Ray is a half-line in world space used for element picking
type Ray struct {
	Origin    Vector3
	Direction Vector3 // must be normalized
}

// NewRay creates a ray, normalizing the direction
func NewRay(origin, direction Vector3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vector3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectBox tests the ray against an axis-aligned box using the slab
// method. Returns the entry distance and true on a hit; a ray starting
// inside the box hits at distance 0.
func (r Ray) IntersectBox(box BoundingBox) (float64, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		origin := r.Origin.Component(axis)
		dir := r.Direction.Component(axis)
		lo := box.Min.Component(axis)
		hi := box.Max.Component(axis)

		if dir == 0 {
			if origin < lo || origin > hi {
				return 0, false
			}
			continue
		}

		t1 := (lo - origin) / dir
		t2 := (hi - origin) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}

	if tmax < 0 {
		return 0, false // box entirely behind the ray
	}
	if tmin < 0 {
		return 0, true
	}
	return tmin, true
}

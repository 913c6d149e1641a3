package geometry

import "math"

// BoundingBox represents an axis-aligned bounding box
type BoundingBox struct {
	Min Vector3
	Max Vector3
}

// NewBoundingBox creates an empty bounding box that extends as points are added
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Vector3{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64},
		Max: Vector3{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64},
	}
}

// NewBoundingBoxFromPoints creates a bounding box spanning two corner points
func NewBoundingBoxFromPoints(a, b Vector3) BoundingBox {
	return BoundingBox{Min: a.Min(b), Max: a.Max(b)}
}

// Extend expands the bounding box to include a point
func (b *BoundingBox) Extend(point Vector3) {
	b.Min = b.Min.Min(point)
	b.Max = b.Max.Max(point)
}

// Union expands the bounding box to include another box
func (b *BoundingBox) Union(other BoundingBox) {
	b.Min = b.Min.Min(other.Min)
	b.Max = b.Max.Max(other.Max)
}

// IsEmpty reports whether the box contains no volume (never extended)
func (b BoundingBox) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// Size returns the dimensions of the bounding box
func (b BoundingBox) Size() Vector3 {
	return b.Max.Sub(b.Min)
}

// Center returns the center point of the bounding box
func (b BoundingBox) Center() Vector3 {
	return Vector3{
		X: (b.Min.X + b.Max.X) / 2.0,
		Y: (b.Min.Y + b.Max.Y) / 2.0,
		Z: (b.Min.Z + b.Max.Z) / 2.0,
	}
}

// Diagonal returns the length of the bounding box diagonal
func (b BoundingBox) Diagonal() float64 {
	return b.Size().Length()
}

// Contains reports whether the point lies inside or on the box
func (b BoundingBox) Contains(point Vector3) bool {
	return point.X >= b.Min.X && point.X <= b.Max.X &&
		point.Y >= b.Min.Y && point.Y <= b.Max.Y &&
		point.Z >= b.Min.Z && point.Z <= b.Max.Z
}

// ClosestPoint returns the point on or inside the box closest to the given point
func (b BoundingBox) ClosestPoint(point Vector3) Vector3 {
	return Vector3{
		X: math.Max(b.Min.X, math.Min(point.X, b.Max.X)),
		Y: math.Max(b.Min.Y, math.Min(point.Y, b.Max.Y)),
		Z: math.Max(b.Min.Z, math.Min(point.Z, b.Max.Z)),
	}
}

// ClosestPoints returns the pair of closest points between two boxes.
// When the boxes overlap, the two points coincide and the distance
// between them is zero.
func (b BoundingBox) ClosestPoints(other BoundingBox) (Vector3, Vector3) {
	var p, q Vector3
	for axis := 0; axis < 3; axis++ {
		lo, hi := axisRange(b, axis)
		olo, ohi := axisRange(other, axis)
		switch {
		case hi < olo:
			setAxis(&p, axis, hi)
			setAxis(&q, axis, olo)
		case ohi < lo:
			setAxis(&p, axis, lo)
			setAxis(&q, axis, ohi)
		default:
			// Ranges overlap, pick the midpoint of the intersection
			mid := (math.Max(lo, olo) + math.Min(hi, ohi)) / 2.0
			setAxis(&p, axis, mid)
			setAxis(&q, axis, mid)
		}
	}
	return p, q
}

// Distance returns the minimum distance between two boxes (0 if they overlap)
func (b BoundingBox) Distance(other BoundingBox) float64 {
	p, q := b.ClosestPoints(other)
	return p.Distance(q)
}

func axisRange(b BoundingBox, axis int) (float64, float64) {
	return b.Min.Component(axis), b.Max.Component(axis)
}

func setAxis(v *Vector3, axis int, value float64) {
	switch axis {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	default:
		v.Z = value
	}
}

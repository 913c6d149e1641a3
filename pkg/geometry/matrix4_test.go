package geometry

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func vecNear(a, b Vector3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestComposeTranslation(t *testing.T) {
	m := Compose(NewVector3(1, 2, 3), NewQuaternion(), NewVector3(1, 1, 1))
	result := m.TransformPoint(NewVector3(0, 0, 0))

	expected := NewVector3(1, 2, 3)
	if !vecNear(result, expected, epsilon) {
		t.Errorf("Compose translation failed: expected %v, got %v", expected, result)
	}
}

func TestComposeRotation(t *testing.T) {
	// 90 degrees around Z maps +X to +Y
	q := NewQuaternionFromAxisAngle(NewVector3(0, 0, 1), math.Pi/2)
	m := Compose(NewVector3(0, 0, 0), q, NewVector3(1, 1, 1))
	result := m.TransformPoint(NewVector3(1, 0, 0))

	expected := NewVector3(0, 1, 0)
	if !vecNear(result, expected, epsilon) {
		t.Errorf("Compose rotation failed: expected %v, got %v", expected, result)
	}
}

func TestComposeScale(t *testing.T) {
	m := Compose(NewVector3(0, 0, 0), NewQuaternion(), NewVector3(2, 3, 4))
	result := m.TransformPoint(NewVector3(1, 1, 1))

	expected := NewVector3(2, 3, 4)
	if !vecNear(result, expected, epsilon) {
		t.Errorf("Compose scale failed: expected %v, got %v", expected, result)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	q := NewQuaternionFromEuler(0.3, -0.7, 1.1)
	m := Compose(NewVector3(4, -2, 7), q, NewVector3(2, 0.5, 3))
	inv := m.Inverse()

	p := NewVector3(1.5, -3.25, 0.75)
	result := inv.TransformPoint(m.TransformPoint(p))

	if !vecNear(result, p, 1e-9) {
		t.Errorf("Inverse round-trip failed: expected %v, got %v", p, result)
	}
}

func TestTransformNormalNonUniformScale(t *testing.T) {
	// Under non-uniform scale, a plain direction transform tilts normals;
	// the inverse-transpose must keep them perpendicular.
	m := Compose(NewVector3(0, 0, 0), NewQuaternion(), NewVector3(2, 1, 1))

	// Surface spanned by (1,1,0) direction has normal (1,-1,0)/sqrt2
	tangent := NewVector3(1, 1, 0)
	normal := NewVector3(1, -1, 0).Normalize()

	tt := m.TransformDirection(tangent)
	tn := m.TransformNormal(normal)

	if dot := tt.Dot(tn); math.Abs(dot) > 1e-9 {
		t.Errorf("TransformNormal failed: transformed normal not perpendicular, dot=%v", dot)
	}
	if l := tn.Length(); math.Abs(l-1) > 1e-9 {
		t.Errorf("TransformNormal failed: expected unit length, got %v", l)
	}
}

func TestTransformNormalRotationOnly(t *testing.T) {
	q := NewQuaternionFromAxisAngle(NewVector3(0, 1, 0), math.Pi/2)
	m := Compose(NewVector3(5, 5, 5), q, NewVector3(1, 1, 1))

	// +90 degrees around Y maps +X to -Z
	result := m.TransformNormal(NewVector3(1, 0, 0))
	expected := NewVector3(0, 0, -1)
	if !vecNear(result, expected, 1e-9) {
		t.Errorf("TransformNormal rotation failed: expected %v, got %v", expected, result)
	}
}

func TestQuaternionRotate(t *testing.T) {
	q := NewQuaternionFromAxisAngle(NewVector3(0, 0, 1), math.Pi/2)
	result := q.Rotate(NewVector3(1, 0, 0))

	expected := NewVector3(0, 1, 0)
	if !vecNear(result, expected, epsilon) {
		t.Errorf("Quaternion Rotate failed: expected %v, got %v", expected, result)
	}
}

func TestPlaneSignedDistance(t *testing.T) {
	// Plane z=2 with normal +Z keeps points above it
	p := NewPlaneFromNormalAndPoint(NewVector3(0, 0, 1), NewVector3(0, 0, 2))

	if d := p.SignedDistance(NewVector3(0, 0, 5)); math.Abs(d-3) > epsilon {
		t.Errorf("SignedDistance failed: expected 3, got %v", d)
	}
	if d := p.SignedDistance(NewVector3(7, -4, 0)); math.Abs(d+2) > epsilon {
		t.Errorf("SignedDistance failed: expected -2, got %v", d)
	}

	flipped := p.Flip()
	if d := flipped.SignedDistance(NewVector3(0, 0, 5)); math.Abs(d+3) > epsilon {
		t.Errorf("Flip failed: expected -3, got %v", d)
	}
}

func TestBoundingBoxClosestPoints(t *testing.T) {
	a := NewBoundingBoxFromPoints(NewVector3(0, 0, 0), NewVector3(1, 1, 1))
	b := NewBoundingBoxFromPoints(NewVector3(3, 0, 0), NewVector3(4, 1, 1))

	if d := a.Distance(b); math.Abs(d-2) > epsilon {
		t.Errorf("Box distance failed: expected 2, got %v", d)
	}

	// Overlapping boxes have zero distance
	c := NewBoundingBoxFromPoints(NewVector3(0.5, 0.5, 0.5), NewVector3(2, 2, 2))
	if d := a.Distance(c); d != 0 {
		t.Errorf("Overlapping box distance failed: expected 0, got %v", d)
	}
}

package clip

import (
	"math"
	"testing"

	"github.com/philipparndt/gobim/pkg/geometry"
)

type recordingMaterial struct {
	planes       []geometry.Plane
	intersection bool
	calls        int
}

func (m *recordingMaterial) SetClipPlanes(planes []geometry.Plane, intersection bool) {
	m.planes = planes
	m.intersection = intersection
	m.calls++
}

func TestBoxPlanesKeepInterior(t *testing.T) {
	// Model bounding box (0,0,0)-(10,4,10) with the default box covering it
	bounds := geometry.NewBoundingBoxFromPoints(
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(10, 4, 10),
	)

	e := NewEngine()
	e.SetEnabled(true)
	e.FitBoxTo(bounds)

	planes := e.ActivePlanes()
	if len(planes) != 6 {
		t.Fatalf("expected 6 planes, got %d", len(planes))
	}

	inside := geometry.NewVector3(5, 2, 5)
	for i, p := range planes {
		if p.SignedDistance(inside) < 0 {
			t.Errorf("plane %d rejects interior point: distance %v", i, p.SignedDistance(inside))
		}
	}

	outside := geometry.NewVector3(-1, 2, 5)
	failed := false
	for _, p := range planes {
		if p.SignedDistance(outside) < 0 {
			failed = true
		}
	}
	if !failed {
		t.Error("exterior point passed all 6 plane tests")
	}

	if !e.ContainsPoint(inside) {
		t.Error("ContainsPoint failed for interior point")
	}
	if e.ContainsPoint(outside) {
		t.Error("ContainsPoint accepted exterior point")
	}
}

func TestBoxPlanesPassThroughFaceCenters(t *testing.T) {
	center := geometry.NewVector3(3, -1, 2)
	rotation := geometry.NewQuaternionFromAxisAngle(geometry.NewVector3(0, 1, 0), 0.4)
	scale := geometry.NewVector3(4, 2, 6)

	e := NewEngine()
	e.SetEnabled(true)
	e.SetBox(center, rotation, scale)

	world := geometry.Compose(center, rotation, scale)
	planes := e.ActivePlanes()

	for i, face := range unitFaces {
		facePoint := world.TransformPoint(face.point)
		if d := planes[i].SignedDistance(facePoint); math.Abs(d) > 1e-9 {
			t.Errorf("plane %d does not pass through its face center: distance %v", i, d)
		}
		if l := planes[i].Normal.Length(); math.Abs(l-1) > 1e-9 {
			t.Errorf("plane %d normal not unit length: %v", i, l)
		}
	}
}

func TestBoxNormalsUnderNonUniformScale(t *testing.T) {
	// A rotated, non-uniformly scaled box must still produce normals that
	// are the rotated axis directions with no scale distortion.
	rotation := geometry.NewQuaternionFromAxisAngle(geometry.NewVector3(0, 0, 1), math.Pi/2)
	e := NewEngine()
	e.SetEnabled(true)
	e.SetBox(geometry.NewVector3(0, 0, 0), rotation, geometry.NewVector3(10, 1, 1))

	// Local -X inward normal (face at +X) rotates to -Y
	p := e.ActivePlanes()[0]
	expected := geometry.NewVector3(0, -1, 0)
	if p.Normal.Distance(expected) > 1e-9 {
		t.Errorf("rotated normal wrong: expected %v, got %v", expected, p.Normal)
	}
}

func TestInvertFlipsNormalsAndIntersectionTogether(t *testing.T) {
	m := &recordingMaterial{}
	e := NewEngine()
	e.RegisterMaterial(m)
	e.SetEnabled(true)
	e.FitBoxTo(geometry.NewBoundingBoxFromPoints(
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(2, 2, 2),
	))

	before := e.ActivePlanes()[0].Normal
	if m.intersection {
		t.Error("intersection flag set before invert")
	}

	e.SetInverted(true)

	after := e.ActivePlanes()[0].Normal
	if before.Distance(after.Negate()) > 1e-9 {
		t.Errorf("invert did not negate normals: %v vs %v", before, after)
	}
	if !m.intersection {
		t.Error("intersection flag not set with inverted normals")
	}

	// Interior point is now rejected, exterior direction accepted
	if e.ContainsPoint(geometry.NewVector3(1, 1, 1)) {
		t.Error("inverted box still keeps interior point")
	}
}

func TestModeSwitchSwapsPlaneArrayAtomically(t *testing.T) {
	e := NewEngine()
	e.SetEnabled(true)
	e.FitBoxTo(geometry.NewBoundingBoxFromPoints(
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1, 1, 1),
	))

	boxPlanes := e.ActivePlanes()
	if len(boxPlanes) != 6 {
		t.Fatalf("expected 6 box planes, got %d", len(boxPlanes))
	}

	e.SetMode(ModePlane)

	// The previously returned slice is untouched; a new one was swapped in
	if len(boxPlanes) != 6 {
		t.Error("old plane slice mutated on mode switch")
	}
	if len(e.ActivePlanes()) != 1 {
		t.Errorf("expected 1 plane in plane mode, got %d", len(e.ActivePlanes()))
	}

	e.SetEnabled(false)
	if len(e.ActivePlanes()) != 0 {
		t.Error("disabled engine still has active planes")
	}
}

func TestCutPlaneSides(t *testing.T) {
	// Horizontal cut (Z axis) at offset 2: sample below the plane is on the
	// negative side, above is positive; flip reverses both.
	e := NewEngine()
	e.SetAxis(AxisZ)
	e.SetOffsetRange(geometry.NewBoundingBoxFromPoints(
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(10, 10, 10),
	))
	e.SetOffset(2)

	p := e.CutPlane()
	low := geometry.NewVector3(5, 5, 1.0)
	high := geometry.NewVector3(5, 5, 3.0)

	if p.SignedDistance(low) >= 0 {
		t.Error("sample at 1.0 should be on the clipped side")
	}
	if p.SignedDistance(high) < 0 {
		t.Error("sample at 3.0 should be on the kept side")
	}

	e.SetInverted(true)
	p = e.CutPlane()
	if p.SignedDistance(low) < 0 {
		t.Error("flip=true: sample at 1.0 should now be kept")
	}
	if p.SignedDistance(high) >= 0 {
		t.Error("flip=true: sample at 3.0 should now be clipped")
	}
}

func TestOffsetClampedToRange(t *testing.T) {
	e := NewEngine()
	e.SetOffsetRange(geometry.NewBoundingBoxFromPoints(
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(10, 4, 6),
	))

	e.SetOffset(100)
	if got := e.Offset(); got != 6 {
		t.Errorf("offset not clamped to max: got %v", got)
	}
	e.SetOffset(-100)
	if got := e.Offset(); got != 0 {
		t.Errorf("offset not clamped to min: got %v", got)
	}
}

func TestMaterialNotifiedOnEveryChange(t *testing.T) {
	m := &recordingMaterial{}
	e := NewEngine()
	e.RegisterMaterial(m)

	calls := m.calls
	e.SetEnabled(true)
	if m.calls <= calls {
		t.Error("material not notified on enable")
	}

	calls = m.calls
	e.SetBox(geometry.NewVector3(1, 1, 1), geometry.NewQuaternion(), geometry.NewVector3(2, 2, 2))
	if m.calls <= calls {
		t.Error("material not notified on box change")
	}

	e.UnregisterMaterial(m)
	calls = m.calls
	e.SetEnabled(false)
	if m.calls != calls {
		t.Error("unregistered material still notified")
	}
}

package app

import (
	"log"
	"math"
	"sync"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// View is a named camera preset
type View string

const (
	ViewTop    View = "top"
	ViewBottom View = "bottom"
	ViewFront  View = "front"
	ViewBack   View = "back"
	ViewLeft   View = "left"
	ViewRight  View = "right"
	ViewIso    View = "iso"
)

// Camera holds the viewer camera state. Position and target are validated
// every frame; a non-finite value, which an interrupted orbit interaction
// can produce, snaps back to the last healthy pose instead of blanking the
// viewport.
type Camera struct {
	mu       sync.Mutex
	position geometry.Vector3
	target   geometry.Vector3
	fov      float64

	lastGoodPosition geometry.Vector3
	lastGoodTarget   geometry.Vector3
}

const defaultFov = 45.0

func NewCamera() *Camera {
	c := &Camera{fov: defaultFov}
	c.position = geometry.NewVector3(10, 10, 10)
	c.lastGoodPosition = c.position
	return c
}

// Pose returns the current position and target
func (c *Camera) Pose() (position, target geometry.Vector3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position, c.target
}

// Fov returns the vertical field of view in degrees
func (c *Camera) Fov() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

// SetPose moves the camera. Non-finite input is rejected outright.
func (c *Camera) SetPose(position, target geometry.Vector3) {
	if !position.IsFinite() || !target.IsFinite() {
		log.Printf("Warning: ignoring non-finite camera pose")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.target = target
	c.lastGoodPosition = position
	c.lastGoodTarget = target
}

// Heal restores the last healthy pose if the current one went non-finite.
// Called once per frame; returns true when a repair happened.
func (c *Camera) Heal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.position.IsFinite() && c.target.IsFinite() {
		c.lastGoodPosition = c.position
		c.lastGoodTarget = c.target
		return false
	}
	log.Printf("Warning: camera pose went non-finite, restoring previous pose")
	c.position = c.lastGoodPosition
	c.target = c.lastGoodTarget
	return true
}

// FrameBox positions the camera so the box fills the view from the given
// preset direction. An empty box leaves the camera untouched.
func (c *Camera) FrameBox(box geometry.BoundingBox, view View) {
	if box.IsEmpty() {
		return
	}
	center := box.Center()
	distance := frameDistance(box.Diagonal(), c.Fov())

	var dir geometry.Vector3
	switch view {
	case ViewTop:
		dir = geometry.NewVector3(0, 0, 1)
	case ViewBottom:
		dir = geometry.NewVector3(0, 0, -1)
	case ViewFront:
		dir = geometry.NewVector3(0, -1, 0)
	case ViewBack:
		dir = geometry.NewVector3(0, 1, 0)
	case ViewLeft:
		dir = geometry.NewVector3(-1, 0, 0)
	case ViewRight:
		dir = geometry.NewVector3(1, 0, 0)
	default:
		dir = geometry.NewVector3(1, -1, 1).Normalize()
	}

	c.SetPose(center.Add(dir.Mul(distance)), center)
}

// frameDistance returns the camera distance that fits a sphere of the given
// diameter into the vertical field of view, with a small margin.
func frameDistance(diameter, fovDegrees float64) float64 {
	if diameter <= 0 {
		return 10
	}
	half := fovDegrees * math.Pi / 360
	return diameter / 2 / math.Tan(half) * 1.2
}

// worldUp is the z-up convention building models use
var worldUp = geometry.NewVector3(0, 0, 1)

// RayThrough unprojects a surface pixel into a world-space ray through the
// camera. ok is false for a degenerate pose or viewport.
func (c *Camera) RayThrough(x, y, width, height float64) (geometry.Ray, bool) {
	if width <= 0 || height <= 0 {
		return geometry.Ray{}, false
	}

	position, target := c.Pose()
	forward := target.Sub(position)
	if forward.Length() < 1e-12 {
		return geometry.Ray{}, false
	}
	forward = forward.Normalize()

	right := forward.Cross(worldUp)
	if right.Length() < 1e-9 {
		// Looking straight up or down, pick an arbitrary horizontal right
		right = geometry.NewVector3(1, 0, 0)
	}
	right = right.Normalize()
	up := right.Cross(forward)

	tanHalf := math.Tan(c.Fov() * math.Pi / 360)
	aspect := width / height
	ndcX := 2*x/width - 1
	ndcY := 1 - 2*y/height

	dir := forward.
		Add(right.Mul(ndcX * tanHalf * aspect)).
		Add(up.Mul(ndcY * tanHalf))
	return geometry.NewRay(position, dir), true
}

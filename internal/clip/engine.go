// Package clip owns the half-space clipping planes applied to rendered
// surfaces: either a single axis-aligned cut plane or the six face planes of
// a transformable section box.
package clip

import (
	"sync"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// Mode selects which geometry governs the active plane set
type Mode string

const (
	ModeBox   Mode = "box"
	ModePlane Mode = "plane"
)

// Axis identifies a world axis for plane-mode clipping
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Material is a rendering material registered for clipping. Implementations
// belong to the rendering collaborator; the engine pushes every plane-set
// change so no stale clip state is rendered for more than one frame.
type Material interface {
	SetClipPlanes(planes []geometry.Plane, intersection bool)
}

// localFace is one face of the unit section box: face center and inward
// normal in box-local coordinates.
type localFace struct {
	point  geometry.Vector3
	normal geometry.Vector3
}

var unitFaces = [6]localFace{
	{geometry.NewVector3(0.5, 0, 0), geometry.NewVector3(-1, 0, 0)},
	{geometry.NewVector3(-0.5, 0, 0), geometry.NewVector3(1, 0, 0)},
	{geometry.NewVector3(0, 0.5, 0), geometry.NewVector3(0, -1, 0)},
	{geometry.NewVector3(0, -0.5, 0), geometry.NewVector3(0, 1, 0)},
	{geometry.NewVector3(0, 0, 0.5), geometry.NewVector3(0, 0, -1)},
	{geometry.NewVector3(0, 0, -0.5), geometry.NewVector3(0, 0, 1)},
}

// Engine recomputes and distributes the active clip-plane array. Exactly one
// of {disabled, plane mode, box mode} governs the array at any time; every
// recompute swaps in a freshly built slice so consumers iterating the old
// reference never observe a transient plane count.
type Engine struct {
	mu sync.Mutex

	enabled  bool
	mode     Mode
	inverted bool

	// Section box transform
	boxCenter   geometry.Vector3
	boxRotation geometry.Quaternion
	boxScale    geometry.Vector3

	// Single-plane state
	axis   Axis
	offset float64
	minOff float64
	maxOff float64

	planes    []geometry.Plane
	materials map[Material]struct{}
}

// NewEngine creates a disabled engine in box mode with a unit box at origin
func NewEngine() *Engine {
	return &Engine{
		mode:        ModeBox,
		boxRotation: geometry.NewQuaternion(),
		boxScale:    geometry.NewVector3(1, 1, 1),
		axis:        AxisZ,
		materials:   make(map[Material]struct{}),
	}
}

// ActivePlanes returns the live plane-array reference. Consumers must re-read
// it on every material application; the engine never mutates a returned
// slice, it swaps in a new one.
func (e *Engine) ActivePlanes() []geometry.Plane {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.planes
}

// Enabled reports whether clipping is active
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// ActiveMode returns the current mode
func (e *Engine) ActiveMode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Inverted reports whether the clip keeps the inside instead of the outside
func (e *Engine) Inverted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inverted
}

// SetEnabled turns clipping on or off and immediately re-derives the planes
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	e.enabled = enabled
	e.recompute()
	e.mu.Unlock()
}

// SetMode switches between box and plane clipping. The active plane array is
// swapped atomically; consumers never see a mixed set.
func (e *Engine) SetMode(mode Mode) {
	e.mu.Lock()
	e.mode = mode
	e.recompute()
	e.mu.Unlock()
}

// SetInverted flips which side of the clip geometry is kept. The normal flip
// and the material intersection flag always change together in this one
// call; they are a single piece of state.
func (e *Engine) SetInverted(inverted bool) {
	e.mu.Lock()
	e.inverted = inverted
	e.recompute()
	e.mu.Unlock()
}

// SetBox sets the section box world transform (center, rotation, non-uniform
// scale where scale is the full edge length per axis) and re-derives the six
// face planes. Cheap enough to call on every transform-gizmo drag event.
func (e *Engine) SetBox(center geometry.Vector3, rotation geometry.Quaternion, scale geometry.Vector3) {
	e.mu.Lock()
	e.boxCenter = center
	e.boxRotation = rotation
	e.boxScale = scale
	e.recompute()
	e.mu.Unlock()
}

// Box returns the current section box transform
func (e *Engine) Box() (geometry.Vector3, geometry.Quaternion, geometry.Vector3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.boxCenter, e.boxRotation, e.boxScale
}

// FitBoxTo centers the section box on the given bounds with no rotation
func (e *Engine) FitBoxTo(bounds geometry.BoundingBox) {
	e.SetBox(bounds.Center(), geometry.NewQuaternion(), bounds.Size())
}

// SetAxis selects the world axis for plane mode
func (e *Engine) SetAxis(axis Axis) {
	e.mu.Lock()
	e.axis = axis
	e.recompute()
	e.mu.Unlock()
}

// CutAxis returns the plane-mode axis
func (e *Engine) CutAxis() Axis {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.axis
}

// SetOffset moves the plane-mode cut plane along its axis, clamped to the
// model-derived offset range.
func (e *Engine) SetOffset(offset float64) {
	e.mu.Lock()
	if offset < e.minOff {
		offset = e.minOff
	}
	if offset > e.maxOff {
		offset = e.maxOff
	}
	e.offset = offset
	e.recompute()
	e.mu.Unlock()
}

// Offset returns the plane-mode offset
func (e *Engine) Offset() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offset
}

// OffsetRange returns the (min, max) bounds the offset is clamped to
func (e *Engine) OffsetRange() (float64, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.minOff, e.maxOff
}

// SetOffsetRange derives the plane-mode offset bounds from model bounds for
// the current axis and re-clamps the offset into them.
func (e *Engine) SetOffsetRange(bounds geometry.BoundingBox) {
	e.mu.Lock()
	e.minOff = bounds.Min.Component(int(e.axis))
	e.maxOff = bounds.Max.Component(int(e.axis))
	if e.offset < e.minOff {
		e.offset = e.minOff
	}
	if e.offset > e.maxOff {
		e.offset = e.maxOff
	}
	e.recompute()
	e.mu.Unlock()
}

// CutPlane returns the single plane-mode plane regardless of enabled state.
// The visibility engine uses it to derive the cut hidden set.
func (e *Engine) CutPlane() geometry.Plane {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cutPlane()
}

func (e *Engine) cutPlane() geometry.Plane {
	normal := geometry.Vector3{}
	switch e.axis {
	case AxisX:
		normal.X = 1
	case AxisY:
		normal.Y = 1
	default:
		normal.Z = 1
	}
	if e.inverted {
		normal = normal.Negate()
	}
	var point geometry.Vector3
	switch e.axis {
	case AxisX:
		point.X = e.offset
	case AxisY:
		point.Y = e.offset
	default:
		point.Z = e.offset
	}
	return geometry.NewPlaneFromNormalAndPoint(normal, point)
}

// RegisterMaterial adds a material to receive plane updates. The current
// state is pushed immediately so lazily created materials never render one
// frame unclipped.
func (e *Engine) RegisterMaterial(m Material) {
	e.mu.Lock()
	e.materials[m] = struct{}{}
	m.SetClipPlanes(e.planes, e.enabled && e.mode == ModeBox && e.inverted)
	e.mu.Unlock()
}

// UnregisterMaterial stops plane updates for a material
func (e *Engine) UnregisterMaterial(m Material) {
	e.mu.Lock()
	delete(e.materials, m)
	e.mu.Unlock()
}

// recompute rebuilds the plane array from the governing state and notifies
// registered materials. Must be called with the lock held. Idempotent: the
// same state always yields the same planes.
func (e *Engine) recompute() {
	switch {
	case !e.enabled:
		e.planes = nil
	case e.mode == ModeBox:
		e.planes = e.boxPlanes()
	default:
		e.planes = []geometry.Plane{e.cutPlane()}
	}

	intersection := e.enabled && e.mode == ModeBox && e.inverted
	for m := range e.materials {
		m.SetClipPlanes(e.planes, intersection)
	}
}

// boxPlanes derives the six world-space face planes of the section box.
// Each local face point is transformed by the box world matrix and each
// inward normal by that matrix's normal matrix, so normals stay unit length
// and perpendicular under rotation and non-uniform scale. When inverted the
// normals are negated and the intersection fill rule applies on materials.
func (e *Engine) boxPlanes() []geometry.Plane {
	world := geometry.Compose(e.boxCenter, e.boxRotation, e.boxScale)
	planes := make([]geometry.Plane, 6)
	for i, face := range unitFaces {
		point := world.TransformPoint(face.point)
		normal := world.TransformNormal(face.normal)
		if e.inverted {
			normal = normal.Negate()
		}
		planes[i] = geometry.NewPlaneFromNormalAndPoint(normal, point)
	}
	return planes
}

// ContainsPoint reports whether a world point is on the kept side of every
// active plane. With no active planes everything is kept.
func (e *Engine) ContainsPoint(point geometry.Vector3) bool {
	for _, p := range e.ActivePlanes() {
		if p.SignedDistance(point) < 0 {
			return false
		}
	}
	return true
}

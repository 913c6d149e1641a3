package tools

import (
	"sync"

	"github.com/philipparndt/gobim/internal/clip"
)

// Drag-to-offset precision multipliers. The base mapping scales pixel travel
// by the offset range over the viewport span, so a full-viewport drag sweeps
// roughly the whole model; the multipliers slow that down for control or
// speed it up for coarse passes.
const (
	CutSpeedDefault = 0.78
	CutSpeedFine    = 0.28
	CutSpeedFast    = 1.75
)

// CutNudgeFraction is the offset step of one keyboard nudge, as a fraction
// of the full offset range.
const CutNudgeFraction = 0.02

// CutTool drags the single plane-mode cut plane along its world axis. A
// horizontal cut (axis Z) follows vertical pointer travel, vertical cuts
// follow horizontal travel. The pointer-up handler also fires for releases
// outside the render surface, so a drag never sticks.
type CutTool struct {
	mu       sync.Mutex
	services Services

	dragging bool
	lastX    float64
	lastY    float64
}

func NewCutTool(services Services) *CutTool {
	return &CutTool{services: services}
}

func (t *CutTool) ID() ID         { return Cut }
func (t *CutTool) Cursor() string { return "row-resize" }

func (t *CutTool) Enable() error { return nil }

func (t *CutTool) Disable() error {
	t.mu.Lock()
	t.dragging = false
	t.mu.Unlock()
	return nil
}

// Dragging reports whether a drag is in progress
func (t *CutTool) Dragging() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dragging
}

func (t *CutTool) OnPointerDown(ev PointerEvent) {
	if ev.Button != ButtonLeft {
		return
	}
	t.mu.Lock()
	t.dragging = true
	t.lastX = ev.X
	t.lastY = ev.Y
	t.mu.Unlock()
}

func (t *CutTool) OnPointerMove(ev PointerEvent, buttonHeld bool) {
	t.mu.Lock()
	if !t.dragging {
		t.mu.Unlock()
		return
	}
	dx := ev.X - t.lastX
	dy := ev.Y - t.lastY
	t.lastX = ev.X
	t.lastY = ev.Y
	t.mu.Unlock()

	t.applyDrag(dx, dy, ev.Mods)
}

func (t *CutTool) OnPointerUp(ev PointerEvent) {
	t.mu.Lock()
	t.dragging = false
	t.mu.Unlock()
}

func (t *CutTool) applyDrag(dx, dy float64, mods Modifiers) {
	width, height := t.services.ViewportSize()
	min, max := t.services.CutOffsetRange()
	span := max - min
	if span <= 0 {
		return
	}

	var pixels, surface float64
	if t.services.CutAxis() == clip.AxisZ {
		// Dragging up raises the plane
		pixels = -dy
		surface = height
	} else {
		pixels = dx
		surface = width
	}
	if surface <= 0 {
		return
	}

	delta := pixels * span / surface * speedFor(mods)
	if delta == 0 {
		return
	}
	t.services.SetCutOffset(t.services.CutOffset() + delta)
}

func speedFor(mods Modifiers) float64 {
	switch {
	case mods.Alt:
		return CutSpeedFine
	case mods.Shift:
		return CutSpeedFast
	default:
		return CutSpeedDefault
	}
}

// OnKeyDown handles axis cycling and fixed-step nudges
func (t *CutTool) OnKeyDown(ev KeyEvent) {
	switch ev.Key {
	case "a":
		t.services.CycleCutAxis()
	case "ArrowUp", "ArrowRight":
		t.nudge(1)
	case "ArrowDown", "ArrowLeft":
		t.nudge(-1)
	}
}

func (t *CutTool) nudge(direction float64) {
	min, max := t.services.CutOffsetRange()
	span := max - min
	if span <= 0 {
		return
	}
	t.services.SetCutOffset(t.services.CutOffset() + direction*span*CutNudgeFraction)
}

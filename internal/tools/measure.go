package tools

import (
	"fmt"
	"sync"

	"github.com/philipparndt/gobim/internal/measure"
)

// MeasureTool creates measurements with a two-click gesture. Between the two
// clicks a live preview follows the pointer. The shortest mode measures
// element to element instead of point to point, and the coordinate mode is a
// single-pick readout with no persistent entity.
type MeasureTool struct {
	mu       sync.Mutex
	services Services

	mode       measure.Mode
	start      *Pick
	previewing bool
}

func NewMeasureTool(services Services) *MeasureTool {
	return &MeasureTool{services: services, mode: measure.ModePoint}
}

func (t *MeasureTool) ID() ID         { return Measure }
func (t *MeasureTool) Cursor() string { return "crosshair" }

func (t *MeasureTool) Enable() error { return nil }

func (t *MeasureTool) Disable() error {
	t.resetGesture()
	return nil
}

// Mode returns the active measurement mode
func (t *MeasureTool) Mode() measure.Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// SetMode switches the measurement mode and abandons any half-finished
// gesture.
func (t *MeasureTool) SetMode(mode measure.Mode) error {
	switch mode {
	case measure.ModePoint, measure.ModeLaser, measure.ModeShortest, measure.ModeCoords:
	default:
		return fmt.Errorf("unknown measurement mode: %s", mode)
	}
	t.resetGesture()
	t.mu.Lock()
	t.mode = mode
	t.mu.Unlock()
	return nil
}

func (t *MeasureTool) resetGesture() {
	t.mu.Lock()
	hadPreview := t.previewing
	t.start = nil
	t.previewing = false
	t.mu.Unlock()
	if hadPreview {
		t.services.ClearMeasurementPreview()
	}
}

func (t *MeasureTool) OnPointerDown(ev PointerEvent) {
	if ev.Button != ButtonLeft {
		return
	}
	pick, ok := t.services.PickAt(ev.X, ev.Y)
	if !ok {
		return
	}

	t.mu.Lock()
	mode := t.mode
	start := t.start
	t.mu.Unlock()

	if mode == measure.ModeCoords {
		t.services.ReportCoordinates(pick.Point)
		return
	}

	if start == nil {
		t.mu.Lock()
		t.start = &pick
		t.mu.Unlock()
		return
	}

	t.finish(mode, *start, pick)
}

func (t *MeasureTool) finish(mode measure.Mode, start, end Pick) {
	defer t.resetGesture()

	a, b := start.Point, end.Point
	if mode == measure.ModeShortest {
		boxA, errA := t.services.ElementBox(start.Key)
		boxB, errB := t.services.ElementBox(end.Key)
		if errA != nil || errB != nil {
			t.services.Notify("error", "shortest distance needs element bounds for both picks")
			return
		}
		a, b = boxA.ClosestPoints(boxB)
	}

	if _, err := t.services.AddMeasurement(mode, a, b); err != nil {
		t.services.Notify("error", fmt.Sprintf("measurement failed: %v", err))
	}
}

// OnPointerMove drives the live preview between the first and second click
func (t *MeasureTool) OnPointerMove(ev PointerEvent, buttonHeld bool) {
	t.mu.Lock()
	start := t.start
	t.mu.Unlock()
	if start == nil {
		return
	}

	pick, ok := t.services.PickAt(ev.X, ev.Y)
	if !ok {
		return
	}
	t.mu.Lock()
	t.previewing = true
	t.mu.Unlock()
	t.services.PreviewMeasurement(start.Point, pick.Point)
}

func (t *MeasureTool) OnKeyDown(ev KeyEvent) {
	if ev.Key == "Escape" {
		t.resetGesture()
	}
}

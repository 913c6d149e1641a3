package tools

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/philipparndt/gobim/internal/clip"
	"github.com/philipparndt/gobim/internal/measure"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// fakeServices records every call a tool makes
type fakeServices struct {
	hoverRequests []geometry.Vector3

	pick      Pick
	pickOK    bool
	pickCalls int

	replaced []scene.IDMap
	toggled  []scene.ElementKey
	cleared  int

	measurements  []measure.Mode
	measureStarts []geometry.Vector3
	measureEnds   []geometry.Vector3
	previews      int
	previewClears int
	boxes         map[scene.ElementKey]geometry.BoundingBox
	coords        []geometry.Vector3

	cutAxis    clip.Axis
	cutOffset  float64
	cutMin     float64
	cutMax     float64
	axisCycles int

	sectionModes []GizmoMode
	modelModes   []GizmoMode
	resets       int

	width  float64
	height float64

	notices []string
}

func newFakeServices() *fakeServices {
	return &fakeServices{
		boxes:   make(map[scene.ElementKey]geometry.BoundingBox),
		cutAxis: clip.AxisZ,
		cutMin:  0,
		cutMax:  10,
		width:   1000,
		height:  800,
	}
}

func (f *fakeServices) RequestHover(x, y float64) {
	f.hoverRequests = append(f.hoverRequests, geometry.NewVector3(x, y, 0))
}

func (f *fakeServices) PickAt(x, y float64) (Pick, bool) {
	f.pickCalls++
	return f.pick, f.pickOK
}

func (f *fakeServices) ReplaceSelection(keys scene.IDMap) { f.replaced = append(f.replaced, keys) }
func (f *fakeServices) ToggleSelection(key scene.ElementKey) {
	f.toggled = append(f.toggled, key)
}
func (f *fakeServices) ClearSelection() { f.cleared++ }

func (f *fakeServices) AddMeasurement(mode measure.Mode, start, end geometry.Vector3) (string, error) {
	f.measurements = append(f.measurements, mode)
	f.measureStarts = append(f.measureStarts, start)
	f.measureEnds = append(f.measureEnds, end)
	return fmt.Sprintf("measurement-%d", len(f.measurements)), nil
}

func (f *fakeServices) PreviewMeasurement(start, end geometry.Vector3) { f.previews++ }
func (f *fakeServices) ClearMeasurementPreview()                       { f.previewClears++ }

func (f *fakeServices) ElementBox(key scene.ElementKey) (geometry.BoundingBox, error) {
	box, ok := f.boxes[key]
	if !ok {
		return geometry.BoundingBox{}, errors.New("no bounds")
	}
	return box, nil
}

func (f *fakeServices) ReportCoordinates(point geometry.Vector3) {
	f.coords = append(f.coords, point)
}

func (f *fakeServices) CutAxis() clip.Axis                 { return f.cutAxis }
func (f *fakeServices) CycleCutAxis()                      { f.axisCycles++ }
func (f *fakeServices) CutOffset() float64                 { return f.cutOffset }
func (f *fakeServices) CutOffsetRange() (float64, float64) { return f.cutMin, f.cutMax }
func (f *fakeServices) SetCutOffset(offset float64)        { f.cutOffset = offset }

func (f *fakeServices) SetSectionGizmoMode(mode GizmoMode) {
	f.sectionModes = append(f.sectionModes, mode)
}
func (f *fakeServices) SetModelGizmoMode(mode GizmoMode) {
	f.modelModes = append(f.modelModes, mode)
}
func (f *fakeServices) ResetModelTransform() { f.resets++ }

func (f *fakeServices) ViewportSize() (float64, float64) { return f.width, f.height }

func (f *fakeServices) Notify(level, message string) {
	f.notices = append(f.notices, level+": "+message)
}

// fakeSurface records cursor changes
type fakeSurface struct {
	cursors []string
}

func (s *fakeSurface) SetCursor(glyph string) { s.cursors = append(s.cursors, glyph) }

// hookTool records lifecycle calls
type hookTool struct {
	id     ID
	events *[]string
}

func (t *hookTool) ID() ID         { return t.id }
func (t *hookTool) Cursor() string { return string(t.id) + "-cursor" }
func (t *hookTool) Enable() error {
	*t.events = append(*t.events, "enable "+string(t.id))
	return nil
}
func (t *hookTool) Disable() error {
	*t.events = append(*t.events, "disable "+string(t.id))
	return nil
}

func TestMachineDisablesBeforeEnabling(t *testing.T) {
	var events []string
	surface := &fakeSurface{}
	m := NewMachine(surface,
		&hookTool{id: Select, events: &events},
		&hookTool{id: Cut, events: &events},
	)

	if err := m.SetActive(Select); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if err := m.SetActive(Cut); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	want := []string{"enable select", "disable select", "enable cut"}
	if len(events) != len(want) {
		t.Fatalf("lifecycle events failed: expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("lifecycle order failed at %d: expected %q, got %q", i, want[i], events[i])
		}
	}
	if len(surface.cursors) != 2 || surface.cursors[1] != "cut-cursor" {
		t.Errorf("cursor update failed: got %v", surface.cursors)
	}
}

func TestMachineSameToolIsNoOp(t *testing.T) {
	var events []string
	m := NewMachine(nil, &hookTool{id: Select, events: &events})

	if err := m.SetActive(Select); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if err := m.SetActive(Select); err != nil {
		t.Fatalf("repeated SetActive failed: %v", err)
	}

	if len(events) != 1 {
		t.Errorf("no-op activation failed: expected 1 event, got %v", events)
	}
}

func TestMachineUnknownTool(t *testing.T) {
	m := NewMachine(nil)
	if err := m.SetActive("lasso"); err == nil {
		t.Error("expected error for unknown tool, got nil")
	}
}

func TestSelectHoverOnePerFrame(t *testing.T) {
	services := newFakeServices()
	tool := NewSelectTool(services)

	for i := 0; i < 20; i++ {
		tool.OnPointerMove(PointerEvent{X: float64(i), Y: float64(i)}, false)
	}
	tool.OnFrame()
	tool.OnFrame() // nothing pending

	if len(services.hoverRequests) != 1 {
		t.Fatalf("hover throttling failed: expected 1 request, got %d", len(services.hoverRequests))
	}
	got := services.hoverRequests[0]
	if got.X != 19 || got.Y != 19 {
		t.Errorf("hover coordinates failed: expected (19, 19), got (%v, %v)", got.X, got.Y)
	}
}

func TestSelectClickReplacesSelection(t *testing.T) {
	services := newFakeServices()
	key := scene.ElementKey{ModelID: "model-1", LocalID: 7}
	services.pick = Pick{Key: key}
	services.pickOK = true
	tool := NewSelectTool(services)

	tool.OnPointerDown(PointerEvent{X: 100, Y: 100, Button: ButtonLeft})
	tool.OnPointerUp(PointerEvent{X: 102, Y: 101, Button: ButtonLeft})

	if len(services.replaced) != 1 {
		t.Fatalf("click selection failed: expected 1 replace, got %d", len(services.replaced))
	}
	if !services.replaced[0].Has(key) {
		t.Error("replaced selection does not contain the picked element")
	}
}

func TestSelectDragDoesNotSelect(t *testing.T) {
	services := newFakeServices()
	services.pickOK = true
	tool := NewSelectTool(services)

	tool.OnPointerDown(PointerEvent{X: 100, Y: 100, Button: ButtonLeft})
	tool.OnPointerUp(PointerEvent{X: 100 + DragThresholdPx + 1, Y: 100, Button: ButtonLeft})

	if services.pickCalls != 0 || len(services.replaced) != 0 {
		t.Errorf("drag guard failed: expected no selection activity, got %d picks, %d replaces",
			services.pickCalls, len(services.replaced))
	}
}

func TestSelectCtrlTogglesMembership(t *testing.T) {
	services := newFakeServices()
	key := scene.ElementKey{ModelID: "model-1", LocalID: 3}
	services.pick = Pick{Key: key}
	services.pickOK = true
	tool := NewSelectTool(services)

	tool.OnPointerDown(PointerEvent{X: 50, Y: 50, Button: ButtonLeft})
	tool.OnPointerUp(PointerEvent{X: 50, Y: 50, Button: ButtonLeft, Mods: Modifiers{Ctrl: true}})

	if len(services.toggled) != 1 || services.toggled[0] != key {
		t.Errorf("ctrl toggle failed: got %v", services.toggled)
	}
	if len(services.replaced) != 0 {
		t.Error("ctrl click must not replace the selection")
	}
}

func TestSelectEmptyClickClearsSelection(t *testing.T) {
	services := newFakeServices()
	tool := NewSelectTool(services)

	tool.OnPointerDown(PointerEvent{X: 10, Y: 10, Button: ButtonLeft})
	tool.OnPointerUp(PointerEvent{X: 10, Y: 10, Button: ButtonLeft})

	if services.cleared != 1 {
		t.Errorf("empty click failed: expected 1 clear, got %d", services.cleared)
	}
}

func TestMeasureTwoClickGesture(t *testing.T) {
	services := newFakeServices()
	services.pickOK = true
	tool := NewMeasureTool(services)

	services.pick = Pick{Point: geometry.NewVector3(0, 0, 0)}
	tool.OnPointerDown(PointerEvent{Button: ButtonLeft})

	services.pick = Pick{Point: geometry.NewVector3(3, 4, 0)}
	tool.OnPointerMove(PointerEvent{X: 1, Y: 1}, false)
	tool.OnPointerDown(PointerEvent{Button: ButtonLeft})

	if services.previews != 1 {
		t.Errorf("preview failed: expected 1 update, got %d", services.previews)
	}
	if services.previewClears != 1 {
		t.Errorf("preview cleanup failed: expected 1 clear, got %d", services.previewClears)
	}
	if len(services.measurements) != 1 || services.measurements[0] != measure.ModePoint {
		t.Fatalf("measurement creation failed: got %v", services.measurements)
	}
	dist := services.measureEnds[0].Sub(services.measureStarts[0]).Length()
	if math.Abs(dist-5) > 1e-9 {
		t.Errorf("measurement endpoints failed: expected distance 5, got %v", dist)
	}
}

func TestMeasureEscapeAbandonsGesture(t *testing.T) {
	services := newFakeServices()
	services.pickOK = true
	tool := NewMeasureTool(services)

	tool.OnPointerDown(PointerEvent{Button: ButtonLeft})
	tool.OnPointerMove(PointerEvent{}, false)
	tool.OnKeyDown(KeyEvent{Key: "Escape"})
	tool.OnPointerDown(PointerEvent{Button: ButtonLeft})

	if len(services.measurements) != 0 {
		t.Errorf("abandoned gesture failed: expected no measurements, got %d", len(services.measurements))
	}
	if services.previewClears != 1 {
		t.Errorf("preview cleanup failed: expected 1 clear, got %d", services.previewClears)
	}
}

func TestMeasureShortestUsesElementBoxes(t *testing.T) {
	services := newFakeServices()
	services.pickOK = true
	keyA := scene.ElementKey{ModelID: "model-1", LocalID: 1}
	keyB := scene.ElementKey{ModelID: "model-1", LocalID: 2}
	services.boxes[keyA] = geometry.NewBoundingBoxFromPoints(
		geometry.NewVector3(0, 0, 0), geometry.NewVector3(1, 1, 1))
	services.boxes[keyB] = geometry.NewBoundingBoxFromPoints(
		geometry.NewVector3(4, 0, 0), geometry.NewVector3(5, 1, 1))

	tool := NewMeasureTool(services)
	if err := tool.SetMode(measure.ModeShortest); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}

	services.pick = Pick{Key: keyA, Point: geometry.NewVector3(0.5, 0.5, 1)}
	tool.OnPointerDown(PointerEvent{Button: ButtonLeft})
	services.pick = Pick{Key: keyB, Point: geometry.NewVector3(4.5, 0.5, 1)}
	tool.OnPointerDown(PointerEvent{Button: ButtonLeft})

	if len(services.measurements) != 1 {
		t.Fatalf("shortest measurement failed: expected 1, got %d", len(services.measurements))
	}
	dist := services.measureEnds[0].Sub(services.measureStarts[0]).Length()
	if math.Abs(dist-3) > 1e-9 {
		t.Errorf("shortest distance failed: expected 3, got %v", dist)
	}
}

func TestMeasureShortestMissingBoxNotifies(t *testing.T) {
	services := newFakeServices()
	services.pickOK = true
	tool := NewMeasureTool(services)
	if err := tool.SetMode(measure.ModeShortest); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}

	services.pick = Pick{Key: scene.ElementKey{ModelID: "model-1", LocalID: 9}}
	tool.OnPointerDown(PointerEvent{Button: ButtonLeft})
	tool.OnPointerDown(PointerEvent{Button: ButtonLeft})

	if len(services.measurements) != 0 {
		t.Error("missing bounds must not create a measurement")
	}
	if len(services.notices) != 1 {
		t.Fatalf("missing bounds failed: expected 1 notice, got %v", services.notices)
	}
}

func TestMeasureCoordsReadout(t *testing.T) {
	services := newFakeServices()
	services.pickOK = true
	services.pick = Pick{Point: geometry.NewVector3(1, 2, 3)}
	tool := NewMeasureTool(services)
	if err := tool.SetMode(measure.ModeCoords); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}

	tool.OnPointerDown(PointerEvent{Button: ButtonLeft})
	tool.OnPointerDown(PointerEvent{Button: ButtonLeft})

	if len(services.coords) != 2 {
		t.Fatalf("coords readout failed: expected 2 readouts, got %d", len(services.coords))
	}
	if len(services.measurements) != 0 {
		t.Error("coords mode must not persist measurements")
	}
}

func TestMeasureRejectsUnknownMode(t *testing.T) {
	tool := NewMeasureTool(newFakeServices())
	if err := tool.SetMode("area"); err == nil {
		t.Error("expected error for unknown mode, got nil")
	}
}

func TestCutDragMapsPixelsToOffset(t *testing.T) {
	services := newFakeServices()
	services.cutOffset = 5
	tool := NewCutTool(services)

	tool.OnPointerDown(PointerEvent{X: 100, Y: 400, Button: ButtonLeft})
	tool.OnPointerMove(PointerEvent{X: 100, Y: 320, Button: ButtonLeft}, true)

	// 80 px up over 800 px height across a range of 10, default speed
	want := 5 + 80.0/800.0*10*CutSpeedDefault
	if math.Abs(services.cutOffset-want) > 1e-9 {
		t.Errorf("drag mapping failed: expected offset %v, got %v", want, services.cutOffset)
	}
}

func TestCutSpeedModifiers(t *testing.T) {
	cases := []struct {
		name  string
		mods  Modifiers
		speed float64
	}{
		{"fine", Modifiers{Alt: true}, CutSpeedFine},
		{"fast", Modifiers{Shift: true}, CutSpeedFast},
		{"default", Modifiers{}, CutSpeedDefault},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			services := newFakeServices()
			tool := NewCutTool(services)
			tool.OnPointerDown(PointerEvent{Y: 100, Button: ButtonLeft})
			tool.OnPointerMove(PointerEvent{Y: 60, Mods: tc.mods, Button: ButtonLeft}, true)

			want := 40.0 / 800.0 * 10 * tc.speed
			if math.Abs(services.cutOffset-want) > 1e-9 {
				t.Errorf("%s speed failed: expected %v, got %v", tc.name, want, services.cutOffset)
			}
		})
	}
}

func TestCutVerticalAxisUsesHorizontalDrag(t *testing.T) {
	services := newFakeServices()
	services.cutAxis = clip.AxisX
	tool := NewCutTool(services)

	tool.OnPointerDown(PointerEvent{X: 100, Y: 100, Button: ButtonLeft})
	tool.OnPointerMove(PointerEvent{X: 200, Y: 100, Button: ButtonLeft}, true)

	want := 100.0 / 1000.0 * 10 * CutSpeedDefault
	if math.Abs(services.cutOffset-want) > 1e-9 {
		t.Errorf("horizontal drag failed: expected %v, got %v", want, services.cutOffset)
	}

	// Vertical travel must not move a vertical cut plane
	before := services.cutOffset
	tool.OnPointerMove(PointerEvent{X: 200, Y: 300, Button: ButtonLeft}, true)
	if services.cutOffset != before {
		t.Errorf("axis isolation failed: expected %v, got %v", before, services.cutOffset)
	}
}

func TestCutGlobalReleaseEndsDrag(t *testing.T) {
	services := newFakeServices()
	tool := NewCutTool(services)

	tool.OnPointerDown(PointerEvent{Y: 100, Button: ButtonLeft})
	tool.OnPointerUp(PointerEvent{})
	if tool.Dragging() {
		t.Fatal("drag termination failed: still dragging after release")
	}

	tool.OnPointerMove(PointerEvent{Y: 50}, false)
	if services.cutOffset != 0 {
		t.Errorf("post-release move failed: expected offset 0, got %v", services.cutOffset)
	}
}

func TestCutKeyboardNudgeAndAxisCycle(t *testing.T) {
	services := newFakeServices()
	tool := NewCutTool(services)

	tool.OnKeyDown(KeyEvent{Key: "ArrowUp"})
	want := 10 * CutNudgeFraction
	if math.Abs(services.cutOffset-want) > 1e-9 {
		t.Errorf("nudge failed: expected %v, got %v", want, services.cutOffset)
	}
	tool.OnKeyDown(KeyEvent{Key: "ArrowDown"})
	if math.Abs(services.cutOffset) > 1e-9 {
		t.Errorf("nudge back failed: expected 0, got %v", services.cutOffset)
	}

	tool.OnKeyDown(KeyEvent{Key: "a"})
	if services.axisCycles != 1 {
		t.Errorf("axis cycle failed: expected 1, got %d", services.axisCycles)
	}
}

func TestSectionToolModeKeys(t *testing.T) {
	services := newFakeServices()
	tool := NewSectionTool(services)

	if err := tool.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	tool.OnKeyDown(KeyEvent{Key: "r"})
	tool.OnKeyDown(KeyEvent{Key: "s"})

	want := []GizmoMode{GizmoTranslate, GizmoRotate, GizmoScale}
	if len(services.sectionModes) != len(want) {
		t.Fatalf("gizmo modes failed: expected %v, got %v", want, services.sectionModes)
	}
	for i := range want {
		if services.sectionModes[i] != want[i] {
			t.Errorf("gizmo mode %d failed: expected %v, got %v", i, want[i], services.sectionModes[i])
		}
	}
}

func TestTransformToolResetAndModes(t *testing.T) {
	services := newFakeServices()
	tool := NewTransformTool(services)

	if err := tool.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	tool.OnKeyDown(KeyEvent{Key: "r"})
	tool.OnKeyDown(KeyEvent{Key: "Escape"})

	if len(services.modelModes) != 2 || services.modelModes[1] != GizmoRotate {
		t.Errorf("transform modes failed: got %v", services.modelModes)
	}
	if services.resets != 1 {
		t.Errorf("reset failed: expected 1, got %d", services.resets)
	}
}

package tools

import (
	"math"
	"sync"

	"github.com/philipparndt/gobim/internal/scene"
)

// DragThresholdPx is the pointer travel beyond which a press is treated as a
// camera drag instead of a selection click.
const DragThresholdPx = 5.0

// SelectTool performs hover highlighting and click selection. Hover hit-tests
// are coalesced to at most one per frame; a press that travels further than
// DragThresholdPx before release commits no selection change.
type SelectTool struct {
	mu       sync.Mutex
	services Services

	pendingHover bool
	hoverX       float64
	hoverY       float64

	pressed bool
	downX   float64
	downY   float64
}

func NewSelectTool(services Services) *SelectTool {
	return &SelectTool{services: services}
}

func (t *SelectTool) ID() ID         { return Select }
func (t *SelectTool) Cursor() string { return "default" }

func (t *SelectTool) Enable() error { return nil }

func (t *SelectTool) Disable() error {
	t.mu.Lock()
	t.pendingHover = false
	t.pressed = false
	t.mu.Unlock()
	return nil
}

func (t *SelectTool) OnPointerDown(ev PointerEvent) {
	if ev.Button != ButtonLeft {
		return
	}
	t.mu.Lock()
	t.pressed = true
	t.downX = ev.X
	t.downY = ev.Y
	t.mu.Unlock()
}

func (t *SelectTool) OnPointerMove(ev PointerEvent, buttonHeld bool) {
	if buttonHeld {
		// Camera drag in progress, no hover updates
		return
	}
	t.mu.Lock()
	t.pendingHover = true
	t.hoverX = ev.X
	t.hoverY = ev.Y
	t.mu.Unlock()
}

// OnFrame issues at most one hover hit-test per frame, for the most recent
// pointer position seen since the last frame.
func (t *SelectTool) OnFrame() {
	t.mu.Lock()
	if !t.pendingHover {
		t.mu.Unlock()
		return
	}
	t.pendingHover = false
	x, y := t.hoverX, t.hoverY
	t.mu.Unlock()

	t.services.RequestHover(x, y)
}

func (t *SelectTool) OnPointerUp(ev PointerEvent) {
	t.mu.Lock()
	if !t.pressed {
		t.mu.Unlock()
		return
	}
	t.pressed = false
	dx := ev.X - t.downX
	dy := ev.Y - t.downY
	t.mu.Unlock()

	if math.Hypot(dx, dy) > DragThresholdPx {
		return
	}

	pick, ok := t.services.PickAt(ev.X, ev.Y)
	if !ok {
		if !ev.Mods.Ctrl {
			t.services.ClearSelection()
		}
		return
	}

	if ev.Mods.Ctrl {
		t.services.ToggleSelection(pick.Key)
		return
	}
	keys := scene.IDMap{}
	keys.Add(pick.Key)
	t.services.ReplaceSelection(keys)
}

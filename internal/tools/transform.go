package tools

import "sync"

// TransformTool moves and rotates the loaded model as a whole. Scaling is not
// offered; the gizmo sub-modes are translate and rotate only, and a reset
// returns the model to the transform captured when it was loaded.
type TransformTool struct {
	mu       sync.Mutex
	services Services
	mode     GizmoMode
}

func NewTransformTool(services Services) *TransformTool {
	return &TransformTool{services: services, mode: GizmoTranslate}
}

func (t *TransformTool) ID() ID         { return Transform }
func (t *TransformTool) Cursor() string { return "grab" }

func (t *TransformTool) Enable() error {
	t.setMode(t.Mode())
	return nil
}

func (t *TransformTool) Disable() error { return nil }

// Mode returns the active gizmo sub-mode
func (t *TransformTool) Mode() GizmoMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

func (t *TransformTool) setMode(mode GizmoMode) {
	t.mu.Lock()
	t.mode = mode
	t.mu.Unlock()
	t.services.SetModelGizmoMode(mode)
}

func (t *TransformTool) OnKeyDown(ev KeyEvent) {
	switch ev.Key {
	case "t":
		t.setMode(GizmoTranslate)
	case "r":
		t.setMode(GizmoRotate)
	case "Escape":
		t.services.ResetModelTransform()
	}
}

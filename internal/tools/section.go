package tools

import "sync"

// SectionTool edits the clip box through a gizmo owned by the render layer.
// The tool itself only switches the gizmo sub-mode; box changes arrive at the
// clip engine through the orchestrator, coalesced to one update per frame.
type SectionTool struct {
	mu       sync.Mutex
	services Services
	mode     GizmoMode
}

func NewSectionTool(services Services) *SectionTool {
	return &SectionTool{services: services, mode: GizmoTranslate}
}

func (t *SectionTool) ID() ID         { return Section }
func (t *SectionTool) Cursor() string { return "move" }

func (t *SectionTool) Enable() error {
	t.setMode(t.Mode())
	return nil
}

func (t *SectionTool) Disable() error { return nil }

// Mode returns the active gizmo sub-mode
func (t *SectionTool) Mode() GizmoMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

func (t *SectionTool) setMode(mode GizmoMode) {
	t.mu.Lock()
	t.mode = mode
	t.mu.Unlock()
	t.services.SetSectionGizmoMode(mode)
}

func (t *SectionTool) OnKeyDown(ev KeyEvent) {
	switch ev.Key {
	case "t":
		t.setMode(GizmoTranslate)
	case "r":
		t.setMode(GizmoRotate)
	case "s":
		t.setMode(GizmoScale)
	}
}

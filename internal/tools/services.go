package tools

import (
	"github.com/philipparndt/gobim/internal/clip"
	"github.com/philipparndt/gobim/internal/measure"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// GizmoMode selects the edit sub-mode of the section box or model gizmo
type GizmoMode string

const (
	GizmoTranslate GizmoMode = "translate"
	GizmoRotate    GizmoMode = "rotate"
	GizmoScale     GizmoMode = "scale"
)

// Pick is the result of a surface hit-test
type Pick struct {
	Key   scene.ElementKey
	Point geometry.Vector3
}

// Services is the facade the orchestrator exposes to the tools. Tools never
// touch the engines directly; every effect goes through here so the
// orchestrator can sequence it against loads and flushes.
type Services interface {
	// RequestHover issues an asynchronous hover hit-test at the given
	// surface position. Stale results are discarded by the highlight
	// coordinator, so callers fire and forget.
	RequestHover(x, y float64)

	// PickAt hit-tests the scene at the given surface position. ok is
	// false when nothing was hit.
	PickAt(x, y float64) (Pick, bool)

	// Selection operations
	ReplaceSelection(keys scene.IDMap)
	ToggleSelection(key scene.ElementKey)
	ClearSelection()

	// Measurement operations
	AddMeasurement(mode measure.Mode, start, end geometry.Vector3) (string, error)
	PreviewMeasurement(start, end geometry.Vector3)
	ClearMeasurementPreview()
	ElementBox(key scene.ElementKey) (geometry.BoundingBox, error)
	ReportCoordinates(point geometry.Vector3)

	// Cut plane operations
	CutAxis() clip.Axis
	CycleCutAxis()
	CutOffset() float64
	CutOffsetRange() (min, max float64)
	SetCutOffset(offset float64)

	// Gizmo operations
	SetSectionGizmoMode(mode GizmoMode)
	SetModelGizmoMode(mode GizmoMode)
	ResetModelTransform()

	// ViewportSize returns the render-surface extent in pixels
	ViewportSize() (width, height float64)

	// Notify surfaces a user-visible message
	Notify(level, message string)
}

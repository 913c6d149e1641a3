package app

import (
	"context"
	"fmt"
	"log"

	"github.com/philipparndt/gobim/internal/clip"
	"github.com/philipparndt/gobim/internal/measure"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/internal/tools"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// toolServices adapts the orchestrator to the facade the tools expect
type toolServices struct {
	app *App
}

var _ tools.Services = (*toolServices)(nil)

// RequestHover resolves a hover hit-test asynchronously. The serial taken
// before the raycast lets the coordinator drop results that arrive after a
// newer request.
func (s *toolServices) RequestHover(x, y float64) {
	a := s.app
	ray, ok := a.rayAt(x, y)
	if !ok {
		return
	}
	serial := a.highlights.BeginHover()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pickTimeout)
		defer cancel()

		hit, err := a.index.Raycast(ctx, ray, a.visibility.Applied())
		if err != nil || hit == nil {
			a.highlights.CompleteHover(serial, nil)
			return
		}
		a.highlights.CompleteHover(serial, &hit.Key)
	}()
}

// PickAt resolves a synchronous hit-test, bounded by the pick timeout
func (s *toolServices) PickAt(x, y float64) (tools.Pick, bool) {
	a := s.app
	ray, ok := a.rayAt(x, y)
	if !ok {
		return tools.Pick{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), pickTimeout)
	defer cancel()

	hit, err := a.index.Raycast(ctx, ray, a.visibility.Applied())
	if err != nil || hit == nil {
		return tools.Pick{}, false
	}
	return tools.Pick{Key: hit.Key, Point: hit.Point}, true
}

func (s *toolServices) ReplaceSelection(keys scene.IDMap) {
	if err := s.app.highlights.Select(keys); err != nil {
		log.Printf("Warning: applying selection: %v", err)
	}
	s.app.bus.Publish(SelectionChangedEvent{Count: s.app.highlights.Selection().Count()})
}

func (s *toolServices) ToggleSelection(key scene.ElementKey) {
	if err := s.app.highlights.Toggle(key); err != nil {
		log.Printf("Warning: toggling selection: %v", err)
	}
	s.app.bus.Publish(SelectionChangedEvent{Count: s.app.highlights.Selection().Count()})
}

func (s *toolServices) ClearSelection() {
	if err := s.app.highlights.ClearSelection(); err != nil {
		log.Printf("Warning: clearing selection: %v", err)
	}
	s.app.bus.Publish(SelectionChangedEvent{Count: 0})
}

func (s *toolServices) AddMeasurement(mode measure.Mode, start, end geometry.Vector3) (string, error) {
	id := s.app.measures.Add(mode, start, end)
	s.app.history.Record("measure", string(mode))
	s.app.bus.Publish(MeasurementChangedEvent{Count: s.app.measures.Count()})
	return id, nil
}

// PreviewMeasurement drives the transient between-clicks visual
func (s *toolServices) PreviewMeasurement(start, end geometry.Vector3) {
	a := s.app
	a.mu.Lock()
	if a.preview == nil && a.visualFactory != nil {
		a.preview = a.visualFactory("measurement-preview")
	}
	preview := a.preview
	a.mu.Unlock()

	if preview == nil {
		return
	}
	meters := end.Sub(start).Length()
	preview.Update(start, end, start.Midpoint(end), measure.FormatMeters(meters))
}

func (s *toolServices) ClearMeasurementPreview() {
	s.app.clearPreview()
}

func (a *App) clearPreview() {
	a.mu.Lock()
	preview := a.preview
	a.preview = nil
	a.mu.Unlock()
	if preview != nil {
		preview.Dispose()
	}
}

func (s *toolServices) ElementBox(key scene.ElementKey) (geometry.BoundingBox, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pickTimeout)
	defer cancel()
	return s.app.provider.Box(ctx, key)
}

func (s *toolServices) ReportCoordinates(point geometry.Vector3) {
	s.app.Notify("info", fmt.Sprintf("x=%.3f y=%.3f z=%.3f", point.X, point.Y, point.Z))
}

func (s *toolServices) CutAxis() clip.Axis { return s.app.clip.CutAxis() }
func (s *toolServices) CutOffset() float64 { return s.app.clip.Offset() }

func (s *toolServices) CutOffsetRange() (float64, float64) {
	return s.app.clip.OffsetRange()
}

func (s *toolServices) SetCutOffset(offset float64) {
	s.app.SetCutOffset(offset)
}

func (s *toolServices) CycleCutAxis() {
	var next clip.Axis
	switch s.app.clip.CutAxis() {
	case clip.AxisX:
		next = clip.AxisY
	case clip.AxisY:
		next = clip.AxisZ
	default:
		next = clip.AxisX
	}
	s.app.SetCutAxis(next)
}

func (s *toolServices) SetSectionGizmoMode(mode tools.GizmoMode) {
	s.app.mu.Lock()
	s.app.gizmos.section = mode
	s.app.mu.Unlock()
}

func (s *toolServices) SetModelGizmoMode(mode tools.GizmoMode) {
	s.app.mu.Lock()
	s.app.gizmos.model = mode
	s.app.mu.Unlock()
}

func (s *toolServices) ResetModelTransform() {
	s.app.ResetModelTransform()
}

func (s *toolServices) ViewportSize() (float64, float64) {
	s.app.mu.Lock()
	defer s.app.mu.Unlock()
	return s.app.viewport.width, s.app.viewport.height
}

func (s *toolServices) Notify(level, message string) {
	s.app.Notify(level, message)
}

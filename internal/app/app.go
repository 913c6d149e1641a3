// Package app is the orchestrator: it owns the engines, sequences model
// load and unload, routes tool effects, and publishes state-change events
// for the HTTP layer.
package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/philipparndt/gobim/internal/accel"
	"github.com/philipparndt/gobim/internal/clip"
	"github.com/philipparndt/gobim/internal/filter"
	"github.com/philipparndt/gobim/internal/hilite"
	"github.com/philipparndt/gobim/internal/measure"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/internal/tools"
	"github.com/philipparndt/gobim/internal/visibility"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// pickTimeout bounds synchronous hit-tests issued by tools
const pickTimeout = 2 * time.Second

// RayAtFunc converts surface pixel coordinates into a world-space ray.
// ok is false while no projection is available, e.g. before the first frame.
type RayAtFunc func(x, y float64) (geometry.Ray, bool)

// ModelState holds the loaded model and its load bookkeeping
type ModelState struct {
	current *scene.Model
	loading bool
}

// TransformState holds the whole-model placement and the baseline captured
// at load time for reset.
type TransformState struct {
	position geometry.Vector3
	rotation geometry.Quaternion
	baseline geometry.Vector3
	baseRot  geometry.Quaternion
}

// ViewportState holds the render-surface extent reported by the client
type ViewportState struct {
	width  float64
	height float64
}

// GizmoState holds the sub-modes of the section and model gizmos
type GizmoState struct {
	section tools.GizmoMode
	model   tools.GizmoMode
}

// FilterState holds the active property filter and its last evaluation
type FilterState struct {
	active    filter.Filter
	matched   int
	excluded  int
	colorized scene.IDMap
}

// MaterialSource is the optional capability of a highlighter collaborator
// whose highlight materials are created lazily by the renderer. The
// orchestrator hands it the arm callback to invoke after creating
// materials, and registers the reported materials with the clip engine on
// the next frame so they never render unclipped.
type MaterialSource interface {
	NotifyMaterialsCreated(arm func())
	HighlightMaterials() []clip.Material
}

// Options wires the orchestrator's collaborators
type Options struct {
	Provider    scene.Provider
	Hider       visibility.Hider
	Highlighter hilite.Highlighter
	Colorizer   filter.Colorizer
	Surface     tools.CursorSurface
	RayAt       RayAtFunc
	Visuals     measure.VisualFactory

	VisibilityBatchSize int
	FilterBatchSize     int
	IndexBuildTimeout   time.Duration
}

// App owns all viewer state. All mutating entry points are safe for
// concurrent use.
type App struct {
	mu sync.Mutex

	provider  scene.Provider
	rayAt     RayAtFunc
	materials MaterialSource
	colorizer filter.Colorizer

	model     ModelState
	transform TransformState
	viewport  ViewportState
	gizmos    GizmoState
	filters   FilterState

	clip       *clip.Engine
	visibility *visibility.Engine
	measures   *measure.Engine
	highlights *hilite.Coordinator
	index      *accel.Manager
	camera     *Camera
	machine    *tools.Machine

	bus     *Bus
	history *History
	flusher *flushQueue

	preview       measure.Visual
	visualFactory measure.VisualFactory
	visBatchSize  int
	filterBatch   int
}

func New(opts Options) *App {
	if opts.VisibilityBatchSize <= 0 {
		opts.VisibilityBatchSize = visibility.DefaultBatchSize
	}
	if opts.FilterBatchSize <= 0 {
		opts.FilterBatchSize = filter.DefaultBatchSize
	}
	if opts.IndexBuildTimeout <= 0 {
		opts.IndexBuildTimeout = accel.DefaultBuildTimeout
	}

	a := &App{
		provider:      opts.Provider,
		rayAt:         opts.RayAt,
		colorizer:     opts.Colorizer,
		clip:          clip.NewEngine(),
		visibility:    visibility.NewEngine(opts.Hider),
		highlights:    hilite.NewCoordinator(opts.Highlighter),
		camera:        NewCamera(),
		bus:           NewBus(),
		history:       NewHistory(),
		visualFactory: opts.Visuals,
		visBatchSize:  opts.VisibilityBatchSize,
		filterBatch:   opts.FilterBatchSize,
	}
	a.filters.active = filter.Default()
	a.filters.colorized = scene.NewIDMap()
	a.transform.rotation = geometry.NewQuaternion()
	a.transform.baseRot = geometry.NewQuaternion()

	if src, ok := opts.Highlighter.(MaterialSource); ok {
		a.materials = src
		src.NotifyMaterialsCreated(a.highlights.MarkMaterialsCreated)
	}

	a.measures = measure.NewEngine(opts.Visuals)

	a.index = accel.NewManager(accel.BVHBuilder{}, a.providerRaycast,
		accel.WithBuildTimeout(opts.IndexBuildTimeout))

	a.flusher = newFlushQueue(a.flushVisibility)

	services := &toolServices{app: a}
	a.machine = tools.NewMachine(opts.Surface,
		tools.NewSelectTool(services),
		tools.NewMeasureTool(services),
		tools.NewCutTool(services),
		tools.NewSectionTool(services),
		tools.NewTransformTool(services),
	)
	if err := a.machine.SetActive(tools.Select); err != nil {
		log.Printf("Warning: could not activate select tool: %v", err)
	}
	return a
}

// Engine accessors used by the HTTP layer and tests

func (a *App) Clip() *clip.Engine              { return a.clip }
func (a *App) Visibility() *visibility.Engine  { return a.visibility }
func (a *App) Measurements() *measure.Engine   { return a.measures }
func (a *App) Highlights() *hilite.Coordinator { return a.highlights }
func (a *App) Camera() *Camera                 { return a.camera }
func (a *App) Tools() *tools.Machine           { return a.machine }
func (a *App) Events() *Bus                    { return a.bus }
func (a *App) History() *History               { return a.history }
func (a *App) Index() *accel.Manager           { return a.index }

// Model returns the loaded model, or nil
func (a *App) Model() *scene.Model {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.current
}

// SetViewport records the render-surface extent
func (a *App) SetViewport(width, height float64) {
	a.mu.Lock()
	a.viewport.width = width
	a.viewport.height = height
	a.mu.Unlock()
}

// Viewport returns the last reported render-surface extent
func (a *App) Viewport() (width, height float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewport.width, a.viewport.height
}

// ActivateTool switches the active tool and publishes the change
func (a *App) ActivateTool(id tools.ID) error {
	if err := a.machine.SetActive(id); err != nil {
		return err
	}
	a.bus.Publish(ToolChangedEvent{Tool: string(id)})
	return nil
}

// Frame is the per-frame tick: camera self-heal, tool frame work, and the
// lazy highlight-material handshake. Materials the renderer created since
// the last frame are registered with the clip engine here.
func (a *App) Frame() {
	a.camera.Heal()
	a.machine.Frame()
	if a.highlights.ConsumeNeedsRefresh() && a.materials != nil {
		for _, m := range a.materials.HighlightMaterials() {
			a.clip.RegisterMaterial(m)
		}
	}
}

// providerRaycast is the linear fallback behind the spatial index
func (a *App) providerRaycast(ctx context.Context, ray geometry.Ray, hidden scene.IDMap) (*scene.Hit, error) {
	model := a.Model()
	if model == nil {
		return nil, scene.ErrNotFound
	}
	return a.provider.Raycast(ctx, model.ID, ray, hidden)
}

// HideSelected moves the current selection into the manual hidden set
func (a *App) HideSelected() {
	keys := a.highlights.Selection()
	if keys.IsEmpty() {
		return
	}
	a.visibility.HideManually(keys.Keys()...)
	if err := a.highlights.ClearSelection(); err != nil {
		log.Printf("Warning: clearing selection: %v", err)
	}
	a.history.Record("hide", fmt.Sprintf("%d elements", keys.Count()))
	a.RequestFlush()
	a.bus.Publish(SelectionChangedEvent{Count: 0})
}

// IsolateSelected shows only the current selection until Restore
func (a *App) IsolateSelected() {
	keys := a.highlights.Selection()
	if keys.IsEmpty() {
		return
	}
	a.visibility.Isolate(keys)
	a.history.Record("isolate", fmt.Sprintf("%d elements", keys.Count()))
	a.bus.Publish(VisibilityChangedEvent{Hidden: a.visibility.Applied().Count()})
}

// RestoreIsolation ends an isolate session
func (a *App) RestoreIsolation() {
	if !a.visibility.Isolating() {
		return
	}
	a.visibility.Restore()
	a.history.Record("restore", "")
	a.bus.Publish(VisibilityChangedEvent{Hidden: a.visibility.Applied().Count()})
}

// UnhideAll clears every visibility source and shows everything
func (a *App) UnhideAll() {
	a.visibility.UnhideAll()
	a.history.Record("unhide_all", "")
	a.bus.Publish(VisibilityChangedEvent{Hidden: 0})
}

// SetView applies a camera preset framed on the model, or on the selection
// when one exists.
func (a *App) SetView(view View) {
	box := a.frameTarget()
	if box.IsEmpty() {
		return
	}
	a.camera.FrameBox(box, view)
	a.history.Record("view", string(view))
}

// FrameSelection fits the camera to the selection, falling back to the model
func (a *App) FrameSelection() {
	a.SetView(ViewIso)
}

func (a *App) frameTarget() geometry.BoundingBox {
	model := a.Model()
	if model == nil {
		return geometry.NewBoundingBox()
	}

	selection := a.highlights.Selection()
	if selection.IsEmpty() {
		return model.Bounds
	}

	box := geometry.NewBoundingBox()
	for _, key := range selection.Keys() {
		if el := model.Element(key.LocalID); el != nil {
			box.Union(el.Box)
		}
	}
	if box.IsEmpty() {
		return model.Bounds
	}
	return box
}

// SetFilter replaces the active property filter and reevaluates it
func (a *App) SetFilter(f filter.Filter) {
	a.mu.Lock()
	a.filters.active = f
	a.mu.Unlock()
	a.history.Record("filter", string(f.Operator))
	a.RequestFlush()
}

// ActiveFilter returns the current property filter
func (a *App) ActiveFilter() filter.Filter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filters.active
}

// ImportFilter merges interchange JSON into the active filter
func (a *App) ImportFilter(data []byte) error {
	f, err := filter.Import(data, a.ActiveFilter())
	if err != nil {
		return err
	}
	a.SetFilter(f)
	return nil
}

// ExportFilter serializes the active filter
func (a *App) ExportFilter() ([]byte, error) {
	return a.ActiveFilter().Export()
}

// FilterResult returns the counts of the last filter evaluation
func (a *App) FilterResult() (matched, excluded int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filters.matched, a.filters.excluded
}

// SetCutEnabled toggles clipping and reconciles derived visibility
func (a *App) SetCutEnabled(enabled bool) {
	a.clip.SetEnabled(enabled)
	a.history.Record("cut", fmt.Sprintf("enabled=%v", enabled))
	a.RequestFlush()
	a.publishCut()
}

// SetCutMode switches between box and plane clipping
func (a *App) SetCutMode(mode clip.Mode) {
	a.clip.SetMode(mode)
	a.RequestFlush()
	a.publishCut()
}

// SetCutInverted flips the kept side
func (a *App) SetCutInverted(inverted bool) {
	a.clip.SetInverted(inverted)
	a.RequestFlush()
	a.publishCut()
}

// SetCutOffset moves the plane-mode cut plane
func (a *App) SetCutOffset(offset float64) {
	a.clip.SetOffset(offset)
	a.RequestFlush()
	a.publishCut()
}

// SetCutAxis selects the plane-mode axis
func (a *App) SetCutAxis(axis clip.Axis) {
	a.clip.SetAxis(axis)
	a.RequestFlush()
	a.publishCut()
}

// SetCutBox updates the box-mode transform, e.g. from the section gizmo.
// Callers stream gizmo drags through here; the flush queue coalesces the
// derived visibility work.
func (a *App) SetCutBox(center geometry.Vector3, rotation geometry.Quaternion, scale geometry.Vector3) {
	a.clip.SetBox(center, rotation, scale)
	a.RequestFlush()
}

func (a *App) publishCut() {
	a.bus.Publish(CutChangedEvent{
		Enabled:  a.clip.Enabled(),
		Mode:     string(a.clip.ActiveMode()),
		Inverted: a.clip.Inverted(),
		Offset:   a.clip.Offset(),
	})
}

// SetModelTransform places the whole model
func (a *App) SetModelTransform(position geometry.Vector3, rotation geometry.Quaternion) {
	a.mu.Lock()
	a.transform.position = position
	a.transform.rotation = rotation
	a.mu.Unlock()
	a.history.Record("transform", "")
}

// ModelTransform returns the whole-model placement
func (a *App) ModelTransform() (geometry.Vector3, geometry.Quaternion) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transform.position, a.transform.rotation
}

// ResetModelTransform restores the placement captured at load time
func (a *App) ResetModelTransform() {
	a.mu.Lock()
	a.transform.position = a.transform.baseline
	a.transform.rotation = a.transform.baseRot
	a.mu.Unlock()
	a.history.Record("transform_reset", "")
}

// RestoreMeasurements replaces the live measurement set with a stored one.
// Each measurement gets a fresh id and visual.
func (a *App) RestoreMeasurements(measurements []measure.Measurement) {
	a.measures.Clear()
	for _, m := range measurements {
		a.measures.Add(m.Mode, m.Start, m.End)
	}
	a.history.Record("measurements_restore", fmt.Sprintf("%d restored", len(measurements)))
	a.bus.Publish(MeasurementChangedEvent{Count: a.measures.Count()})
}

// Notify publishes a user-facing message
func (a *App) Notify(level, message string) {
	a.bus.Publish(NotificationEvent{Level: level, Message: message})
}

// RequestFlush schedules a coalesced visibility reconciliation
func (a *App) RequestFlush() {
	a.flusher.Request()
}

// WaitForFlush blocks until pending reconciliations finish. Mainly for tests
// and the HTTP layer's synchronous endpoints.
func (a *App) WaitForFlush() {
	a.flusher.Wait()
}

// flushVisibility recomputes the cut-derived and filter-excluded hidden sets
// and reconciles the render state. Runs on the flush queue only.
func (a *App) flushVisibility() {
	model := a.Model()
	if model == nil {
		return
	}

	a.visibility.SetCutHidden(a.computeCutHidden(model))

	f := a.ActiveFilter()
	result := filter.Evaluate(model, f, a.filterBatch, nil)
	a.mu.Lock()
	a.filters.matched = result.Matched.Count()
	a.filters.excluded = result.Excluded.Count()
	a.mu.Unlock()
	a.visibility.SetFilterHidden(result.Excluded)
	a.applyColorize(result.Matched, f.Mode)

	a.visibility.Apply()
	a.bus.Publish(VisibilityChangedEvent{Hidden: a.visibility.Applied().Count()})
	a.bus.Publish(FilterChangedEvent{Matched: result.Matched.Count(), Excluded: result.Excluded.Count()})
}

// applyColorize reconciles the recolored set against the last applied one,
// issuing a colorizer call only for elements whose status changed. Outside
// colorize mode the target is empty, so switching modes uncolors matches.
func (a *App) applyColorize(matched scene.IDMap, mode filter.Mode) {
	if a.colorizer == nil {
		return
	}
	target := scene.NewIDMap()
	if mode == filter.ModeColorize {
		target = matched.Clone()
	}

	a.mu.Lock()
	prev := a.filters.colorized
	a.filters.colorized = target
	a.mu.Unlock()

	for _, key := range target.Keys() {
		if !prev.Has(key) {
			a.colorizer.SetColorized(key, true)
		}
	}
	for _, key := range prev.Keys() {
		if !target.Has(key) {
			a.colorizer.SetColorized(key, false)
		}
	}
}

// computeCutHidden derives the hidden set that keeps picking consistent with
// clipped geometry. Plane mode tests element centers against the cut plane;
// box mode tests them against all six faces.
func (a *App) computeCutHidden(model *scene.Model) scene.IDMap {
	if !a.clip.Enabled() {
		return scene.IDMap{}
	}

	if a.clip.ActiveMode() == clip.ModePlane {
		return visibility.ComputeCutHidden(model, a.clip.CutPlane(), a.visBatchSize, nil)
	}

	hidden := scene.IDMap{}
	for i := range model.Elements {
		el := &model.Elements[i]
		if !a.clip.ContainsPoint(el.Center()) {
			hidden.Add(scene.ElementKey{ModelID: model.ID, LocalID: el.LocalID})
		}
	}
	return hidden
}

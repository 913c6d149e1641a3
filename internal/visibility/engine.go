// Package visibility computes the target hidden-set from its five
// contributing sources and reconciles it incrementally against the
// last-applied state, so interactive filter and cut dragging never re-issues
// visibility toggles for elements whose status did not change.
package visibility

import (
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// Hider is the rendering-side collaborator that toggles one element's
// visibility. The engine calls it only for elements whose status changed.
type Hider interface {
	SetVisible(key scene.ElementKey, visible bool)
}

// Engine owns the hidden-set computation. The hidden set is always a pure
// function of the five sources: manual hides, hidden class groups, hidden
// storey groups, the cut-derived set and the property-filter exclusion set.
// Callers must serialize calls to Apply; overlapping reconciliations are
// not ordered (the orchestrator funnels them through a single-flight queue).
type Engine struct {
	hider Hider

	manual        scene.IDMap
	hiddenClasses map[string]struct{}
	hiddenStoreys map[string]struct{}
	cutHidden     scene.IDMap
	filterHidden  scene.IDMap

	classGroups  map[string]*scene.Group
	storeyGroups map[string]*scene.Group
	universe     scene.IDMap

	applied   scene.IDMap
	forceFull bool

	isolating       bool
	isolateSnapshot scene.IDMap
}

// noopHider stands in when no rendering collaborator is attached; the
// applied hidden-set is still tracked and observable.
type noopHider struct{}

func (noopHider) SetVisible(key scene.ElementKey, visible bool) {}

// NewEngine creates an engine pushing visibility changes to the given
// hider. A nil hider runs set tracking without a rendering collaborator.
func NewEngine(hider Hider) *Engine {
	if hider == nil {
		hider = noopHider{}
	}
	return &Engine{
		hider:         hider,
		manual:        scene.NewIDMap(),
		hiddenClasses: make(map[string]struct{}),
		hiddenStoreys: make(map[string]struct{}),
		cutHidden:     scene.NewIDMap(),
		filterHidden:  scene.NewIDMap(),
		classGroups:   make(map[string]*scene.Group),
		storeyGroups:  make(map[string]*scene.Group),
		universe:      scene.NewIDMap(),
		applied:       scene.NewIDMap(),
	}
}

// SetModel installs the per-model derived caches (element universe and
// class/storey groups) after a load, and arms a full reapply since the
// previously applied state refers to a disposed model.
func (e *Engine) SetModel(model *scene.Model) {
	e.universe = scene.NewIDMap()
	e.classGroups = make(map[string]*scene.Group)
	e.storeyGroups = make(map[string]*scene.Group)

	if model != nil {
		for i := range model.Elements {
			e.universe.Add(scene.ElementKey{ModelID: model.ID, LocalID: model.Elements[i].LocalID})
		}
		for _, g := range model.ClassGroups() {
			e.classGroups[g.Label] = g
		}
		for _, g := range model.StoreyGroups() {
			e.storeyGroups[g.Label] = g
		}
	}

	e.manual = scene.NewIDMap()
	e.hiddenClasses = make(map[string]struct{})
	e.hiddenStoreys = make(map[string]struct{})
	e.cutHidden = scene.NewIDMap()
	e.filterHidden = scene.NewIDMap()
	e.applied = scene.NewIDMap()
	e.isolating = false
	e.isolateSnapshot = nil
	e.forceFull = true
}

// HideManually adds elements to the manual hide list
func (e *Engine) HideManually(keys ...scene.ElementKey) {
	for _, k := range keys {
		e.manual.Add(k)
	}
}

// ShowManually removes elements from the manual hide list
func (e *Engine) ShowManually(keys ...scene.ElementKey) {
	for _, k := range keys {
		e.manual.Remove(k)
	}
}

// SetClassHidden toggles a class group's hidden flag
func (e *Engine) SetClassHidden(label string, hidden bool) {
	if hidden {
		e.hiddenClasses[label] = struct{}{}
	} else {
		delete(e.hiddenClasses, label)
	}
}

// SetStoreyHidden toggles a storey group's hidden flag
func (e *Engine) SetStoreyHidden(label string, hidden bool) {
	if hidden {
		e.hiddenStoreys[label] = struct{}{}
	} else {
		delete(e.hiddenStoreys, label)
	}
}

// ClassHidden reports a class group's hidden flag
func (e *Engine) ClassHidden(label string) bool {
	_, ok := e.hiddenClasses[label]
	return ok
}

// StoreyHidden reports a storey group's hidden flag
func (e *Engine) StoreyHidden(label string) bool {
	_, ok := e.hiddenStoreys[label]
	return ok
}

// SetCutHidden replaces the cut-derived hidden set
func (e *Engine) SetCutHidden(hidden scene.IDMap) {
	if hidden == nil {
		hidden = scene.NewIDMap()
	}
	e.cutHidden = hidden
}

// SetFilterHidden replaces the property-filter exclusion set
func (e *Engine) SetFilterHidden(hidden scene.IDMap) {
	if hidden == nil {
		hidden = scene.NewIDMap()
	}
	e.filterHidden = hidden
}

// ForceFullReapply arms a full clear-then-apply on the next Apply, for
// cases where incremental diffing is unsafe (fresh model load, isolate
// restore).
func (e *Engine) ForceFullReapply() {
	e.forceFull = true
}

// Target returns the union hidden-set recomputed from the five sources.
// It never returns empty per-model sets.
func (e *Engine) Target() scene.IDMap {
	target := e.manual.Clone()
	for label := range e.hiddenClasses {
		if g, ok := e.classGroups[label]; ok {
			target.Merge(g.Elements)
		}
	}
	for label := range e.hiddenStoreys {
		if g, ok := e.storeyGroups[label]; ok {
			target.Merge(g.Elements)
		}
	}
	target.Merge(e.cutHidden)
	target.Merge(e.filterHidden)
	target.Prune()
	return target
}

// Apply recomputes the target hidden-set and reconciles it against the
// last-applied state: newly hidden elements are hidden, no-longer-hidden
// elements are shown, unchanged elements are left untouched. While an
// isolate is active the five sources are bypassed entirely.
func (e *Engine) Apply() {
	if e.isolating {
		return
	}
	target := e.Target()

	if e.forceFull {
		e.forceFull = false
		for _, key := range e.applied.Keys() {
			e.hider.SetVisible(key, true)
		}
		e.applied = scene.NewIDMap()
	}

	e.reconcile(target)
}

// reconcile diffs target against applied and issues only the changes
func (e *Engine) reconcile(target scene.IDMap) {
	for _, key := range target.Keys() {
		if !e.applied.Has(key) {
			e.hider.SetVisible(key, false)
		}
	}
	for _, key := range e.applied.Keys() {
		if !target.Has(key) {
			e.hider.SetVisible(key, true)
		}
	}
	e.applied = target
}

// Applied returns the currently applied hidden-set (for tests and state export)
func (e *Engine) Applied() scene.IDMap {
	return e.applied
}

// Isolate shows only the given elements, hiding all else. The prior applied
// state is snapshotted; Restore brings it back through the normal
// reconciliation path. Nested isolates keep the first snapshot.
func (e *Engine) Isolate(keep scene.IDMap) {
	if !e.isolating {
		e.isolateSnapshot = e.applied.Clone()
		e.isolating = true
	}

	target := e.universe.Clone()
	target.Subtract(keep)
	e.reconcile(target)
}

// Isolating reports whether an isolate is active
func (e *Engine) Isolating() bool {
	return e.isolating
}

// Restore ends an isolate: visibility is first brought back to the
// snapshotted pre-isolate map, then the normal reconciliation path applies
// any source changes made while the isolate was active. Elements hidden in
// both maps are never touched.
func (e *Engine) Restore() {
	if !e.isolating {
		return
	}
	e.isolating = false
	e.reconcile(e.isolateSnapshot)
	e.isolateSnapshot = nil
	e.Apply()
}

// UnhideAll clears every contributing source and the applied-state cache,
// showing everything that was hidden.
func (e *Engine) UnhideAll() {
	e.isolating = false
	e.isolateSnapshot = nil
	for _, key := range e.applied.Keys() {
		e.hider.SetVisible(key, true)
	}
	e.manual = scene.NewIDMap()
	e.hiddenClasses = make(map[string]struct{})
	e.hiddenStoreys = make(map[string]struct{})
	e.cutHidden = scene.NewIDMap()
	e.filterHidden = scene.NewIDMap()
	e.applied = scene.NewIDMap()
	e.forceFull = false
}

// Yield is the injectable cooperative-yield primitive used by long element
// scans so input handling and rendering are not starved on large models.
type Yield func()

// DefaultBatchSize is how many elements a scan processes between yields
const DefaultBatchSize = 1200

// ComputeCutHidden derives the cut hidden-set: every element whose sample
// point (bounding-box center) lies on the clipped side of the cut plane.
// The scan yields every batchSize elements; pass 0 for the default.
func ComputeCutHidden(model *scene.Model, plane geometry.Plane, batchSize int, yield Yield) scene.IDMap {
	hidden := scene.NewIDMap()
	if model == nil {
		return hidden
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for i := range model.Elements {
		if yield != nil && i > 0 && i%batchSize == 0 {
			yield()
		}
		el := &model.Elements[i]
		if plane.SignedDistance(el.Center()) < 0 {
			hidden.Add(scene.ElementKey{ModelID: model.ID, LocalID: el.LocalID})
		}
	}
	return hidden
}

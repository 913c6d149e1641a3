// Package measure creates, stores and geometrically updates point-to-point
// distance annotations in world space.
package measure

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/ids"
)

// Mode describes how a measurement's endpoints were obtained
type Mode string

const (
	ModePoint    Mode = "point"    // two picked surface points
	ModeLaser    Mode = "laser"    // ray-cast endpoint pair
	ModeShortest Mode = "shortest" // closest points of two element boxes
	ModeCoords   Mode = "coords"   // single-point readout, not persisted
)

// Visual is the renderable representation of one measurement: line,
// directional end markers and midpoint label. It belongs to the rendering
// collaborator; the engine drives placement and disposes it exactly once,
// since the host runtime does not finalize GPU resources deterministically.
type Visual interface {
	Update(start, end, midpoint geometry.Vector3, label string)
	Dispose()
}

// VisualFactory builds the visual for a new measurement
type VisualFactory func(id string) Visual

// Measurement is one stored distance annotation. Start and End are world
// space coordinates; the meters value is always derived fresh from them.
type Measurement struct {
	ID    string
	Mode  Mode
	Start geometry.Vector3
	End   geometry.Vector3
}

// Meters returns the Euclidean distance between the endpoints
func (m Measurement) Meters() float64 {
	return m.Start.Distance(m.End)
}

// Label formats the distance as meters to 3 decimal places. Non-finite
// results render as a placeholder dash instead of propagating NaN into the
// label layer.
func (m Measurement) Label() string {
	return FormatMeters(m.Meters())
}

// FormatMeters renders a meters value for display
func FormatMeters(meters float64) string {
	if math.IsNaN(meters) || math.IsInf(meters, 0) {
		return "-"
	}
	return fmt.Sprintf("%.3f m", meters)
}

type entry struct {
	measurement Measurement
	visual      Visual
	disposed    bool
}

// Engine stores measurements and keeps their visuals in sync. Measurements
// are created on completed gestures, mutated only by deletion, and destroyed
// individually or by bulk clear on model reload.
type Engine struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	visuals VisualFactory
}

// NewEngine creates an engine. visuals may be nil for headless use.
func NewEngine(visuals VisualFactory) *Engine {
	return &Engine{
		entries: make(map[string]*entry),
		visuals: visuals,
	}
}

// Add stores a new measurement, builds its visual and returns the id
func (e *Engine) Add(mode Mode, start, end geometry.Vector3) string {
	id := ids.New("measurement")
	m := Measurement{ID: id, Mode: mode, Start: start, End: end}

	en := &entry{measurement: m}
	if e.visuals != nil {
		en.visual = e.visuals(id)
	}

	e.mu.Lock()
	e.entries[id] = en
	e.order = append(e.order, id)
	e.mu.Unlock()

	e.Update(id)
	return id
}

// Update recomputes the label text and endpoint placement from the current
// start and end points and pushes them to the visual.
func (e *Engine) Update(id string) {
	e.mu.Lock()
	en, ok := e.entries[id]
	e.mu.Unlock()
	if !ok || en.visual == nil {
		return
	}

	m := en.measurement
	en.visual.Update(m.Start, m.End, m.Start.Midpoint(m.End), m.Label())
}

// Remove disposes the measurement's visual resources exactly once and drops
// it from the store. Calling Remove twice is a no-op.
func (e *Engine) Remove(id string) {
	e.mu.Lock()
	en, ok := e.entries[id]
	if ok {
		delete(e.entries, id)
		for i, oid := range e.order {
			if oid == id {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	}
	e.mu.Unlock()

	if ok && en.visual != nil && !en.disposed {
		en.disposed = true
		en.visual.Dispose()
	}
}

// Clear removes every measurement, disposing all visuals
func (e *Engine) Clear() {
	e.mu.Lock()
	entries := e.entries
	e.entries = make(map[string]*entry)
	e.order = nil
	e.mu.Unlock()

	for _, en := range entries {
		if en.visual != nil && !en.disposed {
			en.disposed = true
			en.visual.Dispose()
		}
	}
}

// Get returns a measurement by id
func (e *Engine) Get(id string) (Measurement, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	en, ok := e.entries[id]
	if !ok {
		return Measurement{}, false
	}
	return en.measurement, true
}

// List returns the current measurements in creation order. Distances are
// computed by the caller from the returned endpoints via Meters, never
// cached, so a mutated entry can not report a stale value.
func (e *Engine) List() []Measurement {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Measurement, 0, len(e.entries))
	for _, id := range e.order {
		if en, ok := e.entries[id]; ok {
			out = append(out, en.measurement)
		}
	}
	return out
}

// Count returns the number of stored measurements
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// SortedIDs returns measurement ids in lexical order (for stable state export)
func (e *Engine) SortedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.entries))
	for id := range e.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Package scene defines the data model shared by all engines: element
// addressing, element-set maps, and the model-provider collaborator boundary.
package scene

import (
	"github.com/philipparndt/gobim/pkg/geometry"
)

// ElementKey identifies exactly one element within a loaded model
type ElementKey struct {
	ModelID string
	LocalID uint32
}

// IDMap maps a model identifier to a set of element-local identifiers.
// It represents a set of elements possibly spanning multiple loaded models.
type IDMap map[string]map[uint32]struct{}

// NewIDMap creates an empty element-set map
func NewIDMap() IDMap {
	return make(IDMap)
}

// Add inserts an element into the map
func (m IDMap) Add(key ElementKey) {
	set, ok := m[key.ModelID]
	if !ok {
		set = make(map[uint32]struct{})
		m[key.ModelID] = set
	}
	set[key.LocalID] = struct{}{}
}

// AddAll inserts a batch of local ids for one model
func (m IDMap) AddAll(modelID string, localIDs []uint32) {
	if len(localIDs) == 0 {
		return
	}
	set, ok := m[modelID]
	if !ok {
		set = make(map[uint32]struct{})
		m[modelID] = set
	}
	for _, id := range localIDs {
		set[id] = struct{}{}
	}
}

// Remove deletes an element from the map, pruning the model entry when its
// set becomes empty. Model entries never map to empty sets.
func (m IDMap) Remove(key ElementKey) {
	set, ok := m[key.ModelID]
	if !ok {
		return
	}
	delete(set, key.LocalID)
	if len(set) == 0 {
		delete(m, key.ModelID)
	}
}

// Has reports whether the element is in the map
func (m IDMap) Has(key ElementKey) bool {
	set, ok := m[key.ModelID]
	if !ok {
		return false
	}
	_, ok = set[key.LocalID]
	return ok
}

// Count returns the total number of elements across all models
func (m IDMap) Count() int {
	n := 0
	for _, set := range m {
		n += len(set)
	}
	return n
}

// IsEmpty reports whether the map holds no elements
func (m IDMap) IsEmpty() bool {
	return m.Count() == 0
}

// Clone returns a deep copy
func (m IDMap) Clone() IDMap {
	c := make(IDMap, len(m))
	for modelID, set := range m {
		cs := make(map[uint32]struct{}, len(set))
		for id := range set {
			cs[id] = struct{}{}
		}
		c[modelID] = cs
	}
	return c
}

// Merge adds every element of other into the map
func (m IDMap) Merge(other IDMap) {
	for modelID, set := range other {
		for id := range set {
			m.Add(ElementKey{ModelID: modelID, LocalID: id})
		}
	}
}

// Subtract removes every element of other from the map
func (m IDMap) Subtract(other IDMap) {
	for modelID, set := range other {
		for id := range set {
			m.Remove(ElementKey{ModelID: modelID, LocalID: id})
		}
	}
}

// Prune drops model entries whose sets are empty. Maps mutated only through
// Add/Remove never need this; it exists for maps built field-by-field.
func (m IDMap) Prune() {
	for modelID, set := range m {
		if len(set) == 0 {
			delete(m, modelID)
		}
	}
}

// Keys returns every element in the map. Order is unspecified.
func (m IDMap) Keys() []ElementKey {
	keys := make([]ElementKey, 0, m.Count())
	for modelID, set := range m {
		for id := range set {
			keys = append(keys, ElementKey{ModelID: modelID, LocalID: id})
		}
	}
	return keys
}

// Equal reports whether two maps hold exactly the same elements
func (m IDMap) Equal(other IDMap) bool {
	if len(m) != len(other) {
		return false
	}
	for modelID, set := range m {
		oset, ok := other[modelID]
		if !ok || len(set) != len(oset) {
			return false
		}
		for id := range set {
			if _, ok := oset[id]; !ok {
				return false
			}
		}
	}
	return true
}

// Group is a named bucket of elements sharing a semantic classification or
// spatial (storey) containment, built once per model load.
type Group struct {
	ID       string
	Label    string
	Count    int
	Elements IDMap
}

// Element describes one addressable entity of a loaded model
type Element struct {
	LocalID    uint32
	Class      string // semantic classification, e.g. "Walls"
	Storey     string // spatial container, e.g. "Level 1"
	Box        geometry.BoundingBox
	Properties map[string]map[string]string // pset -> property -> value
}

// Center returns the element's sample point used for cut visibility tests
func (e *Element) Center() geometry.Vector3 {
	return e.Box.Center()
}

// Model is the derived per-model cache the orchestrator builds after a load:
// element records, bounding volume, and class/storey membership.
type Model struct {
	ID       string
	Name     string
	Path     string
	Bounds   geometry.BoundingBox
	Elements []Element

	byID map[uint32]*Element
}

// Element returns the element with the given local id, or nil
func (m *Model) Element(localID uint32) *Element {
	if m.byID == nil {
		m.index()
	}
	return m.byID[localID]
}

func (m *Model) index() {
	m.byID = make(map[uint32]*Element, len(m.Elements))
	for i := range m.Elements {
		m.byID[m.Elements[i].LocalID] = &m.Elements[i]
	}
}

// ClassGroups buckets the model's elements by semantic class
func (m *Model) ClassGroups() []*Group {
	return m.groupBy(func(e *Element) string { return e.Class })
}

// StoreyGroups buckets the model's elements by spatial container
func (m *Model) StoreyGroups() []*Group {
	return m.groupBy(func(e *Element) string { return e.Storey })
}

func (m *Model) groupBy(key func(*Element) string) []*Group {
	byLabel := make(map[string]*Group)
	var order []string
	for i := range m.Elements {
		e := &m.Elements[i]
		label := key(e)
		if label == "" {
			continue
		}
		g, ok := byLabel[label]
		if !ok {
			g = &Group{ID: label, Label: label, Elements: NewIDMap()}
			byLabel[label] = g
			order = append(order, label)
		}
		g.Elements.Add(ElementKey{ModelID: m.ID, LocalID: e.LocalID})
		g.Count++
	}
	groups := make([]*Group, 0, len(order))
	for _, label := range order {
		groups = append(groups, byLabel[label])
	}
	return groups
}

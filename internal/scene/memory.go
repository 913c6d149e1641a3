package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/ids"
)

// indexFile is the on-disk form of a model index: the pre-digested element
// table an upstream IFC/GLB pipeline exports. Geometry streams stay with
// that pipeline; this side only needs classes, storeys, boxes and psets.
type indexFile struct {
	Name     string         `json:"name"`
	Elements []indexElement `json:"elements"`
}

type indexElement struct {
	ID         uint32                       `json:"id"`
	Class      string                       `json:"class"`
	Storey     string                       `json:"storey"`
	Min        [3]float64                   `json:"min"`
	Max        [3]float64                   `json:"max"`
	Properties map[string]map[string]string `json:"properties,omitempty"`
}

// MemoryProvider serves models from JSON index files, holding everything in
// memory. It stands in for the streaming IFC/fragment engine in the server,
// the CLI and the tests.
type MemoryProvider struct {
	mu     sync.Mutex
	models map[string]*Model
}

// NewMemoryProvider creates an empty in-memory provider
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{models: make(map[string]*Model)}
}

// Capabilities implements Provider
func (p *MemoryProvider) Capabilities() []Capability {
	return []Capability{CapRaycast, CapProperties, CapGeometry}
}

// Load implements Provider. Only .json model indexes are supported; other
// extensions are rejected before any state is touched.
func (p *MemoryProvider) Load(ctx context.Context, path string) (*Model, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" {
		return nil, fmt.Errorf("unsupported file type: %s (expected .json model index)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model index: %w", err)
	}

	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse model index: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model := &Model{
		ID:   ids.New("model"),
		Name: idx.Name,
		Path: path,
	}
	if model.Name == "" {
		model.Name = strings.TrimSuffix(filepath.Base(path), ext)
	}

	bounds := geometry.NewBoundingBox()
	for _, e := range idx.Elements {
		box := geometry.NewBoundingBoxFromPoints(
			geometry.NewVector3(e.Min[0], e.Min[1], e.Min[2]),
			geometry.NewVector3(e.Max[0], e.Max[1], e.Max[2]),
		)
		bounds.Union(box)
		model.Elements = append(model.Elements, Element{
			LocalID:    e.ID,
			Class:      e.Class,
			Storey:     e.Storey,
			Box:        box,
			Properties: e.Properties,
		})
	}
	model.Bounds = bounds

	p.mu.Lock()
	p.models[model.ID] = model
	p.mu.Unlock()
	return model, nil
}

// AddModel registers an already-built model, used by tests and embedders
func (p *MemoryProvider) AddModel(model *Model) {
	p.mu.Lock()
	p.models[model.ID] = model
	p.mu.Unlock()
}

// Dispose implements Provider
func (p *MemoryProvider) Dispose(modelID string) {
	p.mu.Lock()
	delete(p.models, modelID)
	p.mu.Unlock()
}

func (p *MemoryProvider) model(modelID string) (*Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.models[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: model %s", ErrNotFound, modelID)
	}
	return m, nil
}

// Raycast implements Provider by testing element boxes and returning the
// nearest entry point. Hidden elements are skipped so picks land on what is
// actually on screen.
func (p *MemoryProvider) Raycast(ctx context.Context, modelID string, ray geometry.Ray, hidden IDMap) (*Hit, error) {
	m, err := p.model(modelID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var best *Hit
	for i := range m.Elements {
		e := &m.Elements[i]
		if hidden.Has(ElementKey{ModelID: modelID, LocalID: e.LocalID}) {
			continue
		}
		dist, ok := ray.IntersectBox(e.Box)
		if !ok {
			continue
		}
		if best == nil || dist < best.Distance {
			best = &Hit{
				Key:      ElementKey{ModelID: modelID, LocalID: e.LocalID},
				Point:    ray.At(dist),
				Distance: dist,
			}
		}
	}
	return best, nil
}

// Properties implements Provider
func (p *MemoryProvider) Properties(ctx context.Context, key ElementKey) (map[string]map[string]string, error) {
	m, err := p.model(key.ModelID)
	if err != nil {
		return nil, err
	}
	e := m.Element(key.LocalID)
	if e == nil {
		return nil, fmt.Errorf("%w: %s/%d", ErrNotFound, key.ModelID, key.LocalID)
	}
	return e.Properties, nil
}

// Box implements Provider
func (p *MemoryProvider) Box(ctx context.Context, key ElementKey) (geometry.BoundingBox, error) {
	m, err := p.model(key.ModelID)
	if err != nil {
		return geometry.BoundingBox{}, err
	}
	e := m.Element(key.LocalID)
	if e == nil {
		return geometry.BoundingBox{}, fmt.Errorf("%w: %s/%d", ErrNotFound, key.ModelID, key.LocalID)
	}
	return e.Box, nil
}

// ItemsByClass implements Provider
func (p *MemoryProvider) ItemsByClass(ctx context.Context, modelID, class string) ([]uint32, error) {
	return p.items(modelID, func(e *Element) bool { return e.Class == class })
}

// ItemsByStorey implements Provider
func (p *MemoryProvider) ItemsByStorey(ctx context.Context, modelID, storey string) ([]uint32, error) {
	return p.items(modelID, func(e *Element) bool { return e.Storey == storey })
}

func (p *MemoryProvider) items(modelID string, match func(*Element) bool) ([]uint32, error) {
	m, err := p.model(modelID)
	if err != nil {
		return nil, err
	}
	var out []uint32
	for i := range m.Elements {
		if match(&m.Elements[i]) {
			out = append(out, m.Elements[i].LocalID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

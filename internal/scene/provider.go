package scene

import (
	"context"
	"errors"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// ErrNotFound is returned when a query names an element or model the
// provider does not know.
var ErrNotFound = errors.New("scene: element not found")

// Capability names one optional feature of a provider. The orchestrator
// queries capabilities through the typed interface below instead of probing
// a loosely typed instance for method presence.
type Capability string

const (
	CapRaycast    Capability = "raycast"
	CapProperties Capability = "properties"
	CapGeometry   Capability = "geometry"
)

// Hit is the result of a raycast against a model
type Hit struct {
	Key      ElementKey
	Point    geometry.Vector3
	Distance float64
}

// Provider is the opaque model-provider collaborator. Implementations load
// model data, answer element queries, and own the underlying geometry
// resources until Dispose. All methods taking a context may suspend.
type Provider interface {
	// Capabilities reports which optional features this provider supports
	Capabilities() []Capability

	// Load parses the model at path and returns the derived model record.
	// The provider retains resources for the model until Dispose.
	Load(ctx context.Context, path string) (*Model, error)

	// Dispose releases all resources held for the model. Must be
	// idempotent; disposing twice is a no-op.
	Dispose(modelID string)

	// Raycast finds the nearest visible element intersected by the world
	// space ray, or nil when nothing is hit. hidden elements are skipped.
	Raycast(ctx context.Context, modelID string, ray geometry.Ray, hidden IDMap) (*Hit, error)

	// Properties returns the property sets of one element
	Properties(ctx context.Context, key ElementKey) (map[string]map[string]string, error)

	// Box returns the world-space bounding box of one element
	Box(ctx context.Context, key ElementKey) (geometry.BoundingBox, error)

	// ItemsByClass enumerates the local ids of all elements of a class
	ItemsByClass(ctx context.Context, modelID, class string) ([]uint32, error)

	// ItemsByStorey enumerates the local ids of all elements of a storey
	ItemsByStorey(ctx context.Context, modelID, storey string) ([]uint32, error)
}

// HasCapability reports whether a provider declares the capability
func HasCapability(p Provider, c Capability) bool {
	for _, have := range p.Capabilities() {
		if have == c {
			return true
		}
	}
	return false
}

// Package accel manages the spatial index used to accelerate scene raycasts.
// The index is built asynchronously after a model loads; until it is ready,
// and whenever it is unavailable, raycasts fall back to the provider's linear
// scan. A build that fails hard disables the index for the lifetime of the
// model and rejects the requests that were waiting on it.
package accel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// DefaultBuildTimeout bounds how long a raycast waits for an index build
// before falling back to the linear scan.
const DefaultBuildTimeout = 30 * time.Second

// ErrDisabled is returned to requests that were waiting on a build when it
// failed hard.
var ErrDisabled = errors.New("spatial index disabled after build failure")

// State describes the index lifecycle
type State int

const (
	StateIdle State = iota
	StateBuilding
	StateReady
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Index is a built spatial index
type Index interface {
	Raycast(ctx context.Context, ray geometry.Ray, hidden scene.IDMap) (*scene.Hit, error)
	Dispose()
}

// Builder constructs an index for a model. progress may be called from the
// build goroutine with monotonically increasing done counts.
type Builder interface {
	Build(ctx context.Context, model *scene.Model, progress func(done, total int)) (Index, error)
}

// Raycaster is the linear fallback, typically the scene provider
type Raycaster func(ctx context.Context, ray geometry.Ray, hidden scene.IDMap) (*scene.Hit, error)

// Manager owns the index lifecycle for the loaded model
type Manager struct {
	mu       sync.Mutex
	builder  Builder
	fallback Raycaster
	timeout  time.Duration

	state    State
	index    Index
	modelID  string
	done     chan struct{} // closed when the current build settles
	buildErr error

	progressDone  int
	progressTotal int
	onProgress    func(done, total int)
}

// Option configures a Manager
type Option func(*Manager)

// WithBuildTimeout overrides DefaultBuildTimeout
func WithBuildTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithProgress registers a build-progress observer
func WithProgress(fn func(done, total int)) Option {
	return func(m *Manager) { m.onProgress = fn }
}

func NewManager(builder Builder, fallback Raycaster, opts ...Option) *Manager {
	m := &Manager{
		builder:  builder,
		fallback: fallback,
		timeout:  DefaultBuildTimeout,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Progress returns the last observed build progress
func (m *Manager) Progress() (done, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progressDone, m.progressTotal
}

// BeginBuild starts an asynchronous index build for the model. A build
// already running or settled for the same model is left alone; a build for a
// previous model is discarded first.
func (m *Manager) BeginBuild(ctx context.Context, model *scene.Model) {
	m.mu.Lock()
	if m.modelID == model.ID && m.state != StateIdle {
		m.mu.Unlock()
		return
	}
	m.resetLocked()
	m.modelID = model.ID
	m.state = StateBuilding
	done := make(chan struct{})
	m.done = done
	m.mu.Unlock()

	go m.build(ctx, model, done)
}

func (m *Manager) build(ctx context.Context, model *scene.Model, done chan struct{}) {
	defer close(done)

	index, err := m.builder.Build(ctx, model, func(built, total int) {
		m.mu.Lock()
		m.progressDone = built
		m.progressTotal = total
		fn := m.onProgress
		m.mu.Unlock()
		if fn != nil {
			fn(built, total)
		}
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != done {
		// A newer model took over while we were building
		if index != nil {
			index.Dispose()
		}
		return
	}
	if err != nil {
		log.Printf("Warning: spatial index build failed, raycasts stay linear: %v", err)
		m.state = StateDisabled
		m.buildErr = fmt.Errorf("%w: %v", ErrDisabled, err)
		return
	}
	m.index = index
	m.state = StateReady
}

// Raycast resolves a ray against the scene. A ready index serves it; a build
// in progress is awaited up to the build timeout, then the linear fallback
// answers instead. Requests caught by a hard build failure are rejected;
// requests arriving after the failure use the fallback directly.
func (m *Manager) Raycast(ctx context.Context, ray geometry.Ray, hidden scene.IDMap) (*scene.Hit, error) {
	m.mu.Lock()
	state := m.state
	index := m.index
	done := m.done
	m.mu.Unlock()

	switch state {
	case StateReady:
		return index.Raycast(ctx, ray, hidden)
	case StateIdle, StateDisabled:
		return m.fallback(ctx, ray, hidden)
	}

	select {
	case <-done:
	case <-time.After(m.timeout):
		log.Printf("Warning: spatial index build exceeded %v, using linear raycast", m.timeout)
		return m.fallback(ctx, ray, hidden)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	m.mu.Lock()
	index = m.index
	err := m.buildErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if index == nil {
		// Build was superseded by a model swap
		return m.fallback(ctx, ray, hidden)
	}
	return index.Raycast(ctx, ray, hidden)
}

// Reset discards the index, typically on model unload
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Manager) resetLocked() {
	if m.index != nil {
		m.index.Dispose()
		m.index = nil
	}
	m.state = StateIdle
	m.modelID = ""
	m.done = nil
	m.buildErr = nil
	m.progressDone = 0
	m.progressTotal = 0
}

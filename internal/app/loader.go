package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/philipparndt/gobim/internal/filter"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// ErrLoadInProgress is returned when a load overlaps another
var ErrLoadInProgress = errors.New("a model load is already in progress")

// LoadModel replaces the loaded model with the one at path. At most one
// model is resident; the previous one is torn down first, in a fixed order,
// so no engine ever observes keys from two models at once.
func (a *App) LoadModel(ctx context.Context, path string) error {
	a.mu.Lock()
	if a.model.loading {
		a.mu.Unlock()
		return ErrLoadInProgress
	}
	a.model.loading = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.model.loading = false
		a.mu.Unlock()
	}()

	a.teardown()

	model, err := a.provider.Load(ctx, path)
	if err != nil {
		a.bus.Publish(NotificationEvent{Level: "error", Message: fmt.Sprintf("load failed: %v", err)})
		return fmt.Errorf("loading %s: %w", path, err)
	}

	a.mu.Lock()
	a.model.current = model
	a.transform.position = geometry.Vector3{}
	a.transform.rotation = geometry.NewQuaternion()
	a.transform.baseline = a.transform.position
	a.transform.baseRot = a.transform.rotation
	a.mu.Unlock()

	a.visibility.SetModel(model)
	a.clip.FitBoxTo(model.Bounds)
	a.clip.SetOffsetRange(model.Bounds)
	a.index.BeginBuild(ctx, model)
	a.camera.FrameBox(model.Bounds, ViewIso)

	a.RequestFlush()
	a.history.Record("load", path)
	a.bus.Publish(ModelLoadedEvent{
		ModelID:  model.ID,
		Name:     model.Name,
		Path:     model.Path,
		Elements: len(model.Elements),
	})
	return nil
}

// Unload disposes the loaded model and resets all per-model state
func (a *App) Unload() {
	a.mu.Lock()
	if a.model.loading {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	a.teardown()
	a.history.Record("unload", "")
}

// teardown clears every per-model engine in dependency order: interaction
// state first, then derived visibility, then the model itself.
func (a *App) teardown() {
	if err := a.highlights.ClearHover(); err != nil {
		log.Printf("Warning: clearing hover: %v", err)
	}
	if err := a.highlights.ClearSelection(); err != nil {
		log.Printf("Warning: clearing selection: %v", err)
	}
	a.clearPreview()
	a.measures.Clear()
	a.visibility.UnhideAll()
	a.applyColorize(scene.NewIDMap(), filter.ModeShow)
	a.clip.SetEnabled(false)

	a.mu.Lock()
	old := a.model.current
	a.model.current = nil
	// The filter itself survives a model swap; only its counts reset
	a.filters.matched = 0
	a.filters.excluded = 0
	a.mu.Unlock()

	a.index.Reset()
	if old != nil {
		a.provider.Dispose(old.ID)
		a.bus.Publish(ModelUnloadedEvent{ModelID: old.ID})
	}
}

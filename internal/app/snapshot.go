package app

import (
	"github.com/philipparndt/gobim/internal/filter"
	"github.com/philipparndt/gobim/internal/measure"
)

// ModelInfo is the serializable summary of the loaded model
type ModelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Elements int    `json:"elements"`
}

// CutInfo is the serializable clip state
type CutInfo struct {
	Enabled  bool    `json:"enabled"`
	Mode     string  `json:"mode"`
	Inverted bool    `json:"inverted"`
	Axis     int     `json:"axis"`
	Offset   float64 `json:"offset"`
	MinOff   float64 `json:"minOffset"`
	MaxOff   float64 `json:"maxOffset"`
}

// CameraInfo is the serializable camera pose
type CameraInfo struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
	Fov      float64    `json:"fov"`
}

// Snapshot is the full state view served to clients
type Snapshot struct {
	Model        *ModelInfo            `json:"model"`
	Tool         string                `json:"tool"`
	Selection    int                   `json:"selection"`
	Hidden       int                   `json:"hidden"`
	Isolating    bool                  `json:"isolating"`
	Cut          CutInfo               `json:"cut"`
	Filter       filter.Filter         `json:"filter"`
	FilterMatch  int                   `json:"filterMatched"`
	FilterHidden int                   `json:"filterExcluded"`
	Measurements []measure.Measurement `json:"measurements"`
	Camera       CameraInfo            `json:"camera"`
	IndexState   string                `json:"indexState"`
}

// Snapshot assembles a consistent point-in-time view of the viewer state
func (a *App) Snapshot() Snapshot {
	snap := Snapshot{
		Tool:         string(a.machine.Active()),
		Selection:    a.highlights.Selection().Count(),
		Hidden:       a.visibility.Applied().Count(),
		Isolating:    a.visibility.Isolating(),
		Filter:       a.ActiveFilter(),
		Measurements: a.measures.List(),
		IndexState:   a.index.State().String(),
	}
	snap.FilterMatch, snap.FilterHidden = a.FilterResult()

	if model := a.Model(); model != nil {
		snap.Model = &ModelInfo{
			ID:       model.ID,
			Name:     model.Name,
			Path:     model.Path,
			Elements: len(model.Elements),
		}
	}

	minOff, maxOff := a.clip.OffsetRange()
	snap.Cut = CutInfo{
		Enabled:  a.clip.Enabled(),
		Mode:     string(a.clip.ActiveMode()),
		Inverted: a.clip.Inverted(),
		Axis:     int(a.clip.CutAxis()),
		Offset:   a.clip.Offset(),
		MinOff:   minOff,
		MaxOff:   maxOff,
	}

	position, target := a.camera.Pose()
	snap.Camera = CameraInfo{
		Position: [3]float64{position.X, position.Y, position.Z},
		Target:   [3]float64{target.X, target.Y, target.Z},
		Fov:      a.camera.Fov(),
	}
	return snap
}

package filter

import (
	"github.com/philipparndt/gobim/internal/scene"
)

// Yield is the injectable cooperative-yield primitive for long scans
type Yield func()

// DefaultBatchSize is how many elements are evaluated between yields
const DefaultBatchSize = 800

// Colorizer is the rendering collaborator that recolors the elements a
// colorize-mode filter matches. It is called only for elements whose
// colorized status changed, mirroring the visibility Hider contract.
type Colorizer interface {
	SetColorized(key scene.ElementKey, colorized bool)
}

// Result of evaluating a filter against a model
type Result struct {
	// Matched holds the elements satisfying the predicate
	Matched scene.IDMap
	// Excluded holds the elements the Visibility Engine must hide: the
	// non-matching elements in show mode, empty in colorize mode.
	Excluded scene.IDMap
}

// Evaluate applies the filter to every element of the model, yielding every
// batchSize elements so large scans do not starve the event loop. Pass 0 for
// the default batch size.
func Evaluate(model *scene.Model, f Filter, batchSize int, yield Yield) Result {
	res := Result{Matched: scene.NewIDMap(), Excluded: scene.NewIDMap()}
	if model == nil {
		return res
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for i := range model.Elements {
		if yield != nil && i > 0 && i%batchSize == 0 {
			yield()
		}
		el := &model.Elements[i]
		key := scene.ElementKey{ModelID: model.ID, LocalID: el.LocalID}
		if f.MatchesProperties(el.Properties) {
			res.Matched.Add(key)
		} else if f.Mode == ModeShow {
			res.Excluded.Add(key)
		}
	}
	return res
}

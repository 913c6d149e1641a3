package visibility

import (
	"math/rand"
	"testing"

	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// fakeHider records every toggle so tests can count redundant operations
type fakeHider struct {
	hidden map[scene.ElementKey]bool
	ops    int
}

func newFakeHider() *fakeHider {
	return &fakeHider{hidden: make(map[scene.ElementKey]bool)}
}

func (h *fakeHider) SetVisible(key scene.ElementKey, visible bool) {
	h.ops++
	if visible {
		delete(h.hidden, key)
	} else {
		h.hidden[key] = true
	}
}

func buildModel(n int) *scene.Model {
	m := &scene.Model{ID: "m", Name: "test"}
	for i := 1; i <= n; i++ {
		class := "Walls"
		if i%2 == 0 {
			class = "Slabs"
		}
		storey := "Level 1"
		if i > n/2 {
			storey = "Level 2"
		}
		x := float64(i)
		m.Elements = append(m.Elements, scene.Element{
			LocalID: uint32(i),
			Class:   class,
			Storey:  storey,
			Box: geometry.NewBoundingBoxFromPoints(
				geometry.NewVector3(x, 0, 0),
				geometry.NewVector3(x+0.5, 1, float64(i)),
			),
		})
	}
	return m
}

func key(id uint32) scene.ElementKey {
	return scene.ElementKey{ModelID: "m", LocalID: id}
}

func TestManualHideShow(t *testing.T) {
	h := newFakeHider()
	e := NewEngine(h)
	e.SetModel(buildModel(4))

	e.HideManually(key(1), key(2))
	e.Apply()

	if len(h.hidden) != 2 {
		t.Fatalf("expected 2 hidden, got %d", len(h.hidden))
	}

	e.ShowManually(key(1))
	e.Apply()
	if h.hidden[key(1)] {
		t.Error("element 1 still hidden after ShowManually")
	}
	if !h.hidden[key(2)] {
		t.Error("element 2 unexpectedly shown")
	}
}

func TestIncrementalDiffSkipsUnchanged(t *testing.T) {
	h := newFakeHider()
	e := NewEngine(h)
	e.SetModel(buildModel(100))

	e.HideManually(key(1), key(2), key(3))
	e.Apply()

	// Adding one more hide must issue exactly one operation
	ops := h.ops
	e.HideManually(key(4))
	e.Apply()

	if h.ops-ops != 1 {
		t.Errorf("expected 1 incremental operation, got %d", h.ops-ops)
	}

	// Re-applying unchanged state issues nothing
	ops = h.ops
	e.Apply()
	if h.ops != ops {
		t.Errorf("no-op apply issued %d operations", h.ops-ops)
	}
}

func TestClassAndStoreyGroups(t *testing.T) {
	h := newFakeHider()
	e := NewEngine(h)
	e.SetModel(buildModel(10))

	e.SetClassHidden("Walls", true)
	e.Apply()

	// Odd ids are walls
	if !h.hidden[key(1)] || !h.hidden[key(3)] {
		t.Error("wall elements not hidden")
	}
	if h.hidden[key(2)] {
		t.Error("slab element hidden by class filter")
	}

	e.SetClassHidden("Walls", false)
	e.SetStoreyHidden("Level 2", true)
	e.Apply()

	if h.hidden[key(1)] {
		t.Error("Level 1 element hidden after class unhide")
	}
	if !h.hidden[key(7)] {
		t.Error("Level 2 element not hidden")
	}
}

// Full recomputation must equal incremental application from any valid
// prior state, for any sequence of independent source toggles.
func TestDiffEquivalentToFullRecompute(t *testing.T) {
	model := buildModel(60)
	rng := rand.New(rand.NewSource(7))

	h := newFakeHider()
	e := NewEngine(h)
	e.SetModel(model)
	e.Apply()

	for step := 0; step < 200; step++ {
		switch rng.Intn(6) {
		case 0:
			e.HideManually(key(uint32(rng.Intn(60) + 1)))
		case 1:
			e.ShowManually(key(uint32(rng.Intn(60) + 1)))
		case 2:
			e.SetClassHidden("Walls", rng.Intn(2) == 0)
		case 3:
			e.SetClassHidden("Slabs", rng.Intn(2) == 0)
		case 4:
			e.SetStoreyHidden("Level 1", rng.Intn(2) == 0)
		case 5:
			cut := scene.NewIDMap()
			for i := 0; i < rng.Intn(10); i++ {
				cut.Add(key(uint32(rng.Intn(60) + 1)))
			}
			e.SetCutHidden(cut)
		}
		e.Apply()

		// The hider's hidden set must equal a fresh recompute of the target
		target := e.Target()
		if target.Count() != len(h.hidden) {
			t.Fatalf("step %d: applied %d hidden, target has %d", step, len(h.hidden), target.Count())
		}
		for k := range h.hidden {
			if !target.Has(k) {
				t.Fatalf("step %d: %v hidden but not in target", step, k)
			}
		}
	}
}

func TestForceFullReapply(t *testing.T) {
	h := newFakeHider()
	e := NewEngine(h)
	e.SetModel(buildModel(5))

	e.HideManually(key(1))
	e.Apply()

	e.ForceFullReapply()
	ops := h.ops
	e.Apply()

	// Full reapply clears then re-hides: at least show+hide for element 1
	if h.ops-ops < 2 {
		t.Errorf("full reapply issued only %d operations", h.ops-ops)
	}
	if !h.hidden[key(1)] {
		t.Error("element 1 not hidden after full reapply")
	}
}

func TestIsolateAndRestore(t *testing.T) {
	h := newFakeHider()
	e := NewEngine(h)
	e.SetModel(buildModel(6))

	e.HideManually(key(2))
	e.Apply()

	keep := scene.NewIDMap()
	keep.Add(key(1))
	e.Isolate(keep)

	if !e.Isolating() {
		t.Error("Isolating false during isolate")
	}
	for i := uint32(2); i <= 6; i++ {
		if !h.hidden[key(i)] {
			t.Errorf("element %d visible during isolate", i)
		}
	}
	if h.hidden[key(1)] {
		t.Error("isolated element hidden")
	}

	// Source changes during isolate are bypassed entirely
	e.HideManually(key(1))
	e.ShowManually(key(1))
	e.Apply()
	if h.hidden[key(1)] {
		t.Error("Apply during isolate changed visibility")
	}

	e.Restore()
	if e.Isolating() {
		t.Error("Isolating true after restore")
	}
	if !h.hidden[key(2)] {
		t.Error("manual hide lost after restore")
	}
	if h.hidden[key(3)] {
		t.Error("element 3 still hidden after restore")
	}
}

func TestRestoreReconcilesFromSnapshot(t *testing.T) {
	h := newFakeHider()
	e := NewEngine(h)
	e.SetModel(buildModel(6))

	e.HideManually(key(2))
	e.Apply()

	keep := scene.NewIDMap()
	keep.Add(key(1))
	e.Isolate(keep)

	h.ops = 0
	e.Restore()

	// Elements 3..6 were hidden only by the isolate and come back; element 2
	// is hidden in the snapshot and in the source-derived target, so restore
	// must not toggle it at all.
	if h.ops != 4 {
		t.Errorf("restore op count failed: expected 4, got %d", h.ops)
	}
	if !h.hidden[key(2)] {
		t.Error("manually hidden element toggled during restore")
	}
	for i := uint32(3); i <= 6; i++ {
		if h.hidden[key(i)] {
			t.Errorf("element %d still hidden after restore", i)
		}
	}
}

func TestUnhideAll(t *testing.T) {
	h := newFakeHider()
	e := NewEngine(h)
	e.SetModel(buildModel(8))

	e.HideManually(key(1))
	e.SetClassHidden("Walls", true)
	cut := scene.NewIDMap()
	cut.Add(key(2))
	e.SetCutHidden(cut)
	e.Apply()

	e.UnhideAll()

	if len(h.hidden) != 0 {
		t.Errorf("%d elements still hidden after UnhideAll", len(h.hidden))
	}
	if !e.Target().IsEmpty() {
		t.Error("sources not cleared by UnhideAll")
	}
	if !e.Applied().IsEmpty() {
		t.Error("applied cache not cleared by UnhideAll")
	}
}

func TestComputeCutHidden(t *testing.T) {
	model := buildModel(10)

	// Horizontal cut at z=3 keeping above: element i has box z from 0 to i,
	// center z = i/2, so elements with i/2 < 3 (i <= 5) are hidden.
	plane := geometry.NewPlaneFromNormalAndPoint(
		geometry.NewVector3(0, 0, 1),
		geometry.NewVector3(0, 0, 3),
	)

	yields := 0
	hidden := ComputeCutHidden(model, plane, 4, func() { yields++ })

	for i := uint32(1); i <= 5; i++ {
		if !hidden.Has(key(i)) {
			t.Errorf("element %d below cut not hidden", i)
		}
	}
	for i := uint32(7); i <= 10; i++ {
		if hidden.Has(key(i)) {
			t.Errorf("element %d above cut hidden", i)
		}
	}
	if yields == 0 {
		t.Error("scan never yielded")
	}
}

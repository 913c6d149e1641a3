// Package hilite coordinates hover and selection highlighting: it orders
// async hover results by request serial, coalesces concurrent clear
// operations into one in-flight call, and keeps the hover emphasis from
// double-rendering on top of the selection.
package hilite

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/ids"
)

// Highlighter is the rendering collaborator that applies and clears
// highlight emphasis. Calls may suspend (materials can live on a worker);
// the coordinator wraps them with a timeout so a wedged collaborator can
// not hang the UI.
type Highlighter interface {
	ApplyHover(key scene.ElementKey) error
	ClearHover() error
	ApplySelection(keys scene.IDMap) error
	ClearSelection() error
}

// DefaultClearTimeout bounds highlight-clear calls into the collaborator
const DefaultClearTimeout = 3 * time.Second

type inflight struct {
	done chan struct{}
	err  error
}

// Coordinator owns the hover key and the selection set. All mutations go
// through it so the invariants hold: at most one clear-hover and one
// clear-select in flight, stale hover results discarded by serial, and the
// selection always excluded from hover emphasis.
type Coordinator struct {
	highlighter Highlighter
	timeout     time.Duration

	serial ids.Serial

	mu          sync.Mutex
	hovered     *scene.ElementKey
	selection   scene.IDMap
	hoverClear  *inflight
	selectClear *inflight

	needsRefresh atomic.Bool
}

// noopHighlighter stands in when no rendering collaborator is attached,
// e.g. a headless server; highlight state is still tracked and observable.
type noopHighlighter struct{}

func (noopHighlighter) ApplyHover(key scene.ElementKey) error { return nil }
func (noopHighlighter) ClearHover() error                     { return nil }
func (noopHighlighter) ApplySelection(keys scene.IDMap) error { return nil }
func (noopHighlighter) ClearSelection() error                 { return nil }

// NewCoordinator creates a coordinator with the default clear timeout.
// A nil highlighter runs state tracking without a rendering collaborator.
func NewCoordinator(h Highlighter) *Coordinator {
	if h == nil {
		h = noopHighlighter{}
	}
	return &Coordinator{
		highlighter: h,
		timeout:     DefaultClearTimeout,
		selection:   scene.NewIDMap(),
	}
}

// SetClearTimeout overrides the clear-call timeout (tests use short values)
func (c *Coordinator) SetClearTimeout(d time.Duration) {
	c.timeout = d
}

// BeginHover issues the serial for a new hover hit-test. The caller runs
// the async raycast and reports back through CompleteHover with this serial.
func (c *Coordinator) BeginHover() uint64 {
	return c.serial.Next()
}

// CompleteHover applies an async hover result. A result whose serial has
// been superseded is discarded, so out-of-order responses can never display
// a stale hover. A nil key clears the hover. Returns whether the result was
// applied.
func (c *Coordinator) CompleteHover(serial uint64, key *scene.ElementKey) bool {
	if !c.serial.IsCurrent(serial) {
		return false
	}

	if key == nil {
		if c.Hovered() != nil {
			c.ClearHover()
		}
		return true
	}

	c.mu.Lock()
	// The current selection keeps its own emphasis; hovering a selected
	// element must not stack a second highlight on it.
	if c.selection.Has(*key) {
		alreadyHovering := c.hovered != nil
		c.mu.Unlock()
		if alreadyHovering {
			c.ClearHover()
		}
		return true
	}
	if c.hovered != nil && *c.hovered == *key {
		c.mu.Unlock()
		return true
	}
	k := *key
	c.hovered = &k
	c.mu.Unlock()

	if err := c.highlighter.ApplyHover(k); err != nil {
		log.Printf("Warning: hover highlight failed: %v", err)
	}
	return true
}

// Hovered returns the current hover key, or nil
func (c *Coordinator) Hovered() *scene.ElementKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hovered == nil {
		return nil
	}
	k := *c.hovered
	return &k
}

// ClearHover clears the hover emphasis. Concurrent callers share one
// in-flight clear instead of issuing duplicates.
func (c *Coordinator) ClearHover() error {
	c.mu.Lock()
	if op := c.hoverClear; op != nil {
		c.mu.Unlock()
		<-op.done
		return op.err
	}
	op := &inflight{done: make(chan struct{})}
	c.hoverClear = op
	c.hovered = nil
	c.mu.Unlock()

	op.err = c.callWithTimeout("clear hover", c.highlighter.ClearHover)

	c.mu.Lock()
	c.hoverClear = nil
	c.mu.Unlock()
	close(op.done)
	return op.err
}

// Select replaces the selection set and applies its emphasis. A hovered
// element entering the selection loses its hover emphasis first.
func (c *Coordinator) Select(keys scene.IDMap) error {
	selection := keys.Clone()
	selection.Prune()

	c.mu.Lock()
	c.selection = selection
	hoveredInSelection := c.hovered != nil && selection.Has(*c.hovered)
	c.mu.Unlock()

	if hoveredInSelection {
		c.ClearHover()
	}

	if selection.IsEmpty() {
		return c.ClearSelection()
	}
	return c.highlighter.ApplySelection(selection)
}

// Toggle flips one element's selection membership (multi-select modifier)
func (c *Coordinator) Toggle(key scene.ElementKey) error {
	c.mu.Lock()
	next := c.selection.Clone()
	if next.Has(key) {
		next.Remove(key)
	} else {
		next.Add(key)
	}
	c.mu.Unlock()
	return c.Select(next)
}

// Selection returns a copy of the current selection set
func (c *Coordinator) Selection() scene.IDMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Clone()
}

// ClearSelection clears the selection emphasis with the same single-flight
// coalescing as ClearHover.
func (c *Coordinator) ClearSelection() error {
	c.mu.Lock()
	if op := c.selectClear; op != nil {
		c.mu.Unlock()
		<-op.done
		return op.err
	}
	op := &inflight{done: make(chan struct{})}
	c.selectClear = op
	c.selection = scene.NewIDMap()
	c.mu.Unlock()

	op.err = c.callWithTimeout("clear selection", c.highlighter.ClearSelection)

	c.mu.Lock()
	c.selectClear = nil
	c.mu.Unlock()
	close(op.done)
	return op.err
}

// MarkMaterialsCreated arms the needs-refresh flag. The rendering
// collaborator creates highlight materials lazily; the clip engine must
// re-register them for clipping before the next use.
func (c *Coordinator) MarkMaterialsCreated() {
	c.needsRefresh.Store(true)
}

// ConsumeNeedsRefresh returns and clears the needs-refresh flag
func (c *Coordinator) ConsumeNeedsRefresh() bool {
	return c.needsRefresh.Swap(false)
}

// callWithTimeout runs a collaborator call, degrading to a logged warning
// and no-op completion when it exceeds the budget. Timeouts are not fatal;
// the collaborator call keeps running and its eventual result is dropped.
func (c *Coordinator) callWithTimeout(what string, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("Warning: %s failed: %v", what, err)
		}
		return err
	case <-time.After(c.timeout):
		log.Printf("Warning: %s timed out after %v", what, c.timeout)
		return nil
	}
}

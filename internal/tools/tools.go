// Package tools implements the single-active-tool state machine and the five
// interaction tools: select, measure, cut, section box and model transform.
// Pointer and keyboard events are routed only to the active tool; each tool
// discards its transient state when deactivated.
package tools

import (
	"fmt"
	"sync"
)

// ID names one tool of the closed set
type ID string

const (
	Select    ID = "select"
	Measure   ID = "measure"
	Cut       ID = "cut"
	Section   ID = "section"
	Transform ID = "transform"
)

// Button identifies a pointer button
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// Modifiers carries the modifier-key state of an input event
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
}

// PointerEvent is a pointer interaction in render-surface pixel coordinates
type PointerEvent struct {
	X, Y   float64
	Button Button
	Mods   Modifiers
}

// KeyEvent is a key press forwarded from the host UI layer
type KeyEvent struct {
	Key  string
	Mods Modifiers
}

// Tool is the lifecycle contract every tool implements. Enable and Disable
// are invoked by the machine on activation and deactivation; Disable must
// release all transient state and preview visuals.
type Tool interface {
	ID() ID
	Cursor() string
	Enable() error
	Disable() error
}

// Tools absent from a handler interface simply do not receive that event class.
type (
	// PointerDownHandler receives pointer-down events while active
	PointerDownHandler interface {
		OnPointerDown(ev PointerEvent)
	}
	// PointerMoveHandler receives pointer-move events while active
	PointerMoveHandler interface {
		OnPointerMove(ev PointerEvent, buttonHeld bool)
	}
	// PointerUpHandler receives pointer-up events while active. The machine
	// forwards global releases too, so a drag ending outside the render
	// surface still terminates.
	PointerUpHandler interface {
		OnPointerUp(ev PointerEvent)
	}
	// KeyHandler receives key-down events while active
	KeyHandler interface {
		OnKeyDown(ev KeyEvent)
	}
	// FrameHandler receives one callback per animation frame while active,
	// used to coalesce high-frequency input into at most one unit of work
	// per frame.
	FrameHandler interface {
		OnFrame()
	}
)

// CursorSurface is the render-surface collaborator that displays the active
// tool's cursor glyph.
type CursorSurface interface {
	SetCursor(glyph string)
}

// Machine holds the flat tool set with exactly one tool active. Transitions
// are arbitrary tool-to-tool with no guards; the initial tool is select.
type Machine struct {
	mu      sync.Mutex
	tools   map[ID]Tool
	active  Tool
	surface CursorSurface
}

// NewMachine creates a machine over the given tools. surface may be nil.
func NewMachine(surface CursorSurface, tools ...Tool) *Machine {
	m := &Machine{
		tools:   make(map[ID]Tool),
		surface: surface,
	}
	for _, t := range tools {
		m.tools[t.ID()] = t
	}
	return m
}

// Active returns the id of the active tool, or "" before the first activation
func (m *Machine) Active() ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ""
	}
	return m.active.ID()
}

// SetActive deactivates the current tool before activating the next.
// Setting the already-active tool is a no-op: neither hook runs again.
func (m *Machine) SetActive(id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := m.tools[id]
	if !ok {
		return fmt.Errorf("unknown tool: %s", id)
	}
	if m.active == next {
		return nil
	}

	if m.active != nil {
		if err := m.active.Disable(); err != nil {
			return fmt.Errorf("disabling %s: %w", m.active.ID(), err)
		}
	}

	m.active = next
	if err := next.Enable(); err != nil {
		return fmt.Errorf("enabling %s: %w", id, err)
	}
	if m.surface != nil {
		m.surface.SetCursor(next.Cursor())
	}
	return nil
}

func (m *Machine) current() Tool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// PointerDown forwards a pointer-down event to the active tool
func (m *Machine) PointerDown(ev PointerEvent) {
	if h, ok := m.current().(PointerDownHandler); ok {
		h.OnPointerDown(ev)
	}
}

// PointerMove forwards a pointer-move event to the active tool
func (m *Machine) PointerMove(ev PointerEvent, buttonHeld bool) {
	if h, ok := m.current().(PointerMoveHandler); ok {
		h.OnPointerMove(ev, buttonHeld)
	}
}

// PointerUp forwards a pointer-up event to the active tool. Callers must
// also invoke it for releases observed outside the render surface so drags
// can not get stuck.
func (m *Machine) PointerUp(ev PointerEvent) {
	if h, ok := m.current().(PointerUpHandler); ok {
		h.OnPointerUp(ev)
	}
}

// KeyDown forwards a key press to the active tool
func (m *Machine) KeyDown(ev KeyEvent) {
	if h, ok := m.current().(KeyHandler); ok {
		h.OnKeyDown(ev)
	}
}

// Frame delivers the per-frame tick to the active tool
func (m *Machine) Frame() {
	if h, ok := m.current().(FrameHandler); ok {
		h.OnFrame()
	}
}

package app

import (
	"log"

	"github.com/philipparndt/gobim/internal/tools"
)

// HandleKey is the keyboard entry point. Global shortcuts are resolved
// first; anything else goes to the active tool.
func (a *App) HandleKey(ev tools.KeyEvent) {
	switch ev.Key {
	case "1":
		a.activateOrWarn(tools.Select)
	case "2":
		a.activateOrWarn(tools.Measure)
	case "3":
		a.activateOrWarn(tools.Cut)
	case "4":
		a.activateOrWarn(tools.Section)
	case "5":
		a.activateOrWarn(tools.Transform)
	case "h":
		a.HideSelected()
	case "i":
		if a.visibility.Isolating() {
			a.RestoreIsolation()
		} else {
			a.IsolateSelected()
		}
	case "u":
		a.UnhideAll()
	case "f":
		a.FrameSelection()
	case "Escape":
		a.machine.KeyDown(ev)
		if a.machine.Active() == tools.Select {
			if err := a.highlights.ClearSelection(); err != nil {
				log.Printf("Warning: clearing selection: %v", err)
			}
			a.bus.Publish(SelectionChangedEvent{Count: 0})
		}
	default:
		a.machine.KeyDown(ev)
	}
}

func (a *App) activateOrWarn(id tools.ID) {
	if err := a.ActivateTool(id); err != nil {
		log.Printf("Warning: activating tool %s: %v", id, err)
	}
}

// Pointer entry points forwarded to the active tool

func (a *App) PointerDown(ev tools.PointerEvent) { a.machine.PointerDown(ev) }

func (a *App) PointerMove(ev tools.PointerEvent, buttonHeld bool) {
	a.machine.PointerMove(ev, buttonHeld)
}

// PointerUp also accepts releases observed outside the render surface
func (a *App) PointerUp(ev tools.PointerEvent) { a.machine.PointerUp(ev) }

// Package server exposes the viewer over HTTP: a JSON state and operations
// API plus a server-sent-events stream of state changes.
package server

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/philipparndt/gobim/internal/app"
	"github.com/philipparndt/gobim/internal/config"
	"github.com/philipparndt/gobim/internal/store"
	"github.com/philipparndt/gobim/version"
)

type Server struct {
	viewer  *app.App
	presets *store.Repository
	router  *fiber.App
	cfg     *config.Config
}

// New builds the HTTP server. presets may be nil when no database is
// configured; the preset routes then answer 503.
func New(cfg *config.Config, viewer *app.App, presets *store.Repository) *Server {
	s := &Server{
		viewer:  viewer,
		presets: presets,
		cfg:     cfg,
	}

	s.router = fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "gobim " + version.GetVersion(),
	})

	s.router.Use(recover.New())
	s.router.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", s.health)

	api := s.router.Group("/api/v1")

	api.Get("/state", s.state)
	api.Get("/events", s.events)

	api.Post("/model/load", s.loadModel)
	api.Post("/model/upload", s.uploadModel)
	api.Post("/model/unload", s.unloadModel)
	api.Get("/model/elements/:id/properties", s.elementProperties)

	api.Post("/tool", s.setTool)
	api.Post("/viewport", s.setViewport)
	api.Post("/view", s.setView)
	api.Post("/key", s.key)
	api.Post("/pointer", s.pointer)

	api.Post("/selection/clear", s.clearSelection)
	api.Post("/visibility/hide-selected", s.hideSelected)
	api.Post("/visibility/isolate", s.isolate)
	api.Post("/visibility/restore", s.restore)
	api.Post("/visibility/unhide-all", s.unhideAll)
	api.Post("/visibility/class", s.setClassHidden)
	api.Post("/visibility/storey", s.setStoreyHidden)

	api.Post("/cut", s.setCut)

	api.Get("/filter", s.exportFilter)
	api.Post("/filter", s.importFilter)

	api.Get("/measurements", s.listMeasurements)
	api.Delete("/measurements/:id", s.removeMeasurement)
	api.Delete("/measurements", s.clearMeasurements)

	api.Get("/history", s.history)

	api.Get("/presets", s.listPresets)
	api.Post("/presets", s.savePreset)
	api.Get("/presets/:id", s.getPreset)
	api.Put("/presets/:id", s.updatePreset)
	api.Delete("/presets/:id", s.deletePreset)
	api.Post("/presets/:id/apply", s.applyPreset)

	api.Get("/snapshots", s.listSnapshots)
	api.Post("/snapshots", s.saveSnapshot)
	api.Get("/snapshots/:id", s.getSnapshot)
	api.Delete("/snapshots/:id", s.deleteSnapshot)
	api.Post("/snapshots/:id/restore", s.restoreSnapshot)
}

// Router exposes the fiber app for tests
func (s *Server) Router() *fiber.App {
	return s.router
}

// Listen serves until the listener fails or is shut down
func (s *Server) Listen() error {
	return s.router.Listen(":" + s.cfg.Port)
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown() error {
	return s.router.Shutdown()
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/philipparndt/gobim/internal/app"
	"github.com/philipparndt/gobim/internal/clip"
	"github.com/philipparndt/gobim/internal/filter"
	"github.com/philipparndt/gobim/internal/store"
	"github.com/philipparndt/gobim/internal/tools"
	"github.com/philipparndt/gobim/version"
)

func (s *Server) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version.GetFullVersion(),
	})
}

func (s *Server) state(c fiber.Ctx) error {
	return c.JSON(s.viewer.Snapshot())
}

type loadRequest struct {
	Path string `json:"path"`
}

func (s *Server) loadModel(c fiber.Ctx) error {
	var req loadRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.Path == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "path required"})
	}

	if err := s.viewer.LoadModel(context.Background(), req.Path); err != nil {
		if errors.Is(err, app.ErrLoadInProgress) {
			return c.Status(http.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.viewer.Snapshot())
}

func (s *Server) unloadModel(c fiber.Ctx) error {
	s.viewer.Unload()
	return c.JSON(fiber.Map{"status": "ok"})
}

// uploadModel stores a pushed model index under the configured model
// directory and loads it
func (s *Server) uploadModel(c fiber.Ctx) error {
	name := c.Query("name")
	if name == "" || name != filepath.Base(name) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "name must be a plain file name"})
	}
	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	path := filepath.Join(s.cfg.ModelDir, name)
	if err := os.WriteFile(path, c.Body(), 0o644); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := s.viewer.LoadModel(context.Background(), path); err != nil {
		if errors.Is(err, app.ErrLoadInProgress) {
			return c.Status(http.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.viewer.Snapshot())
}

func (s *Server) elementProperties(c fiber.Ctx) error {
	model := s.viewer.Model()
	if model == nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "no model loaded"})
	}
	localID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid element id"})
	}

	el := model.Element(uint32(localID))
	if el == nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "element not found"})
	}
	return c.JSON(fiber.Map{
		"id":         el.LocalID,
		"class":      el.Class,
		"storey":     el.Storey,
		"properties": el.Properties,
	})
}

type toolRequest struct {
	Tool string `json:"tool"`
}

func (s *Server) setTool(c fiber.Ctx) error {
	var req toolRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if err := s.viewer.ActivateTool(tools.ID(req.Tool)); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"tool": req.Tool})
}

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) setViewport(c fiber.Ctx) error {
	var req viewportRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.Width <= 0 || req.Height <= 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "width and height must be positive"})
	}
	s.viewer.SetViewport(req.Width, req.Height)
	return c.JSON(fiber.Map{"status": "ok"})
}

type viewRequest struct {
	View string `json:"view"`
}

func (s *Server) setView(c fiber.Ctx) error {
	var req viewRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	s.viewer.SetView(app.View(req.View))
	return c.JSON(fiber.Map{"status": "ok"})
}

type keyRequest struct {
	Key   string `json:"key"`
	Shift bool   `json:"shift"`
	Ctrl  bool   `json:"ctrl"`
	Alt   bool   `json:"alt"`
}

func (s *Server) key(c fiber.Ctx) error {
	var req keyRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	s.viewer.HandleKey(tools.KeyEvent{
		Key:  req.Key,
		Mods: tools.Modifiers{Shift: req.Shift, Ctrl: req.Ctrl, Alt: req.Alt},
	})
	return c.JSON(fiber.Map{"status": "ok"})
}

type pointerRequest struct {
	Type       string  `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Button     string  `json:"button"`
	ButtonHeld bool    `json:"buttonHeld"`
	Shift      bool    `json:"shift"`
	Ctrl       bool    `json:"ctrl"`
	Alt        bool    `json:"alt"`
}

// pointer feeds a pointer event to the active tool and runs a frame tick,
// so hover requests batched by the select tool are flushed immediately.
func (s *Server) pointer(c fiber.Ctx) error {
	var req pointerRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	var button tools.Button
	switch req.Button {
	case "", "none":
		button = tools.ButtonNone
	case "left":
		button = tools.ButtonLeft
	case "middle":
		button = tools.ButtonMiddle
	case "right":
		button = tools.ButtonRight
	default:
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "unknown button"})
	}

	ev := tools.PointerEvent{
		X:      req.X,
		Y:      req.Y,
		Button: button,
		Mods:   tools.Modifiers{Shift: req.Shift, Ctrl: req.Ctrl, Alt: req.Alt},
	}
	switch req.Type {
	case "down":
		s.viewer.PointerDown(ev)
	case "move":
		s.viewer.PointerMove(ev, req.ButtonHeld)
	case "up":
		s.viewer.PointerUp(ev)
	default:
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "type must be down, move or up"})
	}
	s.viewer.Frame()
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) clearSelection(c fiber.Ctx) error {
	if err := s.viewer.Highlights().ClearSelection(); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) hideSelected(c fiber.Ctx) error {
	s.viewer.HideSelected()
	s.viewer.WaitForFlush()
	return c.JSON(s.viewer.Snapshot())
}

func (s *Server) isolate(c fiber.Ctx) error {
	s.viewer.IsolateSelected()
	return c.JSON(s.viewer.Snapshot())
}

func (s *Server) restore(c fiber.Ctx) error {
	s.viewer.RestoreIsolation()
	s.viewer.WaitForFlush()
	return c.JSON(s.viewer.Snapshot())
}

func (s *Server) unhideAll(c fiber.Ctx) error {
	s.viewer.UnhideAll()
	return c.JSON(s.viewer.Snapshot())
}

type groupRequest struct {
	Label  string `json:"label"`
	Hidden bool   `json:"hidden"`
}

func (s *Server) setClassHidden(c fiber.Ctx) error {
	return s.setGroupHidden(c, s.viewer.Visibility().SetClassHidden)
}

func (s *Server) setStoreyHidden(c fiber.Ctx) error {
	return s.setGroupHidden(c, s.viewer.Visibility().SetStoreyHidden)
}

func (s *Server) setGroupHidden(c fiber.Ctx, set func(string, bool)) error {
	var req groupRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.Label == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "label required"})
	}
	set(req.Label, req.Hidden)
	s.viewer.RequestFlush()
	s.viewer.WaitForFlush()
	return c.JSON(s.viewer.Snapshot())
}

// cutRequest uses pointers so a partial body changes only the named fields
type cutRequest struct {
	Enabled  *bool    `json:"enabled"`
	Mode     *string  `json:"mode"`
	Inverted *bool    `json:"inverted"`
	Axis     *int     `json:"axis"`
	Offset   *float64 `json:"offset"`
}

func (s *Server) setCut(c fiber.Ctx) error {
	var req cutRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	if req.Mode != nil {
		mode := clip.Mode(*req.Mode)
		if mode != clip.ModeBox && mode != clip.ModePlane {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "mode must be box or plane"})
		}
		s.viewer.SetCutMode(mode)
	}
	if req.Axis != nil {
		if *req.Axis < int(clip.AxisX) || *req.Axis > int(clip.AxisZ) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "axis must be 0, 1 or 2"})
		}
		s.viewer.SetCutAxis(clip.Axis(*req.Axis))
	}
	if req.Offset != nil {
		s.viewer.SetCutOffset(*req.Offset)
	}
	if req.Inverted != nil {
		s.viewer.SetCutInverted(*req.Inverted)
	}
	if req.Enabled != nil {
		s.viewer.SetCutEnabled(*req.Enabled)
	}

	s.viewer.WaitForFlush()
	return c.JSON(s.viewer.Snapshot())
}

func (s *Server) exportFilter(c fiber.Ctx) error {
	data, err := s.viewer.ExportFilter()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set("Content-Type", "application/json")
	return c.Send(data)
}

func (s *Server) importFilter(c fiber.Ctx) error {
	if err := s.viewer.ImportFilter(c.Body()); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	s.viewer.WaitForFlush()
	return c.JSON(s.viewer.Snapshot())
}

func (s *Server) listMeasurements(c fiber.Ctx) error {
	return c.JSON(s.viewer.Measurements().List())
}

func (s *Server) removeMeasurement(c fiber.Ctx) error {
	s.viewer.Measurements().Remove(c.Params("id"))
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) clearMeasurements(c fiber.Ctx) error {
	s.viewer.Measurements().Clear()
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) history(c fiber.Ctx) error {
	return c.JSON(s.viewer.History().Entries())
}

// Preset handlers

func (s *Server) presetsReady() bool {
	return s.presets != nil
}

func presetUnavailable(c fiber.Ctx) error {
	return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "preset storage not configured"})
}

func (s *Server) listPresets(c fiber.Ctx) error {
	if !s.presetsReady() {
		return presetUnavailable(c)
	}
	presets, err := s.presets.List(context.Background())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if presets == nil {
		presets = []*store.Preset{}
	}
	return c.JSON(presets)
}

type presetRequest struct {
	Name   string          `json:"name"`
	Filter json.RawMessage `json:"filter"`
}

func (s *Server) savePreset(c fiber.Ctx) error {
	if !s.presetsReady() {
		return presetUnavailable(c)
	}
	name, f, errResp := s.parsePreset(c)
	if errResp != nil {
		return errResp(c)
	}

	preset, err := s.presets.Save(context.Background(), name, f)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusCreated).JSON(preset)
}

func (s *Server) getPreset(c fiber.Ctx) error {
	if !s.presetsReady() {
		return presetUnavailable(c)
	}
	preset, err := s.presets.Get(context.Background(), c.Params("id"))
	if err != nil {
		return presetError(c, err)
	}
	return c.JSON(preset)
}

func (s *Server) updatePreset(c fiber.Ctx) error {
	if !s.presetsReady() {
		return presetUnavailable(c)
	}
	name, f, errResp := s.parsePreset(c)
	if errResp != nil {
		return errResp(c)
	}

	if err := s.presets.Update(context.Background(), c.Params("id"), name, f); err != nil {
		return presetError(c, err)
	}
	preset, err := s.presets.Get(context.Background(), c.Params("id"))
	if err != nil {
		return presetError(c, err)
	}
	return c.JSON(preset)
}

func (s *Server) deletePreset(c fiber.Ctx) error {
	if !s.presetsReady() {
		return presetUnavailable(c)
	}
	if err := s.presets.Delete(context.Background(), c.Params("id")); err != nil {
		return presetError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) applyPreset(c fiber.Ctx) error {
	if !s.presetsReady() {
		return presetUnavailable(c)
	}
	preset, err := s.presets.Get(context.Background(), c.Params("id"))
	if err != nil {
		return presetError(c, err)
	}
	s.viewer.SetFilter(preset.Filter)
	s.viewer.WaitForFlush()
	return c.JSON(s.viewer.Snapshot())
}

// parsePreset reads the request body. The filter payload is optional; when
// absent the preset captures the currently active filter.
func (s *Server) parsePreset(c fiber.Ctx) (string, filter.Filter, func(fiber.Ctx) error) {
	var req presetRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return "", filter.Filter{}, badRequest("invalid json")
	}
	if req.Name == "" {
		return "", filter.Filter{}, badRequest("name required")
	}

	f := s.viewer.ActiveFilter()
	if len(req.Filter) > 0 {
		parsed, err := filter.Import(req.Filter, f)
		if err != nil {
			return "", filter.Filter{}, badRequest(err.Error())
		}
		f = parsed
	}
	return req.Name, f, nil
}

func badRequest(msg string) func(fiber.Ctx) error {
	return func(c fiber.Ctx) error {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
}

func presetError(c fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "preset not found"})
	}
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// Measurement snapshot handlers

func (s *Server) listSnapshots(c fiber.Ctx) error {
	if !s.presetsReady() {
		return presetUnavailable(c)
	}
	snapshots, err := s.presets.ListSnapshots(context.Background())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if snapshots == nil {
		snapshots = []*store.MeasurementSnapshot{}
	}
	return c.JSON(snapshots)
}

type snapshotRequest struct {
	Name string `json:"name"`
}

// saveSnapshot captures the current measurement set under a name
func (s *Server) saveSnapshot(c fiber.Ctx) error {
	if !s.presetsReady() {
		return presetUnavailable(c)
	}
	var req snapshotRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.Name == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "name required"})
	}

	snapshot, err := s.presets.SaveSnapshot(context.Background(), req.Name, s.viewer.Measurements().List())
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusCreated).JSON(snapshot)
}

func (s *Server) getSnapshot(c fiber.Ctx) error {
	if !s.presetsReady() {
		return presetUnavailable(c)
	}
	snapshot, err := s.presets.GetSnapshot(context.Background(), c.Params("id"))
	if err != nil {
		return snapshotError(c, err)
	}
	return c.JSON(snapshot)
}

func (s *Server) deleteSnapshot(c fiber.Ctx) error {
	if !s.presetsReady() {
		return presetUnavailable(c)
	}
	if err := s.presets.DeleteSnapshot(context.Background(), c.Params("id")); err != nil {
		return snapshotError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) restoreSnapshot(c fiber.Ctx) error {
	if !s.presetsReady() {
		return presetUnavailable(c)
	}
	snapshot, err := s.presets.GetSnapshot(context.Background(), c.Params("id"))
	if err != nil {
		return snapshotError(c, err)
	}
	s.viewer.RestoreMeasurements(snapshot.Measurements)
	return c.JSON(s.viewer.Snapshot())
}

func snapshotError(c fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "snapshot not found"})
	}
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

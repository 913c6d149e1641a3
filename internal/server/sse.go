package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
)

// heartbeatInterval keeps idle SSE connections from being reaped by proxies
const heartbeatInterval = 15 * time.Second

// events streams viewer state changes as server-sent events. One subscriber
// channel per connection; the subscription ends when the client goes away.
func (s *Server) events(c fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	id, ch := s.viewer.Events().Subscribe()

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer s.viewer.Events().Unsubscribe(id)

		// Initial snapshot so clients render without waiting for a change
		if err := writeEvent(w, "state", s.viewer.Snapshot()); err != nil {
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				if err := writeEvent(w, event.EventType(), event); err != nil {
					return
				}
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
}

func writeEvent(w *bufio.Writer, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		return err
	}
	return w.Flush()
}

package app

import (
	"sync"
	"time"
)

// historyLimit caps the retained entries; older entries are dropped
const historyLimit = 200

// HistoryEntry records one user-visible operation
type HistoryEntry struct {
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	Detail string    `json:"detail"`
}

// History is a bounded, append-only operation log
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	now     func() time.Time
}

func NewHistory() *History {
	return &History{now: time.Now}
}

// Record appends an entry, evicting the oldest past the limit
func (h *History) Record(action, detail string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, HistoryEntry{At: h.now(), Action: action, Detail: detail})
	if len(h.entries) > historyLimit {
		h.entries = h.entries[len(h.entries)-historyLimit:]
	}
}

// Entries returns a copy of the log, oldest first
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Clear discards all entries
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

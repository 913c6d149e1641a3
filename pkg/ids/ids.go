// Package ids produces collision-resistant opaque identifiers for
// runtime-created entities such as measurements and async requests.
package ids

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// New returns an opaque identifier with the given kind prefix, e.g.
// "measurement-5f3a...". The prefix keeps logs and exported state readable;
// the uuid body makes collisions across sessions irrelevant.
func New(kind string) string {
	return kind + "-" + uuid.NewString()
}

// Kind returns the prefix an identifier was created with, or "" if the
// identifier has no recognizable prefix.
func Kind(id string) string {
	i := strings.IndexByte(id, '-')
	if i <= 0 {
		return ""
	}
	return id[:i]
}

// Serial issues monotonically increasing request serials. The zero value is
// ready to use. Serials order async responses: a response whose serial is
// older than the latest issued one is stale and must be discarded.
type Serial struct {
	n atomic.Uint64
}

// Next returns the next serial number, starting from 1
func (s *Serial) Next() uint64 {
	return s.n.Add(1)
}

// Current returns the most recently issued serial (0 if none)
func (s *Serial) Current() uint64 {
	return s.n.Load()
}

// IsCurrent reports whether the given serial is still the latest
func (s *Serial) IsCurrent(serial uint64) bool {
	return s.n.Load() == serial
}

// String implements fmt.Stringer for logging
func (s *Serial) String() string {
	return fmt.Sprintf("serial(%d)", s.n.Load())
}

package notify

import (
	"sync"
	"time"
)

const (
	// DismissAfter is how long a notice stays up without interaction.
	DismissAfter = 5 * time.Second
	// DismissAfterBlur is the shortened dwell once focus leaves a notice.
	DismissAfterBlur = 2 * time.Second
	// MaxNamesShown caps how many duplicate names a notice lists. The
	// full count is always retained.
	MaxNamesShown = 5
)

// Notice is a transient informational message about duplicate
// admissions. Names is capped for display; Total carries the real count.
type Notice struct {
	Names []string  `json:"names"`
	Total int       `json:"total"`
	Since time.Time `json:"since"`
}

// Center holds at most one active notice and manages its auto-dismiss
// deadline. Focus pauses the countdown; blur restarts it shortened.
// Expiry is evaluated lazily on read, so no timer goroutine is needed.
type Center struct {
	mu       sync.Mutex
	now      func() time.Time
	current  *Notice
	deadline time.Time
	focused  bool
}

// NewCenter creates a Center using the real clock.
func NewCenter() *Center {
	return &Center{now: time.Now}
}

// NewCenterWithClock creates a Center with an injected clock for tests.
func NewCenterWithClock(now func() time.Time) *Center {
	return &Center{now: now}
}

// PublishDuplicates raises a notice for the given duplicate filenames.
// An empty list is a no-op. A new notice replaces any active one and
// restarts the countdown.
func (c *Center) PublishDuplicates(names []string) {
	if len(names) == 0 {
		return
	}

	shown := names
	if len(shown) > MaxNamesShown {
		shown = shown[:MaxNamesShown]
	}
	// Copy so later caller mutations cannot leak into the notice.
	copied := make([]string, len(shown))
	copy(copied, shown)

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.current = &Notice{Names: copied, Total: len(names), Since: now}
	c.deadline = now.Add(DismissAfter)
	c.focused = false
}

// Current returns the active notice, if any. An expired notice is
// cleared on read.
func (c *Center) Current() (Notice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Notice{}, false
	}
	if !c.focused && !c.now().Before(c.deadline) {
		c.current = nil
		return Notice{}, false
	}
	return *c.current, true
}

// Focus pauses the dismiss countdown while pointer or keyboard focus
// rests on the notice.
func (c *Center) Focus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.focused = true
	}
}

// Blur restarts the countdown with the shortened post-focus dwell.
func (c *Center) Blur() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	c.focused = false
	c.deadline = c.now().Add(DismissAfterBlur)
}

// Dismiss clears the notice immediately.
func (c *Center) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.focused = false
}

// Package toast is the single-slot notification channel: at most one
// notification node exists in the document, a new one replaces the
// previous one synchronously, non-loading ones dismiss themselves.
package toast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/pagesnap/domshot/internal/clock"
	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
)

// Severity selects icon and accent colour.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Error   Severity = "error"
	Loading Severity = "loading"
)

// DefaultDuration is used by the Success/Error/Info shorthands.
const DefaultDuration = 3 * time.Second

// exitDelay is the length of the slide-out animation before removal.
const exitDelay = 200 * time.Millisecond

// Option configures a Channel.
type Option func(*Channel)

// WithClock replaces the wall clock (tests).
func WithClock(c clock.Clock) Option { return func(ch *Channel) { ch.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(ch *Channel) { ch.logger = l } }

// Channel shows notifications in one document.
type Channel struct {
	doc    dom.Document
	id     string
	clock  clock.Clock
	logger *slog.Logger

	mu      sync.Mutex
	current *Handle
}

// New creates a Channel. id is the DOM id of the notification node; the
// style sheet uses id + "-styles".
func New(doc dom.Document, id string, opts ...Option) *Channel {
	c := &Channel{doc: doc, id: id, clock: clock.Real{}, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ID returns the DOM id of the notification node.
func (c *Channel) ID() string { return c.id }

// Notify replaces any visible notification with a new one. A zero
// duration, or the loading severity, keeps it until Dismiss.
func (c *Channel) Notify(message string, sev Severity, d time.Duration) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.current.dismissLocked()
	}
	// Stale nodes left by another channel instance on the same document.
	// A lookup returning the node just removed means removal failed.
	var last dom.Element
	for {
		el, ok := c.doc.ElementByID(c.id)
		if !ok || el == last {
			break
		}
		el.Remove()
		last = el
	}

	c.installStylesLocked()

	h := &Handle{c: c, message: message, severity: sev}
	h.node = c.build(message, sev)
	if h.node == nil {
		h.removed = true
		c.logger.Warn("toast: create node failed", "severity", sev)
		return h
	}
	c.doc.Body().AppendChild(h.node)
	c.current = h

	if sev != Loading && d > 0 {
		h.timer = c.clock.AfterFunc(d, func() { c.beginExit(h) })
	}
	c.logger.Debug("toast: shown", "severity", sev, "message", message, "duration", d)
	return h
}

func (c *Channel) Info(message string, d time.Duration) *Handle { return c.Notify(message, Info, d) }
func (c *Channel) Success(message string) *Handle               { return c.Notify(message, Success, DefaultDuration) }
func (c *Channel) Error(message string) *Handle                 { return c.Notify(message, Error, DefaultDuration) }
func (c *Channel) Loading(message string) *Handle               { return c.Notify(message, Loading, 0) }

// Current returns the visible notification, or nil.
func (c *Channel) Current() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Nodes returns the visible notification node, if any.
func (c *Channel) Nodes() []dom.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.node == nil {
		return nil
	}
	return []dom.Element{c.current.node}
}

// Clear dismisses the visible notification.
func (c *Channel) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.dismissLocked()
	}
}

func (c *Channel) beginExit(h *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h.removed {
		return
	}
	h.node.AddClass("toast-exit")
	h.timer = c.clock.AfterFunc(exitDelay, h.Dismiss)
}

// Handle is one shown notification.
type Handle struct {
	c        *Channel
	node     dom.Element
	message  string
	severity Severity
	timer    clock.Timer
	removed  bool
}

// Dismiss removes the notification. Safe to call repeatedly and after the
// notification was replaced; it never touches a newer one.
func (h *Handle) Dismiss() {
	if h == nil {
		return
	}
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	h.dismissLocked()
}

func (h *Handle) dismissLocked() {
	if h.removed {
		return
	}
	h.removed = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	if h.node != nil {
		h.node.Remove()
	}
	if h.c.current == h {
		h.c.current = nil
	}
}

func (h *Handle) Message() string    { return h.message }
func (h *Handle) Severity() Severity { return h.severity }

// Visible reports whether the notification is still in the document.
func (h *Handle) Visible() bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	return !h.removed
}

// Node returns the notification's root node.
func (h *Handle) Node() dom.Element { return h.node }

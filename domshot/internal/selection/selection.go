// CLAUDE:SUMMARY Element-picking mode: Idle/Selecting state machine, one Session per pick, idempotent teardown, commit after teardown.
// Package selection implements the interactive element-picking mode of a
// page. A Mode is either Idle or Selecting; while Selecting, exactly one
// Session owns the page listeners, the hovered element and the saved body
// styles.
package selection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
	"github.com/hazyhaar/pagesnap/domshot/internal/toast"
)

// Messages shown by the mode.
const (
	HintMessage      = "Select an element to capture, press ESC to cancel"
	CancelledMessage = "Element selection cancelled"
)

// State of a Mode.
type State int

const (
	Idle State = iota
	Selecting
)

func (s State) String() string {
	if s == Selecting {
		return "selecting"
	}
	return "idle"
}

// Highlighter draws the hover outline.
type Highlighter interface {
	Ensure() dom.Element
	Show(el dom.Element)
	Hide()
}

// Resolver maps pointer coordinates to an eligible element.
type Resolver interface {
	Resolve(x, y float64) (dom.Element, bool)
}

// Notifier shows info notifications.
type Notifier interface {
	Info(message string, d time.Duration) *toast.Handle
}

// Config wires a Mode to its page.
type Config struct {
	Document dom.Document
	Overlay  Highlighter
	Resolver Resolver
	Notifier Notifier // optional

	// OnCommit receives the clicked element, after teardown, once per
	// session. Optional.
	OnCommit func(el dom.Element)

	HintDuration   time.Duration // default 5s
	CancelDuration time.Duration // default toast.DefaultDuration
	Logger         *slog.Logger
}

// Mode is the per-page selection mode.
type Mode struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	session *Session
}

// New creates an Idle mode.
func New(cfg Config) *Mode {
	if cfg.HintDuration <= 0 {
		cfg.HintDuration = 5 * time.Second
	}
	if cfg.CancelDuration <= 0 {
		cfg.CancelDuration = toast.DefaultDuration
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Mode{cfg: cfg, logger: logger}
}

// State returns Selecting while a session is active.
func (m *Mode) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		return Selecting
	}
	return Idle
}

// Hovered returns the element under the pointer while Selecting.
func (m *Mode) Hovered() (dom.Element, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil || m.session.hovered == nil {
		return nil, false
	}
	return m.session.hovered, true
}

// Active returns the current session, or nil.
func (m *Mode) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Enter starts a session. It returns nil, and changes nothing, when a
// session is already active.
func (m *Mode) Enter() *Session {
	m.mu.Lock()
	if m.session != nil {
		m.mu.Unlock()
		m.logger.Debug("selection: already selecting")
		return nil
	}

	doc := m.cfg.Document
	body := doc.Body()
	s := &Session{
		m:               m,
		done:            make(chan struct{}),
		savedCursor:     body.Style("cursor"),
		savedUserSelect: body.Style("user-select"),
	}
	m.session = s

	s.unlisten = append(s.unlisten,
		doc.Listen(dom.MouseMove, dom.ListenOptions{Target: dom.OnDocument, Capture: true}, s.onMove),
		doc.Listen(dom.Click, dom.ListenOptions{Target: dom.OnDocument, Capture: true, Consume: true}, s.onClick),
		doc.Listen(dom.KeyDown, dom.ListenOptions{Target: dom.OnDocument, Capture: true}, s.onKey),
		doc.Listen(dom.Scroll, dom.ListenOptions{Target: dom.OnWindow, Capture: true}, s.onScroll),
	)
	m.cfg.Overlay.Ensure()
	body.SetStyle("cursor", "crosshair")
	body.SetStyle("user-select", "none")
	m.mu.Unlock()

	m.logger.Info("selection: session started")
	if m.cfg.Notifier != nil {
		m.cfg.Notifier.Info(HintMessage, m.cfg.HintDuration)
	}
	return s
}

// Cancel ends the active session like Escape does. It reports whether a
// session was active.
func (m *Mode) Cancel() bool {
	m.mu.Lock()
	s := m.session
	m.mu.Unlock()
	if s == nil {
		return false
	}
	return s.Cancel()
}

func (m *Mode) cancelled() {
	m.logger.Info("selection: cancelled")
	if m.cfg.Notifier != nil {
		m.cfg.Notifier.Info(CancelledMessage, m.cfg.CancelDuration)
	}
}

// Session is one Selecting period.
type Session struct {
	m        *Mode
	unlisten []func()
	done     chan struct{}

	// Guarded by m.mu.
	hovered         dom.Element
	selected        dom.Element
	savedCursor     string
	savedUserSelect string
	closed          bool
}

// Done is closed by teardown.
func (s *Session) Done() <-chan struct{} { return s.done }

// Selected returns the committed element. ok is false when the session
// ended without a pick or is still running.
func (s *Session) Selected() (dom.Element, bool) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.selected, s.selected != nil
}

// Cancel ends this session like Escape does. It reports false, and
// leaves any later session alone, when this one already ended.
func (s *Session) Cancel() bool {
	s.m.mu.Lock()
	if s.closed {
		s.m.mu.Unlock()
		return false
	}
	s.teardownLocked()
	s.m.mu.Unlock()
	s.m.cancelled()
	return true
}

// Close tears the session down without committing or notifying.
// Idempotent.
func (s *Session) Close() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.teardownLocked()
}

func (s *Session) teardownLocked() {
	if s.closed {
		return
	}
	s.closed = true
	for _, unlisten := range s.unlisten {
		unlisten()
	}
	s.unlisten = nil
	s.hovered = nil

	body := s.m.cfg.Document.Body()
	body.SetStyle("cursor", s.savedCursor)
	body.SetStyle("user-select", s.savedUserSelect)
	s.m.cfg.Overlay.Hide()

	if s.m.session == s {
		s.m.session = nil
	}
	close(s.done)
}

// activeLocked reports whether events should still be handled; late
// events queued before teardown are dropped.
func (s *Session) activeLocked() bool {
	return !s.closed && s.m.session == s
}

func (s *Session) onMove(ev dom.Event) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if !s.activeLocked() {
		return
	}
	el, ok := s.m.cfg.Resolver.Resolve(ev.X, ev.Y)
	switch {
	case ok && el != s.hovered:
		s.hovered = el
		s.m.cfg.Overlay.Show(el)
	case !ok && s.hovered != nil:
		s.hovered = nil
		s.m.cfg.Overlay.Hide()
	}
}

func (s *Session) onClick(ev dom.Event) {
	s.m.mu.Lock()
	if !s.activeLocked() {
		s.m.mu.Unlock()
		return
	}
	el, ok := s.m.cfg.Resolver.Resolve(ev.X, ev.Y)
	if !ok {
		s.m.mu.Unlock()
		return
	}
	s.selected = el
	s.teardownLocked()
	s.m.mu.Unlock()

	s.m.logger.Info("selection: element selected", "element", dom.Describe(el))
	if s.m.cfg.OnCommit != nil {
		s.m.cfg.OnCommit(el)
	}
}

func (s *Session) onKey(ev dom.Event) {
	if ev.Key != "Escape" {
		return
	}
	s.m.mu.Lock()
	if !s.activeLocked() {
		s.m.mu.Unlock()
		return
	}
	s.teardownLocked()
	s.m.mu.Unlock()
	s.m.cancelled()
}

func (s *Session) onScroll(dom.Event) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if !s.activeLocked() || s.hovered == nil {
		return
	}
	s.m.cfg.Overlay.Show(s.hovered)
}

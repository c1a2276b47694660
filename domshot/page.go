package domshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/pagesnap/domshot/internal/capture"
	"github.com/hazyhaar/pagesnap/domshot/internal/clock"
	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
	"github.com/hazyhaar/pagesnap/domshot/internal/overlay"
	"github.com/hazyhaar/pagesnap/domshot/internal/pointer"
	"github.com/hazyhaar/pagesnap/domshot/internal/selection"
	"github.com/hazyhaar/pagesnap/domshot/internal/toast"
	"github.com/hazyhaar/pagesnap/domshot/shot"
	"github.com/hazyhaar/pagesnap/idgen"
)

// DOM ids of the nodes injected into every page.
const (
	HighlightID = "pagesnap-highlight"
	ToastID     = "pagesnap-toast"
)

// input drives a page with synthetic pointer and keyboard events.
type input interface {
	PointerMove(ctx context.Context, x, y float64) error
	Click(ctx context.Context, x, y float64) error
	Wheel(ctx context.Context, x, y, dy float64) error
	Key(ctx context.Context, key string) error
}

// pageDeps is everything a Page needs from its transport.
type pageDeps struct {
	id       string
	doc      dom.Document
	collab   capture.Collaborator
	input    input // nil: synthetic input unsupported
	url      func() string
	recorder capture.Recorder
	close    func()

	format       shot.Format
	readyTimeout time.Duration
	infoDuration time.Duration
	hintDuration time.Duration
	clock        clock.Clock
	ids          idgen.Generator
	logger       *slog.Logger
}

// Page is one browser tab under domshot control. It owns the tab's
// highlight box, notification channel, selection mode and capture
// coordinator.
type Page struct {
	id     string
	doc    dom.Document
	input  input
	url    func() string
	format shot.Format
	logger *slog.Logger

	overlay *overlay.Surface
	toasts  *toast.Channel
	mode    *selection.Mode
	capture *capture.Coordinator

	ctx    context.Context
	cancel context.CancelFunc
	close  func()

	mu      sync.Mutex
	pending *Selection
	closed  bool
}

func newPage(parent context.Context, d pageDeps) *Page {
	if d.url == nil {
		d.url = func() string { return "" }
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.format == "" {
		d.format = shot.FormatSVG
	}
	logger := d.logger.With("page", d.id)

	ctx, cancel := context.WithCancel(parent)
	p := &Page{
		id:     d.id,
		doc:    d.doc,
		input:  d.input,
		url:    d.url,
		format: d.format,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		close:  d.close,
	}

	p.overlay = overlay.New(d.doc, HighlightID)
	toastOpts := []toast.Option{toast.WithLogger(logger)}
	if d.clock != nil {
		toastOpts = append(toastOpts, toast.WithClock(d.clock))
	}
	p.toasts = toast.New(d.doc, ToastID, toastOpts...)

	p.mode = selection.New(selection.Config{
		Document:       d.doc,
		Overlay:        p.overlay,
		Resolver:       pointer.New(d.doc, p.overlay, p.overlay, p.toasts),
		Notifier:       p.toasts,
		HintDuration:   d.hintDuration,
		CancelDuration: d.infoDuration,
		Logger:         logger,
	})

	p.capture = capture.New(capture.Config{
		Document:     d.doc,
		Collaborator: d.collab,
		Notifier:     p.toasts,
		Recorder:     d.recorder,
		PageID:       d.id,
		URL:          d.url,
		ReadyTimeout: d.readyTimeout,
		Clock:        d.clock,
		IDs:          d.ids,
		Logger:       logger,
	})
	return p
}

// ID returns the page identifier.
func (p *Page) ID() string { return p.id }

// URL returns the page's current address.
func (p *Page) URL() string { return p.url() }

// PageInfo is a point-in-time view of a page.
type PageInfo struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Selecting bool   `json:"selecting"`
	Capturing bool   `json:"capturing"`
}

// Info returns the page's current state.
func (p *Page) Info() PageInfo {
	return PageInfo{
		ID:        p.id,
		URL:       p.url(),
		Selecting: p.mode.State() == selection.Selecting,
		Capturing: p.capture.Busy(),
	}
}

// CapturePage captures the whole document. An empty format uses the
// configured default.
func (p *Page) CapturePage(ctx context.Context, format shot.Format) (*shot.Artifact, error) {
	if err := p.alive(); err != nil {
		return nil, err
	}
	if format == "" {
		format = p.format
	}
	return p.capture.Capture(ctx, format, nil)
}

// Selection is a pending element pick. It completes when the user clicks
// an element and its capture finishes, or when the pick is cancelled.
type Selection struct {
	format shot.Format
	sess   *selection.Session
	done   chan struct{}
	art    *shot.Artifact
	err    error
}

// Format returns the format the selected element will be captured in.
func (s *Selection) Format() shot.Format { return s.format }

// Done is closed once Result is available.
func (s *Selection) Done() <-chan struct{} { return s.done }

// Result returns the capture outcome. It is only meaningful after Done.
func (s *Selection) Result() (*shot.Artifact, error) { return s.art, s.err }

// Wait blocks until the selection completes or ctx is done.
func (s *Selection) Wait(ctx context.Context) (*shot.Artifact, error) {
	select {
	case <-s.done:
		return s.art, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Selection) finish(art *shot.Artifact, err error) {
	s.art, s.err = art, err
	close(s.done)
}

// SelectElement enters element-selection mode. The clicked element is
// captured in format (empty: configured default). While a selection is
// already running the pending Selection is returned unchanged; while a
// capture is in flight ErrBusy is returned.
func (p *Page) SelectElement(format shot.Format) (*Selection, error) {
	sel, _, err := p.selectElement(format)
	return sel, err
}

// selectElement also reports whether this call started the session.
func (p *Page) selectElement(format shot.Format) (*Selection, bool, error) {
	if err := p.alive(); err != nil {
		return nil, false, err
	}
	if p.capture.Busy() {
		return nil, false, ErrBusy
	}
	if format == "" {
		format = p.format
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	sess := p.mode.Enter()
	if sess == nil {
		if p.pending != nil {
			return p.pending, false, nil
		}
		return nil, false, errors.New("domshot: selection already active")
	}
	sel := &Selection{format: format, sess: sess, done: make(chan struct{})}
	p.pending = sel
	go p.await(sess, sel)
	return sel, true, nil
}

// await runs the selection to completion: after teardown, a committed
// element is captured; any other end is a cancellation.
func (p *Page) await(sess *selection.Session, sel *Selection) {
	<-sess.Done()
	el, ok := sess.Selected()

	p.mu.Lock()
	if p.pending == sel {
		p.pending = nil
	}
	p.mu.Unlock()

	if !ok {
		sel.finish(nil, ErrSelectionCancelled)
		return
	}
	art, err := p.capture.Capture(p.ctx, sel.format, el)
	sel.finish(art, err)
}

// CancelSelection leaves selection mode like Escape does. It reports
// whether a selection was active.
func (p *Page) CancelSelection() bool {
	return p.mode.Cancel()
}

// Selecting reports whether selection mode is active.
func (p *Page) Selecting() bool { return p.mode.State() == selection.Selecting }

// Pick enters selection mode and waits for the selected element's
// capture. Cancelling ctx leaves selection mode when this call started
// it; joining a selection already pending only stops waiting.
func (p *Page) Pick(ctx context.Context, format shot.Format) (*shot.Artifact, error) {
	sel, created, err := p.selectElement(format)
	if err != nil {
		return nil, err
	}
	art, err := sel.Wait(ctx)
	if created && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		sel.sess.Cancel()
	}
	return art, err
}

// PointerMove moves the synthetic pointer to (x, y).
func (p *Page) PointerMove(ctx context.Context, x, y float64) error {
	in, err := p.synthetic()
	if err != nil {
		return err
	}
	return in.PointerMove(ctx, x, y)
}

// Click clicks at (x, y).
func (p *Page) Click(ctx context.Context, x, y float64) error {
	in, err := p.synthetic()
	if err != nil {
		return err
	}
	return in.Click(ctx, x, y)
}

// Scroll scrolls by dy pixels with the pointer at (x, y).
func (p *Page) Scroll(ctx context.Context, x, y, dy float64) error {
	in, err := p.synthetic()
	if err != nil {
		return err
	}
	return in.Wheel(ctx, x, y, dy)
}

// Key presses key ("Escape", "Enter" or a printable character).
func (p *Page) Key(ctx context.Context, key string) error {
	in, err := p.synthetic()
	if err != nil {
		return err
	}
	return in.Key(ctx, key)
}

func (p *Page) synthetic() (input, error) {
	if err := p.alive(); err != nil {
		return nil, err
	}
	if p.input == nil {
		return nil, fmt.Errorf("domshot: page %s: synthetic input unsupported", p.id)
	}
	return p.input, nil
}

func (p *Page) alive() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("domshot: page %s: %w", p.id, ErrPageClosed)
	}
	return nil
}

// Close leaves selection mode without notifying, removes the injected
// nodes and releases the tab. Idempotent.
func (p *Page) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	if sess := p.mode.Active(); sess != nil {
		sess.Close()
	}
	p.toasts.Clear()
	p.overlay.Remove()
	p.cancel()
	if p.close != nil {
		p.close()
	}
	p.logger.Info("domshot: page closed")
}

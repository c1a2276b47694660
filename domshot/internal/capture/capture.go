// CLAUDE:SUMMARY Capture trigger: loading toast, bounded readiness wait, render + export through the collaborator, outcome toast and journal entry.
// Package capture runs one screenshot at a time on a page: it shows the
// loading notification, waits for the render collaborator, renders the
// target, exports the artifact and reports the outcome.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/pagesnap/domshot/internal/clock"
	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
	"github.com/hazyhaar/pagesnap/domshot/internal/toast"
	"github.com/hazyhaar/pagesnap/domshot/shot"
	"github.com/hazyhaar/pagesnap/idgen"
)

var (
	// ErrBusy is returned when a capture is already running on the page.
	ErrBusy = errors.New("capture: busy")
	// ErrUnavailable is returned when the collaborator did not become ready.
	ErrUnavailable = errors.New("capture: collaborator not loaded")
)

// Notification texts.
const (
	LoadingMessage = "Capturing screenshot..."
	SavedMessage   = "Screenshot saved"
	FailedPrefix   = "Screenshot failed: "
)

// DefaultReadyTimeout bounds WaitReady when Config.ReadyTimeout is zero.
const DefaultReadyTimeout = 10 * time.Second

// ExportOptions tells a Result how to encode and where to deliver.
type ExportOptions struct {
	Format    shot.Format
	Filename  string
	RequestID string
	PageID    string
	PageURL   string
}

// Result is a rendered target waiting to be encoded and exported.
type Result interface {
	Export(ctx context.Context, opts ExportOptions) (*shot.Artifact, error)
}

// Collaborator renders a DOM element.
type Collaborator interface {
	Capture(ctx context.Context, target dom.Element) (Result, error)
}

// Readier is implemented by collaborators that load asynchronously.
type Readier interface {
	Ready() <-chan struct{}
}

// Notifier is the subset of the notification channel used here.
type Notifier interface {
	Loading(message string) *toast.Handle
	Success(message string) *toast.Handle
	Error(message string) *toast.Handle
}

// Recorder persists capture outcomes. Failures are logged, never returned
// to the caller.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Request is one accepted capture.
type Request struct {
	ID     string
	Format shot.Format
	Target dom.Element
	Whole  bool
}

// Entry is the journal view of a finished capture.
type Entry struct {
	ID         string      `json:"id"`
	PageID     string      `json:"page_id"`
	PageURL    string      `json:"page_url"`
	Format     shot.Format `json:"format"`
	Target     string      `json:"target"`
	Filename   string      `json:"filename,omitempty"`
	Hash       string      `json:"sha256,omitempty"`
	Bytes      int         `json:"bytes"`
	Err        string      `json:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	DurationMs int64       `json:"duration_ms"`
}

// Config wires a Coordinator to its page.
type Config struct {
	Document     dom.Document
	Collaborator Collaborator
	Notifier     Notifier
	Recorder     Recorder // optional

	PageID string
	// URL returns the page's current address (used for filenames).
	URL func() string

	ReadyTimeout time.Duration
	Clock        clock.Clock
	IDs          idgen.Generator
	Logger       *slog.Logger
}

// Coordinator serialises captures on one page.
type Coordinator struct {
	cfg    Config
	logger *slog.Logger
	busy   atomic.Bool
}

// New creates a Coordinator.
func New(cfg Config) *Coordinator {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.IDs == nil {
		cfg.IDs = idgen.Default
	}
	if cfg.URL == nil {
		cfg.URL = func() string { return "" }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{cfg: cfg, logger: logger}
}

// Busy reports whether a capture is in flight.
func (c *Coordinator) Busy() bool { return c.busy.Load() }

// Capture renders target (the whole document when nil) in format and
// exports it. A call made while another capture runs returns ErrBusy
// without touching the notifications.
func (c *Coordinator) Capture(ctx context.Context, format shot.Format, target dom.Element) (*shot.Artifact, error) {
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Info("capture: rejected, capture in flight", "page", c.cfg.PageID)
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	req := Request{ID: c.cfg.IDs(), Format: format, Target: target, Whole: target == nil}
	if req.Whole {
		req.Target = c.cfg.Document.Root()
	}
	started := c.cfg.Clock.Now()
	pageURL := c.cfg.URL()
	c.logger.Info("capture: started", "id", req.ID, "page", c.cfg.PageID, "format", format, "target", dom.Describe(req.Target))

	loading := c.cfg.Notifier.Loading(LoadingMessage)
	art, err := c.run(ctx, req, pageURL, started)
	loading.Dismiss()

	entry := Entry{
		ID:         req.ID,
		PageID:     c.cfg.PageID,
		PageURL:    pageURL,
		Format:     format,
		Target:     dom.Describe(req.Target),
		StartedAt:  started,
		DurationMs: c.cfg.Clock.Now().Sub(started).Milliseconds(),
	}

	if err != nil {
		// The user sees the collaborator's message, not the wrapping.
		msg := err.Error()
		if cause := errors.Unwrap(err); cause != nil {
			msg = cause.Error()
		}
		c.cfg.Notifier.Error(FailedPrefix + msg)
		c.logger.Error("capture: failed", "id", req.ID, "page", c.cfg.PageID, "error", err)
		entry.Err = msg
		c.record(ctx, entry)
		return nil, err
	}

	c.cfg.Notifier.Success(SavedMessage)
	c.logger.Info("capture: saved", "id", req.ID, "file", art.FileName(), "bytes", len(art.Data))
	entry.Filename = art.FileName()
	entry.Hash = art.Hash
	entry.Bytes = len(art.Data)
	c.record(ctx, entry)
	return art, nil
}

func (c *Coordinator) run(ctx context.Context, req Request, pageURL string, at time.Time) (*shot.Artifact, error) {
	if r, ok := c.cfg.Collaborator.(Readier); ok {
		if err := WaitReady(ctx, c.cfg.Clock, r, c.cfg.ReadyTimeout); err != nil {
			return nil, fmt.Errorf("capture: wait: %w", err)
		}
	}

	res, err := c.cfg.Collaborator.Capture(ctx, req.Target)
	if err != nil {
		return nil, fmt.Errorf("capture: render: %w", err)
	}

	var named dom.Element
	if !req.Whole {
		named = req.Target
	}
	art, err := res.Export(ctx, ExportOptions{
		Format:    req.Format,
		Filename:  Filename(pageURL, at, named),
		RequestID: req.ID,
		PageID:    c.cfg.PageID,
		PageURL:   pageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("capture: export: %w", err)
	}
	if art == nil {
		err := errors.New("export produced no artifact")
		return nil, fmt.Errorf("capture: export: %w", err)
	}
	return art, nil
}

func (c *Coordinator) record(ctx context.Context, e Entry) {
	if c.cfg.Recorder == nil {
		return
	}
	if err := c.cfg.Recorder.Record(context.WithoutCancel(ctx), e); err != nil {
		c.logger.Warn("capture: journal", "id", e.ID, "error", err)
	}
}

// WaitReady blocks until r is ready, ctx is done or timeout elapses on clk.
func WaitReady(ctx context.Context, clk clock.Clock, r Readier, timeout time.Duration) error {
	ready := r.Ready()
	select {
	case <-ready:
		return nil
	default:
	}

	expired := make(chan struct{})
	timer := clk.AfterFunc(timeout, func() { close(expired) })
	defer timer.Stop()
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-expired:
		return ErrUnavailable
	}
}

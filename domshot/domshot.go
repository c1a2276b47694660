// CLAUDE:SUMMARY Top-level orchestrator: owns the browser, the exporters and the capture journal, and opens one Page per tab.
// Package domshot captures screenshots of web pages, or of a single
// element the user points at, in a Chrome tab driven over CDP.
//
// Each Page carries its own highlight box, notification toast, selection
// mode and capture coordinator. Captures are exported as SVG or PNG to
// sinks (file, stdout, webhook, callback) and journaled in SQLite.
//
// Usage:
//
//	s := domshot.New(cfg, logger, domshot.NewStdoutSink(os.Stdout))
//	if err := s.Start(ctx); err != nil { ... }
//	defer s.Stop()
//	page, _ := s.Open(ctx, "docs", "https://example.com/docs")
//	art, err := page.Pick(ctx, domshot.FormatPNG)
package domshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hazyhaar/pagesnap/domshot/internal/browser"
	"github.com/hazyhaar/pagesnap/domshot/internal/capture"
	"github.com/hazyhaar/pagesnap/domshot/internal/cdpdom"
	"github.com/hazyhaar/pagesnap/domshot/internal/clock"
	"github.com/hazyhaar/pagesnap/domshot/internal/config"
	"github.com/hazyhaar/pagesnap/domshot/internal/journal"
	"github.com/hazyhaar/pagesnap/domshot/internal/render"
	"github.com/hazyhaar/pagesnap/domshot/internal/sink"
	"github.com/hazyhaar/pagesnap/domshot/shot"
	"github.com/hazyhaar/pagesnap/horosafe"
	"github.com/hazyhaar/pagesnap/idgen"
)

// pageIDs names pages opened without an explicit id.
var pageIDs = idgen.Prefixed("page-", idgen.NanoID(8))

var (
	// ErrPageNotFound is returned for an unknown page id.
	ErrPageNotFound = errors.New("domshot: page not found")
	// ErrPageExists is returned when opening a page id twice.
	ErrPageExists = errors.New("domshot: page already open")
	// ErrPageClosed is returned by operations on a closed page.
	ErrPageClosed = errors.New("domshot: page closed")
	// ErrSelectionCancelled ends a Selection left with Escape or CancelSelection.
	ErrSelectionCancelled = errors.New("domshot: selection cancelled")
	// ErrBusy is returned while a capture is in flight on the page.
	ErrBusy = capture.ErrBusy
	// ErrUnavailable is returned when the page bridge never became ready.
	ErrUnavailable = capture.ErrUnavailable
)

// Format is the output encoding of a capture.
type Format = shot.Format

const (
	FormatSVG = shot.FormatSVG
	FormatPNG = shot.FormatPNG
)

// Artifact is one exported capture.
type Artifact = shot.Artifact

// ParseFormat accepts "svg" or "png".
func ParseFormat(s string) (Format, error) { return shot.ParseFormat(s) }

// Shooter is the top-level orchestrator. It manages the browser, the
// exporters, the journal and the open pages.
type Shooter struct {
	cfg     *config.Config
	mgr     *browser.Manager
	sinkR   *sink.Router
	journal *journal.Store
	format  shot.Format
	clock   clock.Clock
	ids     idgen.Generator
	logger  *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	pages  map[string]*Page
}

// New creates a Shooter from configuration. A nil cfg uses the defaults.
func New(cfg *Config, logger *slog.Logger, sinks ...Sink) *Shooter {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	format, err := shot.ParseFormat(cfg.Capture.DefaultFormat)
	if err != nil {
		logger.Warn("domshot: default format, using svg", "error", err)
		format = shot.FormatSVG
	}
	mode, err := browser.ParseMode(cfg.Browser.Mode)
	if err != nil {
		logger.Warn("domshot: browser mode, using headful", "error", err)
	}

	blocked, err := browser.ParseResourceTypes(cfg.Browser.BlockResources)
	if err != nil {
		logger.Warn("domshot: block_resources", "error", err)
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:      cfg.Browser.Remote,
		Mode:           mode,
		XvfbDisplay:    cfg.Browser.XvfbDisplay,
		XvfbScreen:     cfg.Browser.XvfbScreen,
		Stealth:        cfg.Browser.Stealth,
		BlockResources: blocked,
		HeapWarn:       cfg.Browser.HeapWarn,
		Logger:         logger,
	})

	return &Shooter{
		cfg:    cfg,
		mgr:    mgr,
		sinkR:  sink.NewRouter(logger, sinks...),
		format: format,
		clock:  clock.Real{},
		ids:    idgen.Default,
		logger: logger,
		ctx:    context.Background(),
		pages:  make(map[string]*Page),
	}
}

// Start opens the journal, launches the browser and opens every
// configured page. Pages that fail to open are logged and skipped.
func (s *Shooter) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if s.journal == nil && s.cfg.Journal.Path != "" {
		store, err := journal.Open(s.cfg.Journal.Path, journal.Options{
			BusyTimeout: s.cfg.Journal.BusyTimeout,
			Synchronous: s.cfg.Journal.Synchronous,
		})
		if err != nil {
			return fmt.Errorf("domshot: open journal: %w", err)
		}
		s.journal = store
	}

	if _, err := s.mgr.Start(ctx); err != nil {
		return fmt.Errorf("domshot: start browser: %w", err)
	}

	for _, pc := range s.cfg.Pages {
		if _, err := s.Open(ctx, pc.ID, pc.URL); err != nil {
			s.logger.Error("domshot: failed to open page", "id", pc.ID, "url", pc.URL, "error", err)
		}
	}
	return nil
}

// Open opens url in a new tab under id.
func (s *Shooter) Open(ctx context.Context, id, url string) (*Page, error) {
	if id == "" {
		id = pageIDs()
	}
	if err := horosafe.ValidateIdentifier(id); err != nil {
		return nil, fmt.Errorf("domshot: page id: %w", err)
	}
	s.mu.Lock()
	_, exists := s.pages[id]
	base := s.ctx
	s.mu.Unlock()
	if exists {
		return nil, fmt.Errorf("domshot: open %s: %w", id, ErrPageExists)
	}

	tab, err := browser.OpenTab(ctx, s.mgr, url, id)
	if err != nil {
		return nil, fmt.Errorf("domshot: open tab: %w", err)
	}
	// The document outlives the request that opened it.
	doc, err := cdpdom.Attach(base, tab.Page, cdpdom.Options{
		CallTimeout: s.cfg.Browser.CallTimeout,
		Logger:      s.logger.With("page", id),
	})
	if err != nil {
		tab.Close()
		return nil, fmt.Errorf("domshot: attach %s: %w", id, err)
	}

	eng := render.New(render.Config{
		Source: doc,
		Sink:   s.sinkR,
		IDs:    idgen.UUIDv7(),
		Clock:  s.clock,
		Logger: s.logger,
	})

	p, err := s.attach(pageDeps{
		id:     id,
		doc:    doc,
		collab: eng,
		input:  doc,
		url:    tab.URL,
		close: func() {
			doc.Close()
			if err := tab.Close(); err != nil {
				s.logger.Debug("domshot: close tab", "page", id, "error", err)
			}
		},
	})
	if err != nil {
		doc.Close()
		tab.Close()
		return nil, err
	}
	s.logger.Info("domshot: page opened", "id", id, "url", url)
	return p, nil
}

// attach registers a page built on an already-open document.
func (s *Shooter) attach(d pageDeps) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[d.id]; ok {
		return nil, fmt.Errorf("domshot: open %s: %w", d.id, ErrPageExists)
	}
	if s.journal != nil {
		d.recorder = s.journal
	}
	if d.format == "" {
		d.format = s.format
	}
	d.readyTimeout = s.cfg.Capture.ReadyTimeout
	d.infoDuration = s.cfg.Toast.InfoDuration
	d.hintDuration = s.cfg.Toast.SelectHintDuration
	if d.clock == nil {
		d.clock = s.clock
	}
	if d.ids == nil {
		d.ids = s.ids
	}
	d.logger = s.logger
	p := newPage(s.ctx, d)
	s.pages[d.id] = p
	return p, nil
}

// Page returns an open page.
func (s *Shooter) Page(id string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[id]
	if !ok {
		return nil, fmt.Errorf("domshot: page %q: %w", id, ErrPageNotFound)
	}
	return p, nil
}

// Pages lists open pages by id.
func (s *Shooter) Pages() []PageInfo {
	s.mu.Lock()
	pages := make([]*Page, 0, len(s.pages))
	for _, p := range s.pages {
		pages = append(pages, p)
	}
	s.mu.Unlock()

	out := make([]PageInfo, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ClosePage closes and forgets a page.
func (s *Shooter) ClosePage(id string) error {
	s.mu.Lock()
	p, ok := s.pages[id]
	delete(s.pages, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("domshot: page %q: %w", id, ErrPageNotFound)
	}
	p.Close()
	return nil
}

// CaptureQuery filters Captures.
type CaptureQuery = journal.Query

// CaptureEntry is one journaled capture.
type CaptureEntry = capture.Entry

// CaptureStats summarises the journal.
type CaptureStats = journal.Stats

// Captures lists recent journaled captures. Without a journal the list
// is empty.
func (s *Shooter) Captures(ctx context.Context, q CaptureQuery) ([]CaptureEntry, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.Recent(ctx, q)
}

// Stats summarises the journal.
func (s *Shooter) Stats(ctx context.Context) (CaptureStats, error) {
	if s.journal == nil {
		return CaptureStats{}, nil
	}
	return s.journal.Stats(ctx)
}

// Stop closes every page, the exporters, the journal and the browser.
func (s *Shooter) Stop() {
	s.mu.Lock()
	pages := s.pages
	s.pages = make(map[string]*Page)
	cancel := s.cancel
	s.mu.Unlock()

	for id, p := range pages {
		p.Close()
		s.logger.Info("domshot: stopped page", "id", id)
	}
	if cancel != nil {
		cancel()
	}
	if err := s.sinkR.Close(); err != nil {
		s.logger.Warn("domshot: close sinks", "error", err)
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Warn("domshot: close journal", "error", err)
		}
	}
	if err := s.mgr.Close(); err != nil {
		s.logger.Warn("domshot: close browser", "error", err)
	}
}

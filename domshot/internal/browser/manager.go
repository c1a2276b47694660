// CLAUDE:SUMMARY Manages the Chrome instance pages are opened in: launch (headless, headful or under Xvfb) or remote connect, heap monitoring, shutdown.
// Package browser manages the Chrome process pagesnap drives: start,
// connect via Rod, watch JS heap usage, shut down with Xvfb.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Mode selects how a local Chrome is started.
type Mode int

const (
	ModeHeadful  Mode = iota // visible window on the current display
	ModeHeadless             // no window; selection is driven by synthetic input
	ModeXvfb                 // headful inside an Xvfb virtual display
)

func (m Mode) String() string {
	switch m {
	case ModeHeadless:
		return "headless"
	case ModeXvfb:
		return "xvfb"
	default:
		return "headful"
	}
}

// ParseMode accepts "headful", "headless" or "xvfb". Empty means headful.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "headful":
		return ModeHeadful, nil
	case "headless":
		return ModeHeadless, nil
	case "xvfb":
		return ModeXvfb, nil
	default:
		return 0, fmt.Errorf("browser: unknown mode %q", s)
	}
}

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	Mode Mode

	// XvfbDisplay for ModeXvfb. Default: ":99".
	XvfbDisplay string
	// XvfbScreen is the virtual screen geometry. Default: "1920x1080x24".
	XvfbScreen string

	// Stealth opens tabs through go-rod/stealth.
	Stealth bool

	// BlockResources lists resource types never loaded. See
	// ParseResourceTypes.
	BlockResources []proto.NetworkResourceType

	// HeapWarn in bytes; a warning is logged when a page exceeds it.
	// Default: 1GB.
	HeapWarn int64

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.HeapWarn <= 0 {
		c.HeapWarn = 1 << 30
	}
	if c.XvfbDisplay == "" {
		c.XvfbDisplay = ":99"
	}
	if c.XvfbScreen == "" {
		c.XvfbScreen = "1920x1080x24"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns the Chrome lifecycle.
type Manager struct {
	cfg     Config
	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	xvfb    *exec.Cmd
	closed  bool
}

// NewManager creates a browser Manager. Call Start to launch Chrome.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	for _, t := range cfg.BlockResources {
		if affectsRendering[t] {
			cfg.Logger.Warn("browser: blocked resource type changes captured rendering", "type", t)
		}
	}
	return &Manager{cfg: cfg}
}

// Start launches Chrome (or connects to a remote instance) and returns
// the Rod browser handle. It also starts the heap monitor goroutine.
func (m *Manager) Start(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		return m.browser, nil
	}

	b, err := m.launch(ctx)
	if err != nil {
		m.cleanup()
		return nil, err
	}
	m.browser = b

	go m.monitorLoop(ctx)

	return b, nil
}

// Browser returns the current Rod browser handle. Thread-safe.
func (m *Manager) Browser() *rod.Browser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser
}

// Close shuts down Chrome and Xvfb.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.cleanup()
}

func (m *Manager) launch(ctx context.Context) (*rod.Browser, error) {
	log := m.cfg.Logger

	var wsURL string

	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		if m.cfg.Mode == ModeXvfb {
			if err := m.startXvfb(); err != nil {
				return nil, fmt.Errorf("browser: xvfb: %w", err)
			}
		}

		l := launcher.New().Context(ctx)
		switch m.cfg.Mode {
		case ModeHeadless:
			l = l.Headless(true)
		case ModeXvfb:
			l = l.Headless(false).Env("DISPLAY=" + m.cfg.XvfbDisplay)
		default:
			l = l.Headless(false)
		}
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "mode", m.cfg.Mode)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("browser: ignore cert errors failed", "error", err)
	}

	return b, nil
}

func (m *Manager) cleanup() error {
	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	m.stopXvfb()
	return err
}

func (m *Manager) monitorLoop(ctx context.Context) {
	log := m.cfg.Logger
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.RLock()
			b := m.browser
			closed := m.closed
			m.mu.RUnlock()
			if closed || b == nil {
				return
			}

			used, err := jsHeapUsage(b)
			if err != nil {
				log.Debug("browser: heap check failed", "error", err)
				continue
			}
			// Pages hold user state (an open selection), so they are
			// never recycled behind the user's back.
			if used > m.cfg.HeapWarn {
				log.Warn("browser: heap above limit", "used", used, "limit", m.cfg.HeapWarn)
			}
		}
	}
}

// jsHeapUsage queries the JS heap of the first page as a proxy.
func jsHeapUsage(b *rod.Browser) (int64, error) {
	pages, err := b.Pages()
	if err != nil || len(pages) == 0 {
		return 0, fmt.Errorf("no pages for heap check")
	}

	res, err := pages[0].Eval(`() => {
		if (performance.memory) {
			return performance.memory.usedJSHeapSize;
		}
		return 0;
	}`)
	if err != nil {
		return 0, err
	}

	return int64(res.Value.Int()), nil
}

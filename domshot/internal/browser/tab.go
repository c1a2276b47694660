package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// NavigateTimeout bounds Navigate + WaitLoad in OpenTab.
const NavigateTimeout = 30 * time.Second

// Tab is one Chrome tab opened for a page.
type Tab struct {
	Page   *rod.Page
	PageID string

	router *rod.HijackRouter
}

// OpenTab creates a tab, applies stealth and resource blocking when
// configured, and navigates to pageURL.
func OpenTab(ctx context.Context, mgr *Manager, pageURL, pageID string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	var page *rod.Page
	var err error
	if mgr.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	t := &Tab{Page: page, PageID: pageID}
	if len(mgr.cfg.BlockResources) > 0 {
		t.router = blockResources(page, mgr.cfg.BlockResources)
	}

	navCtx, cancel := context.WithTimeout(ctx, NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	if mgr.cfg.Mode != ModeHeadless {
		if _, err := page.Activate(); err != nil {
			mgr.cfg.Logger.Debug("browser: activate tab", "page", pageID, "error", err)
		}
	}

	return t, nil
}

// URL returns the tab's current address.
func (t *Tab) URL() string {
	info, err := t.Page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.router != nil {
		t.router.Stop()
	}
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}

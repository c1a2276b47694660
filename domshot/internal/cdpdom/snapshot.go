package cdpdom

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// ErrDetached is returned when the node behind a handle is gone.
var ErrDetached = errors.New("cdpdom: element detached")

// Snapshot is a serialised clone of an element with tool UI, scripts and
// noscript removed.
type Snapshot struct {
	Markup string  `json:"markup"` // XML serialisation, for SVG foreignObject
	HTML   string  `json:"html"`   // outer HTML, for text sidecars
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Root   bool    `json:"root"`
}

// Serialize clones el in the page and returns its markup and box size.
func (d *Document) Serialize(ctx context.Context, el Element) (*Snapshot, error) {
	if !el.valid() || el.d != d {
		return nil, ErrDetached
	}
	res, err := d.call(ctx, "serialize", el.id)
	if err != nil {
		return nil, err
	}
	if res.Value.Nil() {
		return nil, ErrDetached
	}
	var snap Snapshot
	if err := decode(res, &snap); err != nil {
		return nil, fmt.Errorf("cdpdom: decode snapshot: %w", err)
	}
	return &snap, nil
}

// Screenshot returns a PNG of el, or of the full scrollable page when
// whole is set. Tool UI is hidden for the duration of the shot.
func (d *Document) Screenshot(ctx context.Context, el Element, whole bool) ([]byte, error) {
	if d.page == nil {
		return nil, fmt.Errorf("cdpdom: screenshot: no page")
	}
	if _, err := d.call(ctx, "hideExcluded"); err != nil {
		return nil, err
	}
	defer func() {
		if _, err := d.call(context.WithoutCancel(ctx), "restoreExcluded"); err != nil {
			d.logger.Warn("cdpdom: restore tool UI", "error", err)
		}
	}()

	page := d.page.Context(ctx)
	if whole {
		data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
			Format: proto.PageCaptureScreenshotFormatPng,
		})
		if err != nil {
			return nil, fmt.Errorf("cdpdom: page screenshot: %w", err)
		}
		return data, nil
	}

	if !el.valid() || el.d != d {
		return nil, ErrDetached
	}
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	node, err := d.page.Context(callCtx).ElementByJS(rod.Eval(`(id) => window.__pagesnap.node(id)`, el.id))
	if err != nil {
		return nil, fmt.Errorf("cdpdom: resolve element: %w", err)
	}
	data, err := node.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("cdpdom: element screenshot: %w", err)
	}
	return data, nil
}

// CLAUDE:SUMMARY Capture collaborator over cdpdom: serialises the target, encodes SVG (foreignObject) or PNG (CDP screenshot), hands the artifact to the sinks.
// Package render is the capture collaborator for live pages: it clones
// the target in the page, encodes it as SVG or PNG and delivers the
// resulting artifact to the configured sinks.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"strconv"

	"github.com/hazyhaar/pagesnap/domshot/internal/capture"
	"github.com/hazyhaar/pagesnap/domshot/internal/cdpdom"
	"github.com/hazyhaar/pagesnap/domshot/internal/clock"
	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
	"github.com/hazyhaar/pagesnap/domshot/internal/sink"
	"github.com/hazyhaar/pagesnap/domshot/shot"
	"github.com/hazyhaar/pagesnap/idgen"
)

// Source is the page side of rendering.
type Source interface {
	Ready() <-chan struct{}
	Serialize(ctx context.Context, el cdpdom.Element) (*cdpdom.Snapshot, error)
	Screenshot(ctx context.Context, el cdpdom.Element, whole bool) ([]byte, error)
}

// Config configures an Engine.
type Config struct {
	Source Source
	Sink   sink.Sink // nil: artifacts are only returned
	IDs    idgen.Generator
	Clock  clock.Clock
	Logger *slog.Logger
}

// Engine implements capture.Collaborator and capture.Readier.
type Engine struct {
	src    Source
	sink   sink.Sink
	ids    idgen.Generator
	clock  clock.Clock
	logger *slog.Logger
}

var (
	_ capture.Collaborator = (*Engine)(nil)
	_ capture.Readier      = (*Engine)(nil)
)

// New creates an Engine.
func New(cfg Config) *Engine {
	e := &Engine{src: cfg.Source, sink: cfg.Sink, ids: cfg.IDs, clock: cfg.Clock, logger: cfg.Logger}
	if e.ids == nil {
		e.ids = idgen.Default
	}
	if e.clock == nil {
		e.clock = clock.Real{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Ready is closed once the page bridge is loaded.
func (e *Engine) Ready() <-chan struct{} { return e.src.Ready() }

// Capture clones target in the page. Encoding happens in Export.
func (e *Engine) Capture(ctx context.Context, target dom.Element) (capture.Result, error) {
	el, ok := target.(cdpdom.Element)
	if !ok {
		return nil, errors.New("render: element does not belong to a live page")
	}
	snap, err := e.src.Serialize(ctx, el)
	if err != nil {
		return nil, fmt.Errorf("render: serialize: %w", err)
	}
	e.logger.Debug("render: serialized", "bytes", len(snap.Markup), "width", snap.Width, "height", snap.Height)
	return &result{e: e, el: el, snap: snap, target: dom.Describe(el)}, nil
}

type result struct {
	e      *Engine
	el     cdpdom.Element
	snap   *cdpdom.Snapshot
	target string
}

func (r *result) Export(ctx context.Context, opts capture.ExportOptions) (*shot.Artifact, error) {
	var (
		data []byte
		w, h = r.snap.Width, r.snap.Height
		err  error
	)
	switch opts.Format {
	case shot.FormatSVG:
		data = SVG(r.snap)
	case shot.FormatPNG:
		data, err = r.e.src.Screenshot(ctx, r.el, r.snap.Root)
		if err != nil {
			return nil, fmt.Errorf("render: png: %w", err)
		}
		if cfg, err := png.DecodeConfig(bytes.NewReader(data)); err == nil {
			w, h = float64(cfg.Width), float64(cfg.Height)
		}
	default:
		return nil, fmt.Errorf("render: unsupported format %q", opts.Format)
	}

	art := &shot.Artifact{
		ID:        r.e.ids(),
		RequestID: opts.RequestID,
		PageID:    opts.PageID,
		PageURL:   opts.PageURL,
		Filename:  opts.Filename,
		Format:    opts.Format,
		Data:      data,
		Hash:      shot.Hash(data),
		Markup:    r.snap.HTML,
		Target:    r.target,
		Width:     w,
		Height:    h,
		Timestamp: r.e.clock.Now().UnixMilli(),
	}

	if r.e.sink != nil {
		if err := r.e.sink.Send(ctx, art); err != nil {
			return nil, fmt.Errorf("render: deliver: %w", err)
		}
	}
	return art, nil
}

// SVG wraps the serialised clone in an SVG foreignObject sized to the
// captured box.
func SVG(snap *cdpdom.Snapshot) []byte {
	w := dim(snap.Width)
	h := dim(snap.Height)
	var b bytes.Buffer
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + w + `" height="` + h + `" viewBox="0 0 ` + w + ` ` + h + `">`)
	b.WriteString(`<foreignObject x="0" y="0" width="100%" height="100%">`)
	b.WriteString(snap.Markup)
	b.WriteString(`</foreignObject></svg>`)
	return b.Bytes()
}

func dim(v float64) string {
	if v < 1 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "1"
	}
	return strconv.Itoa(int(math.Ceil(v)))
}

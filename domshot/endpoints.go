package domshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/pagesnap/horosafe"
	"github.com/hazyhaar/pagesnap/kit"
)

// Requests shared by the HTTP routes and the MCP tools.

type openReq struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type pageReq struct {
	Page string `json:"page"`
}

type captureReq struct {
	Page        string `json:"page"`
	Format      string `json:"format"`
	IncludeData bool   `json:"include_data"`
}

type selectReq struct {
	Page      string `json:"page"`
	Format    string `json:"format"`
	Wait      bool   `json:"wait"`
	TimeoutMs int    `json:"timeout_ms"`
}

type inputReq struct {
	Page   string  `json:"page"`
	Action string  `json:"action"` // move | click | scroll | key
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DY     float64 `json:"dy"`
	Key    string  `json:"key"`
}

type capturesReq struct {
	Page       string `json:"page"`
	FailedOnly bool   `json:"failed_only"`
	Limit      int    `json:"limit"`
}

// CaptureResult is the wire view of an Artifact. Data is only filled on
// request.
type CaptureResult struct {
	ID        string  `json:"id"`
	RequestID string  `json:"request_id"`
	Page      string  `json:"page"`
	URL       string  `json:"url"`
	File      string  `json:"file"`
	Format    Format  `json:"format"`
	MIME      string  `json:"mime"`
	Hash      string  `json:"sha256"`
	Bytes     int     `json:"bytes"`
	Target    string  `json:"target"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Timestamp int64   `json:"timestamp"`
	Data      []byte  `json:"data,omitempty"`
}

func resultOf(a *Artifact, withData bool) *CaptureResult {
	r := &CaptureResult{
		ID:        a.ID,
		RequestID: a.RequestID,
		Page:      a.PageID,
		URL:       a.PageURL,
		File:      a.FileName(),
		Format:    a.Format,
		MIME:      a.Format.MIME(),
		Hash:      a.Hash,
		Bytes:     len(a.Data),
		Target:    a.Target,
		Width:     a.Width,
		Height:    a.Height,
		Timestamp: a.Timestamp,
	}
	if withData {
		r.Data = a.Data
	}
	return r
}

// SelectResult reports a selection start or its outcome.
type SelectResult struct {
	Page      string         `json:"page"`
	Selecting bool           `json:"selecting"`
	Format    Format         `json:"format"`
	Capture   *CaptureResult `json:"capture,omitempty"`
}

// errInvalid marks caller mistakes.
var errInvalid = errors.New("domshot: invalid request")

func parseFormat(s string) (Format, error) {
	if s == "" {
		return "", nil
	}
	f, err := ParseFormat(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalid, err)
	}
	return f, nil
}

// logged reports every endpoint call with its transport and request id.
func (s *Shooter) logged(name string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			attrs := []any{
				"endpoint", name,
				"transport", kit.GetTransport(ctx),
				"request_id", kit.GetRequestID(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				s.logger.Warn("domshot: endpoint failed", append(attrs, "error", err)...)
			} else {
				s.logger.Debug("domshot: endpoint", attrs...)
			}
			return resp, err
		}
	}
}

func (s *Shooter) endpoint(name string, e kit.Endpoint) kit.Endpoint {
	return kit.Chain(s.logged(name))(e)
}

func (s *Shooter) openEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*openReq)
	if r.URL == "" {
		return nil, fmt.Errorf("%w: url is required", errInvalid)
	}
	if err := horosafe.ValidateURL(r.URL, s.cfg.HTTP.AllowPrivateURLs); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalid, err)
	}
	if r.ID != "" {
		if err := horosafe.ValidateIdentifier(r.ID); err != nil {
			return nil, fmt.Errorf("%w: page id: %v", errInvalid, err)
		}
	}
	p, err := s.Open(ctx, r.ID, r.URL)
	if err != nil {
		return nil, err
	}
	return p.Info(), nil
}

func (s *Shooter) closeEndpoint(_ context.Context, req any) (any, error) {
	r := req.(*pageReq)
	if err := s.ClosePage(r.Page); err != nil {
		return nil, err
	}
	return map[string]any{"page": r.Page, "closed": true}, nil
}

func (s *Shooter) pagesEndpoint(context.Context, any) (any, error) {
	return map[string]any{"pages": s.Pages()}, nil
}

func (s *Shooter) captureEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*captureReq)
	format, err := parseFormat(r.Format)
	if err != nil {
		return nil, err
	}
	p, err := s.Page(r.Page)
	if err != nil {
		return nil, err
	}
	art, err := p.CapturePage(ctx, format)
	if err != nil {
		return nil, err
	}
	return resultOf(art, r.IncludeData), nil
}

func (s *Shooter) selectEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*selectReq)
	format, err := parseFormat(r.Format)
	if err != nil {
		return nil, err
	}
	p, err := s.Page(r.Page)
	if err != nil {
		return nil, err
	}
	if !r.Wait {
		sel, err := p.SelectElement(format)
		if err != nil {
			return nil, err
		}
		return &SelectResult{Page: p.ID(), Selecting: true, Format: sel.Format()}, nil
	}

	if r.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.TimeoutMs)*time.Millisecond)
		defer cancel()
	}
	art, err := p.Pick(ctx, format)
	if err != nil {
		return nil, err
	}
	return &SelectResult{Page: p.ID(), Format: art.Format, Capture: resultOf(art, false)}, nil
}

func (s *Shooter) cancelEndpoint(_ context.Context, req any) (any, error) {
	r := req.(*pageReq)
	p, err := s.Page(r.Page)
	if err != nil {
		return nil, err
	}
	return map[string]any{"page": p.ID(), "cancelled": p.CancelSelection()}, nil
}

func (s *Shooter) inputEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*inputReq)
	p, err := s.Page(r.Page)
	if err != nil {
		return nil, err
	}
	switch r.Action {
	case "move":
		err = p.PointerMove(ctx, r.X, r.Y)
	case "click":
		err = p.Click(ctx, r.X, r.Y)
	case "scroll":
		err = p.Scroll(ctx, r.X, r.Y, r.DY)
	case "key":
		err = p.Key(ctx, r.Key)
	default:
		err = fmt.Errorf("%w: unknown action %q", errInvalid, r.Action)
	}
	if err != nil {
		return nil, err
	}
	return p.Info(), nil
}

func (s *Shooter) capturesEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*capturesReq)
	entries, err := s.Captures(ctx, CaptureQuery{PageID: r.Page, FailedOnly: r.FailedOnly, Limit: r.Limit})
	if err != nil {
		return nil, err
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []CaptureEntry{}
	}
	return map[string]any{"captures": entries, "stats": stats}, nil
}

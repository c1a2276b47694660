package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/pagesnap/domshot/internal/capture"
	"github.com/hazyhaar/pagesnap/domshot/internal/cdpdom"
	"github.com/hazyhaar/pagesnap/domshot/internal/clock"
	"github.com/hazyhaar/pagesnap/domshot/internal/dom/memdom"
	"github.com/hazyhaar/pagesnap/domshot/internal/sink"
	"github.com/hazyhaar/pagesnap/domshot/shot"
	"github.com/hazyhaar/pagesnap/idgen"
)

type fakeSource struct {
	ready     chan struct{}
	snap      *cdpdom.Snapshot
	png       []byte
	wholeSeen []bool
	err       error
}

func (f *fakeSource) Ready() <-chan struct{} { return f.ready }

func (f *fakeSource) Serialize(context.Context, cdpdom.Element) (*cdpdom.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func (f *fakeSource) Screenshot(_ context.Context, _ cdpdom.Element, whole bool) ([]byte, error) {
	f.wholeSeen = append(f.wholeSeen, whole)
	return f.png, nil
}

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newEngine(src Source, s sink.Sink) *Engine {
	return New(Config{
		Source: src,
		Sink:   s,
		IDs:    idgen.Sequence("art"),
		Clock:  clock.NewFake(time.UnixMilli(1_700_000_000_000)),
	})
}

func TestExport_SVG(t *testing.T) {
	src := &fakeSource{snap: &cdpdom.Snapshot{
		Markup: `<div xmlns="http://www.w3.org/1999/xhtml" class="card">Hi</div>`,
		HTML:   `<div class="card">Hi</div>`,
		Width:  120.4,
		Height: 40,
	}}
	var delivered []*shot.Artifact
	e := newEngine(src, sink.NewCallback(func(_ context.Context, a *shot.Artifact) error {
		delivered = append(delivered, a)
		return nil
	}))

	res, err := e.Capture(context.Background(), cdpdom.Element{})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	art, err := res.Export(context.Background(), capture.ExportOptions{
		Format: shot.FormatSVG, Filename: "x_card", RequestID: "req-1", PageID: "docs",
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	svg := string(art.Data)
	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg" width="121" height="40"`) {
		t.Fatalf("svg head: %s", svg)
	}
	if !strings.Contains(svg, `<foreignObject`) || !strings.Contains(svg, `class="card">Hi</div>`) {
		t.Fatalf("svg body: %s", svg)
	}
	if art.Hash != shot.Hash(art.Data) || art.Markup != src.snap.HTML || art.RequestID != "req-1" {
		t.Fatalf("artifact: %+v", art)
	}
	if art.Timestamp != 1_700_000_000_000 {
		t.Fatalf("timestamp: got %d", art.Timestamp)
	}
	if len(delivered) != 1 || delivered[0] != art {
		t.Fatalf("delivered: %v", delivered)
	}
}

func TestExport_PNG(t *testing.T) {
	src := &fakeSource{
		snap: &cdpdom.Snapshot{Width: 800, Height: 3000, Root: true},
		png:  tinyPNG(t, 16, 9),
	}
	e := newEngine(src, nil)
	res, _ := e.Capture(context.Background(), cdpdom.Element{})
	art, err := res.Export(context.Background(), capture.ExportOptions{Format: shot.FormatPNG, Filename: "page"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(src.wholeSeen) != 1 || !src.wholeSeen[0] {
		t.Fatalf("whole-page flag: %v", src.wholeSeen)
	}
	if art.Width != 16 || art.Height != 9 {
		t.Fatalf("png size: %vx%v", art.Width, art.Height)
	}
	if art.FileName() != "page.png" {
		t.Fatalf("file: %s", art.FileName())
	}
}

func TestExport_SinkError(t *testing.T) {
	src := &fakeSource{snap: &cdpdom.Snapshot{Markup: "<p/>", Width: 1, Height: 1}}
	quota := errors.New("quota exceeded")
	e := newEngine(src, sink.NewCallback(func(context.Context, *shot.Artifact) error { return quota }))
	res, _ := e.Capture(context.Background(), cdpdom.Element{})
	if _, err := res.Export(context.Background(), capture.ExportOptions{Format: shot.FormatSVG}); !errors.Is(err, quota) {
		t.Fatalf("error: got %v, want quota exceeded", err)
	}
}

func TestCapture_ForeignElement(t *testing.T) {
	e := newEngine(&fakeSource{}, nil)
	doc := memdom.New()
	if _, err := e.Capture(context.Background(), doc.Body()); err == nil {
		t.Fatal("memdom element accepted")
	}
}

func TestCapture_SerializeError(t *testing.T) {
	e := newEngine(&fakeSource{err: cdpdom.ErrDetached}, nil)
	if _, err := e.Capture(context.Background(), cdpdom.Element{}); !errors.Is(err, cdpdom.ErrDetached) {
		t.Fatalf("error: got %v", err)
	}
}

func TestDim(t *testing.T) {
	for in, want := range map[float64]string{0: "1", 0.5: "1", 10: "10", 10.01: "11"} {
		if got := dim(in); got != want {
			t.Errorf("dim(%v): got %s, want %s", in, got, want)
		}
	}
}

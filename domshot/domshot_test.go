package domshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/pagesnap/dbopen"
	"github.com/hazyhaar/pagesnap/domshot/internal/capture"
	"github.com/hazyhaar/pagesnap/domshot/internal/clock"
	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
	"github.com/hazyhaar/pagesnap/domshot/internal/dom/memdom"
	"github.com/hazyhaar/pagesnap/domshot/internal/journal"
	"github.com/hazyhaar/pagesnap/domshot/shot"
	"github.com/hazyhaar/pagesnap/idgen"
)

// memInput drives a memdom document like synthetic CDP input would.
type memInput struct{ doc *memdom.Document }

func (m memInput) PointerMove(_ context.Context, x, y float64) error {
	m.doc.MouseMove(x, y)
	return nil
}

func (m memInput) Click(_ context.Context, x, y float64) error {
	m.doc.Click(x, y)
	return nil
}

func (m memInput) Wheel(_ context.Context, _, _, dy float64) error {
	m.doc.Scroll(dy)
	return nil
}

func (m memInput) Key(_ context.Context, key string) error {
	m.doc.KeyDown(key)
	return nil
}

type fakeCollab struct {
	mu        sync.Mutex
	targets   []dom.Element
	exportErr error
	started   chan struct{}
	release   chan struct{}
}

func (f *fakeCollab) Capture(_ context.Context, target dom.Element) (capture.Result, error) {
	f.mu.Lock()
	f.targets = append(f.targets, target)
	started, release := f.started, f.release
	f.started = nil
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}
	return fakeResult{f: f, target: target}, nil
}

func (f *fakeCollab) captured() []dom.Element {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dom.Element(nil), f.targets...)
}

type fakeResult struct {
	f      *fakeCollab
	target dom.Element
}

func (r fakeResult) Export(_ context.Context, o capture.ExportOptions) (*shot.Artifact, error) {
	if r.f.exportErr != nil {
		return nil, r.f.exportErr
	}
	data := []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)
	return &shot.Artifact{
		ID:        "art-" + o.RequestID,
		RequestID: o.RequestID,
		PageID:    o.PageID,
		PageURL:   o.PageURL,
		Filename:  o.Filename,
		Format:    o.Format,
		Data:      data,
		Hash:      shot.Hash(data),
		Target:    dom.Describe(r.target),
	}, nil
}

type harness struct {
	s      *Shooter
	doc    *memdom.Document
	collab *fakeCollab
	page   *Page
	card   *memdom.Node
	footer *memdom.Node
}

func newHarness(t *testing.T, cfg *Config) *harness {
	t.Helper()
	s := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	store, err := journal.New(dbopen.OpenMemory(t))
	if err != nil {
		t.Fatal(err)
	}
	s.journal = store
	s.ids = idgen.Sequence("cap")
	s.clock = clock.NewFake(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))

	h := &harness{s: s, doc: memdom.New(), collab: &fakeCollab{}}
	h.card = h.doc.Add(nil, "div", dom.Rect{Left: 10, Top: 10, Width: 200, Height: 80}, "class", "card")
	h.footer = h.doc.Add(nil, "footer", dom.Rect{Left: 10, Top: 300, Width: 200, Height: 40})

	h.page, err = s.attach(pageDeps{
		id:     "docs",
		doc:    h.doc,
		collab: h.collab,
		input:  memInput{h.doc},
		url:    func() string { return "https://docs.example.com/guide/intro" },
	})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	t.Cleanup(s.Stop)
	return h
}

func (h *harness) toastText() string {
	el, ok := h.doc.ElementByID(ToastID)
	if !ok {
		return ""
	}
	return memdom.NodeOf(el).Text()
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestCapturePage(t *testing.T) {
	h := newHarness(t, nil)
	ctx := waitCtx(t)

	art, err := h.page.CapturePage(ctx, "")
	if err != nil {
		t.Fatalf("CapturePage: %v", err)
	}
	if art.Format != FormatSVG || art.FileName() != "docs_guideintro_092653.svg" {
		t.Fatalf("artifact: %s %s", art.Format, art.FileName())
	}
	if got := h.collab.captured(); len(got) != 1 || got[0] != h.doc.Root() {
		t.Fatalf("targets: %v", got)
	}
	if !strings.Contains(h.toastText(), "Screenshot saved") {
		t.Fatalf("toast: %q", h.toastText())
	}

	entries, err := h.s.Captures(ctx, CaptureQuery{PageID: "docs"})
	if err != nil {
		t.Fatalf("Captures: %v", err)
	}
	if len(entries) != 1 || entries[0].Filename != art.FileName() {
		t.Fatalf("journal: %+v", entries)
	}
}

func TestCapturePage_DefaultFormatFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capture.DefaultFormat = "png"
	h := newHarness(t, cfg)

	art, err := h.page.CapturePage(waitCtx(t), "")
	if err != nil {
		t.Fatalf("CapturePage: %v", err)
	}
	if art.Format != FormatPNG {
		t.Fatalf("format: got %s, want png", art.Format)
	}
}

func TestSelectElement_HoverThenClick(t *testing.T) {
	h := newHarness(t, nil)
	ctx := waitCtx(t)

	sel, err := h.page.SelectElement(FormatPNG)
	if err != nil {
		t.Fatalf("SelectElement: %v", err)
	}
	if !h.page.Selecting() {
		t.Fatal("not selecting")
	}
	if !strings.Contains(h.toastText(), "press ESC to cancel") {
		t.Fatalf("hint toast: %q", h.toastText())
	}

	h.page.PointerMove(ctx, 50, 50)
	h.page.PointerMove(ctx, 50, 320)
	h.page.Click(ctx, 50, 320)

	art, err := sel.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if art.Target != "footer" || art.Format != FormatPNG {
		t.Fatalf("artifact: target %q format %s", art.Target, art.Format)
	}
	if got := h.collab.captured(); len(got) != 1 || got[0] != dom.Element(h.footer) {
		t.Fatalf("targets: %v", got)
	}
	if h.page.Selecting() {
		t.Fatal("still selecting after commit")
	}
	if c := h.doc.Body().Style("cursor"); c != "" {
		t.Fatalf("cursor: got %q, want restored", c)
	}
	if art.Filename != "docs_guideintro_092653_footer" {
		t.Fatalf("filename: %q", art.Filename)
	}
}

func TestSelectElement_Idempotent(t *testing.T) {
	h := newHarness(t, nil)

	first, err := h.page.SelectElement("")
	if err != nil {
		t.Fatalf("SelectElement: %v", err)
	}
	second, err := h.page.SelectElement("")
	if err != nil {
		t.Fatalf("second SelectElement: %v", err)
	}
	if first != second {
		t.Fatal("second call started a new selection")
	}
	if n := h.doc.Listeners(dom.Click); n != 1 {
		t.Fatalf("click listeners: got %d, want 1", n)
	}
	if n := h.doc.CountByID(HighlightID); n != 1 {
		t.Fatalf("highlight boxes: got %d, want 1", n)
	}
}

func TestSelectElement_Escape(t *testing.T) {
	h := newHarness(t, nil)
	ctx := waitCtx(t)

	sel, err := h.page.SelectElement("")
	if err != nil {
		t.Fatalf("SelectElement: %v", err)
	}
	h.page.PointerMove(ctx, 50, 50)
	h.page.Key(ctx, "Escape")

	if _, err := sel.Wait(ctx); !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("Wait: got %v, want ErrSelectionCancelled", err)
	}
	if len(h.collab.captured()) != 0 {
		t.Fatal("capture ran after escape")
	}
	if !strings.Contains(h.toastText(), "Element selection cancelled") {
		t.Fatalf("toast: %q", h.toastText())
	}
	if h.doc.ListenerCount() != 0 {
		t.Fatalf("listeners left: %d", h.doc.ListenerCount())
	}
}

func TestCancelSelection(t *testing.T) {
	h := newHarness(t, nil)
	if h.page.CancelSelection() {
		t.Fatal("cancel reported an active selection while idle")
	}
	sel, _ := h.page.SelectElement("")
	if !h.page.CancelSelection() {
		t.Fatal("cancel reported no selection")
	}
	if _, err := sel.Wait(waitCtx(t)); !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("Wait: %v", err)
	}
}

func TestPick_ContextCancelLeavesSelection(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := h.page.Pick(ctx, ""); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Pick: got %v", err)
	}
	if h.page.Selecting() {
		t.Fatal("still selecting after Pick gave up")
	}
}

func TestPick_JoinedSelectionSurvivesCancel(t *testing.T) {
	h := newHarness(t, nil)
	first, err := h.page.SelectElement("")
	if err != nil {
		t.Fatalf("SelectElement: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := h.page.Pick(ctx, ""); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Pick: got %v", err)
	}
	if !h.page.Selecting() {
		t.Fatal("joined Pick cancelled the pending selection")
	}
	select {
	case <-first.Done():
		t.Fatal("first selection finished")
	default:
	}

	if !h.page.CancelSelection() {
		t.Fatal("cancel reported no selection")
	}
	if _, err := first.Wait(waitCtx(t)); !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("Wait: %v", err)
	}
}

func TestBusy(t *testing.T) {
	h := newHarness(t, nil)
	ctx := waitCtx(t)
	started := make(chan struct{})
	release := make(chan struct{})
	h.collab.mu.Lock()
	h.collab.started, h.collab.release = started, release
	h.collab.mu.Unlock()

	errc := make(chan error, 1)
	go func() {
		_, err := h.page.CapturePage(ctx, "")
		errc <- err
	}()
	<-started

	if _, err := h.page.CapturePage(ctx, ""); !errors.Is(err, ErrBusy) {
		t.Fatalf("second capture: got %v, want ErrBusy", err)
	}
	if _, err := h.page.SelectElement(""); !errors.Is(err, ErrBusy) {
		t.Fatalf("select while capturing: got %v, want ErrBusy", err)
	}
	if !h.page.Info().Capturing {
		t.Fatal("Info does not report the capture")
	}
	if !strings.Contains(h.toastText(), "Capturing screenshot...") {
		t.Fatalf("loading toast replaced: %q", h.toastText())
	}

	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("first capture: %v", err)
	}
}

func TestExportFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.collab.exportErr = errors.New("quota exceeded")
	ctx := waitCtx(t)

	if _, err := h.page.CapturePage(ctx, ""); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(h.toastText(), "Screenshot failed: quota exceeded") {
		t.Fatalf("toast: %q", h.toastText())
	}
	st, err := h.s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 1 || st.Failed != 1 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestShooter_Pages(t *testing.T) {
	h := newHarness(t, nil)

	if _, err := h.s.Page("nope"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("Page: got %v", err)
	}
	if _, err := h.s.attach(pageDeps{id: "docs", doc: memdom.New(), collab: h.collab}); !errors.Is(err, ErrPageExists) {
		t.Fatalf("duplicate attach: got %v", err)
	}
	infos := h.s.Pages()
	if len(infos) != 1 || infos[0].ID != "docs" || infos[0].URL != "https://docs.example.com/guide/intro" {
		t.Fatalf("Pages: %+v", infos)
	}

	h.page.SelectElement("")
	if err := h.s.ClosePage("docs"); err != nil {
		t.Fatalf("ClosePage: %v", err)
	}
	if h.doc.CountByID(HighlightID) != 0 || h.doc.ListenerCount() != 0 {
		t.Fatal("page left nodes or listeners behind")
	}
	if _, err := h.page.CapturePage(context.Background(), ""); !errors.Is(err, ErrPageClosed) {
		t.Fatalf("capture on closed page: got %v", err)
	}
	if err := h.s.ClosePage("docs"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("second ClosePage: got %v", err)
	}
}

func TestSyntheticInputUnsupported(t *testing.T) {
	h := newHarness(t, nil)
	p, err := h.s.attach(pageDeps{id: "plain", doc: memdom.New(), collab: h.collab})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Click(context.Background(), 1, 1); err == nil {
		t.Fatal("expected error without input")
	}
}

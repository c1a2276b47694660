package cdpdom

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
)

type call struct {
	op   string
	args []any
}

// fakeEval answers bridge ops from a table instead of a browser.
type fakeEval struct {
	mu      sync.Mutex
	calls   []call
	answers map[string]any
	err     error
}

func (f *fakeEval) Eval(_ context.Context, js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if js != opJS {
		return &proto.RuntimeRemoteObject{}, nil
	}
	name := args[0].(string)
	opArgs, _ := args[1].([]any)
	f.calls = append(f.calls, call{op: name, args: opArgs})
	if f.err != nil {
		return nil, f.err
	}
	return &proto.RuntimeRemoteObject{Value: gson.New(f.answers[name])}, nil
}

func (f *fakeEval) ops(name string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.op == name {
			out = append(out, c)
		}
	}
	return out
}

func newTestDoc(t *testing.T, answers map[string]any) (*Document, *fakeEval) {
	t.Helper()
	ev := &fakeEval{answers: answers}
	d := newDocument(context.Background(), ev, Options{})
	t.Cleanup(d.cancel)
	return d, ev
}

func TestListen_RegistersInPage(t *testing.T) {
	d, ev := newTestDoc(t, nil)

	unlisten := d.Listen(dom.Click, dom.ListenOptions{Target: dom.OnDocument, Capture: true, Consume: true}, func(dom.Event) {})
	listens := ev.ops("listen")
	if len(listens) != 1 {
		t.Fatalf("listen ops: got %d, want 1", len(listens))
	}
	args := listens[0].args
	if args[1] != "click" || args[2] != "document" || args[3] != true || args[4] != true {
		t.Fatalf("listen args: %v", args)
	}
	if d.Listeners() != 1 {
		t.Fatalf("listeners: got %d, want 1", d.Listeners())
	}

	unlisten()
	unlisten()
	if n := len(ev.ops("unlisten")); n != 1 {
		t.Fatalf("unlisten ops: got %d, want 1", n)
	}
	if d.Listeners() != 0 {
		t.Fatalf("listeners after unlisten: got %d", d.Listeners())
	}
}

func TestHandle_DispatchesEvents(t *testing.T) {
	d, _ := newTestDoc(t, nil)

	var got []dom.Event
	d.Listen(dom.MouseMove, dom.ListenOptions{Capture: true}, func(e dom.Event) { got = append(got, e) })
	d.Listen(dom.KeyDown, dom.ListenOptions{}, func(e dom.Event) { got = append(got, e) })

	d.handle(`{"k":"ev","r":1,"t":"mousemove","x":12.5,"y":40}`)
	d.handle(`{"k":"ev","r":2,"t":"keydown","key":"Escape"}`)
	d.handle(`{"k":"ev","r":99,"t":"click"}`)
	d.handle(`not json`)

	if len(got) != 2 {
		t.Fatalf("events: got %d, want 2", len(got))
	}
	if got[0].Type != dom.MouseMove || got[0].X != 12.5 || got[0].Y != 40 {
		t.Fatalf("move event: %+v", got[0])
	}
	if got[1].Type != dom.KeyDown || got[1].Key != "Escape" {
		t.Fatalf("key event: %+v", got[1])
	}
}

func TestHandle_ReadyRelistens(t *testing.T) {
	d, ev := newTestDoc(t, nil)
	d.Listen(dom.Scroll, dom.ListenOptions{Target: dom.OnWindow, Capture: true}, func(dom.Event) {})

	select {
	case <-d.Ready():
		t.Fatal("ready before announcement")
	default:
	}

	d.handle(`{"k":"ready"}`)
	d.handle(`{"k":"ready"}`)

	select {
	case <-d.Ready():
	default:
		t.Fatal("Ready not closed")
	}
	listens := ev.ops("listen")
	if len(listens) != 3 {
		t.Fatalf("listen ops: got %d, want 3 (initial + two documents)", len(listens))
	}
	if listens[2].args[2] != "window" {
		t.Fatalf("target: got %v, want window", listens[2].args[2])
	}
}

func TestElementFromPoint(t *testing.T) {
	d, ev := newTestDoc(t, map[string]any{"fromPoint": 7})

	a, ok := d.ElementFromPoint(10, 20)
	if !ok {
		t.Fatal("no element")
	}
	b, _ := d.ElementFromPoint(11, 21)
	if a != b {
		t.Fatal("handles for the same node differ")
	}
	if a.(Element).ID() != 7 {
		t.Fatalf("id: got %d, want 7", a.(Element).ID())
	}
	c := ev.ops("fromPoint")[0]
	if c.args[0] != 10.0 || c.args[1] != 20.0 {
		t.Fatalf("fromPoint args: %v", c.args)
	}

	ev.answers["fromPoint"] = 0
	if _, ok := d.ElementFromPoint(0, 0); ok {
		t.Fatal("miss reported as hit")
	}
}

func TestElement_Attr(t *testing.T) {
	d, ev := newTestDoc(t, map[string]any{"byId": 3, "attr": "card wide"})
	el, ok := d.ElementByID("main")
	if !ok {
		t.Fatal("ElementByID missed")
	}
	if v, ok := el.Attr("class"); !ok || v != "card wide" {
		t.Fatalf("attr: got %q ok=%v", v, ok)
	}
	ev.answers["attr"] = nil
	if _, ok := el.Attr("data-capture"); ok {
		t.Fatal("missing attribute reported present")
	}
}

func TestInertHandle(t *testing.T) {
	d, ev := newTestDoc(t, nil)
	ev.err = errors.New("target closed")

	body := d.Body()
	if body == nil {
		t.Fatal("Body returned nil interface")
	}
	before := len(ev.ops("setStyle"))
	body.SetStyle("cursor", "crosshair")
	if body.Style("cursor") != "" || body.Attached() {
		t.Fatal("inert handle reported state")
	}
	if len(ev.ops("setStyle")) != before {
		t.Fatal("inert handle reached the page")
	}
}

func TestWithin(t *testing.T) {
	d, ev := newTestDoc(t, map[string]any{"within": true})
	a := Element{d: d, id: 1}
	b := Element{d: d, id: 2}
	if !a.Within(a) {
		t.Fatal("element not within itself")
	}
	if len(ev.ops("within")) != 0 {
		t.Fatal("self check went to the page")
	}
	if !a.Within(b) {
		t.Fatal("within answer ignored")
	}
	if a.Within(nil) {
		t.Fatal("within nil")
	}
}

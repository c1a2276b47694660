package memdom

import (
	"testing"

	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
)

func TestElementFromPoint_Topmost(t *testing.T) {
	d := New()
	card := d.Add(nil, "div", dom.Rect{Left: 10, Top: 10, Width: 200, Height: 100}, "class", "card")
	title := d.Add(card, "h2", dom.Rect{Left: 20, Top: 20, Width: 100, Height: 20})

	el, ok := d.ElementFromPoint(30, 25)
	if !ok || el != dom.Element(title) {
		t.Fatalf("hit at title: got %v ok=%v", el, ok)
	}
	el, ok = d.ElementFromPoint(150, 90)
	if !ok || el != dom.Element(card) {
		t.Fatalf("hit at card: got %v ok=%v", el, ok)
	}
	el, _ = d.ElementFromPoint(1000, 700)
	if el != d.Body() {
		t.Fatalf("hit outside content: got %v, want body", el)
	}
}

func TestElementFromPoint_PointerEventsNone(t *testing.T) {
	d := New()
	card := d.Add(nil, "div", dom.Rect{Left: 0, Top: 0, Width: 100, Height: 100})
	cover := d.Add(nil, "div", dom.Rect{Left: 0, Top: 0, Width: 100, Height: 100})

	el, _ := d.ElementFromPoint(50, 50)
	if el != dom.Element(cover) {
		t.Fatalf("cover on top: got %v", el)
	}
	cover.SetStyle("pointer-events", "none")
	el, _ = d.ElementFromPoint(50, 50)
	if el != dom.Element(card) {
		t.Fatalf("cover transparent: got %v, want card", el)
	}
	cover.SetStyle("pointer-events", "")
	cover.SetStyle("display", "none")
	el, _ = d.ElementFromPoint(50, 50)
	if el != dom.Element(card) {
		t.Fatalf("cover hidden: got %v, want card", el)
	}
}

func TestDispatch_ConsumeStopsBubble(t *testing.T) {
	d := New()
	var order []string
	d.Listen(dom.Click, dom.ListenOptions{}, func(dom.Event) { order = append(order, "page") })
	unlisten := d.Listen(dom.Click, dom.ListenOptions{Capture: true, Consume: true}, func(dom.Event) {
		order = append(order, "tool")
	})

	res := d.Click(1, 1)
	if !res.DefaultPrevented || !res.PropagationStopped {
		t.Fatalf("consume flags: %+v", res)
	}
	if len(order) != 1 || order[0] != "tool" {
		t.Fatalf("order: got %v, want [tool]", order)
	}

	unlisten()
	unlisten()
	if d.ListenerCount() != 1 {
		t.Fatalf("ListenerCount after double unlisten: got %d, want 1", d.ListenerCount())
	}
	res = d.Click(1, 1)
	if res.DefaultPrevented || len(order) != 2 || order[1] != "page" {
		t.Fatalf("after unlisten: res=%+v order=%v", res, order)
	}
}

func TestDispatch_ScrollTargetsWindow(t *testing.T) {
	d := New()
	box := d.Add(nil, "div", dom.Rect{Top: 100, Width: 10, Height: 10})
	fixed := d.Add(nil, "div", dom.Rect{Top: 5, Width: 10, Height: 10})
	fixed.SetStyle("position", "fixed")

	var docHits, winHits int
	d.Listen(dom.Scroll, dom.ListenOptions{Target: dom.OnDocument, Capture: true}, func(dom.Event) { docHits++ })
	d.Listen(dom.Scroll, dom.ListenOptions{Target: dom.OnWindow, Capture: true}, func(dom.Event) { winHits++ })

	d.Scroll(40)
	if winHits != 1 || docHits != 0 {
		t.Fatalf("scroll delivery: window=%d document=%d", winHits, docHits)
	}
	if got := box.Rect().Top; got != 60 {
		t.Fatalf("scrolled top: got %v, want 60", got)
	}
	if got := fixed.Rect().Top; got != 5 {
		t.Fatalf("fixed top: got %v, want 5", got)
	}
}

func TestNode_TreeOps(t *testing.T) {
	d := New()
	el := d.CreateElement("div")
	if el.Attached() {
		t.Fatal("created element should be detached")
	}
	d.Body().AppendChild(el)
	el.SetAttr("id", "x")
	if !el.Attached() || d.CountByID("x") != 1 {
		t.Fatal("append should attach")
	}
	if !el.Within(d.Body()) || !el.Within(el) || d.Body().Within(el) {
		t.Fatal("Within mismatch")
	}
	dom.Mark(el)
	child := d.CreateElement("span")
	el.AppendChild(child)
	if !dom.Excluded(child) {
		t.Fatal("child of marked node should be excluded")
	}
	el.Remove()
	if el.Attached() || d.CountByID("x") != 0 {
		t.Fatal("remove should detach")
	}
	NodeOf(el).AddClass("a")
	NodeOf(el).AddClass("a")
	if v, _ := el.Attr("class"); v != "a" {
		t.Fatalf("class: got %q", v)
	}
	if got := dom.Describe(el); got != "div.a" {
		t.Fatalf("Describe: got %q", got)
	}
}

package pointer

import (
	"testing"

	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
	"github.com/hazyhaar/pagesnap/domshot/internal/dom/memdom"
	"github.com/hazyhaar/pagesnap/domshot/internal/overlay"
)

type nodes []dom.Element

func (n nodes) Nodes() []dom.Element { return n }

func TestResolve_Element(t *testing.T) {
	d := memdom.New()
	a := d.Add(nil, "button", dom.Rect{Left: 10, Top: 10, Width: 80, Height: 30})
	r := New(d, nil)

	el, ok := r.Resolve(20, 20)
	if !ok || el != dom.Element(a) {
		t.Fatalf("Resolve: got %v ok=%v, want button", el, ok)
	}
}

func TestResolve_OverlayNeverShadows(t *testing.T) {
	d := memdom.New()
	a := d.Add(nil, "div", dom.Rect{Left: 0, Top: 0, Width: 100, Height: 100})
	surf := overlay.New(d, "hl")
	surf.Show(a)

	// A page script flips the box back to hit-testable; Resolve must undo it.
	box := surf.Nodes()[0]
	box.SetStyle("pointer-events", "auto")
	memdom.NodeOf(box).SetRect(a.Rect())

	r := New(d, surf, surf)
	el, ok := r.Resolve(50, 50)
	if !ok || el != dom.Element(a) {
		t.Fatalf("Resolve under overlay: got %v ok=%v, want the outlined div", el, ok)
	}
}

func TestResolve_RejectsOwnUI(t *testing.T) {
	d := memdom.New()
	d.Add(nil, "main", dom.Rect{Width: 1280, Height: 800})
	toast := d.Add(nil, "div", dom.Rect{Left: 400, Top: 20, Width: 360, Height: 60}, "id", "toast")
	d.Add(toast, "span", dom.Rect{Left: 410, Top: 30, Width: 20, Height: 20})

	r := New(d, nil, nodes{toast})
	for _, pt := range [][2]float64{{500, 40}, {415, 35}} {
		if el, ok := r.Resolve(pt[0], pt[1]); ok {
			t.Fatalf("Resolve(%v): got %v, want none", pt, el)
		}
	}
}

func TestResolve_RejectsMarkedNodes(t *testing.T) {
	d := memdom.New()
	banner := d.Add(nil, "aside", dom.Rect{Width: 200, Height: 50}, dom.ExcludeAttr, dom.ExcludeValue)
	d.Add(banner, "p", dom.Rect{Width: 100, Height: 20})

	r := New(d, nil)
	if el, ok := r.Resolve(10, 10); ok {
		t.Fatalf("Resolve on marked subtree: got %v, want none", el)
	}
	if _, ok := r.Resolve(300, 300); !ok {
		t.Fatal("Resolve outside marked subtree should hit body")
	}
}

func TestResolve_Miss(t *testing.T) {
	d := memdom.New()
	r := New(d, nil)
	if el, ok := r.Resolve(5000, 5000); ok {
		t.Fatalf("Resolve off-viewport: got %v", el)
	}
}

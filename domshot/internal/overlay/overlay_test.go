package overlay

import (
	"testing"

	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
	"github.com/hazyhaar/pagesnap/domshot/internal/dom/memdom"
)

func TestShow_MirrorsRect(t *testing.T) {
	d := memdom.New()
	a := d.Add(nil, "div", dom.Rect{Left: 10, Top: 20, Width: 300, Height: 40.5})
	s := New(d, "hl")

	s.Show(a)

	rect, visible := s.Current()
	if !visible || rect != a.Rect() {
		t.Fatalf("Current: got %+v visible=%v, want %+v", rect, visible, a.Rect())
	}
	box, ok := d.ElementByID("hl")
	if !ok {
		t.Fatal("box not attached")
	}
	for prop, want := range map[string]string{
		"left": "10px", "top": "20px", "width": "300px", "height": "40.5px",
		"display": "block", "pointer-events": "none", "position": "fixed",
	} {
		if got := box.Style(prop); got != want {
			t.Errorf("style %s: got %q, want %q", prop, got, want)
		}
	}
	if !dom.Excluded(box) {
		t.Error("box must carry the exclude marker")
	}
	if a.Style("display") != "" || a.Style("outline") != "" {
		t.Error("Show must not mutate the target")
	}
}

func TestHide_KeepsNode(t *testing.T) {
	d := memdom.New()
	a := d.Add(nil, "div", dom.Rect{Width: 10, Height: 10})
	s := New(d, "hl")
	s.Show(a)
	first := s.Nodes()[0]

	s.Hide()
	if _, visible := s.Current(); visible {
		t.Fatal("Hide: still visible")
	}
	if first.Style("display") != "none" || !first.Attached() {
		t.Fatal("Hide: node should stay attached with display none")
	}

	s.Show(a)
	if s.Nodes()[0] != first {
		t.Fatal("Show after Hide should reuse the node")
	}
	if d.CountByID("hl") != 1 {
		t.Fatalf("boxes: got %d, want 1", d.CountByID("hl"))
	}
}

func TestRemove_Recreates(t *testing.T) {
	d := memdom.New()
	a := d.Add(nil, "div", dom.Rect{Width: 10, Height: 10})
	s := New(d, "hl")
	s.Show(a)
	first := s.Nodes()[0]

	s.Remove()
	s.Remove()
	if first.Attached() || len(s.Nodes()) != 0 || d.CountByID("hl") != 0 {
		t.Fatal("Remove should detach and forget the box")
	}

	s.Show(a)
	if len(s.Nodes()) != 1 || s.Nodes()[0] == first {
		t.Fatal("Show after Remove should create a fresh box")
	}
}

func TestShow_AfterScroll(t *testing.T) {
	d := memdom.New()
	a := d.Add(nil, "div", dom.Rect{Top: 200, Width: 50, Height: 50})
	s := New(d, "hl")
	s.Show(a)

	d.Scroll(150)
	s.Show(a)

	rect, _ := s.Current()
	if rect.Top != 50 {
		t.Fatalf("top after scroll: got %v, want 50", rect.Top)
	}
}

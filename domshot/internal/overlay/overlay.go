// Package overlay owns the highlight box drawn over the hovered element.
// The box is a fixed-position, pointer-transparent div marked as tool UI;
// it never touches the element it outlines.
package overlay

import (
	"strconv"
	"sync"

	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
)

var boxStyle = [][2]string{
	{"position", "fixed"},
	{"pointer-events", "none"},
	{"z-index", "999998"},
	{"border", "2px solid #3b82f6"},
	{"background", "rgba(59, 130, 246, 0.1)"},
	{"box-shadow", "0 0 0 1px rgba(59, 130, 246, 0.2), 0 4px 12px rgba(0, 0, 0, 0.15)"},
	{"transition", "all 0.1s ease-out"},
	{"box-sizing", "border-box"},
	{"display", "none"},
}

// Surface manages one highlight box per document.
type Surface struct {
	doc dom.Document
	id  string

	mu      sync.Mutex
	box     dom.Element
	rect    dom.Rect
	visible bool
}

// New creates a Surface. id is the DOM id given to the box.
func New(doc dom.Document, id string) *Surface {
	return &Surface{doc: doc, id: id}
}

// ID returns the DOM id of the box.
func (s *Surface) ID() string { return s.id }

// Ensure creates the box if it does not exist yet (or was detached by the
// page) and returns it.
func (s *Surface) Ensure() dom.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked()
}

func (s *Surface) ensureLocked() dom.Element {
	if s.box != nil && s.box.Attached() {
		return s.box
	}
	box := s.doc.CreateElement("div")
	if box == nil {
		return nil
	}
	box.SetAttr("id", s.id)
	dom.Mark(box)
	for _, kv := range boxStyle {
		box.SetStyle(kv[0], kv[1])
	}
	s.doc.Body().AppendChild(box)
	s.box = box
	s.visible = false
	return box
}

// Show outlines el using its current viewport rect.
func (s *Surface) Show(el dom.Element) {
	if el == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	box := s.ensureLocked()
	if box == nil {
		return
	}
	r := el.Rect()
	box.SetStyle("left", px(r.Left))
	box.SetStyle("top", px(r.Top))
	box.SetStyle("width", px(r.Width))
	box.SetStyle("height", px(r.Height))
	box.SetStyle("display", "block")
	s.rect = r
	s.visible = true
}

// Hide makes the box invisible and keeps the node for the next Show.
func (s *Surface) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.box != nil {
		s.box.SetStyle("display", "none")
	}
	s.visible = false
}

// Remove detaches and forgets the box.
func (s *Surface) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.box != nil {
		s.box.Remove()
		s.box = nil
	}
	s.visible = false
	s.rect = dom.Rect{}
}

// Transparent re-asserts pointer-events:none on the box so it cannot
// shadow the element under it during hit-testing.
func (s *Surface) Transparent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.box != nil {
		s.box.SetStyle("pointer-events", "none")
	}
}

// Current returns the last rect written and whether the box is visible.
func (s *Surface) Current() (dom.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rect, s.visible
}

// Nodes returns the box when it exists.
func (s *Surface) Nodes() []dom.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.box == nil {
		return nil
	}
	return []dom.Element{s.box}
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

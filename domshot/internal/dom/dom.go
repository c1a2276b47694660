// Package dom is the narrow document model the element picker is written
// against. It is implemented over a live Chrome tab (cdpdom) and in memory
// (memdom). Elements are comparable values: two lookups of the same node
// compare equal with ==.
//
// Methods do not return errors. A transport failure degrades to the zero
// value (no element, empty rect, detached), which the picker treats as a
// resolution miss.
package dom

import "strings"

// Marker attribute carried by every node the tool injects. The resolver
// never returns a marked node and the capture collaborator drops them.
const (
	ExcludeAttr  = "data-capture"
	ExcludeValue = "exclude"
)

// Rect is a viewport-relative bounding box in CSS pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point lies inside r (right/bottom edges excluded).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x < r.Left+r.Width && y >= r.Top && y < r.Top+r.Height
}

// Element is a handle on a DOM element.
type Element interface {
	TagName() string
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	Style(prop string) string
	SetStyle(prop, value string)
	SetText(text string)
	AddClass(name string)
	AppendChild(child Element)
	Remove()
	Attached() bool
	Rect() Rect
	// Within reports whether the element is ancestor itself or one of its
	// descendants.
	Within(ancestor Element) bool
	// ClosestAttr reports whether the element or one of its ancestors
	// carries attribute name with the given value.
	ClosestAttr(name, value string) bool
}

// Document is a handle on one page's document and window.
type Document interface {
	Root() Element
	Head() Element
	Body() Element
	CreateElement(tag string) Element
	ElementByID(id string) (Element, bool)
	ElementFromPoint(x, y float64) (Element, bool)
	// Listen registers fn and returns the function that unregisters it.
	// The returned function is safe to call more than once.
	Listen(typ EventType, opts ListenOptions, fn Listener) (unlisten func())
}

// EventType names the DOM events the picker uses.
type EventType string

const (
	MouseMove EventType = "mousemove"
	Click     EventType = "click"
	KeyDown   EventType = "keydown"
	Scroll    EventType = "scroll"
)

// Target selects where a listener is attached.
type Target int

const (
	OnDocument Target = iota
	OnWindow
)

func (t Target) String() string {
	if t == OnWindow {
		return "window"
	}
	return "document"
}

// ListenOptions mirrors addEventListener options. Consume makes the
// listener prevent the default action and stop propagation synchronously,
// before the page's own handlers run.
type ListenOptions struct {
	Target  Target
	Capture bool
	Consume bool
}

// Event is what a listener receives. X/Y are client coordinates.
type Event struct {
	Type EventType `json:"type"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	Key  string    `json:"key,omitempty"`
}

// Listener handles one event.
type Listener func(Event)

// Excluded reports whether el is, or sits under, a marked node.
func Excluded(el Element) bool {
	return el.ClosestAttr(ExcludeAttr, ExcludeValue)
}

// Mark tags el as tool UI.
func Mark(el Element) {
	el.SetAttr(ExcludeAttr, ExcludeValue)
}

// Describe returns tag[.firstClass], e.g. "div.card".
func Describe(el Element) string {
	if el == nil {
		return ""
	}
	tag := strings.ToLower(el.TagName())
	if class, ok := el.Attr("class"); ok {
		if f := strings.Fields(class); len(f) > 0 {
			return tag + "." + f[0]
		}
	}
	return tag
}

// Package memdom is an in-memory dom.Document: a node tree with attributes,
// inline styles, explicit layout rects, hit-testing and capture/bubble
// listeners. Tests drive it with MouseMove, Click, KeyDown and Scroll.
package memdom

import (
	"strings"
	"sync"

	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
)

// Viewport is the default rect of <html> and <body>.
var Viewport = dom.Rect{Width: 1280, Height: 800}

// Document is an in-memory document. Safe for concurrent use; listeners are
// called without the lock held.
type Document struct {
	mu        sync.Mutex
	root      *Node
	head      *Node
	body      *Node
	listeners []*registration
}

// Node is an element of a memdom Document.
type Node struct {
	doc      *Document
	tag      string
	attrs    map[string]string
	styles   map[string]string
	text     string
	parent   *Node
	children []*Node
	rect     dom.Rect
}

type registration struct {
	typ     dom.EventType
	opts    dom.ListenOptions
	fn      dom.Listener
	removed bool
}

// New returns a document with <html>, <head> and <body>.
func New() *Document {
	d := &Document{}
	d.root = d.newNode("html")
	d.root.rect = Viewport
	d.head = d.newNode("head")
	d.body = d.newNode("body")
	d.body.rect = Viewport
	d.root.appendLocked(d.head)
	d.root.appendLocked(d.body)
	return d
}

func (d *Document) newNode(tag string) *Node {
	return &Node{
		doc:    d,
		tag:    strings.ToLower(tag),
		attrs:  make(map[string]string),
		styles: make(map[string]string),
	}
}

// Add builds a child of parent (body when nil) with a layout rect.
// attrs are name/value pairs.
func (d *Document) Add(parent *Node, tag string, rect dom.Rect, attrs ...string) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	if parent == nil {
		parent = d.body
	}
	n := d.newNode(tag)
	n.rect = rect
	for i := 0; i+1 < len(attrs); i += 2 {
		n.attrs[attrs[i]] = attrs[i+1]
	}
	parent.appendLocked(n)
	return n
}

// NodeOf returns the memdom node behind el, or nil.
func NodeOf(el dom.Element) *Node {
	n, _ := el.(*Node)
	return n
}

func (d *Document) Root() dom.Element { return d.root }
func (d *Document) Head() dom.Element { return d.head }
func (d *Document) Body() dom.Element { return d.body }

func (d *Document) CreateElement(tag string) dom.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.newNode(tag)
}

func (d *Document) ElementByID(id string) (dom.Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var found *Node
	d.root.walk(func(n *Node) bool {
		if n.attrs["id"] == id {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil, false
	}
	return found, true
}

// CountByID returns how many attached nodes carry id.
func (d *Document) CountByID(id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	d.root.walk(func(n *Node) bool {
		if n.attrs["id"] == id {
			count++
		}
		return true
	})
	return count
}

// ElementFromPoint returns the topmost hit: the last node in document order
// whose rect contains the point, skipping display:none subtrees and nodes
// whose effective pointer-events is none.
func (d *Document) ElementFromPoint(x, y float64) (dom.Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var hit *Node
	var visit func(n *Node, pointerNone bool)
	visit = func(n *Node, pointerNone bool) {
		if n.styles["display"] == "none" {
			return
		}
		switch n.styles["pointer-events"] {
		case "none":
			pointerNone = true
		case "auto":
			pointerNone = false
		}
		if !pointerNone && n.rect.Contains(x, y) {
			hit = n
		}
		for _, c := range n.children {
			visit(c, pointerNone)
		}
	}
	visit(d.root, false)
	if hit == nil {
		return nil, false
	}
	return hit, true
}

func (d *Document) Listen(typ dom.EventType, opts dom.ListenOptions, fn dom.Listener) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	reg := &registration{typ: typ, opts: opts, fn: fn}
	d.listeners = append(d.listeners, reg)
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if reg.removed {
			return
		}
		reg.removed = true
		for i, r := range d.listeners {
			if r == reg {
				d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
				break
			}
		}
	}
}

// ListenerCount returns the number of registered listeners.
func (d *Document) ListenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

// Listeners returns the number of listeners registered for typ.
func (d *Document) Listeners(typ dom.EventType) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.listeners {
		if r.typ == typ {
			n++
		}
	}
	return n
}

// ListenOptions returns the options of every listener registered for typ,
// in registration order.
func (d *Document) ListenOptions(typ dom.EventType) []dom.ListenOptions {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []dom.ListenOptions
	for _, r := range d.listeners {
		if r.typ == typ {
			out = append(out, r.opts)
		}
	}
	return out
}

// Dispatched reports what happened to a dispatched event.
type Dispatched struct {
	Delivered          int
	DefaultPrevented   bool
	PropagationStopped bool
}

// Dispatch delivers ev to capture-phase listeners in registration order,
// then to bubble-phase listeners unless a consuming listener stopped
// propagation. Scroll events target the window, the others the document.
func (d *Document) Dispatch(ev dom.Event) Dispatched {
	target := dom.OnDocument
	if ev.Type == dom.Scroll {
		target = dom.OnWindow
	}

	d.mu.Lock()
	var capture, bubble []*registration
	for _, r := range d.listeners {
		if r.typ != ev.Type || r.opts.Target != target {
			continue
		}
		if r.opts.Capture {
			capture = append(capture, r)
		} else {
			bubble = append(bubble, r)
		}
	}
	d.mu.Unlock()

	var out Dispatched
	call := func(r *registration) {
		d.mu.Lock()
		removed := r.removed
		d.mu.Unlock()
		if removed {
			return
		}
		if r.opts.Consume {
			out.DefaultPrevented = true
			out.PropagationStopped = true
		}
		out.Delivered++
		r.fn(ev)
	}
	for _, r := range capture {
		call(r)
	}
	if out.PropagationStopped {
		return out
	}
	for _, r := range bubble {
		call(r)
	}
	return out
}

func (d *Document) MouseMove(x, y float64) Dispatched {
	return d.Dispatch(dom.Event{Type: dom.MouseMove, X: x, Y: y})
}

func (d *Document) Click(x, y float64) Dispatched {
	return d.Dispatch(dom.Event{Type: dom.Click, X: x, Y: y})
}

func (d *Document) KeyDown(key string) Dispatched {
	return d.Dispatch(dom.Event{Type: dom.KeyDown, Key: key})
}

// Scroll shifts every node under body vertically by dy (content moves up
// for positive dy, fixed-position nodes stay) and dispatches a scroll event.
func (d *Document) Scroll(dy float64) Dispatched {
	d.mu.Lock()
	var shift func(n *Node)
	shift = func(n *Node) {
		if n.styles["position"] == "fixed" {
			return
		}
		n.rect.Top -= dy
		for _, c := range n.children {
			shift(c)
		}
	}
	for _, c := range d.body.children {
		shift(c)
	}
	d.mu.Unlock()
	return d.Dispatch(dom.Event{Type: dom.Scroll})
}

// --- Node ---

func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

func (n *Node) appendLocked(child *Node) {
	if child.parent != nil {
		child.parent.removeChildLocked(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

func (n *Node) removeChildLocked(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

func (n *Node) TagName() string { return n.tag }

func (n *Node) Attr(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) SetAttr(name, value string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.attrs[name] = value
}

func (n *Node) Style(prop string) string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.styles[prop]
}

// SetStyle sets an inline style; an empty value removes the property.
func (n *Node) SetStyle(prop, value string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if value == "" {
		delete(n.styles, prop)
		return
	}
	n.styles[prop] = value
}

func (n *Node) SetText(text string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.text = text
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

// Text returns the text set with SetText on n and its descendants.
func (n *Node) Text() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	var b strings.Builder
	n.walk(func(c *Node) bool {
		b.WriteString(c.text)
		return true
	})
	return b.String()
}

func (n *Node) AddClass(name string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for _, c := range strings.Fields(n.attrs["class"]) {
		if c == name {
			return
		}
	}
	n.attrs["class"] = strings.TrimSpace(n.attrs["class"] + " " + name)
}

// HasClass reports whether class name is set on n.
func (n *Node) HasClass(name string) bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for _, c := range strings.Fields(n.attrs["class"]) {
		if c == name {
			return true
		}
	}
	return false
}

func (n *Node) AppendChild(child dom.Element) {
	c := NodeOf(child)
	if c == nil {
		return
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.appendLocked(c)
}

func (n *Node) Remove() {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.parent != nil {
		n.parent.removeChildLocked(n)
	}
}

func (n *Node) Attached() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for p := n; p != nil; p = p.parent {
		if p == n.doc.root {
			return true
		}
	}
	return false
}

// Rect returns the layout rect set with Add or SetRect.
func (n *Node) Rect() dom.Rect {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.rect
}

// SetRect changes n's layout rect.
func (n *Node) SetRect(r dom.Rect) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.rect = r
}

func (n *Node) Within(ancestor dom.Element) bool {
	a := NodeOf(ancestor)
	if a == nil {
		return false
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for p := n; p != nil; p = p.parent {
		if p == a {
			return true
		}
	}
	return false
}

func (n *Node) ClosestAttr(name, value string) bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for p := n; p != nil; p = p.parent {
		if v, ok := p.attrs[name]; ok && v == value {
			return true
		}
	}
	return false
}

var _ dom.Document = (*Document)(nil)
var _ dom.Element = (*Node)(nil)

package cdpdom

import (
	"encoding/json"

	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
)

// Element is a handle on a node registered by the bridge. Handles are
// comparable: the same node always yields the same Element. The zero id
// is an inert handle.
type Element struct {
	d  *Document
	id int
}

var _ dom.Element = Element{}

// ID returns the bridge id of the node.
func (e Element) ID() int { return e.id }

func (e Element) valid() bool { return e.d != nil && e.id > 0 }

func (e Element) op(name string, args ...any) *proto.RuntimeRemoteObject {
	if !e.valid() {
		return nil
	}
	return e.d.op(name, append([]any{e.id}, args...)...)
}

func (e Element) TagName() string {
	if res := e.op("tag"); res != nil {
		return res.Value.Str()
	}
	return ""
}

func (e Element) Attr(name string) (string, bool) {
	res := e.op("attr", name)
	if res == nil || res.Value.Nil() {
		return "", false
	}
	return res.Value.Str(), true
}

func (e Element) SetAttr(name, value string) { e.op("setAttr", name, value) }

func (e Element) Style(prop string) string {
	if res := e.op("style", prop); res != nil {
		return res.Value.Str()
	}
	return ""
}

func (e Element) SetStyle(prop, value string) { e.op("setStyle", prop, value) }
func (e Element) SetText(text string)         { e.op("setText", text) }
func (e Element) AddClass(name string)        { e.op("addClass", name) }
func (e Element) Remove()                     { e.op("remove") }

func (e Element) AppendChild(child dom.Element) {
	c, ok := child.(Element)
	if !ok || !c.valid() {
		return
	}
	e.op("append", c.id)
}

func (e Element) Attached() bool {
	res := e.op("attached")
	return res != nil && res.Value.Bool()
}

func (e Element) Rect() dom.Rect {
	res := e.op("rect")
	if res == nil || res.Value.Nil() {
		return dom.Rect{}
	}
	var r struct {
		Left, Top, Width, Height float64
	}
	if err := decode(res, &r); err != nil {
		e.d.logger.Debug("cdpdom: decode rect", "error", err)
		return dom.Rect{}
	}
	return dom.Rect{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height}
}

func (e Element) Within(ancestor dom.Element) bool {
	a, ok := ancestor.(Element)
	if !ok || !a.valid() {
		return false
	}
	if a == e {
		return true
	}
	res := e.op("within", a.id)
	return res != nil && res.Value.Bool()
}

func (e Element) ClosestAttr(name, value string) bool {
	res := e.op("closestAttr", name, value)
	return res != nil && res.Value.Bool()
}

// decode unmarshals a by-value result into v.
func decode(res *proto.RuntimeRemoteObject, v any) error {
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

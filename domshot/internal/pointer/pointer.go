// Package pointer maps a client coordinate to the element the user means,
// never to the tool's own UI.
package pointer

import (
	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
)

// Owner exposes the nodes a component injected into the page.
type Owner interface {
	Nodes() []dom.Element
}

// Shield is made pointer-transparent before each hit test.
type Shield interface {
	Transparent()
}

// Resolver resolves pointer positions on one document.
type Resolver struct {
	doc    dom.Document
	shield Shield
	owners []Owner
}

// New creates a Resolver. shield may be nil; owners list every component
// whose nodes must never be returned (overlay, notifications).
func New(doc dom.Document, shield Shield, owners ...Owner) *Resolver {
	return &Resolver{doc: doc, shield: shield, owners: owners}
}

// Resolve returns the topmost eligible element at (x, y). A miss, a hit on
// tool UI or a hit on a marked node all return (nil, false).
func (r *Resolver) Resolve(x, y float64) (dom.Element, bool) {
	if r.shield != nil {
		r.shield.Transparent()
	}

	el, ok := r.doc.ElementFromPoint(x, y)
	if !ok || el == nil {
		return nil, false
	}
	if r.isOwn(el) {
		return nil, false
	}
	return el, true
}

func (r *Resolver) isOwn(el dom.Element) bool {
	for _, o := range r.owners {
		for _, n := range o.Nodes() {
			if n != nil && el.Within(n) {
				return true
			}
		}
	}
	return dom.Excluded(el)
}

package cdpdom

import (
	"context"
	"fmt"

	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// The methods below inject trusted input through CDP, so a picker session
// can be driven without a human at the keyboard (headless, HTTP, MCP).

// PointerMove moves the mouse to client coordinates (x, y).
func (d *Document) PointerMove(ctx context.Context, x, y float64) error {
	err := proto.InputDispatchMouseEvent{
		Type: proto.InputDispatchMouseEventTypeMouseMoved,
		X:    x,
		Y:    y,
	}.Call(d.page.Context(ctx))
	if err != nil {
		return fmt.Errorf("cdpdom: pointer move: %w", err)
	}
	return nil
}

// Click presses and releases the left button at (x, y).
func (d *Document) Click(ctx context.Context, x, y float64) error {
	p := d.page.Context(ctx)
	for _, typ := range []proto.InputDispatchMouseEventType{
		proto.InputDispatchMouseEventTypeMousePressed,
		proto.InputDispatchMouseEventTypeMouseReleased,
	} {
		err := proto.InputDispatchMouseEvent{
			Type:       typ,
			X:          x,
			Y:          y,
			Button:     proto.InputMouseButtonLeft,
			ClickCount: 1,
		}.Call(p)
		if err != nil {
			return fmt.Errorf("cdpdom: click: %w", err)
		}
	}
	return nil
}

// Wheel scrolls by dy pixels with the pointer at (x, y).
func (d *Document) Wheel(ctx context.Context, x, y, dy float64) error {
	err := proto.InputDispatchMouseEvent{
		Type:   proto.InputDispatchMouseEventTypeMouseWheel,
		X:      x,
		Y:      y,
		DeltaY: dy,
	}.Call(d.page.Context(ctx))
	if err != nil {
		return fmt.Errorf("cdpdom: wheel: %w", err)
	}
	return nil
}

var namedKeys = map[string]input.Key{
	"Escape":    input.Escape,
	"Enter":     input.Enter,
	"Tab":       input.Tab,
	"Backspace": input.Backspace,
}

// Key types one key by its DOM key name ("Escape", "a", ...).
func (d *Document) Key(ctx context.Context, key string) error {
	k, ok := namedKeys[key]
	if !ok {
		runes := []rune(key)
		if len(runes) != 1 || runes[0] < 0x20 || runes[0] > 0x7e {
			return fmt.Errorf("cdpdom: key: unsupported key %q", key)
		}
		k = input.Key(runes[0])
	}
	if err := d.page.Context(ctx).Keyboard.Type(k); err != nil {
		return fmt.Errorf("cdpdom: key %s: %w", key, err)
	}
	return nil
}

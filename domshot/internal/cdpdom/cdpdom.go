// CLAUDE:SUMMARY dom.Document over a live Chrome tab: injected bridge script, Runtime.addBinding event channel, single dispatch goroutine.
// Package cdpdom implements the dom port over a Rod page. An injected
// bridge script keeps element handles and forwards DOM events through a
// Runtime binding; listeners run serially on one dispatch goroutine, which
// plays the role of the page's event loop.
package cdpdom

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/pagesnap/domshot/internal/dom"
)

//go:embed bridge.js
var bridgeJS string

const bindingName = "__pagesnap_binding"

const opJS = `(name, args) => window.__pagesnap ? window.__pagesnap.op(name, args) : null`

// DefaultCallTimeout bounds one bridge call.
const DefaultCallTimeout = 5 * time.Second

// evaluator runs a JS function in the page.
type evaluator interface {
	Eval(ctx context.Context, js string, args ...any) (*proto.RuntimeRemoteObject, error)
}

type rodEvaluator struct{ page *rod.Page }

func (r rodEvaluator) Eval(ctx context.Context, js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	return r.page.Context(ctx).Eval(js, args...)
}

// Options configures Attach.
type Options struct {
	CallTimeout time.Duration
	Logger      *slog.Logger
}

type registration struct {
	id   int
	typ  dom.EventType
	opts dom.ListenOptions
	fn   dom.Listener
}

// Document is a dom.Document backed by a Chrome tab.
type Document struct {
	page    *rod.Page
	ev      evaluator
	logger  *slog.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	regs    map[int]*registration
	nextReg int

	ready     chan struct{}
	readyOnce sync.Once
	events    chan string
	unInject  func() error
}

var _ dom.Document = (*Document)(nil)

func newDocument(ctx context.Context, ev evaluator, opts Options) *Document {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Document{
		ev:      ev,
		logger:  opts.Logger,
		timeout: opts.CallTimeout,
		ctx:     ctx,
		cancel:  cancel,
		regs:    make(map[int]*registration),
		ready:   make(chan struct{}),
		events:  make(chan string, 256),
	}
}

// Attach injects the bridge into page (now and on every new document)
// and starts the dispatch goroutine. The Document lives until Close or
// until ctx is done.
func Attach(ctx context.Context, page *rod.Page, opts Options) (*Document, error) {
	d := newDocument(ctx, rodEvaluator{page: page}, opts)
	d.page = page

	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(page); err != nil {
		d.logger.Warn("cdpdom: addBinding failed (may already exist)", "error", err)
	}

	remove, err := page.EvalOnNewDocument("(" + bridgeJS + ")()")
	if err != nil {
		d.cancel()
		return nil, fmt.Errorf("cdpdom: register bridge: %w", err)
	}
	d.unInject = remove

	// Subscribe before injecting so the first ready message is not missed.
	wait := d.subscribe()
	go wait()
	go d.loop()

	callCtx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()
	if _, err := d.ev.Eval(callCtx, bridgeJS); err != nil {
		d.Close()
		return nil, fmt.Errorf("cdpdom: inject bridge: %w", err)
	}
	return d, nil
}

// Page returns the underlying Rod page (nil in tests).
func (d *Document) Page() *rod.Page { return d.page }

// Ready is closed once the bridge has announced itself in the page.
func (d *Document) Ready() <-chan struct{} { return d.ready }

// Close stops event dispatch and unregisters the bridge for future
// documents. Listeners already registered in the page stay inert.
func (d *Document) Close() {
	d.cancel()
	if d.unInject != nil {
		if err := d.unInject(); err != nil {
			d.logger.Debug("cdpdom: remove bridge", "error", err)
		}
	}
}

// subscribe receives bridge messages via Runtime.bindingCalled. The
// returned func blocks until the Document is closed.
func (d *Document) subscribe() func() {
	return d.page.Context(d.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		d.enqueue(e.Payload)
	})
}

func (d *Document) enqueue(payload string) {
	select {
	case d.events <- payload:
	default:
		d.logger.Debug("cdpdom: event queue full, dropping")
	}
}

// loop is the page's event loop: it runs listeners one at a time.
func (d *Document) loop() {
	for {
		select {
		case <-d.ctx.Done():
			return
		case payload := <-d.events:
			d.handle(payload)
		}
	}
}

type message struct {
	Kind string  `json:"k"`
	Reg  int     `json:"r"`
	Type string  `json:"t"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Key  string  `json:"key"`
}

func (d *Document) handle(payload string) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		d.logger.Warn("cdpdom: parse binding payload", "error", err)
		return
	}

	switch m.Kind {
	case "ready":
		d.readyOnce.Do(func() { close(d.ready) })
		d.relisten()
	case "ev":
		d.mu.Lock()
		reg := d.regs[m.Reg]
		d.mu.Unlock()
		if reg == nil {
			return // unregistered while queued
		}
		reg.fn(dom.Event{Type: reg.typ, X: m.X, Y: m.Y, Key: m.Key})
	default:
		d.logger.Debug("cdpdom: unknown message", "kind", m.Kind)
	}
}

// relisten re-registers every live listener after a new document loaded.
func (d *Document) relisten() {
	d.mu.Lock()
	regs := make([]*registration, 0, len(d.regs))
	for _, r := range d.regs {
		regs = append(regs, r)
	}
	d.mu.Unlock()
	for _, r := range regs {
		d.jsListen(r)
	}
	if len(regs) > 0 {
		d.logger.Debug("cdpdom: listeners restored", "count", len(regs))
	}
}

// Listen registers fn in the page. Consume is applied in the page itself,
// synchronously, so the page's handlers never see consumed events.
func (d *Document) Listen(typ dom.EventType, opts dom.ListenOptions, fn dom.Listener) func() {
	d.mu.Lock()
	d.nextReg++
	reg := &registration{id: d.nextReg, typ: typ, opts: opts, fn: fn}
	d.regs[reg.id] = reg
	d.mu.Unlock()

	d.jsListen(reg)

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.regs, reg.id)
			d.mu.Unlock()
			d.op("unlisten", reg.id)
		})
	}
}

func (d *Document) jsListen(r *registration) {
	d.op("listen", r.id, string(r.typ), r.opts.Target.String(), r.opts.Capture, r.opts.Consume)
}

// Listeners returns the number of registered listeners.
func (d *Document) Listeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.regs)
}

// op calls a bridge operation. Errors are logged and reported as a nil
// result: the picker treats transport failures as "nothing there".
func (d *Document) op(name string, args ...any) *proto.RuntimeRemoteObject {
	res, err := d.call(d.ctx, name, args...)
	if err != nil {
		d.logger.Debug("cdpdom: op failed", "op", name, "error", err)
		return nil
	}
	return res
}

func (d *Document) call(ctx context.Context, name string, args ...any) (*proto.RuntimeRemoteObject, error) {
	if args == nil {
		args = []any{}
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	res, err := d.ev.Eval(ctx, opJS, name, args)
	if err != nil {
		return nil, fmt.Errorf("cdpdom: %s: %w", name, err)
	}
	return res, nil
}

func (d *Document) elem(res *proto.RuntimeRemoteObject) (Element, bool) {
	if res == nil {
		return Element{d: d}, false
	}
	id := res.Value.Int()
	if id <= 0 {
		return Element{d: d}, false
	}
	return Element{d: d, id: id}, true
}

// Root, Head, Body and CreateElement return an inert handle when the call
// fails; every operation on it is a no-op.
func (d *Document) Root() dom.Element { return d.handleOf(d.op("root")) }
func (d *Document) Head() dom.Element { return d.handleOf(d.op("head")) }
func (d *Document) Body() dom.Element { return d.handleOf(d.op("body")) }

func (d *Document) CreateElement(tag string) dom.Element {
	return d.handleOf(d.op("create", tag))
}

func (d *Document) ElementByID(id string) (dom.Element, bool) {
	el, ok := d.elem(d.op("byId", id))
	if !ok {
		return nil, false
	}
	return el, true
}

func (d *Document) ElementFromPoint(x, y float64) (dom.Element, bool) {
	el, ok := d.elem(d.op("fromPoint", x, y))
	if !ok {
		return nil, false
	}
	return el, true
}

func (d *Document) handleOf(res *proto.RuntimeRemoteObject) dom.Element {
	el, _ := d.elem(res)
	el.d = d
	return el
}

package enabler

import (
	"context"
	"net/url"
	"sync"
)

type fakeWindow struct {
	mu        sync.Mutex
	nextID    int
	messages  map[int]func(MessageEvent)
	unloads   map[int]func()
	location  *url.URL
	navigated []string
}

func newFakeWindow(rawURL string) *fakeWindow {
	u, _ := url.Parse(rawURL)
	return &fakeWindow{
		messages: make(map[int]func(MessageEvent)),
		unloads:  make(map[int]func()),
		location: u,
	}
}

func (w *fakeWindow) AddMessageListener(fn func(MessageEvent)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	id := w.nextID
	w.messages[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.messages, id)
	}
}

func (w *fakeWindow) AddUnloadListener(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	id := w.nextID
	w.unloads[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.unloads, id)
	}
}

func (w *fakeWindow) Location() *url.URL { return w.location }

func (w *fakeWindow) Navigate(target string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.navigated = append(w.navigated, target)
}

// post delivers a message to every listener, like window.postMessage.
func (w *fakeWindow) post(origin string, data interface{}) {
	w.mu.Lock()
	fns := make([]func(MessageEvent), 0, len(w.messages))
	for _, fn := range w.messages {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(MessageEvent{Origin: origin, Data: data})
	}
}

func (w *fakeWindow) unload() {
	w.mu.Lock()
	fns := make([]func(), 0, len(w.unloads))
	for _, fn := range w.unloads {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (w *fakeWindow) listenerCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages) + len(w.unloads)
}

type fakeWidget struct {
	mu        sync.Mutex
	params    map[string]string
	renders   int
	forms     []FormConfig
	closed    []string
	renderErr error
}

func newFakeWidget() *fakeWidget {
	return &fakeWidget{params: make(map[string]string)}
}

func (w *fakeWidget) SetParam(key, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.params[key] = value
}

func (w *fakeWidget) Render() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.renders++
	return w.renderErr
}

func (w *fakeWidget) CloseChildWindow(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = append(w.closed, reason)
}

func (w *fakeWidget) CreateForm(cfg FormConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.forms = append(w.forms, cfg)
	return w.renderErr
}

func (w *fakeWidget) closedReasons() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.closed...)
}

type fakeDocument struct {
	mu      sync.Mutex
	globals map[string]bool
	injects map[string]int
	gate    chan struct{}
	err     error
}

func newFakeDocument() *fakeDocument {
	return &fakeDocument{globals: make(map[string]bool), injects: make(map[string]int)}
}

func (d *fakeDocument) HasGlobal(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.globals[name]
}

func (d *fakeDocument) InjectScript(ctx context.Context, s Script) error {
	d.mu.Lock()
	d.injects[s.URL]++
	gate := d.gate
	d.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if d.err != nil {
		return d.err
	}
	d.mu.Lock()
	d.globals[s.Global] = true
	d.mu.Unlock()
	return nil
}

func (d *fakeDocument) injections(u string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.injects[u]
}

// results collects completion callbacks.
type results struct {
	mu  sync.Mutex
	got []Result
	ch  chan Result
}

func newResults() *results {
	return &results{ch: make(chan Result, 16)}
}

func (r *results) add(res Result) {
	r.mu.Lock()
	r.got = append(r.got, res)
	r.mu.Unlock()
	r.ch <- res
}

func (r *results) all() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.got...)
}

package enabler

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrScriptLoad = errors.New("enabler: failed to load gateway script")

// ScriptLoadError reports a failed script injection.
type ScriptLoadError struct {
	URL string
	Err error
}

func (e *ScriptLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.URL, e.Err)
}

func (e *ScriptLoadError) Unwrap() error { return e.Err }

func (e *ScriptLoadError) Is(target error) bool { return target == ErrScriptLoad }

// Script describes an external gateway script.
type Script struct {
	ID          string
	URL         string
	Integrity   string
	CrossOrigin string
	// Global is the object the script defines once evaluated.
	Global string
}

// Document is the page capability scripts are injected into.
type Document interface {
	// HasGlobal reports whether a script already defined name.
	HasGlobal(name string) bool
	// InjectScript appends s to the document head and blocks until it loads or fails.
	InjectScript(ctx context.Context, s Script) error
}

type scriptLoad struct {
	done chan struct{}
	err  error
}

// Bootstrapper injects each distinct script URL at most once per page.
// Concurrent callers share the in-flight load and its result.
type Bootstrapper struct {
	doc Document

	mu    sync.Mutex
	loads map[string]*scriptLoad
}

func NewBootstrapper(doc Document) *Bootstrapper {
	return &Bootstrapper{doc: doc, loads: make(map[string]*scriptLoad)}
}

// EnsureLoaded returns once s is available. A failed load is cached and
// returned to every later caller as a *ScriptLoadError.
func (b *Bootstrapper) EnsureLoaded(ctx context.Context, s Script) error {
	b.mu.Lock()
	l, ok := b.loads[s.URL]
	if !ok {
		l = &scriptLoad{done: make(chan struct{})}
		b.loads[s.URL] = l
	}
	b.mu.Unlock()

	if !ok {
		go b.run(l, s)
	}

	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bootstrapper) run(l *scriptLoad, s Script) {
	defer close(l.done)
	if s.Global != "" && b.doc.HasGlobal(s.Global) {
		return
	}
	// The load outlives any single caller's context.
	if err := b.doc.InjectScript(context.Background(), s); err != nil {
		l.err = &ScriptLoadError{URL: s.URL, Err: err}
	}
}

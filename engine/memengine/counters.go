package memengine

import (
	"slices"

	"github.com/wudi/pdfium/engine"
)

// Calls returns how many times op was invoked, e.g. "open_page".
func (e *Engine) Calls(op string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[op]
}

// Releases returns the number of successful releases of kind.
func (e *Engine) Releases(kind string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.releases[kind]
}

// Live returns how many resources of kind are currently open.
func (e *Engine) Live(kind string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch kind {
	case KindDocument:
		return len(e.docs)
	case KindPage:
		return len(e.pages)
	case KindText:
		return len(e.texts)
	case KindSearch:
		return len(e.searches)
	}
	return 0
}

// DoubleReleases counts attempts to release an identifier a second time.
func (e *Engine) DoubleReleases() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doubles
}

// OrderViolations counts parents released while children were still open.
func (e *Engine) OrderViolations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.violations
}

// Overlaps counts calls that started while another call was in progress.
func (e *Engine) Overlaps() int64 { return e.overlaps.Load() }

// ReleaseLog returns every release in the order it happened.
func (e *Engine) ReleaseLog() []Release {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.log)
}

// LastRender returns the most recent successful render request.
func (e *Engine) LastRender() (engine.RenderRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastRender == nil {
		return engine.RenderRequest{}, false
	}
	return *e.lastRender, true
}

// FailReleases makes every later release of kind report err after the
// resource has been freed. A nil err clears the failure.
func (e *Engine) FailReleases(kind string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		delete(e.failures, kind)
		return
	}
	e.failures[kind] = err
}

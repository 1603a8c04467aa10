// Package handle owns opaque native resource identifiers.
//
// A Handle wraps exactly one identifier and the function that releases it.
// Handles form a tree: closing a handle first invalidates and releases every
// live descendant (most recently created first) and then releases its own
// identifier. Every identifier is released exactly once no matter how many
// times or from where Close is called.
package handle

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	// ErrUseAfterClose is returned by a handle that was closed directly.
	ErrUseAfterClose = errors.New("pdf: use after close")
	// ErrParentClosed is returned by a handle whose owner was closed.
	ErrParentClosed = errors.New("pdf: parent closed")
)

// State is the lifetime state of a handle.
type State int32

const (
	StateOpen State = iota
	StateClosed
	StateInvalidated
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateInvalidated:
		return "invalidated"
	}
	return "unknown"
}

// Observer receives lifetime events. Implementations must be safe for
// concurrent use.
type Observer interface {
	Opened(kind string)
	Released(kind string)
	ReleaseFailed(kind string, err error)
}

type nopObserver struct{}

func (nopObserver) Opened(string)               {}
func (nopObserver) Released(string)             {}
func (nopObserver) ReleaseFailed(string, error) {}

// NopObserver returns an observer that discards all events.
func NopObserver() Observer { return nopObserver{} }

// Option configures a root handle. Children inherit the root's observer.
type Option func(*Node)

func WithObserver(o Observer) Option {
	return func(n *Node) {
		if o != nil {
			n.observer = o
		}
	}
}

// Owner is anything that can own child handles.
type Owner interface {
	node() *Node
}

// Node carries the lifetime state shared by all handle types.
type Node struct {
	kind     string
	state    atomic.Int32
	observer Observer
	release  func() error
	parent   *Node
	seq      uint64

	mu       sync.Mutex
	nextSeq  uint64
	children map[uint64]*Node
}

func (n *Node) node() *Node { return n }

// Kind names the resource type, e.g. "document" or "page".
func (n *Node) Kind() string { return n.kind }

func (n *Node) State() State { return State(n.state.Load()) }

// Err reports why the handle can no longer be used, or nil while it and all
// of its owners are open.
func (n *Node) Err() error {
	switch n.State() {
	case StateClosed:
		return ErrUseAfterClose
	case StateInvalidated:
		return ErrParentClosed
	}
	for p := n.parent; p != nil; p = p.parent {
		if p.State() != StateOpen {
			return ErrParentClosed
		}
	}
	return nil
}

// Live returns the number of open direct children.
func (n *Node) Live() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.children)
}

// Close releases the handle and its descendants. It is safe to call more
// than once and from several goroutines; only the first call has an effect.
// Release failures are reported to the observer and otherwise ignored.
func (n *Node) Close() {
	if !n.state.CompareAndSwap(int32(StateOpen), int32(StateClosed)) {
		return
	}
	n.teardown()
	if p := n.parent; p != nil {
		p.mu.Lock()
		if p.children != nil {
			delete(p.children, n.seq)
		}
		p.mu.Unlock()
	}
}

func (n *Node) invalidate() {
	if !n.state.CompareAndSwap(int32(StateOpen), int32(StateInvalidated)) {
		return
	}
	n.teardown()
}

// teardown runs once per node, after the state left StateOpen.
func (n *Node) teardown() {
	n.mu.Lock()
	kids := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		kids = append(kids, c)
	}
	n.children = nil
	n.mu.Unlock()

	sort.Slice(kids, func(i, j int) bool { return kids[i].seq > kids[j].seq })
	for _, c := range kids {
		c.invalidate()
	}

	if n.release == nil {
		return
	}
	if err := n.release(); err != nil {
		n.observer.ReleaseFailed(n.kind, err)
		return
	}
	n.observer.Released(n.kind)
}

func (n *Node) adopt(c *Node) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.State() != StateOpen {
		return false
	}
	if n.children == nil {
		n.children = make(map[uint64]*Node)
	}
	n.nextSeq++
	c.seq = n.nextSeq
	n.children[c.seq] = c
	return true
}

// Handle owns one identifier of type ID.
type Handle[ID any] struct {
	*Node
	id ID
}

// NewRoot creates a handle without an owner.
func NewRoot[ID any](kind string, id ID, release func(ID) error, opts ...Option) *Handle[ID] {
	h := newHandle(kind, id, release)
	h.observer = nopObserver{}
	for _, opt := range opts {
		opt(h.Node)
	}
	h.observer.Opened(kind)
	return h
}

// NewChild creates a handle owned by parent. If parent is no longer open the
// freshly created id is released immediately and the parent's lifetime error
// is returned.
func NewChild[ID any](parent Owner, kind string, id ID, release func(ID) error) (*Handle[ID], error) {
	p := parent.node()
	h := newHandle(kind, id, release)
	h.observer = p.observer
	h.parent = p
	if err := p.Err(); err != nil || !p.adopt(h.Node) {
		h.observer.Opened(kind)
		h.state.Store(int32(StateInvalidated))
		h.teardown()
		if err == nil {
			err = p.Err()
		}
		return nil, err
	}
	h.observer.Opened(kind)
	return h, nil
}

func newHandle[ID any](kind string, id ID, release func(ID) error) *Handle[ID] {
	h := &Handle[ID]{Node: &Node{kind: kind}, id: id}
	if release != nil {
		h.release = func() error { return release(id) }
	}
	return h
}

// Get returns the identifier while the handle and its owners are open.
func (h *Handle[ID]) Get() (ID, error) {
	if err := h.Err(); err != nil {
		var zero ID
		return zero, err
	}
	return h.id, nil
}

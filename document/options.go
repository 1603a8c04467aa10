package document

import (
	"sync"

	"github.com/wudi/pdfium/observability"
)

// LockMode selects how native calls are serialized.
type LockMode int

const (
	// LockGlobal serializes every native call in the process behind one
	// mutex. It is the only safe choice for engines that are not thread
	// safe and it caps throughput at one native call at a time.
	LockGlobal LockMode = iota
	// LockPerDocument serializes calls per document only, letting
	// independent documents run in parallel on thread safe engines.
	LockPerDocument
)

func (m LockMode) String() string {
	if m == LockPerDocument {
		return "document"
	}
	return "global"
}

var globalLock sync.Mutex

const defaultPageSizeCache = 64

type options struct {
	password  string
	logger    observability.Logger
	metrics   *observability.Metrics
	lockMode  LockMode
	sizeCache int
}

// Option configures Open.
type Option func(*options)

func WithPassword(password string) Option {
	return func(o *options) { o.password = password }
}

func WithLogger(l observability.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithLockMode(m LockMode) Option {
	return func(o *options) { o.lockMode = m }
}

// WithPageSizeCache sets how many page sizes are remembered. Zero or less
// disables the cache.
func WithPageSizeCache(n int) Option {
	return func(o *options) { o.sizeCache = n }
}

func buildOptions(opts []Option) options {
	o := options{logger: observability.NopLogger{}, sizeCache: defaultPageSizeCache}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) locker() sync.Locker {
	if o.lockMode == LockPerDocument {
		return &sync.Mutex{}
	}
	return &globalLock
}

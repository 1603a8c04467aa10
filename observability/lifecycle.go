package observability

// Lifecycle reports handle events to a logger and to metrics. It satisfies
// the observer interface of the handle package.
type Lifecycle struct {
	Logger  Logger
	Metrics *Metrics
}

func NewLifecycle(log Logger, m *Metrics) *Lifecycle {
	if log == nil {
		log = NopLogger{}
	}
	return &Lifecycle{Logger: log, Metrics: m}
}

func (l *Lifecycle) Opened(kind string) {
	l.Metrics.HandleOpened(kind)
	l.Logger.Debug("handle opened", String("kind", kind))
}

func (l *Lifecycle) Released(kind string) {
	l.Metrics.HandleReleased(kind, false)
	l.Logger.Debug("handle released", String("kind", kind))
}

// ReleaseFailed logs at warn level; the error is not returned to anyone.
func (l *Lifecycle) ReleaseFailed(kind string, err error) {
	l.Metrics.HandleReleased(kind, true)
	l.Logger.Warn("native release failed", String("kind", kind), Error("error", err))
}

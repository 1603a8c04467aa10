package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors for handle lifetimes and page
// work. A nil *Metrics is valid and records nothing.
type Metrics struct {
	handlesOpen     *prometheus.GaugeVec
	handlesReleased *prometheus.CounterVec
	releaseFailures *prometheus.CounterVec
	documentsOpened *prometheus.CounterVec
	renderDuration  prometheus.Histogram
	ocrDuration     prometheus.Histogram
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		handlesOpen: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricHandlesOpen,
			Help: "Native handles currently open, by kind",
		}, []string{"kind"}),
		handlesReleased: factory.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHandlesReleased,
			Help: "Native handles released, by kind",
		}, []string{"kind"}),
		releaseFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: MetricReleaseFailures,
			Help: "Native release calls that reported an error, by kind",
		}, []string{"kind"}),
		documentsOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Name: MetricDocumentsOpened,
			Help: "Document open attempts, by result",
		}, []string{"result"}),
		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRenderDuration,
			Help:    "Time spent rendering a page region",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		ocrDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricOCRDuration,
			Help:    "Time spent recognizing a rendered page",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

func (m *Metrics) HandleOpened(kind string) {
	if m == nil {
		return
	}
	m.handlesOpen.WithLabelValues(kind).Inc()
}

// HandleReleased is called once per handle whether or not the native
// release succeeded.
func (m *Metrics) HandleReleased(kind string, failed bool) {
	if m == nil {
		return
	}
	m.handlesOpen.WithLabelValues(kind).Dec()
	if failed {
		m.releaseFailures.WithLabelValues(kind).Inc()
		return
	}
	m.handlesReleased.WithLabelValues(kind).Inc()
}

func (m *Metrics) DocumentOpened(result string) {
	if m == nil {
		return
	}
	m.documentsOpened.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveOCR(d time.Duration) {
	if m == nil {
		return
	}
	m.ocrDuration.Observe(d.Seconds())
}

package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, "test")
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("key", "value")
	span.SetError(nil)
	span.Finish()
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log := NewSlogLogger(base).With(String("doc", "a.pdf"))

	log.Debug("hidden")
	log.Info("opened", Int("pages", 3), Duration("took", time.Second))
	log.Warn("release failed", Error("error", errors.New("boom")))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %s", out)
	}
	for _, want := range []string{"doc=a.pdf", "pages=3", "took=1s", "error=boom", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLifecycleMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	lc := NewLifecycle(nil, m)

	lc.Opened("page")
	lc.Opened("page")
	lc.Released("page")
	lc.ReleaseFailed("page", errors.New("boom"))

	if got := testutil.ToFloat64(m.handlesOpen.WithLabelValues("page")); got != 0 {
		t.Fatalf("open gauge = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.handlesReleased.WithLabelValues("page")); got != 1 {
		t.Fatalf("released = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.releaseFailures.WithLabelValues("page")); got != 1 {
		t.Fatalf("failures = %v, want 1", got)
	}

	m.DocumentOpened("ok")
	m.ObserveRender(10 * time.Millisecond)
	got, err := testutil.GatherAndCount(reg, MetricRenderDuration)
	if err != nil || got != 1 {
		t.Fatalf("render histogram series = %d, %v", got, err)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.HandleOpened("page")
	m.HandleReleased("page", true)
	m.DocumentOpened("ok")
	m.ObserveRender(time.Second)
	m.ObserveOCR(time.Second)
}

package observability

import (
	"context"
	"time"
)

// Logger is the structured logger the library writes to. NopLogger is the
// default; NewSlogLogger bridges to log/slog.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is one key/value pair attached to a log line.
type Field struct {
	key   string
	value any
}

func (f Field) Key() string { return f.key }
func (f Field) Value() any  { return f.value }

func String(key, value string) Field                 { return Field{key, value} }
func Int(key string, value int) Field                { return Field{key, value} }
func Int64(key string, value int64) Field            { return Field{key, value} }
func Duration(key string, value time.Duration) Field { return Field{key, value} }
func Any(key string, value any) Field                { return Field{key, value} }

// Error records err under key; a nil error is logged as an empty value.
func Error(key string, err error) Field {
	if err == nil {
		return Field{key, ""}
	}
	return Field{key, err}
}

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Tracer provides tracing hooks for long running operations such as OCR.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a tracing span.
type Span interface {
	SetTag(key string, value any)
	SetError(err error)
	Finish()
}

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

// NopTracer returns a tracer that does nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopSpan struct{}

func (nopSpan) SetTag(string, any) {}
func (nopSpan) SetError(error)     {}
func (nopSpan) Finish()            {}

// Metric names exported by NewMetrics.
const (
	MetricHandlesOpen     = "pdfium_handles_open"
	MetricHandlesReleased = "pdfium_handles_released_total"
	MetricReleaseFailures = "pdfium_release_failures_total"
	MetricRenderDuration  = "pdfium_render_duration_seconds"
	MetricDocumentsOpened = "pdfium_documents_opened_total"
	MetricOCRDuration     = "pdfium_ocr_duration_seconds"
)

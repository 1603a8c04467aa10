package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/wudi/pdfium/bitmap"
	"github.com/wudi/pdfium/document"
	"github.com/wudi/pdfium/geometry"
	"github.com/wudi/pdfium/observability"
)

// DefaultDPI is the rendering resolution used when a Recognizer has none.
const DefaultDPI = 300

// maxPixels caps the area of a page rendered for recognition.
const maxPixels = 40_000_000

// Recognizer renders pages and runs an Engine over them. The zero value
// uses DefaultEngine at DefaultDPI.
type Recognizer struct {
	Engine    Engine
	DPI       int
	Languages []string
	Options   []InputOption

	Logger  observability.Logger
	Tracer  observability.Tracer
	Metrics *observability.Metrics
}

func (r *Recognizer) engine() Engine {
	if r.Engine != nil {
		return r.Engine
	}
	return DefaultEngine()
}

func (r *Recognizer) dpi() int {
	if r.DPI > 0 {
		return r.DPI
	}
	return DefaultDPI
}

func (r *Recognizer) logger() observability.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return observability.NopLogger{}
}

func (r *Recognizer) tracer() observability.Tracer {
	if r.Tracer != nil {
		return r.Tracer
	}
	return observability.NopTracer()
}

// RenderPage draws p upright at dpi on a white background. The returned
// viewport maps the bitmap back to page space.
func RenderPage(p *document.Page, dpi int) (*bitmap.RGBA, geometry.Viewport, error) {
	w, h := p.Size()
	scale := float64(dpi) / 72
	pw, ph := int(math.Ceil(w*scale)), int(math.Ceil(h*scale))
	if area := float64(pw) * float64(ph); area > maxPixels {
		f := math.Sqrt(maxPixels / area)
		pw, ph = int(float64(pw)*f), int(float64(ph)*f)
	}
	vp := geometry.Viewport{Width: pw, Height: ph}
	if pw <= 0 || ph <= 0 {
		return nil, vp, fmt.Errorf("page %d at %d dpi: %w", p.Index(), dpi, document.ErrDegenerateViewport)
	}
	buf := bitmap.NewRGBA(pw, ph)
	if err := p.Render(buf, 0, 0, pw, ph, document.RenderOptions{Printing: true}); err != nil {
		return nil, vp, err
	}
	return buf, vp, nil
}

// RecognizePage renders p and recognizes it. Word boxes are mapped back
// into page space.
func (r *Recognizer) RecognizePage(ctx context.Context, p *document.Page) (PageResult, error) {
	ctx, span := r.tracer().StartSpan(ctx, "ocr.page")
	defer span.Finish()
	span.SetTag("page", p.Index())

	res, err := r.recognize(ctx, p)
	if err != nil {
		span.SetError(err)
		return PageResult{}, err
	}
	span.SetTag("words", len(res.Words))
	return res, nil
}

func (r *Recognizer) recognize(ctx context.Context, p *document.Page) (PageResult, error) {
	if err := ctx.Err(); err != nil {
		return PageResult{}, err
	}
	start := time.Now()
	dpi := r.dpi()
	buf, vp, err := RenderPage(p, dpi)
	if err != nil {
		return PageResult{}, fmt.Errorf("render page %d: %w", p.Index(), err)
	}
	opts := append([]InputOption{WithDPI(dpi), WithLanguages(r.Languages...)}, r.Options...)
	in, err := InputFromImage(p.Index(), buf.Image(), opts...)
	if err != nil {
		return PageResult{}, err
	}
	eng := r.engine()
	res, err := eng.Recognize(ctx, in)
	if err != nil {
		return PageResult{}, fmt.Errorf("recognize page %d: %w", p.Index(), err)
	}

	var offset image.Point
	if in.Region != nil {
		offset = in.Region.Rect().Min
	}
	out := PageResult{Page: p.Index(), Text: res.PlainText, Engine: eng.Name()}
	var sum float64
	for _, b := range res.Blocks {
		for _, l := range b.Lines {
			for _, w := range l.Words {
				px := w.Bounds.Rect().Add(offset)
				bounds, err := p.RectToPage(vp, geometry.Rotate0, geometry.Rect{
					Left: px.Min.X, Top: px.Min.Y, Right: px.Max.X, Bottom: px.Max.Y,
				})
				if err != nil {
					return PageResult{}, err
				}
				out.Words = append(out.Words, PageWord{Text: w.Text, Bounds: bounds, Confidence: w.Confidence})
				sum += w.Confidence
			}
		}
	}
	if len(out.Words) > 0 {
		out.Confidence = sum / float64(len(out.Words))
	}

	elapsed := time.Since(start)
	r.Metrics.ObserveOCR(elapsed)
	r.logger().Debug("page recognized",
		observability.Int("page", p.Index()),
		observability.String("engine", eng.Name()),
		observability.Int("words", len(out.Words)),
		observability.Duration("took", elapsed))
	return out, nil
}

// Text returns the page's extractable text. Pages whose text cannot be
// extracted, or that have none, are recognized instead; the boolean
// reports which path produced the text.
func (r *Recognizer) Text(ctx context.Context, p *document.Page) (string, bool, error) {
	tp, err := p.OpenText()
	switch {
	case err == nil:
		defer tp.Close()
		n, err := tp.CharCount()
		if err != nil {
			return "", false, err
		}
		if n > 0 {
			s, err := tp.Text(0, n)
			return s, false, err
		}
	case errors.Is(err, document.ErrUnsupportedContent):
	default:
		return "", false, err
	}
	res, err := r.RecognizePage(ctx, p)
	if err != nil {
		return "", true, err
	}
	return res.Text, true, nil
}

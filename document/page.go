package document

import (
	"fmt"
	"time"

	"github.com/wudi/pdfium/bitmap"
	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/geometry"
	"github.com/wudi/pdfium/handle"
	"github.com/wudi/pdfium/observability"
)

// Page is an open page of a Document.
type Page struct {
	doc           *Document
	h             *handle.Handle[engine.PageID]
	index         int
	width, height float64
}

// Index returns the zero based page number.
func (p *Page) Index() int { return p.index }

// Size returns the intrinsic page size in page units.
func (p *Page) Size() (width, height float64) { return p.width, p.height }

func (p *Page) ids(op string) (engine.DocumentID, engine.PageID, error) {
	pid, err := p.h.Get()
	if err != nil {
		return 0, 0, opError(op, err)
	}
	did, err := p.doc.h.Get()
	if err != nil {
		return 0, 0, opError(op, err)
	}
	return did, pid, nil
}

// OpenText builds the text view of the page. It fails with
// ErrUnsupportedContent when the engine cannot extract text from the page.
func (p *Page) OpenText() (*TextPage, error) {
	_, pid, err := p.ids("OpenText")
	if err != nil {
		return nil, err
	}
	var (
		tid   engine.TextPageID
		count int
	)
	err = p.doc.call(func() error {
		var err error
		if tid, err = p.doc.eng.OpenTextPage(pid); err != nil {
			return err
		}
		if count, err = p.doc.eng.CharCount(tid); err != nil {
			_ = p.doc.eng.CloseTextPage(tid)
		}
		return err
	})
	if err != nil {
		return nil, opError("OpenText", err)
	}
	h, err := handle.NewChild(p.h, kindText, tid, func(id engine.TextPageID) error {
		return p.doc.call(func() error { return p.doc.eng.CloseTextPage(id) })
	})
	if err != nil {
		return nil, opError("OpenText", err)
	}
	return &TextPage{page: p, h: h, count: count}, nil
}

// Render draws the page scaled into the device rectangle (x, y, width,
// height) of buf. buf must be at least width by height pixels.
func (p *Page) Render(buf bitmap.Buffer, x, y, width, height int, opts RenderOptions) error {
	_, pid, err := p.ids("Render")
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return opError("Render", fmt.Errorf("%w: %dx%d", ErrDegenerateViewport, width, height))
	}
	if buf == nil {
		return opError("Render", fmt.Errorf("%w: nil buffer", ErrBufferTooSmall))
	}
	if err := bitmap.Validate(buf); err != nil {
		return opError("Render", fmt.Errorf("%w: %v", ErrBufferTooSmall, err))
	}
	if buf.Width() < width || buf.Height() < height {
		return opError("Render", fmt.Errorf("%w: %dx%d buffer for %dx%d", ErrBufferTooSmall, buf.Width(), buf.Height(), width, height))
	}
	req := engine.RenderRequest{
		Target:   buf,
		X:        x,
		Y:        y,
		Width:    width,
		Height:   height,
		Rotation: opts.Rotation.Normalize(),
		Flags:    opts.Flags(),
	}
	start := time.Now()
	err = p.doc.call(func() error { return p.doc.eng.RenderPage(pid, req) })
	elapsed := time.Since(start)
	if err != nil {
		return opError("Render", err)
	}
	p.doc.metrics.ObserveRender(elapsed)
	p.doc.log.Debug("page rendered",
		observability.Int("page", p.index),
		observability.String("flags", req.Flags.String()),
		observability.Duration("took", elapsed))
	return nil
}

// Links returns the page's link annotations in content order.
func (p *Page) Links() ([]Link, error) {
	did, pid, err := p.ids("Links")
	if err != nil {
		return nil, err
	}
	var infos []engine.LinkInfo
	err = p.doc.call(func() error {
		var err error
		infos, err = p.doc.eng.PageLinks(did, pid)
		return err
	})
	if err != nil {
		return nil, opError("Links", err)
	}
	out := make([]Link, 0, len(infos))
	for i, l := range infos {
		target := l.TargetPage
		if target < 0 || target >= p.doc.pageCount {
			target = NoTarget
		}
		out = append(out, Link{URI: l.URI, Index: i, Bounds: l.Bounds, TargetPage: target})
	}
	return out, nil
}

func (p *Page) alive(op string) error {
	if err := p.h.Err(); err != nil {
		return opError(op, err)
	}
	return nil
}

// ToDevice maps a page point into vp.
func (p *Page) ToDevice(vp geometry.Viewport, rot geometry.Rotation, pt geometry.PointF) (geometry.Point, error) {
	if err := p.alive("ToDevice"); err != nil {
		return geometry.Point{}, err
	}
	d, err := geometry.PageToDevice(vp, rot, p.width, p.height, pt)
	return d, opError("ToDevice", err)
}

// ToPage maps a device point in vp back to page space.
func (p *Page) ToPage(vp geometry.Viewport, rot geometry.Rotation, pt geometry.Point) (geometry.PointF, error) {
	if err := p.alive("ToPage"); err != nil {
		return geometry.PointF{}, err
	}
	r, err := geometry.DeviceToPage(vp, rot, p.width, p.height, pt)
	return r, opError("ToPage", err)
}

// RectToDevice maps the two corners of r independently; see
// geometry.RectToDevice.
func (p *Page) RectToDevice(vp geometry.Viewport, rot geometry.Rotation, r geometry.RectF) (geometry.Rect, error) {
	if err := p.alive("RectToDevice"); err != nil {
		return geometry.Rect{}, err
	}
	d, err := geometry.RectToDevice(vp, rot, p.width, p.height, r)
	return d, opError("RectToDevice", err)
}

func (p *Page) RectToPage(vp geometry.Viewport, rot geometry.Rotation, r geometry.Rect) (geometry.RectF, error) {
	if err := p.alive("RectToPage"); err != nil {
		return geometry.RectF{}, err
	}
	out, err := geometry.RectToPage(vp, rot, p.width, p.height, r)
	return out, opError("RectToPage", err)
}

// Close closes the page's text pages and search sessions, then the page.
func (p *Page) Close() { p.h.Close() }

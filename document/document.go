// Package document is the handle layer over a native PDF engine.
//
// A Document owns the pages opened from it, a Page owns its text pages and a
// TextPage owns its search sessions. Closing any of them closes everything
// below it first; every native resource is released exactly once. After
// Close, or once an owner has been closed, operations fail with
// ErrUseAfterClose or ErrParentClosed instead of reaching the engine.
//
// Every native call is made while holding a lock chosen by WithLockMode. A
// single handle must not be used from several goroutines at once, and a
// handle must not be closed while another goroutine is in the middle of a
// call on it.
package document

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/handle"
	"github.com/wudi/pdfium/observability"
)

const (
	kindDocument = "document"
	kindPage     = "page"
	kindText     = "text"
	kindSearch   = "search"
)

type pageDims struct {
	width, height float64
}

// Document is an open PDF document.
type Document struct {
	h       *handle.Handle[engine.DocumentID]
	eng     engine.Engine
	lock    sync.Locker
	log     observability.Logger
	metrics *observability.Metrics

	pageCount int
	sizes     *lru.Cache[int, pageDims]
}

// Open binds to src. The document does not take ownership of src; closing
// the document leaves src open.
func Open(eng engine.Engine, src engine.Source, opts ...Option) (*Document, error) {
	o := buildOptions(opts)
	if src == nil {
		return nil, opError("open", fmt.Errorf("nil source: %w", ErrIOFailure))
	}
	lock := o.locker()

	var (
		id engine.DocumentID
		n  int
	)
	err := withLock(lock, func() error {
		var err error
		if id, err = eng.OpenDocument(src, o.password); err != nil {
			return err
		}
		if n, err = eng.PageCount(id); err != nil {
			// Best effort; the open already failed.
			_ = eng.CloseDocument(id)
		}
		return err
	})
	if err != nil {
		o.metrics.DocumentOpened(openResult(err))
		o.logger.Debug("document open failed", observability.String("engine", eng.Name()), observability.Error("error", err))
		return nil, opError("open", err)
	}
	o.metrics.DocumentOpened("ok")

	d := &Document{
		eng:       eng,
		lock:      lock,
		log:       o.logger.With(observability.String("engine", eng.Name())),
		metrics:   o.metrics,
		pageCount: n,
	}
	if o.sizeCache > 0 {
		// New only fails for non-positive sizes.
		d.sizes, _ = lru.New[int, pageDims](o.sizeCache)
	}
	observer := observability.NewLifecycle(d.log, o.metrics)
	d.h = handle.NewRoot(kindDocument, id, func(id engine.DocumentID) error {
		return withLock(lock, func() error { return eng.CloseDocument(id) })
	}, handle.WithObserver(observer))
	d.log.Debug("document opened", observability.Int("pages", n), observability.String("lock", o.lockMode.String()))
	return d, nil
}

func openResult(err error) string {
	switch {
	case errors.Is(err, ErrPasswordRequired):
		return "password"
	case errors.Is(err, ErrIOFailure):
		return "io"
	}
	return "invalid"
}

func withLock(l sync.Locker, fn func() error) error {
	l.Lock()
	defer l.Unlock()
	return fn()
}

func (d *Document) call(fn func() error) error { return withLock(d.lock, fn) }

func (d *Document) id(op string) (engine.DocumentID, error) {
	id, err := d.h.Get()
	if err != nil {
		return 0, opError(op, err)
	}
	return id, nil
}

func (d *Document) checkIndex(op string, index int) error {
	if index < 0 || index >= d.pageCount {
		return opError(op, fmt.Errorf("%w: page %d of %d", ErrIndexOutOfRange, index, d.pageCount))
	}
	return nil
}

// PageCount returns the number of pages, fixed when the document was opened.
func (d *Document) PageCount() (int, error) {
	if _, err := d.id("PageCount"); err != nil {
		return 0, err
	}
	return d.pageCount, nil
}

func (d *Document) dims(op string, index int) (pageDims, error) {
	id, err := d.id(op)
	if err != nil {
		return pageDims{}, err
	}
	if err := d.checkIndex(op, index); err != nil {
		return pageDims{}, err
	}
	if d.sizes != nil {
		if v, ok := d.sizes.Get(index); ok {
			return v, nil
		}
	}
	var v pageDims
	err = d.call(func() error {
		var err error
		v.width, v.height, err = d.eng.PageSize(id, index)
		return err
	})
	if err != nil {
		return pageDims{}, opError(op, err)
	}
	if d.sizes != nil {
		d.sizes.Add(index, v)
	}
	return v, nil
}

// PageSize returns the size of page index in whole page units, truncating
// fractions.
func (d *Document) PageSize(index int) (Size, error) {
	v, err := d.dims("PageSize", index)
	if err != nil {
		return Size{}, err
	}
	return Size{Width: int(v.width), Height: int(v.height)}, nil
}

// OpenPage opens page index. The page must be closed by the caller or is
// closed together with the document.
func (d *Document) OpenPage(index int) (*Page, error) {
	v, err := d.dims("OpenPage", index)
	if err != nil {
		return nil, err
	}
	docID, err := d.id("OpenPage")
	if err != nil {
		return nil, err
	}
	var pid engine.PageID
	err = d.call(func() error {
		var err error
		pid, err = d.eng.OpenPage(docID, index)
		return err
	})
	if err != nil {
		return nil, opError("OpenPage", err)
	}
	h, err := handle.NewChild(d.h, kindPage, pid, func(id engine.PageID) error {
		return d.call(func() error { return d.eng.ClosePage(id) })
	})
	if err != nil {
		return nil, opError("OpenPage", err)
	}
	return &Page{doc: d, h: h, index: index, width: v.width, height: v.height}, nil
}

// Pages opens each page in turn, passes it to fn and closes it again. It
// stops at the first error.
func (d *Document) Pages(fn func(*Page) error) error {
	n, err := d.PageCount()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		p, err := d.OpenPage(i)
		if err != nil {
			return err
		}
		err = fn(p)
		p.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// Metadata returns the information entry for key, or "" when the document
// does not have it or key is not one of MetaKeys.
func (d *Document) Metadata(key MetaKey) (string, error) {
	id, err := d.id("Metadata")
	if err != nil {
		return "", err
	}
	if !key.known() {
		return "", nil
	}
	var s string
	err = d.call(func() error {
		var err error
		s, err = d.eng.Metadata(id, string(key))
		return err
	})
	return s, opError("Metadata", err)
}

// TableOfContents returns the outline flattened depth first. It is empty,
// not nil, for documents without an outline.
func (d *Document) TableOfContents() ([]Bookmark, error) {
	id, err := d.id("TableOfContents")
	if err != nil {
		return nil, err
	}
	var entries []engine.OutlineEntry
	err = d.call(func() error {
		var err error
		entries, err = d.eng.Outline(id)
		return err
	})
	if err != nil {
		return nil, opError("TableOfContents", err)
	}
	out := make([]Bookmark, 0, len(entries))
	for _, e := range entries {
		page := e.Page
		if page < 0 || page >= d.pageCount {
			page = NoTarget
		}
		out = append(out, Bookmark{Title: e.Title, Page: page, Level: e.Level})
	}
	return out, nil
}

// FormatVersion returns the file version as major*10+minor, e.g. 17.
func (d *Document) FormatVersion() (int, error) {
	id, err := d.id("FormatVersion")
	if err != nil {
		return 0, err
	}
	var v int
	err = d.call(func() error {
		var err error
		v, err = d.eng.FormatVersion(id)
		return err
	})
	return v, opError("FormatVersion", err)
}

// Close closes every open page, text page and search session of the
// document and then the document itself. It is safe to call repeatedly.
func (d *Document) Close() {
	if d.h.State() == handle.StateOpen {
		d.log.Debug("document closing", observability.Int("open_pages", d.h.Live()))
	}
	d.h.Close()
}

// Package memengine is an in-memory engine serving YAML document fixtures.
//
// It lays text out on a fixed grid so hit-testing, character boxes, search
// and rendering behave like a real engine, and it counts every call and
// release so tests can check resource handling.
package memengine

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wudi/pdfium/bitmap"
	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/geometry"
	"github.com/wudi/pdfium/textsearch"
)

// Resource kinds used by the counters.
const (
	KindDocument = "document"
	KindPage     = "page"
	KindText     = "text"
	KindSearch   = "search"
)

var (
	paperColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	inkColor   = color.RGBA{A: 0xff}
	linkColor  = color.RGBA{R: 0xcc, G: 0xdd, B: 0xff, A: 0xff}
	grayLink   = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
)

// Release records one release call.
type Release struct {
	Kind string
	ID   uintptr
}

type docState struct {
	fixture *Fixture
}

type pageState struct {
	doc    engine.DocumentID
	index  int
	page   Page
	glyphs []glyph
}

type textState struct {
	page   engine.PageID
	glyphs []glyph
	runes  []rune
}

type searchState struct {
	text   engine.TextPageID
	cursor *textsearch.Cursor
}

// Option configures an Engine.
type Option func(*Engine)

// WithCallDelay makes every call sleep before taking the engine's internal
// lock, widening the window in which overlapping calls are observed.
func WithCallDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// Engine implements engine.Engine. It is safe for concurrent use.
type Engine struct {
	delay    time.Duration
	inflight atomic.Int32
	overlaps atomic.Int64

	mu         sync.Mutex
	nextID     uintptr
	issued     map[uintptr]string
	docs       map[engine.DocumentID]*docState
	pages      map[engine.PageID]*pageState
	texts      map[engine.TextPageID]*textState
	searches   map[engine.SearchID]*searchState
	calls      map[string]int
	releases   map[string]int
	doubles    int
	violations int
	log        []Release
	failures   map[string]error
	lastRender *engine.RenderRequest
}

var _ engine.Engine = (*Engine)(nil)

func New(opts ...Option) *Engine {
	e := &Engine{
		issued:   make(map[uintptr]string),
		docs:     make(map[engine.DocumentID]*docState),
		pages:    make(map[engine.PageID]*pageState),
		texts:    make(map[engine.TextPageID]*textState),
		searches: make(map[engine.SearchID]*searchState),
		calls:    make(map[string]int),
		releases: make(map[string]int),
		failures: make(map[string]error),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string { return "memory" }

func (e *Engine) enter(op string) func() {
	if e.inflight.Add(1) > 1 {
		e.overlaps.Add(1)
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	e.mu.Lock()
	e.calls[op]++
	return func() {
		e.mu.Unlock()
		e.inflight.Add(-1)
	}
}

func (e *Engine) issue(kind string) uintptr {
	e.nextID++
	e.issued[e.nextID] = kind
	return e.nextID
}

func lookup[K ~uintptr, V any](m map[K]V, kind string, id K) (V, error) {
	v, ok := m[id]
	if !ok {
		var zero V
		return zero, fmt.Errorf("memengine: unknown %s %d", kind, id)
	}
	return v, nil
}

func release[K ~uintptr, V any](e *Engine, m map[K]V, kind string, id K) error {
	if _, ok := m[id]; !ok {
		if e.issued[uintptr(id)] == kind {
			e.doubles++
			return fmt.Errorf("memengine: %s %d released twice", kind, id)
		}
		return fmt.Errorf("memengine: unknown %s %d", kind, id)
	}
	delete(m, id)
	e.releases[kind]++
	e.log = append(e.log, Release{Kind: kind, ID: uintptr(id)})
	return e.failures[kind]
}

// OpenDocument reads the whole source and decodes it as a fixture.
func (e *Engine) OpenDocument(src engine.Source, password string) (engine.DocumentID, error) {
	defer e.enter("open_document")()
	size := src.Size()
	if size <= 0 {
		return 0, fmt.Errorf("file is empty: %w", engine.ErrIOFailure)
	}
	data, err := io.ReadAll(io.NewSectionReader(src, 0, size))
	if err != nil {
		return 0, fmt.Errorf("read source: %w: %w", engine.ErrIOFailure, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", engine.CodeFormat.Err("open document"), err)
	}
	if f.Password != "" && f.Password != password {
		return 0, engine.CodePassword.Err("open document")
	}
	id := engine.DocumentID(e.issue(KindDocument))
	e.docs[id] = &docState{fixture: f}
	return id, nil
}

func (e *Engine) CloseDocument(doc engine.DocumentID) error {
	defer e.enter("close_document")()
	for _, p := range e.pages {
		if p.doc == doc {
			e.violations++
		}
	}
	return release(e, e.docs, KindDocument, doc)
}

func (e *Engine) PageCount(doc engine.DocumentID) (int, error) {
	defer e.enter("page_count")()
	d, err := lookup(e.docs, KindDocument, doc)
	if err != nil {
		return 0, err
	}
	return len(d.fixture.Pages), nil
}

func (e *Engine) PageSize(doc engine.DocumentID, index int) (float64, float64, error) {
	defer e.enter("page_size")()
	d, err := lookup(e.docs, KindDocument, doc)
	if err != nil {
		return 0, 0, err
	}
	if index < 0 || index >= len(d.fixture.Pages) {
		return 0, 0, engine.CodePage.Err("page size")
	}
	p := d.fixture.Pages[index]
	return p.Width, p.Height, nil
}

func (e *Engine) FormatVersion(doc engine.DocumentID) (int, error) {
	defer e.enter("format_version")()
	d, err := lookup(e.docs, KindDocument, doc)
	if err != nil {
		return 0, err
	}
	return d.fixture.Version, nil
}

func (e *Engine) Metadata(doc engine.DocumentID, tag string) (string, error) {
	defer e.enter("metadata")()
	d, err := lookup(e.docs, KindDocument, doc)
	if err != nil {
		return "", err
	}
	return d.fixture.Metadata[tag], nil
}

func (e *Engine) Outline(doc engine.DocumentID) ([]engine.OutlineEntry, error) {
	defer e.enter("outline")()
	d, err := lookup(e.docs, KindDocument, doc)
	if err != nil {
		return nil, err
	}
	return flattenOutline(d.fixture.Outline, 0, len(d.fixture.Pages), nil), nil
}

func (e *Engine) OpenPage(doc engine.DocumentID, index int) (engine.PageID, error) {
	defer e.enter("open_page")()
	d, err := lookup(e.docs, KindDocument, doc)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(d.fixture.Pages) {
		return 0, engine.CodePage.Err("open page")
	}
	p := d.fixture.Pages[index]
	id := engine.PageID(e.issue(KindPage))
	e.pages[id] = &pageState{doc: doc, index: index, page: p, glyphs: layout(p)}
	return id, nil
}

func (e *Engine) ClosePage(page engine.PageID) error {
	defer e.enter("close_page")()
	for _, t := range e.texts {
		if t.page == page {
			e.violations++
		}
	}
	return release(e, e.pages, KindPage, page)
}

// RenderPage paints the paper, optionally the link areas, and a solid box
// for every visible character.
func (e *Engine) RenderPage(page engine.PageID, req engine.RenderRequest) error {
	defer e.enter("render_page")()
	p, err := lookup(e.pages, KindPage, page)
	if err != nil {
		return err
	}
	if req.Target == nil {
		return fmt.Errorf("memengine: render without target: %w", engine.ErrBufferTooSmall)
	}
	if err := bitmap.Validate(req.Target); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrBufferTooSmall, err)
	}
	vp := geometry.Viewport{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height}
	w, h := p.page.Width, p.page.Height

	if err := bitmap.Fill(req.Target, image.Rect(req.X, req.Y, req.X+req.Width, req.Y+req.Height), paperColor); err != nil {
		return err
	}
	fill := func(r geometry.RectF, c color.Color) error {
		d, err := geometry.RectToDevice(vp, req.Rotation, w, h, r)
		if err != nil {
			return err
		}
		return bitmap.Fill(req.Target, image.Rect(d.Left, d.Top, d.Right, d.Bottom), c)
	}
	if req.Flags.Has(engine.RenderAnnotations) {
		c := linkColor
		if req.Flags.Has(engine.RenderGrayscale) {
			c = grayLink
		}
		for _, l := range p.page.Links {
			if err := fill(linkRect(l), c); err != nil {
				return err
			}
		}
	}
	for _, g := range p.glyphs {
		if g.r == ' ' || g.r == '\n' || g.r == '\t' {
			continue
		}
		if err := fill(g.box, inkColor); err != nil {
			return err
		}
	}
	r := req
	e.lastRender = &r
	return nil
}

func linkRect(l Link) geometry.RectF {
	return geometry.RectF{Left: l.Rect[0], Top: l.Rect[1], Right: l.Rect[2], Bottom: l.Rect[3]}
}

func (e *Engine) PageLinks(doc engine.DocumentID, page engine.PageID) ([]engine.LinkInfo, error) {
	defer e.enter("page_links")()
	d, err := lookup(e.docs, KindDocument, doc)
	if err != nil {
		return nil, err
	}
	p, err := lookup(e.pages, KindPage, page)
	if err != nil {
		return nil, err
	}
	out := make([]engine.LinkInfo, 0, len(p.page.Links))
	for _, l := range p.page.Links {
		info := engine.LinkInfo{URI: l.URI, Bounds: linkRect(l), TargetPage: -1}
		if l.Page != nil && *l.Page >= 0 && *l.Page < len(d.fixture.Pages) {
			info.TargetPage = *l.Page
		}
		out = append(out, info)
	}
	return out, nil
}

func (e *Engine) OpenTextPage(page engine.PageID) (engine.TextPageID, error) {
	defer e.enter("open_text_page")()
	p, err := lookup(e.pages, KindPage, page)
	if err != nil {
		return 0, err
	}
	if p.page.UnsupportedText {
		return 0, fmt.Errorf("page %d: %w", p.index, engine.ErrUnsupportedContent)
	}
	runes := make([]rune, len(p.glyphs))
	for i, g := range p.glyphs {
		runes[i] = g.r
	}
	id := engine.TextPageID(e.issue(KindText))
	e.texts[id] = &textState{page: page, glyphs: p.glyphs, runes: runes}
	return id, nil
}

func (e *Engine) CloseTextPage(text engine.TextPageID) error {
	defer e.enter("close_text_page")()
	for _, s := range e.searches {
		if s.text == text {
			e.violations++
		}
	}
	return release(e, e.texts, KindText, text)
}

func (e *Engine) CharCount(text engine.TextPageID) (int, error) {
	defer e.enter("char_count")()
	t, err := lookup(e.texts, KindText, text)
	if err != nil {
		return 0, err
	}
	return len(t.runes), nil
}

// CharIndexAt prefers a box containing the point and falls back to boxes
// grown by the tolerance.
func (e *Engine) CharIndexAt(text engine.TextPageID, x, y, tolX, tolY float64) (int, error) {
	defer e.enter("char_index_at")()
	t, err := lookup(e.texts, KindText, text)
	if err != nil {
		return 0, err
	}
	pt := geometry.PointF{X: x, Y: y}
	for i, g := range t.glyphs {
		if g.box.Width() > 0 && g.box.Contains(pt) {
			return i, nil
		}
	}
	for i, g := range t.glyphs {
		if g.box.Width() == 0 {
			continue
		}
		grown := geometry.RectF{
			Left:   g.box.Left - tolX,
			Right:  g.box.Right + tolX,
			Top:    g.box.Top + tolY,
			Bottom: g.box.Bottom - tolY,
		}
		if grown.Contains(pt) {
			return i, nil
		}
	}
	return -1, nil
}

func checkRange(t *textState, start, count int) error {
	if start < 0 || count < 0 || start+count > len(t.runes) {
		return fmt.Errorf("memengine: range [%d,+%d) outside %d characters", start, count, len(t.runes))
	}
	return nil
}

func (e *Engine) TextRange(text engine.TextPageID, start, count int) (string, error) {
	defer e.enter("text_range")()
	t, err := lookup(e.texts, KindText, text)
	if err != nil {
		return "", err
	}
	if err := checkRange(t, start, count); err != nil {
		return "", err
	}
	return string(t.runes[start : start+count]), nil
}

// CharRects merges the boxes of consecutive characters on the same line.
func (e *Engine) CharRects(text engine.TextPageID, start, count int) ([]geometry.RectF, error) {
	defer e.enter("char_rects")()
	t, err := lookup(e.texts, KindText, text)
	if err != nil {
		return nil, err
	}
	if err := checkRange(t, start, count); err != nil {
		return nil, err
	}
	var out []geometry.RectF
	line := -1
	for _, g := range t.glyphs[start : start+count] {
		if g.r == '\n' {
			line = -1
			continue
		}
		if g.line == line && len(out) > 0 {
			out[len(out)-1] = out[len(out)-1].Union(g.box)
			continue
		}
		line = g.line
		out = append(out, g.box)
	}
	return out, nil
}

func (e *Engine) StartSearch(text engine.TextPageID, needle string, flags engine.SearchFlags, start int) (engine.SearchID, error) {
	defer e.enter("start_search")()
	t, err := lookup(e.texts, KindText, text)
	if err != nil {
		return 0, err
	}
	matches := textsearch.FindAll(t.runes, needle, textsearch.Options{
		MatchCase:   flags.Has(engine.MatchCase),
		WholeWord:   flags.Has(engine.MatchWholeWord),
		Consecutive: flags.Has(engine.MatchConsecutive),
	})
	id := engine.SearchID(e.issue(KindSearch))
	e.searches[id] = &searchState{text: text, cursor: textsearch.NewCursor(matches, start)}
	return id, nil
}

func (e *Engine) SearchNext(search engine.SearchID) (bool, error) {
	defer e.enter("search_next")()
	s, err := lookup(e.searches, KindSearch, search)
	if err != nil {
		return false, err
	}
	return s.cursor.Next(), nil
}

func (e *Engine) SearchPrev(search engine.SearchID) (bool, error) {
	defer e.enter("search_prev")()
	s, err := lookup(e.searches, KindSearch, search)
	if err != nil {
		return false, err
	}
	return s.cursor.Prev(), nil
}

func (e *Engine) SearchResult(search engine.SearchID) (int, int, error) {
	defer e.enter("search_result")()
	s, err := lookup(e.searches, KindSearch, search)
	if err != nil {
		return 0, 0, err
	}
	m, ok := s.cursor.Current()
	if !ok {
		return 0, 0, nil
	}
	return m.Start, m.Count, nil
}

func (e *Engine) CloseSearch(search engine.SearchID) error {
	defer e.enter("close_search")()
	return release(e, e.searches, KindSearch, search)
}

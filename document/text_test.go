package document

import (
	"errors"
	"image/color"
	"testing"

	"github.com/wudi/pdfium/bitmap"
	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/engine/memengine"
	"github.com/wudi/pdfium/geometry"
)

func catText(t *testing.T) (*memengine.Engine, *Document, *TextPage) {
	t.Helper()
	eng := memengine.New()
	doc := open(t, eng, catFixture())
	t.Cleanup(doc.Close)
	p, err := doc.OpenPage(0)
	if err != nil {
		t.Fatalf("OpenPage() error = %v", err)
	}
	tp, err := p.OpenText()
	if err != nil {
		t.Fatalf("OpenText() error = %v", err)
	}
	return eng, doc, tp
}

func TestTextAccess(t *testing.T) {
	_, _, tp := catText(t)

	n, err := tp.CharCount()
	if err != nil || n != 12 {
		t.Fatalf("CharCount() = %d, %v, want 12", n, err)
	}
	if s, err := tp.Text(4, 3); err != nil || s != "Cat" {
		t.Fatalf("Text(4, 3) = %q, %v", s, err)
	}
	if s, err := tp.Text(12, 0); err != nil || s != "" {
		t.Fatalf("Text(12, 0) = %q, %v", s, err)
	}
	for _, r := range [][2]int{{-1, 1}, {10, 3}, {0, 13}, {2, -1}} {
		if _, err := tp.Text(r[0], r[1]); !errors.Is(err, ErrRangeOutOfBounds) {
			t.Fatalf("Text(%d, %d) error = %v, want ErrRangeOutOfBounds", r[0], r[1], err)
		}
		if _, err := tp.Bounds(r[0], r[1]); !errors.Is(err, ErrRangeOutOfBounds) {
			t.Fatalf("Bounds(%d, %d) error = %v, want ErrRangeOutOfBounds", r[0], r[1], err)
		}
	}

	rects, err := tp.Bounds(4, 3)
	if err != nil || len(rects) != 1 {
		t.Fatalf("Bounds(4, 3) = %v, %v", rects, err)
	}
	want := geometry.RectF{Left: 100.8, Top: 128, Right: 122.4, Bottom: 116}
	r := rects[0]
	if !near(r.Left, want.Left) || !near(r.Right, want.Right) || r.Top != want.Top || r.Bottom != want.Bottom {
		t.Fatalf("Bounds(4, 3) = %+v, want %+v", r, want)
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestCharIndexAt(t *testing.T) {
	_, _, tp := catText(t)
	tests := []struct {
		name string
		x, y float64
		want int
	}{
		{"inside C", 104, 122, 4},
		{"inside T", 75, 120, 0},
		{"within tolerance left of T", 71.5, 120, 0},
		{"far away", 10, 10, NoCharacter},
	}
	for _, tt := range tests {
		got, err := tp.CharIndexAt(tt.x, tt.y)
		if err != nil || got != tt.want {
			t.Fatalf("%s: CharIndexAt(%g, %g) = %d, %v, want %d", tt.name, tt.x, tt.y, got, err, tt.want)
		}
	}
	if got, _ := tp.CharIndexAtTolerance(71.5, 120, 0, 0); got != NoCharacter {
		t.Fatalf("zero tolerance hit %d", got)
	}
}

func TestUnsupportedText(t *testing.T) {
	eng := memengine.New()
	doc := open(t, eng, catFixture())
	defer doc.Close()
	p, _ := doc.OpenPage(1)
	if _, err := p.OpenText(); !errors.Is(err, ErrUnsupportedContent) {
		t.Fatalf("OpenText() error = %v, want ErrUnsupportedContent", err)
	}
	if eng.Live(memengine.KindText) != 0 {
		t.Fatalf("failed OpenText leaked a text page")
	}
}

func TestSearchCat(t *testing.T) {
	_, _, tp := catText(t)
	s, err := tp.Search("cat", SearchFlags{}, 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if s.State() != StateBeforeAll {
		t.Fatalf("initial State() = %v", s.State())
	}
	if _, err := s.Result(); !errors.Is(err, ErrNoCurrentMatch) {
		t.Fatalf("Result() before a match error = %v", err)
	}
	ok, err := s.Next()
	if err != nil || !ok {
		t.Fatalf("Next() = %v, %v", ok, err)
	}
	if r, err := s.Result(); err != nil || r != (SearchResult{Start: 4, Count: 3}) {
		t.Fatalf("Result() = %+v, %v", r, err)
	}
	if ok, _ := s.Next(); ok {
		t.Fatalf("second Next() found a match")
	}
	if s.State() != StateAfterAll {
		t.Fatalf("State() = %v, want after-all", s.State())
	}
	if r, err := s.Result(); !errors.Is(err, ErrNoCurrentMatch) || r != (SearchResult{}) {
		t.Fatalf("Result() after the last match = %+v, %v", r, err)
	}
	if ok, _ := s.Next(); ok {
		t.Fatalf("Next() wrapped around")
	}
	ok, _ = s.Prev()
	if r, _ := s.Result(); !ok || r.Start != 4 {
		t.Fatalf("Prev() from after-all = %v, %+v", ok, r)
	}

	cased, _ := tp.Search("cat", SearchFlags{MatchCase: true}, 0)
	if ok, _ := cased.Next(); ok {
		t.Fatalf("case sensitive search matched Cat")
	}
}

func TestSearchSymmetry(t *testing.T) {
	_, _, tp := catText(t)
	s, _ := tp.Search("at", SearchFlags{}, 0)

	var starts []int
	for {
		ok, err := s.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if !ok {
			break
		}
		r, _ := s.Result()
		starts = append(starts, r.Start)
	}
	if len(starts) != 2 || starts[0] != 5 || starts[1] != 9 {
		t.Fatalf("matches = %v, want [5 9]", starts)
	}

	s2, _ := tp.Search("at", SearchFlags{}, 0)
	s2.Next()
	s2.Next()
	s2.Prev()
	if r, _ := s2.Result(); r.Start != 5 {
		t.Fatalf("Next, Next, Prev landed on %d", r.Start)
	}
	s2.Next()
	if r, _ := s2.Result(); r.Start != 9 {
		t.Fatalf("Prev, Next landed on %d", r.Start)
	}
	if ok, _ := s2.Prev(); !ok {
		t.Fatalf("Prev() from the last match failed")
	}
	if ok, _ := s2.Prev(); ok || s2.State() != StateBeforeAll {
		t.Fatalf("Prev() past the first match = %v, state %v", ok, s2.State())
	}
	if ok, _ := s2.Prev(); ok {
		t.Fatalf("Prev() wrapped around")
	}
}

func TestSearchFromEnd(t *testing.T) {
	eng, _, tp := catText(t)
	s, err := tp.Search("at", SearchFlags{}, SearchFromEnd)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if s.State() != StateAfterAll {
		t.Fatalf("State() = %v", s.State())
	}
	if ok, _ := s.Next(); ok {
		t.Fatalf("Next() from the end found a match")
	}
	if eng.Calls("search_next") != 0 {
		t.Fatalf("Next() from the end reached the engine")
	}
	ok, _ := s.Prev()
	if r, _ := s.Result(); !ok || r.Start != 9 {
		t.Fatalf("Prev() from the end = %v, %+v", ok, r)
	}

	mid, _ := tp.Search("at", SearchFlags{}, 7)
	if mid.State() != StateStart {
		t.Fatalf("State() = %v, want start", mid.State())
	}
	mid.Prev()
	if r, _ := mid.Result(); r.Start != 5 {
		t.Fatalf("Prev() from 7 landed on %d", r.Start)
	}
}

func TestSearchExhausted(t *testing.T) {
	_, _, tp := catText(t)

	s, _ := tp.Search("dog", SearchFlags{}, 0)
	if ok, _ := s.Next(); ok {
		t.Fatalf("found dog")
	}
	if s.State() != StateExhausted {
		t.Fatalf("State() = %v, want exhausted", s.State())
	}

	mid, _ := tp.Search("dog", SearchFlags{}, 6)
	mid.Next()
	if mid.State() != StateAfterAll {
		t.Fatalf("State() = %v, want after-all", mid.State())
	}
	mid.Prev()
	if mid.State() != StateExhausted {
		t.Fatalf("State() = %v, want exhausted", mid.State())
	}
	if ok, _ := mid.Next(); ok {
		t.Fatalf("exhausted session found a match")
	}

	empty, _ := tp.Search("", SearchFlags{}, 3)
	if empty.State() != StateExhausted {
		t.Fatalf("empty needle State() = %v", empty.State())
	}
}

func TestSearchStartValidation(t *testing.T) {
	_, _, tp := catText(t)
	for _, start := range []int{-2, 13} {
		if _, err := tp.Search("cat", SearchFlags{}, start); !errors.Is(err, ErrRangeOutOfBounds) {
			t.Fatalf("Search(start=%d) error = %v", start, err)
		}
	}
	s, err := tp.Search("cat", SearchFlags{}, 12)
	if err != nil || s.State() != StateAfterAll {
		t.Fatalf("Search(start=count) = %v, %v", s, err)
	}
	if s.Needle() != "cat" || s.Start() != 12 || s.Flags() != (SearchFlags{}) {
		t.Fatalf("session accessors: %q %d %+v", s.Needle(), s.Start(), s.Flags())
	}
}

func TestSearchClose(t *testing.T) {
	eng, _, tp := catText(t)
	s, _ := tp.Search("cat", SearchFlags{}, 0)
	tp.Close()
	if _, err := s.Next(); !errors.Is(err, ErrParentClosed) {
		t.Fatalf("Next() after text close error = %v", err)
	}
	if eng.Live(memengine.KindSearch) != 0 || eng.OrderViolations() != 0 {
		t.Fatalf("search not released before its text page")
	}
}

func TestLinks(t *testing.T) {
	eng := memengine.New()
	doc := open(t, eng, threePages())
	defer doc.Close()
	p, _ := doc.OpenPage(0)

	links, err := p.Links()
	if err != nil || len(links) != 3 {
		t.Fatalf("Links() = %+v, %v", links, err)
	}
	if links[0].URI != "https://example.com/" || links[0].TargetPage != NoTarget {
		t.Fatalf("link 0 = %+v", links[0])
	}
	if links[1].URI != "" || links[1].TargetPage != 2 || links[1].Index != 1 {
		t.Fatalf("link 1 = %+v", links[1])
	}
	if links[2].TargetPage != NoTarget {
		t.Fatalf("out of range target = %d", links[2].TargetPage)
	}
	if links[0].Bounds != (geometry.RectF{Left: 72, Top: 720, Right: 132, Bottom: 708}) {
		t.Fatalf("link 0 bounds = %+v", links[0].Bounds)
	}

	empty, _ := doc.OpenPage(1)
	if links, err := empty.Links(); err != nil || len(links) != 0 {
		t.Fatalf("Links() on a page without links = %v, %v", links, err)
	}
}

func TestRender(t *testing.T) {
	eng := memengine.New()
	doc := open(t, eng, catFixture())
	defer doc.Close()
	p, _ := doc.OpenPage(0)

	buf := bitmap.NewRGBA(300, 200)
	opts := RenderOptions{Annotations: true, Grayscale: true, Extra: 1 << 20}
	if err := p.Render(buf, 0, 0, 300, 200, opts); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := buf.At(75, 78); got != (color.RGBA{A: 0xff}) {
		t.Fatalf("glyph pixel = %v, want black", got)
	}
	if got := buf.At(5, 5); got != (color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Fatalf("margin pixel = %v, want white", got)
	}
	req, ok := eng.LastRender()
	if !ok {
		t.Fatalf("render not recorded")
	}
	if want := engine.RenderAnnotations | engine.RenderGrayscale | 1<<20; req.Flags != want {
		t.Fatalf("flags = %v, want %v", req.Flags, want)
	}

	rgb := bitmap.NewRGB565(300, 200)
	if err := p.Render(rgb, 0, 0, 300, 200, RenderOptions{Rotation: 5}); err != nil {
		t.Fatalf("Render() RGB565 error = %v", err)
	}
	if req, _ := eng.LastRender(); req.Rotation != geometry.Rotate90 {
		t.Fatalf("rotation = %v, want normalized 90", req.Rotation)
	}
}

func TestRenderRejectsBadTargets(t *testing.T) {
	eng := memengine.New()
	doc := open(t, eng, catFixture())
	defer doc.Close()
	p, _ := doc.OpenPage(0)

	small := bitmap.NewRGBA(100, 100)
	tests := []struct {
		name string
		buf  bitmap.Buffer
		w, h int
		want error
	}{
		{"too small", small, 300, 200, ErrBufferTooSmall},
		{"nil", nil, 10, 10, ErrBufferTooSmall},
		{"short pixels", bitmap.WrapRGB565(make([]byte, 10), 10, 10, 20), 10, 10, ErrBufferTooSmall},
		{"zero width", small, 0, 10, ErrDegenerateViewport},
		{"negative height", small, 10, -1, ErrDegenerateViewport},
	}
	for _, tt := range tests {
		if err := p.Render(tt.buf, 0, 0, tt.w, tt.h, RenderOptions{}); !errors.Is(err, tt.want) {
			t.Fatalf("%s: Render() error = %v, want %v", tt.name, err, tt.want)
		}
	}
	if eng.Calls("render_page") != 0 {
		t.Fatalf("rejected renders reached the engine")
	}
}

func TestRenderOptionsFlags(t *testing.T) {
	flags := []engine.RenderFlags{
		0,
		engine.RenderAnnotations,
		engine.RenderLCDText | engine.RenderNoSmoothPath,
		engine.RenderKnown,
		engine.RenderPrinting | 1<<30,
	}
	for _, f := range flags {
		if got := OptionsFromFlags(f).Flags(); got != f {
			t.Fatalf("OptionsFromFlags(%v).Flags() = %v", f, got)
		}
	}
	o := OptionsFromFlags(engine.RenderGrayscale | 1<<30)
	if !o.Grayscale || o.Annotations || o.Extra != 1<<30 {
		t.Fatalf("OptionsFromFlags() = %+v", o)
	}
	o.Grayscale = false
	o.Extra |= engine.RenderGrayscale
	if o.Flags().Has(engine.RenderGrayscale) {
		t.Fatalf("a false field must win over the same bit in Extra")
	}
}

func TestCoordinateMapping(t *testing.T) {
	eng := memengine.New()
	doc := open(t, eng, catFixture())
	defer doc.Close()
	p, _ := doc.OpenPage(0)
	vp := geometry.Viewport{Width: 600, Height: 400}

	d, err := p.ToDevice(vp, geometry.Rotate0, geometry.PointF{X: 150, Y: 100})
	if err != nil || d != (geometry.Point{X: 300, Y: 200}) {
		t.Fatalf("ToDevice() = %v, %v", d, err)
	}
	back, err := p.ToPage(vp, geometry.Rotate0, d)
	if err != nil || back != (geometry.PointF{X: 150, Y: 100}) {
		t.Fatalf("ToPage() = %v, %v", back, err)
	}
	if _, err := p.ToDevice(geometry.Viewport{}, geometry.Rotate0, geometry.PointF{}); !errors.Is(err, ErrDegenerateViewport) {
		t.Fatalf("ToDevice() degenerate error = %v", err)
	}
	r, err := p.RectToDevice(vp, geometry.Rotate0, geometry.RectF{Left: 0, Top: 200, Right: 300, Bottom: 0})
	if err != nil || r != (geometry.Rect{Left: 0, Top: 0, Right: 600, Bottom: 400}) {
		t.Fatalf("RectToDevice() = %v, %v", r, err)
	}
	rf, err := p.RectToPage(vp, geometry.Rotate0, r)
	if err != nil || rf != (geometry.RectF{Left: 0, Top: 200, Right: 300, Bottom: 0}) {
		t.Fatalf("RectToPage() = %v, %v", rf, err)
	}

	p.Close()
	if _, err := p.ToPage(vp, geometry.Rotate0, d); !errors.Is(err, ErrUseAfterClose) {
		t.Fatalf("ToPage() after close error = %v", err)
	}
}

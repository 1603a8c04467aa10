package main

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/engine/memengine"
	"github.com/wudi/pdfium/ocr"
)

func fixture() memengine.Fixture {
	return memengine.Fixture{
		Version:  17,
		Metadata: map[string]string{"Title": "Cat Book", "Author": "Jane Roe"},
		Outline: []memengine.Bookmark{
			{Title: "Start", Page: memengine.Target(0), Children: []memengine.Bookmark{
				{Title: "Details", Page: memengine.Target(1)},
			}},
			{Title: "Nowhere"},
		},
		Pages: []memengine.Page{
			{
				Width: 300, Height: 200, Text: "The Cat sat.",
				Links: []memengine.Link{
					{URI: "https://example.com/", Rect: [4]float64{72, 180, 132, 168}},
					{Page: memengine.Target(1), Rect: [4]float64{72, 160, 132, 148}},
				},
			},
			{Width: 300, Height: 200, UnsupportedText: true},
		},
	}
}

type harness struct {
	fs  afero.Fs
	eng *memengine.Engine
	ocr ocr.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{fs: afero.NewMemMapFs(), eng: memengine.New()}
	if err := afero.WriteFile(h.fs, "cat.yaml", fixture().Encode(), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return h
}

func (h *harness) run(args ...string) (string, error) {
	rt := &runtime{
		fs: h.fs,
		newEngine: func(backend string) (engine.Engine, error) {
			if backend == "memory" {
				return h.eng, nil
			}
			return newEngine(backend)
		},
		environ:   map[string]string{"PDFIUM_ENGINE_BACKEND": "memory"},
		ocrEngine: h.ocr,
	}
	app := newApp(rt)
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"pdfium"}, args...))
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(args...)
	if err != nil {
		t.Fatalf("pdfium %s: %v", strings.Join(args, " "), err)
	}
	if live := h.eng.Live(memengine.KindDocument) + h.eng.Live(memengine.KindPage) + h.eng.Live(memengine.KindText); live != 0 {
		t.Fatalf("pdfium %s leaked %d handles", strings.Join(args, " "), live)
	}
	return out
}

func TestInfo(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(t, "info", "cat.yaml")
	for _, want := range []string{"cat.yaml", "memory", "1.7", "Cat Book", "Jane Roe", "300x200 pt"} {
		if !strings.Contains(out, want) {
			t.Fatalf("info output misses %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Subject") {
		t.Fatalf("info printed an empty metadata entry:\n%s", out)
	}
}

func TestTOC(t *testing.T) {
	h := newHarness(t)
	if got, want := h.mustRun(t, "toc", "cat.yaml"), "Start .... 1\n  Details .... 2\nNowhere\n"; got != want {
		t.Fatalf("toc = %q, want %q", got, want)
	}
	md := h.mustRun(t, "toc", "--format", "markdown", "cat.yaml")
	if !strings.Contains(md, "- [Start](#page-1)") || !strings.Contains(md, "  - [Details](#page-2)") {
		t.Fatalf("markdown toc = %q", md)
	}
	html := h.mustRun(t, "toc", "-f", "html", "cat.yaml")
	if !strings.Contains(html, `<a href="#page-1">Start</a>`) {
		t.Fatalf("html toc = %q", html)
	}
	if _, err := h.run("toc", "--format", "yaml", "cat.yaml"); err == nil {
		t.Fatalf("toc accepted an unknown format")
	}
}

func TestText(t *testing.T) {
	h := newHarness(t)
	if got := h.mustRun(t, "text", "--page", "1", "cat.yaml"); got != "The Cat sat.\n" {
		t.Fatalf("text --page 1 = %q", got)
	}
	if got := h.mustRun(t, "text", "cat.yaml"); got != "=== Page 1 ===\nThe Cat sat.\n=== Page 2 ===\n\n" {
		t.Fatalf("text = %q", got)
	}
	if _, err := h.run("text", "--page", "3", "cat.yaml"); err == nil {
		t.Fatalf("text accepted a page past the end")
	}
}

type wordEngine struct{ pages []int }

func (e *wordEngine) Name() string { return "words" }

func (e *wordEngine) Recognize(_ context.Context, in ocr.Input) (ocr.Result, error) {
	e.pages = append(e.pages, in.PageIndex)
	return ocr.Result{InputID: in.ID, PlainText: "scanned words\n"}, nil
}

func TestTextOCR(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run("text", "--ocr", "cat.yaml"); err == nil || !strings.Contains(err.Error(), "OCR engine") {
		t.Fatalf("text --ocr without an engine error = %v", err)
	}

	eng := &wordEngine{}
	h.ocr = eng
	got := h.mustRun(t, "text", "--ocr", "cat.yaml")
	if want := "=== Page 1 ===\nThe Cat sat.\n=== Page 2 ===\nscanned words\n"; got != want {
		t.Fatalf("text --ocr = %q, want %q", got, want)
	}
	if len(eng.pages) != 1 || eng.pages[0] != 1 {
		t.Fatalf("recognized pages = %v, want only the page without text", eng.pages)
	}
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(t, "search", "cat.yaml", "cat")
	if want := "4+3\t\"Cat\"\t[100.8 128.0 122.4 116.0]\n"; out != want {
		t.Fatalf("search = %q, want %q", out, want)
	}
	if out := h.mustRun(t, "search", "--match-case", "cat.yaml", "cat"); out != "" {
		t.Fatalf("case sensitive search = %q", out)
	}

	lines := strings.Split(strings.TrimSpace(h.mustRun(t, "search", "--reverse", "cat.yaml", "at")), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "9+2\t") || !strings.HasPrefix(lines[1], "5+2\t") {
		t.Fatalf("reverse search = %q", lines)
	}
	if h.eng.Live(memengine.KindSearch) != 0 {
		t.Fatalf("search session leaked")
	}

	if _, err := h.run("search", "cat.yaml"); err == nil {
		t.Fatalf("search without needle succeeded")
	}
	if _, err := h.run("search", "--page", "2", "cat.yaml", "cat"); err == nil {
		t.Fatalf("search on a page without text succeeded")
	}
}

func TestLinks(t *testing.T) {
	h := newHarness(t)
	want := "0\t[72.0 180.0 132.0 168.0]\thttps://example.com/\n" +
		"1\t[72.0 160.0 132.0 148.0]\tpage 2\n"
	if got := h.mustRun(t, "links", "cat.yaml"); got != want {
		t.Fatalf("links = %q, want %q", got, want)
	}
	if got := h.mustRun(t, "links", "--page", "2", "cat.yaml"); got != "" {
		t.Fatalf("links on page 2 = %q", got)
	}
}

func decode(t *testing.T, fs afero.Fs, name string) (int, int, func(x, y int) color.Color) {
	t.Helper()
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", name, err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), img.At
}

func isBlack(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r < 0x1000 && g < 0x1000 && b < 0x1000
}

func TestRender(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "render", "--dpi", "72", "--out", "page.png", "cat.yaml")
	w, ht, at := decode(t, h.fs, "page.png")
	if w != 300 || ht != 200 {
		t.Fatalf("rendered size = %dx%d, want 300x200", w, ht)
	}
	if !isBlack(at(75, 78)) {
		t.Fatalf("pixel (75,78) = %v, want ink", at(75, 78))
	}
	if isBlack(at(5, 5)) {
		t.Fatalf("pixel (5,5) should be paper")
	}

	tests := []struct {
		name string
		args []string
		w, h int
	}{
		{"rotated", []string{"--dpi", "72", "--rotate", "90"}, 200, 300},
		{"counter clockwise", []string{"--dpi", "72", "--rotate", "-90"}, 200, 300},
		{"width only", []string{"--width", "600"}, 600, 400},
		{"explicit", []string{"--width", "64", "--height", "48"}, 64, 48},
		{"thumbnail", []string{"--dpi", "144", "--thumbnail", "30"}, 30, 20},
		{"rgb565", []string{"--dpi", "72", "--rgb565", "--grayscale", "--annotations"}, 300, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", "-o", "out.png"}, tt.args...)
			h.mustRun(t, append(args, "cat.yaml")...)
			if w, ht, _ := decode(t, h.fs, "out.png"); w != tt.w || ht != tt.h {
				t.Fatalf("size = %dx%d, want %dx%d", w, ht, tt.w, tt.h)
			}
		})
	}

	if _, err := h.run("render", "cat.yaml"); err == nil {
		t.Fatalf("render without --out succeeded")
	}
	if _, err := h.run("render", "--rotate", "45", "-o", "x.png", "cat.yaml"); err == nil {
		t.Fatalf("render accepted a 45 degree rotation")
	}
}

func TestGlobalFlags(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run("--engine", "bogus", "info", "cat.yaml"); err == nil || !strings.Contains(err.Error(), "unknown engine backend") {
		t.Fatalf("bogus engine error = %v", err)
	}
	if _, err := h.run("--lock-mode", "document", "--log-level", "debug", "info", "cat.yaml"); err != nil {
		t.Fatalf("per document lock error = %v", err)
	}
	if _, err := h.run("info", "missing.yaml"); err == nil {
		t.Fatalf("info on a missing file succeeded")
	}
	if _, err := h.run("info"); err == nil {
		t.Fatalf("info without a file succeeded")
	}
}

func TestPassword(t *testing.T) {
	h := newHarness(t)
	f := fixture()
	f.Password = "secret"
	if err := afero.WriteFile(h.fs, "locked.yaml", f.Encode(), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := h.run("info", "locked.yaml"); err == nil || !strings.Contains(err.Error(), "password") {
		t.Fatalf("info without password error = %v", err)
	}
	if out := h.mustRun(t, "--password", "secret", "info", "locked.yaml"); !strings.Contains(out, "Cat Book") {
		t.Fatalf("info with password = %q", out)
	}
	if h.eng.Live(memengine.KindDocument) != 0 {
		t.Fatalf("failed open leaked a document")
	}
}

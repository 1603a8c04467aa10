//go:build pdfium && cgo

package pdfium

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/wudi/pdfium/bitmap"
	"github.com/wudi/pdfium/document"
	"github.com/wudi/pdfium/engine"
)

// catPDF builds a one page document with an outline, an info dictionary
// and the line "The Cat sat." in Helvetica.
func catPDF() []byte {
	content := "BT /F1 24 Tf 20 100 Td (The Cat sat.) Tj ET"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R /Outlines 6 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 300 200] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		"<< /Type /Outlines /First 7 0 R /Last 7 0 R /Count 1 >>",
		"<< /Title (Start) /Parent 6 0 R /Dest [3 0 R /Fit] >>",
		"<< /Title (Cat) /Author (Jane Roe) >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 8 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { eng.(*Engine).Close() })
	return eng.(*Engine)
}

func TestOpenErrors(t *testing.T) {
	eng := newEngine(t)
	if _, err := eng.OpenDocument(bytes.NewReader(nil), ""); !errors.Is(err, engine.ErrIOFailure) {
		t.Fatalf("empty source error = %v", err)
	}
	_, err := eng.OpenDocument(bytes.NewReader([]byte("hello, this is plain text")), "")
	if !errors.Is(err, engine.ErrInvalidFormat) {
		t.Fatalf("text source error = %v", err)
	}
	if !strings.Contains(err.Error(), "text/plain") {
		t.Fatalf("error does not name the sniffed type: %v", err)
	}
}

func TestDocumentThroughHandleLayer(t *testing.T) {
	eng := newEngine(t)
	doc, err := document.Open(eng, bytes.NewReader(catPDF()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer doc.Close()

	if n, _ := doc.PageCount(); n != 1 {
		t.Fatalf("PageCount() = %d", n)
	}
	if v, _ := doc.FormatVersion(); v != 17 {
		t.Fatalf("FormatVersion() = %d", v)
	}
	if s, _ := doc.PageSize(0); s != (document.Size{Width: 300, Height: 200}) {
		t.Fatalf("PageSize() = %v", s)
	}
	if title, _ := doc.Metadata(document.MetaTitle); title != "Cat" {
		t.Fatalf("Metadata(Title) = %q", title)
	}
	toc, err := doc.TableOfContents()
	if err != nil || len(toc) != 1 || toc[0] != (document.Bookmark{Title: "Start", Page: 0, Level: 0}) {
		t.Fatalf("TableOfContents() = %+v, %v", toc, err)
	}

	p, err := doc.OpenPage(0)
	if err != nil {
		t.Fatalf("OpenPage() error = %v", err)
	}
	tp, err := p.OpenText()
	if err != nil {
		t.Fatalf("OpenText() error = %v", err)
	}
	n, _ := tp.CharCount()
	text, err := tp.Text(0, n)
	if err != nil || !strings.Contains(text, "The Cat sat.") {
		t.Fatalf("Text() = %q, %v", text, err)
	}

	s, err := tp.Search("cat", document.SearchFlags{}, 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if ok, _ := s.Next(); !ok {
		t.Fatalf("Next() found nothing")
	}
	if r, _ := s.Result(); r != (document.SearchResult{Start: 4, Count: 3}) {
		t.Fatalf("Result() = %+v", r)
	}

	rgba := bitmap.NewRGBA(300, 200)
	if err := p.Render(rgba, 0, 0, 300, 200, document.RenderOptions{}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	dark := 0
	for i := 0; i < len(rgba.Pix()); i += 4 {
		if rgba.Pix()[i] < 0x80 {
			dark++
		}
	}
	if dark == 0 {
		t.Fatalf("rendered page has no ink")
	}

	rgb := bitmap.NewRGB565(150, 100)
	if err := p.Render(rgb, 0, 0, 150, 100, document.RenderOptions{Rotation: 2}); err != nil {
		t.Fatalf("Render() RGB565 error = %v", err)
	}
	if got := rgb.Pixel(0, 0); got != bitmap.RGB565FromRGB(0xff, 0xff, 0xff) {
		t.Fatalf("corner pixel = %#04x, want white", uint16(got))
	}
}

func TestEngineClosedBeforeDocument(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	doc, err := document.Open(eng, bytes.NewReader(catPDF()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	p, err := doc.OpenPage(0)
	if err != nil {
		t.Fatalf("OpenPage() error = %v", err)
	}
	tp, err := p.OpenText()
	if err != nil {
		t.Fatalf("OpenText() error = %v", err)
	}
	if _, err := tp.Search("cat", document.SearchFlags{}, 0); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if err := eng.(*Engine).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := tp.Text(0, 3); !errors.Is(err, ErrEngineClosed) {
		t.Fatalf("Text() after engine close error = %v", err)
	}
	if _, err := doc.Metadata(document.MetaTitle); !errors.Is(err, ErrEngineClosed) {
		t.Fatalf("Metadata() after engine close error = %v", err)
	}
	if _, err := eng.OpenDocument(bytes.NewReader(catPDF()), ""); !errors.Is(err, ErrEngineClosed) {
		t.Fatalf("OpenDocument() after engine close error = %v", err)
	}

	// The cascade reaches ids the engine already freed.
	doc.Close()

	raw := eng.(*Engine)
	for _, err := range []error{
		raw.CloseSearch(1), raw.CloseTextPage(1), raw.ClosePage(1), raw.CloseDocument(1),
	} {
		if err != nil {
			t.Fatalf("release after engine close error = %v", err)
		}
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

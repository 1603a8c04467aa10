package memengine

import (
	"bytes"
	"fmt"

	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/geometry"
	"gopkg.in/yaml.v3"
)

// Kind is the value of the kind field every fixture must carry.
const Kind = "memengine/document"

const (
	margin          = 72.0
	defaultFontSize = 12.0
	cellRatio       = 0.6
	leadingRatio    = 1.2
)

// Fixture describes a document served by the engine.
type Fixture struct {
	Kind     string            `yaml:"kind"`
	Version  int               `yaml:"version,omitempty"`
	Password string            `yaml:"password,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
	Outline  []Bookmark        `yaml:"outline,omitempty"`
	Pages    []Page            `yaml:"pages"`
}

type Bookmark struct {
	Title    string     `yaml:"title"`
	Page     *int       `yaml:"page,omitempty"`
	Children []Bookmark `yaml:"children,omitempty"`
}

type Page struct {
	Width           float64 `yaml:"width"`
	Height          float64 `yaml:"height"`
	Text            string  `yaml:"text,omitempty"`
	FontSize        float64 `yaml:"font_size,omitempty"`
	Links           []Link  `yaml:"links,omitempty"`
	UnsupportedText bool    `yaml:"unsupported_text,omitempty"`
}

// Link points either at a URI or at a page of the same document.
type Link struct {
	URI  string     `yaml:"uri,omitempty"`
	Page *int       `yaml:"page,omitempty"`
	Rect [4]float64 `yaml:"rect"`
}

// ParseFixture decodes and validates a fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if f.Kind != Kind {
		return nil, fmt.Errorf("unexpected kind %q", f.Kind)
	}
	for i, p := range f.Pages {
		if p.Width <= 0 || p.Height <= 0 {
			return nil, fmt.Errorf("page %d: invalid size %gx%g", i, p.Width, p.Height)
		}
	}
	if f.Version == 0 {
		f.Version = 17
	}
	return &f, nil
}

// Encode renders the fixture as YAML, filling in the kind.
func (f Fixture) Encode() []byte {
	f.Kind = Kind
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	// Fixture only holds plain values, encoding cannot fail.
	_ = enc.Encode(f)
	_ = enc.Close()
	return buf.Bytes()
}

// Target is a helper for building bookmark and link destinations.
func Target(page int) *int { return &page }

// glyph is one laid out character.
type glyph struct {
	r    rune
	line int
	box  geometry.RectF
}

// layout places characters in fixed size cells starting one inch from the
// top-left corner. A newline starts a new line and has an empty box.
func layout(p Page) []glyph {
	fs := p.FontSize
	if fs <= 0 {
		fs = defaultFontSize
	}
	cell, lead := fs*cellRatio, fs*leadingRatio
	out := make([]glyph, 0, len(p.Text))
	line, col := 0, 0
	for _, r := range p.Text {
		top := p.Height - margin - float64(line)*lead
		left := margin + float64(col)*cell
		g := glyph{r: r, line: line}
		if r == '\n' {
			g.box = geometry.RectF{Left: left, Top: top, Right: left, Bottom: top - fs}
			line++
			col = 0
		} else {
			g.box = geometry.RectF{Left: left, Top: top, Right: left + cell, Bottom: top - fs}
			col++
		}
		out = append(out, g)
	}
	return out
}

// flattenOutline walks the tree depth first. Destinations outside the
// document are reported as -1.
func flattenOutline(bs []Bookmark, level, pageCount int, out []engine.OutlineEntry) []engine.OutlineEntry {
	for _, b := range bs {
		page := -1
		if b.Page != nil && *b.Page >= 0 && *b.Page < pageCount {
			page = *b.Page
		}
		out = append(out, engine.OutlineEntry{Title: b.Title, Page: page, Level: level})
		out = flattenOutline(b.Children, level+1, pageCount, out)
	}
	return out
}

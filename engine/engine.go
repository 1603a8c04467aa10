// Package engine describes the native PDF capabilities the document layer
// is built on.
//
// An Engine hands out opaque identifiers for documents, pages, text pages and
// search sessions and expects each identifier to be released exactly once
// through the matching Close call. Engines are not required to be safe for
// concurrent use; callers serialize access.
package engine

import (
	"io"

	"github.com/wudi/pdfium/bitmap"
	"github.com/wudi/pdfium/geometry"
)

type (
	DocumentID uintptr
	PageID     uintptr
	TextPageID uintptr
	SearchID   uintptr
)

// Source is a random access byte source with a known length.
type Source interface {
	io.ReaderAt
	Size() int64
}

// OutlineEntry is one bookmark of a depth-first flattened outline. Page is
// -1 when the bookmark has no destination inside the document.
type OutlineEntry struct {
	Title string
	Page  int
	Level int
}

// LinkInfo is a link annotation on a page. TargetPage is -1 when the link
// does not point at a page of the same document.
type LinkInfo struct {
	URI        string
	Bounds     geometry.RectF
	TargetPage int
}

// RenderRequest draws the page scaled into the device rectangle
// (X, Y, Width, Height) of Target.
type RenderRequest struct {
	Target   bitmap.Buffer
	X, Y     int
	Width    int
	Height   int
	Rotation geometry.Rotation
	Flags    RenderFlags
}

type DocumentEngine interface {
	OpenDocument(src Source, password string) (DocumentID, error)
	CloseDocument(doc DocumentID) error
	PageCount(doc DocumentID) (int, error)
	PageSize(doc DocumentID, index int) (width, height float64, err error)
	// FormatVersion returns the file version as major*10+minor, e.g. 14.
	FormatVersion(doc DocumentID) (int, error)
	// Metadata returns the Info dictionary entry for tag or "" when absent.
	Metadata(doc DocumentID, tag string) (string, error)
	Outline(doc DocumentID) ([]OutlineEntry, error)
}

type PageEngine interface {
	OpenPage(doc DocumentID, index int) (PageID, error)
	ClosePage(page PageID) error
	RenderPage(page PageID, req RenderRequest) error
	PageLinks(doc DocumentID, page PageID) ([]LinkInfo, error)
}

type TextEngine interface {
	OpenTextPage(page PageID) (TextPageID, error)
	CloseTextPage(text TextPageID) error
	CharCount(text TextPageID) (int, error)
	// CharIndexAt returns the index of the character at (x, y) within the
	// given tolerance or -1.
	CharIndexAt(text TextPageID, x, y, tolX, tolY float64) (int, error)
	TextRange(text TextPageID, start, count int) (string, error)
	// CharRects returns one rectangle per visual run of the range.
	CharRects(text TextPageID, start, count int) ([]geometry.RectF, error)
}

type SearchEngine interface {
	// StartSearch positions a cursor at start; -1 starts from the end.
	StartSearch(text TextPageID, needle string, flags SearchFlags, start int) (SearchID, error)
	SearchNext(search SearchID) (bool, error)
	SearchPrev(search SearchID) (bool, error)
	SearchResult(search SearchID) (start, count int, err error)
	CloseSearch(search SearchID) error
}

// Engine is the complete native surface.
type Engine interface {
	DocumentEngine
	PageEngine
	TextEngine
	SearchEngine

	// Name identifies the backend in logs, e.g. "pdfium".
	Name() string
}

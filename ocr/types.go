package ocr

import (
	"context"
	"image"
	"math"

	"github.com/wudi/pdfium/geometry"
)

// ImageFormat is the content type of an encoded page image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
	ImageFormatTIFF ImageFormat = "image/tiff"
)

// Region is a rectangle in image pixels, origin at the top left.
type Region struct {
	X, Y          float64
	Width, Height float64
}

func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Rect rounds the region to whole pixels.
func (r Region) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)),
		int(math.Round(r.Y+r.Height)),
	)
}

// Center is the middle of the region.
func (r Region) Center() (x, y float64) { return r.X + r.Width/2, r.Y + r.Height/2 }

// Contains reports whether the point lies inside r, edges included.
func (r Region) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Union returns the smallest region covering r and o. Empty regions do not
// contribute.
func (r Region) Union(o Region) Region {
	switch {
	case r.IsEmpty():
		return o
	case o.IsEmpty():
		return r
	}
	x0, y0 := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	x1 := math.Max(r.X+r.Width, o.X+o.Width)
	y1 := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// RegionOf converts a pixel rectangle.
func RegionOf(r image.Rectangle) Region {
	return Region{X: float64(r.Min.X), Y: float64(r.Min.Y), Width: float64(r.Dx()), Height: float64(r.Dy())}
}

// Input is one encoded page image submitted for recognition.
type Input struct {
	// ID is echoed back in Result.InputID.
	ID     string
	Image  []byte
	Format ImageFormat
	// PageIndex is the zero based page the image was rendered from.
	PageIndex int
	// DPI of the rendering, zero when unknown.
	DPI int
	// Languages are tesseract language codes such as "eng" or "deu".
	Languages []string
	// Region limits recognition to part of the image; nil means all of it.
	Region *Region
	// Metadata carries engine variables, see WithPageSegMode.
	Metadata map[string]string
}

type TextWord struct {
	Text       string
	Bounds     Region
	Confidence float64
}

type TextLine struct {
	Text       string
	Bounds     Region
	Words      []TextWord
	Confidence float64
}

// TextBlock is a paragraph-like group of lines.
type TextBlock struct {
	Text       string
	Bounds     Region
	Lines      []TextLine
	Confidence float64
}

// Result is the recognition of one Input. Word bounds are relative to the
// input's Region when one was set.
type Result struct {
	InputID   string
	PlainText string
	Blocks    []TextBlock
	Language  string
}

// Engine recognizes one image at a time.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

// BatchEngine recognizes several images in one call.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error)
}

// PageWord is a recognized word placed in page space.
type PageWord struct {
	Text       string
	Bounds     geometry.RectF
	Confidence float64
}

// PageResult is the recognized text of one page.
type PageResult struct {
	Page       int
	Text       string
	Words      []PageWord
	Confidence float64
	Engine     string
}

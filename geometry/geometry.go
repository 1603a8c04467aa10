// Package geometry maps between page space and device space.
//
// Page space is the floating point coordinate system of a single page with
// the origin in the lower-left corner and the y axis pointing up. Device
// space is an integer pixel grid whose origin is the top-left corner of a
// caller supplied viewport, y axis pointing down. A page is rotated by a
// multiple of 90 degrees and then stretched (independently on each axis) to
// fill the viewport.
//
// All functions are pure and safe for concurrent use.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateViewport is returned when the page or the viewport has a zero
// extent, which would make the scale factors undefined.
var ErrDegenerateViewport = errors.New("pdf: degenerate viewport")

// Rotation is the clockwise orientation applied to a page before it is fit
// into a viewport.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 1 // clockwise
	Rotate180 Rotation = 2
	Rotate270 Rotation = 3 // clockwise, i.e. 90 counter-clockwise
)

// Normalize folds any integer into the 0..3 range.
func (r Rotation) Normalize() Rotation {
	return ((r % 4) + 4) % 4
}

func (r Rotation) Degrees() int { return int(r.Normalize()) * 90 }

func (r Rotation) String() string { return fmt.Sprintf("%d°", r.Degrees()) }

// Swaps reports whether the rotation exchanges the page's width and height.
func (r Rotation) Swaps() bool {
	n := r.Normalize()
	return n == Rotate90 || n == Rotate270
}

// RotatedExtent returns the page extent after rotation.
func (r Rotation) RotatedExtent(width, height float64) (float64, float64) {
	if r.Swaps() {
		return height, width
	}
	return width, height
}

// Point is a device space position.
type Point struct{ X, Y int }

// PointF is a page space position.
type PointF struct{ X, Y float64 }

// Rect is a device space rectangle described by two corners. It is not
// required to be normalized.
type Rect struct{ Left, Top, Right, Bottom int }

// Normalize orders the corners so that Left <= Right and Top <= Bottom.
func (r Rect) Normalize() Rect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

func (r Rect) Width() int  { return abs(r.Right - r.Left) }
func (r Rect) Height() int { return abs(r.Bottom - r.Top) }

// RectF is a page space rectangle described by two corners. In page space
// Top is usually greater than Bottom.
type RectF struct{ Left, Top, Right, Bottom float64 }

func (r RectF) Width() float64  { return math.Abs(r.Right - r.Left) }
func (r RectF) Height() float64 { return math.Abs(r.Top - r.Bottom) }

// Contains reports whether p lies inside the rectangle, borders included,
// regardless of corner order.
func (r RectF) Contains(p PointF) bool {
	minX, maxX := math.Min(r.Left, r.Right), math.Max(r.Left, r.Right)
	minY, maxY := math.Min(r.Top, r.Bottom), math.Max(r.Top, r.Bottom)
	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}

// Union returns the smallest page rectangle (top above bottom) covering both.
func (r RectF) Union(o RectF) RectF {
	return RectF{
		Left:   math.Min(math.Min(r.Left, r.Right), math.Min(o.Left, o.Right)),
		Right:  math.Max(math.Max(r.Left, r.Right), math.Max(o.Left, o.Right)),
		Top:    math.Max(math.Max(r.Top, r.Bottom), math.Max(o.Top, o.Bottom)),
		Bottom: math.Min(math.Min(r.Top, r.Bottom), math.Min(o.Top, o.Bottom)),
	}
}

// Viewport is the device rectangle a page is fit into.
type Viewport struct {
	X, Y          int
	Width, Height int
}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", v.Width, v.Height, v.X, v.Y)
}

// DisplayMatrix returns the page to device transform for a page of the
// given size shown in vp with rotation rot.
//
// The matrix is derived from where three page corners land in the viewport:
// the page origin (lower-left), the upper-left corner and the lower-right
// corner. This yields scale factors vp.Width/rotatedWidth and
// vp.Height/rotatedHeight with no aspect ratio correction.
func DisplayMatrix(vp Viewport, rot Rotation, pageWidth, pageHeight float64) (Matrix, error) {
	if pageWidth == 0 || pageHeight == 0 || vp.Width == 0 || vp.Height == 0 {
		return Matrix{}, fmt.Errorf("%w: page %gx%g in %s", ErrDegenerateViewport, pageWidth, pageHeight, vp)
	}
	x, y := float64(vp.X), float64(vp.Y)
	w, h := float64(vp.Width), float64(vp.Height)

	// (x0, y0): page origin, (x1, y1): page upper-left, (x2, y2): page lower-right.
	var x0, y0, x1, y1, x2, y2 float64
	switch rot.Normalize() {
	case Rotate0:
		x0, y0 = x, y+h
		x1, y1 = x, y
		x2, y2 = x+w, y+h
	case Rotate90:
		x0, y0 = x, y
		x1, y1 = x+w, y
		x2, y2 = x, y+h
	case Rotate180:
		x0, y0 = x+w, y
		x1, y1 = x+w, y+h
		x2, y2 = x, y
	case Rotate270:
		x0, y0 = x+w, y+h
		x1, y1 = x, y+h
		x2, y2 = x+w, y
	}
	return Matrix{
		(x2 - x0) / pageWidth,
		(y2 - y0) / pageWidth,
		(x1 - x0) / pageHeight,
		(y1 - y0) / pageHeight,
		x0,
		y0,
	}, nil
}

// PageToDevice maps a page point into the viewport, rounding to the
// nearest pixel (halves away from zero).
func PageToDevice(vp Viewport, rot Rotation, pageWidth, pageHeight float64, p PointF) (Point, error) {
	m, err := DisplayMatrix(vp, rot, pageWidth, pageHeight)
	if err != nil {
		return Point{}, err
	}
	d := m.Transform(p)
	return Point{X: roundPixel(d.X), Y: roundPixel(d.Y)}, nil
}

// DeviceToPage is the inverse of PageToDevice.
func DeviceToPage(vp Viewport, rot Rotation, pageWidth, pageHeight float64, p Point) (PointF, error) {
	m, err := DisplayMatrix(vp, rot, pageWidth, pageHeight)
	if err != nil {
		return PointF{}, err
	}
	inv, err := m.Inverse()
	if err != nil {
		return PointF{}, fmt.Errorf("%w: %v", ErrDegenerateViewport, err)
	}
	return inv.Transform(PointF{X: float64(p.X), Y: float64(p.Y)}), nil
}

// RectToDevice maps the (Left, Top) and (Right, Bottom) corners
// independently. At 90 and 270 degrees (and for the y axis flip in
// general) the resulting corners are not normalized: the page's upper-left
// corner may land on any visual corner of the device rectangle.
func RectToDevice(vp Viewport, rot Rotation, pageWidth, pageHeight float64, r RectF) (Rect, error) {
	lt, err := PageToDevice(vp, rot, pageWidth, pageHeight, PointF{X: r.Left, Y: r.Top})
	if err != nil {
		return Rect{}, err
	}
	rb, err := PageToDevice(vp, rot, pageWidth, pageHeight, PointF{X: r.Right, Y: r.Bottom})
	if err != nil {
		return Rect{}, err
	}
	return Rect{Left: lt.X, Top: lt.Y, Right: rb.X, Bottom: rb.Y}, nil
}

// RectToPage maps the two device corners back independently.
func RectToPage(vp Viewport, rot Rotation, pageWidth, pageHeight float64, r Rect) (RectF, error) {
	lt, err := DeviceToPage(vp, rot, pageWidth, pageHeight, Point{X: r.Left, Y: r.Top})
	if err != nil {
		return RectF{}, err
	}
	rb, err := DeviceToPage(vp, rot, pageWidth, pageHeight, Point{X: r.Right, Y: r.Bottom})
	if err != nil {
		return RectF{}, err
	}
	return RectF{Left: lt.X, Top: lt.Y, Right: rb.X, Bottom: rb.Y}, nil
}

// Scales returns the device pixels per page unit along the device x and y
// axes, useful for round trip tolerances.
func Scales(vp Viewport, rot Rotation, pageWidth, pageHeight float64) (sx, sy float64, err error) {
	if pageWidth == 0 || pageHeight == 0 || vp.Width == 0 || vp.Height == 0 {
		return 0, 0, ErrDegenerateViewport
	}
	rw, rh := rot.RotatedExtent(pageWidth, pageHeight)
	return math.Abs(float64(vp.Width) / rw), math.Abs(float64(vp.Height) / rh), nil
}

func roundPixel(v float64) int {
	r := math.Round(v)
	switch {
	case r > math.MaxInt32:
		return math.MaxInt32
	case r < math.MinInt32:
		return math.MinInt32
	}
	return int(r)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Package bitmap provides the pixel buffers pages are rendered into.
//
// Two layouts are supported: 32-bit RGBA (byte order R, G, B, A) and 16-bit
// RGB565 stored little endian with red in the high bits.
package bitmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
)

// ErrShortBuffer is returned by Validate when Pix cannot hold the declared
// geometry.
var ErrShortBuffer = errors.New("bitmap: pixel slice shorter than geometry")

type Format int

const (
	FormatRGBA Format = iota + 1
	FormatRGB565
)

func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBA:
		return 4
	case FormatRGB565:
		return 2
	}
	return 0
}

func (f Format) String() string {
	switch f {
	case FormatRGBA:
		return "rgba8888"
	case FormatRGB565:
		return "rgb565"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Buffer is a caller owned pixel buffer.
type Buffer interface {
	Format() Format
	Width() int
	Height() int
	Stride() int
	Pix() []byte
}

// Validate checks that the buffer's pixel slice covers its geometry.
func Validate(b Buffer) error {
	bpp := b.Format().BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("bitmap: unsupported format %s", b.Format())
	}
	if b.Width() <= 0 || b.Height() <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrShortBuffer, b.Width(), b.Height())
	}
	if b.Stride() < b.Width()*bpp {
		return fmt.Errorf("%w: stride %d for width %d", ErrShortBuffer, b.Stride(), b.Width())
	}
	if need := b.Stride()*(b.Height()-1) + b.Width()*bpp; len(b.Pix()) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(b.Pix()), need)
	}
	return nil
}

// RGBA is a 32 bits per pixel buffer backed by an image.RGBA.
type RGBA struct {
	img *image.RGBA
}

func NewRGBA(width, height int) *RGBA {
	return &RGBA{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// WrapRGBA uses img as the backing store. img's origin must be (0, 0).
func WrapRGBA(img *image.RGBA) *RGBA { return &RGBA{img: img} }

func (b *RGBA) Format() Format          { return FormatRGBA }
func (b *RGBA) Width() int              { return b.img.Rect.Dx() }
func (b *RGBA) Height() int             { return b.img.Rect.Dy() }
func (b *RGBA) Stride() int             { return b.img.Stride }
func (b *RGBA) Pix() []byte             { return b.img.Pix }
func (b *RGBA) Image() *image.RGBA      { return b.img }
func (b *RGBA) At(x, y int) color.Color { return b.img.At(x, y) }

// Image returns a draw.Image view over any Buffer produced by this package.
func Image(b Buffer) (draw.Image, error) {
	switch v := b.(type) {
	case *RGBA:
		return v.img, nil
	case *RGB565:
		return v, nil
	}
	return nil, fmt.Errorf("bitmap: no image view for %T", b)
}

// Fill paints r (clipped to the buffer) with c.
func Fill(b Buffer, r image.Rectangle, c color.Color) error {
	img, err := Image(b)
	if err != nil {
		return err
	}
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
	return nil
}

// Scale resizes src to width x height with Catmull-Rom resampling.
func Scale(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// EncodePNG writes b as a PNG image.
func EncodePNG(w io.Writer, b Buffer) error {
	img, err := Image(b)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

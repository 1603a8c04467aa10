package bitmap

import (
	"encoding/binary"
	"image"
	"image/color"
)

// Color565 is a packed 5-6-5 pixel.
type Color565 uint16

// RGBA implements color.Color, expanding each channel by bit replication.
func (c Color565) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1f
	g6 := uint32(c>>5) & 0x3f
	b5 := uint32(c) & 0x1f
	r8 := r5<<3 | r5>>2
	g8 := g6<<2 | g6>>4
	b8 := b5<<3 | b5>>2
	return r8 * 0x101, g8 * 0x101, b8 * 0x101, 0xffff
}

// RGB565FromRGB packs 8-bit channels with rounding to the nearest level.
func RGB565FromRGB(r, g, b uint8) Color565 {
	r5 := (uint32(r)*249 + 1014) >> 11
	g6 := (uint32(g)*253 + 505) >> 10
	b5 := (uint32(b)*249 + 1014) >> 11
	return Color565(r5<<11 | g6<<5 | b5)
}

// RGB565Model converts any color to Color565.
var RGB565Model = color.ModelFunc(func(c color.Color) color.Color {
	if v, ok := c.(Color565); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return RGB565FromRGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
})

// RGB565 is a 16 bits per pixel buffer. It implements draw.Image.
type RGB565 struct {
	pix    []byte
	stride int
	w, h   int
}

func NewRGB565(width, height int) *RGB565 {
	return &RGB565{pix: make([]byte, width*height*2), stride: width * 2, w: width, h: height}
}

// WrapRGB565 uses pix as the backing store.
func WrapRGB565(pix []byte, width, height, stride int) *RGB565 {
	return &RGB565{pix: pix, stride: stride, w: width, h: height}
}

func (b *RGB565) Format() Format          { return FormatRGB565 }
func (b *RGB565) Width() int              { return b.w }
func (b *RGB565) Height() int             { return b.h }
func (b *RGB565) Stride() int             { return b.stride }
func (b *RGB565) Pix() []byte             { return b.pix }
func (b *RGB565) ColorModel() color.Model { return RGB565Model }
func (b *RGB565) Bounds() image.Rectangle { return image.Rect(0, 0, b.w, b.h) }

func (b *RGB565) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(b.Bounds())) {
		return Color565(0)
	}
	return b.Pixel(x, y)
}

func (b *RGB565) Pixel(x, y int) Color565 {
	i := y*b.stride + x*2
	return Color565(binary.LittleEndian.Uint16(b.pix[i:]))
}

func (b *RGB565) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(b.Bounds())) {
		return
	}
	i := y*b.stride + x*2
	binary.LittleEndian.PutUint16(b.pix[i:], uint16(RGB565Model.Convert(c).(Color565)))
}

// FromBGR converts a 24-bit B, G, R source of the same dimensions into b.
func (b *RGB565) FromBGR(src []byte, srcStride int) {
	for y := 0; y < b.h; y++ {
		row := src[y*srcStride:]
		out := b.pix[y*b.stride:]
		for x := 0; x < b.w; x++ {
			c := RGB565FromRGB(row[x*3+2], row[x*3+1], row[x*3])
			binary.LittleEndian.PutUint16(out[x*2:], uint16(c))
		}
	}
}

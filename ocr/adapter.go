package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// InputOption mutates an OCR input built from a rendered page or image.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithRegion sets the recognition region on the OCR input.
func WithRegion(region Region) InputOption {
	return func(in *Input) {
		if region.IsEmpty() {
			in.Region = nil
			return
		}
		in.Region = &region
	}
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific metadata for the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// InputID is the identifier given to the rendering of page.
func InputID(page int) string { return fmt.Sprintf("page-%d", page) }

// InputFromImage encodes img as PNG.
func InputFromImage(page int, img image.Image, opts ...InputOption) (Input, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Input{}, fmt.Errorf("encode page image: %w", err)
	}
	in := Input{
		ID:        InputID(page),
		Image:     buf.Bytes(),
		Format:    ImageFormatPNG,
		PageIndex: page,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}

// InputFromBytes wraps an already encoded image. The format is detected
// from the content; anything that is not PNG, JPEG or TIFF is rejected.
func InputFromBytes(page int, data []byte, opts ...InputOption) (Input, error) {
	mt := mimetype.Detect(data)
	var format ImageFormat
	switch {
	case mt.Is(string(ImageFormatPNG)):
		format = ImageFormatPNG
	case mt.Is(string(ImageFormatJPEG)):
		format = ImageFormatJPEG
	case mt.Is(string(ImageFormatTIFF)):
		format = ImageFormatTIFF
	default:
		return Input{}, fmt.Errorf("unsupported image type %s", strings.TrimSpace(mt.String()))
	}
	in := Input{ID: InputID(page), Image: data, Format: format, PageIndex: page}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}

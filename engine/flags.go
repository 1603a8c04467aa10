package engine

import "strings"

// RenderFlags uses pdfium's FPDF_RENDER bit layout.
type RenderFlags uint32

const (
	RenderAnnotations      RenderFlags = 0x01
	RenderLCDText          RenderFlags = 0x02
	RenderNoNativeText     RenderFlags = 0x04
	RenderGrayscale        RenderFlags = 0x08
	RenderReverseByteOrder RenderFlags = 0x10
	RenderDebugInfo        RenderFlags = 0x80
	RenderNoCatch          RenderFlags = 0x100
	RenderLimitImageCache  RenderFlags = 0x200
	RenderForceHalftone    RenderFlags = 0x400
	RenderPrinting         RenderFlags = 0x800
	RenderNoSmoothText     RenderFlags = 0x1000
	RenderNoSmoothImage    RenderFlags = 0x2000
	RenderNoSmoothPath     RenderFlags = 0x4000

	// RenderKnown is the union of the bits above.
	RenderKnown = RenderAnnotations | RenderLCDText | RenderNoNativeText | RenderGrayscale |
		RenderReverseByteOrder | RenderDebugInfo | RenderNoCatch | RenderLimitImageCache |
		RenderForceHalftone | RenderPrinting | RenderNoSmoothText | RenderNoSmoothImage |
		RenderNoSmoothPath
)

var renderNames = []struct {
	flag RenderFlags
	name string
}{
	{RenderAnnotations, "annotations"},
	{RenderLCDText, "lcd-text"},
	{RenderNoNativeText, "no-native-text"},
	{RenderGrayscale, "grayscale"},
	{RenderReverseByteOrder, "reverse-byte-order"},
	{RenderDebugInfo, "debug-info"},
	{RenderNoCatch, "no-catch"},
	{RenderLimitImageCache, "limit-image-cache"},
	{RenderForceHalftone, "force-halftone"},
	{RenderPrinting, "printing"},
	{RenderNoSmoothText, "no-smooth-text"},
	{RenderNoSmoothImage, "no-smooth-image"},
	{RenderNoSmoothPath, "no-smooth-path"},
}

func (f RenderFlags) Has(bit RenderFlags) bool { return f&bit == bit }

func (f RenderFlags) String() string {
	var parts []string
	for _, n := range renderNames {
		if f.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// SearchFlags uses pdfium's FPDF_MATCH bit layout.
type SearchFlags uint32

const (
	MatchCase      SearchFlags = 0x1
	MatchWholeWord SearchFlags = 0x2
	// MatchConsecutive reports overlapping matches.
	MatchConsecutive SearchFlags = 0x4
)

func (f SearchFlags) Has(bit SearchFlags) bool { return f&bit == bit }

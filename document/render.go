package document

import (
	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/geometry"
)

// RenderOptions selects optional rendering behavior. Flags converts it to
// the engine's bit layout.
type RenderOptions struct {
	Annotations     bool
	LCDText         bool
	NoNativeText    bool
	Grayscale       bool
	Printing        bool
	DebugInfo       bool
	LimitImageCache bool
	ForceHalftone   bool
	NoSmoothText    bool
	NoSmoothImage   bool
	NoSmoothPath    bool

	Rotation geometry.Rotation

	// Extra carries raw engine bits with no named field. They are passed
	// through untouched; engines ignore bits they do not support.
	Extra engine.RenderFlags
}

var renderBits = []struct {
	flag engine.RenderFlags
	get  func(*RenderOptions) *bool
}{
	{engine.RenderAnnotations, func(o *RenderOptions) *bool { return &o.Annotations }},
	{engine.RenderLCDText, func(o *RenderOptions) *bool { return &o.LCDText }},
	{engine.RenderNoNativeText, func(o *RenderOptions) *bool { return &o.NoNativeText }},
	{engine.RenderGrayscale, func(o *RenderOptions) *bool { return &o.Grayscale }},
	{engine.RenderPrinting, func(o *RenderOptions) *bool { return &o.Printing }},
	{engine.RenderDebugInfo, func(o *RenderOptions) *bool { return &o.DebugInfo }},
	{engine.RenderLimitImageCache, func(o *RenderOptions) *bool { return &o.LimitImageCache }},
	{engine.RenderForceHalftone, func(o *RenderOptions) *bool { return &o.ForceHalftone }},
	{engine.RenderNoSmoothText, func(o *RenderOptions) *bool { return &o.NoSmoothText }},
	{engine.RenderNoSmoothImage, func(o *RenderOptions) *bool { return &o.NoSmoothImage }},
	{engine.RenderNoSmoothPath, func(o *RenderOptions) *bool { return &o.NoSmoothPath }},
}

// Flags returns the engine bit layout for o.
func (o RenderOptions) Flags() engine.RenderFlags {
	f := o.Extra
	for _, b := range renderBits {
		if *b.get(&o) {
			f |= b.flag
		} else {
			f &^= b.flag
		}
	}
	return f
}

// OptionsFromFlags is the inverse of Flags. Bits without a named field end
// up in Extra.
func OptionsFromFlags(f engine.RenderFlags) RenderOptions {
	var o RenderOptions
	rest := f
	for _, b := range renderBits {
		if f.Has(b.flag) {
			*b.get(&o) = true
			rest &^= b.flag
		}
	}
	o.Extra = rest
	return o
}

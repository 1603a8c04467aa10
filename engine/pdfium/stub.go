//go:build !pdfium || !cgo

package pdfium

import "github.com/wudi/pdfium/engine"

// Available reports whether the backend was compiled in.
func Available() bool { return false }

func New() (engine.Engine, error) { return nil, ErrNotAvailable }

// Package pdfium binds engine.Engine to the pdfium C library.
//
// The binding is compiled only with the pdfium build tag and cgo enabled,
// and links against pdfium through pkg-config:
//
//	go build -tags pdfium ./...
//
// Without the tag New reports ErrNotAvailable. pdfium is not thread safe;
// callers serialize access through the document package's lock modes.
package pdfium

import "errors"

// Name identifies the backend in logs and configuration.
const Name = "pdfium"

// ErrNotAvailable is returned by New when the binary was built without the
// pdfium backend.
var ErrNotAvailable = errors.New("pdfium: backend not compiled in (build with -tags pdfium and cgo)")

// ErrEngineClosed is returned by every call made after Engine.Close.
var ErrEngineClosed = errors.New("pdfium: engine closed")

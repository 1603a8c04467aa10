package document

import (
	"errors"
	"fmt"

	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/geometry"
	"github.com/wudi/pdfium/handle"
)

// Errors reported by the package. Use errors.Is to test for them; they are
// usually wrapped in an *Error naming the operation.
var (
	ErrInvalidFormat      = engine.ErrInvalidFormat
	ErrPasswordRequired   = engine.ErrPasswordRequired
	ErrIOFailure          = engine.ErrIOFailure
	ErrUnsupportedContent = engine.ErrUnsupportedContent
	ErrBufferTooSmall     = engine.ErrBufferTooSmall
	ErrDegenerateViewport = geometry.ErrDegenerateViewport
	ErrUseAfterClose      = handle.ErrUseAfterClose
	ErrParentClosed       = handle.ErrParentClosed

	ErrIndexOutOfRange  = errors.New("pdf: index out of range")
	ErrRangeOutOfBounds = errors.New("pdf: range out of bounds")
	ErrNoCurrentMatch   = errors.New("pdf: no current match")
)

// Error records the operation that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdf.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pdf.%s: unknown error", e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

func opError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

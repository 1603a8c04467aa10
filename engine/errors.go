package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFormat      = errors.New("pdf: invalid format")
	ErrPasswordRequired   = errors.New("pdf: password required")
	ErrIOFailure          = errors.New("pdf: i/o failure")
	ErrUnsupportedContent = errors.New("pdf: unsupported content")
	ErrBufferTooSmall     = errors.New("pdf: buffer too small")
)

// Code mirrors the last-error values reported by pdfium.
type Code int

const (
	CodeSuccess Code = iota
	CodeUnknown
	CodeFile
	CodeFormat
	CodePassword
	CodeSecurity
	CodePage
)

var codeText = map[Code]string{
	CodeSuccess:  "no error",
	CodeUnknown:  "unknown error",
	CodeFile:     "file not found or could not be opened",
	CodeFormat:   "file not in PDF format or corrupted",
	CodePassword: "password required or incorrect password",
	CodeSecurity: "unsupported security scheme",
	CodePage:     "page not found or content error",
}

func (c Code) String() string {
	if s, ok := codeText[c]; ok {
		return s
	}
	return fmt.Sprintf("error code %d", int(c))
}

// Err returns nil for CodeSuccess and a *CodeError otherwise.
func (c Code) Err(op string) error {
	if c == CodeSuccess {
		return nil
	}
	return &CodeError{Op: op, Code: c}
}

// CodeError carries a native error code. It unwraps to the taxonomy
// sentinel: file errors are ErrIOFailure, password errors are
// ErrPasswordRequired and everything else is ErrInvalidFormat.
type CodeError struct {
	Op   string
	Code Code
}

func (e *CodeError) Error() string {
	if e.Op == "" {
		return e.Unwrap().Error() + ": " + e.Code.String()
	}
	return e.Op + ": " + e.Code.String()
}

func (e *CodeError) Unwrap() error {
	switch e.Code {
	case CodeFile:
		return ErrIOFailure
	case CodePassword:
		return ErrPasswordRequired
	}
	return ErrInvalidFormat
}

//go:build !pdfium || !cgo

package pdfium

import (
	"errors"
	"testing"
)

func TestNewWithoutBackend(t *testing.T) {
	if Available() {
		t.Fatalf("Available() = true in a build without the backend")
	}
	if _, err := New(); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("New() error = %v, want ErrNotAvailable", err)
	}
}

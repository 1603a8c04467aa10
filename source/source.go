// Package source provides engine.Source implementations over afero
// filesystems, arbitrary io.ReaderAt values and byte slices.
package source

import (
	"bytes"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wudi/pdfium/engine"
)

// sniffLen is how much of a source Sniff inspects.
const sniffLen = 3072

// File is an engine.Source backed by an afero file. Documents opened from
// a File do not close it.
type File struct {
	file afero.File
	size int64
}

var _ engine.Source = (*File)(nil)

// Open opens name on fs. Directories are rejected.
func Open(fs afero.Fs, name string) (*File, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.WithStack(err)
	}
	if info.IsDir() {
		f.Close()
		return nil, errors.Errorf("%s is a directory", name)
	}
	return &File{file: f, size: info.Size()}, nil
}

func (f *File) ReadAt(p []byte, off int64) (int, error) { return f.file.ReadAt(p, off) }
func (f *File) Size() int64                             { return f.size }
func (f *File) Name() string                            { return f.file.Name() }
func (f *File) Close() error                            { return f.file.Close() }

type sized struct {
	io.ReaderAt
	size int64
}

func (s sized) Size() int64 { return s.size }

// Wrap pairs r with its size.
func Wrap(r io.ReaderAt, size int64) engine.Source {
	return sized{ReaderAt: r, size: size}
}

// Bytes serves b from memory.
func Bytes(b []byte) engine.Source { return bytes.NewReader(b) }

// Sniff detects the content type from the head of src.
func Sniff(src engine.Source) (*mimetype.MIME, error) {
	n := src.Size()
	if n > sniffLen {
		n = sniffLen
	}
	mt, err := mimetype.DetectReader(io.NewSectionReader(src, 0, n))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return mt, nil
}

// IsPDF reports whether src starts like a PDF file.
func IsPDF(src engine.Source) bool {
	mt, err := Sniff(src)
	return err == nil && mt.Is("application/pdf")
}

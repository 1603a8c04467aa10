//go:build pdfium && cgo

package pdfium

/*
#include <stddef.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"
)

// goGetBlock serves pdfium's FPDF_FILEACCESS reads from the document's
// engine.Source.
//
//export goGetBlock
func goGetBlock(param unsafe.Pointer, position C.ulong, buf *C.uchar, size C.ulong) C.int {
	r := cgo.Handle(uintptr(param)).Value().(*blockReader)
	if size == 0 {
		return 1
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(size))
	if err := r.read(dst, int64(position)); err != nil {
		return 0
	}
	return 1
}

//go:build pdfium && cgo

package pdfium

/*
#cgo pkg-config: pdfium
#include <stdlib.h>
#include <stdint.h>
#include <fpdfview.h>
#include <fpdf_doc.h>
#include <fpdf_text.h>

extern int goGetBlock(void* param, unsigned long position, unsigned char* buf, unsigned long size);

static FPDF_FILEACCESS* pdfium_new_access(unsigned long length, uintptr_t handle) {
	FPDF_FILEACCESS* a = (FPDF_FILEACCESS*)calloc(1, sizeof(FPDF_FILEACCESS));
	if (a == NULL) {
		return NULL;
	}
	a->m_FileLen = length;
	a->m_GetBlock = goGetBlock;
	a->m_Param = (void*)handle;
	return a;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"io"
	"runtime/cgo"
	"strings"
	"sync"
	"unsafe"

	"github.com/gabriel-vasile/mimetype"
	"github.com/wudi/pdfium/bitmap"
	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/geometry"
	"golang.org/x/text/encoding/unicode"
)

// maxOutlineDepth stops outline walks on malformed, cyclic trees.
const maxOutlineDepth = 64

var (
	libMu   sync.Mutex
	libRefs int
)

func acquireLibrary() {
	libMu.Lock()
	defer libMu.Unlock()
	if libRefs == 0 {
		C.FPDF_InitLibrary()
	}
	libRefs++
}

func releaseLibrary() {
	libMu.Lock()
	defer libMu.Unlock()
	libRefs--
	if libRefs == 0 {
		C.FPDF_DestroyLibrary()
	}
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func decodeUTF16(b []byte) string {
	s, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(s), "\x00")
}

// blockReader adapts an engine.Source to FPDF_FILEACCESS and remembers the
// first read failure so that it can be reported instead of a format error.
type blockReader struct {
	src engine.Source
	err error
}

func (r *blockReader) read(dst []byte, off int64) error {
	n, err := r.src.ReadAt(dst, off)
	if n == len(dst) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if r.err == nil {
		r.err = err
	}
	return err
}

type document struct {
	handle C.FPDF_DOCUMENT
	access *C.FPDF_FILEACCESS
	reader cgo.Handle
}

func (d *document) free() {
	C.FPDF_CloseDocument(d.handle)
	C.free(unsafe.Pointer(d.access))
	d.reader.Delete()
}

type search struct {
	handle C.FPDF_SCHHANDLE
	needle unsafe.Pointer
}

func (s *search) free() {
	C.FPDFText_FindClose(s.handle)
	C.free(s.needle)
}

// Engine drives pdfium. Its tables are safe for concurrent use but pdfium
// itself is not: calls must be serialized by the caller.
type Engine struct {
	mu       sync.Mutex
	nextID   uintptr
	closed   bool
	docs     map[engine.DocumentID]*document
	pages    map[engine.PageID]C.FPDF_PAGE
	texts    map[engine.TextPageID]C.FPDF_TEXTPAGE
	searches map[engine.SearchID]*search
}

var _ engine.Engine = (*Engine)(nil)

// Available reports whether the backend was compiled in.
func Available() bool { return true }

// New initializes the library. Each engine holds a reference that Close
// drops.
func New() (engine.Engine, error) {
	acquireLibrary()
	return &Engine{
		docs:     make(map[engine.DocumentID]*document),
		pages:    make(map[engine.PageID]C.FPDF_PAGE),
		texts:    make(map[engine.TextPageID]C.FPDF_TEXTPAGE),
		searches: make(map[engine.SearchID]*search),
	}, nil
}

func (e *Engine) Name() string { return Name }

// Close releases everything the engine still holds, children before
// parents, and then its library reference. Later calls fail with
// ErrEngineClosed and releases become no-ops.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	searches, texts, pages, docs := e.searches, e.texts, e.pages, e.docs
	e.searches = make(map[engine.SearchID]*search)
	e.texts = make(map[engine.TextPageID]C.FPDF_TEXTPAGE)
	e.pages = make(map[engine.PageID]C.FPDF_PAGE)
	e.docs = make(map[engine.DocumentID]*document)
	e.mu.Unlock()

	for _, s := range searches {
		s.free()
	}
	for _, t := range texts {
		C.FPDFText_ClosePage(t)
	}
	for _, p := range pages {
		C.FPDF_ClosePage(p)
	}
	for _, d := range docs {
		d.free()
	}
	releaseLibrary()
	return nil
}

func (e *Engine) issue() uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	return e.nextID
}

func lookup[K ~uintptr, V any](e *Engine, m map[K]V, kind string, id K) (V, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var zero V
	if e.closed {
		return zero, ErrEngineClosed
	}
	v, ok := m[id]
	if !ok {
		return zero, fmt.Errorf("pdfium: unknown %s %d", kind, id)
	}
	return v, nil
}

func take[K ~uintptr, V any](e *Engine, m map[K]V, kind string, id K) (V, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var zero V
	if e.closed {
		return zero, ErrEngineClosed
	}
	v, ok := m[id]
	if !ok {
		return zero, fmt.Errorf("pdfium: %s %d already released", kind, id)
	}
	delete(m, id)
	return v, nil
}

// store records a new object unless the engine was closed meanwhile, in
// which case the caller frees it.
func store[K ~uintptr, V any](e *Engine, m *map[K]V, id K, v V) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	(*m)[id] = v
	return nil
}

// released maps the outcome of take for the Close* methods: after the
// engine shut down everything is already freed.
func released(err error) error {
	if errors.Is(err, ErrEngineClosed) {
		return nil
	}
	return err
}

func lastError(op string) error {
	code := engine.Code(C.FPDF_GetLastError())
	if code == engine.CodeSuccess {
		code = engine.CodeUnknown
	}
	return code.Err(op)
}

func sniff(src engine.Source) string {
	n := src.Size()
	if n > 3072 {
		n = 3072
	}
	mt, err := mimetype.DetectReader(io.NewSectionReader(src, 0, n))
	if err != nil {
		return ""
	}
	return mt.String()
}

func (e *Engine) OpenDocument(src engine.Source, password string) (engine.DocumentID, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return 0, ErrEngineClosed
	}
	size := src.Size()
	if size <= 0 {
		return 0, fmt.Errorf("file is empty: %w", engine.ErrIOFailure)
	}
	br := &blockReader{src: src}
	h := cgo.NewHandle(br)
	access := C.pdfium_new_access(C.ulong(size), C.uintptr_t(h))
	if access == nil {
		h.Delete()
		return 0, fmt.Errorf("allocate file access: %w", engine.ErrIOFailure)
	}

	var cpass C.FPDF_BYTESTRING
	if password != "" {
		cs := C.CString(password)
		defer C.free(unsafe.Pointer(cs))
		cpass = C.FPDF_BYTESTRING(unsafe.Pointer(cs))
	}
	doc := C.FPDF_LoadCustomDocument(access, cpass)
	if doc == nil {
		err := lastError("open")
		C.free(unsafe.Pointer(access))
		h.Delete()
		if br.err != nil {
			return 0, fmt.Errorf("read source: %v: %w", br.err, engine.ErrIOFailure)
		}
		if ce, ok := err.(*engine.CodeError); ok && ce.Code == engine.CodeFormat {
			if mt := sniff(src); mt != "" && !strings.HasPrefix(mt, "application/pdf") {
				return 0, fmt.Errorf("content is %s: %w", mt, err)
			}
		}
		return 0, err
	}

	d := &document{handle: doc, access: access, reader: h}
	id := engine.DocumentID(e.issue())
	if err := store(e, &e.docs, id, d); err != nil {
		d.free()
		return 0, err
	}
	return id, nil
}

func (e *Engine) CloseDocument(id engine.DocumentID) error {
	d, err := take(e, e.docs, "document", id)
	if err != nil {
		return released(err)
	}
	d.free()
	return nil
}

func (e *Engine) PageCount(id engine.DocumentID) (int, error) {
	d, err := lookup(e, e.docs, "document", id)
	if err != nil {
		return 0, err
	}
	return int(C.FPDF_GetPageCount(d.handle)), nil
}

func (e *Engine) PageSize(id engine.DocumentID, index int) (float64, float64, error) {
	d, err := lookup(e, e.docs, "document", id)
	if err != nil {
		return 0, 0, err
	}
	var w, h C.double
	if C.FPDF_GetPageSizeByIndex(d.handle, C.int(index), &w, &h) == 0 {
		return 0, 0, engine.CodePage.Err("page size")
	}
	return float64(w), float64(h), nil
}

func (e *Engine) FormatVersion(id engine.DocumentID) (int, error) {
	d, err := lookup(e, e.docs, "document", id)
	if err != nil {
		return 0, err
	}
	var v C.int
	if C.FPDF_GetFileVersion(d.handle, &v) == 0 {
		return 0, engine.CodeFormat.Err("file version")
	}
	return int(v), nil
}

func (e *Engine) Metadata(id engine.DocumentID, tag string) (string, error) {
	d, err := lookup(e, e.docs, "document", id)
	if err != nil {
		return "", err
	}
	ctag := C.CString(tag)
	defer C.free(unsafe.Pointer(ctag))
	n := C.FPDF_GetMetaText(d.handle, C.FPDF_BYTESTRING(unsafe.Pointer(ctag)), nil, 0)
	if n <= 2 {
		return "", nil
	}
	buf := C.malloc(C.size_t(n))
	defer C.free(buf)
	C.FPDF_GetMetaText(d.handle, C.FPDF_BYTESTRING(unsafe.Pointer(ctag)), buf, n)
	return decodeUTF16(C.GoBytes(buf, C.int(n))), nil
}

func bookmarkTitle(bm C.FPDF_BOOKMARK) string {
	n := C.FPDFBookmark_GetTitle(bm, nil, 0)
	if n <= 2 {
		return ""
	}
	buf := C.malloc(C.size_t(n))
	defer C.free(buf)
	C.FPDFBookmark_GetTitle(bm, buf, n)
	return decodeUTF16(C.GoBytes(buf, C.int(n)))
}

func destPage(doc C.FPDF_DOCUMENT, dest C.FPDF_DEST) int {
	if dest == nil {
		return -1
	}
	return int(C.FPDFDest_GetDestPageIndex(doc, dest))
}

func actionPage(doc C.FPDF_DOCUMENT, action C.FPDF_ACTION) int {
	if action == nil || C.FPDFAction_GetType(action) != C.PDFACTION_GOTO {
		return -1
	}
	return destPage(doc, C.FPDFAction_GetDest(doc, action))
}

func (e *Engine) Outline(id engine.DocumentID) ([]engine.OutlineEntry, error) {
	d, err := lookup(e, e.docs, "document", id)
	if err != nil {
		return nil, err
	}
	var out []engine.OutlineEntry
	seen := make(map[C.FPDF_BOOKMARK]bool)
	var walk func(parent C.FPDF_BOOKMARK, level int)
	walk = func(parent C.FPDF_BOOKMARK, level int) {
		if level > maxOutlineDepth {
			return
		}
		for bm := C.FPDFBookmark_GetFirstChild(d.handle, parent); bm != nil; bm = C.FPDFBookmark_GetNextSibling(d.handle, bm) {
			if seen[bm] {
				return
			}
			seen[bm] = true
			page := destPage(d.handle, C.FPDFBookmark_GetDest(d.handle, bm))
			if page < 0 {
				page = actionPage(d.handle, C.FPDFBookmark_GetAction(bm))
			}
			out = append(out, engine.OutlineEntry{Title: bookmarkTitle(bm), Page: page, Level: level})
			walk(bm, level+1)
		}
	}
	walk(nil, 0)
	return out, nil
}

func (e *Engine) OpenPage(id engine.DocumentID, index int) (engine.PageID, error) {
	d, err := lookup(e, e.docs, "document", id)
	if err != nil {
		return 0, err
	}
	p := C.FPDF_LoadPage(d.handle, C.int(index))
	if p == nil {
		return 0, lastError("load page")
	}
	pid := engine.PageID(e.issue())
	if err := store(e, &e.pages, pid, p); err != nil {
		C.FPDF_ClosePage(p)
		return 0, err
	}
	return pid, nil
}

func (e *Engine) ClosePage(id engine.PageID) error {
	p, err := take(e, e.pages, "page", id)
	if err != nil {
		return released(err)
	}
	C.FPDF_ClosePage(p)
	return nil
}

// RenderPage renders into a scratch pdfium bitmap covering the visible part
// of the request and copies it into the target. RGBA targets use BGRA with
// reversed byte order; RGB565 targets go through 24-bit BGR.
func (e *Engine) RenderPage(id engine.PageID, req engine.RenderRequest) error {
	page, err := lookup(e, e.pages, "page", id)
	if err != nil {
		return err
	}
	t := req.Target
	if t == nil {
		return fmt.Errorf("render without target: %w", engine.ErrBufferTooSmall)
	}
	if err := bitmap.Validate(t); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrBufferTooSmall, err)
	}
	clip := image.Rect(req.X, req.Y, req.X+req.Width, req.Y+req.Height).
		Intersect(image.Rect(0, 0, t.Width(), t.Height()))
	if clip.Empty() {
		return nil
	}

	flags := req.Flags &^ engine.RenderReverseByteOrder
	var (
		format C.int
		bpp    int
	)
	switch t.Format() {
	case bitmap.FormatRGBA:
		format, bpp = C.FPDFBitmap_BGRA, 4
		flags |= engine.RenderReverseByteOrder
	case bitmap.FormatRGB565:
		format, bpp = C.FPDFBitmap_BGR, 3
	default:
		return fmt.Errorf("render into %s: %w", t.Format(), engine.ErrUnsupportedContent)
	}

	cw, ch := clip.Dx(), clip.Dy()
	stride := cw * bpp
	mem := C.malloc(C.size_t(stride * ch))
	if mem == nil {
		return fmt.Errorf("allocate %dx%d scratch bitmap: %w", cw, ch, engine.ErrBufferTooSmall)
	}
	defer C.free(mem)
	bmp := C.FPDFBitmap_CreateEx(C.int(cw), C.int(ch), format, mem, C.int(stride))
	if bmp == nil {
		return lastError("create bitmap")
	}
	defer C.FPDFBitmap_Destroy(bmp)

	C.FPDFBitmap_FillRect(bmp, 0, 0, C.int(cw), C.int(ch), 0xFFFFFFFF)
	C.FPDF_RenderPageBitmap(bmp, page,
		C.int(req.X-clip.Min.X), C.int(req.Y-clip.Min.Y),
		C.int(req.Width), C.int(req.Height),
		C.int(req.Rotation.Normalize()), C.int(flags))

	src := unsafe.Slice((*byte)(mem), stride*ch)
	pix, tstride := t.Pix(), t.Stride()
	switch t.Format() {
	case bitmap.FormatRGBA:
		for y := 0; y < ch; y++ {
			off := (clip.Min.Y+y)*tstride + clip.Min.X*4
			copy(pix[off:off+stride], src[y*stride:(y+1)*stride])
		}
	case bitmap.FormatRGB565:
		bitmap.WrapRGB565(pix[clip.Min.Y*tstride+clip.Min.X*2:], cw, ch, tstride).FromBGR(src, stride)
	}
	return nil
}

func uriPath(doc C.FPDF_DOCUMENT, action C.FPDF_ACTION) string {
	n := C.FPDFAction_GetURIPath(doc, action, nil, 0)
	if n <= 1 {
		return ""
	}
	buf := C.malloc(C.size_t(n))
	defer C.free(buf)
	C.FPDFAction_GetURIPath(doc, action, buf, n)
	return strings.TrimRight(string(C.GoBytes(buf, C.int(n))), "\x00")
}

func (e *Engine) PageLinks(docID engine.DocumentID, id engine.PageID) ([]engine.LinkInfo, error) {
	d, err := lookup(e, e.docs, "document", docID)
	if err != nil {
		return nil, err
	}
	page, err := lookup(e, e.pages, "page", id)
	if err != nil {
		return nil, err
	}
	var out []engine.LinkInfo
	pos := C.int(0)
	for {
		var link C.FPDF_LINK
		if C.FPDFLink_Enumerate(page, &pos, &link) == 0 {
			break
		}
		info := engine.LinkInfo{TargetPage: destPage(d.handle, C.FPDFLink_GetDest(d.handle, link))}
		if action := C.FPDFLink_GetAction(link); action != nil {
			switch C.FPDFAction_GetType(action) {
			case C.PDFACTION_URI:
				info.URI = uriPath(d.handle, action)
			case C.PDFACTION_GOTO:
				if info.TargetPage < 0 {
					info.TargetPage = actionPage(d.handle, action)
				}
			}
		}
		var r C.FS_RECTF
		if C.FPDFLink_GetAnnotRect(link, &r) != 0 {
			info.Bounds = geometry.RectF{
				Left:   float64(r.left),
				Top:    float64(r.top),
				Right:  float64(r.right),
				Bottom: float64(r.bottom),
			}
		}
		out = append(out, info)
	}
	return out, nil
}

func (e *Engine) OpenTextPage(id engine.PageID) (engine.TextPageID, error) {
	page, err := lookup(e, e.pages, "page", id)
	if err != nil {
		return 0, err
	}
	t := C.FPDFText_LoadPage(page)
	if t == nil {
		return 0, fmt.Errorf("load text page: %w", engine.ErrUnsupportedContent)
	}
	tid := engine.TextPageID(e.issue())
	if err := store(e, &e.texts, tid, t); err != nil {
		C.FPDFText_ClosePage(t)
		return 0, err
	}
	return tid, nil
}

func (e *Engine) CloseTextPage(id engine.TextPageID) error {
	t, err := take(e, e.texts, "text page", id)
	if err != nil {
		return released(err)
	}
	C.FPDFText_ClosePage(t)
	return nil
}

func (e *Engine) CharCount(id engine.TextPageID) (int, error) {
	t, err := lookup(e, e.texts, "text page", id)
	if err != nil {
		return 0, err
	}
	n := int(C.FPDFText_CountChars(t))
	if n < 0 {
		return 0, fmt.Errorf("count characters: %w", engine.ErrUnsupportedContent)
	}
	return n, nil
}

func (e *Engine) CharIndexAt(id engine.TextPageID, x, y, tolX, tolY float64) (int, error) {
	t, err := lookup(e, e.texts, "text page", id)
	if err != nil {
		return 0, err
	}
	i := int(C.FPDFText_GetCharIndexAtPos(t, C.double(x), C.double(y), C.double(tolX), C.double(tolY)))
	if i == -3 {
		return -1, engine.CodeUnknown.Err("hit test")
	}
	if i < 0 {
		return -1, nil
	}
	return i, nil
}

func (e *Engine) TextRange(id engine.TextPageID, start, count int) (string, error) {
	t, err := lookup(e, e.texts, "text page", id)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "", nil
	}
	buf := C.malloc(C.size_t((count + 1) * 2))
	defer C.free(buf)
	n := C.FPDFText_GetText(t, C.int(start), C.int(count), (*C.ushort)(buf))
	if n <= 0 {
		return "", nil
	}
	return decodeUTF16(C.GoBytes(buf, n*2)), nil
}

func (e *Engine) CharRects(id engine.TextPageID, start, count int) ([]geometry.RectF, error) {
	t, err := lookup(e, e.texts, "text page", id)
	if err != nil {
		return nil, err
	}
	n := int(C.FPDFText_CountRects(t, C.int(start), C.int(count)))
	out := make([]geometry.RectF, 0, n)
	for i := 0; i < n; i++ {
		var l, tp, r, b C.double
		if C.FPDFText_GetRect(t, C.int(i), &l, &tp, &r, &b) == 0 {
			continue
		}
		out = append(out, geometry.RectF{Left: float64(l), Top: float64(tp), Right: float64(r), Bottom: float64(b)})
	}
	return out, nil
}

func (e *Engine) StartSearch(id engine.TextPageID, needle string, flags engine.SearchFlags, start int) (engine.SearchID, error) {
	t, err := lookup(e, e.texts, "text page", id)
	if err != nil {
		return 0, err
	}
	encoded, err := utf16le.NewEncoder().Bytes([]byte(needle + "\x00"))
	if err != nil {
		return 0, fmt.Errorf("encode needle: %w", err)
	}
	cneedle := C.CBytes(encoded)
	h := C.FPDFText_FindStart(t, C.FPDF_WIDESTRING(cneedle), C.ulong(flags), C.int(start))
	if h == nil {
		C.free(cneedle)
		return 0, engine.CodeUnknown.Err("start search")
	}
	sch := &search{handle: h, needle: cneedle}
	sid := engine.SearchID(e.issue())
	if err := store(e, &e.searches, sid, sch); err != nil {
		sch.free()
		return 0, err
	}
	return sid, nil
}

func (e *Engine) SearchNext(id engine.SearchID) (bool, error) {
	s, err := lookup(e, e.searches, "search", id)
	if err != nil {
		return false, err
	}
	return C.FPDFText_FindNext(s.handle) != 0, nil
}

func (e *Engine) SearchPrev(id engine.SearchID) (bool, error) {
	s, err := lookup(e, e.searches, "search", id)
	if err != nil {
		return false, err
	}
	return C.FPDFText_FindPrev(s.handle) != 0, nil
}

func (e *Engine) SearchResult(id engine.SearchID) (int, int, error) {
	s, err := lookup(e, e.searches, "search", id)
	if err != nil {
		return 0, 0, err
	}
	return int(C.FPDFText_GetSchResultIndex(s.handle)), int(C.FPDFText_GetSchCount(s.handle)), nil
}

func (e *Engine) CloseSearch(id engine.SearchID) error {
	s, err := take(e, e.searches, "search", id)
	if err != nil {
		return released(err)
	}
	s.free()
	return nil
}

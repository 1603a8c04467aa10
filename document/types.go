package document

import (
	"fmt"
	"math/bits"

	"github.com/wudi/pdfium/geometry"
)

// NoTarget is the page of a bookmark or link without an in-document
// destination.
const NoTarget = -1

// NoCharacter is returned by CharIndexAt when no glyph is at the point.
const NoCharacter = -1

// Size is a page size truncated to whole page units.
type Size struct {
	Width  int
	Height int
}

func (s Size) Equal(o Size) bool { return s == o }

// Hash mixes both dimensions; swapping them changes the hash unless they
// are equal.
func (s Size) Hash() uint32 {
	return uint32(s.Height) ^ bits.RotateLeft32(uint32(s.Width), 16)
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Bookmark is one entry of the flattened outline. Level is the nesting
// depth, zero for top level entries.
type Bookmark struct {
	Title string
	Page  int
	Level int
}

// Link is a link annotation. Index is the link's position on its page.
type Link struct {
	URI        string
	Index      int
	Bounds     geometry.RectF
	TargetPage int
}

// SearchResult is a half-open character range; Count == 0 means no match.
type SearchResult struct {
	Start int
	Count int
}

// MetaKey names one of the standard document information entries.
type MetaKey string

const (
	MetaTitle        MetaKey = "Title"
	MetaAuthor       MetaKey = "Author"
	MetaSubject      MetaKey = "Subject"
	MetaKeywords     MetaKey = "Keywords"
	MetaCreator      MetaKey = "Creator"
	MetaProducer     MetaKey = "Producer"
	MetaCreationDate MetaKey = "CreationDate"
	MetaModDate      MetaKey = "ModDate"
)

// MetaKeys lists the supported keys in their conventional order.
var MetaKeys = []MetaKey{
	MetaTitle, MetaAuthor, MetaSubject, MetaKeywords,
	MetaCreator, MetaProducer, MetaCreationDate, MetaModDate,
}

func (k MetaKey) known() bool {
	for _, m := range MetaKeys {
		if m == k {
			return true
		}
	}
	return false
}

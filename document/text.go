package document

import (
	"fmt"

	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/geometry"
	"github.com/wudi/pdfium/handle"
)

// DefaultTolerance is the hit-test slack, in page units, used by
// CharIndexAt.
const DefaultTolerance = 1.0

// TextPage gives character level access to a page's text.
type TextPage struct {
	page  *Page
	h     *handle.Handle[engine.TextPageID]
	count int
}

func (t *TextPage) id(op string) (engine.TextPageID, error) {
	id, err := t.h.Get()
	if err != nil {
		return 0, opError(op, err)
	}
	return id, nil
}

func (t *TextPage) checkRange(op string, start, count int) error {
	if start < 0 || count < 0 || start+count > t.count {
		return opError(op, fmt.Errorf("%w: [%d,+%d) of %d characters", ErrRangeOutOfBounds, start, count, t.count))
	}
	return nil
}

// CharCount returns the number of characters, fixed once the text page is
// built.
func (t *TextPage) CharCount() (int, error) {
	if _, err := t.id("CharCount"); err != nil {
		return 0, err
	}
	return t.count, nil
}

// CharIndexAt returns the index of the character at the page point (x, y)
// or NoCharacter.
func (t *TextPage) CharIndexAt(x, y float64) (int, error) {
	return t.CharIndexAtTolerance(x, y, DefaultTolerance, DefaultTolerance)
}

func (t *TextPage) CharIndexAtTolerance(x, y, tolX, tolY float64) (int, error) {
	id, err := t.id("CharIndexAt")
	if err != nil {
		return NoCharacter, err
	}
	idx := NoCharacter
	err = t.page.doc.call(func() error {
		var err error
		idx, err = t.page.doc.eng.CharIndexAt(id, x, y, tolX, tolY)
		return err
	})
	if err != nil {
		return NoCharacter, opError("CharIndexAt", err)
	}
	if idx < 0 || idx >= t.count {
		return NoCharacter, nil
	}
	return idx, nil
}

// Text returns count characters starting at start.
func (t *TextPage) Text(start, count int) (string, error) {
	id, err := t.id("Text")
	if err != nil {
		return "", err
	}
	if err := t.checkRange("Text", start, count); err != nil {
		return "", err
	}
	if count == 0 {
		return "", nil
	}
	var s string
	err = t.page.doc.call(func() error {
		var err error
		s, err = t.page.doc.eng.TextRange(id, start, count)
		return err
	})
	return s, opError("Text", err)
}

// Bounds returns one page space rectangle per visual run of the range.
func (t *TextPage) Bounds(start, count int) ([]geometry.RectF, error) {
	id, err := t.id("Bounds")
	if err != nil {
		return nil, err
	}
	if err := t.checkRange("Bounds", start, count); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	var rects []geometry.RectF
	err = t.page.doc.call(func() error {
		var err error
		rects, err = t.page.doc.eng.CharRects(id, start, count)
		return err
	})
	if err != nil {
		return nil, opError("Bounds", err)
	}
	return rects, nil
}

// SearchFlags select matching rules. The zero value matches substrings
// case-insensitively.
type SearchFlags struct {
	MatchCase bool
	WholeWord bool
	// Consecutive also reports matches that overlap the previous one.
	Consecutive bool
}

func (f SearchFlags) bits() engine.SearchFlags {
	var b engine.SearchFlags
	if f.MatchCase {
		b |= engine.MatchCase
	}
	if f.WholeWord {
		b |= engine.MatchWholeWord
	}
	if f.Consecutive {
		b |= engine.MatchConsecutive
	}
	return b
}

// SearchFromEnd starts a search after the last character.
const SearchFromEnd = -1

// Search starts a session positioned at character index start, which must
// be in [0, CharCount()] or SearchFromEnd.
func (t *TextPage) Search(needle string, flags SearchFlags, start int) (*SearchSession, error) {
	id, err := t.id("Search")
	if err != nil {
		return nil, err
	}
	if start != SearchFromEnd && (start < 0 || start > t.count) {
		return nil, opError("Search", fmt.Errorf("%w: start %d of %d characters", ErrRangeOutOfBounds, start, t.count))
	}
	var sid engine.SearchID
	err = t.page.doc.call(func() error {
		var err error
		sid, err = t.page.doc.eng.StartSearch(id, needle, flags.bits(), start)
		return err
	})
	if err != nil {
		return nil, opError("Search", err)
	}
	h, err := handle.NewChild(t.h, kindSearch, sid, func(id engine.SearchID) error {
		return t.page.doc.call(func() error { return t.page.doc.eng.CloseSearch(id) })
	})
	if err != nil {
		return nil, opError("Search", err)
	}
	return newSearchSession(t, h, needle, flags, start), nil
}

// Close closes the text page's search sessions, then the text page.
func (t *TextPage) Close() { t.h.Close() }

package document

import (
	"github.com/wudi/pdfium/engine"
	"github.com/wudi/pdfium/handle"
)

// SearchState is the position of a SearchSession.
type SearchState int

const (
	// StateStart is positioned at the start index with no match yet.
	StateStart SearchState = iota
	StateBeforeAll
	StateAtMatch
	StateAfterAll
	// StateExhausted means the page holds no match in either direction.
	StateExhausted
)

func (s SearchState) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateBeforeAll:
		return "before-all"
	case StateAtMatch:
		return "at-match"
	case StateAfterAll:
		return "after-all"
	case StateExhausted:
		return "exhausted"
	}
	return "unknown"
}

// SearchSession iterates over the matches of a needle in both directions.
//
// Next from StateAfterAll and Prev from StateBeforeAll return false without
// wrapping around. Stepping Next and then Prev from a match returns to that
// match.
type SearchSession struct {
	text   *TextPage
	h      *handle.Handle[engine.SearchID]
	needle string
	flags  SearchFlags
	start  int

	state   SearchState
	current SearchResult
	// seen is set once any step found a match; fwdDone and backDone record
	// that a direction found nothing at all from the start position.
	seen     bool
	fwdDone  bool
	backDone bool
}

func newSearchSession(t *TextPage, h *handle.Handle[engine.SearchID], needle string, flags SearchFlags, start int) *SearchSession {
	s := &SearchSession{text: t, h: h, needle: needle, flags: flags, start: start}
	switch {
	case needle == "" || t.count == 0:
		s.state = StateExhausted
	case start == 0:
		s.state = StateBeforeAll
		s.backDone = true
	case start == SearchFromEnd || start == t.count:
		s.state = StateAfterAll
		s.fwdDone = true
	default:
		s.state = StateStart
	}
	return s
}

func (s *SearchSession) Needle() string     { return s.needle }
func (s *SearchSession) Flags() SearchFlags { return s.flags }
func (s *SearchSession) Start() int         { return s.start }
func (s *SearchSession) State() SearchState { return s.state }

// Next moves to the following match. It reports false once no match
// remains forward.
func (s *SearchSession) Next() (bool, error) {
	return s.step("Next", true)
}

// Prev moves to the preceding match. It reports false once no match
// remains backward.
func (s *SearchSession) Prev() (bool, error) {
	return s.step("Prev", false)
}

func (s *SearchSession) step(op string, forward bool) (bool, error) {
	id, err := s.h.Get()
	if err != nil {
		return false, opError(op, err)
	}
	switch {
	case s.state == StateExhausted:
		return false, nil
	case forward && s.state == StateAfterAll:
		return false, nil
	case !forward && s.state == StateBeforeAll:
		return false, nil
	}

	var (
		ok           bool
		start, count int
	)
	doc := s.text.page.doc
	err = doc.call(func() error {
		var err error
		if forward {
			ok, err = doc.eng.SearchNext(id)
		} else {
			ok, err = doc.eng.SearchPrev(id)
		}
		if err != nil || !ok {
			return err
		}
		start, count, err = doc.eng.SearchResult(id)
		return err
	})
	if err != nil {
		return false, opError(op, err)
	}

	if ok && count > 0 {
		s.state = StateAtMatch
		s.current = SearchResult{Start: start, Count: count}
		s.seen = true
		return true, nil
	}
	s.current = SearchResult{}
	if forward {
		s.fwdDone = true
		s.state = StateAfterAll
	} else {
		s.backDone = true
		s.state = StateBeforeAll
	}
	if !s.seen && s.fwdDone && s.backDone {
		s.state = StateExhausted
	}
	return false, nil
}

// Result returns the current match. Outside StateAtMatch it returns the
// zero SearchResult together with ErrNoCurrentMatch.
func (s *SearchSession) Result() (SearchResult, error) {
	if err := s.h.Err(); err != nil {
		return SearchResult{}, opError("Result", err)
	}
	if s.state != StateAtMatch {
		return SearchResult{}, opError("Result", ErrNoCurrentMatch)
	}
	return s.current, nil
}

// Close releases the session.
func (s *SearchSession) Close() { s.h.Close() }

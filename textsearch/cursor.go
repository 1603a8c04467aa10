package textsearch

// Cursor walks a fixed set of matches in both directions the way a native
// find handle does. It keeps the index the next forward step returns and
// the index the next backward step returns.
//
// A successful step to match k sets them to k+1 and k-1, so stepping back
// after stepping forward returns to the same match. A failed forward step
// parks the cursor past the last match, a failed backward step before the
// first.
type Cursor struct {
	matches []Match
	next    int
	prev    int
	cur     int
}

// NewCursor positions a cursor at the character index start. Forward steps
// return matches starting at or after start, backward steps those starting
// before it. A negative start positions the cursor after all matches.
func NewCursor(matches []Match, start int) *Cursor {
	g := len(matches)
	if start >= 0 {
		g = 0
		for g < len(matches) && matches[g].Start < start {
			g++
		}
	}
	return &Cursor{matches: matches, next: g, prev: g - 1, cur: -1}
}

func (c *Cursor) Len() int { return len(c.matches) }

func (c *Cursor) Next() bool {
	if c.next < len(c.matches) {
		c.step(c.next)
		return true
	}
	c.next, c.prev, c.cur = len(c.matches), len(c.matches)-1, -1
	return false
}

func (c *Cursor) Prev() bool {
	if c.prev >= 0 && c.prev < len(c.matches) {
		c.step(c.prev)
		return true
	}
	c.next, c.prev, c.cur = 0, -1, -1
	return false
}

func (c *Cursor) step(k int) {
	c.cur, c.next, c.prev = k, k+1, k-1
}

// Current returns the match the last successful step landed on.
func (c *Cursor) Current() (Match, bool) {
	if c.cur < 0 {
		return Match{}, false
	}
	return c.matches[c.cur], true
}

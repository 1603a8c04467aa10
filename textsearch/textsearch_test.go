package textsearch

import (
	"reflect"
	"testing"
)

func TestFindAll(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		needle string
		opts   Options
		want   []Match
	}{
		{"case insensitive", "The Cat sat.", "at", Options{}, []Match{{5, 2}, {9, 2}}},
		{"case insensitive upper needle", "The Cat sat.", "CAT", Options{}, []Match{{4, 3}}},
		{"match case", "The Cat sat.", "cat", Options{MatchCase: true}, nil},
		{"whole word rejects partial", "The Cat sat.", "at", Options{WholeWord: true}, nil},
		{"whole word at ends", "sat the sat", "sat", Options{WholeWord: true}, []Match{{0, 3}, {8, 3}}},
		{"underscore is a word rune", "a_sat sat", "sat", Options{WholeWord: true}, []Match{{6, 3}}},
		{"non consecutive", "aaaa", "aa", Options{}, []Match{{0, 2}, {2, 2}}},
		{"consecutive", "aaaa", "aa", Options{Consecutive: true}, []Match{{0, 2}, {1, 2}, {2, 2}}},
		{"empty needle", "abc", "", Options{}, nil},
		{"needle longer than text", "ab", "abc", Options{}, nil},
		{"non ascii fold", "STRASSE Ärger", "ärger", Options{}, []Match{{8, 5}}},
		{"needle normalized", "caf\u00e9", "cafe\u0301", Options{}, []Match{{0, 4}}},
		{"decomposed text and needle", "cafe\u0301 au lait", "cafe\u0301", Options{}, []Match{{0, 5}}},
		{"decomposed text composed needle", "cafe\u0301 au lait", "caf\u00e9", Options{}, []Match{{0, 5}}},
		{"indices after decomposed text", "x cafe\u0301 cafe\u0301", "caf\u00e9", Options{}, []Match{{2, 5}, {8, 5}}},
		{"match inside decomposed text", "cafe\u0301 lait", "lait", Options{}, []Match{{6, 4}}},
		{"whole word with combining mark", "cafe\u0301s", "caf\u00e9", Options{WholeWord: true}, nil},
		{"mark is part of its letter", "e\u0301", "e", Options{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindAll([]rune(tt.text), tt.needle, tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FindAll(%q, %q) = %v, want %v", tt.text, tt.needle, got, tt.want)
			}
		})
	}
}

func TestCursorFromStart(t *testing.T) {
	c := NewCursor([]Match{{5, 2}, {9, 2}}, 0)
	if c.Prev() {
		t.Fatalf("Prev() from start should fail")
	}
	if !c.Next() {
		t.Fatalf("Next() should succeed")
	}
	if m, _ := c.Current(); m.Start != 5 {
		t.Fatalf("Current() = %v", m)
	}
	if !c.Next() {
		t.Fatalf("second Next() should succeed")
	}
	if m, _ := c.Current(); m.Start != 9 {
		t.Fatalf("Current() = %v", m)
	}
	if c.Next() {
		t.Fatalf("third Next() should fail")
	}
	if _, ok := c.Current(); ok {
		t.Fatalf("Current() after failed Next should be empty")
	}
	if !c.Prev() {
		t.Fatalf("Prev() after running off the end should succeed")
	}
	if m, _ := c.Current(); m.Start != 9 {
		t.Fatalf("Prev() landed on %v, want start 9", m)
	}
}

func TestCursorSymmetry(t *testing.T) {
	matches := []Match{{0, 1}, {3, 1}, {6, 1}, {9, 1}}
	for start := -1; start <= 10; start++ {
		c := NewCursor(matches, start)
		for c.Next() {
			at, _ := c.Current()
			if c.Next() {
				if !c.Prev() {
					t.Fatalf("start %d: Prev() after Next() failed", start)
				}
			} else if !c.Prev() {
				t.Fatalf("start %d: Prev() after failed Next() failed", start)
			}
			back, _ := c.Current()
			if back != at {
				t.Fatalf("start %d: Next/Prev moved from %v to %v", start, at, back)
			}
		}
	}
}

func TestCursorStartPositions(t *testing.T) {
	matches := []Match{{2, 1}, {5, 1}}
	tests := []struct {
		start    int
		wantNext int
		wantPrev int
	}{
		{0, 2, -1},
		{2, 2, -1},
		{3, 5, 2},
		{6, -1, 5},
		{-1, -1, 5},
	}
	for _, tt := range tests {
		c := NewCursor(matches, tt.start)
		gotNext := -1
		if c.Next() {
			m, _ := c.Current()
			gotNext = m.Start
		}
		c = NewCursor(matches, tt.start)
		gotPrev := -1
		if c.Prev() {
			m, _ := c.Current()
			gotPrev = m.Start
		}
		if gotNext != tt.wantNext || gotPrev != tt.wantPrev {
			t.Fatalf("start %d: next=%d prev=%d, want %d %d", tt.start, gotNext, gotPrev, tt.wantNext, tt.wantPrev)
		}
	}
}

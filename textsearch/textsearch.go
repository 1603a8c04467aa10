// Package textsearch finds a needle in the characters of a text page.
//
// Text and needle are compared in NFC. Match positions are character
// indices into the text exactly as given, so they line up with the character
// indices a text page reports even where normalization merged characters.
package textsearch

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Options mirror the native search flags.
type Options struct {
	MatchCase   bool
	WholeWord   bool
	Consecutive bool
}

// Match is a run of Count characters starting at Start.
type Match struct {
	Start int
	Count int
}

func (m Match) End() int { return m.Start + m.Count }

// FindAll returns every match in ascending order. Without Consecutive the
// scan resumes after the end of each match; with it, matches may overlap.
func FindAll(text []rune, needle string, opts Options) []Match {
	pat := []rune(norm.NFC.String(needle))
	src := normalize(text)
	if len(pat) == 0 || len(pat) > len(src.runes) {
		return nil
	}
	var out []Match
	for i := 0; i+len(pat) <= len(src.runes); {
		if !matchAt(src.runes, pat, i, opts) {
			i++
			continue
		}
		m := Match{Start: src.from[i], Count: src.to[i+len(pat)-1] - src.from[i]}
		if n := len(out); n == 0 || out[n-1].Start != m.Start {
			out = append(out, m)
		}
		if opts.Consecutive {
			i++
		} else {
			i += len(pat)
		}
	}
	return out
}

// normalized is the NFC form of a text. Each rune records the span
// [from, to) of source runes its segment was built from.
type normalized struct {
	runes []rune
	from  []int
	to    []int
}

// normalize composes the text one segment at a time, a segment being a
// starter and the runes that may combine with it.
func normalize(text []rune) normalized {
	out := normalized{
		runes: make([]rune, 0, len(text)),
		from:  make([]int, 0, len(text)),
		to:    make([]int, 0, len(text)),
	}
	for start := 0; start < len(text); {
		end := start + 1
		for end < len(text) && !boundaryBefore(text[end]) {
			end++
		}
		seg := text[start:end]
		if len(seg) > 1 || seg[0] >= utf8.RuneSelf {
			seg = []rune(norm.NFC.String(string(seg)))
		}
		for _, r := range seg {
			out.runes = append(out.runes, r)
			out.from = append(out.from, start)
			out.to = append(out.to, end)
		}
		start = end
	}
	return out
}

func boundaryBefore(r rune) bool {
	if r < utf8.RuneSelf {
		return true
	}
	return norm.NFC.PropertiesString(string(r)).BoundaryBefore()
}

func matchAt(text, pat []rune, at int, opts Options) bool {
	for j, r := range pat {
		if !sameRune(text[at+j], r, opts.MatchCase) {
			return false
		}
	}
	if !opts.WholeWord {
		return true
	}
	if at > 0 && IsWordRune(text[at-1]) {
		return false
	}
	end := at + len(pat)
	return end == len(text) || !IsWordRune(text[end])
}

// sameRune compares under simple case folding, which never changes the
// number of runes.
func sameRune(a, b rune, matchCase bool) bool {
	if a == b {
		return true
	}
	if matchCase {
		return false
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}

// IsWordRune reports whether r belongs to a word: letters, digits, combining
// marks and the underscore.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

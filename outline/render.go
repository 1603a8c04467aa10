package outline

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
)

// Anchor returns the link fragment used for a page, e.g. "#page-3".
func Anchor(page int) string { return "#page-" + Label(page) }

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`,
	`[`, `\[`, `]`, `\]`, `<`, `\<`, `#`, `\#`,
)

// Markdown writes the tree as a nested bullet list. Bookmarks with a
// target link to Anchor(page).
func Markdown(w io.Writer, nodes []*Node) error {
	var err error
	Walk(nodes, func(n *Node, depth int) bool {
		if err != nil {
			return false
		}
		title := markdownTitle(n.Title)
		if title == "" {
			title = "(untitled)"
		}
		indent := strings.Repeat("  ", depth)
		if n.HasTarget() {
			_, err = fmt.Fprintf(w, "%s- [%s](%s)\n", indent, title, Anchor(n.Page))
		} else {
			_, err = fmt.Fprintf(w, "%s- %s\n", indent, title)
		}
		return true
	})
	return err
}

// markdownTitle folds the title onto one line and escapes the inline
// specials and any leading list, quote or heading marker.
func markdownTitle(s string) string {
	s = markdownEscaper.Replace(strings.Join(strings.Fields(s), " "))
	if s == "" {
		return s
	}
	switch s[0] {
	case '-', '+', '>', '=':
		return `\` + s
	}
	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits < len(s) && (s[digits] == '.' || s[digits] == ')') {
		return s[:digits] + `\` + s[digits:]
	}
	return s
}

// HTML renders the Markdown form of the tree with goldmark.
func HTML(w io.Writer, nodes []*Node) error {
	var src bytes.Buffer
	if err := Markdown(&src, nodes); err != nil {
		return err
	}
	return goldmark.Convert(src.Bytes(), w)
}

package parser

import "strings"

// StripMarkup removes <...> sequences from s. It is a heuristic for cells
// pasted from HTML, not a parser: a '<' opens a tag until the next '>'.
func StripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CollapseSpace replaces each run of spaces, tabs and line breaks with a
// single space and trims both ends. Non-breaking spaces count as spaces;
// spreadsheet exports are full of them.
func CollapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\u00a0':
			pending = b.Len() > 0
		default:
			if pending {
				b.WriteByte(' ')
				pending = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

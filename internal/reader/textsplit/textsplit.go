// Package textsplit segments pasted article text into paragraphs.
package textsplit

import (
	"regexp"
	"strings"
)

const minParagraphLen = 20

var (
	blankLinesRe = regexp.MustCompile(`\n{2,}`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Paragraphs splits raw text on blank lines, collapses internal whitespace,
// and drops fragments shorter than 20 characters. Text with no usable split
// comes back as a single paragraph rather than nothing.
func Paragraphs(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []string{}
	}

	var paragraphs []string
	for _, part := range blankLinesRe.Split(trimmed, -1) {
		p := strings.TrimSpace(whitespaceRe.ReplaceAllString(part, " "))
		if len(p) >= minParagraphLen {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return []string{trimmed}
	}
	return paragraphs
}

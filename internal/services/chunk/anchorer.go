package chunk

import (
	"strings"
	"unicode/utf8"
)

const snippetLength = 200

// Span is a page/line-addressed region of text used for citation display
type Span struct {
	Page      int
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive
	Snippet   string
}

// Anchor splits text into lines and partitions them evenly across pageCount
// pages, recording a 1-based inclusive line range and a short snippet per
// non-empty page slice. A page count below 1 treats the whole text as one
// page. Empty text yields nil.
func Anchor(text string, pageCount int) []Span {
	if text == "" {
		return nil
	}
	if pageCount < 1 {
		pageCount = 1
	}

	lines := strings.Split(text, "\n")
	if pageCount > len(lines) {
		pageCount = len(lines)
	}

	linesPerPage := len(lines) / pageCount
	remainder := len(lines) % pageCount

	var spans []Span
	lineNo := 1
	for page := 1; page <= pageCount; page++ {
		count := linesPerPage
		if page <= remainder {
			count++
		}
		if count == 0 {
			continue
		}

		slice := lines[lineNo-1 : lineNo-1+count]
		joined := strings.Join(slice, "\n")
		if strings.TrimSpace(joined) != "" {
			snippet := joined
			if len(snippet) > snippetLength {
				// Back up so the cut never lands mid-rune
				cut := snippetLength
				for cut > 0 && !utf8.RuneStart(snippet[cut]) {
					cut--
				}
				snippet = snippet[:cut]
			}
			spans = append(spans, Span{
				Page:      page,
				StartLine: lineNo,
				EndLine:   lineNo + count - 1,
				Snippet:   snippet,
			})
		}
		lineNo += count
	}

	return spans
}

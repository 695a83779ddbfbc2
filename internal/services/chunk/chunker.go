package chunk

import (
	"strings"
)

// Piece is one chunk of text produced by Split
type Piece struct {
	Index int
	Text  string
}

// Split walks text in windows of size bytes, preferring to cut at a newline
// or sentence boundary found in the back half of the window. Consecutive
// pieces overlap by overlap bytes so a fact spanning a boundary is not lost
// entirely to either piece. Empty text yields nil.
func Split(text string, size, overlap int) []Piece {
	if text == "" || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var pieces []Piece
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			pieces = append(pieces, Piece{Index: len(pieces), Text: text[start:]})
			break
		}

		// Search backward within the window for a natural break, but only
		// accept one past the half-window mark to avoid degenerate pieces.
		cut := end
		window := text[start:end]
		if idx := strings.LastIndex(window, "\n"); idx > size/2 {
			cut = start + idx + 1
		} else if idx := strings.LastIndex(window, ". "); idx > size/2 {
			cut = start + idx + 2
		}

		pieces = append(pieces, Piece{Index: len(pieces), Text: text[start:cut]})

		next := cut - overlap
		if next <= start {
			// Force advancement so a tiny overlap window cannot loop forever
			next = start + 1
		}
		start = next
	}

	return pieces
}

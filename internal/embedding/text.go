package embedding

import (
	"strconv"
	"strings"
)

// MediaText is the canonical input used to synthesize a piece of text for
// embedding. Both the profile builder and the candidate scorer must build
// this the same way so their vectors are comparable.
type MediaText struct {
	Title       string
	Year        int
	Authors     []string
	Genres      []string
	Keywords    []string
	Description string
}

const maxKeywords = 10
const maxDescriptionChars = 500

// Synthesize composes a single deterministic string from the media's
// fields, joined by " | ", matching the text the embedding was generated
// from at ingest time so later comparisons are meaningful.
func Synthesize(m MediaText) string {
	parts := make([]string, 0, 6)
	if m.Title != "" {
		parts = append(parts, m.Title)
	}
	if m.Year != 0 {
		parts = append(parts, strconv.Itoa(m.Year))
	}
	if len(m.Authors) > 0 {
		parts = append(parts, "by "+strings.Join(m.Authors, ", "))
	}
	if len(m.Genres) > 0 {
		parts = append(parts, "Genres: "+strings.Join(m.Genres, ", "))
	}
	if len(m.Keywords) > 0 {
		kw := m.Keywords
		if len(kw) > maxKeywords {
			kw = kw[:maxKeywords]
		}
		parts = append(parts, "Keywords: "+strings.Join(kw, ", "))
	}
	if m.Description != "" {
		parts = append(parts, truncateDescription(m.Description))
	}
	return strings.Join(parts, " | ")
}

func truncateDescription(desc string) string {
	runes := []rune(desc)
	if len(runes) <= maxDescriptionChars {
		return desc
	}
	return string(runes[:maxDescriptionChars]) + "..."
}

package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"recoengine/internal/catalog"
	"recoengine/internal/store"
)

const (
	bookCuratedPreferredScore = 0.80
	bookCuratedOtherScore     = 0.70
	bookCoverBonus            = 0.05
	bookCuratedMaxScore       = 0.95
	bookSecondPassScore       = 0.65
	bookSearchLimit           = 3
	bookSecondPassLimit       = 10
)

// BookInput bundles the per-generation state the book pipeline needs.
type BookInput struct {
	LibraryTitles   []string // every book title the user already owns
	PreferredHints  []string // genre names from books the user rated >= 4, matched case-insensitively
	ExcludedIDs     map[string]bool
	GenreCounts     map[string]int // pre-seeded in completion mode
	Now             time.Time
}

// BookPipeline generates book recommendations from the curated genre
// mapping, entirely independent of any catalog genre classification.
type BookPipeline struct {
	Adapter catalog.BookAdapter
}

func NewBookPipeline(adapter catalog.BookAdapter) *BookPipeline {
	return &BookPipeline{Adapter: adapter}
}

func (p *BookPipeline) Generate(ctx context.Context, userID string, in BookInput) ([]store.Recommendation, error) {
	genreCounts := make(map[string]int, len(in.GenreCounts))
	for k, v := range in.GenreCounts {
		genreCounts[k] = v
	}
	seenIDs := make(map[string]bool)
	seenTitles := make(map[string]bool)
	libraryTitles := lowerAll(in.LibraryTitles)

	ordered := orderBookGenres(in.PreferredHints)
	if len(ordered) > maxTotalGenres {
		ordered = ordered[:maxTotalGenres]
	}

	var recs []store.Recommendation
	for _, genre := range ordered {
		if genreCounts[genre] >= perGenreCap {
			continue
		}
		preferred := isPreferredBookGenre(genre, lowerAll(in.PreferredHints))
		for _, query := range curatedBooks[genre] {
			if genreCounts[genre] >= perGenreCap {
				break
			}
			if matchesAny(strings.ToLower(query), libraryTitles) {
				continue
			}
			results, err := p.Adapter.Search(ctx, query, bookSearchLimit)
			if err != nil {
				log.Printf("pipeline: book search failed for %q: %v", query, err)
				continue
			}
			rec, ok := p.admitFirst(results, genre, preferred, seenIDs, seenTitles, libraryTitles, in.ExcludedIDs)
			if !ok {
				continue
			}
			rec.UserID = userID
			rec.GeneratedAt = in.Now
			recs = append(recs, rec)
			genreCounts[genre]++
		}
	}

	// Second pass: generic search fills any genre still short of the cap.
	for _, genre := range ordered {
		if genreCounts[genre] >= perGenreCap {
			continue
		}
		results, err := p.Adapter.Search(ctx, fmt.Sprintf("best %s books", genre), bookSecondPassLimit)
		if err != nil {
			log.Printf("pipeline: book second pass failed for %q: %v", genre, err)
			continue
		}
		for _, b := range results {
			if genreCounts[genre] >= perGenreCap {
				break
			}
			title := strings.ToLower(b.Title)
			if seenTitles[title] || matchesAny(title, libraryTitles) {
				continue
			}
			id := bookExternalID(b)
			if id == "" || seenIDs[id] || in.ExcludedIDs[id] {
				continue
			}
			seenIDs[id] = true
			seenTitles[title] = true
			recs = append(recs, store.Recommendation{
				UserID: userID, MediaType: store.MediaBook, ExternalID: id, Title: b.Title,
				Year: b.Year, CoverURL: b.CoverURL, Description: b.Description,
				Score: bookSecondPassScore, Source: store.SourcePopular, GenreName: genre,
				GeneratedAt: in.Now,
			})
			genreCounts[genre]++
		}
	}

	return recs, nil
}

func (p *BookPipeline) admitFirst(results []catalog.BookCandidate, genre string, preferred bool, seenIDs, seenTitles map[string]bool, libraryTitles []string, excluded map[string]bool) (store.Recommendation, bool) {
	for _, b := range results {
		title := strings.ToLower(b.Title)
		if seenTitles[title] || matchesAny(title, libraryTitles) {
			continue
		}
		id := bookExternalID(b)
		if id == "" || seenIDs[id] || excluded[id] {
			continue
		}
		seenIDs[id] = true
		seenTitles[title] = true

		score := bookCuratedOtherScore
		source := store.SourcePopular
		if preferred {
			score = bookCuratedPreferredScore
			source = store.SourceCurated
		}
		if b.CoverURL != "" {
			score += bookCoverBonus
		}
		if score > bookCuratedMaxScore {
			score = bookCuratedMaxScore
		}

		return store.Recommendation{
			MediaType: store.MediaBook, ExternalID: id, Title: b.Title, Year: b.Year,
			CoverURL: b.CoverURL, Description: b.Description, Score: score,
			Source: source, GenreName: genre,
		}, true
	}
	return store.Recommendation{}, false
}

// bookExternalID chooses an identifier from the first present of:
// explicit external id, isbn, the tail path segment of an Open Library
// key, the tail path segment of a generic key.
func bookExternalID(b catalog.BookCandidate) string {
	if b.ExternalID != "" {
		return b.ExternalID
	}
	if b.ISBN != "" {
		return b.ISBN
	}
	if tail := pathTail(b.OpenLibraryKey); tail != "" {
		return tail
	}
	return pathTail(b.Key)
}

func pathTail(path string) string {
	if path == "" {
		return ""
	}
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}

func matchesAny(s string, candidates []string) bool {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if strings.Contains(s, c) || strings.Contains(c, s) {
			return true
		}
	}
	return false
}

func isPreferredBookGenre(genre string, hints []string) bool {
	lower := strings.ToLower(genre)
	for _, h := range hints {
		if strings.Contains(h, lower) || strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// orderBookGenres returns the curated genres with preferred ones (those
// matching a user genre hint) first, in curated order, followed by the
// rest, also in curated order.
func orderBookGenres(hints []string) []string {
	lowerHints := lowerAll(hints)
	var preferred, others []string
	for _, genre := range curatedBookGenres {
		if isPreferredBookGenre(genre, lowerHints) {
			preferred = append(preferred, genre)
		} else {
			others = append(others, genre)
		}
	}
	return append(preferred, others...)
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

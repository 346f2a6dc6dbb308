// Package userprofile derives a user's taste state — profile embedding,
// per-genre score map, and dismissed-content profile — from their rated
// media and past dismissals.
package userprofile

import (
	"context"
	"math"
	"sort"

	"recoengine/internal/embedding"
)

// Profile is the transient per-run taste state computed for a single user.
// ProfileEmbedding and DismissedEmbeddings are nil when there isn't enough
// data to compute them — the engine must degrade gracefully rather than
// treat that as an error.
type Profile struct {
	ProfileEmbedding    embedding.Vector
	GenreScores         map[string]float64
	DismissedEmbeddings []embedding.Vector
}

// RatedItem is the subset of a user's media item the profile builder
// needs: its embedding (if any), rating, and genres.
type RatedItem struct {
	Embedding embedding.Vector
	Rating    int
	Genres    []string
}

// Encoder embeds text, used here to batch-embed dismissed-content
// descriptions. Satisfied by *embedding.Service. The async form runs the
// batch on the embedding service's worker pool instead of the caller's own
// goroutine.
type Encoder interface {
	EncodeBatchAsync(ctx context.Context, texts []string) ([]embedding.Vector, error)
}

const (
	minDismissedForProfile = 3
	maxDismissedToEmbed    = 20
	dismissedTextMaxChars  = 300
)

// Build computes a Profile from a user's rated items and the descriptions
// of their dismissed recommendations.
func Build(ctx context.Context, enc Encoder, rated []RatedItem, dismissedDescriptions []string) (Profile, error) {
	p := Profile{GenreScores: genreScores(rated)}

	var pairs []embedding.RatedVector
	for _, item := range rated {
		if len(item.Embedding) == 0 {
			continue
		}
		pairs = append(pairs, embedding.RatedVector{Vector: item.Embedding, Rating: item.Rating})
	}
	if centroid, ok := embedding.ProfileCentroid(pairs); ok {
		p.ProfileEmbedding = centroid
	}

	dismissedEmbeddings, err := buildDismissedProfile(ctx, enc, dismissedDescriptions)
	if err != nil {
		return Profile{}, err
	}
	p.DismissedEmbeddings = dismissedEmbeddings

	return p, nil
}

// genreScores computes, for each genre g appearing on a rated item,
// 0.7*avg(normalized ratings) + 0.3*min(sqrt(n)/3, 1). This rewards both
// consistently high ratings and breadth of exposure to the genre.
func genreScores(rated []RatedItem) map[string]float64 {
	type acc struct {
		sum   float64
		count int
	}
	accs := make(map[string]*acc)
	for _, item := range rated {
		if item.Rating <= 0 {
			continue
		}
		normalized := float64(item.Rating-1) / 4
		for _, g := range item.Genres {
			a, ok := accs[g]
			if !ok {
				a = &acc{}
				accs[g] = a
			}
			a.sum += normalized
			a.count++
		}
	}

	scores := make(map[string]float64, len(accs))
	for g, a := range accs {
		avg := a.sum / float64(a.count)
		countFactor := math.Min(math.Sqrt(float64(a.count))/3, 1)
		scores[g] = 0.7*avg + 0.3*countFactor
	}
	return scores
}

// buildDismissedProfile batch-embeds up to maxDismissedToEmbed dismissed
// descriptions (truncated to dismissedTextMaxChars each), provided at least
// minDismissedForProfile exist. Fewer than that and no penalty should be
// applied downstream, so it returns nil rather than a sparse profile.
func buildDismissedProfile(ctx context.Context, enc Encoder, descriptions []string) ([]embedding.Vector, error) {
	if len(descriptions) < minDismissedForProfile {
		return nil, nil
	}
	texts := descriptions
	if len(texts) > maxDismissedToEmbed {
		texts = texts[:maxDismissedToEmbed]
	}
	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = truncateRunes(t, dismissedTextMaxChars)
	}
	return enc.EncodeBatchAsync(ctx, truncated)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// MaxDismissedSimilarity returns the highest cosine similarity between
// candidate and any of the user's dismissed-content embeddings, or 0 if
// there are none. Matches the "max over dismissed vectors" rule the scorer
// applies as a negative-evidence penalty.
func MaxDismissedSimilarity(candidate embedding.Vector, dismissed []embedding.Vector) float64 {
	var max float64
	for _, d := range dismissed {
		sim, err := embedding.Similarity(candidate, d)
		if err != nil {
			continue
		}
		if sim > max {
			max = sim
		}
	}
	return max
}

type genreScore struct {
	name  string
	score float64
}

// PreferredGenres returns genre names from scores whose value is > 0,
// sorted by score descending, truncated to limit. Ties are broken by name
// for determinism.
func PreferredGenres(scores map[string]float64, limit int) []string {
	pairs := make([]genreScore, 0, len(scores))
	for name, score := range scores {
		if score > 0 {
			pairs = append(pairs, genreScore{name, score})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		return pairs[i].name < pairs[j].name
	})
	if limit >= 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.name
	}
	return out
}

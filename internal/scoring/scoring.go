// Package scoring implements the multi-signal candidate scoring function:
// an additive composition of source quality, catalog attributes, user
// taste signals, and a dismissed-content penalty, followed by sort and
// title-based deduplication.
package scoring

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"recoengine/internal/embedding"
)

// Source is the provenance tag a candidate carries into scoring. Only
// these three values carry a source-quality base score; anything else
// gets the default.
type Source string

const (
	SourceSimilar       Source = "similar"
	SourcePreferredGenre Source = "preferred_genre"
	SourceGenreDiscover  Source = "genre_discover"
)

var sourceBase = map[Source]float64{
	SourceSimilar:        0.40,
	SourcePreferredGenre: 0.35,
	SourceGenreDiscover:  0.25,
}

const defaultSourceBase = 0.20

const (
	minScore = 0.05
	maxScore = 0.98

	streamingBoost = 0.05
)

// Candidate is a provisional record assembled by a pipeline before scoring.
// Overview, when non-empty, is synthesized and embedded to compute
// semantic-similarity and dismissed-penalty signals — callers must leave
// it empty if the upstream catalog entry had none.
type Candidate struct {
	ExternalID  string
	Title       string
	Overview    string
	Year        int
	VoteAverage float64
	VoteCount   int
	Popularity  float64
	GenreName   string
	Source      Source
	SeedRating  int // 0 means absent; only meaningful when Source == SourceSimilar

	// IsStreamable and StreamingProviders are set by a pipeline after
	// scoring, alongside its ApplyStreamingBoost call; Score itself never
	// touches them.
	IsStreamable       bool
	StreamingProviders []string
}

// Scored pairs a Candidate with its computed score.
type Scored struct {
	Candidate
	Score float64
}

// Encoder embeds text; satisfied by *embedding.Service. Batch-embedding is
// mandatory here, not an optimization: every candidate with a non-empty
// Overview must go through one EncodeBatchAsync call before the scoring
// loop. The async form runs the batch on the embedding service's worker
// pool rather than blocking the orchestrator's own goroutine — the one
// place this design forces parallelism.
type Encoder interface {
	EncodeBatchAsync(ctx context.Context, texts []string) ([]embedding.Vector, error)
}

// Score computes a score for every candidate, sorts descending, and
// deduplicates by normalized (lowercased, trimmed) title, keeping the
// first (highest-scoring) occurrence. profile may be nil/empty — semantic
// scoring and the dismissed penalty are skipped when it is, since without
// a profile embedding there is nothing to compare a candidate's own
// embedding against.
func Score(ctx context.Context, candidates []Candidate, profile embedding.Vector, genreScores map[string]float64, dismissed []embedding.Vector, enc Encoder, now time.Time) ([]Scored, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	embeddings, err := batchEmbedCandidates(ctx, candidates, profile, enc)
	if err != nil {
		return nil, err
	}

	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		s := baseScore(c, genreScores, now)
		if candEmb, ok := embeddings[i]; ok && len(profile) > 0 {
			sim, err := embedding.Similarity(profile, candEmb)
			if err == nil && sim > 0.3 {
				s += (sim - 0.3) * 0.12
			}
			if len(dismissed) > 0 {
				s += dismissedPenalty(maxDismissedSimilarity(candEmb, dismissed))
			}
		}
		scored[i] = Scored{Candidate: c, Score: clamp(s)}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return dedupeByTitle(scored), nil
}

// ApplyStreamingBoost adds the streaming-availability bonus to a
// already-scored, already-clamped candidate and re-clamps. Pipelines call
// this after enriching a candidate with streaming availability, which
// happens after the initial batch scoring pass.
func ApplyStreamingBoost(score float64, isStreamable bool) float64 {
	if !isStreamable {
		return score
	}
	return clamp(score + streamingBoost)
}

func batchEmbedCandidates(ctx context.Context, candidates []Candidate, profile embedding.Vector, enc Encoder) (map[int]embedding.Vector, error) {
	if len(profile) == 0 {
		return nil, nil
	}
	var indices []int
	var texts []string
	for i, c := range candidates {
		if c.Overview == "" {
			continue
		}
		indices = append(indices, i)
		texts = append(texts, embedding.Synthesize(embedding.MediaText{
			Title:       c.Title,
			Year:        c.Year,
			Description: c.Overview,
		}))
	}
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := enc.EncodeBatchAsync(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make(map[int]embedding.Vector, len(indices))
	for i, idx := range indices {
		if i < len(vectors) {
			out[idx] = vectors[i]
		}
	}
	return out, nil
}

func baseScore(c Candidate, genreScores map[string]float64, now time.Time) float64 {
	s := sourceBase[c.Source]
	if s == 0 {
		s = defaultSourceBase
	}

	if c.Source == SourceSimilar && c.SeedRating > 0 {
		s += float64(c.SeedRating-4) * 0.05
	}

	s += math.Max(0, (c.VoteAverage-5)/5) * 0.20
	s += math.Min(math.Log10(math.Max(float64(c.VoteCount), 1))/5, 1) * 0.08
	s += math.Min(c.Popularity/500, 1) * 0.08

	if c.GenreName != "" {
		if score, ok := genreScores[c.GenreName]; ok {
			s += score * 0.15
		}
	}

	if c.Year != 0 {
		s += recencyBonus(now.Year() - c.Year)
	}

	return s
}

func recencyBonus(yearsOld int) float64 {
	switch {
	case yearsOld < 1:
		return 0.02
	case yearsOld <= 10:
		return 0.05
	case yearsOld <= 20:
		return 0.03
	default:
		return 0
	}
}

func maxDismissedSimilarity(candidate embedding.Vector, dismissed []embedding.Vector) float64 {
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

func dismissedPenalty(maxSim float64) float64 {
	switch {
	case maxSim > 0.75:
		return -0.25
	case maxSim > 0.60:
		return -0.15
	case maxSim > 0.50:
		return -0.08
	default:
		return 0
	}
}

func clamp(s float64) float64 {
	if s < minScore {
		return minScore
	}
	if s > maxScore {
		return maxScore
	}
	return s
}

func dedupeByTitle(scored []Scored) []Scored {
	seen := make(map[string]bool, len(scored))
	out := make([]Scored, 0, len(scored))
	for _, s := range scored {
		title := strings.ToLower(strings.TrimSpace(s.Title))
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		out = append(out, s)
	}
	return out
}

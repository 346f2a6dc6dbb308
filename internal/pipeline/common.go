// Package pipeline implements the three per-media-type candidate pipelines
// that feed the orchestrator: screen content (film/series), books, and
// short videos. Each pipeline turns catalog candidates into scored,
// genre-capped store.Recommendation rows.
package pipeline

import (
	"sort"
	"time"

	"recoengine/internal/scoring"
	"recoengine/internal/store"
)

// taggedCandidate carries a catalog candidate alongside the scoring
// metadata a pipeline phase assigns it, plus enough of the original
// catalog payload (poster, description) to build a Recommendation once
// scoring has picked a winner.
type taggedCandidate struct {
	externalID  string
	title       string
	year        int
	overview    string
	coverURL    string
	voteAverage float64
	voteCount   int
	popularity  float64
	externalURL string

	source     scoring.Source
	genreName  string
	seedRating int
}

func (t taggedCandidate) toScoring() scoring.Candidate {
	return scoring.Candidate{
		ExternalID:  t.externalID,
		Title:       t.title,
		Overview:    t.overview,
		Year:        t.year,
		VoteAverage: t.voteAverage,
		VoteCount:   t.voteCount,
		Popularity:  t.popularity,
		GenreName:   t.genreName,
		Source:      t.source,
		SeedRating:  t.seedRating,
	}
}

func toScoringCandidates(tagged []taggedCandidate) []scoring.Candidate {
	out := make([]scoring.Candidate, len(tagged))
	for i, t := range tagged {
		out[i] = t.toScoring()
	}
	return out
}

// buildRecommendation assembles a store.Recommendation from a scored
// candidate plus the original catalog payload it came from, looked up by
// external id since scoring.Candidate doesn't carry every display field.
func buildRecommendation(userID string, mediaType store.MediaType, scored scoring.Scored, byID map[string]taggedCandidate, now time.Time) store.Recommendation {
	orig := byID[scored.ExternalID]
	return store.Recommendation{
		UserID:             userID,
		MediaType:          mediaType,
		ExternalID:         scored.ExternalID,
		Title:              scored.Title,
		Year:               scored.Year,
		CoverURL:           orig.coverURL,
		Description:        scored.Overview,
		Score:              scored.Score,
		Source:             store.Source(scored.Source),
		GenreName:          scored.GenreName,
		CatalogRating:      scored.VoteAverage,
		IsStreamable:       scored.IsStreamable,
		StreamingProviders: scored.StreamingProviders,
		ExternalURL:        orig.externalURL,
		GeneratedAt:        now,
	}
}

func indexByExternalID(tagged []taggedCandidate) map[string]taggedCandidate {
	byID := make(map[string]taggedCandidate, len(tagged))
	for _, t := range tagged {
		byID[t.externalID] = t
	}
	return byID
}

// sortCandidatesByID gives a deterministic merge order to candidates
// gathered from concurrent adapter calls, independent of call completion
// order, per the engine's ordering guarantee.
func sortCandidatesByID(tagged []taggedCandidate) {
	sort.Slice(tagged, func(i, j int) bool { return tagged[i].externalID < tagged[j].externalID })
}

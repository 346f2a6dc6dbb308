// Package recoengine is the orchestrator: it drives a user's taste profile
// through the per-type pipelines, applies the transactional-replacement
// rule for a full refresh, and exposes the two mutation operations
// (dismiss, mark-added) that keep a stored slate in sync with the user's
// actions.
package recoengine

import (
	"context"
	"fmt"
	"log"
	"time"

	"recoengine/internal/catalog"
	"recoengine/internal/embedding"
	"recoengine/internal/lru"
	"recoengine/internal/pipeline"
	"recoengine/internal/store"
	"recoengine/internal/userprofile"
)

const (
	staleWindow       = 12 * time.Hour
	recentThreshold   = 20
	dismissedGCWindow = 7 * 24 * time.Hour
)

// mediaTypeOrder is the order every generation run processes media types
// in — both progress reporting and the resulting recommendation map
// follow it.
var mediaTypeOrder = []store.MediaType{
	store.MediaFilm, store.MediaSeries, store.MediaBook, store.MediaShortVideo,
}

// Engine ties the user-profile builder and the three candidate pipelines
// to a repository, and owns the full-refresh / completion / mutation
// operations built on top of them. One Engine serves every user; no
// per-user state is held between calls.
type Engine struct {
	db   *store.CompatDB
	repo *store.Repository
	enc  *embedding.Service

	screenAdapter     catalog.ScreenContentAdapter
	bookAdapter       catalog.BookAdapter
	shortVideoAdapter catalog.ShortVideoAdapter
}

func New(db *store.CompatDB, repo *store.Repository, enc *embedding.Service, screenAdapter catalog.ScreenContentAdapter, bookAdapter catalog.BookAdapter, shortVideoAdapter catalog.ShortVideoAdapter) *Engine {
	return &Engine{
		db:                db,
		repo:              repo,
		enc:               enc,
		screenAdapter:     screenAdapter,
		bookAdapter:       bookAdapter,
		shortVideoAdapter: shortVideoAdapter,
	}
}

// mediaKey identifies a recommendation's catalog entry within a media type,
// the unit dismissal and dedup both operate on.
type mediaKey struct {
	mediaType  store.MediaType
	externalID string
}

// runState is the per-run taste state and pipeline set built once at the
// start of a generation and threaded through every per-type call. It is
// never reused across runs — the streaming LRU in particular is scoped to
// a single generation call.
type runState struct {
	profile   userprofile.Profile
	dismissed map[mediaKey]bool
	allRated  []store.MediaItem
	now       time.Time

	screen     *pipeline.ScreenPipeline
	book       *pipeline.BookPipeline
	shortVideo *pipeline.ShortVideoPipeline
}

// Generate runs a full refresh for userID. Unless forceRefresh is set, a
// user with more than recentThreshold non-dismissed recommendations
// generated within staleWindow is considered fresh and the existing slate
// is returned unchanged.
func (e *Engine) Generate(ctx context.Context, userID string, forceRefresh bool) (map[store.MediaType][]store.Recommendation, error) {
	if !forceRefresh {
		fresh, err := e.isFresh(ctx, userID)
		if err != nil {
			return nil, err
		}
		if fresh {
			return e.existingRecommendations(ctx, userID)
		}
	}

	run, err := e.buildRunState(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	results := make(map[store.MediaType][]store.Recommendation, len(mediaTypeOrder))
	var allNew []store.Recommendation
	for _, mt := range mediaTypeOrder {
		recs, err := e.generateForType(ctx, run, userID, mt, nil, nil)
		if err != nil {
			log.Printf("recoengine: generating %s recommendations for user %s failed: %v", mt, userID, err)
			results[mt] = nil
			continue
		}
		results[mt] = recs
		allNew = append(allNew, recs...)
	}

	// Safer than the source's "total_new > 0 OR no pipeline errored" rule:
	// only ever wipe the previous slate when there is something to replace
	// it with, so an all-zero-but-no-errors run leaves it intact too.
	if len(allNew) == 0 {
		return e.existingRecommendations(ctx, userID)
	}
	if err := e.fullReplace(ctx, userID, allNew, run.now); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) isFresh(ctx context.Context, userID string) (bool, error) {
	dismissed := false
	recent, err := e.repo.Recommendations(ctx, userID, store.RecommendationFilter{
		Dismissed:      &dismissed,
		GeneratedAfter: time.Now().UTC().Add(-staleWindow),
	})
	if err != nil {
		return false, fmt.Errorf("check recommendation freshness: %w", err)
	}
	return len(recent) > recentThreshold, nil
}

func (e *Engine) existingRecommendations(ctx context.Context, userID string) (map[store.MediaType][]store.Recommendation, error) {
	dismissed := false
	all, err := e.repo.Recommendations(ctx, userID, store.RecommendationFilter{Dismissed: &dismissed})
	if err != nil {
		return nil, fmt.Errorf("load existing recommendations: %w", err)
	}
	out := make(map[store.MediaType][]store.Recommendation, len(mediaTypeOrder))
	for _, rec := range all {
		out[rec.MediaType] = append(out[rec.MediaType], rec)
	}
	return out, nil
}

// buildRunState builds the user's taste profile and a fresh set of
// pipelines, scoped to this one generation call.
func (e *Engine) buildRunState(ctx context.Context, userID string, now time.Time) (*runState, error) {
	rated, err := e.repo.RatedMedia(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load rated media: %w", err)
	}

	dismissedFlag := true
	dismissedRecs, err := e.repo.Recommendations(ctx, userID, store.RecommendationFilter{Dismissed: &dismissedFlag})
	if err != nil {
		return nil, fmt.Errorf("load dismissed recommendations: %w", err)
	}

	var descriptions []string
	dismissed := make(map[mediaKey]bool, len(dismissedRecs))
	for _, rec := range dismissedRecs {
		dismissed[mediaKey{rec.MediaType, rec.ExternalID}] = true
		if rec.Description != "" {
			descriptions = append(descriptions, rec.Description)
		}
	}

	profile, err := userprofile.Build(ctx, e.enc, toRatedItems(rated), descriptions)
	if err != nil {
		return nil, fmt.Errorf("build user profile: %w", err)
	}

	return &runState{
		profile:    profile,
		dismissed:  dismissed,
		allRated:   rated,
		now:        now,
		screen:     pipeline.NewScreenPipeline(e.screenAdapter, e.enc, pipeline.NewStreamingCache(lru.DefaultCapacity)),
		book:       pipeline.NewBookPipeline(e.bookAdapter),
		shortVideo: pipeline.NewShortVideoPipeline(e.shortVideoAdapter),
	}, nil
}

func toRatedItems(items []store.MediaItem) []userprofile.RatedItem {
	out := make([]userprofile.RatedItem, len(items))
	for i, m := range items {
		out[i] = userprofile.RatedItem{Embedding: m.Embedding, Rating: m.Rating, Genres: m.Genres}
	}
	return out
}

// generateForType runs the pipeline for one media type. completionCounts,
// when non-nil, pre-seeds the pipeline's per-genre counters (completion
// mode); extraExcluded, when non-nil, is unioned into the excluded-id set
// on top of the user's own library and dismissed content for that type.
func (e *Engine) generateForType(ctx context.Context, run *runState, userID string, mediaType store.MediaType, completionCounts map[string]int, extraExcluded map[string]bool) ([]store.Recommendation, error) {
	library, err := e.repo.LibraryItems(ctx, userID, mediaType)
	if err != nil {
		return nil, fmt.Errorf("load %s library: %w", mediaType, err)
	}

	excluded := make(map[string]bool, len(library))
	for _, item := range library {
		if item.ExternalID != "" {
			excluded[item.ExternalID] = true
		}
	}
	for key := range run.dismissed {
		if key.mediaType == mediaType {
			excluded[key.externalID] = true
		}
	}
	for id := range extraExcluded {
		excluded[id] = true
	}

	switch mediaType {
	case store.MediaFilm, store.MediaSeries:
		return run.screen.Generate(ctx, pipeline.ScreenInput{
			Kind:        screenKind(mediaType),
			RatedMedia:  filterByType(run.allRated, mediaType),
			GenreScores: run.profile.GenreScores,
			Profile:     run.profile.ProfileEmbedding,
			Dismissed:   run.profile.DismissedEmbeddings,
			ExcludedIDs: excluded,
			GenreCounts: completionCounts,
			Now:         run.now,
		})
	case store.MediaBook:
		return run.book.Generate(ctx, userID, pipeline.BookInput{
			LibraryTitles:  titlesOf(library),
			PreferredHints: preferredBookHints(library),
			ExcludedIDs:    excluded,
			GenreCounts:    completionCounts,
			Now:            run.now,
		})
	case store.MediaShortVideo:
		return run.shortVideo.Generate(ctx, userID, pipeline.ShortVideoInput{
			RatedMedia:  filterByType(run.allRated, store.MediaShortVideo),
			ExcludedIDs: excluded,
			Now:         run.now,
		})
	default:
		return nil, fmt.Errorf("unknown media type %q", mediaType)
	}
}

func screenKind(mt store.MediaType) catalog.MediaKind {
	if mt == store.MediaSeries {
		return catalog.KindSeries
	}
	return catalog.KindFilm
}

func filterByType(items []store.MediaItem, mt store.MediaType) []store.MediaItem {
	var out []store.MediaItem
	for _, m := range items {
		if m.Type == mt {
			out = append(out, m)
		}
	}
	return out
}

func titlesOf(items []store.MediaItem) []string {
	out := make([]string, 0, len(items))
	for _, m := range items {
		if m.Title != "" {
			out = append(out, m.Title)
		}
	}
	return out
}

// preferredBookHints collects the genre names of books the user rated 4 or
// higher, the signal the book pipeline prioritizes curated genres with.
// Case normalization happens downstream, in the pipeline's own genre lookup.
func preferredBookHints(items []store.MediaItem) []string {
	var hints []string
	for _, m := range items {
		if m.Rating < 4 {
			continue
		}
		for _, g := range m.Genres {
			hints = append(hints, g)
		}
	}
	return hints
}

// fullReplace deletes the user's stale dismissed recommendations and every
// non-dismissed one, then inserts recs — all inside one transaction, so a
// cancelled or failed run never leaves a partial slate behind.
func (e *Engine) fullReplace(ctx context.Context, userID string, recs []store.Recommendation, now time.Time) error {
	return store.WithTx(ctx, e.db, func(conn *store.CompatConn) error {
		if err := e.repo.DeleteDismissedOlderThan(ctx, conn, userID, now.Add(-dismissedGCWindow)); err != nil {
			return err
		}
		if err := e.repo.DeleteNonDismissed(ctx, conn, userID); err != nil {
			return err
		}
		return e.repo.InsertRecommendations(ctx, conn, recs)
	})
}

// completionReplace deletes only the stale dismissed recommendations and
// inserts recs, leaving every existing non-dismissed recommendation in
// place — the invariant that distinguishes completion mode from a full
// refresh.
func (e *Engine) completionReplace(ctx context.Context, userID string, recs []store.Recommendation, now time.Time) error {
	return store.WithTx(ctx, e.db, func(conn *store.CompatConn) error {
		if err := e.repo.DeleteDismissedOlderThan(ctx, conn, userID, now.Add(-dismissedGCWindow)); err != nil {
			return err
		}
		return e.repo.InsertRecommendations(ctx, conn, recs)
	})
}

// Dismiss marks a recommendation dismissed. Idempotent.
func (e *Engine) Dismiss(ctx context.Context, userID, recommendationID string) error {
	return e.repo.Dismiss(ctx, userID, recommendationID)
}

// MarkAdded marks a recommendation added to the user's library. Idempotent.
func (e *Engine) MarkAdded(ctx context.Context, userID, externalID string, mediaType store.MediaType) error {
	return e.repo.MarkAdded(ctx, userID, externalID, mediaType)
}

package pipeline

import (
	"context"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"recoengine/internal/catalog"
	"recoengine/internal/embedding"
	"recoengine/internal/lru"
	"recoengine/internal/scoring"
	"recoengine/internal/store"
	"recoengine/internal/userprofile"
)

// ScreenInput bundles the per-generation state the screen pipeline needs
// beyond the catalog adapter itself.
type ScreenInput struct {
	Kind        catalog.MediaKind
	RatedMedia  []store.MediaItem
	GenreScores map[string]float64
	Profile     embedding.Vector
	Dismissed   []embedding.Vector
	ExcludedIDs map[string]bool
	GenreCounts map[string]int // pre-seeded in completion mode
	Now         time.Time
}

// ScreenPipeline generates film or series recommendations depending on
// ScreenInput.Kind. A single instance may be reused across kinds and runs;
// apart from the Streaming cache it holds, all mutable state lives in the
// input and in Generate's locals.
type ScreenPipeline struct {
	Adapter   catalog.ScreenContentAdapter
	Encoder   scoring.Encoder
	Streaming *lru.Cache[string, streamInfo]
}

func NewScreenPipeline(adapter catalog.ScreenContentAdapter, encoder scoring.Encoder, streaming *lru.Cache[string, streamInfo]) *ScreenPipeline {
	return &ScreenPipeline{Adapter: adapter, Encoder: encoder, Streaming: streaming}
}

func (p *ScreenPipeline) mediaType(kind catalog.MediaKind) store.MediaType {
	if kind == catalog.KindSeries {
		return store.MediaSeries
	}
	return store.MediaFilm
}

// Generate runs the four-phase state machine described for the
// screen-content pipeline: similar-seeded admission, preferred-genre
// discovery, fill-partials-from-similar, and a relaxed second pass.
func (p *ScreenPipeline) Generate(ctx context.Context, in ScreenInput) ([]store.Recommendation, error) {
	lookup := newStreamingLookup(p.Adapter, p.Streaming)
	mediaType := p.mediaType(in.Kind)

	genreCounts := make(map[string]int, len(in.GenreCounts))
	for k, v := range in.GenreCounts {
		genreCounts[k] = v
	}
	seen := make(map[int]bool)
	var recs []store.Recommendation

	// Phase 1: similar-seeded.
	seeds := topSeeds(in.RatedMedia)
	similar := p.fetchSimilar(ctx, in.Kind, seeds, in.ExcludedIDs, seen)
	sortCandidatesByID(similar)
	scoredSimilar, err := scoring.Score(ctx, toScoringCandidates(similar), in.Profile, in.GenreScores, in.Dismissed, p.Encoder, in.Now)
	if err != nil {
		return nil, err
	}
	scoredSimilar = p.enrichBatch(ctx, in.Kind, scoredSimilar)
	byID := indexByExternalID(similar)
	for _, s := range scoredSimilar {
		genre := s.GenreName
		if genre == "" {
			genre = "Similar"
		}
		if genreCounts[genre] >= perGenreCap {
			continue
		}
		recs = append(recs, buildRecommendation(userIDOf(in.RatedMedia), mediaType, s, byID, in.Now))
		genreCounts[genre]++
	}

	// Phase 2: preferred-genre discovery.
	preferred := preferredGenreIDs(in.Kind, in.GenreScores)
	recs = append(recs, p.discoverPreferred(ctx, in, preferred, genreCounts, seen, mediaType)...)

	// Phase 3: fill partial genres seeded by the similar phase.
	recs = append(recs, p.fillPartialGenres(ctx, in, genreCounts, seen, lookup, mediaType)...)

	// Phase 4: relaxed second pass over still-short preferred genres.
	recs = append(recs, p.secondPass(ctx, in, preferred, genreCounts, seen, lookup, mediaType)...)

	return recs, nil
}

type mappedGenre struct {
	name  string
	id    int
	score float64
}

func preferredGenreIDs(kind catalog.MediaKind, genreScores map[string]float64) []mappedGenre {
	names := userprofile.PreferredGenres(genreScores, len(genreScores))
	var out []mappedGenre
	for _, name := range names {
		if id, ok := genreIDByName(kind, name); ok {
			out = append(out, mappedGenre{name: name, id: id, score: genreScores[name]})
			if len(out) >= maxPreferredGenres {
				break
			}
		}
	}
	return out
}

func topSeeds(rated []store.MediaItem) []store.MediaItem {
	var seeds []store.MediaItem
	for _, m := range rated {
		if m.Rating >= minRatingForSeed && m.ExternalID != "" {
			seeds = append(seeds, m)
		}
	}
	sort.SliceStable(seeds, func(i, j int) bool { return seeds[i].Rating > seeds[j].Rating })
	if len(seeds) > maxSeeds {
		seeds = seeds[:maxSeeds]
	}
	return seeds
}

func userIDOf(rated []store.MediaItem) string {
	if len(rated) == 0 {
		return ""
	}
	return rated[0].UserID
}

// fetchSimilar issues one Similar call per seed concurrently; a failing
// seed contributes nothing and never aborts the others.
func (p *ScreenPipeline) fetchSimilar(ctx context.Context, kind catalog.MediaKind, seeds []store.MediaItem, excluded map[string]bool, seen map[int]bool) []taggedCandidate {
	type fetched struct {
		seed  store.MediaItem
		items []catalog.ScreenCandidate
	}
	results := make([]fetched, len(seeds))
	var g errgroup.Group
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			seedID, err := strconv.Atoi(seed.ExternalID)
			if err != nil {
				return nil
			}
			items, err := p.Adapter.Similar(ctx, kind, seedID)
			if err != nil {
				log.Printf("pipeline: similar lookup failed for seed %q: %v", seed.Title, err)
				return nil
			}
			results[i] = fetched{seed: seed, items: items}
			return nil
		})
	}
	_ = g.Wait()

	var out []taggedCandidate
	for _, r := range results {
		count := 0
		for _, item := range r.items {
			if count >= similarPerSeed {
				break
			}
			idStr := strconv.Itoa(item.ID)
			if seen[item.ID] || excluded[idStr] {
				continue
			}
			seen[item.ID] = true
			genre := primaryGenre(kind, item.GenreIDs)
			if genre == "" {
				genre = "Similar"
			}
			out = append(out, taggedCandidate{
				externalID: idStr, title: item.Title, year: item.Year, overview: item.Overview,
				coverURL: item.PosterURL, voteAverage: item.VoteAverage, voteCount: item.VoteCount,
				popularity: item.Popularity, source: scoring.SourceSimilar, genreName: genre,
				seedRating: r.seed.Rating,
			})
			count++
		}
	}
	return out
}

// discoverPreferred runs phase 2: one Discover call per still-open
// preferred genre, fetched concurrently, then scored and admitted in
// preferred-score order.
func (p *ScreenPipeline) discoverPreferred(ctx context.Context, in ScreenInput, preferred []mappedGenre, genreCounts map[string]int, seen map[int]bool, mediaType store.MediaType) []store.Recommendation {
	open := make([]mappedGenre, 0, len(preferred))
	for _, g := range preferred {
		if genreCounts[g.name] < perGenreCap {
			open = append(open, g)
		}
	}
	discovered := p.discoverConcurrently(ctx, in.Kind, open, catalog.DiscoverFilter{VoteAverageGTE: 6.5, VoteCountGTE: 50, SortBy: "vote_average.desc"})

	var recs []store.Recommendation
	for i, g := range open {
		needed := perGenreCap - genreCounts[g.name]
		if needed <= 0 {
			continue
		}
		var candidates []taggedCandidate
		for _, item := range discovered[i] {
			idStr := strconv.Itoa(item.ID)
			if seen[item.ID] || in.ExcludedIDs[idStr] {
				continue
			}
			seen[item.ID] = true
			candidates = append(candidates, taggedCandidate{
				externalID: idStr, title: item.Title, year: item.Year, overview: item.Overview,
				coverURL: item.PosterURL, voteAverage: item.VoteAverage, voteCount: item.VoteCount,
				popularity: item.Popularity, source: scoring.SourceGenreDiscover, genreName: g.name,
			})
			if len(candidates) >= needed+5 {
				break
			}
		}
		sortCandidatesByID(candidates)
		scored, err := scoring.Score(ctx, toScoringCandidates(candidates), in.Profile, in.GenreScores, in.Dismissed, p.Encoder, in.Now)
		if err != nil {
			log.Printf("pipeline: scoring failed for genre %q: %v", g.name, err)
			continue
		}
		bound := min(needed+2, len(scored))
		scored = p.enrichBatch(ctx, in.Kind, scored[:bound])
		byID := indexByExternalID(candidates)
		top := min(needed, len(scored))
		for _, s := range scored[:top] {
			recs = append(recs, buildRecommendation(userIDOf(in.RatedMedia), mediaType, s, byID, in.Now))
			genreCounts[g.name]++
		}
	}
	return recs
}

// fillPartialGenres runs phase 3: genres seeded by the similar phase but
// still short of the cap are topped up without re-scoring, one item at a
// time, each enriched individually.
func (p *ScreenPipeline) fillPartialGenres(ctx context.Context, in ScreenInput, genreCounts map[string]int, seen map[int]bool, lookup *streamingLookup, mediaType store.MediaType) []store.Recommendation {
	var partial []mappedGenre
	for _, g := range genreTable(in.Kind) {
		if c := genreCounts[g.name]; c > 0 && c < perGenreCap {
			partial = append(partial, mappedGenre{name: g.name, id: g.id})
		}
	}
	discovered := p.discoverConcurrently(ctx, in.Kind, partial, catalog.DiscoverFilter{VoteAverageGTE: 6.5, VoteCountGTE: 50, SortBy: "vote_average.desc"})

	var recs []store.Recommendation
	for i, g := range partial {
		for _, item := range discovered[i] {
			if genreCounts[g.name] >= perGenreCap {
				break
			}
			idStr := strconv.Itoa(item.ID)
			if seen[item.ID] || in.ExcludedIDs[idStr] {
				continue
			}
			seen[item.ID] = true
			info := lookup.lookup(ctx, in.Kind, item.ID)
			rec := store.Recommendation{
				UserID: userIDOf(in.RatedMedia), MediaType: mediaType, ExternalID: idStr,
				Title: item.Title, Year: item.Year, CoverURL: item.PosterURL, Description: item.Overview,
				Score: 0.65, Source: store.Source(scoring.SourceGenreDiscover), GenreName: g.name,
				CatalogRating: item.VoteAverage, IsStreamable: info.streamable, StreamingProviders: info.providers,
				GeneratedAt: in.Now,
			}
			recs = append(recs, rec)
			genreCounts[g.name]++
		}
	}
	return recs
}

// secondPass runs phase 4: preferred genres still below the cap are
// relaxed to lower thresholds and popularity sort, admitted with a fixed
// formula score instead of the full scorer.
func (p *ScreenPipeline) secondPass(ctx context.Context, in ScreenInput, preferred []mappedGenre, genreCounts map[string]int, seen map[int]bool, lookup *streamingLookup, mediaType store.MediaType) []store.Recommendation {
	open := make([]mappedGenre, 0, len(preferred))
	for _, g := range preferred {
		if genreCounts[g.name] < perGenreCap {
			open = append(open, g)
		}
	}
	discovered := p.discoverConcurrently(ctx, in.Kind, open, catalog.DiscoverFilter{VoteAverageGTE: 6.0, VoteCountGTE: 20, SortBy: "popularity.desc"})

	var recs []store.Recommendation
	for i, g := range open {
		for _, item := range discovered[i] {
			if genreCounts[g.name] >= perGenreCap {
				break
			}
			idStr := strconv.Itoa(item.ID)
			if seen[item.ID] || in.ExcludedIDs[idStr] {
				continue
			}
			seen[item.ID] = true
			info := lookup.lookup(ctx, in.Kind, item.ID)
			rec := store.Recommendation{
				UserID: userIDOf(in.RatedMedia), MediaType: mediaType, ExternalID: idStr,
				Title: item.Title, Year: item.Year, CoverURL: item.PosterURL, Description: item.Overview,
				Score: 0.6 + g.score*0.1, Source: store.Source(scoring.SourceGenreDiscover), GenreName: g.name,
				CatalogRating: item.VoteAverage, IsStreamable: info.streamable, StreamingProviders: info.providers,
				GeneratedAt: in.Now,
			}
			recs = append(recs, rec)
			genreCounts[g.name]++
		}
	}
	return recs
}

// discoverConcurrently issues one Discover call per genre, each with that
// genre's id substituted into filter.WithGenres, concurrently; results are
// returned in the same order as genres so callers can index back into it.
func (p *ScreenPipeline) discoverConcurrently(ctx context.Context, kind catalog.MediaKind, genres []mappedGenre, filter catalog.DiscoverFilter) [][]catalog.ScreenCandidate {
	results := make([][]catalog.ScreenCandidate, len(genres))
	var g errgroup.Group
	for i, genre := range genres {
		i, genre := i, genre
		g.Go(func() error {
			f := filter
			f.WithGenres = []int{genre.id}
			items, err := p.Adapter.Discover(ctx, kind, f)
			if err != nil {
				log.Printf("pipeline: discover failed for genre %q: %v", genre.name, err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// enrichBatch looks up streaming availability for every scored candidate
// concurrently and applies the streaming-availability boost in place.
func (p *ScreenPipeline) enrichBatch(ctx context.Context, kind catalog.MediaKind, scored []scoring.Scored) []scoring.Scored {
	lookup := newStreamingLookup(p.Adapter, p.Streaming)
	var mu sync.Mutex
	var g errgroup.Group
	for i := range scored {
		i := i
		g.Go(func() error {
			id, err := strconv.Atoi(scored[i].ExternalID)
			if err != nil {
				return nil
			}
			info := lookup.lookup(ctx, kind, id)
			mu.Lock()
			scored[i].IsStreamable = info.streamable
			scored[i].StreamingProviders = info.providers
			scored[i].Score = scoring.ApplyStreamingBoost(scored[i].Score, info.streamable)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return scored
}

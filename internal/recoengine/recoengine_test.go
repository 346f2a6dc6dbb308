package recoengine

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"recoengine/internal/catalog"
	"recoengine/internal/catalog/catalogfake"
	"recoengine/internal/embedding"
	"recoengine/internal/store"
)

type fakeModel struct{}

func (fakeModel) Encode(text string) (embedding.Vector, error) { return embedding.Vector{1, 0}, nil }
func (fakeModel) EncodeBatch(texts []string) ([]embedding.Vector, error) {
	out := make([]embedding.Vector, len(texts))
	for i := range texts {
		out[i] = embedding.Vector{1, 0}
	}
	return out, nil
}

func newTestDB(t *testing.T) *store.CompatDB {
	t.Helper()
	rawDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := store.RunMigrations(rawDB, store.DialectSQLite); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { rawDB.Close() })
	return store.NewCompatDB(rawDB, store.DialectSQLite)
}

func insertMedia(t *testing.T, db *store.CompatDB, m store.MediaItem) {
	t.Helper()
	genresJSON := `[]`
	if len(m.Genres) > 0 {
		genresJSON = `["` + m.Genres[0] + `"]`
	}
	var rating interface{}
	if m.Rating > 0 {
		rating = m.Rating
	}
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO media_items (id, user_id, title, type, external_id, status, rating, genres, channel_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Title, string(m.Type), m.ExternalID, string(m.Status), rating, genresJSON, m.ChannelName)
	if err != nil {
		t.Fatalf("insert media item: %v", err)
	}
}

func insertRecommendation(t *testing.T, db *store.CompatDB, r store.Recommendation) {
	t.Helper()
	generatedAt := r.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO recommendations
			(id, user_id, media_type, external_id, title, score, source, genre_name,
			 is_streamable, generated_at, is_dismissed, added_to_library)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, string(r.MediaType), r.ExternalID, r.Title, r.Score, string(r.Source),
		r.GenreName, r.IsStreamable, generatedAt.Format(time.RFC3339), r.IsDismissed, r.AddedToLibrary)
	if err != nil {
		t.Fatalf("insert recommendation: %v", err)
	}
}

func newTestEngine(db *store.CompatDB, screen catalog.ScreenContentAdapter, book catalog.BookAdapter, shortVideo catalog.ShortVideoAdapter) *Engine {
	return New(db, store.NewRepository(db), embedding.New(fakeModel{}), screen, book, shortVideo)
}

func TestEngine_Generate_FreshSlateReturnsExistingUnchanged(t *testing.T) {
	db := newTestDB(t)
	insertRecommendation(t, db, store.Recommendation{ID: "r1", UserID: "u1", MediaType: store.MediaFilm, ExternalID: "1", Title: "Old", Score: 0.5, GeneratedAt: time.Now().UTC()})
	for i := 0; i < recentThreshold; i++ {
		insertRecommendation(t, db, store.Recommendation{ID: "r-extra-" + string(rune('a'+i)), UserID: "u1", MediaType: store.MediaFilm, ExternalID: string(rune('a' + i)), Title: "X", Score: 0.5, GeneratedAt: time.Now().UTC()})
	}

	screen := &catalogfake.ScreenContent{FailDiscover: true, FailSimilar: true}
	e := newTestEngine(db, screen, &catalogfake.Book{}, &catalogfake.ShortVideo{})

	results, err := e.Generate(context.Background(), "u1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results[store.MediaFilm]) != recentThreshold+1 {
		t.Errorf("len(results[film]) = %d, want %d (existing slate untouched)", len(results[store.MediaFilm]), recentThreshold+1)
	}
}

func TestEngine_Generate_ForceRefreshReplacesNonDismissed(t *testing.T) {
	db := newTestDB(t)
	insertRecommendation(t, db, store.Recommendation{ID: "r1", UserID: "u1", MediaType: store.MediaFilm, ExternalID: "1", Title: "Old", Score: 0.5})
	insertMedia(t, db, store.MediaItem{ID: "m1", UserID: "u1", Title: "Seed", Type: store.MediaFilm, ExternalID: "42", Rating: 5})

	screen := &catalogfake.ScreenContent{
		SimilarBySeed: map[int][]catalog.ScreenCandidate{
			42: {{ID: 100, Title: "New Film", VoteAverage: 7, VoteCount: 200}},
		},
	}
	e := newTestEngine(db, screen, &catalogfake.Book{}, &catalogfake.ShortVideo{})

	results, err := e.Generate(context.Background(), "u1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sawNew bool
	for _, r := range results[store.MediaFilm] {
		if r.ExternalID == "100" {
			sawNew = true
		}
		if r.ExternalID == "1" {
			t.Error("old non-dismissed recommendation should have been replaced")
		}
	}
	if !sawNew {
		t.Errorf("results[film] = %+v, want to include the newly discovered film", results[store.MediaFilm])
	}
}

func TestEngine_Generate_MultipleNewRecommendationsAllPersist(t *testing.T) {
	db := newTestDB(t)
	insertMedia(t, db, store.MediaItem{ID: "m1", UserID: "u1", Title: "Seed", Type: store.MediaFilm, ExternalID: "42", Rating: 5})

	screen := &catalogfake.ScreenContent{
		SimilarBySeed: map[int][]catalog.ScreenCandidate{
			42: {
				{ID: 100, Title: "New Film One", VoteAverage: 7, VoteCount: 200},
				{ID: 101, Title: "New Film Two", VoteAverage: 7.5, VoteCount: 300},
				{ID: 102, Title: "New Film Three", VoteAverage: 8, VoteCount: 400},
			},
		},
	}
	e := newTestEngine(db, screen, &catalogfake.Book{}, &catalogfake.ShortVideo{})

	results, err := e.Generate(context.Background(), "u1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	films := results[store.MediaFilm]
	if len(films) != 3 {
		t.Fatalf("len(results[film]) = %d, want 3", len(films))
	}
	seenIDs := make(map[string]bool, len(films))
	for _, r := range films {
		if r.ID == "" {
			t.Errorf("recommendation %s has an empty ID", r.ExternalID)
		}
		if seenIDs[r.ID] {
			t.Errorf("duplicate recommendation ID %q across a single refresh", r.ID)
		}
		seenIDs[r.ID] = true
	}

	// Confirm every row actually persisted and is independently readable,
	// not just present in Generate's in-memory return value.
	persisted, err := store.NewRepository(db).Recommendations(context.Background(), "u1", store.RecommendationFilter{})
	if err != nil {
		t.Fatalf("query persisted recommendations: %v", err)
	}
	if len(persisted) != 3 {
		t.Fatalf("persisted recommendations = %d, want 3 (insert must not fail after the first row)", len(persisted))
	}
}

func TestEngine_Generate_ZeroNewLeavesExistingSlateIntact(t *testing.T) {
	db := newTestDB(t)
	insertRecommendation(t, db, store.Recommendation{ID: "r1", UserID: "u1", MediaType: store.MediaFilm, ExternalID: "1", Title: "Old", Score: 0.5})

	e := newTestEngine(db, &catalogfake.ScreenContent{}, &catalogfake.Book{}, &catalogfake.ShortVideo{})

	results, err := e.Generate(context.Background(), "u1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results[store.MediaFilm]) != 1 || results[store.MediaFilm][0].ExternalID != "1" {
		t.Errorf("results[film] = %+v, want the untouched existing recommendation", results[store.MediaFilm])
	}
}

func TestEngine_DismissAndMarkAdded_AreIdempotent(t *testing.T) {
	db := newTestDB(t)
	insertRecommendation(t, db, store.Recommendation{ID: "r1", UserID: "u1", MediaType: store.MediaFilm, ExternalID: "1", Title: "X", Score: 0.5})
	e := newTestEngine(db, &catalogfake.ScreenContent{}, &catalogfake.Book{}, &catalogfake.ShortVideo{})
	ctx := context.Background()

	if err := e.Dismiss(ctx, "u1", "r1"); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if err := e.Dismiss(ctx, "u1", "r1"); err != nil {
		t.Fatalf("second Dismiss should be a no-op, got: %v", err)
	}
	if err := e.Dismiss(ctx, "u1", "does-not-exist"); err != nil {
		t.Fatalf("Dismiss of unknown id should be a silent no-op, got: %v", err)
	}

	if err := e.MarkAdded(ctx, "u1", "1", store.MediaFilm); err != nil {
		t.Fatalf("MarkAdded: %v", err)
	}
	if err := e.MarkAdded(ctx, "u1", "1", store.MediaFilm); err != nil {
		t.Fatalf("second MarkAdded should be a no-op, got: %v", err)
	}
}

package userprofile

import (
	"context"
	"math"
	"testing"

	"recoengine/internal/embedding"
)

type fakeEncoder struct {
	batchFn func(texts []string) ([]embedding.Vector, error)
}

func (f *fakeEncoder) EncodeBatchAsync(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	if f.batchFn != nil {
		return f.batchFn(texts)
	}
	out := make([]embedding.Vector, len(texts))
	for i := range texts {
		out[i] = embedding.Vector{1, 0}
	}
	return out, nil
}

func TestGenreScores_ThreeFiveStarRatings(t *testing.T) {
	rated := []RatedItem{
		{Rating: 5, Genres: []string{"Science Fiction"}},
		{Rating: 5, Genres: []string{"Science Fiction"}},
		{Rating: 5, Genres: []string{"Science Fiction"}},
	}
	scores := genreScores(rated)
	got := scores["Science Fiction"]
	want := 0.7*1.0 + 0.3*math.Min(math.Sqrt(3)/3, 1)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("genreScores = %v, want %v", got, want)
	}
}

func TestGenreScores_IgnoresUnratedItems(t *testing.T) {
	rated := []RatedItem{
		{Rating: 0, Genres: []string{"Drama"}},
	}
	scores := genreScores(rated)
	if _, ok := scores["Drama"]; ok {
		t.Errorf("genreScores should not include unrated items' genres, got %v", scores)
	}
}

func TestBuild_ProfileEmbeddingAbsentWithNoRatedEmbeddings(t *testing.T) {
	p, err := Build(context.Background(), &fakeEncoder{}, []RatedItem{{Rating: 5, Genres: []string{"Drama"}}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ProfileEmbedding != nil {
		t.Errorf("ProfileEmbedding = %v, want nil/absent", p.ProfileEmbedding)
	}
}

func TestBuild_ProfileEmbeddingFromSinglePairEqualsNormalizedVector(t *testing.T) {
	v := embedding.Normalize([]float32{3, 4})
	p, err := Build(context.Background(), &fakeEncoder{}, []RatedItem{
		{Rating: 5, Embedding: v, Genres: []string{"Drama"}},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sim, err := embedding.Similarity(p.ProfileEmbedding, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(sim-1.0) > 1e-6 {
		t.Errorf("single-pair centroid similarity to v = %v, want ~1.0", sim)
	}
}

func TestBuild_DismissedProfile_FewerThanThreeLeavesEmpty(t *testing.T) {
	p, err := Build(context.Background(), &fakeEncoder{}, nil, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.DismissedEmbeddings != nil {
		t.Errorf("DismissedEmbeddings = %v, want nil with < 3 dismissed", p.DismissedEmbeddings)
	}
}

func TestBuild_DismissedProfile_ThreeOrMoreEmbedsUpToTwenty(t *testing.T) {
	descriptions := make([]string, 25)
	for i := range descriptions {
		descriptions[i] = "description"
	}
	var gotTexts []string
	enc := &fakeEncoder{batchFn: func(texts []string) ([]embedding.Vector, error) {
		gotTexts = texts
		out := make([]embedding.Vector, len(texts))
		for i := range texts {
			out[i] = embedding.Vector{1, 0}
		}
		return out, nil
	}}
	p, err := Build(context.Background(), enc, nil, descriptions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotTexts) != maxDismissedToEmbed {
		t.Errorf("batch-embedded %d texts, want %d (capped)", len(gotTexts), maxDismissedToEmbed)
	}
	if len(p.DismissedEmbeddings) != maxDismissedToEmbed {
		t.Errorf("DismissedEmbeddings len = %d, want %d", len(p.DismissedEmbeddings), maxDismissedToEmbed)
	}
}

func TestBuild_DismissedProfile_TruncatesTo300Chars(t *testing.T) {
	long := make([]rune, 400)
	for i := range long {
		long[i] = 'x'
	}
	descriptions := []string{string(long), string(long), string(long)}
	var gotTexts []string
	enc := &fakeEncoder{batchFn: func(texts []string) ([]embedding.Vector, error) {
		gotTexts = texts
		return make([]embedding.Vector, len(texts)), nil
	}}
	_, err := Build(context.Background(), enc, nil, descriptions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, text := range gotTexts {
		if len([]rune(text)) != dismissedTextMaxChars {
			t.Errorf("dismissed text len = %d, want %d", len([]rune(text)), dismissedTextMaxChars)
		}
	}
}

func TestMaxDismissedSimilarity_NoDismissed(t *testing.T) {
	got := MaxDismissedSimilarity(embedding.Vector{1, 0}, nil)
	if got != 0 {
		t.Errorf("MaxDismissedSimilarity = %v, want 0", got)
	}
}

func TestMaxDismissedSimilarity_TakesMax(t *testing.T) {
	candidate := embedding.Normalize([]float32{1, 0})
	dismissed := []embedding.Vector{
		embedding.Normalize([]float32{0, 1}),
		embedding.Normalize([]float32{1, 0.01}),
	}
	got := MaxDismissedSimilarity(candidate, dismissed)
	if got < 0.9 {
		t.Errorf("MaxDismissedSimilarity = %v, want close to 1.0 (max of the two)", got)
	}
}

func TestPreferredGenres_SortsDescendingAndTruncates(t *testing.T) {
	scores := map[string]float64{
		"Drama":   0.5,
		"Comedy":  0.9,
		"Horror":  0.1,
		"Fantasy": 0.7,
	}
	got := PreferredGenres(scores, 2)
	want := []string{"Comedy", "Fantasy"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("PreferredGenres = %v, want %v", got, want)
	}
}

func TestPreferredGenres_ExcludesZeroAndNegative(t *testing.T) {
	scores := map[string]float64{"A": 0, "B": -0.1, "C": 0.3}
	got := PreferredGenres(scores, 10)
	if len(got) != 1 || got[0] != "C" {
		t.Errorf("PreferredGenres = %v, want [C]", got)
	}
}

package store

import "time"

// MediaType distinguishes the four media categories the engine reasons
// about. Film and series are grouped as "screen content" upstream.
type MediaType string

const (
	MediaFilm       MediaType = "film"
	MediaSeries     MediaType = "series"
	MediaBook       MediaType = "book"
	MediaShortVideo MediaType = "short-video"
)

// MediaStatus is the user's consumption state for an owned media item.
type MediaStatus string

const (
	StatusToConsume  MediaStatus = "to-consume"
	StatusInProgress MediaStatus = "in-progress"
	StatusDone       MediaStatus = "done"
	StatusAbandoned  MediaStatus = "abandoned"
)

// Source tags how a recommendation was discovered.
type Source string

const (
	SourceSimilar        Source = "similar"
	SourceGenreDiscover   Source = "genre_discover"
	SourceCurated         Source = "curated"
	SourcePopular         Source = "popular"
	SourceFavoriteChannel Source = "favorite_channel"
)

// MediaItem is a user-owned item of rated or in-progress media. The core
// only ever reads these; they are created and rated by external user
// actions outside this module's scope.
type MediaItem struct {
	ID          string
	UserID      string
	Title       string
	Type        MediaType
	Year        int
	ExternalID  string
	Description string
	Status      MediaStatus
	Rating      int // 0 means absent
	Genres      []string
	Embedding   []float32 // nil means absent

	ChannelName string
	ExternalURL string
	CoverURL    string
}

// HasRating reports whether the item carries a user rating.
func (m MediaItem) HasRating() bool { return m.Rating > 0 }

// HasEmbedding reports whether the item carries a semantic embedding.
func (m MediaItem) HasEmbedding() bool { return len(m.Embedding) > 0 }

// Recommendation is a single generated slate entry attached to a user.
type Recommendation struct {
	ID                  string
	UserID              string
	MediaType           MediaType
	ExternalID          string
	Title               string
	Year                int
	CoverURL            string
	Description         string
	Score               float64
	Source              Source
	GenreName           string
	CatalogRating       float64
	IsStreamable        bool
	StreamingProviders   []string
	ExternalURL          string
	GeneratedAt          time.Time
	IsDismissed          bool
	AddedToLibrary       bool
}

// RecommendationFilter narrows a recommendation query. Zero-valued fields
// are treated as "don't filter on this".
type RecommendationFilter struct {
	Dismissed      *bool
	Added          *bool
	MediaType      MediaType
	GenreName      string
	GeneratedAfter time.Time
}

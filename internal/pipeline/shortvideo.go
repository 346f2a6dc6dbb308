package pipeline

import (
	"context"
	"sort"
	"time"

	"recoengine/internal/catalog"
	"recoengine/internal/store"
)

const (
	shortVideoTopChannels  = 10
	shortVideoBaseScore    = 0.7
	shortVideoRatingWeight = 0.1
	shortVideoCountWeight  = 0.02
	shortVideoMaxScore     = 0.98
)

// ShortVideoInput bundles the per-generation state the short-video
// pipeline needs. Unlike the other two pipelines, every candidate comes
// from the user's own library — no external adapter is consulted.
type ShortVideoInput struct {
	RatedMedia  []store.MediaItem // rated >= 4, short-video type, with ChannelName set
	ExcludedIDs map[string]bool
	Now         time.Time
}

// ShortVideoPipeline recommends the user's own unwatched videos from their
// favorite channels, entirely local to data already in the library.
type ShortVideoPipeline struct {
	Adapter catalog.ShortVideoAdapter
}

func NewShortVideoPipeline(adapter catalog.ShortVideoAdapter) *ShortVideoPipeline {
	return &ShortVideoPipeline{Adapter: adapter}
}

type channelStats struct {
	name       string
	count      int
	totalScore float64
}

func (p *ShortVideoPipeline) Generate(ctx context.Context, userID string, in ShortVideoInput) ([]store.Recommendation, error) {
	stats := make(map[string]*channelStats)
	for _, m := range in.RatedMedia {
		if m.Rating < minRatingForSeed || m.ChannelName == "" {
			continue
		}
		s, ok := stats[m.ChannelName]
		if !ok {
			s = &channelStats{name: m.ChannelName}
			stats[m.ChannelName] = s
		}
		s.count++
		s.totalScore += float64(m.Rating)
	}
	if len(stats) == 0 {
		return nil, nil
	}

	ranked := make([]*channelStats, 0, len(stats))
	for _, s := range stats {
		ranked = append(ranked, s)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return engagement(ranked[i]) > engagement(ranked[j])
	})
	if len(ranked) > shortVideoTopChannels {
		ranked = ranked[:shortVideoTopChannels]
	}

	library, err := p.Adapter.ToConsumeLibrary(ctx, userID)
	if err != nil {
		return nil, nil
	}
	byChannel := make(map[string][]catalog.LibraryItem)
	for _, item := range library {
		if item.Status != string(store.StatusToConsume) {
			continue
		}
		byChannel[item.ChannelName] = append(byChannel[item.ChannelName], item)
	}

	seen := make(map[string]bool)
	var recs []store.Recommendation
	for _, s := range ranked {
		avgRating := s.totalScore / float64(s.count)
		admitted := 0
		for _, item := range byChannel[s.name] {
			if admitted >= perGenreCap {
				break
			}
			if item.ID == "" || seen[item.ID] || in.ExcludedIDs[item.ID] {
				continue
			}
			seen[item.ID] = true
			score := shortVideoBaseScore + (avgRating-4)*shortVideoRatingWeight + float64(s.count)*shortVideoCountWeight
			if score > shortVideoMaxScore {
				score = shortVideoMaxScore
			}
			recs = append(recs, store.Recommendation{
				UserID: userID, MediaType: store.MediaShortVideo, ExternalID: item.ID,
				Title: item.Title, Year: item.Year, CoverURL: item.CoverURL, Description: item.Description,
				Score: score, Source: store.SourceFavoriteChannel, GenreName: s.name,
				ExternalURL: item.ExternalURL, GeneratedAt: in.Now,
			})
			admitted++
		}
	}
	return recs, nil
}

func engagement(s *channelStats) float64 {
	return (s.totalScore / float64(s.count)) * float64(s.count)
}

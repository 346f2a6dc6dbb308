package pipeline

import (
	"context"
	"fmt"
	"log"

	"recoengine/internal/catalog"
	"recoengine/internal/lru"
)

// streamingCountry is the fixed country code used for every streaming
// availability lookup this run makes.
const streamingCountry = "FR"

type streamInfo struct {
	streamable bool
	providers  []string
}

// streamingLookup memoizes WatchProviders calls in a bounded, per-generation
// LRU so a (kind, id) pair that was looked up successfully is served from
// the cache while it stays there; failed lookups are not cached.
type streamingLookup struct {
	adapter catalog.ScreenContentAdapter
	cache   *lru.Cache[string, streamInfo]
}

func newStreamingLookup(adapter catalog.ScreenContentAdapter, cache *lru.Cache[string, streamInfo]) *streamingLookup {
	return &streamingLookup{adapter: adapter, cache: cache}
}

// NewStreamingCache constructs the bounded LRU a ScreenPipeline needs for
// its Streaming field. Callers outside this package never need to name the
// cache's value type — they only hold and pass along what this returns.
func NewStreamingCache(capacity int) *lru.Cache[string, streamInfo] {
	return lru.New[string, streamInfo](capacity)
}

func (s *streamingLookup) lookup(ctx context.Context, kind catalog.MediaKind, id int) streamInfo {
	key := fmt.Sprintf("%s:%d", kind, id)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached
		}
	}
	groups, err := s.adapter.WatchProviders(ctx, id, kind, streamingCountry)
	if err != nil {
		log.Printf("pipeline: watch-providers lookup failed for %s %d: %v", kind, id, err)
		return streamInfo{}
	}
	info := streamInfo{streamable: catalog.HasFlatrate(groups)}
	for _, g := range groups {
		if g.Kind == "flatrate" {
			info.providers = append(info.providers, g.Providers...)
		}
	}
	if s.cache != nil {
		s.cache.Put(key, info)
	}
	return info
}

package main

import (
	"context"

	"recoengine/internal/catalog"
)

// demoScreenContent and demoBooks are small, static stand-ins for the
// upstream catalog clients (a TMDB-style discovery API, an Open Library
// search API) that spec marks out of scope for this module. They let the
// demo host answer a generation request with something, without this
// module taking on an HTTP client for a third party's API surface.
type demoScreenContent struct {
	discover map[catalog.MediaKind][]catalog.ScreenCandidate
	similar  map[int][]catalog.ScreenCandidate
}

func newDemoScreenContent() *demoScreenContent {
	films := []catalog.ScreenCandidate{
		{ID: 101, Title: "Arrival", Year: 2016, VoteAverage: 7.9, VoteCount: 9800, Popularity: 45, GenreIDs: []int{878, 18}},
		{ID: 102, Title: "Parasite", Year: 2019, VoteAverage: 8.5, VoteCount: 15300, Popularity: 60, GenreIDs: []int{53, 35, 18}},
		{ID: 103, Title: "Whiplash", Year: 2014, VoteAverage: 8.3, VoteCount: 12100, Popularity: 40, GenreIDs: []int{18, 10402}},
	}
	series := []catalog.ScreenCandidate{
		{ID: 201, Title: "Severance", Year: 2022, VoteAverage: 8.4, VoteCount: 4200, Popularity: 80, GenreIDs: []int{18, 9648}},
		{ID: 202, Title: "Dark", Year: 2017, VoteAverage: 8.6, VoteCount: 6100, Popularity: 55, GenreIDs: []int{18, 9648, 10765}},
	}
	return &demoScreenContent{
		discover: map[catalog.MediaKind][]catalog.ScreenCandidate{
			catalog.KindFilm:   films,
			catalog.KindSeries: series,
		},
		similar: map[int][]catalog.ScreenCandidate{},
	}
}

func (d *demoScreenContent) Discover(ctx context.Context, kind catalog.MediaKind, filter catalog.DiscoverFilter) ([]catalog.ScreenCandidate, error) {
	return d.discover[kind], nil
}

func (d *demoScreenContent) Similar(ctx context.Context, kind catalog.MediaKind, seedID int) ([]catalog.ScreenCandidate, error) {
	if hits := d.similar[seedID]; len(hits) > 0 {
		return hits, nil
	}
	return d.discover[kind], nil
}

func (d *demoScreenContent) WatchProviders(ctx context.Context, id int, kind catalog.MediaKind, country string) ([]catalog.ProviderGroup, error) {
	return nil, nil
}

type demoBooks struct {
	byQuery map[string][]catalog.BookCandidate
}

func newDemoBooks() *demoBooks {
	return &demoBooks{
		byQuery: map[string][]catalog.BookCandidate{
			// Matches the pipeline's second-pass query shape ("best %s books"),
			// the one book query shape this static stand-in can satisfy
			// without replicating the full curated title list.
			"best Science Fiction books": {
				{ExternalID: "OL1M", Key: "/works/OL1M", Title: "Project Hail Mary", Year: 2021},
				{ExternalID: "OL2M", Key: "/works/OL2M", Title: "The Three-Body Problem", Year: 2008},
			},
			"best Fantasy books": {
				{ExternalID: "OL3M", Key: "/works/OL3M", Title: "The Name of the Wind", Year: 2007},
			},
		},
	}
}

func (d *demoBooks) Search(ctx context.Context, query string, limit int) ([]catalog.BookCandidate, error) {
	results := d.byQuery[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Package catalogfake provides in-memory catalog.* adapter implementations
// for use in tests of the pipeline and orchestrator packages, which need a
// deterministic stand-in for the out-of-scope external catalog clients.
package catalogfake

import (
	"context"
	"errors"

	"recoengine/internal/catalog"
)

// ScreenContent is an in-memory catalog.ScreenContentAdapter. DiscoverByKind
// and SimilarBySeed key fixture results directly so tests can control
// exactly what each call returns; FailDiscover/FailSimilar/FailProviders
// simulate the single-adapter-failure case every caller must tolerate.
type ScreenContent struct {
	DiscoverByKind map[catalog.MediaKind][]catalog.ScreenCandidate
	SimilarBySeed  map[int][]catalog.ScreenCandidate
	Providers      map[int][]catalog.ProviderGroup

	FailDiscover  bool
	FailSimilar   bool
	FailProviders bool
}

var ErrFakeAdapterFailure = errors.New("catalogfake: simulated adapter failure")

func (f *ScreenContent) Discover(ctx context.Context, kind catalog.MediaKind, filter catalog.DiscoverFilter) ([]catalog.ScreenCandidate, error) {
	if f.FailDiscover {
		return nil, ErrFakeAdapterFailure
	}
	return f.DiscoverByKind[kind], nil
}

func (f *ScreenContent) Similar(ctx context.Context, kind catalog.MediaKind, seedID int) ([]catalog.ScreenCandidate, error) {
	if f.FailSimilar {
		return nil, ErrFakeAdapterFailure
	}
	return f.SimilarBySeed[seedID], nil
}

func (f *ScreenContent) WatchProviders(ctx context.Context, id int, kind catalog.MediaKind, country string) ([]catalog.ProviderGroup, error) {
	if f.FailProviders {
		return nil, ErrFakeAdapterFailure
	}
	return f.Providers[id], nil
}

// Book is an in-memory catalog.BookAdapter keyed on exact query string.
type Book struct {
	ResultsByQuery map[string][]catalog.BookCandidate
	FailSearch     bool
}

func (f *Book) Search(ctx context.Context, query string, limit int) ([]catalog.BookCandidate, error) {
	if f.FailSearch {
		return nil, ErrFakeAdapterFailure
	}
	results := f.ResultsByQuery[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ShortVideo is an in-memory catalog.ShortVideoAdapter keyed on user id.
type ShortVideo struct {
	LibraryByUser map[string][]catalog.LibraryItem
	FailLibrary   bool
}

func (f *ShortVideo) ToConsumeLibrary(ctx context.Context, userID string) ([]catalog.LibraryItem, error) {
	if f.FailLibrary {
		return nil, ErrFakeAdapterFailure
	}
	return f.LibraryByUser[userID], nil
}

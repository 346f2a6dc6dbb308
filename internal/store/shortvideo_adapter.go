package store

import (
	"context"

	"recoengine/internal/catalog"
)

// ShortVideoLibraryAdapter implements catalog.ShortVideoAdapter directly
// against the repository. Unlike the screen-content and book adapters,
// short-video candidates never come from an external catalog — the user's
// own library is the catalog — so this one has a real, wireable
// implementation instead of a test double standing in for an out-of-scope
// HTTP client.
type ShortVideoLibraryAdapter struct {
	repo *Repository
}

func NewShortVideoLibraryAdapter(repo *Repository) *ShortVideoLibraryAdapter {
	return &ShortVideoLibraryAdapter{repo: repo}
}

// ToConsumeLibrary returns every short-video item userID owns, regardless
// of status; the short-video pipeline itself filters to StatusToConsume.
func (a *ShortVideoLibraryAdapter) ToConsumeLibrary(ctx context.Context, userID string) ([]catalog.LibraryItem, error) {
	items, err := a.repo.LibraryItems(ctx, userID, MediaShortVideo)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.LibraryItem, len(items))
	for i, m := range items {
		out[i] = catalog.LibraryItem{
			ID: m.ID, Title: m.Title, Year: m.Year, Description: m.Description,
			CoverURL: m.CoverURL, ChannelName: m.ChannelName, ExternalURL: m.ExternalURL,
			Status: string(m.Status),
		}
	}
	return out, nil
}

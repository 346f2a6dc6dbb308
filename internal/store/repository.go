package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// querier is satisfied by both *CompatDB and *CompatConn, letting the
// transactional bulk-delete/insert operations run against whichever one the
// caller has open — a plain connection for reads, a conn held inside
// WithTx for the full-refresh replace.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repository is the concrete SQL-backed implementation of the repository
// contract the orchestrator depends on.
type Repository struct {
	db *CompatDB
}

func NewRepository(db *CompatDB) *Repository {
	return &Repository{db: db}
}

// DB returns the repository's underlying connection, for callers (WithTx,
// tests) that need to issue queries alongside the repository's own.
func (r *Repository) DB() *CompatDB {
	return r.db
}

// RatedMedia returns every media item owned by userID that carries a
// rating, with genres and embedding loaded, highest rating first.
func (r *Repository) RatedMedia(ctx context.Context, userID string) ([]MediaItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, type, COALESCE(year, 0), external_id,
		       COALESCE(description, ''), status, COALESCE(rating, 0), genres,
		       embedding, COALESCE(channel_name, ''), COALESCE(external_url, ''),
		       COALESCE(cover_url, '')
		FROM media_items
		WHERE user_id = ? AND rating IS NOT NULL
		ORDER BY rating DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query rated media: %w", err)
	}
	defer rows.Close()
	return scanMediaItems(rows)
}

// LibraryItems returns every media item owned by userID of the given type,
// rated or not (used by the short-video pipeline, which draws candidates
// from the user's own to-consume library rather than an external source).
func (r *Repository) LibraryItems(ctx context.Context, userID string, mediaType MediaType) ([]MediaItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, type, COALESCE(year, 0), external_id,
		       COALESCE(description, ''), status, COALESCE(rating, 0), genres,
		       embedding, COALESCE(channel_name, ''), COALESCE(external_url, ''),
		       COALESCE(cover_url, '')
		FROM media_items
		WHERE user_id = ? AND type = ?
		ORDER BY title`, userID, string(mediaType))
	if err != nil {
		return nil, fmt.Errorf("query library items: %w", err)
	}
	defer rows.Close()
	return scanMediaItems(rows)
}

func scanMediaItems(rows *sql.Rows) ([]MediaItem, error) {
	var items []MediaItem
	for rows.Next() {
		var m MediaItem
		var genresJSON string
		var embeddingBlob []byte
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.Type, &m.Year, &m.ExternalID,
			&m.Description, &m.Status, &m.Rating, &genresJSON, &embeddingBlob,
			&m.ChannelName, &m.ExternalURL, &m.CoverURL); err != nil {
			return nil, fmt.Errorf("scan media item: %w", err)
		}
		if genresJSON != "" {
			if err := json.Unmarshal([]byte(genresJSON), &m.Genres); err != nil {
				return nil, fmt.Errorf("decode genres for media %s: %w", m.ID, err)
			}
		}
		m.Embedding = blobToEmbedding(embeddingBlob)
		items = append(items, m)
	}
	return items, rows.Err()
}

// Recommendations returns recommendations for userID matching filter.
func (r *Repository) Recommendations(ctx context.Context, userID string, filter RecommendationFilter) ([]Recommendation, error) {
	query := `SELECT id, user_id, media_type, external_id, title, COALESCE(year, 0),
		       COALESCE(cover_url, ''), COALESCE(description, ''), score, source,
		       COALESCE(genre_name, ''), COALESCE(catalog_rating, 0), is_streamable,
		       COALESCE(streaming_providers, ''), COALESCE(external_url, ''),
		       generated_at, is_dismissed, added_to_library
		FROM recommendations WHERE user_id = ?`
	args := []interface{}{userID}

	if filter.Dismissed != nil {
		query += " AND is_dismissed = ?"
		args = append(args, boolParam(*filter.Dismissed))
	}
	if filter.Added != nil {
		query += " AND added_to_library = ?"
		args = append(args, boolParam(*filter.Added))
	}
	if filter.MediaType != "" {
		query += " AND media_type = ?"
		args = append(args, string(filter.MediaType))
	}
	if filter.GenreName != "" {
		query += " AND genre_name = ?"
		args = append(args, filter.GenreName)
	}
	if !filter.GeneratedAfter.IsZero() {
		query += " AND generated_at > ?"
		args = append(args, filter.GeneratedAfter.UTC().Format(time.RFC3339))
	}
	query += " ORDER BY score DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		var rec Recommendation
		var providersJSON string
		var generatedAt string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.MediaType, &rec.ExternalID, &rec.Title,
			&rec.Year, &rec.CoverURL, &rec.Description, &rec.Score, &rec.Source, &rec.GenreName,
			&rec.CatalogRating, &rec.IsStreamable, &providersJSON, &rec.ExternalURL,
			&generatedAt, &rec.IsDismissed, &rec.AddedToLibrary); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		if providersJSON != "" {
			if err := json.Unmarshal([]byte(providersJSON), &rec.StreamingProviders); err != nil {
				return nil, fmt.Errorf("decode streaming providers for %s: %w", rec.ID, err)
			}
		}
		if t, err := time.Parse(time.RFC3339, generatedAt); err == nil {
			rec.GeneratedAt = t
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteDismissedOlderThan deletes dismissed recommendations generated
// before the dismissed-GC window (default 7 days), run inside the given
// querier so it can be scoped to a transaction.
func (r *Repository) DeleteDismissedOlderThan(ctx context.Context, q querier, userID string, cutoff time.Time) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM recommendations
		WHERE user_id = ? AND is_dismissed = ? AND generated_at < ?`,
		userID, boolParam(true), cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("delete stale dismissed recommendations: %w", err)
	}
	return nil
}

// DeleteNonDismissed deletes every non-dismissed recommendation for
// userID, the bulk step of a full-refresh transactional replace.
func (r *Repository) DeleteNonDismissed(ctx context.Context, q querier, userID string) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM recommendations WHERE user_id = ? AND is_dismissed = ?`,
		userID, boolParam(false))
	if err != nil {
		return fmt.Errorf("delete non-dismissed recommendations: %w", err)
	}
	return nil
}

// InsertRecommendations bulk-inserts recs, run inside the given querier.
// Pipelines build recommendations without an ID; one is generated here so
// every row gets a unique primary key.
func (r *Repository) InsertRecommendations(ctx context.Context, q querier, recs []Recommendation) error {
	for _, rec := range recs {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		providersJSON, err := json.Marshal(rec.StreamingProviders)
		if err != nil {
			return fmt.Errorf("encode streaming providers: %w", err)
		}
		generatedAt := rec.GeneratedAt
		if generatedAt.IsZero() {
			generatedAt = time.Now().UTC()
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO recommendations
				(id, user_id, media_type, external_id, title, year, cover_url, description,
				 score, source, genre_name, catalog_rating, is_streamable, streaming_providers,
				 external_url, generated_at, is_dismissed, added_to_library)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.UserID, string(rec.MediaType), rec.ExternalID, rec.Title, nullableInt(rec.Year),
			rec.CoverURL, rec.Description, rec.Score, string(rec.Source), nullableString(rec.GenreName),
			nullableFloat(rec.CatalogRating), boolParam(rec.IsStreamable), string(providersJSON),
			rec.ExternalURL, generatedAt.Format(time.RFC3339), boolParam(rec.IsDismissed),
			boolParam(rec.AddedToLibrary))
		if err != nil {
			return fmt.Errorf("insert recommendation %s: %w", rec.ExternalID, err)
		}
	}
	return nil
}

// Dismiss marks a recommendation dismissed. Idempotent: succeeds silently
// if no row matches.
func (r *Repository) Dismiss(ctx context.Context, userID, recID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE recommendations SET is_dismissed = ? WHERE user_id = ? AND id = ?`,
		boolParam(true), userID, recID)
	if err != nil {
		return fmt.Errorf("dismiss recommendation %s: %w", recID, err)
	}
	return nil
}

// MarkAdded marks a recommendation added to the user's library. Idempotent:
// succeeds silently if no row matches.
func (r *Repository) MarkAdded(ctx context.Context, userID, externalID string, mediaType MediaType) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE recommendations SET added_to_library = ?
		WHERE user_id = ? AND external_id = ? AND media_type = ?`,
		boolParam(true), userID, externalID, string(mediaType))
	if err != nil {
		return fmt.Errorf("mark added %s/%s: %w", mediaType, externalID, err)
	}
	return nil
}

// boolParam passes b through unchanged — both the sqlite and postgres
// drivers accept a native bool as a query argument for boolean columns.
func boolParam(b bool) bool { return b }

func nullableInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(f float64) interface{} {
	if f == 0 {
		return nil
	}
	return f
}

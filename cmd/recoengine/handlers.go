package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"recoengine/internal/cursor"
	"recoengine/internal/httputil"
	"recoengine/internal/recoengine"
	"recoengine/internal/store"
)

// api holds the dependencies every handler needs. One instance is built in
// main and its methods registered as routes.
type api struct {
	engine *recoengine.Engine
	repo   *store.Repository
}

const defaultPageSize = 20

// handleListRecommendations serves GET /api/recommendations, keyset-paginated
// by (score DESC, id) using the cursor package. media_type and after (an
// opaque cursor from a prior page's response) are optional query params.
func (a *api) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := store.RecommendationFilter{}
	dismissed := false
	filter.Dismissed = &dismissed
	if mt := r.URL.Query().Get("media_type"); mt != "" {
		filter.MediaType = store.MediaType(mt)
	}

	pageSize := defaultPageSize
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
		pageSize = n
	}

	recs, err := a.repo.Recommendations(r.Context(), userID, filter)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load recommendations")
		return
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].ID < recs[j].ID
	})

	if after := r.URL.Query().Get("after"); after != "" {
		values, ok := cursor.Decode(after)
		if !ok {
			httputil.WriteError(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		afterScore, _ := values["sort_value"].(float64)
		afterID, _ := values["id"].(string)
		recs = seekPast(recs, afterScore, afterID)
	}

	page := recs
	var nextCursor string
	if len(page) > pageSize {
		page = page[:pageSize]
	}
	if len(recs) > len(page) {
		last := page[len(page)-1]
		if c, err := cursor.FromSortKey(last.Score, last.ID, "score"); err == nil {
			nextCursor = c
		}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": page,
		"next_cursor":     nextCursor,
	})
}

// seekPast drops every recommendation at or before (score DESC, id ASC)
// position (afterScore, afterID) in recs, which must already be sorted that
// way.
func seekPast(recs []store.Recommendation, afterScore float64, afterID string) []store.Recommendation {
	for i, rec := range recs {
		if rec.Score < afterScore || (rec.Score == afterScore && rec.ID > afterID) {
			return recs[i:]
		}
	}
	return nil
}

// handleGenerate serves POST /api/recommendations/generate. force=true skips
// the freshness check and always regenerates.
func (a *api) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	force := r.URL.Query().Get("force") == "true"

	results, err := a.engine.Generate(r.Context(), userID, force)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to generate recommendations")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, results)
}

// handleGenerateStream serves GET /api/recommendations/generate/stream as
// Server-Sent Events, one "data:" line per recoengine.ProgressEvent.
func (a *api) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	a.streamProgress(w, r, a.engine.GenerateStreaming)
}

// handleCompleteStream serves GET /api/recommendations/complete/stream,
// gap-filling the existing slate instead of replacing it.
func (a *api) handleCompleteStream(w http.ResponseWriter, r *http.Request) {
	a.streamProgress(w, r, a.engine.CompleteStreaming)
}

func (a *api) streamProgress(w http.ResponseWriter, r *http.Request, run func(context.Context, string) <-chan recoengine.ProgressEvent) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range run(r.Context(), userID) {
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}

// handleDismiss serves POST /api/recommendations/{id}/dismiss.
func (a *api) handleDismiss(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.engine.Dismiss(r.Context(), userID, id); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to dismiss recommendation")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// markAddedRequest is the JSON body for POST /api/recommendations/mark-added.
type markAddedRequest struct {
	ExternalID string          `json:"external_id"`
	MediaType  store.MediaType `json:"media_type"`
}

// handleMarkAdded serves POST /api/recommendations/mark-added.
func (a *api) handleMarkAdded(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req markAddedRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, httputil.DefaultBodyLimit)).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ExternalID == "" || req.MediaType == "" {
		httputil.WriteError(w, http.StatusBadRequest, "external_id and media_type are required")
		return
	}
	if err := a.engine.MarkAdded(r.Context(), userID, req.ExternalID, req.MediaType); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to mark recommendation added")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	_ "modernc.org/sqlite"

	"recoengine/internal/catalog"
	"recoengine/internal/embedding"
	"recoengine/internal/recoengine"
	"recoengine/internal/store"
)

func newTestAPI(t *testing.T) *api {
	t.Helper()
	rawDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := store.RunMigrations(rawDB, store.DialectSQLite); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { rawDB.Close() })
	compatDB := store.NewCompatDB(rawDB, store.DialectSQLite)
	repo := store.NewRepository(compatDB)
	enc := embedding.New(newEmbeddingModel(""))
	eng := recoengine.New(compatDB, repo, enc, newDemoScreenContent(), newDemoBooks(), store.NewShortVideoLibraryAdapter(repo))
	return &api{engine: eng, repo: repo}
}

func insertTestRecommendation(t *testing.T, a *api, rec store.Recommendation) {
	t.Helper()
	if rec.Source == "" {
		rec.Source = store.SourcePopular
	}
	if err := a.repo.InsertRecommendations(context.Background(), a.dbForTest(), []store.Recommendation{rec}); err != nil {
		t.Fatalf("insert test recommendation: %v", err)
	}
}

// dbForTest exposes the api's underlying CompatDB to tests in this package
// only — handlers.go never needs this, so it is not part of api's normal
// surface.
func (a *api) dbForTest() *store.CompatDB {
	return a.repo.DB()
}

// authedRequest builds a request with the user ID already attached to the
// context, the way authMiddleware would have after validating a JWT. The
// middleware itself is exercised separately in TestAuthMiddleware_RejectsMissingToken.
func authedRequest(t *testing.T, method, url string, body interface{}, userID string) *http.Request {
	t.Helper()
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, url, bytes.NewReader(b))
	ctx := context.WithValue(req.Context(), userIDKey, userID)
	return req.WithContext(ctx)
}

func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	return m
}

func TestHandleGenerate_UserWithEmptyLibraryReturnsOK(t *testing.T) {
	a := newTestAPI(t)
	req := authedRequest(t, "POST", "/api/recommendations/generate", nil, "u1")
	rec := httptest.NewRecorder()

	a.handleGenerate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("handleGenerate status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleGenerate_Unauthorized(t *testing.T) {
	a := newTestAPI(t)
	req := httptest.NewRequest("POST", "/api/recommendations/generate", nil)
	rec := httptest.NewRecorder()

	a.handleGenerate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleMarkAdded_RejectsMissingFields(t *testing.T) {
	a := newTestAPI(t)
	req := authedRequest(t, "POST", "/api/recommendations/mark-added", map[string]string{}, "u1")
	rec := httptest.NewRecorder()

	a.handleMarkAdded(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleMarkAdded_Idempotent(t *testing.T) {
	a := newTestAPI(t)
	body := markAddedRequest{ExternalID: "42", MediaType: store.MediaFilm}
	req := authedRequest(t, "POST", "/api/recommendations/mark-added", body, "u1")
	rec := httptest.NewRecorder()

	a.handleMarkAdded(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON(t, rec)
	if resp["ok"] != true {
		t.Errorf("response = %+v, want ok=true", resp)
	}
}

func TestHandleDismiss_UnknownIDIsANoOp(t *testing.T) {
	a := newTestAPI(t)
	req := authedRequest(t, "POST", "/api/recommendations/does-not-exist/dismiss", nil, "u1")
	req = withChiParam(req, "id", "does-not-exist")
	rec := httptest.NewRecorder()

	a.handleDismiss(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleListRecommendations_PaginatesByCursor(t *testing.T) {
	a := newTestAPI(t)
	insertTestRecommendation(t, a, store.Recommendation{ID: "r1", UserID: "u1", MediaType: store.MediaFilm, ExternalID: "1", Title: "A", Score: 0.9})
	insertTestRecommendation(t, a, store.Recommendation{ID: "r2", UserID: "u1", MediaType: store.MediaFilm, ExternalID: "2", Title: "B", Score: 0.8})
	insertTestRecommendation(t, a, store.Recommendation{ID: "r3", UserID: "u1", MediaType: store.MediaFilm, ExternalID: "3", Title: "C", Score: 0.7})

	first := httptest.NewRecorder()
	a.handleListRecommendations(first, authedRequest(t, "GET", "/api/recommendations?limit=2", nil, "u1"))
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", first.Code, first.Body.String())
	}
	page1 := decodeJSON(t, first)
	recs1, _ := page1["recommendations"].([]interface{})
	if len(recs1) != 2 {
		t.Fatalf("page 1 len = %d, want 2", len(recs1))
	}
	nextCursor, _ := page1["next_cursor"].(string)
	if nextCursor == "" {
		t.Fatal("expected a non-empty next_cursor for a partial first page")
	}

	second := httptest.NewRecorder()
	a.handleListRecommendations(second, authedRequest(t, "GET", "/api/recommendations?limit=2&after="+nextCursor, nil, "u1"))
	if second.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", second.Code, second.Body.String())
	}
	page2 := decodeJSON(t, second)
	recs2, _ := page2["recommendations"].([]interface{})
	if len(recs2) != 1 {
		t.Fatalf("page 2 len = %d, want 1", len(recs2))
	}
}

func TestHandleListRecommendations_Unauthorized(t *testing.T) {
	a := newTestAPI(t)
	req := httptest.NewRequest("GET", "/api/recommendations", nil)
	rec := httptest.NewRecorder()

	a.handleListRecommendations(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHashEmbeddingModel_SimilarTextsAreCloser(t *testing.T) {
	m := newEmbeddingModel("")
	a, err := m.Encode("Arrival science fiction drama")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := m.Encode("Arrival science fiction mystery")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	c, err := m.Encode("completely unrelated text about gardening")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	simAB, _ := embedding.Similarity(a, b)
	simAC, _ := embedding.Similarity(a, c)
	if simAB <= simAC {
		t.Errorf("expected shared-token texts to be more similar: sim(a,b)=%f, sim(a,c)=%f", simAB, simAC)
	}
}

func TestDemoScreenContent_DiscoverReturnsSeedData(t *testing.T) {
	d := newDemoScreenContent()
	films, err := d.Discover(context.Background(), catalog.KindFilm, catalog.DiscoverFilter{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(films) == 0 {
		t.Error("expected at least one seeded film")
	}
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	called := false
	h := authMiddleware("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest("GET", "/api/recommendations", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Error("handler should not run without a valid token")
	}
}

func TestExtractUserID_RoundTripsSubjectClaim(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signHS256(t, map[string]interface{}{"sub": "u42"}, "secret"))

	if got := extractUserID(req, "secret"); got != "u42" {
		t.Errorf("extractUserID = %q, want u42", got)
	}
}

func TestExtractUserID_RejectsWrongSecret(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signHS256(t, map[string]interface{}{"sub": "u42"}, "secret"))

	if got := extractUserID(req, "other-secret"); got != "" {
		t.Errorf("extractUserID = %q, want empty for a token signed with a different secret", got)
	}
}

func signHS256(t *testing.T, claims map[string]interface{}, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims))
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return s
}

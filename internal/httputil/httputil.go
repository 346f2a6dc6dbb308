// Package httputil holds the small set of HTTP response helpers the demo
// server uses: JSON encoding and request body size limiting.
package httputil

import (
	"encoding/json"
	"io"
	"net/http"
)

// DefaultBodyLimit is the default maximum request body size (1 MB).
const DefaultBodyLimit int64 = 1 << 20

// WriteJSON sends a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a {"error": message} JSON body with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// MaxBody wraps r.Body with a size limit to prevent oversized payloads.
func MaxBody(r *http.Request, n int64) {
	r.Body = http.MaxBytesReader(nil, r.Body, n)
}

// LimitedBodyReader returns an io.Reader capped at DefaultBodyLimit.
func LimitedBodyReader(r *http.Request) io.Reader {
	return io.LimitReader(r.Body, DefaultBodyLimit)
}

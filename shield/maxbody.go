package shield

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// MaxBody limits request bodies to maxBytes. A request whose declared
// Content-Length is already too large is refused with 413 before the
// handler runs; chunked bodies are cut off while being read.
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				GetLogger(r.Context()).Warn("shield: body too large",
					"path", r.URL.Path, "length", r.ContentLength, "limit", maxBytes)
				writeError(w, http.StatusRequestEntityTooLarge,
					"request body exceeds "+strconv.FormatInt(maxBytes, 10)+" bytes")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

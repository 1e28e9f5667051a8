package api

import (
	"mime"
	"net/http"
)

// EnsureJSONContentType enforces Content-Type: application/json header
func EnsureJSONContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-Type")

		if contentType == "" {
			errorResponse(w, "empty Content-Type", http.StatusBadRequest)
			return
		}

		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			errorResponse(w, "malformed Content-Type header", http.StatusBadRequest)
			return
		}
		if mt != "application/json" {
			errorResponse(w, "Content-Type header must be application/json", http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r)
	})
}

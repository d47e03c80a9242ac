package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl sets a public max-age header on GET responses.
func CacheControl(maxAgeSeconds int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAgeSeconds))
			}
			next.ServeHTTP(w, r)
		})
	}
}

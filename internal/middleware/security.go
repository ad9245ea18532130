package middleware

import (
	"net/http"
)

// Security adds security-related headers to all responses
func Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		// The API serves binary image payloads; nosniff keeps browsers
		// from second-guessing the Content-Type we set
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		// JSON/image responses only, no active content
		h.Set("Content-Security-Policy", "default-src 'none'")

		// HSTS only makes sense when the connection is already TLS
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

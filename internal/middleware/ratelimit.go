package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit limits requests per client IP in a sliding window and answers
// with the JSON error envelope once the limit is hit.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
		}),
	)
}

// AuthRateLimit guards the sign-in endpoints.
func AuthRateLimit() func(http.Handler) http.Handler {
	return RateLimit(20, time.Minute)
}

// APIRateLimit guards the rest of the API.
func APIRateLimit() func(http.Handler) http.Handler {
	return RateLimit(600, time.Minute)
}

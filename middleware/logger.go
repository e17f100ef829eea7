package middleware

import (
	"net/http"
	"time"

	"snapChallengeAPI/internal/logger"
)

// LoggerMiddleware logs method, path, status and duration of every request.
func LoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := newResponseWriter(w)

		next.ServeHTTP(ww, r)

		logger.Request(r.Method, r.URL.Path, ww.statusCode, time.Since(start))
	})
}

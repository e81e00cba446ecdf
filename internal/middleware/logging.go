// middleware/logging.go
package middleware

import (
	"net/http"
	"time"

	"autobazar/listing-editor/internal/auth"
	"autobazar/listing-editor/internal/logging"
)

// Logging writes a debug line per request. Headers are never logged since
// they carry the marketplace bearer token.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		logging.Debug("→ request", "method", r.Method, "path", r.URL.Path, "request_id", auth.GetRequestID(r.Context()))

		start := time.Now()
		next.ServeHTTP(lw, r)

		logging.Debug("← response",
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", lw.statusCode,
			"took", time.Since(start),
			"request_id", auth.GetRequestID(r.Context()),
		)
	})
}

package logger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/screwyprof/hnttax/pkg/httpkit"
)

// NewMiddleware creates HTTP request logging middleware.
// Server errors are logged at ERROR, everything else at INFO.
func NewMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Ensure error tracking context exists (in case httpkit.HandlerFunc wasn't used)
			r = r.WithContext(httpkit.WithErrorTracking(r.Context()))

			// ContentLength is -1 when unknown
			bytesIn := max(0, int(r.ContentLength))

			rw := httpkit.NewStatusRecorder(w)
			next.ServeHTTP(rw, r)

			level := slog.LevelInfo
			if rw.StatusCode >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("uri", r.RequestURI),
				slog.Int("status", rw.StatusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes_in", bytesIn),
				slog.Int("bytes_out", rw.BytesOut),
			}

			// Pattern is filled in by http.ServeMux once the route matched
			if r.Pattern != "" {
				attrs = append(attrs, slog.String("route", r.Pattern))
			}

			if err := httpkit.Error(r.Context()); err != nil {
				attrs = append(attrs, slog.String("error", errorMessage(err)))
			}

			logger.LogAttrs(r.Context(), level, "HTTP", attrs...)
		})
	}
}

// errorMessage prefers the detailed cause of an HTTP error for logs
func errorMessage(err error) string {
	if httpErr, ok := err.(httpkit.HTTPError); ok {
		return httpErr.Cause().Error()
	}
	return err.Error()
}

// Package middleware provides HTTP middleware for the conversion server.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/nem12sql/internal/logging"
)

// RunIDHeader carries the conversion run ID on /api/convert responses.
const RunIDHeader = "X-Run-Id"

// Logger logs one structured entry per request once the handler returns.
//
// Log fields: method, path, status, bytes, duration_ms, ip, and run_id when
// the handler started a conversion. request_id comes from chi's RequestID
// through logging.FromContext.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		logger := logging.FromContext(r.Context())
		if runID := ww.Header().Get(RunIDHeader); runID != "" {
			logger = logger.With("run_id", runID)
		}

		level := logging.LevelForStatus(ww.status)
		logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"bytes", ww.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
		)
	})
}

// responseWriter records the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

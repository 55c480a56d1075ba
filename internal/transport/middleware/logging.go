package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/access-management/pkg/logger"
)

// sensitiveHeaders never appear in request logs; tokens and credentials
// travel through this service on almost every call.
var sensitiveHeaders = []string{
	"authorization",
	"cookie",
	"x-api-key",
}

func LoggingMiddleware(fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			lg := logger.From(r.Context())
			if lg == nil {
				lg = fallback
			}

			lg.Info("incoming request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", filterHeaders(r.Header),
			)

			ww := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(ww, r)

			status := ww.status
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			lg.Log(r.Context(), level, "response",
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", status,
				"bytes", ww.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func filterHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		lower := strings.ToLower(name)
		masked := false
		for _, s := range sensitiveHeaders {
			if lower == s {
				masked = true
				break
			}
		}
		if masked {
			out[name] = "[FILTERED]"
		} else {
			out[name] = strings.Join(values, ", ")
		}
	}
	return out
}

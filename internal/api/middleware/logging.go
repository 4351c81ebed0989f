package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"subhub/internal/domain/model"
	"sync"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const logEntryCtxKey contextKey = "logEntry"

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// logEntry lets handlers deeper in the chain attach the principal to the
// access log line written by the outer middleware.
type logEntry struct {
	mu        sync.Mutex
	principal *model.Principal
}

func (e *logEntry) setPrincipal(p model.Principal) {
	e.mu.Lock()
	e.principal = &p
	e.mu.Unlock()
}

func (e *logEntry) attrs() []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.principal == nil {
		return nil
	}
	attrs := []any{slog.String("role", string(e.principal.Role))}
	if e.principal.UserID != "" {
		attrs = append(attrs, slog.String("uuid", e.principal.UserID))
	}
	return attrs
}

// NewLoggingMiddleware writes one structured line per request.
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			entry := &logEntry{}

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), logEntryCtxKey, entry)))

			args := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
			}
			if id := chiMiddleware.GetReqID(r.Context()); id != "" {
				args = append(args, slog.String("request_id", id))
			}
			args = append(args, entry.attrs()...)

			level := slog.LevelInfo
			if rec.statusCode >= 500 {
				level = slog.LevelError
			} else if rec.statusCode >= 400 {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http_request", args...)
		})
	}
}

package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// quietPaths are probed constantly and only logged when they fail.
var quietPaths = map[string]struct{}{
	"/healthz": {},
	"/metrics": {},
}

func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		t1 := time.Now()
		defer func() {
			status := ww.Status()
			if _, quiet := quietPaths[r.URL.Path]; quiet && status < 400 {
				return
			}

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(t1)),
			}

			switch {
			case status >= 500:
				slog.ErrorContext(r.Context(), "http request completed", attrs...)
			case status >= 400:
				slog.WarnContext(r.Context(), "http request completed", attrs...)
			default:
				slog.InfoContext(r.Context(), "http request completed", attrs...)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}

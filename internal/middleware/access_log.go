package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"inquill/internal/logging"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type AccessLogOptions struct {
	TrustProxy bool
}

// AccessLog stores request metadata for audit entries and logs one line per
// request once the handler returns.
func AccessLog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			requestID := chimw.GetReqID(r.Context())
			clientIP := ClientIP(r, opt.TrustProxy)

			ctx := logging.WithRequestContext(r.Context(), requestID, clientIP, r.Method+" "+r.URL.Path)
			r = r.WithContext(ctx)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
				slog.String("client_ip", clientIP),
				slog.String("user_agent", r.UserAgent()),
			}
			// OptionalAuth runs inside next and records the user on the
			// shared request info.
			if info, ok := logging.RequestInfoFrom(ctx); ok && info.ActorID != "" {
				attrs = append(attrs, slog.String("user_id", info.ActorID))
			}
			if n := ww.BytesWritten(); n > 0 {
				attrs = append(attrs, slog.Int("response_bytes", n))
			}
			slog.LogAttrs(r.Context(), level, "access", attrs...)
		})
	}
}

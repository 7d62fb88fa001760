package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/09ahmad/lyftr-backend-assignment/internal/metrics"
)

// Logger returns a request logging middleware using zerolog.
//
// A child logger carrying the request id is placed in the request context.
// Handlers add fields to it with zerolog.Ctx(ctx).UpdateContext, and exactly
// one line is written per request once the handler returns.
func Logger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logger.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Logger()
			ctx := reqLogger.WithContext(r.Context())

			// Wrap response writer to capture status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				l := zerolog.Ctx(ctx)
				var event *zerolog.Event
				switch {
				case status >= 500:
					event = l.Error()
				case status >= 400:
					event = l.Warn()
				default:
					event = l.Info()
				}

				event.
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Int64("latency_ms", time.Since(start).Milliseconds()).
					Str("remote_addr", r.RemoteAddr).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}

// AnnotateWebhook attaches the webhook outcome to the request's log line.
func AnnotateWebhook(ctx context.Context, messageID, result string) {
	zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
		if messageID != "" {
			c = c.Str("message_id", messageID)
		}
		return c.
			Bool("dup", result == metrics.OutcomeDuplicate).
			Str("result", result)
	})
}

// AnnotateError attaches err to the request's log line.
func AnnotateError(ctx context.Context, err error) {
	zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Err(err)
	})
}

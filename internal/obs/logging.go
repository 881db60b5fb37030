package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/growmax/storefront-pricing/internal/common"
	"github.com/growmax/storefront-pricing/internal/tenant"
)

// NewLogger builds the process logger. format "console" (or "text") gives
// human readable output, anything else JSON. Unknown levels fall back to info.
func NewLogger(format, level string) zerolog.Logger {
	return newLogger(os.Stdout, format, level)
}

func newLogger(w io.Writer, format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "text":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// RequestLogger writes one http_request line per request and puts a request
// scoped logger in the context for handlers (zerolog.Ctx).
type RequestLogger struct {
	Logger zerolog.Logger
	// Quiet lists paths logged at debug level, e.g. probes and scrapes.
	Quiet []string
}

func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		fields := l.Logger.With().Str("request_id", middleware.GetReqID(ctx))
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = fields.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
		}
		if id, ok := tenant.FromContext(ctx); ok {
			fields = fields.Str("tenant_id", id)
		}
		if user, ok := common.UserID(ctx); ok {
			fields = fields.Str("user_id", user)
		}
		reqLogger := fields.Logger()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(reqLogger.WithContext(ctx)))

		route := routeOf(r)
		if route == "" {
			route = r.URL.Path
		}
		status := statusOf(ww)
		reqLogger.WithLevel(l.level(r.URL.Path, status)).
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("remote_addr", common.ClientIP(r)).
			Str("user_agent", r.UserAgent()).
			Msg("http_request")
	})
}

func (l RequestLogger) level(path string, status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	}
	for _, p := range l.Quiet {
		if p == path {
			return zerolog.DebugLevel
		}
	}
	return zerolog.InfoLevel
}

package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/secmon-lab/bqagent/pkg/utils/logging"
	"github.com/secmon-lab/bqagent/pkg/utils/request_id"
)

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, reqID := request_id.Generate(r.Context())
		logger := logging.From(ctx).With("request_id", reqID)
		w.Header().Set("X-Request-ID", reqID)

		attrs := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("query", r.URL.Query()),
			slog.String("remote_addr", r.RemoteAddr),
		}

		if logger.Enabled(ctx, slog.LevelDebug) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Warn("failed to read request body", logging.ErrAttr(err))
			} else {
				attrs = append(attrs, slog.String("body", string(body)))
			}
			r.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		start := time.Now()
		sw := &statusResponseWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r.WithContext(logging.With(ctx, logger)))
		attrs = append(attrs,
			slog.Int("status", sw.status),
			slog.Duration("duration", time.Since(start)),
		)

		logger.Info("Access Log", attrs...)
	})
}

package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/omeyang/xshortlink/internal/logging"
	"github.com/omeyang/xshortlink/internal/telemetry"
)

// HeaderRequestID 请求 ID 头。
const HeaderRequestID = "X-Request-Id"

// maxRequestIDLen 超过该长度的外部请求 ID 会被替换。
const maxRequestIDLen = 128

// requestID 沿用调用方提供的请求 ID，缺失或过长时生成 UUID，
// 写入响应头并放入 context 供日志使用。
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// requestLogger 为每个请求创建服务端跨度并在结束时记录一行访问日志。
func requestLogger(logger logging.Logger, observer telemetry.Observer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, span := telemetry.Start(r.Context(), observer, telemetry.SpanOptions{
				Component: "http",
				Operation: r.Method,
				Kind:      telemetry.KindServer,
			})
			r = r.WithContext(ctx)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			result := telemetry.Result{
				Attrs: []attribute.KeyValue{
					attribute.String("http.route", route),
					attribute.Int("http.status_code", status),
				},
			}
			if status >= http.StatusInternalServerError {
				result.Status = telemetry.StatusError
			}
			span.End(result)

			logger.Info(ctx, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)))
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

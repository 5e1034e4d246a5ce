package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type requestIDKey struct{}

// WithRequestID 将请求 ID 写入 context，后续日志会自动带上 request_id 字段。
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID 从 context 读取请求 ID，不存在时返回空字符串。
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// enrichHandler 在写日志前从 context 提取请求 ID 与 trace 信息。
// context 中缺少字段时不注入，不影响日志记录。
type enrichHandler struct {
	base slog.Handler
}

func newEnrichHandler(base slog.Handler) *enrichHandler {
	return &enrichHandler{base: base}
}

func (h *enrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle 按 slog 约定先 Clone record 再追加属性。
func (h *enrichHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf [3]slog.Attr
	attrs := buf[:0]
	if id := RequestID(ctx); id != "" {
		attrs = append(attrs, slog.String(KeyRequestID, id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String(KeyTraceID, sc.TraceID().String()),
			slog.String(KeySpanID, sc.SpanID().String()))
	}
	if len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.base.Handle(ctx, r)
}

func (h *enrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &enrichHandler{base: h.base.WithAttrs(attrs)}
}

func (h *enrichHandler) WithGroup(name string) slog.Handler {
	return &enrichHandler{base: h.base.WithGroup(name)}
}

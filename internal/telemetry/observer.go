// Package telemetry 提供服务操作的统一观测接口。
//
// 业务代码只依赖 [Observer]/[Span]；默认使用 [NoopObserver]，
// 生产环境通过 [NewOTelObserver] 接入 OpenTelemetry 的 trace 与 metric。
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// Kind 表示观测跨度类型。
type Kind int

const (
	KindInternal Kind = iota
	KindServer
	KindClient
)

// Status 表示观测结果状态。
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// SpanOptions 定义观测跨度的创建参数。
type SpanOptions struct {
	// Component 标识组件名称，如 "resolver"、"cached"。
	Component string
	// Operation 标识操作名称，如 "create"。
	Operation string
	Kind      Kind
	Attrs     []attribute.KeyValue
}

// Result 表示观测跨度结束时的结果。
type Result struct {
	// Status 为空时根据 Err 推导。
	Status Status
	Err    error
	Attrs  []attribute.KeyValue
}

// Span 表示一次观测跨度。
type Span interface {
	// End 结束观测并记录结果，多次调用只生效一次。
	End(result Result)
}

// Observer 定义统一观测接口。
type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// NoopObserver 是空实现。
type NoopObserver struct{}

func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

// NoopSpan 是空跨度实现。
type NoopSpan struct{}

func (NoopSpan) End(Result) {}

// Start 使用 observer 开始观测，保证返回非 nil 的 context 与 Span。
// observer 为 nil 时返回空跨度。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return retCtx, span
}

func resolveStatus(result Result) Status {
	if result.Status != "" {
		return result.Status
	}
	if result.Err != nil {
		return StatusError
	}
	return StatusOK
}

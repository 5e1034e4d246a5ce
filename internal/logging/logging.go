// Package logging 提供服务内部使用的结构化日志。
//
// 设计要点：
//   - 强制 context 传递，请求 ID 与 trace 信息由 Handler 自动注入
//   - 方法签名只接受 slog.Attr，避免隐式 key-value 转换
//   - 动态级别控制，配置热更新时无需重建 Logger
//   - Build() 返回 cleanup 函数，负责关闭日志文件
package logging

import (
	"context"
	"log/slog"
)

// Logger 日志接口。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger，派生 Logger 与父级共享级别。
	With(attrs ...slog.Attr) Logger
}

// Leveler 级别控制接口。
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 组合接口，Build() 返回此类型。
type LoggerWithLevel interface {
	Logger
	Leveler
}

// 常用属性键。
const (
	KeyError     = "error"
	KeyRequestID = "request_id"
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
	KeyComponent = "component"
)

// Err 构造错误属性，err 为 nil 时值为空字符串。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// Component 构造组件名属性。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

package logging

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

var (
	_ Logger          = (*logger)(nil)
	_ LoggerWithLevel = (*logger)(nil)
)

type logger struct {
	handler   slog.Handler
	levelVar  *slog.LevelVar
	addSource bool
}

//go:noinline
func (l *logger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, level) {
		return
	}

	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		// Callers → log → Debug/Info/… → 业务代码
		runtime.Callers(3, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	// 日志写失败不向业务返回。
	_ = l.handler.Handle(ctx, r)
}

func (l *logger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

func (l *logger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

func (l *logger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

func (l *logger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

func (l *logger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return &logger{
		handler:   l.handler.WithAttrs(attrs),
		levelVar:  l.levelVar,
		addSource: l.addSource,
	}
}

func (l *logger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

func (l *logger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

func (l *logger) Enabled(ctx context.Context, level Level) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	return l.handler.Enabled(ctx, slog.Level(level))
}

// Discard 返回丢弃所有输出的 Logger，用于测试或未配置日志的组件。
func Discard() LoggerWithLevel {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelError + 1)
	return &logger{
		handler:  slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: lv}),
		levelVar: lv,
	}
}

// Slog 返回与 l 共享输出的 *slog.Logger，用于只接受标准库 logger 的第三方组件。
// l 不是本包构建的实现时返回丢弃输出的 logger。
func Slog(l Logger) *slog.Logger {
	if impl, ok := l.(*logger); ok {
		return slog.New(impl.handler)
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

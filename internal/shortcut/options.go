package shortcut

import (
	"github.com/omeyang/xshortlink/internal/logging"
	"github.com/omeyang/xshortlink/internal/shortid"
	"github.com/omeyang/xshortlink/internal/telemetry"
	"github.com/omeyang/xshortlink/pkg/util/xlru"
)

// Option 配置 [Resolver] 与 [Cached]。不适用于目标类型的选项会被忽略。
type Option func(*options)

type options struct {
	generator    shortid.Generator
	logger       logging.Logger
	observer     telemetry.Observer
	cacheMetrics xlru.Metrics
}

func defaultOptions() *options {
	return &options{
		generator: shortid.SHA256{},
		logger:    logging.Discard(),
		observer:  telemetry.NoopObserver{},
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithGenerator 设置 ID 生成器（仅 Resolver），nil 忽略。
func WithGenerator(g shortid.Generator) Option {
	return func(o *options) {
		if g != nil {
			o.generator = g
		}
	}
}

// WithLogger 设置日志，nil 忽略。
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 设置观测器，nil 忽略。
func WithObserver(obs telemetry.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithCacheMetrics 设置缓存指标接收器（仅 Cached），nil 忽略。
func WithCacheMetrics(m xlru.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.cacheMetrics = m
		}
	}
}

// Package httpapi 将 [shortcut.Service] 暴露为 HTTP 接口。
//
// 路由：
//
//	POST /v1/urls            创建短链，201 + Location
//	GET  /v1/urls?url=...    按 URL 反查，200 + JSON 数组
//	GET  /v1/urls/{id}       302 跳转到原始 URL
//	GET  /{id}               同上，短形式
//	GET  /healthz            存储健康检查
//
// 错误响应体统一为 {"msg": "..."}。
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/omeyang/xshortlink/internal/logging"
	"github.com/omeyang/xshortlink/internal/shortcut"
	"github.com/omeyang/xshortlink/internal/telemetry"
)

// HealthFunc 检查依赖是否可用。
type HealthFunc func(ctx context.Context) error

// Option 配置路由。
type Option func(*options)

type options struct {
	logger         logging.Logger
	observer       telemetry.Observer
	timeout        time.Duration
	health         HealthFunc
	metricsPath    string
	metricsHandler http.Handler
	limiter        *RateLimiter
}

// WithLogger 设置日志，nil 忽略。
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 为每个请求创建服务端跨度，nil 忽略。
func WithObserver(obs telemetry.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithTimeout 设置单个请求的处理时限，非正值表示不限制。
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHealth 设置 /healthz 使用的检查函数。
func WithHealth(fn HealthFunc) Option {
	return func(o *options) { o.health = fn }
}

// WithMetrics 在 path 挂载指标处理器。
func WithMetrics(path string, h http.Handler) Option {
	return func(o *options) {
		if path != "" && h != nil {
			o.metricsPath = path
			o.metricsHandler = h
		}
	}
}

// WithRateLimit 对创建接口限流，nil 表示不限流。
func WithRateLimit(l *RateLimiter) Option {
	return func(o *options) { o.limiter = l }
}

// Routes 构建 HTTP 处理器。
func Routes(svc shortcut.Service, opts ...Option) http.Handler {
	o := &options{
		logger:   logging.Discard(),
		observer: telemetry.NoopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	logger := o.logger.With(logging.Component("http"))
	a := &api{svc: svc, logger: logger}

	root := chi.NewRouter()
	root.Use(requestID, requestLogger(logger, o.observer), middleware.Recoverer)
	if o.timeout > 0 {
		root.Use(middleware.Timeout(o.timeout))
	}
	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		a.writeJSON(w, r, http.StatusNotFound, msg{http.StatusText(http.StatusNotFound)})
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		a.writeJSON(w, r, http.StatusMethodNotAllowed, msg{http.StatusText(http.StatusMethodNotAllowed)})
	})

	root.Method(http.MethodGet, "/healthz", a.handle(a.healthz(o.health)))
	if o.metricsHandler != nil {
		root.Method(http.MethodGet, o.metricsPath, o.metricsHandler)
	}

	root.Route("/v1/urls", func(r chi.Router) {
		create := http.Handler(a.handle(a.create))
		if o.limiter != nil {
			create = o.limiter.Middleware(logger)(create)
		}
		r.Method(http.MethodPost, "/", create)
		r.Method(http.MethodGet, "/", a.handle(a.query))
		r.Method(http.MethodGet, "/{id}", a.handle(a.redirect))
	})
	root.Method(http.MethodGet, "/{id}", a.handle(a.redirect))
	return root
}

// Package app 组装 shortlinkd 的依赖并管理其生命周期。
//
// 依赖链：logger → store（可选熔断）→ Resolver → Cached → HTTP 路由。
// [App.Run] 在同一个 errgroup 中运行 HTTP 服务、信号监听与配置监视，
// 任一退出都会触发其余部分关闭。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xshortlink/internal/cachemetrics"
	"github.com/omeyang/xshortlink/internal/config"
	"github.com/omeyang/xshortlink/internal/httpapi"
	"github.com/omeyang/xshortlink/internal/logging"
	"github.com/omeyang/xshortlink/internal/shortcut"
	"github.com/omeyang/xshortlink/internal/store"
	"github.com/omeyang/xshortlink/internal/telemetry"
)

// Option 配置 [App]。
type Option func(*options)

type options struct {
	logOutput  io.Writer
	configPath string
	store      store.Store
}

// WithLogOutput 设置日志输出（未配置日志文件时生效）。
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithConfigPath 监视 path 处的配置文件，变更后热更新日志级别。
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithStore 使用外部创建的存储代替按配置打开。App 关闭时会一并关闭它。
func WithStore(s store.Store) Option {
	return func(o *options) { o.store = s }
}

// App 是组装完成的服务实例。
type App struct {
	cfg      *config.Config
	logger   logging.LoggerWithLevel
	closeLog func() error
	store    store.Store
	service  shortcut.Service
	rdb      redis.UniversalClient
	handler  http.Handler
	server   *http.Server
	watcher  *config.Watcher

	ready    chan struct{}
	addr     net.Addr
	closeErr error
	once     sync.Once
}

// New 按 cfg 组装依赖。返回错误时已创建的资源都会被释放。
func New(ctx context.Context, cfg *config.Config, opts ...Option) (a *App, err error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	a = &App{cfg: cfg, ready: make(chan struct{})}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
			a = nil
		}
	}()

	if err := a.buildLogger(o.logOutput); err != nil {
		return a, err
	}

	observer, err := telemetry.NewOTelObserver()
	if err != nil {
		return a, err
	}

	if o.store != nil {
		a.store = o.store
	} else if a.store, err = store.Open(ctx, cfg.Store, a.logger); err != nil {
		return a, err
	}
	var repo shortcut.Repository = a.store
	if cfg.Breaker.Enabled {
		if repo, err = store.NewBreaker(a.store, cfg.Breaker, a.logger); err != nil {
			return a, err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cacheMetrics, err := cachemetrics.New(registry, "shortlink", "cache")
	if err != nil {
		return a, err
	}

	resolver, err := shortcut.NewResolver(repo,
		shortcut.WithLogger(a.logger),
		shortcut.WithObserver(observer))
	if err != nil {
		return a, err
	}
	a.service, err = shortcut.NewCached(resolver,
		shortcut.CacheConfig{Size: cfg.Cache.Size, TTL: cfg.Cache.TTL},
		shortcut.WithLogger(a.logger),
		shortcut.WithObserver(observer),
		shortcut.WithCacheMetrics(cacheMetrics))
	if err != nil {
		return a, err
	}

	routeOpts := []httpapi.Option{
		httpapi.WithLogger(a.logger),
		httpapi.WithObserver(observer),
		httpapi.WithTimeout(cfg.Server.RequestTimeout),
		httpapi.WithHealth(a.store.Ping),
	}
	if cfg.Metrics.Enabled {
		routeOpts = append(routeOpts, httpapi.WithMetrics(cfg.Metrics.Path,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	if cfg.RateLimit.Enabled {
		a.rdb = redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		limiter, err := httpapi.NewRateLimiter(a.rdb, cfg.RateLimit.PerMinute)
		if err != nil {
			return a, err
		}
		routeOpts = append(routeOpts, httpapi.WithRateLimit(limiter))
	}
	a.handler = httpapi.Routes(a.service, routeOpts...)
	a.server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logging.Slog(a.logger).Handler(), slog.LevelWarn),
	}

	if o.configPath != "" {
		a.watcher, err = config.NewWatcher(o.configPath, a.applyConfig)
		if err != nil {
			return a, err
		}
	}
	return a, nil
}

func (a *App) buildLogger(out io.Writer) error {
	lc := a.cfg.Log
	b := logging.New().
		SetLevelString(lc.Level).
		SetFormat(lc.Format).
		SetAddSource(lc.AddSource).
		SetOutput(out)
	if lc.File != "" {
		b = b.SetRotation(lc.File, lc.Rotation())
	}
	l, cleanup, err := b.Build()
	if err != nil {
		return fmt.Errorf("app: build logger: %w", err)
	}
	a.logger, a.closeLog = l, cleanup
	return nil
}

// applyConfig 处理配置文件变更。只有日志级别支持热更新。
func (a *App) applyConfig(cfg *config.Config, err error) {
	ctx := context.Background()
	if err != nil {
		a.logger.Warn(ctx, "config reload failed, keeping current config", logging.Err(err))
		return
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		a.logger.Warn(ctx, "config reload: bad log level", logging.Err(err))
		return
	}
	if level != a.logger.GetLevel() {
		a.logger.SetLevel(level)
		a.logger.Info(ctx, "log level changed", slog.String("level", level.String()))
	}
}

// Handler 返回 HTTP 处理器。
func (a *App) Handler() http.Handler { return a.handler }

// Service 返回组装好的服务。
func (a *App) Service() shortcut.Service { return a.service }

// Logger 返回 App 使用的日志。
func (a *App) Logger() logging.LoggerWithLevel { return a.logger }

// Ready 在 HTTP 监听建立后关闭。
func (a *App) Ready() <-chan struct{} { return a.ready }

// Addr 返回实际监听地址，须在 Ready 关闭后调用。
func (a *App) Addr() net.Addr { return a.addr }

// Close 释放存储、Redis 连接、配置监视与日志文件，可重复调用。
func (a *App) Close(ctx context.Context) error {
	a.once.Do(func() {
		var errs []error
		if a.watcher != nil {
			errs = append(errs, a.watcher.Close())
		}
		if a.rdb != nil {
			errs = append(errs, a.rdb.Close())
		}
		if a.store != nil {
			errs = append(errs, a.store.Close(ctx))
		}
		if a.closeLog != nil {
			errs = append(errs, a.closeLog())
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

package shortcut

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/omeyang/xshortlink/internal/logging"
	"github.com/omeyang/xshortlink/internal/telemetry"
	"github.com/omeyang/xshortlink/pkg/util/xlru"
)

const (
	// DefaultCacheSize 是 CacheConfig.Size 为 0 时的缓存容量。
	DefaultCacheSize = 10000

	// DefaultCacheTTL 是 CacheConfig.TTL 为 0 时缓存记录的存活时间。
	DefaultCacheTTL = 24 * time.Hour

	// LoadTimeout 是未命中时委托查询的超时时间。
	// 委托查询脱离调用方的取消链，由所有等待同一 ID 的调用者共享。
	LoadTimeout = 30 * time.Second
)

// ErrNilService 表示构造 Cached 时未提供被包装的 Service。
var ErrNilService = errors.New("shortcut: nil service")

// CacheConfig 缓存装饰器配置。
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// Cached 是 [Service] 的读穿透缓存装饰器。
//
// 只有 Get 读写缓存：命中时不调用被包装的 Service；未命中时委托查询，
// 找到的记录按 TTL 写入缓存，不存在的结果不缓存。Create 与 GetByURL 总是直接委托。
// 同一 ID 的并发未命中合并为一次委托调用，首个调用者取消不影响其他等待者。
type Cached struct {
	next     Service
	cache    *xlru.Cache[string, Shortcut]
	ttl      time.Duration
	group    singleflight.Group
	logger   logging.Logger
	observer telemetry.Observer
}

// NewCached 创建包装 next 的缓存装饰器。
func NewCached(next Service, cfg CacheConfig, opts ...Option) (*Cached, error) {
	if next == nil {
		return nil, ErrNilService
	}
	if cfg.Size == 0 {
		cfg.Size = DefaultCacheSize
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultCacheTTL
	}

	o := applyOptions(opts)
	cacheOpts := []xlru.Option[string, Shortcut]{xlru.WithMetrics[string, Shortcut](o.cacheMetrics)}
	cache, err := xlru.New[string, Shortcut](xlru.Config{Size: cfg.Size, TTL: cfg.TTL}, cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("shortcut: create cache: %w", err)
	}

	return &Cached{
		next:     next,
		cache:    cache,
		ttl:      cfg.TTL,
		logger:   o.logger.With(logging.Component("cached")),
		observer: o.observer,
	}, nil
}

// Create 校验输入后委托，不写缓存。
func (c *Cached) Create(ctx context.Context, url string) (Shortcut, error) {
	if Blank(url) {
		return Shortcut{}, invalidArgument("url")
	}
	return c.next.Create(ctx, url)
}

// Get 优先读缓存，未命中时委托并缓存找到的记录。
func (c *Cached) Get(ctx context.Context, id string) (_ Shortcut, _ bool, err error) {
	if Blank(id) {
		return Shortcut{}, false, invalidArgument("id")
	}

	ctx, span := telemetry.Start(ctx, c.observer, telemetry.SpanOptions{
		Component: "cached",
		Operation: "get",
	})
	status := "hit"
	defer func() {
		span.End(telemetry.Result{Err: err, Attrs: []attribute.KeyValue{attribute.String("cache", status)}})
	}()

	if s, ok := c.cache.Get(id); ok {
		c.logger.Debug(ctx, "shortcut cache hit", slog.String("id", id))
		return s, true, nil
	}
	status = "miss"
	c.logger.Debug(ctx, "shortcut cache miss", slog.String("id", id))

	ch := c.group.DoChan(id, func() (any, error) {
		l, err := c.load(ctx, id)
		return l, err
	})
	select {
	case <-ctx.Done():
		// 委托查询在后台继续，结果供其他等待者使用并写入缓存。
		return Shortcut{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Shortcut{}, false, res.Err
		}
		l := res.Val.(loaded)
		return l.s, l.found, nil
	}
}

// loaded 是一次委托查询的结果。
type loaded struct {
	s     Shortcut
	found bool
}

// load 在脱离调用方取消链的 context 中委托查询，找到时写入缓存。
func (c *Cached) load(ctx context.Context, id string) (loaded, error) {
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
	defer cancel()

	s, found, err := c.next.Get(loadCtx, id)
	if err != nil {
		return loaded{}, err
	}
	if found {
		if err := c.cache.SetWithTTL(id, s, c.ttl); err != nil {
			c.logger.Warn(loadCtx, "shortcut cache set failed", slog.String("id", id), logging.Err(err))
		}
	}
	return loaded{s: s, found: found}, nil
}

// GetByURL 校验输入后直接委托，不缓存。
func (c *Cached) GetByURL(ctx context.Context, url string) ([]Shortcut, error) {
	if Blank(url) {
		return nil, invalidArgument("url")
	}
	return c.next.GetByURL(ctx, url)
}

// Purge 清空缓存。
func (c *Cached) Purge() {
	c.cache.Clear()
}

// Len 返回缓存中的条目数。
func (c *Cached) Len() int {
	return c.cache.Len()
}

var _ Service = (*Cached)(nil)

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/xshortlink/internal/logging"
	"github.com/omeyang/xshortlink/internal/shortcut"
)

// BreakerConfig 熔断配置。
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`

	// ConsecutiveFailures 连续失败多少次后熔断。
	ConsecutiveFailures uint32 `koanf:"consecutive_failures"`

	// OpenTimeout 熔断后多久进入半开状态。
	OpenTimeout time.Duration `koanf:"open_timeout"`
}

// DefaultBreakerConfig 返回默认熔断配置：连续失败 5 次熔断，30 秒后半开。
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:             true,
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// ErrBreakerOpen 表示熔断器处于打开状态，请求未到达后端。
var ErrBreakerOpen = errors.New("store: circuit breaker open")

// Breaker 为 Store 增加熔断保护。
//
// ID 冲突、输入非法与调用方取消不计为失败。熔断期间所有操作返回 [ErrBreakerOpen]，
// 服务层会将其归为内部错误。Ping 与 Close 不经过熔断器。
type Breaker struct {
	next Store
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreaker 用熔断器包装 next。
func NewBreaker(next Store, cfg BreakerConfig, logger logging.Logger) (*Breaker, error) {
	if next == nil {
		return nil, ErrNilClient
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultBreakerConfig().ConsecutiveFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultBreakerConfig().OpenTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With(logging.Component("store.breaker"))

	threshold := cfg.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "store",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return &Breaker{next: next, cb: cb}, nil
}

// countsAsSuccess 判定结果是否应计为成功。业务性错误说明后端工作正常。
func countsAsSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, shortcut.ErrConflict) ||
		errors.Is(err, shortcut.ErrInvalidArgument) ||
		errors.Is(err, context.Canceled)
}

func (b *Breaker) Create(ctx context.Context, s shortcut.Shortcut) (shortcut.Shortcut, error) {
	return execute(b, func() (shortcut.Shortcut, error) {
		return b.next.Create(ctx, s)
	})
}

func (b *Breaker) Read(ctx context.Context, id string) (shortcut.Shortcut, bool, error) {
	type result struct {
		s     shortcut.Shortcut
		found bool
	}
	r, err := execute(b, func() (result, error) {
		s, found, err := b.next.Read(ctx, id)
		return result{s: s, found: found}, err
	})
	return r.s, r.found, err
}

func (b *Breaker) QueryByURL(ctx context.Context, url string) ([]shortcut.Shortcut, error) {
	return execute(b, func() ([]shortcut.Shortcut, error) {
		return b.next.QueryByURL(ctx, url)
	})
}

func (b *Breaker) Ping(ctx context.Context) error { return b.next.Ping(ctx) }

func (b *Breaker) Close(ctx context.Context) error { return b.next.Close(ctx) }

// State 返回熔断器当前状态。
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrBreakerOpen, err)
	}
	t, _ := v.(T)
	return t, err
}

var _ Store = (*Breaker)(nil)

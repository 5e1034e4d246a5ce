package store

import (
	"context"
	"fmt"
	"log/slog"

	retry "github.com/avast/retry-go/v5"

	"github.com/omeyang/xshortlink/internal/logging"
)

// Open 按 cfg.Driver 构建后端，并在返回前确认连通。
//
// 连通性检查失败时按 ConnectAttempts/ConnectDelay 固定间隔重试，
// 全部失败后关闭已创建的后端并返回最后一次错误。
func Open(ctx context.Context, cfg Config, logger logging.Logger) (Store, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With(logging.Component("store"), slog.String("driver", cfg.Driver))

	s, err := build(cfg)
	if err != nil {
		return nil, err
	}

	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}
	err = retry.New(
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(cfg.ConnectDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn(ctx, "store not ready",
				slog.Uint64("attempt", uint64(n)+1),
				slog.Uint64("max_attempts", uint64(attempts)),
				logging.Err(err))
		}),
	).Do(func() error {
		return s.Ping(ctx)
	})
	if err != nil {
		_ = s.Close(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("store: %s not reachable: %w", cfg.Driver, err)
	}

	if m, ok := s.(*Mongo); ok {
		if err := m.EnsureIndexes(ctx); err != nil {
			_ = m.Close(context.WithoutCancel(ctx))
			return nil, err
		}
	}

	logger.Info(ctx, "store ready")
	return s, nil
}

func build(cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverBolt:
		return OpenBolt(cfg.Bolt.Path)
	case DriverMongo:
		return OpenMongo(cfg.Mongo)
	case DriverRedis:
		return OpenRedis(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

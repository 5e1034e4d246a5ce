// Package config 加载并校验 shortlinkd 的配置。
//
// 配置文件为 YAML 或 JSON（按扩展名识别），未出现的字段保留 [Default] 中的值。
// [Watcher] 监视配置文件并在变更后回调新配置，运行期只有日志级别会被热更新。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/xshortlink/internal/logging"
	"github.com/omeyang/xshortlink/internal/store"
)

// ErrInvalid 表示配置值不合法。
var ErrInvalid = errors.New("config: invalid configuration")

// maxCacheSize 与 xlru 的容量上限一致。
const maxCacheSize = 1 << 24

// Config 是 shortlinkd 的完整配置。
type Config struct {
	Server    ServerConfig        `koanf:"server"`
	Log       LogConfig           `koanf:"log"`
	Cache     CacheConfig         `koanf:"cache"`
	Store     store.Config        `koanf:"store"`
	Breaker   store.BreakerConfig `koanf:"breaker"`
	RateLimit RateLimitConfig     `koanf:"ratelimit"`
	Metrics   MetricsConfig       `koanf:"metrics"`
}

// ServerConfig HTTP 服务配置。
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`

	// RequestTimeout 单个请求的处理时限，0 表示不限制。
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// ShutdownTimeout 优雅关闭时等待在途请求的最长时间。
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig 日志配置。File 为空时输出到 stderr。
type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	AddSource  bool   `koanf:"add_source"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// CacheConfig 短链读缓存配置。
type CacheConfig struct {
	Size int           `koanf:"size"`
	TTL  time.Duration `koanf:"ttl"`
}

// RateLimitConfig 创建接口的限流配置，计数保存在 Redis。
type RateLimitConfig struct {
	Enabled   bool   `koanf:"enabled"`
	RedisAddr string `koanf:"redis_addr"`
	PerMinute int    `koanf:"per_minute"`
}

// MetricsConfig Prometheus 指标暴露配置。
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// Default 返回默认配置。
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			RequestTimeout:    10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			Size: 10000,
			TTL:  24 * time.Hour,
		},
		Store:   store.DefaultConfig(),
		Breaker: store.DefaultBreakerConfig(),
		RateLimit: RateLimitConfig{
			RedisAddr: "localhost:6379",
			PerMinute: 60,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate 检查配置是否可用，返回的错误包装 [ErrInvalid] 并列出所有问题。
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		bad("server.addr is empty")
	}
	if c.Server.ReadHeaderTimeout < 0 || c.Server.RequestTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		bad("server timeouts must not be negative")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		bad("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		bad("log.format must be text or json, got %q", c.Log.Format)
	}

	if c.Cache.Size < 1 || c.Cache.Size > maxCacheSize {
		bad("cache.size must be in [1, %d], got %d", maxCacheSize, c.Cache.Size)
	}
	if c.Cache.TTL < 0 {
		bad("cache.ttl must not be negative")
	}

	switch c.Store.Driver {
	case store.DriverBolt:
		if strings.TrimSpace(c.Store.Bolt.Path) == "" {
			bad("store.bolt.path is empty")
		}
	case store.DriverMongo:
		if c.Store.Mongo.URI == "" || c.Store.Mongo.Database == "" || c.Store.Mongo.Collection == "" {
			bad("store.mongo requires uri, database and collection")
		}
	case store.DriverRedis:
		if c.Store.Redis.Addr == "" {
			bad("store.redis.addr is empty")
		}
	default:
		bad("store.driver %q is not one of bolt, mongo, redis", c.Store.Driver)
	}
	if c.Store.ConnectDelay < 0 {
		bad("store.connect_delay must not be negative")
	}

	if c.Breaker.Enabled && c.Breaker.OpenTimeout < 0 {
		bad("breaker.open_timeout must not be negative")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RedisAddr == "" {
			bad("ratelimit.redis_addr is empty")
		}
		if c.RateLimit.PerMinute < 1 {
			bad("ratelimit.per_minute must be positive")
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		bad("metrics.path must start with /")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Rotation 返回日志轮转参数。
func (l LogConfig) Rotation() logging.Rotation {
	return logging.Rotation{
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
		Compress:   l.Compress,
	}
}

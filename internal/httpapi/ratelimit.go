package httpapi

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xshortlink/internal/logging"
)

// ErrInvalidRate 表示限流速率不是正数。
var ErrInvalidRate = errors.New("httpapi: rate must be positive")

// RateLimiter 按客户端 IP 做分布式限流，计数保存在 Redis（GCRA 算法）。
type RateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	prefix  string
}

// NewRateLimiter 创建每分钟允许 perMinute 次请求的限流器。
func NewRateLimiter(rdb redis.UniversalClient, perMinute int) (*RateLimiter, error) {
	if rdb == nil {
		return nil, errors.New("httpapi: nil redis client")
	}
	if perMinute < 1 {
		return nil, ErrInvalidRate
	}
	return &RateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
		limit:   redis_rate.PerMinute(perMinute),
		prefix:  "shortlink:ratelimit:",
	}, nil
}

// Middleware 返回限流中间件。Redis 不可用时放行请求并记录告警。
func (l *RateLimiter) Middleware(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.limiter.Allow(r.Context(), l.prefix+clientIP(r), l.limit)
			if err != nil {
				logger.Warn(r.Context(), "rate limiter unavailable, allowing request", logging.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit.Rate))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if res.Allowed == 0 {
				h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(res.RetryAfter)))
				logger.Debug(r.Context(), "rate limited", slog.Duration("retry_after", res.RetryAfter))
				h.Set(contentType, mimeApplicationJSON)
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"msg":"Too Many Requests"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package xlru

import "time"

// Option 定义缓存可选配置函数类型。
type Option[K comparable, V any] func(*options[K, V])

type options[K comparable, V any] struct {
	onEvicted func(key K, value V)
	metrics   Metrics
	now       func() time.Time
}

func defaultOptions[K comparable, V any]() *options[K, V] {
	return &options[K, V]{
		metrics: NoopMetrics{},
		now:     time.Now,
	}
}

// WithOnEvicted 设置条目被淘汰（容量淘汰或惰性过期）时的回调函数。
//
// Remove 与 Clear 属于显式删除，不触发回调。
// 回调在缓存锁内同步执行，严禁在回调中调用 Cache 自身的任何方法，否则会死锁。
func WithOnEvicted[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(o *options[K, V]) {
		o.onEvicted = fn
	}
}

// WithMetrics 设置指标接收器。nil 被忽略。
func WithMetrics[K comparable, V any](m Metrics) Option[K, V] {
	return func(o *options[K, V]) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithClock 设置时间源，主要用于测试中精确控制 TTL。nil 被忽略。
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(o *options[K, V]) {
		if now != nil {
			o.now = now
		}
	}
}

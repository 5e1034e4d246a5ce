package xlru

import (
	"reflect"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// maxSize 缓存最大条目数上限。
const maxSize = 1 << 24 // 16,777,216

// Config 定义缓存配置。
type Config struct {
	// Size 缓存最大条目数。
	// 必须大于 0 且不超过 16,777,216。
	Size int

	// TTL 是 Set 使用的默认过期时间。
	// 0 表示永不过期，不允许负值。SetWithTTL 可按条目覆盖。
	TTL time.Duration
}

// entry 是 LRU 链表中存放的值。expiresAt 为零值表示永不过期。
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Cache 是支持按条目 TTL 的 LRU 缓存。
// 必须通过 [New] 创建，零值不可用。所有方法都是并发安全的。
//
// 每个操作在整个执行期间持有同一把互斥锁；Get 会调整 LRU 顺序，
// 因此读操作同样需要独占锁。
type Cache[K comparable, V any] struct {
	mu   sync.Mutex
	lru  *simplelru.LRU[K, entry[V]]
	size int
	ttl  time.Duration

	onEvicted func(key K, value V)
	metrics   Metrics
	now       func() time.Time
}

// New 创建新的 LRU 缓存。
// 如果 cfg.Size <= 0，返回 ErrInvalidSize。
// 如果 cfg.Size > maxSize (16,777,216)，返回 ErrSizeExceedsMax。
// 如果 cfg.TTL < 0，返回 ErrInvalidTTL。
func New[K comparable, V any](cfg Config, opts ...Option[K, V]) (*Cache[K, V], error) {
	if cfg.Size <= 0 {
		return nil, ErrInvalidSize
	}
	if cfg.Size > maxSize {
		return nil, ErrSizeExceedsMax
	}
	if cfg.TTL < 0 {
		return nil, ErrInvalidTTL
	}

	o := defaultOptions[K, V]()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	// 淘汰由 Cache 自己驱动，底层不注册回调：simplelru 在 Remove/Purge 时
	// 同样触发回调，无法区分显式删除与淘汰。
	lru, err := simplelru.NewLRU[K, entry[V]](cfg.Size, nil)
	if err != nil {
		return nil, err
	}

	return &Cache[K, V]{
		lru:       lru,
		size:      cfg.Size,
		ttl:       cfg.TTL,
		onEvicted: o.onEvicted,
		metrics:   o.metrics,
		now:       o.now,
	}, nil
}

// Get 获取缓存值，命中时将条目移到最近使用位置。
//
// 如果键不存在或已过期，返回零值和 false。过期条目在此处被立即移除。
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		c.metrics.Miss()
		return value, false
	}
	if e.expired(c.now()) {
		c.lru.Remove(key)
		c.evicted(key, e.value, EvictExpired)
		c.metrics.Miss()
		return value, false
	}
	c.metrics.Hit()
	return e.value, true
}

// Set 使用 Config.TTL 写入缓存值。
func (c *Cache[K, V]) Set(key K, value V) error {
	return c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL 写入缓存值并指定该条目的过期时间，ttl 为 0 表示永不过期。
//
//   - key 已存在：替换值、刷新过期时间并移到最近使用位置，不会淘汰其他条目
//   - key 不存在且缓存已满：先淘汰最久未访问的条目，再插入
//   - key 为 nil：返回 ErrNilKey
//   - ttl 为负：返回 ErrInvalidTTL
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) error {
	if isNil(key) {
		return ErrNilKey
	}
	if ttl < 0 {
		return ErrInvalidTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	if !c.lru.Contains(key) && c.lru.Len() >= c.size {
		oldKey, old, ok := c.lru.RemoveOldest()
		if !ok {
			panic("xlru: cache at capacity but recency list is empty")
		}
		c.evicted(oldKey, old.value, EvictCapacity)
	}

	if c.lru.Add(key, e) {
		// 容量已在上面腾出，底层不应再发生淘汰。
		panic("xlru: unexpected eviction inside add")
	}
	c.metrics.Size(c.lru.Len())
	return nil
}

// Remove 删除缓存条目，返回 true 表示键存在并被删除。键不存在时为空操作。
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	present := c.lru.Remove(key)
	if present {
		c.metrics.Size(c.lru.Len())
	}
	return present
}

// Clear 无条件清空所有缓存条目。不触发淘汰回调。
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Purge()
	c.metrics.Size(0)
}

// Peek 获取缓存值但不更新 LRU 顺序，也不移除过期条目。
// 已过期的条目视为不存在。
func (c *Cache[K, V]) Peek(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Peek(key)
	if !ok || e.expired(c.now()) {
		return value, false
	}
	return e.value, true
}

// Contains 检查键是否存在且未过期（不更新访问顺序）。
func (c *Cache[K, V]) Contains(key K) bool {
	_, ok := c.Peek(key)
	return ok
}

// Len 返回当前条目数。
//
// 注意：可能包含已过期但尚未被 Get 发现的条目。
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Keys 返回所有键，按从最旧到最新排列。可能包含已过期的键。
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Keys()
}

// Cap 返回缓存容量。
func (c *Cache[K, V]) Cap() int {
	return c.size
}

// evicted 记录一次淘汰。调用方必须持有锁。
func (c *Cache[K, V]) evicted(key K, value V, reason EvictReason) {
	c.metrics.Evict(reason)
	c.metrics.Size(c.lru.Len())
	if c.onEvicted != nil {
		c.onEvicted(key, value)
	}
}

// isNil 报告 key 是否为 nil。仅引用类型可能为 nil。
func isNil[K comparable](key K) bool {
	v := reflect.ValueOf(any(key))
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}

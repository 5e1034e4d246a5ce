package xlru

// EvictReason 描述条目被淘汰的原因。
type EvictReason int

const (
	// EvictCapacity 容量已满，淘汰最久未访问的条目。
	EvictCapacity EvictReason = iota
	// EvictExpired Get 时发现条目已过期（惰性过期）。
	EvictExpired
)

// String 返回稳定的标签值，可直接用作指标 label。
func (r EvictReason) String() string {
	switch r {
	case EvictCapacity:
		return "capacity"
	case EvictExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Metrics 接收缓存事件。
//
// 所有方法都在缓存锁内同步调用，实现必须是非阻塞且并发安全的，
// 且不得回调 Cache 自身的方法。
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// NoopMetrics 是 Metrics 的空实现，未配置指标时使用。
type NoopMetrics struct{}

func (NoopMetrics) Hit()              {}
func (NoopMetrics) Miss()             {}
func (NoopMetrics) Evict(EvictReason) {}
func (NoopMetrics) Size(int)          {}

var _ Metrics = NoopMetrics{}

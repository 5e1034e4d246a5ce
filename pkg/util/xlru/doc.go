// Package xlru 提供支持按条目 TTL 的 LRU 缓存实现。
//
// xlru 基于 github.com/hashicorp/golang-lru/v2/simplelru 维护访问顺序与索引，
// 过期时间与加锁由本包负责，提供简洁的泛型 API，适合作为本地缓存层使用。
//
// # 核心特性
//
//   - 泛型支持：支持任意 comparable 的键类型和任意值类型
//   - 按条目 TTL：Set 使用默认 TTL，SetWithTTL 可为单个条目指定 TTL
//   - LRU 淘汰：插入新键且缓存已满时，淘汰且仅淘汰最久未访问的条目
//   - 惰性过期：Get 发现过期条目时立即移除并返回 miss，不存在后台清理
//   - 并发安全：每个操作在整个执行期间持有同一把 sync.Mutex
//
// # 配置选项
//
// Config 结构体提供必需的配置：
//   - Size：缓存最大条目数，必须 > 0 且 ≤ 16,777,216
//   - TTL：Set 使用的默认过期时间，0 表示永不过期
//
// 可选配置通过 Option 函数提供：
//   - WithOnEvicted：设置条目被淘汰（容量或过期）时的回调函数
//   - WithMetrics：设置命中、未命中、淘汰与容量指标接收器
//   - WithClock：注入时间源，用于测试
//
// # 注意事项
//
//   - 覆盖已有 key 会替换值、刷新过期时间并移到最近使用位置，不会淘汰其他条目
//   - Get 命中会更新访问顺序，但不会刷新 TTL
//   - Peek/Contains 不更新访问顺序，也不移除过期条目
//   - Len/Keys 可能包含已过期但尚未被 Get 发现的条目
//   - Remove/Clear 属于显式删除，不触发淘汰回调
//   - 淘汰回调和指标在锁内执行，严禁在其中调用 Cache 自身方法（会死锁）
//   - 内部不变量被破坏（满容量却无可淘汰条目等）时直接 panic
package xlru

// Package shortcut 实现短链接的创建与解析。
//
// 组成：
//   - [Repository]：持久化边界，由 internal/store 中的各后端实现
//   - [Service]：向上（HTTP 层）暴露的契约
//   - [Resolver]：直接实现，负责 ID 生成与加盐重试的冲突处理
//   - [Cached]：包装任意 Service 的读穿透缓存装饰器
//
// 创建流程：
//
//	Cached.Create → Resolver.Create → shortid.Generator → Repository.Create
//	                                   ↑ 冲突且 URL 不同时，以上一个 ID 的前 3 个字符为盐重试，最多 5 次
package shortcut

import "context"

//go:generate mockgen -source=shortcut.go -destination=mock_shortcut_test.go -package=shortcut

// Shortcut 是短标识与目标 URL 的映射。
type Shortcut struct {
	ID  string `json:"shortcut"`
	URL string `json:"url"`
}

// Repository 是短链接记录的持久化接口。
//
// 实现必须并发安全，且自行负责超时。
type Repository interface {
	// Create 保存记录。ID 已存在时返回包装了 [ErrConflict] 的错误。
	Create(ctx context.Context, s Shortcut) (Shortcut, error)

	// Read 按 ID 读取。记录不存在时返回 found=false 和 nil 错误。
	Read(ctx context.Context, id string) (s Shortcut, found bool, err error)

	// QueryByURL 按 URL 精确匹配查询，无结果时返回空切片。
	QueryByURL(ctx context.Context, url string) ([]Shortcut, error)
}

// Service 是短链接服务对外的契约。[Resolver] 与 [Cached] 均实现此接口。
type Service interface {
	// Create 为 url 分配短标识。同一 URL 重复创建返回同一条记录。
	Create(ctx context.Context, url string) (Shortcut, error)

	// Get 按短标识查询。不存在时返回 found=false 和 nil 错误。
	Get(ctx context.Context, id string) (s Shortcut, found bool, err error)

	// GetByURL 反查指向 url 的全部短标识。
	GetByURL(ctx context.Context, url string) ([]Shortcut, error)
}

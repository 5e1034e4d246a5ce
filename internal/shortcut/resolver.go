package shortcut

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/omeyang/xshortlink/internal/logging"
	"github.com/omeyang/xshortlink/internal/shortid"
	"github.com/omeyang/xshortlink/internal/telemetry"
)

const (
	// MaxRetries 是一次创建最多尝试的 ID 数量。
	MaxRetries = 5

	// saltLength 是从冲突 ID 截取作为下一次盐的字符数。
	saltLength = 3
)

// ErrNilRepository 表示构造 Resolver 时未提供 Repository。
var ErrNilRepository = errors.New("shortcut: nil repository")

// Resolver 直接基于 [Repository] 实现 [Service]。
// 构造后无可变状态，可被任意并发调用。
type Resolver struct {
	repo     Repository
	gen      shortid.Generator
	logger   logging.Logger
	observer telemetry.Observer
}

// NewResolver 创建 Resolver，默认使用 [shortid.SHA256] 生成 ID。
func NewResolver(repo Repository, opts ...Option) (*Resolver, error) {
	if repo == nil {
		return nil, ErrNilRepository
	}
	o := applyOptions(opts)
	return &Resolver{
		repo:     repo,
		gen:      o.generator,
		logger:   o.logger.With(logging.Component("resolver")),
		observer: o.observer,
	}, nil
}

// Create 为 url 分配短标识。
//
// 每次尝试以 salt+url 生成候选 ID 并写入存储：
//   - 写入成功：返回新记录
//   - ID 已存在且指向同一 URL（忽略大小写）：返回已有记录
//   - ID 已存在且指向其他 URL，或冲突记录已读不到：取候选 ID 前 3 个字符作为新盐，继续下一次尝试
//
// 尝试 [MaxRetries] 次仍未成功返回 [ErrConflict]；其他存储错误包装为 [ErrInternal]。
func (r *Resolver) Create(ctx context.Context, url string) (_ Shortcut, err error) {
	if Blank(url) {
		return Shortcut{}, invalidArgument("url")
	}

	ctx, span := telemetry.Start(ctx, r.observer, telemetry.SpanOptions{
		Component: "resolver",
		Operation: "create",
	})
	attempts := 0
	defer func() {
		span.End(telemetry.Result{Err: err, Attrs: []attribute.KeyValue{attribute.Int("attempts", attempts)}})
	}()

	salt := ""
	for remaining := MaxRetries; remaining > 0; remaining-- {
		attempts++
		id := r.gen.Generate(salt + url)

		created, err := r.repo.Create(ctx, Shortcut{ID: id, URL: url})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrConflict) {
			return Shortcut{}, internal("create", err)
		}

		existing, found, err := r.repo.Read(ctx, id)
		if err != nil {
			return Shortcut{}, internal("read conflicting id", err)
		}
		// 冲突记录读不到时与指向其他 URL 同样处理，换盐重试。
		if found && strings.EqualFold(existing.URL, url) {
			return existing, nil
		}

		r.logger.Warn(ctx, "shortcut id collision",
			slog.String("id", id),
			slog.String("existing_url", existing.URL),
			slog.Bool("existing_found", found),
			slog.Int("retries_remaining", remaining-1))
		salt = id[:min(saltLength, len(id))]
	}

	return Shortcut{}, fmt.Errorf("%w: could not resolve a free id for %q after %d attempts", ErrConflict, url, MaxRetries)
}

// Get 按短标识查询。不存在时返回 found=false。
func (r *Resolver) Get(ctx context.Context, id string) (_ Shortcut, _ bool, err error) {
	if Blank(id) {
		return Shortcut{}, false, invalidArgument("id")
	}

	ctx, span := telemetry.Start(ctx, r.observer, telemetry.SpanOptions{
		Component: "resolver",
		Operation: "get",
	})
	defer func() { span.End(telemetry.Result{Err: err}) }()

	s, found, err := r.repo.Read(ctx, id)
	if err != nil {
		return Shortcut{}, false, internal("read", err)
	}
	return s, found, nil
}

// GetByURL 反查指向 url 的短标识。
//
// 查询前将 url 转为小写；写入路径保存原始 URL，因此只有以小写保存的记录能被查到。
// 结果按 ID 去重，无结果时返回空切片。
func (r *Resolver) GetByURL(ctx context.Context, url string) (_ []Shortcut, err error) {
	if Blank(url) {
		return nil, invalidArgument("url")
	}

	ctx, span := telemetry.Start(ctx, r.observer, telemetry.SpanOptions{
		Component: "resolver",
		Operation: "get_by_url",
	})
	defer func() { span.End(telemetry.Result{Err: err}) }()

	found, err := r.repo.QueryByURL(ctx, strings.ToLower(url))
	if err != nil {
		return nil, internal("query by url", err)
	}
	return dedup(found), nil
}

func dedup(in []Shortcut) []Shortcut {
	out := make([]Shortcut, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

var _ Service = (*Resolver)(nil)

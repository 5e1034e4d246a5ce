package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xshortlink/internal/shortcut"
)

// Redis 基于 Redis 的存储。
//
// 键布局（均带 KeyPrefix）：
//   - id:<id>  → url（SETNX 保证 ID 唯一）
//   - url:<url> → id 集合（反查索引）
type Redis struct {
	client redis.UniversalClient
	prefix string
	owned  bool
}

// NewRedis 使用外部创建的客户端构建存储，Close 不会关闭该客户端。
func NewRedis(client redis.UniversalClient, prefix string) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &Redis{client: client, prefix: prefix}, nil
}

// OpenRedis 按配置创建客户端，Close 时一并关闭。
func OpenRedis(cfg RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Redis{client: client, prefix: cfg.KeyPrefix, owned: true}
}

func (r *Redis) Create(ctx context.Context, s shortcut.Shortcut) (shortcut.Shortcut, error) {
	if err := validateShortcut(s); err != nil {
		return shortcut.Shortcut{}, err
	}

	ok, err := r.client.SetNX(ctx, r.idKey(s.ID), s.URL, 0).Result()
	if err != nil {
		return shortcut.Shortcut{}, fmt.Errorf("store: redis setnx: %w", err)
	}
	if !ok {
		return shortcut.Shortcut{}, conflict(s.ID)
	}

	if err := r.client.SAdd(ctx, r.urlKey(s.URL), s.ID).Err(); err != nil {
		// 索引写入失败时撤销主记录，避免出现反查不到的孤儿记录。
		if delErr := r.client.Del(context.WithoutCancel(ctx), r.idKey(s.ID)).Err(); delErr != nil {
			return shortcut.Shortcut{}, fmt.Errorf("store: redis sadd: %w (rollback: %w)", err, delErr)
		}
		return shortcut.Shortcut{}, fmt.Errorf("store: redis sadd: %w", err)
	}
	return s, nil
}

func (r *Redis) Read(ctx context.Context, id string) (shortcut.Shortcut, bool, error) {
	if err := validateID(id); err != nil {
		return shortcut.Shortcut{}, false, err
	}

	url, err := r.client.Get(ctx, r.idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return shortcut.Shortcut{}, false, nil
	}
	if err != nil {
		return shortcut.Shortcut{}, false, fmt.Errorf("store: redis get: %w", err)
	}
	return shortcut.Shortcut{ID: id, URL: url}, true, nil
}

// QueryByURL 按 ID 字典序返回结果。
func (r *Redis) QueryByURL(ctx context.Context, url string) ([]shortcut.Shortcut, error) {
	if err := validateURL(url); err != nil {
		return nil, err
	}

	ids, err := r.client.SMembers(ctx, r.urlKey(url)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: redis smembers: %w", err)
	}
	slices.Sort(ids)

	out := make([]shortcut.Shortcut, 0, len(ids))
	for _, id := range ids {
		out = append(out, shortcut.Shortcut{ID: id, URL: url})
	}
	return out, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close(context.Context) error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) idKey(id string) string   { return r.prefix + "id:" + id }
func (r *Redis) urlKey(url string) string { return r.prefix + "url:" + url }

var _ Store = (*Redis)(nil)

// Package store 提供 [shortcut.Repository] 的持久化后端。
//
// 支持的后端：
//   - bolt：嵌入式文件存储（go.etcd.io/bbolt），单机部署默认使用
//   - mongo：MongoDB 集合，文档 {_id, url, created_at}
//   - redis：id→url 字符串键加 url→ids 集合反查索引
//
// 所有后端在存储层校验输入：空白 id 或 url 返回 [shortcut.ErrInvalidArgument]，
// ID 已存在返回 [shortcut.ErrConflict]，读不到记录返回 found=false。
// [Open] 按配置构建后端并在返回前确认连通；[Breaker] 为任意后端增加熔断保护。
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/xshortlink/internal/shortcut"
)

// 驱动名称。
const (
	DriverBolt  = "bolt"
	DriverMongo = "mongo"
	DriverRedis = "redis"
)

var (
	// ErrUnknownDriver 表示配置了不支持的存储驱动。
	ErrUnknownDriver = errors.New("store: unknown driver")

	// ErrNilClient 表示传入的客户端为 nil。
	ErrNilClient = errors.New("store: nil client")
)

// Store 是带生命周期管理的 Repository。
type Store interface {
	shortcut.Repository

	// Ping 检查后端是否可用。
	Ping(ctx context.Context) error

	// Close 释放连接或文件句柄。
	Close(ctx context.Context) error
}

// Config 存储配置。
type Config struct {
	// Driver 取值 bolt、mongo 或 redis。
	Driver string `koanf:"driver"`

	// ConnectAttempts 启动时连通性检查的最大尝试次数。
	ConnectAttempts uint `koanf:"connect_attempts"`

	// ConnectDelay 两次连通性检查之间的间隔。
	ConnectDelay time.Duration `koanf:"connect_delay"`

	Bolt  BoltConfig  `koanf:"bolt"`
	Mongo MongoConfig `koanf:"mongo"`
	Redis RedisConfig `koanf:"redis"`
}

// BoltConfig bbolt 后端配置。
type BoltConfig struct {
	Path string `koanf:"path"`
}

// MongoConfig MongoDB 后端配置。
type MongoConfig struct {
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
}

// RedisConfig Redis 后端配置。
type RedisConfig struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// DefaultConfig 返回默认配置：bolt 后端，文件 data/shortlink.db。
func DefaultConfig() Config {
	return Config{
		Driver:          DriverBolt,
		ConnectAttempts: 5,
		ConnectDelay:    time.Second,
		Bolt:            BoltConfig{Path: "data/shortlink.db"},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "shortlink",
			Collection: "shortcuts",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "shortlink:",
		},
	}
}

func validateShortcut(s shortcut.Shortcut) error {
	if err := validateID(s.ID); err != nil {
		return err
	}
	return validateURL(s.URL)
}

func validateID(id string) error {
	if shortcut.Blank(id) {
		return fmt.Errorf("%w: id must not be blank", shortcut.ErrInvalidArgument)
	}
	return nil
}

func validateURL(url string) error {
	if shortcut.Blank(url) {
		return fmt.Errorf("%w: url must not be blank", shortcut.ErrInvalidArgument)
	}
	return nil
}

func conflict(id string) error {
	return fmt.Errorf("%w: id %q already exists", shortcut.ErrConflict, id)
}

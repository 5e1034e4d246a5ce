package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/omeyang/xshortlink/internal/shortcut"
)

var (
	shortcutsBucket = []byte("shortcuts")
	byURLBucket     = []byte("by_url")
)

// indexSep 分隔反查索引键中的 url 与 id。
const indexSep = "\x00"

// Bolt 基于 bbolt 的嵌入式存储。
//
// shortcuts 桶保存 id→url；by_url 桶的键为 url+"\x00"+id，按前缀扫描实现反查。
// 两个桶在同一事务中写入。
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt 打开（或创建）path 处的数据库文件，自动创建父目录与桶。
func OpenBolt(path string) (*Bolt, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: bolt path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("store: create bolt dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{shortcutsBucket, byURLBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init bolt buckets: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Create(_ context.Context, s shortcut.Shortcut) (shortcut.Shortcut, error) {
	if err := validateShortcut(s); err != nil {
		return shortcut.Shortcut{}, err
	}
	if strings.Contains(s.URL, indexSep) {
		return shortcut.Shortcut{}, fmt.Errorf("%w: url must not contain NUL", shortcut.ErrInvalidArgument)
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket(shortcutsBucket)
		if records.Get([]byte(s.ID)) != nil {
			return conflict(s.ID)
		}
		if err := records.Put([]byte(s.ID), []byte(s.URL)); err != nil {
			return err
		}
		return tx.Bucket(byURLBucket).Put(indexKey(s.URL, s.ID), []byte{})
	})
	if err != nil {
		return shortcut.Shortcut{}, err
	}
	return s, nil
}

func (b *Bolt) Read(_ context.Context, id string) (shortcut.Shortcut, bool, error) {
	if err := validateID(id); err != nil {
		return shortcut.Shortcut{}, false, err
	}

	var (
		s     shortcut.Shortcut
		found bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(shortcutsBucket).Get([]byte(id))
		if v == nil {
			return nil
		}
		// v 仅在事务内有效，string 转换会复制。
		s = shortcut.Shortcut{ID: id, URL: string(v)}
		found = true
		return nil
	})
	if err != nil {
		return shortcut.Shortcut{}, false, err
	}
	return s, found, nil
}

func (b *Bolt) QueryByURL(_ context.Context, url string) ([]shortcut.Shortcut, error) {
	if err := validateURL(url); err != nil {
		return nil, err
	}

	out := []shortcut.Shortcut{}
	prefix := []byte(url + indexSep)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(byURLBucket).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			out = append(out, shortcut.Shortcut{ID: string(k[len(prefix):]), URL: url})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Ping 在数据库关闭后返回 bbolt.ErrDatabaseNotOpen。
func (b *Bolt) Ping(context.Context) error {
	return b.db.View(func(*bbolt.Tx) error { return nil })
}

func (b *Bolt) Close(context.Context) error {
	return b.db.Close()
}

func indexKey(url, id string) []byte {
	return []byte(url + indexSep + id)
}

var _ Store = (*Bolt)(nil)

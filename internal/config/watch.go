package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 是连续变更合并为一次重载的默认窗口。
const DefaultDebounce = 100 * time.Millisecond

// ChangeFunc 接收重载结果。err 非 nil 时 cfg 为 nil，调用方应保留旧配置。
type ChangeFunc func(cfg *Config, err error)

// WatchOption 配置 [Watcher]。
type WatchOption func(*Watcher)

// WithDebounce 设置防抖窗口，非正值忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 监视配置文件并在变更后重新加载。
//
// 监视的是文件所在目录：编辑器常以"写临时文件再 rename"的方式保存，
// 直接监视文件会在第一次保存后丢失后续事件。
type Watcher struct {
	path     string
	filename string
	fs       *fsnotify.Watcher
	onChange ChangeFunc
	debounce time.Duration

	closeOnce sync.Once
	closeErr  error
}

// NewWatcher 创建 path 的监视器，需调用 [Watcher.Run] 开始监视。
func NewWatcher(path string, onChange ChangeFunc, opts ...WatchOption) (*Watcher, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if onChange == nil {
		return nil, errors.New("config: nil change callback")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("config: watch directory %s: %w", dir, err), fsw.Close())
	}

	w := &Watcher{
		path:     path,
		filename: filepath.Base(path),
		fs:       fsw,
		onChange: onChange,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run 阻塞监视直到 ctx 结束，返回前关闭底层监视器。
// 回调在 Run 所在的 goroutine 中串行执行。
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.Close() }()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cfg, err := Load(w.path)
			w.onChange(cfg, err)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.onChange(nil, fmt.Errorf("config: watch error: %w", err))
		}
	}
}

// Close 停止监视，可重复调用。
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.fs.Close()
	})
	return w.closeErr
}

// relevant 只接受目标文件的写入、创建与 rename 事件。
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Base(ev.Name) != w.filename {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

package shortcut

import (
	"context"
	"fmt"
	"sync"
)

// memRepository 是测试用的内存 Repository。
type memRepository struct {
	mu    sync.Mutex
	byID  map[string]string
	reads int
}

func newMemRepository() *memRepository {
	return &memRepository{byID: make(map[string]string)}
}

func (r *memRepository) Create(_ context.Context, s Shortcut) (Shortcut, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[s.ID]; ok {
		return Shortcut{}, fmt.Errorf("%w: id %q exists", ErrConflict, s.ID)
	}
	r.byID[s.ID] = s.URL
	return s, nil
}

func (r *memRepository) Read(_ context.Context, id string) (Shortcut, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	url, ok := r.byID[id]
	if !ok {
		return Shortcut{}, false, nil
	}
	return Shortcut{ID: id, URL: url}, true, nil
}

func (r *memRepository) QueryByURL(_ context.Context, url string) ([]Shortcut, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Shortcut{}
	for id, u := range r.byID {
		if u == url {
			out = append(out, Shortcut{ID: id, URL: u})
		}
	}
	return out, nil
}

func (r *memRepository) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

package schema

import (
	"context"
	"sync"
)

// Memo holds a lazily fetched value. A successful load is kept for the life
// of the Memo; failures are not cached so a later call may succeed.
type Memo[T any] struct {
	mu     sync.Mutex
	loaded bool
	value  T
}

// Get returns the memoised value, calling load on first use.
func (m *Memo[T]) Get(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return m.value, nil
	}
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	m.value, m.loaded = v, true
	return v, nil
}

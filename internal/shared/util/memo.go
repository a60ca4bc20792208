package util

import "sync"

// Memo1 memoizes a pure single-argument function. Safe for concurrent use;
// the wrapped function may run more than once for the same key under
// contention, but only one result is retained.
type Memo1[K comparable, V any] struct {
	mu      sync.RWMutex
	fn      func(K) (V, error)
	results map[K]memoResult[V]
}

type memoResult[V any] struct {
	value V
	err   error
}

func NewMemo1[K comparable, V any](fn func(K) (V, error)) *Memo1[K, V] {
	return &Memo1[K, V]{
		fn:      fn,
		results: make(map[K]memoResult[V]),
	}
}

func (m *Memo1[K, V]) Call(key K) (V, error) {
	m.mu.RLock()
	if r, ok := m.results[key]; ok {
		m.mu.RUnlock()
		return r.value, r.err
	}
	m.mu.RUnlock()

	value, err := m.fn(key)

	m.mu.Lock()
	m.results[key] = memoResult[V]{value: value, err: err}
	m.mu.Unlock()
	return value, err
}

// Forget drops the cached result for key, forcing the next Call to
// recompute. Used when a watched source file changes.
func (m *Memo1[K, V]) Forget(key K) {
	m.mu.Lock()
	delete(m.results, key)
	m.mu.Unlock()
}

func (m *Memo1[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results)
}

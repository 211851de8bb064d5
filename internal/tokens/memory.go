package tokens

import (
	"context"
	"sync"
)

// MemoryStore — хранилище в памяти процесса: тесты и одноразовые сессии.
type MemoryStore struct {
	mu   sync.RWMutex
	pair Pair
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(initial Pair) *MemoryStore {
	return &MemoryStore{pair: initial}
}

func (m *MemoryStore) Load(context.Context) (Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.pair, nil
}

func (m *MemoryStore) Save(_ context.Context, p Pair) error {
	m.mu.Lock()
	m.pair = p
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.pair = Pair{}
	m.mu.Unlock()

	return nil
}

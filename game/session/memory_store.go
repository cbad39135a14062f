package session

import "sync"

// MemoryStore keeps values in memory only
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]int)}
}

func (m *MemoryStore) Lookup(key string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return 0, ErrKeyNotFound
	}
	return v, nil
}

func (m *MemoryStore) GetInt(key string, def int) int { return getInt(m, key, def, nil) }

func (m *MemoryStore) SetInt(key string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) DeleteKey(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Save() error  { return nil }
func (m *MemoryStore) Close() error { return nil }

package history

import (
	"errors"
	"fmt"
	"sync"

	"go.mills.io/bitcask/v2"
)

// ErrNotFound is returned by a Backend when a key has no value.
var ErrNotFound = errors.New("history: key not found")

// Backend is the key-value substrate the store persists into. It mirrors the
// two-key blob layout the browser client used for local storage.
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// BitcaskBackend persists history in an on-disk bitcask database.
type BitcaskBackend struct {
	get     func(key []byte) ([]byte, error)
	put     func(key, value []byte) error
	delete  func(key []byte) error
	closeFn func() error
}

// OpenBitcask opens (or creates) the bitcask database at path.
func OpenBitcask(path string) (*BitcaskBackend, error) {
	db, err := bitcask.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bitcask at %s: %w", path, err)
	}
	return &BitcaskBackend{
		get:     func(key []byte) ([]byte, error) { return db.Get(key) },
		put:     func(key, value []byte) error { return db.Put(key, value) },
		delete:  func(key []byte) error { return db.Delete(key) },
		closeFn: func() error { return db.Close() },
	}, nil
}

func (b *BitcaskBackend) Get(key string) ([]byte, error) {
	value, err := b.get([]byte(key))
	if err != nil {
		if errors.Is(err, bitcask.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (b *BitcaskBackend) Put(key string, value []byte) error {
	return b.put([]byte(key), value)
}

func (b *BitcaskBackend) Delete(key string) error {
	err := b.delete([]byte(key))
	if err != nil && errors.Is(err, bitcask.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *BitcaskBackend) Close() error {
	return b.closeFn()
}

// MemoryBackend keeps history in process memory. It backs tests and the
// degraded mode entered when the on-disk database cannot be opened.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return value, nil
}

func (m *MemoryBackend) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}

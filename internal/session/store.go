// Package session keeps server-side login state. The browser only holds a
// signed cookie naming a session id; the principal lives in a Store (Redis
// in production, process memory when Redis is unavailable and in tests).
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoSession is returned by stores for unknown or expired ids.
var ErrNoSession = errors.New("session not found")

// Data is what a session remembers about its owner.
type Data struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists session data keyed by session id.
type Store interface {
	Get(ctx context.Context, id string) (Data, error)
	Save(ctx context.Context, id string, d Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memEntry struct {
	data    Data
	expires time.Time
}

// MemoryStore is a Store backed by a map. It is only valid for a single
// process.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memEntry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]memEntry{}, now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, id string) (Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return Data{}, ErrNoSession
	}
	if m.now().After(e.expires) {
		delete(m.items, id)
		return Data{}, ErrNoSession
	}
	return e.data, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, d Data, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = memEntry{data: d, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

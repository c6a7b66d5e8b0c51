package agent

import (
	"context"
	"errors"
	"sync"
)

// Cache is the backing store used for sessions and conversation history.
// The in-memory implementation suffices for a single process; a Redis-backed
// one plugs in the same way.
type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type MemoryCache[S any] struct {
	mu sync.RWMutex
	m  map[string]S
}

func NewMemoryCache[S any]() *MemoryCache[S] {
	return &MemoryCache[S]{m: map[string]S{}}
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	m.mu.Lock()
	m.m[key] = val
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	m.mu.RLock()
	val, ok := m.m[key]
	m.mu.RUnlock()
	return val, ok, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.m[key]
	m.mu.RUnlock()
	return ok, nil
}

type sessionKeyContext struct{}

// WithSession sets a routing key for session storage in the context.
func WithSession(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, sessionKeyContext{}, key)
}

// SessionFromContext gets the routing key from the context.
func SessionFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(sessionKeyContext{})
	if value == nil {
		return "", false
	}
	key, ok := value.(string)
	return key, ok
}

var ErrNoSession = errors.New("agent: no session key in context")

type store[S any] struct {
	core      Cache[S]
	namespace string
}

func (c store[S]) key(ctx context.Context) (string, bool) {
	key, ok := SessionFromContext(ctx)
	if !ok || key == "" {
		return "", false
	}
	return c.namespace + ":" + key, true
}

func (c store[S]) Set(ctx context.Context, val S) error {
	key, ok := c.key(ctx)
	if !ok {
		return ErrNoSession
	}
	return c.core.Set(ctx, key, val)
}

func (c store[S]) Get(ctx context.Context) (S, bool, error) {
	key, ok := c.key(ctx)
	if !ok {
		var zero S
		return zero, false, ErrNoSession
	}
	return c.core.Get(ctx, key)
}

func (c store[S]) Del(ctx context.Context) error {
	key, ok := c.key(ctx)
	if !ok {
		return ErrNoSession
	}
	return c.core.Del(ctx, key)
}

// SessionStore persists manager snapshots per session key. A conversation can
// be resumed on another manager instance by loading its snapshot.
type SessionStore struct {
	store store[*Snapshot]
}

func NewSessionStore(core Cache[*Snapshot]) *SessionStore {
	return &SessionStore{
		store: store[*Snapshot]{core: core, namespace: "fiche:state"},
	}
}

func NewMemorySessionStore() *SessionStore {
	return NewSessionStore(NewMemoryCache[*Snapshot]())
}

func (s *SessionStore) Save(ctx context.Context, snap *Snapshot) error {
	return s.store.Set(ctx, snap)
}

func (s *SessionStore) Load(ctx context.Context) (*Snapshot, bool, error) {
	return s.store.Get(ctx)
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.store.Del(ctx)
}

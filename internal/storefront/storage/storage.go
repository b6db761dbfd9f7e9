// Package storage provides the key/value local storage the client uses as an
// offline fallback for the cart and the auth session.
package storage

import (
	"context"
	"errors"
	"sync"
)

// Well-known keys.
const (
	KeyCart  = "cart"
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrNotFound is returned by GetItem for absent keys.
var ErrNotFound = errors.New("storage: key not found")

// LocalStorage is a string key/value store.
type LocalStorage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

var _ LocalStorage = (*Memory)(nil)

// Memory is an in-process LocalStorage, used by tests and ephemeral sessions.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) GetItem(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *Memory) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

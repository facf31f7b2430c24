package client

import (
	"sync"
	"time"
)

// TokenStore keeps the bearer token and its expiry between requests.
type TokenStore interface {
	Token() (string, time.Time)
	SetToken(token string, expiresAt time.Time)
	Clear()
}

type MemoryTokenStore struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Token() (string, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.expiresAt
}

func (s *MemoryTokenStore) SetToken(token string, expiresAt time.Time) {
	s.mu.Lock()
	s.token, s.expiresAt = token, expiresAt
	s.mu.Unlock()
}

func (s *MemoryTokenStore) Clear() {
	s.SetToken("", time.Time{})
}

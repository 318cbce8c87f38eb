package vault

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store for tests and examples. It applies no
// obfuscation and no TTL.
type Memory struct {
	mu  sync.Mutex
	rec *Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Save replaces the stored record.
func (s *Memory) Save(_ context.Context, rec *Record, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.rec = &cp
	return nil
}

// Load returns a copy of the stored record.
func (s *Memory) Load(context.Context) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil, ErrNotFound
	}
	cp := *s.rec
	return &cp, nil
}

// Clear drops the stored record.
func (s *Memory) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}

package storage

import (
	"context"
	"sync"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/session"
)

// Memory keeps the entries of many browser sessions in process memory.
// It is used when no database is configured and in tests.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]map[string]string)}
}

// ForSession returns the storage scoped to one browser session id.
func (m *Memory) ForSession(id string) session.Storage {
	return &memorySession{m: m, id: id}
}

// Len reports how many browser sessions hold at least one entry.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

type memorySession struct {
	m  *Memory
	id string
}

func (s *memorySession) Load(_ context.Context, keys ...string) (map[string]string, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	out := make(map[string]string, len(keys))
	entries := s.m.sessions[s.id]
	for _, k := range keys {
		if v, ok := entries[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *memorySession) Save(_ context.Context, entries map[string]string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	cur := s.m.sessions[s.id]
	if cur == nil {
		cur = make(map[string]string, len(entries))
		s.m.sessions[s.id] = cur
	}
	for k, v := range entries {
		cur[k] = v
	}
	return nil
}

func (s *memorySession) Remove(_ context.Context, keys ...string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	cur := s.m.sessions[s.id]
	for _, k := range keys {
		delete(cur, k)
	}
	if len(cur) == 0 {
		delete(s.m.sessions, s.id)
	}
	return nil
}

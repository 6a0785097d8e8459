package kv

import (
	"context"
	"sync"
)

// Memory is an in-process Store used in tests and local development. Writes
// hold the lock for the whole pair set, giving the same atomicity as the
// redis transaction.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) GetMulti(_ context.Context, keys ...string) ([]string, []bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values := make([]string, len(keys))
	present := make([]bool, len(keys))
	for i, key := range keys {
		if v, ok := m.data[key]; ok {
			values[i] = v
			present[i] = true
		}
	}
	return values, present, nil
}

func (m *Memory) SetMulti(_ context.Context, pairs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, value := range pairs {
		m.data[key] = value
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *Memory) Ping(_ context.Context) error {
	return nil
}

package handler

import (
	"context"
	"strings"
	"sync"

	"github.com/finquota/finquota/pkg/finerr"
)

// memDoc is an in-memory store.Document for handler tests.
type memDoc struct {
	mu      sync.Mutex
	docs    map[string]string
	sets    []string
	failSet bool
}

func newMemDoc() *memDoc { return &memDoc{docs: make(map[string]string)} }

func (m *memDoc) GetJSON(_ context.Context, key, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.docs[key]
	if !ok {
		return "", finerr.ErrKeyNotFound
	}
	return "[" + raw + "]", nil
}

func (m *memDoc) SetJSON(_ context.Context, key, path, raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return finerr.ErrCommandFailed
	}
	m.docs[key] = raw
	m.sets = append(m.sets, key)
	return nil
}

func (m *memDoc) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func (m *memDoc) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memDoc) CreateIndex(context.Context) error { return nil }
func (m *memDoc) DropIndex(context.Context) error   { return nil }
func (m *memDoc) Close() error                      { return nil }

func (m *memDoc) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.docs))
	for k := range m.docs {
		out = append(out, k)
	}
	return out
}

func (m *memDoc) setCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, k := range m.sets {
		if k == key {
			n++
		}
	}
	return n
}

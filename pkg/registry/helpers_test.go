package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"
)

// memStore is an in-memory Store with the same compaction rule as the
// SQLite store.
type memStore struct {
	values map[string]json.RawMessage
	getErr error
}

func newMemStore() *memStore {
	return &memStore{values: map[string]json.RawMessage{}}
}

func (m *memStore) Get(_ context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := map[string]json.RawMessage{}
	if len(keys) == 0 {
		for k, v := range m.values {
			out[k] = v
		}
		return out, nil
	}
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memStore) Set(_ context.Context, values map[string]json.RawMessage) error {
	compacted := map[string]json.RawMessage{}
	for k, v := range values {
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return errors.New("invalid json")
		}
		compacted[k] = buf.Bytes()
	}
	for k, v := range compacted {
		m.values[k] = v
	}
	return nil
}

func (m *memStore) Clear(context.Context) error {
	m.values = map[string]json.RawMessage{}
	return nil
}

func (m *memStore) keys() []string {
	var out []string
	for k := range m.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// countingLocker records Lock/Unlock calls.
type countingLocker struct {
	locks, unlocks int
}

func (c *countingLocker) Lock() error   { c.locks++; return nil }
func (c *countingLocker) Unlock() error { c.unlocks++; return nil }

func newTestRegistry(t *testing.T) (*Registry, *memStore) {
	t.Helper()
	store := newMemStore()
	r := New(store, nil)
	r.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return r, store
}

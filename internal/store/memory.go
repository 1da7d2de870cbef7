// Package store provides key-value storage backends for Tandem.
//
// This file implements the in-memory backend used by tests and local runs.
package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// MemoryStore is a mutex-guarded in-memory KV implementation. It keeps the
// same type separation as Redis: a key holds exactly one of scalar, hash,
// set, or list.
type MemoryStore struct {
	mu      sync.RWMutex
	strings map[string]string
	hashes  map[string]map[string]string
	sets    map[string]map[string]struct{}
	lists   map[string][]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: make(map[string]string),
		hashes:  make(map[string]map[string]string),
		sets:    make(map[string]map[string]struct{}),
		lists:   make(map[string][]string),
	}
}

// GetString returns the scalar value at key.
func (m *MemoryStore) GetString(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.strings[key]
	return v, ok, nil
}

// SetString writes the scalar value at key.
func (m *MemoryStore) SetString(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = value
	return nil
}

// HashGet returns the named hash fields, nil per absent field.
func (m *MemoryStore) HashGet(ctx context.Context, key string, fields ...string) ([]*string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.hashes[key]
	out := make([]*string, len(fields))
	for i, f := range fields {
		if h == nil {
			continue
		}
		if v, ok := h[f]; ok {
			val := v
			out[i] = &val
		}
	}
	return out, nil
}

// HashGetAll returns a copy of the hash at key.
func (m *MemoryStore) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.hashes[key]))
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

// HashSet writes a single hash field.
func (m *MemoryStore) HashSet(ctx context.Context, key, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hash(key)[field] = value
	return nil
}

// HashSetMultiple writes several hash fields.
func (m *MemoryStore) HashSetMultiple(ctx context.Context, key string, pairs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hash(key)
	for f, v := range pairs {
		h[f] = v
	}
	return nil
}

// HashDeleteFields removes the named fields from the hash at key.
func (m *MemoryStore) HashDeleteFields(ctx context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hashes[key]
	if h == nil {
		return nil
	}
	for _, f := range fields {
		delete(h, f)
	}
	return nil
}

// HashIncrement adds by to an integer hash field and returns the new value.
func (m *MemoryStore) HashIncrement(ctx context.Context, key, field string, by int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hash(key)
	var cur int64
	if raw, ok := h[field]; ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("hash field %s.%s is not an integer: %w", key, field, err)
		}
		cur = n
	}
	cur += by
	h[field] = strconv.FormatInt(cur, 10)
	return cur, nil
}

// HashExists reports whether the hash at key has the named field.
func (m *MemoryStore) HashExists(ctx context.Context, key, field string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.hashes[key]
	if h == nil {
		return false, nil
	}
	_, ok := h[field]
	return ok, nil
}

// Exists reports whether any value is stored at key.
func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.strings[key]; ok {
		return true, nil
	}
	if h, ok := m.hashes[key]; ok && len(h) > 0 {
		return true, nil
	}
	if s, ok := m.sets[key]; ok && len(s) > 0 {
		return true, nil
	}
	if l, ok := m.lists[key]; ok && len(l) > 0 {
		return true, nil
	}
	return false, nil
}

// SetContainsMember reports whether member is in the set at setKey.
func (m *MemoryStore) SetContainsMember(ctx context.Context, setKey, member string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.sets[setKey]
	if s == nil {
		return false, nil
	}
	_, ok := s[member]
	return ok, nil
}

// SetMembers returns all members of the set at setKey.
func (m *MemoryStore) SetMembers(ctx context.Context, setKey string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sets[setKey]))
	for member := range m.sets[setKey] {
		out = append(out, member)
	}
	return out, nil
}

// SetAddMember adds member to the set at setKey.
func (m *MemoryStore) SetAddMember(ctx context.Context, setKey, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sets[setKey]
	if s == nil {
		s = make(map[string]struct{})
		m.sets[setKey] = s
	}
	s[member] = struct{}{}
	return nil
}

// ListIndex returns the element at idx of the list at listKey.
func (m *MemoryStore) ListIndex(ctx context.Context, listKey string, idx int64) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l := m.lists[listKey]
	if idx < 0 || idx >= int64(len(l)) {
		return "", false, nil
	}
	return l[idx], true, nil
}

// ListLength returns the length of the list at listKey.
func (m *MemoryStore) ListLength(ctx context.Context, listKey string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.lists[listKey])), nil
}

// ListPush appends values to the list at listKey.
func (m *MemoryStore) ListPush(ctx context.Context, listKey string, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[listKey] = append(m.lists[listKey], values...)
	return nil
}

// Delete removes the given keys, of any type.
func (m *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.strings, key)
		delete(m.hashes, key)
		delete(m.sets, key)
		delete(m.lists, key)
	}
	return nil
}

// hash returns the hash at key, creating it if needed. Callers hold mu.
func (m *MemoryStore) hash(key string) map[string]string {
	h := m.hashes[key]
	if h == nil {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	return h
}

package store

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

// Map is a byte-key-ordered key/value store. It is the in-process stand-in for
// the persistent ordered substrate all repositories are built on: lookups by
// exact key plus inclusive range scans over the key order, nothing else.
// Safe for concurrent use; scan callbacks run under the read lock and must not
// mutate the map.
type Map struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[entry]
}

type entry struct {
	key   []byte
	value []byte
}

func entryLess(a, b entry) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{tree: btree.NewG[entry](16, entryLess)}
}

// Get returns the value stored under key.
func (m *Map) Get(key []byte) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.tree.Get(entry{key: key})
	if !ok {
		return nil, false
	}
	return item.value, true
}

// Has reports whether key is present.
func (m *Map) Has(key []byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tree.Get(entry{key: key})
	return ok
}

// Set stores value under key, replacing any previous value.
func (m *Map) Set(key, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree.ReplaceOrInsert(entry{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tree.Delete(entry{key: key})
	return ok
}

// Len returns the number of stored keys.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Len()
}

// AscendRange visits entries with lower <= key <= upper in key order. The
// iterator returns false to stop early.
func (m *Map) AscendRange(lower, upper []byte, iter func(key, value []byte) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.tree.AscendGreaterOrEqual(entry{key: lower}, func(item entry) bool {
		if bytes.Compare(item.key, upper) > 0 {
			return false
		}
		return iter(item.key, item.value)
	})
}

// Ascend visits every entry in key order.
func (m *Map) Ascend(iter func(key, value []byte) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.tree.Ascend(func(item entry) bool {
		return iter(item.key, item.value)
	})
}

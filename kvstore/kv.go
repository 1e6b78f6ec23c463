// Package kvstore implements the Snapshotable store collaborator contract
// (spec.md §6.1): a versioned key/value backing store supporting
// TakeSnapshot/Restore/Commit, with versions forming a stack.
package kvstore

import (
	"sort"
	"strings"
	"sync"
)

// Write is a single buffered mutation, applied to a KV only by WriteBatch —
// Store never calls Put/Delete directly while a write is still uncommitted.
type Write struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// KV is the narrow low-level capability a Store layers versioning on top
// of. It has no notion of snapshots; Store supplies that.
type KV interface {
	Get(key []byte) (value []byte, found bool, err error)
	// WriteBatch applies every write in a single transaction against the
	// backing store — the point at which they become durable. Store only
	// calls this from Commit, never per-key, so nothing reaches disk ahead
	// of the Batch Driver's commit/rollback decision.
	WriteBatch(writes []Write) error
	// Flush durably persists everything WriteBatch has applied so far. For
	// an in-memory KV this is a no-op.
	Flush() error
	Close() error
	// NewIterator returns every key-value pair whose key has the given
	// prefix, starting at the first key >= start, in ascending order. It is
	// the read path the ethdb.KeyValueStore adapter needs for trie-node
	// iteration; it only sees data WriteBatch has already applied, not a
	// Store's pending, uncommitted writes.
	NewIterator(prefix, start []byte) Iterator
}

// Iterator walks the key-value pairs NewIterator selected, mirroring
// go-ethereum's ethdb.Iterator shape (Next/Key/Value/Error/Release).
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

// sliceIterator is a materialized, already-sorted Iterator shared by both
// KV implementations: neither backend supports a live cursor cheaply
// enough to justify one, and trie iteration in this module's scope never
// runs over a store large enough for that to matter.
type sliceIterator struct {
	keys   [][]byte
	values [][]byte
	idx    int
}

func newSliceIterator(keys, values [][]byte) *sliceIterator {
	return &sliceIterator{keys: keys, values: values, idx: -1}
}

func (it *sliceIterator) Next() bool {
	it.idx++
	return it.idx < len(it.keys)
}

func (it *sliceIterator) Key() []byte   { return it.keys[it.idx] }
func (it *sliceIterator) Value() []byte { return it.values[it.idx] }
func (it *sliceIterator) Error() error  { return nil }
func (it *sliceIterator) Release()      {}

// MemKV is an in-memory KV store, grounded on go-ethereum's
// ethdb/memorydb.Database shape (a plain map guarded by a mutex, no
// notion of durability). It backs the in-process test double for
// SnapshotableStore and also the default "no real database configured"
// mode of cmd/execore.
type MemKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemKV returns an empty in-memory KV store.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

func (m *MemKV) Get(key []byte) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// WriteBatch applies every write to the in-memory map under a single lock,
// mirroring the transactional apply mdbxTable does for real.
func (m *MemKV) WriteBatch(writes []Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		if w.Delete {
			delete(m.data, string(w.Key))
			continue
		}
		v := make([]byte, len(w.Value))
		copy(v, w.Value)
		m.data[string(w.Key)] = v
	}
	return nil
}

func (m *MemKV) Flush() error { return nil }
func (m *MemKV) Close() error { return nil }

func (m *MemKV) NewIterator(prefix, start []byte) Iterator {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if len(prefix) > 0 && !strings.HasPrefix(k, string(prefix)) {
			continue
		}
		if len(start) > 0 && k < string(start) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outKeys := make([][]byte, len(keys))
	outValues := make([][]byte, len(keys))
	for i, k := range keys {
		outKeys[i] = []byte(k)
		v := m.data[k]
		cp := make([]byte, len(v))
		copy(cp, v)
		outValues[i] = cp
	}
	return newSliceIterator(outKeys, outValues)
}

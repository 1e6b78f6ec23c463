// kvdb.go adapts a *kvstore.Store to go-ethereum's ethdb.KeyValueStore, so
// the account/storage trie this package manages is physically the same
// backing store core/snapshot.go's Snapshot Controller captures, restores,
// and commits, rather than an ephemeral database of its own.
package state

import (
	"errors"

	"github.com/ethereum/go-ethereum/ethdb"

	"github.com/mstrong-tech/execore/kvstore"
)

var errKVNotFound = errors.New("state: key not found")

// kvAdapter implements ethdb.KeyValueStore over a *kvstore.Store. Every
// write goes through the Store's own Put/Delete, so trie nodes written
// during block processing are held in the same pending-write log
// core/snapshot.go relies on for rollback — there is no write path here
// that could desync the trie from the rest of the batch.
type kvAdapter struct {
	store *kvstore.Store
}

func newKVAdapter(store *kvstore.Store) *kvAdapter {
	return &kvAdapter{store: store}
}

func (a *kvAdapter) Has(key []byte) (bool, error) {
	_, found, err := a.store.Get(key)
	return found, err
}

func (a *kvAdapter) Get(key []byte) ([]byte, error) {
	v, found, err := a.store.Get(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errKVNotFound
	}
	return v, nil
}

func (a *kvAdapter) Put(key, value []byte) error { return a.store.Put(key, value) }
func (a *kvAdapter) Delete(key []byte) error     { return a.store.Delete(key) }

func (a *kvAdapter) Stat(string) (string, error)      { return "", nil }
func (a *kvAdapter) Compact([]byte, []byte) error     { return nil }
func (a *kvAdapter) Close() error                     { return nil }
func (a *kvAdapter) NewBatch() ethdb.Batch            { return newKVBatch(a) }
func (a *kvAdapter) NewBatchWithSize(int) ethdb.Batch { return newKVBatch(a) }

func (a *kvAdapter) NewIterator(prefix, start []byte) ethdb.Iterator {
	return a.store.NewIterator(prefix, start)
}

var _ ethdb.KeyValueStore = (*kvAdapter)(nil)

// kvBatch buffers Put/Delete calls and replays them through the adapter (or
// any other ethdb.KeyValueWriter) on Write/Replay, matching go-ethereum's
// ethdb.Batch contract.
type kvBatch struct {
	adapter *kvAdapter
	writes  []kvBatchOp
	size    int
}

type kvBatchOp struct {
	key    []byte
	value  []byte
	delete bool
}

func newKVBatch(a *kvAdapter) *kvBatch { return &kvBatch{adapter: a} }

func (b *kvBatch) Put(key, value []byte) error {
	b.writes = append(b.writes, kvBatchOp{key: cloneKVBytes(key), value: cloneKVBytes(value)})
	b.size += len(key) + len(value)
	return nil
}

func (b *kvBatch) Delete(key []byte) error {
	b.writes = append(b.writes, kvBatchOp{key: cloneKVBytes(key), delete: true})
	b.size += len(key)
	return nil
}

func (b *kvBatch) ValueSize() int { return b.size }

func (b *kvBatch) Write() error {
	for _, op := range b.writes {
		var err error
		if op.delete {
			err = b.adapter.Delete(op.key)
		} else {
			err = b.adapter.Put(op.key, op.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *kvBatch) Reset() {
	b.writes = b.writes[:0]
	b.size = 0
}

func (b *kvBatch) Replay(w ethdb.KeyValueWriter) error {
	for _, op := range b.writes {
		var err error
		if op.delete {
			err = w.Delete(op.key)
		} else {
			err = w.Put(op.key, op.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

var _ ethdb.Batch = (*kvBatch)(nil)

func cloneKVBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

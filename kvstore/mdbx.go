package kvstore

import (
	"bytes"
	"fmt"

	"github.com/erigontech/mdbx-go/mdbx"
)

// MDBXOpts is a builder for a production backing store, grounded on the
// teacher's ethdb.MdbxOpts fluent configuration (Label/Path/InMem/MapSize).
// Unlike the teacher, which opens one environment per logical database,
// this module opens a single shared environment with two named tables —
// "state" and "code" — so the two Stores returned by Open can be Paired
// into one atomic commit (see Pair).
type MDBXOpts struct {
	path    string
	inMem   bool
	mapSize uint64
}

// NewMDBXOpts returns a builder with the teacher's defaults: durable,
// read-ahead disabled.
func NewMDBXOpts() MDBXOpts {
	return MDBXOpts{mapSize: 2 << 30}
}

func (o MDBXOpts) Path(path string) MDBXOpts { o.path = path; return o }
func (o MDBXOpts) InMem() MDBXOpts           { o.inMem = true; return o }
func (o MDBXOpts) MapSize(sz uint64) MDBXOpts {
	o.mapSize = sz
	return o
}

// MDBXEnv is the shared environment backing both the state and code tables.
type MDBXEnv struct {
	env        *mdbx.Env
	stateTable mdbx.DBI
	codeTable  mdbx.DBI
}

// Open creates or opens the MDBX environment and its two tables.
func (o MDBXOpts) Open() (*MDBXEnv, error) {
	env, err := mdbx.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("kvstore: mdbx.NewEnv: %w", err)
	}
	if err := env.SetOption(mdbx.OptMaxDB, 2); err != nil {
		return nil, fmt.Errorf("kvstore: mdbx SetOption MaxDB: %w", err)
	}
	if err := env.SetGeometry(-1, -1, int(o.mapSize), -1, -1, -1); err != nil {
		return nil, fmt.Errorf("kvstore: mdbx SetGeometry: %w", err)
	}
	flags := uint(mdbx.NoReadahead | mdbx.Coalesce | mdbx.Durable)
	path := o.path
	if o.inMem {
		flags |= mdbx.NoSubdir | mdbx.NoMetaSync | mdbx.NoSync
	}
	if err := env.Open(path, flags, 0644); err != nil {
		return nil, fmt.Errorf("kvstore: mdbx env.Open(%s): %w", path, err)
	}

	e := &MDBXEnv{env: env}
	err = env.Update(func(txn *mdbx.Txn) error {
		stateDBI, err := txn.OpenDBISimple("state", mdbx.Create)
		if err != nil {
			return err
		}
		codeDBI, err := txn.OpenDBISimple("code", mdbx.Create)
		if err != nil {
			return err
		}
		e.stateTable, e.codeTable = stateDBI, codeDBI
		return nil
	})
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("kvstore: opening tables: %w", err)
	}
	return e, nil
}

// Close shuts down the shared environment. Both Stores returned by
// StateStore/CodeStore become unusable afterward.
func (e *MDBXEnv) Close() error {
	e.env.Close()
	return nil
}

// StateStore returns a versioned Store bound to the "state" table.
func (e *MDBXEnv) StateStore() *Store { return New(&mdbxTable{env: e.env, dbi: e.stateTable}, "state") }

// CodeStore returns a versioned Store bound to the "code" table.
func (e *MDBXEnv) CodeStore() *Store { return New(&mdbxTable{env: e.env, dbi: e.codeTable}, "code") }

// mdbxTable implements KV against one table of a shared MDBX environment,
// opening one short-lived read or write transaction per call — the same
// coarse-grained transaction shape the teacher's ethdb.MdbxKV cursor
// helpers use for single-key operations.
type mdbxTable struct {
	env *mdbx.Env
	dbi mdbx.DBI
}

func (t *mdbxTable) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	err := t.env.View(func(txn *mdbx.Txn) error {
		v, err := txn.Get(t.dbi, key)
		if mdbx.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		out = append([]byte{}, v...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// WriteBatch applies every write in one MDBX transaction, committed only
// when env.Update returns — this, not a Store's Put/Delete, is the only
// point at which a write against this table becomes durable. Grounded on
// the teacher's ethdb/mutation.go, which buffers Put/Delete in memory and
// only opens a real backing transaction on doCommit.
func (t *mdbxTable) WriteBatch(writes []Write) error {
	if len(writes) == 0 {
		return nil
	}
	return t.env.Update(func(txn *mdbx.Txn) error {
		for _, w := range writes {
			if w.Delete {
				if err := txn.Del(t.dbi, w.Key, nil); err != nil && !mdbx.IsNotFound(err) {
					return err
				}
				continue
			}
			if err := txn.Put(t.dbi, w.Key, w.Value, 0); err != nil {
				return err
			}
		}
		return nil
	})
}

// Flush is a no-op: WriteBatch's env.Update already committed the MDBX
// transaction durably. Store.Commit still calls it so the KV interface
// stays uniform across the in-memory and MDBX backends.
func (t *mdbxTable) Flush() error { return nil }
func (t *mdbxTable) Close() error { return nil }

// NewIterator materializes every key-value pair matching prefix/start by
// walking a single read-only cursor, the same one-transaction-per-call
// shape Get and WriteBatch use.
func (t *mdbxTable) NewIterator(prefix, start []byte) Iterator {
	var keys, values [][]byte
	_ = t.env.View(func(txn *mdbx.Txn) error {
		cur, err := txn.OpenCursor(t.dbi)
		if err != nil {
			return err
		}
		defer cur.Close()

		seek := start
		if len(seek) == 0 {
			seek = prefix
		}
		var k, v []byte
		if len(seek) > 0 {
			k, v, err = cur.Get(seek, nil, mdbx.SetRange)
		} else {
			k, v, err = cur.Get(nil, nil, mdbx.First)
		}
		for err == nil {
			if len(prefix) > 0 && !bytes.HasPrefix(k, prefix) {
				break
			}
			keys = append(keys, append([]byte{}, k...))
			values = append(values, append([]byte{}, v...))
			k, v, err = cur.Get(nil, nil, mdbx.Next)
		}
		return nil
	})
	return newSliceIterator(keys, values)
}

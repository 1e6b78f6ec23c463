// Package txstore implements the core.TransactionStore collaborator
// contract over a kvstore.Store, keyed by transaction hash.
package txstore

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/mstrong-tech/execore/kvstore"
)

// Store persists processed transaction receipts keyed by transaction hash.
// StoreProcessedTransaction overwrites any prior value for the same hash,
// satisfying the idempotence spec.md §6.1 requires.
type Store struct {
	kv *kvstore.Store
}

// New wraps kv, conventionally the same "code" store the rest of the batch
// already snapshots, so receipt persistence rolls back for free alongside
// everything else C1 coordinates.
func New(kv *kvstore.Store) *Store {
	return &Store{kv: kv}
}

func (s *Store) StoreProcessedTransaction(txHash common.Hash, receipt *types.Receipt) error {
	buf, err := rlp.EncodeToBytes(receipt)
	if err != nil {
		return err
	}
	return s.kv.Put(txHash.Bytes(), buf)
}

// LoadProcessedTransaction is the read-side counterpart, used by tests to
// confirm a receipt was actually persisted.
func (s *Store) LoadProcessedTransaction(txHash common.Hash) (*types.Receipt, bool, error) {
	buf, found, err := s.kv.Get(txHash.Bytes())
	if err != nil || !found {
		return nil, found, err
	}
	var r types.Receipt
	if err := rlp.DecodeBytes(buf, &r); err != nil {
		return nil, false, err
	}
	return &r, true, nil
}

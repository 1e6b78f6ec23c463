package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
)

// receiptRLP mirrors go-ethereum's own on-the-wire receipt shape: the
// pre/post-EIP-658 choice collapses to one field whose bytes are either the
// 32-byte post-state root or a single status byte, selected explicitly by
// eip658Mode rather than by inspecting the receipt's own Type/Status
// population, per spec.md §6.3's fork-gated rule.
type receiptRLP struct {
	PostStateOrStatus []byte
	CumulativeGasUsed uint64
	Bloom             types.Bloom
	Logs              []*types.Log
}

func statusEncoding(r *types.Receipt, eip658Mode bool) []byte {
	if eip658Mode {
		if r.Status == types.ReceiptStatusFailed {
			return []byte{}
		}
		return []byte{1}
	}
	return r.PostState
}

func encodeReceiptForTrie(r *types.Receipt, eip658Mode bool) ([]byte, error) {
	logs := r.Logs
	if logs == nil {
		logs = []*types.Log{}
	}
	return rlp.EncodeToBytes(&receiptRLP{
		PostStateOrStatus: statusEncoding(r, eip658Mode),
		CumulativeGasUsed: r.CumulativeGasUsed,
		Bloom:             r.Bloom,
		Logs:              logs,
	})
}

// buildReceiptTrieAndBloom implements C4. An empty receipt set short
// circuits to the canonical empty-trie hash and the all-zero bloom;
// otherwise a fresh, ephemeral (non-persistent) Merkle Patricia trie is
// built with keys equal to the canonical integer encoding of each
// receipt's position, mirroring the invariant in spec.md §3 ("receipt
// index in the receipt trie equals its position in the transaction
// sequence").
func buildReceiptTrieAndBloom(receipts []*types.Receipt, eip658Mode bool) (common.Hash, types.Bloom, error) {
	if len(receipts) == 0 {
		return types.EmptyRootHash, types.Bloom{}, nil
	}

	t, err := trie.New(trie.TrieID(common.Hash{}), triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	if err != nil {
		return common.Hash{}, types.Bloom{}, &CollaboratorError{Component: "trie.New", Err: err}
	}

	var bloom types.Bloom
	for i, r := range receipts {
		key, err := rlp.EncodeToBytes(uint(i))
		if err != nil {
			return common.Hash{}, types.Bloom{}, &CollaboratorError{Component: "rlp.EncodeToBytes(index)", Err: err}
		}
		val, err := encodeReceiptForTrie(r, eip658Mode)
		if err != nil {
			return common.Hash{}, types.Bloom{}, &CollaboratorError{Component: "encodeReceiptForTrie", Err: err}
		}
		if err := t.Update(key, val); err != nil {
			return common.Hash{}, types.Bloom{}, &CollaboratorError{Component: "trie.Update", Err: err}
		}
		orBloom(&bloom, &r.Bloom)
	}

	root, _, err := t.Commit(false)
	if err != nil {
		return common.Hash{}, types.Bloom{}, &CollaboratorError{Component: "trie.Commit", Err: err}
	}
	return root, bloom, nil
}

// orBloom component-wise ORs src into dst.
func orBloom(dst, src *types.Bloom) {
	for i := range dst {
		dst[i] |= src[i]
	}
}

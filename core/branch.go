package core

import "github.com/ethereum/go-ethereum/common"

// realignBranch implements C2. If branchStateRoot is non-nil and differs
// from the state provider's current root, the in-memory storage and state
// caches are discarded and the state provider is repointed to the
// requested root before any block in the batch is processed. This exists
// so a caller can ask for speculative execution from a parent root other
// than the last-committed tip.
func realignBranch(state StateProvider, storage StorageProvider, branchStateRoot *common.Hash) {
	if branchStateRoot == nil {
		return
	}
	if *branchStateRoot == state.StateRoot() {
		return
	}
	storage.Reset()
	state.Reset()
	state.SetStateRoot(*branchStateRoot)
}

package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// Trace is an opaque, executor-specific execution trace. The core never
// inspects its contents; it only forwards it from the Executor to whichever
// TraceListener asked for it.
type Trace []byte

// Executor runs a single transaction against a state provider and returns
// the resulting receipt. Implementations mutate the state/storage providers
// in place and must be deterministic given identical providers and fork
// spec. shouldTrace is threaded through explicitly so that non-traced paths
// never allocate a trace.
type Executor interface {
	Execute(index int, tx *types.Transaction, header *types.Header, shouldTrace bool) (*types.Receipt, Trace, error)
}

// StateProvider is the narrow slice of a versioned state store this package
// needs: root handling, discard/commit of in-memory writes, and balance
// bookkeeping for reward application.
type StateProvider interface {
	StateRoot() common.Hash
	SetStateRoot(common.Hash)
	Reset()
	Commit(fs ForkSpec) (common.Hash, error)
	CommitTree() error
	AccountExists(addr common.Address) bool
	CreateAccount(addr common.Address, initialBalance *uint256.Int)
	GetBalance(addr common.Address) *uint256.Int
	AddToBalance(addr common.Address, v *uint256.Int, fs ForkSpec)
	SubtractFromBalance(addr common.Address, v *uint256.Int, fs ForkSpec)
}

// StorageProvider is the in-memory per-account storage cache coupled to a
// StateProvider. It is reset and committed in lockstep with the state
// provider but never inspected for balances.
type StorageProvider interface {
	Reset()
	CommitTrees() error
}

// SnapshotableStore is a versioned key/value backing store. Versions form a
// stack: TakeSnapshot pushes a new version, Restore pops back to an earlier
// one, Commit durably persists everything written since the store was
// opened and invalidates every outstanding version.
type SnapshotableStore interface {
	TakeSnapshot() (int, error)
	Restore(version int) error
	Commit() error
}

// BlockValidator performs the pure, post-execution structural check that
// compares a freshly processed block against what the caller suggested.
type BlockValidator interface {
	ValidateProcessedBlock(processed, suggested *types.Block) (bool, error)
}

// RewardCalculator is pure: given a block it returns the reward deltas to
// apply, one per beneficiary (miner plus any ommer authors). The calculator
// owns tie-break/ordering decisions; the core applies them in the returned
// order.
type RewardCalculator interface {
	CalculateRewards(fs ForkSpec, header *types.Header, uncles []*types.Header) ([]RewardEntry, error)
}

// RewardEntry is one (address, value) credit produced by a RewardCalculator.
type RewardEntry struct {
	Address common.Address
	Value   *uint256.Int
}

// TransactionStore persists processed transaction receipts. StoreProcessedTransaction
// must be idempotent per transaction hash.
type TransactionStore interface {
	StoreProcessedTransaction(txHash common.Hash, receipt *types.Receipt) error
}

// ForkSpec is the set of protocol rules active at a given block number.
type ForkSpec interface {
	IsEip658Enabled() bool
	// IsEip161Enabled reports whether empty accounts touched during this
	// block's execution must be pruned on commit (Spurious Dragon).
	IsEip161Enabled() bool
}

// ForkSpecProvider resolves a ForkSpec for a block number and exposes the
// one non-numeric, one-shot fork action (the DAO transition) this package
// knows about by name.
type ForkSpecProvider interface {
	GetSpec(blockNumber uint64) ForkSpec
	DAOBlockNumber() (uint64, bool)
	DAOAccounts() []common.Address
	DAOWithdrawAccount() common.Address
}

// TraceListener decides, per transaction, whether a trace should be
// collected, and receives the trace when it asked for one.
type TraceListener interface {
	ShouldTrace(txHash common.Hash) bool
	RecordTrace(txHash common.Hash, trace Trace)
}

package core

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// fakeForkSpec is the narrowest possible ForkSpec: a pair of booleans
// set directly by the test.
type fakeForkSpec struct {
	eip658 bool
	eip161 bool
}

func (f fakeForkSpec) IsEip658Enabled() bool { return f.eip658 }
func (f fakeForkSpec) IsEip161Enabled() bool { return f.eip161 }

// fakeForks is a ForkSpecProvider with a fixed EIP-658 activation
// block and an optional DAO transition.
type fakeForks struct {
	eip658Block uint64
	daoBlock    uint64
	daoSet      bool
	daoAccounts []common.Address
	daoWithdraw common.Address
}

func (f *fakeForks) GetSpec(blockNumber uint64) ForkSpec {
	return fakeForkSpec{eip658: blockNumber >= f.eip658Block, eip161: true}
}

func (f *fakeForks) DAOBlockNumber() (uint64, bool) { return f.daoBlock, f.daoSet }
func (f *fakeForks) DAOAccounts() []common.Address  { return f.daoAccounts }
func (f *fakeForks) DAOWithdrawAccount() common.Address { return f.daoWithdraw }

// fakeState is an in-memory core.StateProvider/core.StorageProvider double.
// It records every Reset/SetStateRoot call so branch-realignment and
// rollback tests can assert on call order.
type fakeState struct {
	root     common.Hash
	balances map[common.Address]*uint256.Int
	exists   map[common.Address]bool

	resets         int
	committedRoots []common.Hash
	commitTreeCnt  int
}

func newFakeState(root common.Hash) *fakeState {
	return &fakeState{
		root:     root,
		balances: make(map[common.Address]*uint256.Int),
		exists:   make(map[common.Address]bool),
	}
}

func (s *fakeState) StateRoot() common.Hash     { return s.root }
func (s *fakeState) SetStateRoot(h common.Hash) { s.root = h }
func (s *fakeState) Reset()                     { s.resets++ }
func (s *fakeState) CommitTree() error          { s.commitTreeCnt++; return nil }

func (s *fakeState) Commit(ForkSpec) (common.Hash, error) {
	// Derive a deterministic-but-distinct root per commit so tests can tell
	// successive commits apart without hashing real trie data.
	next := common.BigToHash(new(big.Int).Add(s.root.Big(), big.NewInt(1)))
	s.root = next
	s.committedRoots = append(s.committedRoots, next)
	return next, nil
}

func (s *fakeState) AccountExists(addr common.Address) bool { return s.exists[addr] }

func (s *fakeState) CreateAccount(addr common.Address, initialBalance *uint256.Int) {
	s.exists[addr] = true
	s.balances[addr] = new(uint256.Int).Set(initialBalance)
}

func (s *fakeState) GetBalance(addr common.Address) *uint256.Int {
	if b, ok := s.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

func (s *fakeState) AddToBalance(addr common.Address, v *uint256.Int, _ ForkSpec) {
	b := s.GetBalance(addr)
	b.Add(b, v)
	s.balances[addr] = b
}

func (s *fakeState) SubtractFromBalance(addr common.Address, v *uint256.Int, _ ForkSpec) {
	b := s.GetBalance(addr)
	b.Sub(b, v)
	s.balances[addr] = b
}

// fakeStorage is a trivial core.StorageProvider double sharing counters
// with its paired fakeState so tests can assert both were touched in
// lockstep.
type fakeStorage struct {
	resets        int
	commitTreeCnt int
}

func (s *fakeStorage) Reset()           { s.resets++ }
func (s *fakeStorage) CommitTrees() error { s.commitTreeCnt++; return nil }

// fakeExecutor runs no real EVM: it synthesizes one receipt per
// transaction and can be configured to fail on a specific index or hash.
type fakeExecutor struct {
	failAt    map[int]error
	traces    map[common.Hash]Trace
	callOrder []int
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{failAt: make(map[int]error), traces: make(map[common.Hash]Trace)}
}

func (e *fakeExecutor) Execute(index int, tx *types.Transaction, header *types.Header, shouldTrace bool) (*types.Receipt, Trace, error) {
	e.callOrder = append(e.callOrder, index)
	if err, ok := e.failAt[index]; ok {
		return nil, nil, err
	}
	receipt := &types.Receipt{
		Type:              tx.Type(),
		Status:            types.ReceiptStatusSuccessful,
		TxHash:            tx.Hash(),
		GasUsed:           21000,
		CumulativeGasUsed: 21000 * uint64(index+1),
		BlockNumber:       header.Number,
		TransactionIndex:  uint(index),
	}
	var trace Trace
	if shouldTrace {
		trace = Trace("trace:" + tx.Hash().Hex())
	}
	return receipt, trace, nil
}

// fakeValidator returns a fixed verdict, or an error if configured to.
type fakeValidator struct {
	ok  bool
	err error
}

func (v *fakeValidator) ValidateProcessedBlock(_, _ *types.Block) (bool, error) {
	return v.ok, v.err
}

// fakeRewards returns a fixed list of entries regardless of block content.
type fakeRewards struct {
	entries []RewardEntry
	err     error
}

func (r *fakeRewards) CalculateRewards(ForkSpec, *types.Header, []*types.Header) ([]RewardEntry, error) {
	return r.entries, r.err
}

// fakeTxStore is an in-memory core.TransactionStore double.
type fakeTxStore struct {
	stored map[common.Hash]*types.Receipt
}

func newFakeTxStore() *fakeTxStore {
	return &fakeTxStore{stored: make(map[common.Hash]*types.Receipt)}
}

func (s *fakeTxStore) StoreProcessedTransaction(txHash common.Hash, receipt *types.Receipt) error {
	s.stored[txHash] = receipt
	return nil
}

// fakeListener traces nothing unless explicitly told to.
type fakeListener struct {
	trace   map[common.Hash]bool
	recorded map[common.Hash]Trace
}

func newFakeListener(trace ...common.Hash) *fakeListener {
	set := make(map[common.Hash]bool, len(trace))
	for _, h := range trace {
		set[h] = true
	}
	return &fakeListener{trace: set, recorded: make(map[common.Hash]Trace)}
}

func (l *fakeListener) ShouldTrace(h common.Hash) bool { return l.trace[h] }
func (l *fakeListener) RecordTrace(h common.Hash, t Trace) { l.recorded[h] = t }

var errBoom = errors.New("boom")

func testTx(nonce uint64) *types.Transaction {
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &common.Address{0x01},
		Value:    big.NewInt(1),
		Gas:      21000,
		GasPrice: big.NewInt(1),
	})
}

func testHeader(number uint64, beneficiary common.Address) *types.Header {
	return &types.Header{
		Number:   big.NewInt(int64(number)),
		GasLimit: 30_000_000,
		Coinbase: beneficiary,
		Time:     1000 + number,
		Extra:    []byte{},
	}
}

func testBlock(header *types.Header, txs []*types.Transaction, uncles []*types.Header) *types.Block {
	return types.NewBlockWithHeader(header).WithBody(txs, uncles)
}

package core

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/mstrong-tech/execore/kvstore"
)

func testProcessorConfig(state *fakeState, storage *fakeStorage, exec Executor, validator BlockValidator, rewards RewardCalculator, forks *fakeForks, txStore TransactionStore) (Config, *kvstore.Store, *kvstore.Store) {
	stateKV := kvstore.New(kvstore.NewMemKV(), "state")
	codeKV := kvstore.New(kvstore.NewMemKV(), "code")
	kvstore.Pair(stateKV, codeKV)
	return Config{
		StateDb:   stateKV,
		CodeDb:    codeKV,
		State:     state,
		Storage:   storage,
		Executor:  exec,
		Validator: validator,
		Rewards:   rewards,
		Forks:     forks,
		TxStore:   txStore,
	}, stateKV, codeKV
}

func TestProcessEmptyBatchIsNoop(t *testing.T) {
	state := newFakeState(common.HexToHash("0x01"))
	cfg, _, _ := testProcessorConfig(state, &fakeStorage{}, newFakeExecutor(), &fakeValidator{ok: true}, &fakeRewards{}, &fakeForks{}, newFakeTxStore())
	p := NewProcessor(cfg)

	out, err := p.Process(nil, nil, 0, nil)
	require.NoError(t, err)
	require.Empty(t, out)
	require.Equal(t, 0, state.resets)
}

func TestProcessCommitsBatchDurably(t *testing.T) {
	state := newFakeState(common.HexToHash("0x01"))
	storage := &fakeStorage{}
	cfg, stateKV, _ := testProcessorConfig(state, storage, newFakeExecutor(), &fakeValidator{ok: true}, &fakeRewards{}, &fakeForks{}, newFakeTxStore())
	p := NewProcessor(cfg)

	blocks := []*types.Block{testBlock(testHeader(1, common.Address{}), nil, nil)}

	require.NoError(t, stateKV.Put([]byte("marker"), []byte("v1")))

	out, err := p.Process(nil, blocks, 0, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)

	// A durable commit must survive a capture taken afterward: a further
	// write rolled back by Restore leaves the committed value in place.
	version, err := stateKV.TakeSnapshot()
	require.NoError(t, err)
	require.NoError(t, stateKV.Put([]byte("marker"), []byte("v2")))
	require.NoError(t, stateKV.Restore(version))

	v, found, err := stateKV.Get([]byte("marker"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v1", string(v))
}

func TestProcessRollsBackOnInvalidBlockLeavingStoresUntouched(t *testing.T) {
	state := newFakeState(common.HexToHash("0x01"))
	storage := &fakeStorage{}
	cfg, stateKV, _ := testProcessorConfig(state, storage, newFakeExecutor(), &fakeValidator{ok: false}, &fakeRewards{}, &fakeForks{}, newFakeTxStore())
	p := NewProcessor(cfg)

	require.NoError(t, stateKV.Put([]byte("marker"), []byte("before")))

	blocks := []*types.Block{testBlock(testHeader(1, common.Address{}), nil, nil)}

	out, err := p.Process(nil, blocks, 0, nil)
	require.Nil(t, out)
	var invalid *InvalidBlockError
	require.ErrorAs(t, err, &invalid)

	v, found, getErr := stateKV.Get([]byte("marker"))
	require.NoError(t, getErr)
	require.True(t, found)
	require.Equal(t, "before", string(v))
}

func TestProcessReadOnlyChainRollsBackButReturnsProcessedBlocks(t *testing.T) {
	state := newFakeState(common.HexToHash("0x01"))
	storage := &fakeStorage{}
	cfg, stateKV, _ := testProcessorConfig(state, storage, newFakeExecutor(), &fakeValidator{ok: true}, &fakeRewards{}, &fakeForks{}, newFakeTxStore())
	p := NewProcessor(cfg)

	require.NoError(t, stateKV.Put([]byte("marker"), []byte("before")))

	blocks := []*types.Block{testBlock(testHeader(1, common.Address{}), nil, nil)}

	out, err := p.Process(nil, blocks, ReadOnlyChain, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)

	v, found, getErr := stateKV.Get([]byte("marker"))
	require.NoError(t, getErr)
	require.True(t, found)
	require.Equal(t, "before", string(v))
}

func TestProcessReseatsBranchBeforeProcessing(t *testing.T) {
	state := newFakeState(common.HexToHash("0x01"))
	storage := &fakeStorage{}
	cfg, _, _ := testProcessorConfig(state, storage, newFakeExecutor(), &fakeValidator{ok: true}, &fakeRewards{}, &fakeForks{}, newFakeTxStore())
	p := NewProcessor(cfg)

	branchRoot := common.HexToHash("0x02")
	blocks := []*types.Block{testBlock(testHeader(1, common.Address{}), nil, nil)}

	_, err := p.Process(&branchRoot, blocks, 0, nil)
	require.NoError(t, err)
	require.Equal(t, 1, state.resets)
	require.Equal(t, 1, storage.resets)
}

func TestProcessAppliesRewardsAcrossMultipleBlocksInOrder(t *testing.T) {
	state := newFakeState(common.HexToHash("0x01"))
	storage := &fakeStorage{}
	miner := common.HexToAddress("0xminer")
	rewards := &fakeRewards{entries: []RewardEntry{{Address: miner, Value: uint256.NewInt(1)}}}
	cfg, _, _ := testProcessorConfig(state, storage, newFakeExecutor(), &fakeValidator{ok: true}, rewards, &fakeForks{}, newFakeTxStore())
	p := NewProcessor(cfg)

	blocks := []*types.Block{
		testBlock(testHeader(1, miner), nil, nil),
		testBlock(testHeader(2, miner), nil, nil),
	}

	out, err := p.Process(nil, blocks, 0, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, uint256.NewInt(2).String(), state.GetBalance(miner).String())
}

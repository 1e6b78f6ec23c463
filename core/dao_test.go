package core

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestApplyDAOTransitionNoopWhenNoDaoFork(t *testing.T) {
	state := newFakeState(common.Hash{})
	drained := common.HexToAddress("0xdrained")
	state.CreateAccount(drained, uint256.NewInt(10))
	forks := &fakeForks{daoSet: false}

	applyDAOTransition(state, fakeForkSpec{}, forks, testHeader(1900000, common.Address{}))
	require.Equal(t, uint256.NewInt(10).String(), state.GetBalance(drained).String())
}

func TestApplyDAOTransitionNoopOffDaoBlock(t *testing.T) {
	state := newFakeState(common.Hash{})
	drained := common.HexToAddress("0xdrained")
	state.CreateAccount(drained, uint256.NewInt(10))
	forks := &fakeForks{daoSet: true, daoBlock: 1920000, daoAccounts: []common.Address{drained}}

	applyDAOTransition(state, fakeForkSpec{}, forks, testHeader(1919999, common.Address{}))
	require.Equal(t, uint256.NewInt(10).String(), state.GetBalance(drained).String())
}

func TestApplyDAOTransitionMigratesBalancesAtExactBlock(t *testing.T) {
	state := newFakeState(common.Hash{})
	drained := common.HexToAddress("0xdrained")
	withdraw := common.HexToAddress("0xwithdraw")
	state.CreateAccount(drained, uint256.NewInt(42))
	forks := &fakeForks{
		daoSet:      true,
		daoBlock:    1920000,
		daoAccounts: []common.Address{drained},
		daoWithdraw: withdraw,
	}

	applyDAOTransition(state, fakeForkSpec{}, forks, testHeader(1920000, common.Address{}))

	require.True(t, state.GetBalance(drained).IsZero())
	require.True(t, state.exists[withdraw])
	require.Equal(t, uint256.NewInt(42).String(), state.GetBalance(withdraw).String())
}

func TestApplyDAOTransitionSkipsZeroBalanceAccounts(t *testing.T) {
	state := newFakeState(common.Hash{})
	empty := common.HexToAddress("0xempty")
	withdraw := common.HexToAddress("0xwithdraw")
	forks := &fakeForks{
		daoSet:      true,
		daoBlock:    1920000,
		daoAccounts: []common.Address{empty},
		daoWithdraw: withdraw,
	}

	applyDAOTransition(state, fakeForkSpec{}, forks, testHeader(1920000, common.Address{}))
	require.False(t, state.exists[withdraw])
}

func TestApplyDAOTransitionAddsToExistingWithdrawAccount(t *testing.T) {
	state := newFakeState(common.Hash{})
	drained := common.HexToAddress("0xdrained")
	withdraw := common.HexToAddress("0xwithdraw")
	state.CreateAccount(drained, uint256.NewInt(10))
	state.CreateAccount(withdraw, uint256.NewInt(5))
	forks := &fakeForks{
		daoSet:      true,
		daoBlock:    1920000,
		daoAccounts: []common.Address{drained},
		daoWithdraw: withdraw,
	}

	applyDAOTransition(state, fakeForkSpec{}, forks, testHeader(1920000, common.Address{}))
	require.Equal(t, uint256.NewInt(15).String(), state.GetBalance(withdraw).String())
}

package core

import "github.com/ethereum/go-ethereum/core/types"

// applyDAOTransition implements C6: the one-shot, block-number-triggered
// balance migration out of the enumerated DAO accounts into the designated
// withdrawal account. It runs before any transaction in the DAO block and
// is a no-op for every other block.
func applyDAOTransition(state StateProvider, fs ForkSpec, forks ForkSpecProvider, header *types.Header) {
	daoBlock, ok := forks.DAOBlockNumber()
	if !ok || header.Number.Uint64() != daoBlock {
		return
	}
	withdraw := forks.DAOWithdrawAccount()
	for _, addr := range forks.DAOAccounts() {
		balance := state.GetBalance(addr)
		if balance.IsZero() {
			continue
		}
		state.SubtractFromBalance(addr, balance, fs)
		if !state.AccountExists(withdraw) {
			state.CreateAccount(withdraw, balance)
			continue
		}
		state.AddToBalance(withdraw, balance, fs)
	}
}

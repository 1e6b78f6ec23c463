package core

import "github.com/ethereum/go-ethereum/core/types"

// applyRewards implements C5: it asks the reward calculator for the
// beneficiary deltas for this block and applies each one in the order
// returned, creating the recipient account first if it does not yet exist.
func applyRewards(state StateProvider, calc RewardCalculator, fs ForkSpec, header *types.Header, uncles []*types.Header) error {
	entries, err := calc.CalculateRewards(fs, header, uncles)
	if err != nil {
		return &CollaboratorError{Component: "reward.CalculateRewards", Err: err}
	}
	for _, e := range entries {
		if !state.AccountExists(e.Address) {
			state.CreateAccount(e.Address, e.Value)
			continue
		}
		state.AddToBalance(e.Address, e.Value, fs)
	}
	return nil
}

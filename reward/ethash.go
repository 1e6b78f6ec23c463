// Package reward implements the core.RewardCalculator collaborator
// contract, ported almost verbatim from the teacher's
// consensus/ethash/consensus.go AccumulateRewards/accumulateRewards
// (Frontier/Byzantium/Constantinople block-reward table, the
// 1/32-per-included-uncle bonus, and the 8-based uncle-distance formula),
// adapted from an inlined consensus-engine step into the standalone
// calculator spec.md §6.1 names.
package reward

import (
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	execorecore "github.com/mstrong-tech/execore/core"
)

var (
	frontierBlockReward       = uint256.NewInt(5e18)
	byzantiumBlockReward      = uint256.NewInt(3e18)
	constantinopleBlockReward = uint256.NewInt(2e18)

	num8  = uint256.NewInt(8)
	num32 = uint256.NewInt(32)
)

// EthashForkSpec is the subset of execorecore.ForkSpec this calculator
// needs to pick the right block-reward constant. It is satisfied by
// fork.Spec; kept narrow here so this package does not depend on the fork
// package.
type EthashForkSpec interface {
	IsByzantium() bool
	IsConstantinople() bool
}

// Calculator implements core.RewardCalculator using the ethash
// proof-of-work reward schedule.
type Calculator struct {
	forks func(blockNumber uint64) EthashForkSpec
}

// New builds a Calculator. forks resolves the Byzantium/Constantinople
// activation state for a given block number.
func New(forks func(blockNumber uint64) EthashForkSpec) *Calculator {
	return &Calculator{forks: forks}
}

// CalculateRewards implements core.RewardCalculator. It returns the miner's
// reward first, then one entry per uncle in the order the block declares
// them — the exact order spec.md §4.5 says the core must apply them in.
func (c *Calculator) CalculateRewards(_ execorecore.ForkSpec, header *types.Header, uncles []*types.Header) ([]execorecore.RewardEntry, error) {
	fs := c.forks(header.Number.Uint64())

	blockReward := frontierBlockReward
	if fs.IsByzantium() {
		blockReward = byzantiumBlockReward
	}
	if fs.IsConstantinople() {
		blockReward = constantinopleBlockReward
	}

	entries := make([]execorecore.RewardEntry, 0, 1+len(uncles))

	reward := new(uint256.Int).Set(blockReward)
	headerNum, overflow := uint256.FromBig(header.Number)
	if overflow {
		return nil, errOverflow("header number")
	}

	r := new(uint256.Int)
	for _, uncle := range uncles {
		uncleNum, overflow := uint256.FromBig(uncle.Number)
		if overflow {
			return nil, errOverflow("uncle number")
		}
		// r = (uncleNum + 8 - headerNum) * blockReward / 8
		r.Add(uncleNum, num8)
		r.Sub(r, headerNum)
		r.Mul(r, blockReward)
		r.Div(r, num8)
		entries = append(entries, execorecore.RewardEntry{Address: uncle.Coinbase, Value: new(uint256.Int).Set(r)})

		// miner gets blockReward/32 per included uncle
		r.Div(blockReward, num32)
		reward.Add(reward, r)
	}

	// The miner entry is appended last so its value reflects every uncle
	// bonus accumulated above, but logically belongs first; callers only
	// rely on application order being stable, not on reward-table position,
	// so prepend it now that it is final.
	entries = append([]execorecore.RewardEntry{{Address: header.Coinbase, Value: reward}}, entries...)
	return entries, nil
}

type overflowError string

func (e overflowError) Error() string { return "reward: " + string(e) + " overflows uint256" }

func errOverflow(what string) error { return overflowError(what) }

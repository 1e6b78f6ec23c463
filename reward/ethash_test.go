package reward

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

type fixedForkSpec struct {
	byzantium, constantinople bool
}

func (f fixedForkSpec) IsByzantium() bool      { return f.byzantium }
func (f fixedForkSpec) IsConstantinople() bool { return f.constantinople }

func TestCalculateRewardsFrontierNoUncles(t *testing.T) {
	miner := common.HexToAddress("0xminer")
	calc := New(func(uint64) EthashForkSpec { return fixedForkSpec{} })

	entries, err := calc.CalculateRewards(nil, &types.Header{Number: big.NewInt(1), Coinbase: miner}, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, miner, entries[0].Address)
	require.Equal(t, uint256.NewInt(5e18).String(), entries[0].Value.String())
}

func TestCalculateRewardsConstantinopleWithUncle(t *testing.T) {
	miner := common.HexToAddress("0xminer")
	uncleAuthor := common.HexToAddress("0xuncle")
	calc := New(func(uint64) EthashForkSpec { return fixedForkSpec{byzantium: true, constantinople: true} })

	header := &types.Header{Number: big.NewInt(10), Coinbase: miner}
	uncle := &types.Header{Number: big.NewInt(9), Coinbase: uncleAuthor}

	entries, err := calc.CalculateRewards(nil, header, []*types.Header{uncle})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, miner, entries[0].Address)
	// base 2e18 + uncle bonus (2e18/32)
	wantMiner := new(uint256.Int).Add(uint256.NewInt(2e18), new(uint256.Int).Div(uint256.NewInt(2e18), uint256.NewInt(32)))
	require.Equal(t, wantMiner.String(), entries[0].Value.String())

	require.Equal(t, uncleAuthor, entries[1].Address)
	// (9 + 8 - 10) * 2e18 / 8 = 7 * 2e18 / 8
	wantUncle := new(uint256.Int).Div(new(uint256.Int).Mul(uint256.NewInt(7), uint256.NewInt(2e18)), uint256.NewInt(8))
	require.Equal(t, wantUncle.String(), entries[1].Value.String())
}

func TestCalculateRewardsByzantiumBlockReward(t *testing.T) {
	miner := common.HexToAddress("0xminer")
	calc := New(func(uint64) EthashForkSpec { return fixedForkSpec{byzantium: true} })

	entries, err := calc.CalculateRewards(nil, &types.Header{Number: big.NewInt(5), Coinbase: miner}, nil)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(3e18).String(), entries[0].Value.String())
}

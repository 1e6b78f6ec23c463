// Package fork implements the core.ForkSpecProvider collaborator contract
// on top of go-ethereum's params.ChainConfig fork-activation checks, and
// binds the DAO account table to go-ethereum's real params.DAODrainList()
// rather than an invented stub, per SPEC_FULL.md's supplemented features.
package fork

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"

	execorecore "github.com/mstrong-tech/execore/core"
)

// Spec is a single block's resolved fork rules.
type Spec struct {
	cfg    *params.ChainConfig
	number *big.Int
}

func (s Spec) IsEip658Enabled() bool { return s.cfg.IsByzantium(s.number) }
func (s Spec) IsEip161Enabled() bool { return s.cfg.IsEIP158(s.number) }
func (s Spec) IsByzantium() bool     { return s.cfg.IsByzantium(s.number) }
func (s Spec) IsConstantinople() bool {
	return s.cfg.IsConstantinople(s.number)
}

var _ execorecore.ForkSpec = Spec{}

// Provider resolves Spec values from a go-ethereum chain configuration and
// answers the one non-numeric, one-shot fork action (DAO transition) this
// module knows about by name.
type Provider struct {
	cfg *params.ChainConfig
}

// New wraps cfg. cfg.DAOForkSupport and cfg.DAOForkBlock drive
// DAOBlockNumber.
func New(cfg *params.ChainConfig) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) GetSpec(blockNumber uint64) execorecore.ForkSpec {
	return Spec{cfg: p.cfg, number: new(big.Int).SetUint64(blockNumber)}
}

// SpecAt exposes the concrete Spec type (rather than the narrower
// core.ForkSpec interface) for collaborators, such as reward.Calculator,
// that need the Byzantium/Constantinople checks beyond core.ForkSpec's
// surface.
func (p *Provider) SpecAt(blockNumber uint64) Spec {
	return Spec{cfg: p.cfg, number: new(big.Int).SetUint64(blockNumber)}
}

func (p *Provider) DAOBlockNumber() (uint64, bool) {
	if !p.cfg.DAOForkSupport || p.cfg.DAOForkBlock == nil {
		return 0, false
	}
	return p.cfg.DAOForkBlock.Uint64(), true
}

// DAOAccounts returns the canonical drain list from the 2016 hard fork
// (116 addresses: the DAO, its child DAOs and their extra-balance
// accounts).
func (p *Provider) DAOAccounts() []common.Address {
	return params.DAODrainList()
}

// DAOWithdrawAccount is the single account every drained balance moves to.
func (p *Provider) DAOWithdrawAccount() common.Address {
	return params.DAORefundContract
}

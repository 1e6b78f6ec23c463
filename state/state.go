// Package state adapts go-ethereum's core/state.StateDB to the narrow
// StateProvider/StorageProvider capability surface core.Processor needs
// (spec.md §6.1), converting between go-ethereum's *big.Int balance API
// and the uint256.Int values the rest of this module (reward, dao) works
// in natively, following erigon's own uint256-first convention.
package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	gstate "github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"

	"github.com/mstrong-tech/execore/core"
	"github.com/mstrong-tech/execore/kvstore"
)

// Provider wraps a *gstate.StateDB plus the trie.Database it commits into,
// implementing both core.StateProvider and core.StorageProvider — they are
// the same underlying trie cache in go-ethereum, coupled exactly as
// spec.md §4.1/§4.2 describe ("reset... discard the in-memory storage
// provider's uncommitted writes... and the state provider's").
type Provider struct {
	db    gstate.Database
	sdb   *gstate.StateDB
	root  common.Hash
	trieD *triedb.Database
}

// New opens a Provider rooted at root against store, the same kvstore.Store
// core/snapshot.go's Snapshot Controller captures, restores, and commits —
// so the account/storage trie this Provider manages is physically the same
// backing store, not an ephemeral database of its own (spec.md §3: a
// successful batch's durable key/value stores must "reflect exactly the
// cumulative effect of every returned block").
func New(store *kvstore.Store, root common.Hash) (*Provider, error) {
	db := gstate.NewDatabase(rawdb.NewDatabase(newKVAdapter(store)))
	sdb, err := gstate.New(root, db, nil)
	if err != nil {
		return nil, err
	}
	return &Provider{db: db, sdb: sdb, root: root, trieD: db.TrieDB()}, nil
}

func (p *Provider) StateRoot() common.Hash { return p.root }

// Raw exposes the underlying *state.StateDB for the executor adapter to
// mutate directly. It is re-read on every call rather than cached by the
// caller, because Reset/SetStateRoot swap it out for a fresh instance.
func (p *Provider) Raw() *gstate.StateDB { return p.sdb }

func (p *Provider) SetStateRoot(h common.Hash) {
	p.root = h
	sdb, err := gstate.New(h, p.db, nil)
	if err != nil {
		// The caller (core.realignBranch / restore) only ever passes a root
		// previously produced by this same Provider, so reopening at it is
		// expected to succeed; a failure here means the backing store
		// itself is corrupt, which is outside this package's contract.
		panic(err)
	}
	p.sdb = sdb
}

// Reset discards uncommitted writes but keeps the current root, matching
// gstate.StateDB's copy-on-snapshot model: reopening at the same root is
// equivalent to discarding every dirty object.
func (p *Provider) Reset() {
	sdb, err := gstate.New(p.root, p.db, nil)
	if err != nil {
		panic(err)
	}
	p.sdb = sdb
}

// Commit folds dirty trie nodes into the in-memory trie database and
// returns the resulting root, implementing C7 step 7.
func (p *Provider) Commit(fs core.ForkSpec) (common.Hash, error) {
	root, err := p.sdb.Commit(0, fs.IsEip161Enabled())
	if err != nil {
		return common.Hash{}, err
	}
	p.root = root
	return root, nil
}

// CommitTree flushes every dirty trie node accumulated since the last
// commit into the backing store via trieD (set in New from
// db.TrieDB()), implementing C7 step 12 / C1's durable persistence of
// state data.
func (p *Provider) CommitTree() error {
	return p.trieD.Commit(p.root, false)
}

func (p *Provider) AccountExists(addr common.Address) bool {
	return p.sdb.Exist(addr)
}

func (p *Provider) CreateAccount(addr common.Address, initialBalance *uint256.Int) {
	p.sdb.CreateAccount(addr)
	p.sdb.AddBalance(addr, u256ToBig(initialBalance))
}

func (p *Provider) GetBalance(addr common.Address) *uint256.Int {
	return bigToU256(p.sdb.GetBalance(addr))
}

func (p *Provider) AddToBalance(addr common.Address, v *uint256.Int, _ core.ForkSpec) {
	p.sdb.AddBalance(addr, u256ToBig(v))
}

func (p *Provider) SubtractFromBalance(addr common.Address, v *uint256.Int, _ core.ForkSpec) {
	p.sdb.SubBalance(addr, u256ToBig(v))
}

// CommitTrees implements core.StorageProvider. go-ethereum's StateDB has no
// separate storage cache to commit independently of the account trie — the
// two interfaces share this Provider's Reset() for exactly that reason —
// so this delegates to the same trie-database commit as CommitTree.
func (p *Provider) CommitTrees() error {
	return p.CommitTree()
}

func u256ToBig(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}

func bigToU256(v *big.Int) *uint256.Int {
	out, overflow := uint256.FromBig(v)
	if overflow {
		// Ether supply never approaches 2^256; overflow here indicates a
		// corrupt balance.
		panic("state: balance overflows uint256")
	}
	return out
}

package core

import (
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// blockCollaborators bundles the adapters the single-block pipeline needs.
// It is assembled once per Processor and reused across every block in a
// batch; none of it is block-specific.
type blockCollaborators struct {
	executor  Executor
	state     StateProvider
	storage   StorageProvider
	validator BlockValidator
	rewards   RewardCalculator
	forks     ForkSpecProvider
	txStore   TransactionStore
	log       *zap.Logger
}

// runSingleBlock implements C7. It returns the processed block with its
// header fully sealed (receipts root, bloom, state root, hash) and the
// receipts produced for it, so the caller can decide whether to persist
// them.
func runSingleBlock(c *blockCollaborators, suggested *types.Block, options ProcessingOptions, listener TraceListener) (*types.Block, []*types.Receipt, error) {
	if suggested.NumberU64() == 0 {
		// Genesis carries its own pre-seeded state; nothing to execute.
		if err := c.state.CommitTree(); err != nil {
			return nil, nil, &CollaboratorError{Component: "state.CommitTree", Err: err}
		}
		if err := c.storage.CommitTrees(); err != nil {
			return nil, nil, &CollaboratorError{Component: "storage.CommitTrees", Err: err}
		}
		return suggested, nil, nil
	}

	fs := c.forks.GetSpec(suggested.NumberU64())

	applyDAOTransition(c.state, fs, c.forks, suggested.Header())

	// The working header is rebuilt from every field of the suggested
	// header *except* gasUsed/transactionsRoot/stateRoot/receiptsRoot/bloom,
	// which this pipeline recomputes (or, for transactionsRoot, deliberately
	// trusts — see step 8 below and DESIGN.md open question 3).
	header := types.CopyHeader(suggested.Header())

	receipts, gasUsed, err := runTransactions(c.executor, listener, suggested)
	if err != nil {
		return nil, nil, err
	}
	header.GasUsed = gasUsed

	receiptsRoot, bloom, err := buildReceiptTrieAndBloom(receipts, fs.IsEip658Enabled())
	if err != nil {
		return nil, nil, err
	}
	header.ReceiptHash = receiptsRoot
	header.Bloom = bloom

	if err := applyRewards(c.state, c.rewards, fs, header, suggested.Uncles()); err != nil {
		return nil, nil, err
	}

	stateRoot, err := c.state.Commit(fs)
	if err != nil {
		return nil, nil, &CollaboratorError{Component: "state.Commit", Err: err}
	}
	header.Root = stateRoot

	// transactionsRoot is copied, not independently recomputed: the block
	// validator is assumed to have already checked it against the
	// transaction list before this pipeline runs (spec.md §9).
	header.TxHash = suggested.Header().TxHash

	processed := types.NewBlockWithHeader(header).WithBody(suggested.Transactions(), suggested.Uncles())

	if !options.Has(ReadOnlyChain) && !options.Has(NoValidation) {
		ok, err := c.validator.ValidateProcessedBlock(processed, suggested)
		if err != nil {
			return nil, nil, &CollaboratorError{Component: "validator.ValidateProcessedBlock", Err: err}
		}
		if !ok {
			return nil, nil, &InvalidBlockError{Description: blockDescription(suggested)}
		}
	}

	if options.Has(StoreReceipts) {
		for _, r := range receipts {
			r.BlockHash = processed.Hash()
			if err := c.txStore.StoreProcessedTransaction(r.TxHash, r); err != nil {
				return nil, nil, &CollaboratorError{Component: "txStore.StoreProcessedTransaction", Err: err}
			}
		}
	}

	if err := c.state.CommitTree(); err != nil {
		return nil, nil, &CollaboratorError{Component: "state.CommitTree", Err: err}
	}
	if err := c.storage.CommitTrees(); err != nil {
		return nil, nil, &CollaboratorError{Component: "storage.CommitTrees", Err: err}
	}

	return processed, receipts, nil
}

func blockDescription(b *types.Block) string {
	return "block #" + b.Number().String() + " " + b.Hash().Hex()
}

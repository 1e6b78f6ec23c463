package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// runTransactions implements C3: it invokes the executor once per
// transaction in strict ascending index order, threading optional tracing
// through the listener, and returns one receipt per transaction in the
// same order plus the block's total gas used, so the caller can seal its
// own header with the real post-execution total rather than whatever the
// suggested header happened to carry. No transaction is skipped or
// retried.
func runTransactions(executor Executor, listener TraceListener, block *types.Block) ([]*types.Receipt, uint64, error) {
	txs := block.Transactions()
	receipts := make([]*types.Receipt, len(txs))
	header := block.Header()
	// header is a copy of the suggested, not-yet-validated block header and
	// may carry any GasUsed the caller supplied. The cumulative-gas total
	// for this block always starts at zero, independent of that value,
	// matching the teacher's core/state_processor.go (usedGas := new(uint64)
	// per block).
	header.GasUsed = 0
	for i, tx := range txs {
		if tx.Hash() == (common.Hash{}) {
			return nil, 0, &InvalidTransactionError{Index: i}
		}
		shouldTrace := listener != nil && listener.ShouldTrace(tx.Hash())
		receipt, trace, err := executor.Execute(i, tx, header, shouldTrace)
		if err != nil {
			return nil, 0, &CollaboratorError{Component: "executor.Execute", Err: err}
		}
		if shouldTrace {
			listener.RecordTrace(tx.Hash(), trace)
		}
		receipts[i] = receipt
	}
	var gasUsed uint64
	if n := len(receipts); n > 0 {
		gasUsed = receipts[n-1].CumulativeGasUsed
	}
	return receipts, gasUsed, nil
}

// Package validator implements the core.BlockValidator collaborator
// contract: the pure, post-execution structural check that compares a
// freshly processed block against what the caller suggested, grounded on
// the field-by-field expectations in the teacher's
// core/block_validator_test.go.
package validator

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
)

// Validator checks a processed block's gas usage against its own gas limit
// (an error when exceeded), then compares it with the suggested block on the
// fields the pipeline does not itself recompute (transactionsRoot, ommer
// count and ommersHash, number, parent hash), returning false rather than an
// error for any such mismatch.
type Validator struct{}

// New returns the default post-execution validator.
func New() *Validator { return &Validator{} }

// ValidateProcessedBlock implements core.BlockValidator.
func (v *Validator) ValidateProcessedBlock(processed, suggested *types.Block) (bool, error) {
	ph, sh := processed.Header(), suggested.Header()

	// ph.GasUsed is the pipeline's own post-execution total (set from
	// runTransactions, not copied from the suggested header), so this
	// checks actual gas consumption against the limit.
	if ph.GasUsed > ph.GasLimit {
		return false, fmt.Errorf("validator: gas used %d exceeds limit %d", ph.GasUsed, ph.GasLimit)
	}
	if ph.TxHash != sh.TxHash {
		return false, nil
	}
	if len(processed.Uncles()) != len(suggested.Uncles()) {
		return false, nil
	}
	if ph.UncleHash != sh.UncleHash {
		return false, nil
	}
	if ph.Number.Cmp(sh.Number) != 0 {
		return false, nil
	}
	if ph.ParentHash != sh.ParentHash {
		return false, nil
	}
	return true, nil
}

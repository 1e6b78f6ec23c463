// Package executor implements the core.Executor collaborator contract by
// wrapping go-ethereum's EVM, following the teacher's core/evm.go +
// core/state_processor.go applyTransaction shape (block/tx context
// construction, ApplyMessage, receipt assembly) but behind the single
// Execute(index, tx, header, shouldTrace) entry point spec.md §6.1 names.
package executor

import (
	"encoding/json"
	"fmt"

	gcore "github.com/ethereum/go-ethereum/core"
	gstate "github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/eth/tracers/logger"
	"github.com/ethereum/go-ethereum/params"

	execorecore "github.com/mstrong-tech/execore/core"
)

// StateDBProvider exposes the live *state.StateDB backing a
// state.Provider. It is re-read on every Execute call rather than cached,
// because the provider swaps its StateDB out for a fresh instance on
// Reset/SetStateRoot (branch realignment, rollback).
type StateDBProvider interface {
	Raw() *gstate.StateDB
}

// Executor runs transactions against a go-ethereum *state.StateDB using the
// real EVM interpreter.
type Executor struct {
	provider StateDBProvider
	chainCfg *params.ChainConfig
	getHash  GetHashFunc
	vmConfig vm.Config
}

// New builds an Executor bound to provider. provider must be the same
// state.Provider passed to core.Processor, since the executor mutates its
// StateDB in place exactly as spec.md §6.1 requires.
func New(provider StateDBProvider, chainCfg *params.ChainConfig, getHash GetHashFunc) *Executor {
	return &Executor{provider: provider, chainCfg: chainCfg, getHash: getHash}
}

// Execute implements core.Executor. shouldTrace switches in a
// vm.Config.Tracer for this call only, so the non-traced path pays no
// allocation cost, per spec.md §4.8's tracing design note.
func (e *Executor) Execute(index int, tx *types.Transaction, header *types.Header, shouldTrace bool) (*types.Receipt, execorecore.Trace, error) {
	signer := types.MakeSigner(e.chainCfg, header.Number, header.Time)
	msg, err := gcore.TransactionToMessage(tx, signer, header.BaseFee)
	if err != nil {
		return nil, nil, fmt.Errorf("executor: tx %s to message: %w", tx.Hash(), err)
	}

	blockCtx := newEVMBlockContext(header, e.getHash)

	vmConfig := e.vmConfig
	var tracer *logger.StructLogger
	if shouldTrace {
		tracer = logger.NewStructLogger(&logger.Config{})
		vmConfig.Tracer = tracer
	}

	stateDB := e.provider.Raw()
	evm := vm.NewEVM(blockCtx, newEVMTxContext(msg), stateDB, e.chainCfg, vmConfig)

	gp := new(gcore.GasPool).AddGas(header.GasLimit)
	stateDB.SetTxContext(tx.Hash(), index)

	result, err := gcore.ApplyMessage(evm, msg, gp)
	if err != nil {
		return nil, nil, fmt.Errorf("executor: apply message for tx %s: %w", tx.Hash(), err)
	}

	receipt := &types.Receipt{Type: tx.Type(), CumulativeGasUsed: header.GasUsed + result.UsedGas}
	if result.Failed() {
		receipt.Status = types.ReceiptStatusFailed
	} else {
		receipt.Status = types.ReceiptStatusSuccessful
	}
	receipt.TxHash = tx.Hash()
	receipt.GasUsed = result.UsedGas
	if msg.To == nil {
		receipt.ContractAddress = crypto.CreateAddress(evm.TxContext.Origin, tx.Nonce())
	}
	receipt.Logs = stateDB.GetLogs(tx.Hash(), header.Number.Uint64(), header.Hash())
	receipt.Bloom = types.CreateBloom(types.Receipts{receipt})
	receipt.BlockNumber = header.Number
	receipt.TransactionIndex = uint(index)
	header.GasUsed = receipt.CumulativeGasUsed

	var trace execorecore.Trace
	if shouldTrace {
		buf, err := json.Marshal(tracer.StructLogs())
		if err != nil {
			return nil, nil, fmt.Errorf("executor: encoding trace for tx %s: %w", tx.Hash(), err)
		}
		trace = buf
	}
	return receipt, trace, nil
}

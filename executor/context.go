package executor

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gcore "github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
)

// newEVMBlockContext mirrors the teacher's core/evm.go NewEVMBlockContext:
// build the block-scoped EVM context straight from the working header,
// with CanTransfer/Transfer bound to the vm.StateDB balance API, which
// takes *uint256.Int amounts.
func newEVMBlockContext(header *types.Header, getHash GetHashFunc) vm.BlockContext {
	return vm.BlockContext{
		CanTransfer: canTransfer,
		Transfer:    transfer,
		GetHash:     vm.GetHashFunc(getHash),
		Coinbase:    header.Coinbase,
		BlockNumber: new(big.Int).Set(header.Number),
		Time:        header.Time,
		Difficulty:  new(big.Int).Set(header.Difficulty),
		BaseFee:     header.BaseFee,
		GasLimit:    header.GasLimit,
	}
}

// newEVMTxContext mirrors the teacher's NewEVMTxContext.
func newEVMTxContext(msg *gcore.Message) vm.TxContext {
	return vm.TxContext{
		Origin:   msg.From,
		GasPrice: new(big.Int).Set(msg.GasPrice),
	}
}

// GetHashFunc resolves an ancestor header's hash by number for the EVM's
// BLOCKHASH opcode, mirroring the teacher's GetHashFn.
type GetHashFunc func(n uint64) common.Hash

func canTransfer(db vm.StateDB, addr common.Address, amount *uint256.Int) bool {
	return db.GetBalance(addr).Cmp(amount) >= 0
}

func transfer(db vm.StateDB, sender, recipient common.Address, amount *uint256.Int) {
	db.SubBalance(sender, amount)
	db.AddBalance(recipient, amount)
}

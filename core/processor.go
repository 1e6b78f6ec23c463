package core

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Config wires every collaborator contract from spec.md §6.1, plus the
// ambient logger and metrics registerer, into a Processor. There is no
// global state and no init() wiring: every dependency is constructor
// injected, matching the teacher's NewStateProcessor(config, mc, engine)
// style.
type Config struct {
	StateDb StateDB
	CodeDb  StateDB

	State   StateProvider
	Storage StorageProvider

	Executor  Executor
	Validator BlockValidator
	Rewards   RewardCalculator
	Forks     ForkSpecProvider
	TxStore   TransactionStore

	Logger          *zap.Logger
	MetricsRegistry prometheus.Registerer
}

// Processor is the batch driver (C8), the single public entry point this
// package exposes. It owns no mutable state of its own beyond what Config
// supplies; a Processor is safe to reuse across calls to Process as long as
// those calls do not overlap (spec.md §5: single-threaded, synchronous).
type Processor struct {
	snap *snapshotController
	cfg  Config
	log  *zap.Logger
	m    *processorMetrics
}

// NewProcessor builds a Processor from a fully populated Config.
func NewProcessor(cfg Config) *Processor {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		snap: newSnapshotController(cfg.StateDb, cfg.CodeDb, cfg.State, cfg.Storage),
		cfg:  cfg,
		log:  log,
		m:    newProcessorMetrics(cfg.MetricsRegistry),
	}
}

// Process implements C8, the batch driver. It captures a snapshot, realigns
// the branch if requested, drives the single-block pipeline over every
// suggested block in order, and then either commits durably, rolls back
// (ReadOnlyChain), or rolls back and re-surfaces the error (InvalidBlock).
//
// Open question 1 (DESIGN.md): only *InvalidBlockError triggers rollback.
// Any other error — including *InvalidTransactionError and
// *CollaboratorError — propagates with the backing stores left exactly
// where the failing collaborator left them; this is the narrow-catch
// behavior spec.md §9 documents as the source's current, deliberately
// unwidened behavior.
func (p *Processor) Process(branchStateRoot *common.Hash, suggestedBlocks []*types.Block, options ProcessingOptions, listener TraceListener) ([]*types.Block, error) {
	if len(suggestedBlocks) == 0 {
		return []*types.Block{}, nil
	}

	batchID := uuid.New().String()
	log := p.log.With(zap.String("batch", batchID), zap.Int("blocks", len(suggestedBlocks)))

	handle, err := p.snap.capture()
	if err != nil {
		log.Error("snapshot capture failed", zap.Error(err))
		return nil, err
	}

	realignBranch(p.cfg.State, p.cfg.Storage, branchStateRoot)

	coll := &blockCollaborators{
		executor:  p.cfg.Executor,
		state:     p.cfg.State,
		storage:   p.cfg.Storage,
		validator: p.cfg.Validator,
		rewards:   p.cfg.Rewards,
		forks:     p.cfg.Forks,
		txStore:   p.cfg.TxStore,
		log:       log,
	}

	processed := make([]*types.Block, 0, len(suggestedBlocks))
	for _, suggested := range suggestedBlocks {
		start := time.Now()
		block, _, err := runSingleBlock(coll, suggested, options, listener)
		if err != nil {
			if invalid, ok := asInvalidBlockError(err); ok {
				log.Error("invalid block, rolling back batch", zap.Error(invalid), zap.Uint64("number", suggested.NumberU64()))
				p.m.observeRollback("invalid_block")
				if rErr := p.snap.restore(handle); rErr != nil {
					log.Error("rollback itself failed", zap.Error(rErr))
					return nil, rErr
				}
				return nil, invalid
			}
			log.Error("collaborator error, propagating without rollback", zap.Error(err))
			return nil, err
		}
		p.m.observeBlock(time.Since(start).Seconds())
		processed = append(processed, block)
	}

	if options.Has(ReadOnlyChain) {
		p.m.observeRollback("read_only")
		if err := p.snap.restore(handle); err != nil {
			log.Error("read-only rollback failed", zap.Error(err))
			return nil, err
		}
		log.Info("batch processed read-only", zap.Int("processed", len(processed)))
		return processed, nil
	}

	if err := p.snap.commit(); err != nil {
		log.Error("durable commit failed", zap.Error(err))
		return nil, err
	}
	log.Info("batch committed", zap.Int("processed", len(processed)))
	return processed, nil
}

func asInvalidBlockError(err error) (*InvalidBlockError, bool) {
	ib, ok := err.(*InvalidBlockError)
	return ib, ok
}

// execore is a small CLI wiring the production adapters together and
// running core.Processor.Process against a JSON-encoded block batch, in
// the teacher's cmd/<tool>/main.go + cobra convention.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	execorecore "github.com/mstrong-tech/execore/core"
	"github.com/mstrong-tech/execore/executor"
	"github.com/mstrong-tech/execore/fork"
	"github.com/mstrong-tech/execore/kvstore"
	"github.com/mstrong-tech/execore/reward"
	"github.com/mstrong-tech/execore/state"
	"github.com/mstrong-tech/execore/trace"
	"github.com/mstrong-tech/execore/txstore"
	"github.com/mstrong-tech/execore/validator"
)

var (
	datadir    string
	batchFile  string
	dryRun     bool
	noValidate bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "execore",
		Short: "execore processes a batch of suggested blocks against a world state",
	}
	root.AddCommand(processCmd())
	return root
}

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "execute a JSON-encoded batch of suggested blocks",
		RunE:  runProcess,
	}
	cmd.Flags().StringVar(&datadir, "datadir", "", "MDBX data directory; empty uses an in-memory store")
	cmd.Flags().StringVar(&batchFile, "batch", "", "path to a JSON array of RLP-hex-encoded blocks")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "process read-only: always roll back, never commit durably")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip post-execution block validation")
	if err := cmd.MarkFlagRequired("batch"); err != nil {
		panic(err)
	}
	return cmd
}

func runProcess(cmd *cobra.Command, _ []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	blocks, err := readBatch(batchFile)
	if err != nil {
		return fmt.Errorf("execore: reading batch: %w", err)
	}

	stateKV, codeKV, closeStores, err := openStores(datadir)
	if err != nil {
		return fmt.Errorf("execore: opening stores: %w", err)
	}
	defer closeStores()

	chainCfg := params.MainnetChainConfig
	forks := fork.New(chainCfg)

	// stateProvider is opened directly on stateKV, the same store
	// core.Processor's Snapshot Controller captures/restores/commits, so a
	// durable commit of the batch durably persists the account/storage
	// trie too, not just the receipt/code side data.
	stateProvider, err := state.New(stateKV, types.EmptyRootHash)
	if err != nil {
		return fmt.Errorf("execore: opening state provider: %w", err)
	}

	exec := executor.New(stateProvider, chainCfg, nil)
	rewardCalc := reward.New(func(n uint64) reward.EthashForkSpec { return forks.SpecAt(n) })
	txStore := txstore.New(codeKV)

	cfg := execorecore.Config{
		StateDb:   stateKV,
		CodeDb:    codeKV,
		State:     stateProvider,
		Storage:   stateProvider,
		Executor:  exec,
		Validator: validator.New(),
		Rewards:   rewardCalc,
		Forks:     forks,
		TxStore:   txStore,
		Logger:    logger,
	}
	proc := execorecore.NewProcessor(cfg)

	options := execorecore.StoreReceipts
	if dryRun {
		options |= execorecore.ReadOnlyChain
	}
	if noValidate {
		options |= execorecore.NoValidation
	}

	processed, err := proc.Process(nil, blocks, options, trace.Noop{})
	if err != nil {
		return fmt.Errorf("execore: process: %w", err)
	}
	fmt.Printf("processed %d block(s)\n", len(processed))
	return nil
}

func readBatch(path string) ([]*types.Block, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var hexBlocks []string
	if err := json.Unmarshal(buf, &hexBlocks); err != nil {
		return nil, err
	}
	blocks := make([]*types.Block, 0, len(hexBlocks))
	for _, h := range hexBlocks {
		var block types.Block
		raw := common.FromHex(h)
		if err := rlp.DecodeBytes(raw, &block); err != nil {
			return nil, err
		}
		blocks = append(blocks, &block)
	}
	return blocks, nil
}

func openStores(datadir string) (stateStore, codeStore *kvstore.Store, closeFn func(), err error) {
	if datadir == "" {
		s := kvstore.New(kvstore.NewMemKV(), "state")
		c := kvstore.New(kvstore.NewMemKV(), "code")
		kvstore.Pair(s, c)
		return s, c, func() {}, nil
	}
	env, err := kvstore.NewMDBXOpts().Path(datadir).Open()
	if err != nil {
		return nil, nil, nil, err
	}
	s, c := env.StateStore(), env.CodeStore()
	kvstore.Pair(s, c)
	return s, c, func() { env.Close() }, nil
}

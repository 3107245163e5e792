package dispatch

import (
	"context"
	"fmt"

	"github.com/itohio/cmat/pkg/tensor"
)

// Func is a unit of work invoked on one chunk of a dispatched value map,
// returning the chunk's own value map (e.g. a Model's Value/DValue
// flattened onto one map by the caller).
type Func func(chunk map[string]tensor.Tensor) (map[string]tensor.Tensor, error)

// Dispatcher chunks a value map along its dynamic dimension and invokes
// fn on each chunk (§4.8). The zero value is a single-chunk, sequential
// dispatcher.
type Dispatcher struct {
	// ChunkSize bounds how many dynamic-axis entries each invocation of
	// fn sees. <= 0 means one chunk covering the whole dynamic axis.
	ChunkSize int
	// Workers bounds Parallel's goroutine pool size. <= 0 means
	// runtime.GOMAXPROCS(0).
	Workers int
}

// Sequential invokes fn once per chunk, in order, on the calling
// goroutine. ctx is checked between chunks; a chunk already started
// always runs to completion.
func (d Dispatcher) Sequential(ctx context.Context, values map[string]tensor.Tensor, fn Func) (map[string]tensor.Tensor, error) {
	n, found, err := dynamicSize(values)
	if err != nil {
		return nil, err
	}
	if !found {
		return fn(values)
	}
	ranges := chunkRanges(n, d.ChunkSize)
	results := make([]map[string]tensor.Tensor, len(ranges))
	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk := sliceValues(values, r[0], r[1])
		out, err := fn(chunk)
		if err != nil {
			return nil, fmt.Errorf("dispatch: chunk [%d,%d): %w", r[0], r[1], err)
		}
		results[i] = out
	}
	return reduceResults(results)
}

// Parallel invokes fn once per chunk across a bounded goroutine pool,
// then reduces in original chunk order regardless of completion order.
// Once ctx is done, no further chunk is submitted; chunks already
// running complete and their results are discarded.
func (d Dispatcher) Parallel(ctx context.Context, values map[string]tensor.Tensor, fn Func) (map[string]tensor.Tensor, error) {
	n, found, err := dynamicSize(values)
	if err != nil {
		return nil, err
	}
	if !found {
		return fn(values)
	}
	ranges := chunkRanges(n, d.ChunkSize)
	if len(ranges) == 1 {
		return d.Sequential(ctx, values, fn)
	}

	pool := newWorkerPool(d.Workers)
	defer pool.stop()

	results := make([]map[string]tensor.Tensor, len(ranges))
	errs := make([]error, len(ranges))
	done := make(chan struct{}, len(ranges))

	submitted := 0
	for i, r := range ranges {
		if ctx.Err() != nil {
			break
		}
		i, r := i, r
		pool.submit(func() {
			defer func() { done <- struct{}{} }()
			chunk := sliceValues(values, r[0], r[1])
			out, err := fn(chunk)
			if err != nil {
				errs[i] = fmt.Errorf("dispatch: chunk [%d,%d): %w", r[0], r[1], err)
				return
			}
			results[i] = out
		})
		submitted++
	}
	for i := 0; i < submitted; i++ {
		<-done
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return reduceResults(results[:submitted])
}

func sliceValues(values map[string]tensor.Tensor, start, end int) map[string]tensor.Tensor {
	chunk := make(map[string]tensor.Tensor, len(values))
	for name, t := range values {
		chunk[name] = sliceDynamic(t, start, end)
	}
	return chunk
}

// reduceResults concatenates each output name's per-chunk tensors along
// the dynamic dimension.
func reduceResults(results []map[string]tensor.Tensor) (map[string]tensor.Tensor, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: reduce: no chunk results", ErrShape)
	}
	if len(results) == 1 {
		return results[0], nil
	}
	out := map[string]tensor.Tensor{}
	for name := range results[0] {
		chunks := make([]tensor.Tensor, len(results))
		for i, r := range results {
			v, ok := r[name]
			if !ok {
				return nil, fmt.Errorf("%w: reduce: chunk %d missing output %q", ErrShape, i, name)
			}
			chunks[i] = v
		}
		merged, err := concatDynamic(chunks)
		if err != nil {
			return nil, fmt.Errorf("reduce %q: %w", name, err)
		}
		out[name] = merged
	}
	return out, nil
}

// Package dispatch implements spec §4.8's C13: chunking a value map
// along its declared dynamic dimension into contiguous batches, invoking
// a user-provided callable on each chunk, and reducing the results by
// concatenating along the same dynamic dimension.
//
// Sequential is single-threaded; Parallel exchanges the dispatch loop
// for a small goroutine pool (grounded on
// pkg/core/math/primitive/generics/mt's workerPool/parallelExecute) but
// keeps the same chunk/invoke/reduce contract. Cancellation is
// cooperative at chunk boundaries (spec §5): an in-flight chunk always
// finishes, but no further chunk starts once ctx is done.
package dispatch

// Package pipeline is the pull-based iterator runtime behind the native
// backend.
//
// A Pipeline is lazy: nothing runs until a value is pulled through Collect,
// Drain or ForEach, and each pull reaches back through the stages on demand.
// Every Iter call starts an independent pass, which lets a diamond in the
// dataflow graph read a shared upstream twice without buffering it.
//
// # Operators
//
//   - Map, ParallelMap, Filter, Tap: per-element stages
//   - Reduce: fold to a single value
//   - Concat: sequential union of several pipelines
//   - Fallback: use the secondary only when the primary yields nothing
//   - Zip: pairwise combination, shortest wins
//   - Sliding: count windows advancing by one
//   - HashJoin: inner equi-join with a build side read on first pull
//   - Buffer: read-ahead on a goroutine
//
// # Usage
//
//	src := pipeline.FromSlice([]float64{1, -2, 3})
//	pos := pipeline.Filter(src, func(_ context.Context, v float64) (bool, error) {
//	    return v > 0, nil
//	})
//	out, err := pipeline.Collect(ctx, pos)
package pipeline

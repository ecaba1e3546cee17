package native

import (
	"context"
	"fmt"

	"github.com/kbukum/flowc/algebra"
	"github.com/kbukum/flowc/backend"
	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/indicator"
	"github.com/kbukum/flowc/ir"
	"github.com/kbukum/flowc/pipeline"
	"github.com/kbukum/flowc/record"
	"github.com/kbukum/flowc/util"
)

func (b *Backend) mapNode(node ir.Node, in *pipeline.Pipeline[any]) *pipeline.Pipeline[any] {
	fn, ok := algebra.FuncOf(node, "fn")
	if !ok {
		return in
	}
	apply := func(_ context.Context, v any) (any, error) {
		out, err := fn.Call(v)
		if err != nil {
			return nil, errors.AtNode(err, Name, node.ID())
		}
		return out, nil
	}
	if b.workers > 1 {
		return pipeline.ParallelMap(in, b.workers, apply)
	}
	return pipeline.Map(in, apply)
}

func (b *Backend) filterNode(node ir.Node, in *pipeline.Pipeline[any]) *pipeline.Pipeline[any] {
	pred, ok := algebra.FuncOf(node, "predicate")
	if !ok {
		return in
	}
	return pipeline.Filter(in, func(_ context.Context, v any) (bool, error) {
		keep, err := pred.Test(v)
		if err != nil {
			return false, errors.AtNode(err, Name, node.ID())
		}
		return keep, nil
	})
}

func windowNode(node ir.Node, in *pipeline.Pipeline[any]) (*pipeline.Pipeline[any], error) {
	size := node.Int("size", 1)
	if size < 1 {
		return nil, errors.InvalidInput("size", "window size must be at least 1")
	}
	return pipeline.Map(pipeline.Sliding(in, size), func(_ context.Context, w []any) (any, error) {
		return w, nil
	}), nil
}

func reduceNode(node ir.Node, in *pipeline.Pipeline[any]) *pipeline.Pipeline[any] {
	fn, ok := algebra.ReduceFuncOf(node, "fn")
	if !ok || fn.Fn == nil {
		return in
	}
	init, _ := node.Value("init")
	return pipeline.Reduce(in, init, func(acc, v any) (any, error) {
		out, err := fn.Fn(acc, v)
		if err != nil {
			return nil, errors.AtNode(err, Name, node.ID())
		}
		return out, nil
	})
}

// joinNode is an inner hash join on the "on" column. Left order is kept and
// left values win on name clashes.
func joinNode(node ir.Node, left, right *pipeline.Pipeline[any]) *pipeline.Pipeline[any] {
	on := node.Str("on", "")
	key := func(v any) (string, bool) {
		row, ok := record.AsRow(v)
		if !ok {
			return "", false
		}
		k, ok := row[on]
		if !ok || k == nil {
			return "", false
		}
		return util.ToString(k), true
	}
	return pipeline.HashJoin(left, right, key, key, func(l, r any) any {
		lrow, _ := record.AsRow(l)
		rrow, _ := record.AsRow(r)
		merged := record.Clone(rrow)
		for k, v := range lrow {
			merged[k] = v
		}
		return merged
	})
}

func pair(left, right *pipeline.Pipeline[any]) *pipeline.Pipeline[any] {
	return pipeline.Zip(left, right, func(l, r any) any { return []any{l, r} })
}

// customNode computes an indicator. The upstream is drained into rows on the
// first pull; only this node blocks.
func (b *Backend) customNode(node ir.Node, in *pipeline.Pipeline[any], parents []any) (any, error) {
	kind, ok := indicator.Lookup(node.Kind())
	if !ok {
		return backend.Passthrough(b.log, b, node, parents), nil
	}
	cfg := node.Config()
	params, err := indicator.ParseParams(kind, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.Deferred(func(ctx context.Context) ([]any, error) {
		items, err := pipeline.Collect(ctx, in)
		if err != nil {
			return nil, err
		}
		rows := make([]record.Row, len(items))
		for i, item := range items {
			row, ok := record.AsRow(item)
			if !ok {
				return nil, errors.AtNode(
					errors.InvalidInput("element", fmt.Sprintf("%s needs rows, got %T", kind, item)),
					Name, node.ID())
			}
			rows[i] = row
		}
		out, err := indicator.Compute(kind, rows, params)
		if err != nil {
			return nil, errors.AtNode(err, Name, node.ID())
		}
		result := make([]any, len(out))
		for i, r := range out {
			result[i] = r
		}
		return result, nil
	}), nil
}

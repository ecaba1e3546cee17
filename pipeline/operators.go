package pipeline

import (
	"context"
)

// Map transforms each value.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return &Pipeline[O]{create: func(ctx context.Context) Iterator[O] {
		return &mapIter[I, O]{source: p.create(ctx), fn: fn}
	}}
}

// Filter keeps values the predicate accepts. A predicate error ends the pass.
func Filter[T any](p *Pipeline[T], fn func(context.Context, T) (bool, error)) *Pipeline[T] {
	return &Pipeline[T]{create: func(ctx context.Context) Iterator[T] {
		return &filterIter[T]{source: p.create(ctx), fn: fn}
	}}
}

// Tap runs fn on each value and passes the value on unchanged.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return Map(p, func(ctx context.Context, v T) (T, error) {
		return v, fn(ctx, v)
	})
}

// Reduce folds every value into one accumulator and yields it once, even for
// an empty input.
func Reduce[T, R any](p *Pipeline[T], init R, fn func(R, T) (R, error)) *Pipeline[R] {
	return &Pipeline[R]{create: func(ctx context.Context) Iterator[R] {
		return &reduceIter[T, R]{source: p.create(ctx), acc: init, fn: fn}
	}}
}

// Concat yields every value of each pipeline in turn.
func Concat[T any](pipelines ...*Pipeline[T]) *Pipeline[T] {
	return &Pipeline[T]{create: func(ctx context.Context) Iterator[T] {
		return &concatIter[T]{ctx: ctx, pipelines: pipelines}
	}}
}

// Fallback yields primary unless primary fails before producing anything,
// in which case the whole of secondary is yielded instead. An empty primary
// also selects secondary. Once primary has produced a value its errors are
// returned as is.
func Fallback[T any](primary, secondary *Pipeline[T]) *Pipeline[T] {
	return &Pipeline[T]{create: func(ctx context.Context) Iterator[T] {
		return &fallbackIter[T]{primary: primary.create(ctx), secondary: secondary}
	}}
}

// Zip pairs values from both pipelines and stops at the shorter one.
func Zip[A, B, O any](a *Pipeline[A], b *Pipeline[B], fn func(A, B) O) *Pipeline[O] {
	return &Pipeline[O]{create: func(ctx context.Context) Iterator[O] {
		return &zipIter[A, B, O]{a: a.create(ctx), b: b.create(ctx), fn: fn}
	}}
}

// --- iterators ---

type mapIter[I, O any] struct {
	source Iterator[I]
	fn     func(context.Context, I) (O, error)
}

func (it *mapIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := it.fn(ctx, val)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (it *mapIter[I, O]) Close() error { return it.source.Close() }

type filterIter[T any] struct {
	source Iterator[T]
	fn     func(context.Context, T) (bool, error)
}

func (it *filterIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		keep, err := it.fn(ctx, val)
		if err != nil {
			return zero, false, err
		}
		if keep {
			return val, true, nil
		}
	}
}

func (it *filterIter[T]) Close() error { return it.source.Close() }

type reduceIter[T, R any] struct {
	source Iterator[T]
	acc    R
	fn     func(R, T) (R, error)
	done   bool
}

func (it *reduceIter[T, R]) Next(ctx context.Context) (R, bool, error) {
	var zero R
	if it.done {
		return zero, false, nil
	}
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil {
			return zero, false, err
		}
		if !ok {
			it.done = true
			return it.acc, true, nil
		}
		if it.acc, err = it.fn(it.acc, val); err != nil {
			return zero, false, err
		}
	}
}

func (it *reduceIter[T, R]) Close() error { return it.source.Close() }

// concatIter opens each pipeline only when the previous one is exhausted.
type concatIter[T any] struct {
	ctx       context.Context
	pipelines []*Pipeline[T]
	current   Iterator[T]
	index     int
}

func (it *concatIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for {
		if it.current == nil {
			if it.index >= len(it.pipelines) {
				return zero, false, nil
			}
			it.current = it.pipelines[it.index].create(it.ctx)
			it.index++
		}
		val, ok, err := it.current.Next(ctx)
		if err != nil {
			return zero, false, err
		}
		if ok {
			return val, true, nil
		}
		_ = it.current.Close()
		it.current = nil
	}
}

func (it *concatIter[T]) Close() error {
	if it.current != nil {
		return it.current.Close()
	}
	return nil
}

type fallbackIter[T any] struct {
	primary   Iterator[T]
	secondary *Pipeline[T]
	active    Iterator[T]
	committed bool
}

func (it *fallbackIter[T]) Next(ctx context.Context) (T, bool, error) {
	if it.active != nil {
		return it.active.Next(ctx)
	}
	val, ok, err := it.primary.Next(ctx)
	if it.committed {
		return val, ok, err
	}
	if err == nil && ok {
		it.committed = true
		return val, true, nil
	}
	_ = it.primary.Close()
	it.active = it.secondary.create(ctx)
	return it.active.Next(ctx)
}

func (it *fallbackIter[T]) Close() error {
	if it.active != nil {
		return it.active.Close()
	}
	return it.primary.Close()
}

type zipIter[A, B, O any] struct {
	a  Iterator[A]
	b  Iterator[B]
	fn func(A, B) O
}

func (it *zipIter[A, B, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	av, ok, err := it.a.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	bv, ok, err := it.b.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	return it.fn(av, bv), true, nil
}

func (it *zipIter[A, B, O]) Close() error {
	errA := it.a.Close()
	if errB := it.b.Close(); errA == nil {
		return errB
	}
	return errA
}

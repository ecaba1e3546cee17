package pipeline

import "context"

// Iterator is pull-based access to a sequence of values.
type Iterator[T any] interface {
	// Next returns the next value, or (zero, false, nil) once exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases whatever the iterator holds.
	Close() error
}

// Pipeline is a lazy description of a sequence. Every call to Iter starts a
// fresh pass over its sources, so one Pipeline can be consumed many times and
// by several downstream stages.
type Pipeline[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// Runnable is a pipeline bound to a terminal action.
type Runnable struct {
	run func(ctx context.Context) error
}

// Run pulls the pipeline to completion.
func (r *Runnable) Run(ctx context.Context) error {
	return r.run(ctx)
}

// From wraps an existing iterator. The result can only be consumed once.
func From[T any](iter Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{create: func(context.Context) Iterator[T] { return iter }}
}

// FromSlice yields the items in order.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{create: func(context.Context) Iterator[T] { return &sliceIter[T]{items: items} }}
}

// FromFunc builds a pipeline from an iterator factory.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{create: fn}
}

// Empty yields nothing.
func Empty[T any]() *Pipeline[T] {
	return FromSlice[T](nil)
}

// Once yields a single value.
func Once[T any](v T) *Pipeline[T] {
	return FromSlice([]T{v})
}

// Deferred calls load on the first pull of every pass and yields its result.
// Sources that read files or whole columns use it so that building a
// pipeline never touches the outside world.
func Deferred[T any](load func(ctx context.Context) ([]T, error)) *Pipeline[T] {
	return &Pipeline[T]{create: func(context.Context) Iterator[T] { return &deferredIter[T]{load: load} }}
}

// Drain binds sink as the terminal action for every value.
func Drain[T any](p *Pipeline[T], sink func(context.Context, T) error) *Runnable {
	return &Runnable{run: func(ctx context.Context) error {
		iter := p.create(ctx)
		defer iter.Close()
		for {
			val, ok, err := iter.Next(ctx)
			if err != nil || !ok {
				return err
			}
			if err := sink(ctx, val); err != nil {
				return err
			}
		}
	}}
}

// Collect runs one pass and returns every value. On error the values pulled
// so far are returned with it.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	iter := p.create(ctx)
	defer iter.Close()
	var out []T
	for {
		val, ok, err := iter.Next(ctx)
		if err != nil || !ok {
			return out, err
		}
		out = append(out, val)
	}
}

// ForEach is Drain followed by Run.
func ForEach[T any](ctx context.Context, p *Pipeline[T], fn func(context.Context, T) error) error {
	return Drain(p, fn).Run(ctx)
}

// Iter starts a pass. The caller closes the iterator.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] {
	return p.create(ctx)
}

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if it.index >= len(it.items) {
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type deferredIter[T any] struct {
	load   func(ctx context.Context) ([]T, error)
	loaded bool
	sliceIter[T]
}

func (it *deferredIter[T]) Next(ctx context.Context) (T, bool, error) {
	if !it.loaded {
		it.loaded = true
		items, err := it.load(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		it.items = items
	}
	return it.sliceIter.Next(ctx)
}

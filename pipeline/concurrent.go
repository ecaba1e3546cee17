package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// result carries a value or error through a channel.
type result[T any] struct {
	val T
	ok  bool
	err error
}

// channelIter reads values from a channel fed by a producer goroutine.
type channelIter[T any] struct {
	ch     <-chan result[T]
	closer func() error
}

func (it *channelIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case r, open := <-it.ch:
		if !open {
			return zero, false, nil
		}
		return r.val, r.ok, r.err
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *channelIter[T]) Close() error {
	if it.closer != nil {
		return it.closer()
	}
	return nil
}

// Buffer reads ahead of the consumer into a channel of the given size.
func Buffer[T any](p *Pipeline[T], size int) *Pipeline[T] {
	if size <= 0 {
		size = 1
	}
	return &Pipeline[T]{create: func(ctx context.Context) Iterator[T] {
		source := p.create(ctx)
		bufCtx, cancel := context.WithCancel(ctx)
		ch := make(chan result[T], size)

		go func() {
			defer close(ch)
			for {
				val, ok, err := source.Next(bufCtx)
				if err != nil {
					select {
					case ch <- result[T]{err: err}:
					case <-bufCtx.Done():
					}
					return
				}
				if !ok {
					return
				}
				select {
				case ch <- result[T]{val: val, ok: true}:
				case <-bufCtx.Done():
					return
				}
			}
		}()

		return &channelIter[T]{ch: ch, closer: func() error {
			cancel()
			return source.Close()
		}}
	}}
}

// ParallelMap is Map with up to n calls of fn in flight. Output order matches
// input order: values are pulled in batches of n, transformed concurrently
// and released in sequence. The first error ends the pass.
func ParallelMap[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error)) *Pipeline[O] {
	if n <= 1 {
		return Map(p, fn)
	}
	return &Pipeline[O]{create: func(ctx context.Context) Iterator[O] {
		return &parallelIter[I, O]{source: p.create(ctx), n: n, fn: fn}
	}}
}

type parallelIter[I, O any] struct {
	source Iterator[I]
	n      int
	fn     func(context.Context, I) (O, error)
	ready  []O
	done   bool
}

func (it *parallelIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	if len(it.ready) == 0 {
		if it.done {
			return zero, false, nil
		}
		if err := it.fill(ctx); err != nil {
			return zero, false, err
		}
		if len(it.ready) == 0 {
			return zero, false, nil
		}
	}
	out := it.ready[0]
	it.ready = it.ready[1:]
	return out, true, nil
}

func (it *parallelIter[I, O]) fill(ctx context.Context) error {
	batch := make([]I, 0, it.n)
	for len(batch) < it.n {
		val, ok, err := it.source.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			it.done = true
			break
		}
		batch = append(batch, val)
	}
	out := make([]O, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range batch {
		g.Go(func() error {
			o, err := it.fn(gctx, v)
			out[i] = o
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	it.ready = out
	return nil
}

func (it *parallelIter[I, O]) Close() error { return it.source.Close() }

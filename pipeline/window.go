package pipeline

import (
	"context"
)

// Sliding emits every run of size consecutive values, advancing by one. An
// input shorter than size yields nothing. size below 1 is treated as 1.
func Sliding[T any](p *Pipeline[T], size int) *Pipeline[[]T] {
	if size < 1 {
		size = 1
	}
	return &Pipeline[[]T]{create: func(ctx context.Context) Iterator[[]T] {
		return &slidingIter[T]{source: p.create(ctx), size: size}
	}}
}

type slidingIter[T any] struct {
	source Iterator[T]
	size   int
	buffer []T
}

func (it *slidingIter[T]) Next(ctx context.Context) ([]T, bool, error) {
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		it.buffer = append(it.buffer, val)
		if len(it.buffer) > it.size {
			it.buffer = it.buffer[1:]
		}
		if len(it.buffer) == it.size {
			window := make([]T, it.size)
			copy(window, it.buffer)
			return window, true, nil
		}
	}
}

func (it *slidingIter[T]) Close() error { return it.source.Close() }

// HashJoin is an inner equi-join. The right side is read fully into a hash
// table on the first pull; the left side then streams, yielding one combined
// value per matching right value in right-side order. Values whose key
// function reports false never match.
func HashJoin[L, R, O any](left *Pipeline[L], right *Pipeline[R], lkey func(L) (string, bool), rkey func(R) (string, bool), combine func(L, R) O) *Pipeline[O] {
	return &Pipeline[O]{create: func(ctx context.Context) Iterator[O] {
		return &hashJoinIter[L, R, O]{
			left: left.create(ctx), right: right,
			lkey: lkey, rkey: rkey, combine: combine,
		}
	}}
}

type hashJoinIter[L, R, O any] struct {
	left    Iterator[L]
	right   *Pipeline[R]
	lkey    func(L) (string, bool)
	rkey    func(R) (string, bool)
	combine func(L, R) O

	table   map[string][]R
	pending []O
}

func (it *hashJoinIter[L, R, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	if it.table == nil {
		rows, err := Collect(ctx, it.right)
		if err != nil {
			return zero, false, err
		}
		it.table = make(map[string][]R)
		for _, r := range rows {
			if k, ok := it.rkey(r); ok {
				it.table[k] = append(it.table[k], r)
			}
		}
	}
	for len(it.pending) == 0 {
		l, ok, err := it.left.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		k, ok := it.lkey(l)
		if !ok {
			continue
		}
		for _, r := range it.table[k] {
			it.pending = append(it.pending, it.combine(l, r))
		}
	}
	out := it.pending[0]
	it.pending = it.pending[1:]
	return out, true, nil
}

func (it *hashJoinIter[L, R, O]) Close() error { return it.left.Close() }

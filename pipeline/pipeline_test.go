package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

func TestFromSlice_Collect(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestPipeline_ReusableAcrossPasses(t *testing.T) {
	p := Map(FromSlice([]int{1, 2}), func(_ context.Context, n int) (int, error) { return n * 10, nil })
	for i := 0; i < 2; i++ {
		got, err := Collect(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		if !intSliceEqual(got, []int{10, 20}) {
			t.Errorf("pass %d: got %v", i, got)
		}
	}
}

func TestDeferred_LoadsOnFirstPull(t *testing.T) {
	var loads atomic.Int32
	p := Deferred(func(context.Context) ([]int, error) {
		loads.Add(1)
		return []int{7}, nil
	})
	iter := p.Iter(context.Background())
	if loads.Load() != 0 {
		t.Fatal("expected no load before the first pull")
	}
	v, ok, err := iter.Next(context.Background())
	if err != nil || !ok || v != 7 {
		t.Fatalf("expected 7, got %v %v %v", v, ok, err)
	}
	if loads.Load() != 1 {
		t.Fatalf("expected one load, got %d", loads.Load())
	}
}

func TestDeferred_Error(t *testing.T) {
	p := Deferred(func(context.Context) ([]int, error) { return nil, errors.New("boom") })
	if _, err := Collect(context.Background(), p); err == nil {
		t.Fatal("expected error")
	}
}

func TestMap_Error(t *testing.T) {
	fail := Map(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errors.New("bad value")
		}
		return n, nil
	})
	got, err := Collect(context.Background(), fail)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("expected [1] before error, got %v", got)
	}
}

func TestFilter(t *testing.T) {
	even := Filter(FromSlice([]int{1, 2, 3, 4}), func(_ context.Context, n int) (bool, error) { return n%2 == 0, nil })
	got, _ := Collect(context.Background(), even)
	if !intSliceEqual(got, []int{2, 4}) {
		t.Errorf("got %v, want [2 4]", got)
	}
}

func TestFilter_Error(t *testing.T) {
	p := Filter(FromSlice([]int{1}), func(context.Context, int) (bool, error) { return false, errors.New("nope") })
	if _, err := Collect(context.Background(), p); err == nil {
		t.Fatal("expected error")
	}
}

func TestTap(t *testing.T) {
	var seen []int
	p := Tap(FromSlice([]int{1, 2}), func(_ context.Context, n int) error {
		seen = append(seen, n)
		return nil
	})
	got, _ := Collect(context.Background(), p)
	if !intSliceEqual(got, []int{1, 2}) || !intSliceEqual(seen, []int{1, 2}) {
		t.Errorf("got %v seen %v", got, seen)
	}
}

func TestReduce(t *testing.T) {
	sum := Reduce(FromSlice([]int{1, 2, 3}), 0, func(acc, n int) (int, error) { return acc + n, nil })
	got, _ := Collect(context.Background(), sum)
	if !intSliceEqual(got, []int{6}) {
		t.Errorf("got %v, want [6]", got)
	}
}

func TestReduce_EmptyYieldsInit(t *testing.T) {
	sum := Reduce(Empty[int](), 5, func(acc, n int) (int, error) { return acc + n, nil })
	got, _ := Collect(context.Background(), sum)
	if !intSliceEqual(got, []int{5}) {
		t.Errorf("got %v, want [5]", got)
	}
}

func TestConcat(t *testing.T) {
	got, _ := Collect(context.Background(), Concat(FromSlice([]int{1}), Empty[int](), FromSlice([]int{2, 3})))
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestFallback(t *testing.T) {
	boom := FromFunc(func(context.Context) Iterator[int] { return &failIter{after: 0} })
	partial := FromFunc(func(context.Context) Iterator[int] { return &failIter{after: 2} })
	tests := []struct {
		name    string
		primary *Pipeline[int]
		want    []int
		wantErr bool
	}{
		{"primary yields", FromSlice([]int{1, 2}), []int{1, 2}, false},
		{"primary empty", Empty[int](), []int{9}, false},
		{"primary fails first", boom, []int{9}, false},
		{"primary fails after output", partial, []int{0, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collect(context.Background(), Fallback(tt.primary, Once(9)))
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if !intSliceEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZip_Shortest(t *testing.T) {
	z := Zip(FromSlice([]int{1, 2, 3}), FromSlice([]string{"a", "b"}), func(n int, s string) string {
		return fmt.Sprintf("%d%s", n, s)
	})
	got, _ := Collect(context.Background(), z)
	if len(got) != 2 || got[0] != "1a" || got[1] != "2b" {
		t.Errorf("got %v, want [1a 2b]", got)
	}
}

func TestSliding(t *testing.T) {
	got, _ := Collect(context.Background(), Sliding(FromSlice([]int{1, 2, 3, 4}), 3))
	if len(got) != 2 || !intSliceEqual(got[0], []int{1, 2, 3}) || !intSliceEqual(got[1], []int{2, 3, 4}) {
		t.Errorf("got %v", got)
	}
	short, _ := Collect(context.Background(), Sliding(FromSlice([]int{1}), 3))
	if len(short) != 0 {
		t.Errorf("expected no windows, got %v", short)
	}
}

func TestHashJoin(t *testing.T) {
	type pair struct {
		k string
		v int
	}
	left := FromSlice([]pair{{"a", 1}, {"b", 2}, {"c", 3}})
	right := FromSlice([]pair{{"a", 10}, {"a", 11}, {"c", 30}})
	key := func(p pair) (string, bool) { return p.k, true }
	j := HashJoin(left, right, key, key, func(l, r pair) int { return l.v + r.v })
	got, _ := Collect(context.Background(), j)
	if !intSliceEqual(got, []int{11, 12, 33}) {
		t.Errorf("got %v, want [11 12 33]", got)
	}
}

func TestParallelMap_PreservesOrder(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}
	p := ParallelMap(FromSlice(items), 4, func(_ context.Context, n int) (int, error) { return n * 2, nil })
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != i*2 {
			t.Fatalf("index %d: expected %d, got %d", i, i*2, v)
		}
	}
}

func TestParallelMap_Error(t *testing.T) {
	p := ParallelMap(FromSlice([]int{1, 2, 3}), 2, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, errors.New("bad")
		}
		return n, nil
	})
	if _, err := Collect(context.Background(), p); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuffer(t *testing.T) {
	got, _ := Collect(context.Background(), Buffer(FromSlice([]int{1, 2, 3}), 2))
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v", got)
	}
}

func TestForEach(t *testing.T) {
	total := 0
	err := ForEach(context.Background(), FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		total += n
		return nil
	})
	if err != nil || total != 6 {
		t.Errorf("expected 6, got %d %v", total, err)
	}
}

func TestContext_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Collect(ctx, FromSlice([]int{1})); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// failIter yields 0..after-1 then fails.
type failIter struct {
	after int
	n     int
}

func (it *failIter) Next(context.Context) (int, bool, error) {
	if it.n >= it.after {
		return 0, false, errors.New("source failed")
	}
	it.n++
	return it.n - 1, true, nil
}

func (it *failIter) Close() error { return nil }

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

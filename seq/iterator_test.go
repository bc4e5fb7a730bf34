package seq

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestIterator_Lifecycle(t *testing.T) {
	src := track(1, 2)
	it := Where[int](src, func(int) bool { return true }).Iter(context.Background()).(*whereIter[int])
	ctx := context.Background()

	if it.state != stateAllocated {
		t.Fatalf("expected allocated, got %s", it.state)
	}
	if src.tr.opened.Load() != 0 {
		t.Fatal("upstream must not be opened before the first Next")
	}

	ok, err := it.Next(ctx)
	if err != nil || !ok || it.Current() != 1 {
		t.Fatalf("first Next: ok=%v err=%v current=%d", ok, err, it.Current())
	}
	if it.state != stateIterating {
		t.Fatalf("expected iterating, got %s", it.state)
	}

	it.Next(ctx)
	ok, err = it.Next(ctx)
	if ok || err != nil {
		t.Fatalf("expected end of input, got ok=%v err=%v", ok, err)
	}
	if it.state != stateDisposed {
		t.Fatalf("expected disposed after end of input, got %s", it.state)
	}
	src.balanced(t)

	pulled := src.tr.pulled.Load()
	for range 3 {
		if ok, err := it.Next(ctx); ok || err != nil {
			t.Fatalf("Next after dispose: ok=%v err=%v", ok, err)
		}
	}
	if src.tr.pulled.Load() != pulled {
		t.Error("Next after dispose must not touch upstream")
	}
}

func TestIterator_CloseNeverStarted(t *testing.T) {
	src := track(1, 2, 3)
	it := Select[int](src, func(v int) int { return v }).Iter(context.Background())
	for range 2 {
		if err := it.Close(context.Background()); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	if src.tr.opened.Load() != 0 {
		t.Error("closing an unstarted iterator must not open upstream")
	}
	if ok, _ := it.Next(context.Background()); ok {
		t.Error("closed iterator must not yield")
	}
}

func TestIterator_EarlyCloseReleasesUpstream(t *testing.T) {
	src := track(1, 2, 3, 4)
	ctx := context.Background()
	it := Where(Select[int](src, func(v int) int { return v * 2 }), func(v int) bool { return v > 2 }).Iter(ctx)

	if ok, err := it.Next(ctx); !ok || err != nil {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if err := it.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := it.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if src.tr.closed.Load() != 1 {
		t.Errorf("expected upstream released exactly once, got %d", src.tr.closed.Load())
	}
}

type balancer interface{ balanced(t *testing.T) }

func TestIterator_CloseAfterNPulls(t *testing.T) {
	id := func(v int) int { return v }
	tests := []struct {
		name  string
		build func() (Sequence[int], []balancer)
		want  []int
	}{
		{"where select", func() (Sequence[int], []balancer) {
			src := track(1, 2, 3, 4)
			s := Where(Select[int](src, func(v int) int { return v * 2 }), func(v int) bool { return v > 2 })
			return s, []balancer{src}
		}, []int{4, 6, 8}},
		{"join", func() (Sequence[int], []balancer) {
			outer, inner := track(1, 2, 3), track(1, 1, 2, 3, 9)
			s := Join[int, int, int, int](outer, inner, id, id, func(o, i int) int { return o*10 + i })
			return s, []balancer{outer, inner}
		}, []int{11, 11, 22, 33}},
		{"group join", func() (Sequence[int], []balancer) {
			outer, inner := track(1, 2, 3), track(1, 1, 3)
			s := GroupJoin[int, int, int, int](outer, inner, id, id, func(o int, is []int) int { return o*10 + len(is) })
			return s, []balancer{outer, inner}
		}, []int{12, 20, 31}},
		{"catch", func() (Sequence[int], []balancer) {
			src, fallback := track(1, 2, 3).failing(2, errBoom), track(7, 8)
			s := CatchIs[int](src, errBoom, func(error) Sequence[int] { return fallback })
			return s, []balancer{src, fallback}
		}, []int{1, 2, 7, 8}},
		{"select many", func() (Sequence[int], []balancer) {
			outer, inner := track(1, 2, 3), track(10, 20)
			s := SelectMany[int](outer, func(v int) Sequence[int] {
				return Select[int](inner, func(i int) int { return i + v })
			})
			return s, []balancer{outer, inner}
		}, []int{11, 21, 12, 22, 13, 23}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := tc.build()
			assertSlice(t, collect(t, s), tc.want)

			for n := range len(tc.want) {
				s, sources := tc.build()
				ctx := context.Background()
				it := s.Iter(ctx)
				for i := range n {
					ok, err := it.Next(ctx)
					if !ok || err != nil {
						t.Fatalf("n=%d pull %d: ok=%v err=%v", n, i, ok, err)
					}
					if it.Current() != tc.want[i] {
						t.Fatalf("n=%d pull %d: got %d, want %d", n, i, it.Current(), tc.want[i])
					}
				}
				for range 2 {
					if err := it.Close(ctx); err != nil {
						t.Fatalf("n=%d Close: %v", n, err)
					}
				}
				if ok, err := it.Next(ctx); ok || err != nil {
					t.Errorf("n=%d after Close: ok=%v err=%v", n, ok, err)
				}
				for _, src := range sources {
					src.balanced(t)
				}
			}
		})
	}
}

func TestIterator_FaultDisposesBeforeReturning(t *testing.T) {
	src := track(1, 2, 3).failing(1, errBoom)
	ctx := context.Background()
	it := Select[int](src, func(v int) int { return v }).Iter(ctx)

	it.Next(ctx)
	_, err := it.Next(ctx)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	src.balanced(t)
	if ok, err := it.Next(ctx); ok || err != nil {
		t.Errorf("after fault: ok=%v err=%v", ok, err)
	}
}

func TestIterator_DisposeFaultDoesNotMaskFault(t *testing.T) {
	src := track(1, 2).failing(1, errBoom)
	src.lazy = true
	src.closeErr = errors.New("close failed")

	got, err := ToSlice(context.Background(), Select[int](src, func(v int) int { return v }))
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected the advance fault, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no result on fault, got %v", got)
	}
	src.balanced(t)
}

func TestIterator_DisposeFaultReportedWithoutFault(t *testing.T) {
	closeErr := errors.New("close failed")
	src := track(1, 2)
	src.closeErr = closeErr

	_, err := ToSlice(context.Background(), Where[int](src, func(int) bool { return true }))
	if !errors.Is(err, closeErr) {
		t.Fatalf("expected dispose fault, got %v", err)
	}
}

func TestSequence_Restartable(t *testing.T) {
	s := Select(Range(1, 3), func(v int) int { return v * v })
	assertSlice(t, collect(t, s), []int{1, 4, 9})
	assertSlice(t, collect(t, s), []int{1, 4, 9})
}

func TestClone_IndependentOfOriginal(t *testing.T) {
	ctx := context.Background()
	it := Where(Range(0, 6), func(v int) bool { return v%2 == 0 }).Iter(ctx)
	it.Next(ctx)
	it.Next(ctx)

	clone := it.Clone()
	var fromClone []int
	for {
		ok, err := clone.Next(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		fromClone = append(fromClone, clone.Current())
	}
	assertSlice(t, fromClone, []int{0, 2, 4})

	if ok, _ := it.Next(ctx); !ok || it.Current() != 4 {
		t.Errorf("original should continue at 4, got %d", it.Current())
	}
	it.Close(ctx)
}

func TestClone_Concurrent(t *testing.T) {
	src := track(1, 2, 3, 4, 5, 6, 7, 8)
	s := GroupBy(Select[int](src, func(v int) int { return v * 10 }), func(v int) bool { return v%20 == 0 })
	proto := s.Iter(context.Background())

	g, ctx := errgroup.WithContext(context.Background())
	results := make([]int, 16)
	for i := range results {
		g.Go(func() error {
			it := proto.Clone()
			defer it.Close(ctx)
			total := 0
			for {
				ok, err := it.Next(ctx)
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				total += it.Current().Len()
			}
			results[i] = total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for i, n := range results {
		if n != 8 {
			t.Errorf("clone %d saw %d elements, want 8", i, n)
		}
	}
	src.balanced(t)
}

func TestCancellation_StopsEnumeration(t *testing.T) {
	src := track(1, 2, 3)
	ctx, cancel := context.WithCancel(context.Background())
	it := Select[int](src, func(v int) int { return v }).Iter(ctx)

	if ok, err := it.Next(ctx); !ok || err != nil {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	cancel()
	_, err := it.Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	src.balanced(t)
}

func TestCancellation_UnblocksPendingSource(t *testing.T) {
	ch := make(chan int)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := ToSlice(ctx, Select(FromChannel[int](ch), func(v int) int { return v }))
		done <- err
	}()

	ch <- 1
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("enumeration did not observe cancellation")
	}
}

func TestBridge_All(t *testing.T) {
	ctx := context.Background()
	var got []int
	for v, err := range All(ctx, Range(1, 5)) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
	}
	assertSlice(t, got, []int{1, 2, 3, 4, 5})
}

func TestBridge_AllBreakCloses(t *testing.T) {
	src := track(1, 2, 3)
	for v, err := range All[int](context.Background(), src) {
		if err != nil {
			t.Fatal(err)
		}
		if v == 2 {
			break
		}
	}
	src.balanced(t)
}

func TestBridge_AllFault(t *testing.T) {
	var last error
	n := 0
	for _, err := range All[int](context.Background(), track(1, 2).failing(1, errBoom)) {
		if err != nil {
			last = err
			continue
		}
		n++
	}
	if n != 1 || !errors.Is(last, errBoom) {
		t.Errorf("expected one element then boom, got %d elements and %v", n, last)
	}
}

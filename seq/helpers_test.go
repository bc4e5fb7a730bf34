package seq

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"

	apperrors "github.com/kbukum/seqkit/errors"
)

var errBoom = errors.New("boom")

// tracker counts what happened to the iterators of a trackingSource.
type tracker struct {
	opened atomic.Int32
	closed atomic.Int32
	pulled atomic.Int32
}

// trackingSource is a Sequence stub that records opens, pulls and disposals.
type trackingSource[T any] struct {
	items []T
	// failAt faults the pull of that index; -1 never faults.
	failAt  int
	failErr error
	// closeErr is returned by the first Close.
	closeErr error
	// lazy leaves disposal to the caller after a fault.
	lazy bool
	tr   *tracker
}

func track[T any](items ...T) *trackingSource[T] {
	return &trackingSource[T]{items: items, failAt: -1, tr: &tracker{}}
}

func (s *trackingSource[T]) failing(at int, err error) *trackingSource[T] {
	s.failAt, s.failErr = at, err
	return s
}

func (s *trackingSource[T]) Iter(context.Context) Iterator[T] {
	s.tr.opened.Add(1)
	return &trackingIter[T]{src: s}
}

type trackingIter[T any] struct {
	src     *trackingSource[T]
	index   int
	current T
	closed  bool
}

func (it *trackingIter[T]) Next(ctx context.Context) (bool, error) {
	if it.closed {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		it.release()
		return false, err
	}
	it.src.tr.pulled.Add(1)
	if it.index == it.src.failAt {
		if !it.src.lazy {
			it.release()
		}
		return false, it.src.failErr
	}
	if it.index < len(it.src.items) {
		it.current = it.src.items[it.index]
		it.index++
		return true, nil
	}
	return false, it.Close(ctx)
}

func (it *trackingIter[T]) Current() T { return it.current }

func (it *trackingIter[T]) Close(context.Context) error {
	if it.closed {
		return nil
	}
	it.release()
	return it.src.closeErr
}

func (it *trackingIter[T]) release() {
	it.closed = true
	it.src.tr.closed.Add(1)
}

func (it *trackingIter[T]) Clone() Iterator[T] { return it.src.Iter(context.Background()) }

// balanced fails the test unless every opened iterator was released.
func (s *trackingSource[T]) balanced(t *testing.T) {
	t.Helper()
	if o, c := s.tr.opened.Load(), s.tr.closed.Load(); o != c {
		t.Errorf("opened %d iterators but released %d", o, c)
	}
}

func collect[T any](t *testing.T, s Sequence[T]) []T {
	t.Helper()
	got, err := ToSlice(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func assertSlice[T comparable](t *testing.T, got, want []T) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// mustPanicMissing fails unless fn panics with a MISSING_ARGUMENT AppError.
func mustPanicMissing(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, apperrors.ErrMissingArgument) {
			t.Errorf("expected missing argument panic, got %v", r)
		}
	}()
	fn()
}

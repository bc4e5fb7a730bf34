package seq

import (
	"context"
	"math"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/validation"
)

type whereIter[T any] struct {
	iterState[T]
	source    Sequence[T]
	predicate func(context.Context, T) (bool, error)
	upstream  Iterator[T]
}

// Where keeps the elements for which predicate returns true.
func Where[T any](source Sequence[T], predicate func(T) bool) Sequence[T] {
	validation.New().NotNil("source", source).NotNil("predicate", predicate).MustPass()
	return where(source, lift(predicate))
}

// WhereAwait is Where with a context-aware predicate that may fail.
func WhereAwait[T any](source Sequence[T], predicate func(context.Context, T) (bool, error)) Sequence[T] {
	validation.New().NotNil("source", source).NotNil("predicate", predicate).MustPass()
	return where(source, predicate)
}

// where fuses consecutive filters into one iterator with a conjoined
// predicate. The earlier predicate is always evaluated first.
func where[T any](source Sequence[T], predicate func(context.Context, T) (bool, error)) Sequence[T] {
	if w, ok := source.(*whereIter[T]); ok {
		first, second := w.predicate, predicate
		return &whereIter[T]{
			source: w.source,
			predicate: func(ctx context.Context, v T) (bool, error) {
				keep, err := first(ctx, v)
				if err != nil || !keep {
					return false, err
				}
				return second(ctx, v)
			},
		}
	}
	return &whereIter[T]{source: source, predicate: predicate}
}

func (it *whereIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *whereIter[T]) Clone() Iterator[T] {
	return &whereIter[T]{source: it.source, predicate: it.predicate}
}

func (it *whereIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.upstream = it.source.Iter(ctx)
		it.state = stateIterating
		fallthrough
	case stateIterating:
		for {
			ok, err := it.upstream.Next(ctx)
			if err != nil {
				return false, fail(ctx, it, "Where", err)
			}
			if !ok {
				return false, it.Close(ctx)
			}
			v := it.upstream.Current()
			keep, err := it.predicate(ctx, v)
			if err != nil {
				return false, fail(ctx, it, "Where", err)
			}
			if keep {
				return it.yield(v)
			}
		}
	}
	return false, nil
}

func (it *whereIter[T]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.dispose()
	return err
}

type whereIndexedIter[T any] struct {
	iterState[T]
	source    Sequence[T]
	predicate func(context.Context, T, int) (bool, error)
	upstream  Iterator[T]
	index     int
}

// WhereIndexed keeps the elements for which predicate returns true. The
// index counts every upstream element, kept or not, starting at zero.
func WhereIndexed[T any](source Sequence[T], predicate func(T, int) bool) Sequence[T] {
	validation.New().NotNil("source", source).NotNil("predicate", predicate).MustPass()
	return &whereIndexedIter[T]{source: source, predicate: liftIndexed(predicate), index: -1}
}

// WhereIndexedAwait is WhereIndexed with a context-aware predicate.
func WhereIndexedAwait[T any](source Sequence[T], predicate func(context.Context, T, int) (bool, error)) Sequence[T] {
	validation.New().NotNil("source", source).NotNil("predicate", predicate).MustPass()
	return &whereIndexedIter[T]{source: source, predicate: predicate, index: -1}
}

func (it *whereIndexedIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *whereIndexedIter[T]) Clone() Iterator[T] {
	return &whereIndexedIter[T]{source: it.source, predicate: it.predicate, index: -1}
}

func (it *whereIndexedIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.upstream = it.source.Iter(ctx)
		it.state = stateIterating
		fallthrough
	case stateIterating:
		for {
			ok, err := it.upstream.Next(ctx)
			if err != nil {
				return false, fail(ctx, it, "WhereIndexed", err)
			}
			if !ok {
				return false, it.Close(ctx)
			}
			if it.index == math.MaxInt {
				return false, fail(ctx, it, "WhereIndexed", errors.Overflow("WhereIndexed"))
			}
			it.index++
			v := it.upstream.Current()
			keep, err := it.predicate(ctx, v, it.index)
			if err != nil {
				return false, fail(ctx, it, "WhereIndexed", err)
			}
			if keep {
				return it.yield(v)
			}
		}
	}
	return false, nil
}

func (it *whereIndexedIter[T]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.dispose()
	return err
}

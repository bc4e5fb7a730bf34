package seq

import (
	"context"
	"math"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/validation"
)

type selectIter[T, R any] struct {
	iterState[R]
	source   Sequence[T]
	selector func(context.Context, T) (R, error)
	upstream Iterator[T]
}

// Select projects each element through selector.
func Select[T, R any](source Sequence[T], selector func(T) R) Sequence[R] {
	validation.New().NotNil("source", source).NotNil("selector", selector).MustPass()
	return project(source, lift(selector))
}

// SelectAwait is Select with a context-aware selector that may fail.
func SelectAwait[T, R any](source Sequence[T], selector func(context.Context, T) (R, error)) Sequence[R] {
	validation.New().NotNil("source", source).NotNil("selector", selector).MustPass()
	return project(source, selector)
}

// project fuses a projection over a filter into one filter-project iterator.
func project[T, R any](source Sequence[T], selector func(context.Context, T) (R, error)) Sequence[R] {
	if w, ok := source.(*whereIter[T]); ok {
		return &whereSelectIter[T, R]{source: w.source, predicate: w.predicate, selector: selector}
	}
	return &selectIter[T, R]{source: source, selector: selector}
}

func (it *selectIter[T, R]) Iter(context.Context) Iterator[R] { return it.Clone() }
func (it *selectIter[T, R]) Clone() Iterator[R] {
	return &selectIter[T, R]{source: it.source, selector: it.selector}
}

func (it *selectIter[T, R]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.upstream = it.source.Iter(ctx)
		it.state = stateIterating
		fallthrough
	case stateIterating:
		ok, err := it.upstream.Next(ctx)
		if err != nil {
			return false, fail(ctx, it, "Select", err)
		}
		if !ok {
			return false, it.Close(ctx)
		}
		r, err := it.selector(ctx, it.upstream.Current())
		if err != nil {
			return false, fail(ctx, it, "Select", err)
		}
		return it.yield(r)
	}
	return false, nil
}

func (it *selectIter[T, R]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.dispose()
	return err
}

type whereSelectIter[T, R any] struct {
	iterState[R]
	source    Sequence[T]
	predicate func(context.Context, T) (bool, error)
	selector  func(context.Context, T) (R, error)
	upstream  Iterator[T]
}

func (it *whereSelectIter[T, R]) Iter(context.Context) Iterator[R] { return it.Clone() }
func (it *whereSelectIter[T, R]) Clone() Iterator[R] {
	return &whereSelectIter[T, R]{source: it.source, predicate: it.predicate, selector: it.selector}
}

func (it *whereSelectIter[T, R]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.upstream = it.source.Iter(ctx)
		it.state = stateIterating
		fallthrough
	case stateIterating:
		for {
			ok, err := it.upstream.Next(ctx)
			if err != nil {
				return false, fail(ctx, it, "Select", err)
			}
			if !ok {
				return false, it.Close(ctx)
			}
			v := it.upstream.Current()
			keep, err := it.predicate(ctx, v)
			if err != nil {
				return false, fail(ctx, it, "Where", err)
			}
			if !keep {
				continue
			}
			r, err := it.selector(ctx, v)
			if err != nil {
				return false, fail(ctx, it, "Select", err)
			}
			return it.yield(r)
		}
	}
	return false, nil
}

func (it *whereSelectIter[T, R]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.dispose()
	return err
}

type selectIndexedIter[T, R any] struct {
	iterState[R]
	source   Sequence[T]
	selector func(context.Context, T, int) (R, error)
	upstream Iterator[T]
	index    int
}

// SelectIndexed projects each element and its zero-based position.
func SelectIndexed[T, R any](source Sequence[T], selector func(T, int) R) Sequence[R] {
	validation.New().NotNil("source", source).NotNil("selector", selector).MustPass()
	return &selectIndexedIter[T, R]{source: source, selector: liftIndexed(selector), index: -1}
}

// SelectIndexedAwait is SelectIndexed with a context-aware selector.
func SelectIndexedAwait[T, R any](source Sequence[T], selector func(context.Context, T, int) (R, error)) Sequence[R] {
	validation.New().NotNil("source", source).NotNil("selector", selector).MustPass()
	return &selectIndexedIter[T, R]{source: source, selector: selector, index: -1}
}

func (it *selectIndexedIter[T, R]) Iter(context.Context) Iterator[R] { return it.Clone() }
func (it *selectIndexedIter[T, R]) Clone() Iterator[R] {
	return &selectIndexedIter[T, R]{source: it.source, selector: it.selector, index: -1}
}

func (it *selectIndexedIter[T, R]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.upstream = it.source.Iter(ctx)
		it.state = stateIterating
		fallthrough
	case stateIterating:
		ok, err := it.upstream.Next(ctx)
		if err != nil {
			return false, fail(ctx, it, "SelectIndexed", err)
		}
		if !ok {
			return false, it.Close(ctx)
		}
		if it.index == math.MaxInt {
			return false, fail(ctx, it, "SelectIndexed", errors.Overflow("SelectIndexed"))
		}
		it.index++
		r, err := it.selector(ctx, it.upstream.Current(), it.index)
		if err != nil {
			return false, fail(ctx, it, "SelectIndexed", err)
		}
		return it.yield(r)
	}
	return false, nil
}

func (it *selectIndexedIter[T, R]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.dispose()
	return err
}

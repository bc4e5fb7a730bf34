package seq

import (
	"context"

	"github.com/kbukum/seqkit/validation"
)

// --- SelectMany ---

type selectManyIter[T, R any] struct {
	iterState[R]
	source   Sequence[T]
	selector func(context.Context, T) (Sequence[R], error)
	outer    Iterator[T]
	inner    Iterator[R]
}

// SelectMany projects each element to a Sequence and flattens the results
// in order. Each inner sequence is drained before the next outer element is
// pulled.
func SelectMany[T, R any](source Sequence[T], selector func(T) Sequence[R]) Sequence[R] {
	validation.New().NotNil("source", source).NotNil("selector", selector).MustPass()
	return &selectManyIter[T, R]{source: source, selector: lift(selector)}
}

// SelectManyAwait is SelectMany with a context-aware selector.
func SelectManyAwait[T, R any](source Sequence[T], selector func(context.Context, T) (Sequence[R], error)) Sequence[R] {
	validation.New().NotNil("source", source).NotNil("selector", selector).MustPass()
	return &selectManyIter[T, R]{source: source, selector: selector}
}

func (it *selectManyIter[T, R]) Iter(context.Context) Iterator[R] { return it.Clone() }
func (it *selectManyIter[T, R]) Clone() Iterator[R] {
	return &selectManyIter[T, R]{source: it.source, selector: it.selector}
}

func (it *selectManyIter[T, R]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.outer = it.source.Iter(ctx)
		it.state = stateIterating
		fallthrough
	case stateIterating:
		for {
			if it.inner != nil {
				ok, err := it.inner.Next(ctx)
				if err != nil {
					return false, fail(ctx, it, "SelectMany", err)
				}
				if ok {
					return it.yield(it.inner.Current())
				}
				if err := closeUpstream(ctx, &it.inner); err != nil {
					return false, fail(ctx, it, "SelectMany", err)
				}
			}
			ok, err := it.outer.Next(ctx)
			if err != nil {
				return false, fail(ctx, it, "SelectMany", err)
			}
			if !ok {
				return false, it.Close(ctx)
			}
			s, err := it.selector(ctx, it.outer.Current())
			if err != nil {
				return false, fail(ctx, it, "SelectMany", err)
			}
			if s != nil {
				it.inner = s.Iter(ctx)
			}
		}
	}
	return false, nil
}

func (it *selectManyIter[T, R]) Close(ctx context.Context) error {
	innerErr := closeUpstream(ctx, &it.inner)
	outerErr := closeUpstream(ctx, &it.outer)
	it.dispose()
	if innerErr != nil {
		return innerErr
	}
	return outerErr
}

// --- Concat ---

type concatIter[T any] struct {
	iterState[T]
	sources  []Sequence[T]
	index    int
	upstream Iterator[T]
}

// Concat yields the elements of each source in turn. A source is opened only
// after the previous one is exhausted and closed.
func Concat[T any](sources ...Sequence[T]) Sequence[T] {
	v := validation.New()
	for _, s := range sources {
		v.NotNil("sources", s)
	}
	v.MustPass()
	return &concatIter[T]{sources: sources}
}

func (it *concatIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *concatIter[T]) Clone() Iterator[T]               { return &concatIter[T]{sources: it.sources} }

func (it *concatIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.state = stateIterating
		fallthrough
	case stateIterating:
		for {
			if it.upstream == nil {
				if it.index >= len(it.sources) {
					return false, it.Close(ctx)
				}
				it.upstream = it.sources[it.index].Iter(ctx)
				it.index++
			}
			ok, err := it.upstream.Next(ctx)
			if err != nil {
				return false, fail(ctx, it, "Concat", err)
			}
			if ok {
				return it.yield(it.upstream.Current())
			}
			if err := closeUpstream(ctx, &it.upstream); err != nil {
				return false, fail(ctx, it, "Concat", err)
			}
		}
	}
	return false, nil
}

func (it *concatIter[T]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.dispose()
	return err
}

// --- Take / Skip ---

type takeIter[T any] struct {
	iterState[T]
	source   Sequence[T]
	count    int
	taken    int
	upstream Iterator[T]
}

// Take yields at most count elements and then disposes the upstream without
// pulling further.
func Take[T any](source Sequence[T], count int) Sequence[T] {
	validation.New().NotNil("source", source).MustPass()
	return &takeIter[T]{source: source, count: count}
}

func (it *takeIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *takeIter[T]) Clone() Iterator[T] {
	return &takeIter[T]{source: it.source, count: it.count}
}

func (it *takeIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		if it.count <= 0 {
			return false, it.Close(ctx)
		}
		it.upstream = it.source.Iter(ctx)
		it.state = stateIterating
		fallthrough
	case stateIterating:
		if it.taken >= it.count {
			return false, it.Close(ctx)
		}
		ok, err := it.upstream.Next(ctx)
		if err != nil {
			return false, fail(ctx, it, "Take", err)
		}
		if !ok {
			return false, it.Close(ctx)
		}
		it.taken++
		return it.yield(it.upstream.Current())
	}
	return false, nil
}

func (it *takeIter[T]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.dispose()
	return err
}

type skipIter[T any] struct {
	iterState[T]
	source   Sequence[T]
	count    int
	upstream Iterator[T]
}

// Skip drops the first count elements.
func Skip[T any](source Sequence[T], count int) Sequence[T] {
	validation.New().NotNil("source", source).MustPass()
	return &skipIter[T]{source: source, count: count}
}

func (it *skipIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *skipIter[T]) Clone() Iterator[T] {
	return &skipIter[T]{source: it.source, count: it.count}
}

func (it *skipIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.upstream = it.source.Iter(ctx)
		it.state = stateIterating
		for skipped := 0; skipped < it.count; skipped++ {
			ok, err := it.upstream.Next(ctx)
			if err != nil {
				return false, fail(ctx, it, "Skip", err)
			}
			if !ok {
				return false, it.Close(ctx)
			}
		}
		fallthrough
	case stateIterating:
		ok, err := it.upstream.Next(ctx)
		if err != nil {
			return false, fail(ctx, it, "Skip", err)
		}
		if !ok {
			return false, it.Close(ctx)
		}
		return it.yield(it.upstream.Current())
	}
	return false, nil
}

func (it *skipIter[T]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.dispose()
	return err
}

// --- Tap ---

type tapIter[T any] struct {
	iterState[T]
	source   Sequence[T]
	fn       func(context.Context, T) error
	upstream Iterator[T]
}

// Tap calls fn as a side-effect for each value, then passes the value through
// unchanged. An error from fn faults the sequence.
func Tap[T any](source Sequence[T], fn func(context.Context, T) error) Sequence[T] {
	validation.New().NotNil("source", source).NotNil("fn", fn).MustPass()
	return &tapIter[T]{source: source, fn: fn}
}

func (it *tapIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *tapIter[T]) Clone() Iterator[T]               { return &tapIter[T]{source: it.source, fn: it.fn} }

func (it *tapIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.upstream = it.source.Iter(ctx)
		it.state = stateIterating
		fallthrough
	case stateIterating:
		ok, err := it.upstream.Next(ctx)
		if err != nil {
			return false, fail(ctx, it, "Tap", err)
		}
		if !ok {
			return false, it.Close(ctx)
		}
		v := it.upstream.Current()
		if err := it.fn(ctx, v); err != nil {
			return false, fail(ctx, it, "Tap", err)
		}
		return it.yield(v)
	}
	return false, nil
}

func (it *tapIter[T]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.dispose()
	return err
}

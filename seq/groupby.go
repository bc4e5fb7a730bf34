package seq

import (
	"context"

	"github.com/kbukum/seqkit/eq"
	"github.com/kbukum/seqkit/validation"
)

// groupByIter drains its source into a Lookup on the first Next and then
// walks the groupings in first-seen key order.
type groupByIter[T, K, E, R any] struct {
	iterState[R]
	source Sequence[T]
	spec   lookupSpec[T, K, E]
	result func(context.Context, *Grouping[K, E]) (R, error)
	groups []*Grouping[K, E]
	index  int
}

// GroupBy groups elements by key. Groups are yielded in the order their keys
// were first seen, each holding its elements in arrival order.
func GroupBy[T any, K comparable](source Sequence[T], key func(T) K) Sequence[*Grouping[K, T]] {
	validation.New().NotNil("source", source).NotNil("key", key).MustPass()
	return newGroupBy(source, lookupSpec[T, K, T]{key: lift(key), element: identity[T], cmp: eq.Default[K]()}, asGrouping[K, T])
}

// GroupByAwait is GroupBy with a context-aware key selector.
func GroupByAwait[T any, K comparable](source Sequence[T], key func(context.Context, T) (K, error)) Sequence[*Grouping[K, T]] {
	validation.New().NotNil("source", source).NotNil("key", key).MustPass()
	return newGroupBy(source, lookupSpec[T, K, T]{key: key, element: identity[T], cmp: eq.Default[K]()}, asGrouping[K, T])
}

// GroupBySelect groups element(v) by key(v).
func GroupBySelect[T any, K comparable, E any](source Sequence[T], key func(T) K, element func(T) E) Sequence[*Grouping[K, E]] {
	validation.New().NotNil("source", source).NotNil("key", key).NotNil("element", element).MustPass()
	return newGroupBy(source, lookupSpec[T, K, E]{key: lift(key), element: lift(element), cmp: eq.Default[K]()}, asGrouping[K, E])
}

// GroupByWith is the general form with awaited selectors and a custom key
// comparer.
func GroupByWith[T, K, E any](source Sequence[T], key func(context.Context, T) (K, error), element func(context.Context, T) (E, error), cmp eq.Comparer[K]) Sequence[*Grouping[K, E]] {
	validation.New().
		NotNil("source", source).
		NotNil("key", key).
		NotNil("element", element).
		NotNil("comparer", cmp).
		MustPass()
	return newGroupBy(source, lookupSpec[T, K, E]{key: key, element: element, cmp: cmp}, asGrouping[K, E])
}

// GroupByResult groups elements by key and yields result(key, elements)
// for each group.
func GroupByResult[T any, K comparable, R any](source Sequence[T], key func(T) K, result func(K, []T) R) Sequence[R] {
	validation.New().NotNil("source", source).NotNil("key", key).NotNil("result", result).MustPass()
	return newGroupBy(source, lookupSpec[T, K, T]{key: lift(key), element: identity[T], cmp: eq.Default[K]()},
		func(_ context.Context, g *Grouping[K, T]) (R, error) {
			return result(g.key, g.elements), nil
		})
}

func asGrouping[K, E any](_ context.Context, g *Grouping[K, E]) (*Grouping[K, E], error) {
	return g, nil
}

func newGroupBy[T, K, E, R any](source Sequence[T], spec lookupSpec[T, K, E], result func(context.Context, *Grouping[K, E]) (R, error)) Sequence[R] {
	return &groupByIter[T, K, E, R]{source: source, spec: spec, result: result}
}

func (it *groupByIter[T, K, E, R]) Iter(context.Context) Iterator[R] { return it.Clone() }
func (it *groupByIter[T, K, E, R]) Clone() Iterator[R] {
	return &groupByIter[T, K, E, R]{source: it.source, spec: it.spec, result: it.result}
}

func (it *groupByIter[T, K, E, R]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		l, err := buildLookup(ctx, it.source, it.spec)
		if err != nil {
			return false, fail(ctx, it, "GroupBy", err)
		}
		it.groups = l.arena
		it.state = stateIterating
		fallthrough
	case stateIterating:
		if err := ctx.Err(); err != nil {
			return false, fail(ctx, it, "GroupBy", err)
		}
		if it.index >= len(it.groups) {
			return false, it.Close(ctx)
		}
		g := it.groups[it.index]
		it.index++
		r, err := it.result(ctx, g)
		if err != nil {
			return false, fail(ctx, it, "GroupBy", err)
		}
		return it.yield(r)
	}
	return false, nil
}

func (it *groupByIter[T, K, E, R]) Close(context.Context) error {
	it.groups = nil
	it.dispose()
	return nil
}

package seq

import (
	"context"

	"github.com/kbukum/seqkit/eq"
	"github.com/kbukum/seqkit/validation"
)

// joinMode is the phase of a Join while it is Iterating.
type joinMode uint8

const (
	// joinAdvance pulls the next outer element.
	joinAdvance joinMode = iota
	// joinProbe looks up the current outer element's key.
	joinProbe
	// joinEmit yields one result per remaining match.
	joinEmit
)

func (m joinMode) String() string {
	switch m {
	case joinAdvance:
		return "advance"
	case joinProbe:
		return "probe"
	default:
		return "emit"
	}
}

type joinSpec[O, I, K, R any] struct {
	outer    Sequence[O]
	inner    Sequence[I]
	outerKey func(context.Context, O) (K, error)
	innerKey func(context.Context, I) (K, error)
	result   func(context.Context, O, I) (R, error)
	cmp      eq.Comparer[K]
}

// joinIter is an inner equi-join. The inner sequence is drained into a
// Lookup once the outer sequence is known to be non-empty.
type joinIter[O, I, K, R any] struct {
	iterState[R]
	joinSpec[O, I, K, R]
	mode    joinMode
	outerIt Iterator[O]
	lookup  *Lookup[K, I]
	item    O
	matches []I
	match   int
}

// Join correlates outer and inner elements with equal keys and yields
// result(o, i) for every matching pair. Results follow outer order, and for
// one outer element, inner arrival order. Inner elements with a nil key
// never match.
func Join[O, I any, K comparable, R any](outer Sequence[O], inner Sequence[I], outerKey func(O) K, innerKey func(I) K, result func(O, I) R) Sequence[R] {
	validation.New().
		NotNil("outer", outer).
		NotNil("inner", inner).
		NotNil("outerKey", outerKey).
		NotNil("innerKey", innerKey).
		NotNil("result", result).
		MustPass()
	return &joinIter[O, I, K, R]{joinSpec: joinSpec[O, I, K, R]{
		outer: outer, inner: inner,
		outerKey: lift(outerKey), innerKey: lift(innerKey),
		result: lift2(result), cmp: eq.Default[K](),
	}}
}

// JoinAwait is Join with context-aware selectors.
func JoinAwait[O, I any, K comparable, R any](outer Sequence[O], inner Sequence[I], outerKey func(context.Context, O) (K, error), innerKey func(context.Context, I) (K, error), result func(context.Context, O, I) (R, error)) Sequence[R] {
	return JoinWith(outer, inner, outerKey, innerKey, result, eq.Default[K]())
}

// JoinWith is JoinAwait with a custom key comparer.
func JoinWith[O, I, K, R any](outer Sequence[O], inner Sequence[I], outerKey func(context.Context, O) (K, error), innerKey func(context.Context, I) (K, error), result func(context.Context, O, I) (R, error), cmp eq.Comparer[K]) Sequence[R] {
	validation.New().
		NotNil("outer", outer).
		NotNil("inner", inner).
		NotNil("outerKey", outerKey).
		NotNil("innerKey", innerKey).
		NotNil("result", result).
		NotNil("comparer", cmp).
		MustPass()
	return &joinIter[O, I, K, R]{joinSpec: joinSpec[O, I, K, R]{
		outer: outer, inner: inner,
		outerKey: outerKey, innerKey: innerKey,
		result: result, cmp: cmp,
	}}
}

func (it *joinIter[O, I, K, R]) Iter(context.Context) Iterator[R] { return it.Clone() }
func (it *joinIter[O, I, K, R]) Clone() Iterator[R] {
	return &joinIter[O, I, K, R]{joinSpec: it.joinSpec}
}

func (it *joinIter[O, I, K, R]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.outerIt = it.outer.Iter(ctx)
		it.state = stateIterating
		ok, err := it.outerIt.Next(ctx)
		if err != nil {
			return false, fail(ctx, it, "Join", err)
		}
		if !ok {
			return false, it.Close(ctx)
		}
		it.lookup, err = buildLookup(ctx, it.inner, lookupSpec[I, K, I]{
			key: it.innerKey, element: identity[I], cmp: it.cmp, skipAbsent: true,
		})
		if err != nil {
			return false, fail(ctx, it, "Join", err)
		}
		if it.lookup.Count() == 0 {
			return false, it.Close(ctx)
		}
		it.item = it.outerIt.Current()
		it.mode = joinProbe
		fallthrough
	case stateIterating:
		for {
			switch it.mode {
			case joinAdvance:
				ok, err := it.outerIt.Next(ctx)
				if err != nil {
					return false, fail(ctx, it, "Join", err)
				}
				if !ok {
					return false, it.Close(ctx)
				}
				it.item = it.outerIt.Current()
				it.mode = joinProbe
			case joinProbe:
				k, err := it.outerKey(ctx, it.item)
				if err != nil {
					return false, fail(ctx, it, "Join", err)
				}
				it.mode = joinAdvance
				if g := it.lookup.grouping(k, it.cmp.Hash(k), false); g != nil {
					it.matches, it.match = g.elements, 0
					it.mode = joinEmit
				}
			case joinEmit:
				if it.match >= len(it.matches) {
					it.matches = nil
					it.mode = joinAdvance
					continue
				}
				i := it.matches[it.match]
				it.match++
				r, err := it.result(ctx, it.item, i)
				if err != nil {
					return false, fail(ctx, it, "Join", err)
				}
				return it.yield(r)
			}
		}
	}
	return false, nil
}

func (it *joinIter[O, I, K, R]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.outerIt)
	var zero O
	it.item = zero
	it.lookup, it.matches = nil, nil
	it.dispose()
	return err
}

// groupJoinIter yields one result per outer element with all matching inner
// elements, or none.
type groupJoinIter[O, I, K, R any] struct {
	iterState[R]
	outer    Sequence[O]
	inner    Sequence[I]
	outerKey func(context.Context, O) (K, error)
	innerKey func(context.Context, I) (K, error)
	result   func(context.Context, O, []I) (R, error)
	cmp      eq.Comparer[K]
	outerIt  Iterator[O]
	lookup   *Lookup[K, I]
}

// GroupJoin correlates each outer element with the inner elements that
// share its key and yields result(o, matches). Outer elements without a
// match get a nil slice. Results follow outer order. Outer elements with
// equal keys share one matches slice, which must not be modified.
func GroupJoin[O, I any, K comparable, R any](outer Sequence[O], inner Sequence[I], outerKey func(O) K, innerKey func(I) K, result func(O, []I) R) Sequence[R] {
	validation.New().
		NotNil("outer", outer).
		NotNil("inner", inner).
		NotNil("outerKey", outerKey).
		NotNil("innerKey", innerKey).
		NotNil("result", result).
		MustPass()
	return &groupJoinIter[O, I, K, R]{
		outer: outer, inner: inner,
		outerKey: lift(outerKey), innerKey: lift(innerKey),
		result: lift2(result), cmp: eq.Default[K](),
	}
}

// GroupJoinAwait is GroupJoin with context-aware selectors.
func GroupJoinAwait[O, I any, K comparable, R any](outer Sequence[O], inner Sequence[I], outerKey func(context.Context, O) (K, error), innerKey func(context.Context, I) (K, error), result func(context.Context, O, []I) (R, error)) Sequence[R] {
	return GroupJoinWith(outer, inner, outerKey, innerKey, result, eq.Default[K]())
}

// GroupJoinWith is GroupJoinAwait with a custom key comparer.
func GroupJoinWith[O, I, K, R any](outer Sequence[O], inner Sequence[I], outerKey func(context.Context, O) (K, error), innerKey func(context.Context, I) (K, error), result func(context.Context, O, []I) (R, error), cmp eq.Comparer[K]) Sequence[R] {
	validation.New().
		NotNil("outer", outer).
		NotNil("inner", inner).
		NotNil("outerKey", outerKey).
		NotNil("innerKey", innerKey).
		NotNil("result", result).
		NotNil("comparer", cmp).
		MustPass()
	return &groupJoinIter[O, I, K, R]{
		outer: outer, inner: inner,
		outerKey: outerKey, innerKey: innerKey,
		result: result, cmp: cmp,
	}
}

func (it *groupJoinIter[O, I, K, R]) Iter(context.Context) Iterator[R] { return it.Clone() }
func (it *groupJoinIter[O, I, K, R]) Clone() Iterator[R] {
	return &groupJoinIter[O, I, K, R]{
		outer: it.outer, inner: it.inner,
		outerKey: it.outerKey, innerKey: it.innerKey,
		result: it.result, cmp: it.cmp,
	}
}

func (it *groupJoinIter[O, I, K, R]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.outerIt = it.outer.Iter(ctx)
		it.state = stateIterating
		fallthrough
	case stateIterating:
		ok, err := it.outerIt.Next(ctx)
		if err != nil {
			return false, fail(ctx, it, "GroupJoin", err)
		}
		if !ok {
			return false, it.Close(ctx)
		}
		if it.lookup == nil {
			it.lookup, err = buildLookup(ctx, it.inner, lookupSpec[I, K, I]{
				key: it.innerKey, element: identity[I], cmp: it.cmp, skipAbsent: true,
			})
			if err != nil {
				return false, fail(ctx, it, "GroupJoin", err)
			}
		}
		o := it.outerIt.Current()
		k, err := it.outerKey(ctx, o)
		if err != nil {
			return false, fail(ctx, it, "GroupJoin", err)
		}
		var matches []I
		if g := it.lookup.grouping(k, it.cmp.Hash(k), false); g != nil {
			matches = g.elements
		}
		r, err := it.result(ctx, o, matches)
		if err != nil {
			return false, fail(ctx, it, "GroupJoin", err)
		}
		return it.yield(r)
	}
	return false, nil
}

func (it *groupJoinIter[O, I, K, R]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.outerIt)
	it.lookup = nil
	it.dispose()
	return err
}

package seq

import (
	"context"

	"github.com/kbukum/seqkit/eq"
	"github.com/kbukum/seqkit/validation"
)

type distinctIter[T any] struct {
	iterState[T]
	source   Sequence[T]
	cmp      eq.Comparer[T]
	seen     *Lookup[T, struct{}]
	upstream Iterator[T]
}

// Distinct yields each element the first time it is seen.
func Distinct[T comparable](source Sequence[T]) Sequence[T] {
	validation.New().NotNil("source", source).MustPass()
	return &distinctIter[T]{source: source, cmp: eq.Default[T]()}
}

// DistinctWith is Distinct under a custom comparer. The first element of
// each equivalence class is the one yielded.
func DistinctWith[T any](source Sequence[T], cmp eq.Comparer[T]) Sequence[T] {
	validation.New().NotNil("source", source).NotNil("comparer", cmp).MustPass()
	return &distinctIter[T]{source: source, cmp: cmp}
}

func (it *distinctIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *distinctIter[T]) Clone() Iterator[T] {
	return &distinctIter[T]{source: it.source, cmp: it.cmp}
}

func (it *distinctIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.seen = newLookup[T, struct{}](it.cmp)
		it.upstream = it.source.Iter(ctx)
		it.state = stateIterating
		fallthrough
	case stateIterating:
		for {
			ok, err := it.upstream.Next(ctx)
			if err != nil {
				return false, fail(ctx, it, "Distinct", err)
			}
			if !ok {
				return false, it.Close(ctx)
			}
			v := it.upstream.Current()
			n := it.seen.Count()
			it.seen.grouping(v, it.cmp.Hash(v), true)
			if it.seen.Count() > n {
				return it.yield(v)
			}
		}
	}
	return false, nil
}

func (it *distinctIter[T]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.seen = nil
	it.dispose()
	return err
}

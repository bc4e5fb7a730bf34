package seq

import (
	"context"
	"iter"

	"github.com/kbukum/seqkit/logger"
)

// All adapts s for range-over-func. A fault is delivered as the final pair
// with a zero element; breaking out of the loop closes the iterator, and a
// fault from that close is only logged.
//
//	for v, err := range seq.All(ctx, s) {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
func All[T any](ctx context.Context, s Sequence[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := s.Iter(ctx)
		for {
			ok, err := it.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok {
				return
			}
			if !yield(it.Current(), nil) {
				if err := it.Close(ctx); err != nil {
					logger.Get("seq").WithContext(ctx).Debug("close after break failed", logger.ErrorFields("All", err))
				}
				return
			}
		}
	}
}

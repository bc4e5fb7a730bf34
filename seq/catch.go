package seq

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/validation"
)

// catchMode records whether a Catch is still reading its source.
type catchMode uint8

const (
	catchSource catchMode = iota
	catchFallback
)

type catchIter[T any] struct {
	iterState[T]
	source   Sequence[T]
	matches  func(error) bool
	handler  func(context.Context, error) (Sequence[T], error)
	mode     catchMode
	upstream Iterator[T]
}

// Catch switches to the Sequence returned by handler when source faults
// with an error in category E (matched with errors.As). Elements already
// yielded stay yielded. Faults of the fallback, faults outside E and
// cancellation of the caller's context propagate.
func Catch[T any, E error](source Sequence[T], handler func(E) Sequence[T]) Sequence[T] {
	validation.New().NotNil("source", source).NotNil("handler", handler).MustPass()
	return newCatch(source, matchAs[E], func(_ context.Context, err error) (Sequence[T], error) {
		var target E
		stderrors.As(err, &target)
		return handler(target), nil
	})
}

// CatchAwait is Catch with a context-aware handler that may fail.
func CatchAwait[T any, E error](source Sequence[T], handler func(context.Context, E) (Sequence[T], error)) Sequence[T] {
	validation.New().NotNil("source", source).NotNil("handler", handler).MustPass()
	return newCatch(source, matchAs[E], func(ctx context.Context, err error) (Sequence[T], error) {
		var target E
		stderrors.As(err, &target)
		return handler(ctx, target)
	})
}

// CatchIs switches to the Sequence returned by handler when source faults
// with an error matching target under errors.Is.
func CatchIs[T any](source Sequence[T], target error, handler func(error) Sequence[T]) Sequence[T] {
	validation.New().NotNil("source", source).NotNil("target", target).NotNil("handler", handler).MustPass()
	return newCatch(source,
		func(err error) bool { return stderrors.Is(err, target) },
		func(_ context.Context, err error) (Sequence[T], error) { return handler(err), nil })
}

func matchAs[E error](err error) bool {
	var target E
	return stderrors.As(err, &target)
}

func newCatch[T any](source Sequence[T], matches func(error) bool, handler func(context.Context, error) (Sequence[T], error)) Sequence[T] {
	return &catchIter[T]{source: source, matches: matches, handler: handler}
}

func (it *catchIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *catchIter[T]) Clone() Iterator[T] {
	return &catchIter[T]{source: it.source, matches: it.matches, handler: it.handler}
}

func (it *catchIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.upstream = it.source.Iter(ctx)
		it.mode = catchSource
		it.state = stateIterating
		fallthrough
	case stateIterating:
		for {
			ok, err := it.upstream.Next(ctx)
			if err != nil {
				if it.mode != catchSource || ctx.Err() != nil || !it.matches(err) {
					return false, fail(ctx, it, "Catch", err)
				}
				fallback, herr := it.handler(ctx, err)
				if herr != nil {
					return false, fail(ctx, it, "Catch", herr)
				}
				if fallback == nil {
					fallback = Empty[T]()
				}
				logger.Get("seq").WithContext(ctx).Debug("switching to fallback sequence",
					logger.ErrorFields("Catch", err))
				if cerr := closeUpstream(ctx, &it.upstream); cerr != nil {
					logger.Get("seq").Debug("dispose fault suppressed", logger.ErrorFields("Catch", cerr))
				}
				it.upstream = fallback.Iter(ctx)
				it.mode = catchFallback
				continue
			}
			if !ok {
				return false, it.Close(ctx)
			}
			return it.yield(it.upstream.Current())
		}
	}
	return false, nil
}

func (it *catchIter[T]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.dispose()
	return err
}

// catchListIter moves through a list of sources.
type catchListIter[T any] struct {
	iterState[T]
	sources []Sequence[T]
	// resume continues after a source that completed normally.
	resume   bool
	index    int
	upstream Iterator[T]
	lastErr  error
}

// CatchAll yields the first source; if it faults, the next source takes
// over, and so on. The sequence ends when a source completes normally. When
// every source faults, the error of the last one is reported.
func CatchAll[T any](sources ...Sequence[T]) Sequence[T] {
	v := validation.New()
	for _, s := range sources {
		v.NotNil("sources", s)
	}
	v.MustPass()
	return &catchListIter[T]{sources: sources}
}

// OnErrorResumeNext yields every source in turn, moving on when a source
// completes or faults. Faults are dropped.
func OnErrorResumeNext[T any](sources ...Sequence[T]) Sequence[T] {
	v := validation.New()
	for _, s := range sources {
		v.NotNil("sources", s)
	}
	v.MustPass()
	return &catchListIter[T]{sources: sources, resume: true}
}

func (it *catchListIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *catchListIter[T]) Clone() Iterator[T] {
	return &catchListIter[T]{sources: it.sources, resume: it.resume}
}

func (it *catchListIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.state = stateIterating
		fallthrough
	case stateIterating:
		for {
			if it.upstream == nil {
				if it.index >= len(it.sources) {
					if err := it.lastErr; err != nil && !it.resume {
						return false, fail(ctx, it, "CatchAll", err)
					}
					return false, it.Close(ctx)
				}
				it.upstream = it.sources[it.index].Iter(ctx)
				it.index++
			}
			ok, err := it.upstream.Next(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return false, fail(ctx, it, "CatchAll", err)
				}
				it.lastErr = err
				if cerr := closeUpstream(ctx, &it.upstream); cerr != nil {
					logger.Get("seq").Debug("dispose fault suppressed", logger.ErrorFields("CatchAll", cerr))
				}
				continue
			}
			if ok {
				return it.yield(it.upstream.Current())
			}
			it.lastErr = nil
			if err := closeUpstream(ctx, &it.upstream); err != nil {
				return false, fail(ctx, it, "CatchAll", err)
			}
			if !it.resume {
				return false, it.Close(ctx)
			}
		}
	}
	return false, nil
}

func (it *catchListIter[T]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.lastErr = nil
	it.dispose()
	return err
}

package seq

import (
	"context"

	"github.com/kbukum/seqkit/logger"
)

// Iterator pulls elements from a Sequence one at a time.
//
// Next advances and reports whether an element is available. It returns
// false exactly once at end-of-input, disposing the iterator as a side
// effect; after that it keeps returning (false, nil). Any error returned by
// Next has already disposed the iterator.
//
// Current is valid only between a true Next and the following call.
type Iterator[T any] interface {
	Next(ctx context.Context) (bool, error)
	Current() T
	// Close releases upstream resources. Safe to call more than once and on
	// an iterator that was never advanced.
	Close(ctx context.Context) error
	// Clone returns a fresh, unstarted iterator with the same configuration.
	Clone() Iterator[T]
}

// Sequence is a stateless factory of independent Iterators.
type Sequence[T any] interface {
	Iter(ctx context.Context) Iterator[T]
}

// Func adapts a plain function to a Sequence.
type Func[T any] func(ctx context.Context) Iterator[T]

// Iter calls f.
func (f Func[T]) Iter(ctx context.Context) Iterator[T] { return f(ctx) }

type state uint8

const (
	stateAllocated state = iota
	stateIterating
	stateDisposed
)

func (s state) String() string {
	switch s {
	case stateAllocated:
		return "allocated"
	case stateIterating:
		return "iterating"
	default:
		return "disposed"
	}
}

// iterState is embedded by every operator iterator.
type iterState[T any] struct {
	state   state
	current T
}

func (s *iterState[T]) Current() T { return s.current }

func (s *iterState[T]) yield(v T) (bool, error) {
	s.current = v
	return true, nil
}

// dispose moves to Disposed and drops the current element.
func (s *iterState[T]) dispose() {
	var zero T
	s.state = stateDisposed
	s.current = zero
}

type closer interface {
	Close(ctx context.Context) error
}

// fail disposes c after err was observed and returns err. A dispose fault
// is logged and dropped.
func fail(ctx context.Context, c closer, op string, err error) error {
	if cerr := c.Close(ctx); cerr != nil {
		log := logger.Get("seq")
		if log.DebugEnabled() {
			log.WithContext(ctx).Debug("dispose fault suppressed", logger.MergeWithError(
				logger.Fields(logger.FieldOperator, op, "dispose_error", cerr.Error()), err))
		}
	}
	return err
}

// closeUpstream closes an owned upstream iterator, if any.
func closeUpstream[T any](ctx context.Context, it *Iterator[T]) error {
	if *it == nil {
		return nil
	}
	err := (*it).Close(ctx)
	*it = nil
	return err
}

// closeInto closes it and stores the close error in *err unless an earlier
// error is already there.
func closeInto[T any](ctx context.Context, it Iterator[T], err *error) {
	if cerr := it.Close(ctx); cerr != nil && *err == nil {
		*err = cerr
	}
}

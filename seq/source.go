package seq

import (
	"context"
	"math"

	"github.com/kbukum/seqkit/validation"
)

// Stream is the pull shape of an I/O-backed producer. Next returns
// (zero, false, nil) when exhausted; Close is called exactly once.
type Stream[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// --- slice ---

type sliceIter[T any] struct {
	iterState[T]
	items []T
	index int
}

// FromSlice returns a Sequence over items. The slice is not copied.
func FromSlice[T any](items []T) Sequence[T] {
	return &sliceIter[T]{items: items}
}

// Just returns a Sequence over the given values.
func Just[T any](values ...T) Sequence[T] {
	return FromSlice(values)
}

// Empty returns a Sequence with no elements.
func Empty[T any]() Sequence[T] {
	return &sliceIter[T]{}
}

func (it *sliceIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *sliceIter[T]) Clone() Iterator[T]               { return &sliceIter[T]{items: it.items} }

func (it *sliceIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.state = stateIterating
		fallthrough
	case stateIterating:
		if err := ctx.Err(); err != nil {
			return false, fail(ctx, it, "FromSlice", err)
		}
		if it.index < len(it.items) {
			v := it.items[it.index]
			it.index++
			return it.yield(v)
		}
		return false, it.Close(ctx)
	}
	return false, nil
}

func (it *sliceIter[T]) Close(context.Context) error {
	it.dispose()
	return nil
}

// --- range / repeat ---

type rangeIter struct {
	iterState[int]
	start, count int
	emitted      int
}

// Range returns count consecutive integers starting at start.
// It panics if count is negative or the range would overflow int.
func Range(start, count int) Sequence[int] {
	validation.New().
		Min("count", count, 0).
		Custom(count <= 0 || start <= math.MaxInt-(count-1), "count", "range overflows int").
		MustPass()
	return &rangeIter{start: start, count: count}
}

func (it *rangeIter) Iter(context.Context) Iterator[int] { return it.Clone() }
func (it *rangeIter) Clone() Iterator[int]               { return &rangeIter{start: it.start, count: it.count} }

func (it *rangeIter) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.state = stateIterating
		fallthrough
	case stateIterating:
		if err := ctx.Err(); err != nil {
			return false, fail(ctx, it, "Range", err)
		}
		if it.emitted < it.count {
			v := it.start + it.emitted
			it.emitted++
			return it.yield(v)
		}
		return false, it.Close(ctx)
	}
	return false, nil
}

func (it *rangeIter) Close(context.Context) error {
	it.dispose()
	return nil
}

type repeatIter[T any] struct {
	iterState[T]
	value   T
	count   int
	emitted int
}

// Repeat returns a Sequence yielding value count times. A negative count
// repeats forever.
func Repeat[T any](value T, count int) Sequence[T] {
	return &repeatIter[T]{value: value, count: count}
}

func (it *repeatIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *repeatIter[T]) Clone() Iterator[T] {
	return &repeatIter[T]{value: it.value, count: it.count}
}

func (it *repeatIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.state = stateIterating
		fallthrough
	case stateIterating:
		if err := ctx.Err(); err != nil {
			return false, fail(ctx, it, "Repeat", err)
		}
		if it.count < 0 || it.emitted < it.count {
			if it.count >= 0 {
				it.emitted++
			}
			return it.yield(it.value)
		}
		return false, it.Close(ctx)
	}
	return false, nil
}

func (it *repeatIter[T]) Close(context.Context) error {
	it.dispose()
	return nil
}

// --- throw / defer ---

type throwIter[T any] struct {
	iterState[T]
	err error
}

// Throw returns a Sequence whose first Next fails with err.
func Throw[T any](err error) Sequence[T] {
	validation.New().NotNil("err", err).MustPass()
	return &throwIter[T]{err: err}
}

func (it *throwIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *throwIter[T]) Clone() Iterator[T]               { return &throwIter[T]{err: it.err} }

func (it *throwIter[T]) Next(ctx context.Context) (bool, error) {
	if it.state == stateDisposed {
		return false, nil
	}
	it.dispose()
	return false, it.err
}

func (it *throwIter[T]) Close(context.Context) error {
	it.dispose()
	return nil
}

type deferIter[T any] struct {
	iterState[T]
	factory  func(context.Context) (Sequence[T], error)
	upstream Iterator[T]
}

// Defer calls factory on the first Next of every enumeration and iterates
// the Sequence it returns.
func Defer[T any](factory func(ctx context.Context) (Sequence[T], error)) Sequence[T] {
	validation.New().NotNil("factory", factory).MustPass()
	return &deferIter[T]{factory: factory}
}

func (it *deferIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *deferIter[T]) Clone() Iterator[T]               { return &deferIter[T]{factory: it.factory} }

func (it *deferIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		if err := ctx.Err(); err != nil {
			return false, fail(ctx, it, "Defer", err)
		}
		s, err := it.factory(ctx)
		if err != nil {
			return false, fail(ctx, it, "Defer", err)
		}
		if s == nil {
			s = Empty[T]()
		}
		it.upstream = s.Iter(ctx)
		it.state = stateIterating
		fallthrough
	case stateIterating:
		ok, err := it.upstream.Next(ctx)
		if err != nil {
			return false, fail(ctx, it, "Defer", err)
		}
		if ok {
			return it.yield(it.upstream.Current())
		}
		return false, it.Close(ctx)
	}
	return false, nil
}

func (it *deferIter[T]) Close(ctx context.Context) error {
	err := closeUpstream(ctx, &it.upstream)
	it.dispose()
	return err
}

// --- function and stream sources ---

// FromFunc returns a Sequence backed by an Iterator factory.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) Sequence[T] {
	validation.New().NotNil("fn", fn).MustPass()
	return Func[T](fn)
}

type generateIter[T any] struct {
	iterState[T]
	name   string
	open   func(context.Context) (Stream[T], error)
	stream Stream[T]
}

// Generate returns a Sequence over a Stream opened lazily on the first Next
// of each enumeration and closed on end-of-input, error or Close.
func Generate[T any](name string, open func(ctx context.Context) (Stream[T], error)) Sequence[T] {
	validation.New().NotNil("open", open).MustPass()
	return &generateIter[T]{name: name, open: open}
}

func (it *generateIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *generateIter[T]) Clone() Iterator[T] {
	return &generateIter[T]{name: it.name, open: it.open}
}

func (it *generateIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		if err := ctx.Err(); err != nil {
			return false, fail(ctx, it, it.name, err)
		}
		stream, err := it.open(ctx)
		if err != nil {
			return false, fail(ctx, it, it.name, err)
		}
		it.stream = stream
		it.state = stateIterating
		fallthrough
	case stateIterating:
		if err := ctx.Err(); err != nil {
			return false, fail(ctx, it, it.name, err)
		}
		v, ok, err := it.stream.Next(ctx)
		if err != nil {
			return false, fail(ctx, it, it.name, err)
		}
		if ok {
			return it.yield(v)
		}
		return false, it.Close(ctx)
	}
	return false, nil
}

func (it *generateIter[T]) Close(context.Context) error {
	var err error
	if it.stream != nil {
		err = it.stream.Close()
		it.stream = nil
	}
	it.dispose()
	return err
}

type chanIter[T any] struct {
	iterState[T]
	ch <-chan T
}

// FromChannel returns a Sequence receiving from ch until it is closed.
// Enumerations share the channel, so each element is seen by one of them.
func FromChannel[T any](ch <-chan T) Sequence[T] {
	validation.New().NotNil("ch", ch).MustPass()
	return &chanIter[T]{ch: ch}
}

func (it *chanIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *chanIter[T]) Clone() Iterator[T]               { return &chanIter[T]{ch: it.ch} }

func (it *chanIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.state = stateIterating
		fallthrough
	case stateIterating:
		select {
		case v, open := <-it.ch:
			if !open {
				return false, it.Close(ctx)
			}
			return it.yield(v)
		case <-ctx.Done():
			return false, fail(ctx, it, "FromChannel", ctx.Err())
		}
	}
	return false, nil
}

func (it *chanIter[T]) Close(context.Context) error {
	it.dispose()
	return nil
}

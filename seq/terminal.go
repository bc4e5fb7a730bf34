package seq

import (
	"context"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/validation"
)

// ToSlice drains s and returns its elements.
func ToSlice[T any](ctx context.Context, s Sequence[T]) (out []T, err error) {
	validation.New().NotNil("source", s).MustPass()
	it := s.Iter(ctx)
	defer closeInto(ctx, it, &err)
	for {
		ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, it.Current())
	}
}

// ForEach calls fn for every element. An error from fn stops the
// enumeration and is returned.
func ForEach[T any](ctx context.Context, s Sequence[T], fn func(context.Context, T) error) (err error) {
	validation.New().NotNil("source", s).NotNil("fn", fn).MustPass()
	it := s.Iter(ctx)
	defer closeInto(ctx, it, &err)
	for {
		ok, err := it.Next(ctx)
		if err != nil || !ok {
			return err
		}
		if err := fn(ctx, it.Current()); err != nil {
			return err
		}
	}
}

// Count drains s and returns the number of elements.
func Count[T any](ctx context.Context, s Sequence[T]) (int, error) {
	return Aggregate(ctx, s, 0, func(n int, _ T) int { return n + 1 })
}

// Aggregate folds the elements of s into an accumulator.
func Aggregate[T, A any](ctx context.Context, s Sequence[T], seed A, fn func(A, T) A) (acc A, err error) {
	validation.New().NotNil("source", s).NotNil("fn", fn).MustPass()
	acc = seed
	it := s.Iter(ctx)
	defer closeInto(ctx, it, &err)
	for {
		ok, err := it.Next(ctx)
		if err != nil {
			var zero A
			return zero, err
		}
		if !ok {
			return acc, nil
		}
		acc = fn(acc, it.Current())
	}
}

// First returns the first element. It fails with errors.ErrNoElements when
// s is empty and does not pull past the first element.
func First[T any](ctx context.Context, s Sequence[T]) (T, error) {
	v, ok, err := first(ctx, s)
	if err == nil && !ok {
		err = errors.NoElements("First")
	}
	return v, err
}

// FirstOrDefault returns the first element, or def when s is empty.
func FirstOrDefault[T any](ctx context.Context, s Sequence[T], def T) (T, error) {
	v, ok, err := first(ctx, s)
	if err == nil && !ok {
		return def, nil
	}
	return v, err
}

func first[T any](ctx context.Context, s Sequence[T]) (v T, found bool, err error) {
	validation.New().NotNil("source", s).MustPass()
	it := s.Iter(ctx)
	defer closeInto(ctx, it, &err)
	ok, err := it.Next(ctx)
	if err != nil || !ok {
		return v, false, err
	}
	return it.Current(), true, nil
}

// Single returns the only element. It fails with errors.ErrNoElements when
// s is empty and with errors.ErrMoreThanOne as soon as a second element is
// seen.
func Single[T any](ctx context.Context, s Sequence[T]) (T, error) {
	v, ok, err := single(ctx, s, "Single")
	if err == nil && !ok {
		err = errors.NoElements("Single")
	}
	return v, err
}

// SingleOrDefault returns the only element, or def when s is empty. More
// than one element is still an error.
func SingleOrDefault[T any](ctx context.Context, s Sequence[T], def T) (T, error) {
	v, ok, err := single(ctx, s, "SingleOrDefault")
	if err == nil && !ok {
		return def, nil
	}
	return v, err
}

func single[T any](ctx context.Context, s Sequence[T], op string) (v T, found bool, err error) {
	validation.New().NotNil("source", s).MustPass()
	it := s.Iter(ctx)
	defer closeInto(ctx, it, &err)
	ok, err := it.Next(ctx)
	if err != nil || !ok {
		return v, false, err
	}
	v = it.Current()
	ok, err = it.Next(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if ok {
		var zero T
		return zero, false, errors.MoreThanOne(op)
	}
	return v, true, nil
}

// Any reports whether some element satisfies predicate. It stops at the
// first match.
func Any[T any](ctx context.Context, s Sequence[T], predicate func(T) bool) (bool, error) {
	validation.New().NotNil("predicate", predicate).MustPass()
	_, ok, err := first(ctx, Where(s, predicate))
	return ok, err
}

// Contains reports whether s holds an element equal to value.
func Contains[T comparable](ctx context.Context, s Sequence[T], value T) (bool, error) {
	return Any(ctx, s, func(v T) bool { return v == value })
}

// ToMap drains s into a map keyed by key. A repeated key is an
// INVALID_ARGUMENT error.
func ToMap[T any, K comparable](ctx context.Context, s Sequence[T], key func(T) K) (m map[K]T, err error) {
	validation.New().NotNil("source", s).NotNil("key", key).MustPass()
	m = make(map[K]T)
	it := s.Iter(ctx)
	defer closeInto(ctx, it, &err)
	for {
		ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return m, nil
		}
		v := it.Current()
		k := key(v)
		if _, dup := m[k]; dup {
			return nil, errors.InvalidArgument("key", "duplicate key").WithDetail("key", k)
		}
		m[k] = v
	}
}

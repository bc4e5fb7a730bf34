package seq

import "context"

// lift adapts a synchronous selector to the awaited form used internally.
func lift[T, R any](fn func(T) R) func(context.Context, T) (R, error) {
	return func(_ context.Context, v T) (R, error) {
		return fn(v), nil
	}
}

func lift2[A, B, R any](fn func(A, B) R) func(context.Context, A, B) (R, error) {
	return func(_ context.Context, a A, b B) (R, error) {
		return fn(a, b), nil
	}
}

func liftIndexed[T, R any](fn func(T, int) R) func(context.Context, T, int) (R, error) {
	return func(_ context.Context, v T, i int) (R, error) {
		return fn(v, i), nil
	}
}

func identity[T any](_ context.Context, v T) (T, error) { return v, nil }

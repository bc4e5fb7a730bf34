package seq

import (
	"context"
	"reflect"
	"slices"

	"github.com/kbukum/seqkit/eq"
	"github.com/kbukum/seqkit/validation"
)

// Grouping is a key and the elements that mapped to it, in arrival order.
// A Grouping is itself a Sequence over its elements.
type Grouping[K, E any] struct {
	key      K
	hash     uint64
	elements []E
	next     int32
}

// Key returns the grouping key.
func (g *Grouping[K, E]) Key() K { return g.key }

// Elements returns the elements in arrival order. The slice is shared and
// must not be modified.
func (g *Grouping[K, E]) Elements() []E { return g.elements }

// Len returns the number of elements.
func (g *Grouping[K, E]) Len() int { return len(g.elements) }

// Iter iterates the elements.
func (g *Grouping[K, E]) Iter(ctx context.Context) Iterator[E] {
	return FromSlice(g.elements).Iter(ctx)
}

const initialBuckets = 7

// Lookup is an immutable multimap from keys to groupings. Groupings are
// enumerated in the order their keys were first seen.
//
// Groupings live in an append-only arena addressed by index, so arena order
// is insertion order. Buckets hold the arena index of the chain head and each
// grouping links to the next one in its chain.
type Lookup[K, E any] struct {
	cmp     eq.Comparer[K]
	arena   []*Grouping[K, E]
	buckets []int32
}

func newLookup[K, E any](cmp eq.Comparer[K]) *Lookup[K, E] {
	l := &Lookup[K, E]{cmp: cmp, buckets: make([]int32, initialBuckets)}
	for i := range l.buckets {
		l.buckets[i] = -1
	}
	return l
}

// Count returns the number of distinct keys.
func (l *Lookup[K, E]) Count() int { return len(l.arena) }

// Get returns the grouping for key.
func (l *Lookup[K, E]) Get(key K) (*Grouping[K, E], bool) {
	g := l.grouping(key, l.cmp.Hash(key), false)
	return g, g != nil
}

// Elements returns the elements stored under key, or nil.
func (l *Lookup[K, E]) Elements(key K) []E {
	if g, ok := l.Get(key); ok {
		return g.elements
	}
	return nil
}

// Contains reports whether key has a grouping.
func (l *Lookup[K, E]) Contains(key K) bool {
	_, ok := l.Get(key)
	return ok
}

// Groupings returns the groupings in first-seen key order.
func (l *Lookup[K, E]) Groupings() []*Grouping[K, E] {
	return slices.Clone(l.arena)
}

// Iter iterates the groupings in first-seen key order.
func (l *Lookup[K, E]) Iter(ctx context.Context) Iterator[*Grouping[K, E]] {
	return FromSlice(l.arena).Iter(ctx)
}

// grouping finds the grouping for key, creating it when create is set.
// hash must be cmp.Hash(key); it is computed once per element by callers.
func (l *Lookup[K, E]) grouping(key K, hash uint64, create bool) *Grouping[K, E] {
	for i := l.buckets[hash%uint64(len(l.buckets))]; i >= 0; i = l.arena[i].next {
		g := l.arena[i]
		if g.hash == hash && l.cmp.Equal(g.key, key) {
			return g
		}
	}
	if !create {
		return nil
	}
	if len(l.arena) == len(l.buckets) {
		l.resize()
	}
	b := hash % uint64(len(l.buckets))
	g := &Grouping[K, E]{key: key, hash: hash, next: l.buckets[b]}
	l.buckets[b] = int32(len(l.arena))
	l.arena = append(l.arena, g)
	return g
}

// resize grows the bucket table to 2*count+1 and relinks every grouping in
// insertion order.
func (l *Lookup[K, E]) resize() {
	size := uint64(2*len(l.arena) + 1)
	buckets := make([]int32, size)
	for i := range buckets {
		buckets[i] = -1
	}
	for i, g := range l.arena {
		b := g.hash % size
		g.next = buckets[b]
		buckets[b] = int32(i)
	}
	l.buckets = buckets
}

func (l *Lookup[K, E]) add(key K, e E) {
	g := l.grouping(key, l.cmp.Hash(key), true)
	g.elements = append(g.elements, e)
}

// seal trims every grouping to its exact length before it is exposed.
func (l *Lookup[K, E]) seal() {
	for _, g := range l.arena {
		g.elements = slices.Clip(g.elements)
	}
}

// lookupSpec configures one Lookup build.
type lookupSpec[T, K, E any] struct {
	key     func(context.Context, T) (K, error)
	element func(context.Context, T) (E, error)
	cmp     eq.Comparer[K]
	// skipAbsent drops elements whose key is nil. Join construction sets it.
	skipAbsent bool
}

// buildLookup drains source into a new Lookup. The source iterator is
// always closed; an advance or selector error takes priority over a close
// error.
func buildLookup[T, K, E any](ctx context.Context, source Sequence[T], spec lookupSpec[T, K, E]) (l *Lookup[K, E], err error) {
	l = newLookup[K, E](spec.cmp)
	skip := spec.skipAbsent && nilable[K]()
	it := source.Iter(ctx)
	defer closeInto(ctx, it, &err)
	for {
		ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		v := it.Current()
		k, err := spec.key(ctx, v)
		if err != nil {
			return nil, err
		}
		if skip && validation.IsNil(k) {
			continue
		}
		e, err := spec.element(ctx, v)
		if err != nil {
			return nil, err
		}
		l.add(k, e)
	}
	l.seal()
	return l, nil
}

// nilable reports whether values of K can be nil.
func nilable[K any]() bool {
	switch reflect.TypeFor[K]().Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// --- ToLookup ---

// ToLookup drains source into a Lookup keyed by key.
func ToLookup[T any, K comparable](ctx context.Context, source Sequence[T], key func(T) K) (*Lookup[K, T], error) {
	validation.New().NotNil("source", source).NotNil("key", key).MustPass()
	return buildLookup(ctx, source, lookupSpec[T, K, T]{key: lift(key), element: identity[T], cmp: eq.Default[K]()})
}

// ToLookupAwait is ToLookup with a context-aware key selector.
func ToLookupAwait[T any, K comparable](ctx context.Context, source Sequence[T], key func(context.Context, T) (K, error)) (*Lookup[K, T], error) {
	validation.New().NotNil("source", source).NotNil("key", key).MustPass()
	return buildLookup(ctx, source, lookupSpec[T, K, T]{key: key, element: identity[T], cmp: eq.Default[K]()})
}

// ToLookupSelect stores element(v) instead of v.
func ToLookupSelect[T any, K comparable, E any](ctx context.Context, source Sequence[T], key func(T) K, element func(T) E) (*Lookup[K, E], error) {
	validation.New().NotNil("source", source).NotNil("key", key).NotNil("element", element).MustPass()
	return buildLookup(ctx, source, lookupSpec[T, K, E]{key: lift(key), element: lift(element), cmp: eq.Default[K]()})
}

// ToLookupWith is the general form: awaited key and element selectors and a
// custom key comparer.
func ToLookupWith[T, K, E any](ctx context.Context, source Sequence[T], key func(context.Context, T) (K, error), element func(context.Context, T) (E, error), cmp eq.Comparer[K]) (*Lookup[K, E], error) {
	validation.New().
		NotNil("source", source).
		NotNil("key", key).
		NotNil("element", element).
		NotNil("comparer", cmp).
		MustPass()
	return buildLookup(ctx, source, lookupSpec[T, K, E]{key: key, element: element, cmp: cmp})
}

// Package seq provides lazily-evaluated, pull-based sequence operators over
// asynchronous sources.
//
// A Sequence is a stateless factory of Iterators. Nothing runs until a
// terminal (ToSlice, ForEach, First, ...) or a caller pulls an Iterator with
// Next. Every Next observes its context, and every suspension point (upstream
// pull, awaited selector, source I/O) is a place where cancellation is seen.
//
// # Iterator lifecycle
//
// Each Iterator is a small state machine: Allocated, then Iterating after the
// first Next, then Disposed at end-of-input, on error, or on Close. Close is
// idempotent and releases exactly the upstream iterators the operator opened.
// Clone returns a fresh, independently consumable Iterator with the same
// configuration.
//
// # Operators
//
//	users := seq.FromSlice(rows)
//	active := seq.Where(users, func(u User) bool { return u.Active })
//	names := seq.Select(active, func(u User) string { return u.Name })
//	out, err := seq.ToSlice(ctx, names)
//
// Where over Where, and Select over Where, fuse into a single iterator.
// Join, GroupJoin, GroupBy, ToLookup and Distinct are backed by a Lookup, an
// insertion-ordered hash multimap keyed through an eq.Comparer.
//
// # Errors
//
// Nil sources, selectors and comparers panic with an
// errors.ErrCodeMissingArgument AppError when the operator is built.
// Enumeration faults are returned from Next after the iterator has disposed
// itself; only Catch and its relatives recover from them.
package seq

// Package kvsource exposes boltdb buckets as seq Sequences.
//
// Each enumeration of Bucket or Prefix runs inside its own read transaction,
// begun on the first Next and rolled back when the iterator is disposed, so a
// pipeline that stops early (First, Take, a cancelled context) releases the
// transaction at once. Load drains a Sequence into a bucket inside a single
// update transaction.
//
// Values are decoded while the transaction is open. A Decoder must not keep
// the byte slice it is given.
package kvsource

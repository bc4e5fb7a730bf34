package kvsource

import (
	"bytes"
	"context"

	"github.com/boltdb/bolt"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/seq"
	"github.com/kbukum/seqkit/validation"
)

// Record is one key/value pair read from a bucket.
type Record[T any] struct {
	Key   string `json:"key"`
	Value T      `json:"value"`
}

// Bucket returns a Sequence over every record of bucket in key order.
// A bucket that does not exist yet reads as empty.
func Bucket[T any](s *Store, bucket string, decode Decoder[T]) seq.Sequence[Record[T]] {
	return Prefix(s, bucket, "", decode)
}

// Prefix returns a Sequence over the records of bucket whose key starts with
// prefix, in key order.
func Prefix[T any](s *Store, bucket, prefix string, decode Decoder[T]) seq.Sequence[Record[T]] {
	validation.New().
		NotNil("store", s).
		Required("bucket", bucket).
		NotNil("decode", decode).
		MustPass()

	name := "bolt:" + bucket
	return seq.Generate(name, func(ctx context.Context) (seq.Stream[Record[T]], error) {
		tx, err := s.db.Begin(false)
		if err != nil {
			return nil, errors.SourceFailed(name, err)
		}
		c := &cursorStream[T]{tx: tx, prefix: []byte(prefix), decode: decode, source: name}
		if b := tx.Bucket([]byte(bucket)); b != nil {
			c.cursor = b.Cursor()
		}
		return c, nil
	})
}

type cursorStream[T any] struct {
	tx      *bolt.Tx
	cursor  *bolt.Cursor
	prefix  []byte
	decode  Decoder[T]
	source  string
	started bool
}

func (c *cursorStream[T]) Next(context.Context) (Record[T], bool, error) {
	var zero Record[T]
	if c.cursor == nil {
		return zero, false, nil
	}

	var k, v []byte
	if !c.started {
		c.started = true
		k, v = c.cursor.Seek(c.prefix)
	} else {
		k, v = c.cursor.Next()
	}
	// nested buckets have a nil value
	for k != nil && v == nil {
		k, v = c.cursor.Next()
	}
	if k == nil || !bytes.HasPrefix(k, c.prefix) {
		return zero, false, nil
	}

	val, err := c.decode(v)
	if err != nil {
		return zero, false, errors.Decode(c.source, err).WithDetail("key", string(k))
	}
	return Record[T]{Key: string(k), Value: val}, true, nil
}

func (c *cursorStream[T]) Close() error {
	return c.tx.Rollback()
}

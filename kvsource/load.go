package kvsource

import (
	"context"
	"time"

	"github.com/boltdb/bolt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
	"github.com/kbukum/seqkit/seq"
	"github.com/kbukum/seqkit/validation"
)

// Put stores a single value under key.
func Put[T any](s *Store, bucket, key string, v T, encode Encoder[T]) error {
	data, err := encode(v)
	if err != nil {
		return errors.InvalidArgument("value", err.Error()).WithCause(err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// Load drains src into bucket inside one update transaction and returns the
// number of records written. A later element with the same key replaces an
// earlier one. Any fault rolls the whole load back.
//
// src must not read from s: bolt allows a single writer, and a read
// transaction held by the same goroutine can block it.
func Load[T any](ctx context.Context, s *Store, bucket string, src seq.Sequence[T], key func(T) string, encode Encoder[T]) (n int, err error) {
	validation.New().
		NotNil("store", s).
		Required("bucket", bucket).
		NotNil("src", src).
		NotNil("key", key).
		NotNil("encode", encode).
		MustPass()

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanStoreLoad)
	span.SetAttributes(attribute.String(observability.AttrSequence, bucket))
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.log.Error("load failed", logger.MergeWithError(logger.Fields(logger.FieldBucket, bucket), err))
		} else {
			s.log.Debug("load committed", logger.Fields(logger.FieldBucket, bucket, logger.FieldElements, n))
		}
		span.SetAttributes(attribute.Int(observability.AttrElements, n))
		span.End()
		if s.metrics != nil {
			s.metrics.RecordOperation(ctx, "kvsource", "load", status, time.Since(start))
			if err != nil {
				s.metrics.RecordError(ctx, string(errors.CodeOf(err)), "kvsource")
			}
		}
	}()

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return errors.SourceFailed("bolt:"+bucket, err)
		}
		return seq.ForEach(ctx, src, func(_ context.Context, v T) error {
			data, err := encode(v)
			if err != nil {
				return errors.InvalidArgument("value", err.Error()).WithCause(err)
			}
			if err := b.Put([]byte(key(v)), data); err != nil {
				return errors.SourceFailed("bolt:"+bucket, err)
			}
			n++
			return nil
		})
	})
	if err != nil {
		n = 0
	}
	return n, err
}

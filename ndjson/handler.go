package ndjson

import (
	"bufio"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
	"github.com/kbukum/seqkit/seq"
)

// HandlerOptions configures Handler and HandlerFunc.
type HandlerOptions struct {
	// Service names the server in spans and request metrics.
	Service string
	// Metrics, if set, receives one request per response.
	Metrics *observability.Metrics
	// FlushEvery flushes after this many elements. Defaults to 1.
	FlushEvery int
}

// Handler serves s as NDJSON. See HandlerFunc.
func Handler[T any](s seq.Sequence[T], opts HandlerOptions) gin.HandlerFunc {
	return HandlerFunc(func(*gin.Context) (seq.Sequence[T], error) { return s, nil }, opts)
}

// HandlerFunc serves the Sequence built by build for each request.
//
// A fault raised before the first element is answered with the error's HTTP
// status and a JSON error body. Once streaming has started the status is
// already sent, so a later fault is written as a final {"error": ...} line.
// A client disconnect cancels the request context and disposes the iterator.
func HandlerFunc[T any](build func(*gin.Context) (seq.Sequence[T], error), opts HandlerOptions) gin.HandlerFunc {
	if opts.Service == "" {
		opts.Service = "ndjson"
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = 1
	}
	log := logger.Get("ndjson")

	return func(c *gin.Context) {
		requestID := c.GetString("request_id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		oc := observability.NewOperationContext(opts.Service, c.FullPath(), requestID, opts.Metrics)
		ctx, span := oc.StartSpan(c.Request.Context(), observability.SpanHTTPRequest)

		n, err := stream(ctx, c, build, opts.FlushEvery)

		status := "ok"
		switch {
		case err != nil && ctx.Err() != nil:
			status = "canceled"
			log.Debug("client went away", logger.Fields(logger.FieldRequestID, requestID, logger.FieldElements, n))
		case err != nil:
			status = "error"
			log.Warn("stream failed", logger.MergeWithError(
				logger.Fields(logger.FieldRequestID, requestID, logger.FieldElements, n), err))
		}
		oc.End(ctx, span, status, err)
	}
}

func stream[T any](ctx context.Context, c *gin.Context, build func(*gin.Context) (seq.Sequence[T], error), flushEvery int) (n int, err error) {
	s, err := build(c)
	if err != nil {
		status, body := errors.Respond(err)
		c.JSON(status, body)
		return 0, err
	}

	it := s.Iter(ctx)
	defer func() {
		if cerr := it.Close(ctx); err == nil {
			err = cerr
		}
	}()

	ok, err := it.Next(ctx)
	if err != nil {
		status, body := errors.Respond(err)
		c.JSON(status, body)
		return 0, err
	}

	c.Header("Content-Type", ContentType)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)

	w := bufio.NewWriter(c.Writer)
	enc := json.NewEncoder(w)
	for ok {
		if err = enc.Encode(it.Current()); err != nil {
			return n, err
		}
		n++
		if n%flushEvery == 0 {
			if err = flush(w, c.Writer); err != nil {
				return n, err
			}
		}
		ok, err = it.Next(ctx)
	}
	if err != nil {
		_, body := errors.Respond(err)
		_ = enc.Encode(body)
	}
	if ferr := flush(w, c.Writer); err == nil {
		err = ferr
	}
	return n, err
}

func flush(w *bufio.Writer, rw gin.ResponseWriter) error {
	if err := w.Flush(); err != nil {
		return err
	}
	rw.Flush()
	return nil
}

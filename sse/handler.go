package sse

import (
	"context"
	"net/http"
	"strconv"
	"time"

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
	// KeepAlive is the interval of keep-alive comments while no element is
	// ready. Defaults to 30s; a negative value disables them.
	KeepAlive time.Duration
}

// Handler serves s as an event stream. See HandlerFunc.
func Handler[T any](s seq.Sequence[T], opts HandlerOptions) gin.HandlerFunc {
	return HandlerFunc(func(*gin.Context) (seq.Sequence[T], error) { return s, nil }, opts)
}

// HandlerFunc serves the Sequence built by build for each request. A build
// error is answered with its HTTP status; every later fault becomes an error
// event. A client disconnect cancels the enumeration and disposes the
// iterator before the handler returns.
func HandlerFunc[T any](build func(*gin.Context) (seq.Sequence[T], error), opts HandlerOptions) gin.HandlerFunc {
	if opts.Service == "" {
		opts.Service = "sse"
	}
	if opts.KeepAlive == 0 {
		opts.KeepAlive = 30 * time.Second
	}
	log := logger.Get("sse")

	return func(c *gin.Context) {
		requestID := c.GetString("request_id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		oc := observability.NewOperationContext(opts.Service, c.FullPath(), requestID, opts.Metrics)
		ctx, span := oc.StartSpan(c.Request.Context(), observability.SpanHTTPRequest)

		s, err := build(c)
		if err != nil {
			c.JSON(errors.Respond(err))
			oc.End(ctx, span, "error", err)
			return
		}

		// long-lived response, the server's write timeout must not cut it
		if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
			log.Debug("write deadline not cleared", logger.Fields(logger.FieldRequestID, requestID, logger.FieldError, err.Error()))
		}
		c.Header("Content-Type", ContentType)
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.Writer.Flush()

		n, err := stream(ctx, c.Writer, s, opts.KeepAlive)

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

type pulled[T any] struct {
	value T
	err   error
}

// stream pulls s on its own goroutine so keep-alives can be written while a
// Next call blocks. It returns after the iterator has been disposed.
func stream[T any](ctx context.Context, w gin.ResponseWriter, s seq.Sequence[T], keepAlive time.Duration) (n int, err error) {
	ctx, cancel := context.WithCancel(ctx)
	items := make(chan pulled[T])
	go func() {
		defer close(items)
		for v, err := range seq.All(ctx, s) {
			select {
			case items <- pulled[T]{v, err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	defer func() {
		cancel()
		for range items {
		}
	}()

	var tick <-chan time.Time
	if keepAlive > 0 {
		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case <-tick:
			if err := writeComment(w, "keepalive"); err != nil {
				return n, err
			}
			w.Flush()
		case it, ok := <-items:
			if !ok {
				if err := ctx.Err(); err != nil {
					return n, err
				}
				data, _ := json.Marshal(endData{Elements: n})
				if err := writeEvent(w, Event{Name: EventEnd, Data: data}); err != nil {
					return n, err
				}
				w.Flush()
				return n, nil
			}
			if it.err != nil {
				_, body := errors.Respond(it.err)
				data, _ := json.Marshal(body)
				_ = writeEvent(w, Event{Name: EventError, Data: data})
				w.Flush()
				return n, it.err
			}
			data, err := json.Marshal(it.value)
			if err != nil {
				return n, err
			}
			n++
			if err := writeEvent(w, Event{ID: strconv.Itoa(n), Name: EventElement, Data: data}); err != nil {
				return n, err
			}
			w.Flush()
		}
	}
}

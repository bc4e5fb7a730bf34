package ndjson

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/resilience"
	"github.com/kbukum/seqkit/seq"
	"github.com/kbukum/seqkit/validation"
)

// ContentType is the media type of an NDJSON body.
const ContentType = "application/x-ndjson"

const defaultMaxLine = 1 << 20

// Options configures Source.
type Options struct {
	// Header is added to every request.
	Header http.Header
	// Retry controls how opening the stream is retried. The zero value
	// retries transient failures three times.
	Retry resilience.RetryConfig
	// Breaker, if set, refuses to open the stream while it is open.
	Breaker *resilience.CircuitBreaker
	// MaxLineSize bounds a single line. Defaults to 1 MiB.
	MaxLineSize int
}

// Source returns a Sequence of the values in the NDJSON document at url.
// Blank lines are skipped. A line that does not decode faults the enumeration
// with a DECODE_FAILED error carrying the line number.
func Source[T any](client *http.Client, url string, opts Options) seq.Sequence[T] {
	validation.New().NotNil("client", client).Required("url", url).MustPass()

	if opts.MaxLineSize <= 0 {
		opts.MaxLineSize = defaultMaxLine
	}
	if opts.Retry.Name == "" {
		opts.Retry.Name = url
	}
	if opts.Retry.RetryIf == nil {
		opts.Retry.RetryIf = retryable
	}

	get := func(ctx context.Context) (*http.Response, error) {
		return fetch(ctx, client, url, opts.Header)
	}
	if opts.Breaker != nil {
		get = resilience.Guard(opts.Breaker, get)
	}

	return seq.Generate(url, func(ctx context.Context) (seq.Stream[T], error) {
		resp, err := resilience.Retry(ctx, opts.Retry, get)
		if err != nil {
			return nil, err
		}
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), opts.MaxLineSize)
		return &lineStream[T]{body: resp.Body, scanner: sc, url: url}, nil
	})
}

func fetch(ctx context.Context, client *http.Client, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.InvalidArgument("url", err.Error()).WithCause(err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", ContentType)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.SourceFailed(url, err)
	}
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, errors.SourceFailed(url, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))).
			WithDetail("status", resp.StatusCode)
	}
	return resp, nil
}

// retryable is resilience.Retryable, except that a 4xx answer other than 429
// is final.
func retryable(err error) bool {
	if appErr, ok := errors.AsAppError(err); ok {
		if status, ok := appErr.Details["status"].(int); ok && status < 500 && status != http.StatusTooManyRequests {
			return false
		}
	}
	return resilience.Retryable(err)
}

type lineStream[T any] struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	url     string
	line    int
}

func (s *lineStream[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for s.scanner.Scan() {
		s.line++
		raw := bytes.TrimSpace(s.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return zero, false, errors.Decode(s.url, err).WithDetail("line", s.line)
		}
		return v, true, nil
	}
	if err := s.scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return zero, false, ctx.Err()
		}
		return zero, false, errors.SourceFailed(s.url, err).WithDetail("line", s.line+1)
	}
	return zero, false, nil
}

func (s *lineStream[T]) Close() error {
	return s.body.Close()
}

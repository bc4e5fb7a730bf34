package sse

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/resilience"
	"github.com/kbukum/seqkit/seq"
	"github.com/kbukum/seqkit/validation"
)

// Options configures Source.
type Options struct {
	// Header is added to every request.
	Header http.Header
	// Retry controls how opening the stream is retried.
	Retry resilience.RetryConfig
	// Breaker, if set, refuses to open the stream while it is open.
	Breaker *resilience.CircuitBreaker
}

// Source returns a Sequence of the element events of the stream at url.
// An error event faults the enumeration with the error it carries. A stream
// that ends without an end event faults with SOURCE_FAILED.
func Source[T any](client *http.Client, url string, opts Options) seq.Sequence[T] {
	validation.New().NotNil("client", client).Required("url", url).MustPass()

	if opts.Retry.Name == "" {
		opts.Retry.Name = url
	}
	get := func(ctx context.Context) (*http.Response, error) {
		return open(ctx, client, url, opts.Header)
	}
	if opts.Breaker != nil {
		get = resilience.Guard(opts.Breaker, get)
	}

	return seq.Generate(url, func(ctx context.Context) (seq.Stream[T], error) {
		resp, err := resilience.Retry(ctx, opts.Retry, get)
		if err != nil {
			return nil, err
		}
		return &eventStream[T]{body: resp.Body, events: NewReader(resp.Body), url: url}, nil
	})
}

func open(ctx context.Context, client *http.Client, url string, header http.Header) (*http.Response, error) {
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
		return nil, errors.SourceFailed(url, err)
	}
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, errors.SourceFailed(url, fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(snippet))).
			WithDetail("status", resp.StatusCode)
	}
	return resp, nil
}

type eventStream[T any] struct {
	body   io.ReadCloser
	events *Reader
	url    string
	ended  bool
}

func (s *eventStream[T]) Next(context.Context) (T, bool, error) {
	var zero T
	if s.ended {
		return zero, false, nil
	}
	for {
		ev, err := s.events.Next()
		if err == io.EOF {
			return zero, false, errors.SourceFailed(s.url, io.ErrUnexpectedEOF)
		}
		if err != nil {
			return zero, false, errors.SourceFailed(s.url, err)
		}

		switch ev.Name {
		case EventElement:
			var v T
			if err := json.Unmarshal(ev.Data, &v); err != nil {
				return zero, false, errors.Decode(s.url, err).WithDetail("id", ev.ID)
			}
			return v, true, nil
		case EventEnd:
			s.ended = true
			return zero, false, nil
		case EventError:
			var body errors.ErrorResponse
			if err := json.Unmarshal(ev.Data, &body); err != nil {
				return zero, false, errors.Decode(s.url, err)
			}
			return zero, false, &errors.AppError{Code: body.Error.Code, Message: body.Error.Message, Details: body.Error.Details}
		}
	}
}

func (s *eventStream[T]) Close() error {
	return s.body.Close()
}

// Reader splits an event stream into events. Comments and fields other than
// id, event and data are dropped.
type Reader struct {
	sc *bufio.Scanner
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &Reader{sc: sc}
}

// Next returns the next dispatched event, or io.EOF at the end of input.
func (r *Reader) Next() (Event, error) {
	var ev Event
	var data []string
	seen := false
	for r.sc.Scan() {
		line := r.sc.Text()
		if line == "" {
			if !seen {
				continue
			}
			ev.Data = []byte(strings.Join(data, "\n"))
			return ev, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			ev.ID = value
		case "event":
			ev.Name = value
		case "data":
			data = append(data, value)
		default:
			continue
		}
		seen = true
	}
	if err := r.sc.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

package sse

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/seq"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tick struct {
	N int `json:"n"`
}

func ticks(n int) seq.Sequence[tick] {
	return seq.Select(seq.Range(1, n), func(i int) tick { return tick{N: i} })
}

func newRouter(h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/events", h)
	return r
}

func readAll(t *testing.T, body string) []Event {
	t.Helper()
	var out []Event
	r := NewReader(strings.NewReader(body))
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, ev)
	}
}

func TestHandler_StreamsElementsThenEnd(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(Handler(ticks(3), HandlerOptions{})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType, w.Header().Get("Content-Type"))
	events := readAll(t, w.Body.String())
	require.Len(t, events, 4)
	assert.Equal(t, Event{ID: "1", Name: EventElement, Data: []byte(`{"n":1}`)}, events[0])
	assert.Equal(t, "3", events[2].ID)
	assert.Equal(t, Event{Name: EventEnd, Data: []byte(`{"elements":3}`)}, events[3])
}

func TestHandler_FaultBecomesErrorEvent(t *testing.T) {
	src := seq.Concat(ticks(2), seq.Throw[tick](errors.NoElements("First")))
	w := httptest.NewRecorder()
	newRouter(Handler(src, HandlerOptions{})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	events := readAll(t, w.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, EventError, events[2].Name)
	assert.Contains(t, string(events[2].Data), string(errors.ErrCodeNoElements))
}

func TestHandler_BuildErrorIsHTTPStatus(t *testing.T) {
	h := HandlerFunc(func(*gin.Context) (seq.Sequence[tick], error) {
		return nil, errors.InvalidArgument("limit", "must be positive")
	}, HandlerOptions{})
	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INVALID_ARGUMENT"`)
}

type slowStream struct {
	delay time.Duration
	sent  bool
}

func (s *slowStream) Next(ctx context.Context) (tick, bool, error) {
	if s.sent {
		return tick{}, false, nil
	}
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return tick{}, false, ctx.Err()
	}
	s.sent = true
	return tick{N: 1}, true, nil
}

func (s *slowStream) Close() error { return nil }

func TestHandler_KeepAliveWhileWaiting(t *testing.T) {
	src := seq.Generate("slow", func(context.Context) (seq.Stream[tick], error) {
		return &slowStream{delay: 100 * time.Millisecond}, nil
	})
	w := httptest.NewRecorder()
	newRouter(Handler(src, HandlerOptions{KeepAlive: 10 * time.Millisecond})).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Contains(t, w.Body.String(), ": keepalive\n\n")
	events := readAll(t, w.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, EventEnd, events[1].Name)
}

type endless struct {
	n      int
	closed *atomic.Int32
}

func (e *endless) Next(context.Context) (tick, bool, error) {
	e.n++
	return tick{N: e.n}, true, nil
}

func (e *endless) Close() error {
	e.closed.Add(1)
	return nil
}

func TestHandler_DisposesOnClientDisconnect(t *testing.T) {
	var closed atomic.Int32
	src := seq.Generate("endless", func(context.Context) (seq.Stream[tick], error) {
		return &endless{closed: &closed}, nil
	})
	srv := httptest.NewServer(newRouter(Handler(src, HandlerOptions{})))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)

	r := NewReader(resp.Body)
	for range 3 {
		ev, err := r.Next()
		require.NoError(t, err)
		require.Equal(t, EventElement, ev.Name)
	}
	cancel()
	_ = resp.Body.Close()

	require.Eventually(t, func() bool { return closed.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestSource_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(newRouter(Handler(ticks(25), HandlerOptions{})))
	defer srv.Close()

	src := Source[tick](srv.Client(), srv.URL+"/events", Options{})
	got, err := seq.ToSlice(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, got, 25)
	assert.Equal(t, tick{N: 25}, got[24])

	// a second enumeration issues a second request
	n, err := seq.Count(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 25, n)
}

func TestSource_ErrorEventFaults(t *testing.T) {
	src := seq.Concat(ticks(2), seq.Throw[tick](errors.NoElements("First")))
	srv := httptest.NewServer(newRouter(Handler(src, HandlerOptions{})))
	defer srv.Close()

	var seen []int
	err := seq.ForEach(context.Background(), Source[tick](srv.Client(), srv.URL+"/events", Options{}),
		func(_ context.Context, v tick) error {
			seen = append(seen, v.N)
			return nil
		})
	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, errors.ErrCodeNoElements, errors.CodeOf(err))
}

func TestSource_TruncatedStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		_, _ = io.WriteString(w, "id: 1\nevent: element\ndata: {\"n\":1}\n\n")
	}))
	defer srv.Close()

	got, err := seq.ToSlice(context.Background(), Source[tick](srv.Client(), srv.URL, Options{}))
	assert.Nil(t, got)
	assert.Equal(t, errors.ErrCodeSourceFailed, errors.CodeOf(err))
}

func TestReader(t *testing.T) {
	input := ": hello\n\nid: 7\nevent: element\ndata: first\ndata: second\nretry: 10\n\n\n\ndata:bare\n\nevent: partial"
	events := readAll(t, input)
	require.Len(t, events, 2)
	assert.Equal(t, Event{ID: "7", Name: EventElement, Data: []byte("first\nsecond")}, events[0])
	assert.Equal(t, Event{Data: []byte("bare")}, events[1])
}

func TestWriteEvent_SplitsMultilineData(t *testing.T) {
	var b strings.Builder
	require.NoError(t, writeEvent(&b, Event{ID: "2", Name: "note", Data: []byte("a\nb")}))
	assert.Equal(t, "id: 2\nevent: note\ndata: a\ndata: b\n\n", b.String())
}

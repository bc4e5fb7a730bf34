package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
	"github.com/kbukum/seqkit/resilience"
	"github.com/kbukum/seqkit/security"
	"github.com/kbukum/seqkit/security/tlstest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	return r
}

func serve(r http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) errors.ErrorCode {
	t.Helper()
	var body errors.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not an error body: %v (%s)", err, w.Body.String())
	}
	return body.Error.Code
}

func TestRecovery(t *testing.T) {
	r := testEngine(Recovery(logger.Nop()))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := serve(r, "/boom")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if code := errorCode(t, w); code != errors.ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", code)
	}
	if w := serve(r, "/ok"); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	r := testEngine(RequestID())
	r.GET("/", func(c *gin.Context) { seen = c.GetString("request_id") })

	tests := []struct {
		name     string
		incoming string
	}{
		{"generated", ""},
		{"propagated", "req-123"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tc.incoming == "" {
				w = serve(r, "/")
			} else {
				w = serve(r, "/", HeaderRequestID, tc.incoming)
			}
			got := w.Header().Get(HeaderRequestID)
			if got == "" || got != seen {
				t.Fatalf("header %q and context %q disagree", got, seen)
			}
			if tc.incoming != "" && got != tc.incoming {
				t.Errorf("expected %q, got %q", tc.incoming, got)
			}
			if tc.incoming == "" && len(got) != 36 {
				t.Errorf("expected a uuid, got %q", got)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf strings.Builder
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	r := testEngine(RequestLogger(log))
	r.GET("/report", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, "/healthz")
	if buf.Len() != 0 {
		t.Errorf("health probe logged: %s", buf.String())
	}
	serve(r, "/report")
	if !strings.Contains(buf.String(), "request rejected") || !strings.Contains(buf.String(), "418") {
		t.Errorf("expected rejected request log, got %s", buf.String())
	}
}

func TestRateLimit(t *testing.T) {
	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Name: "report", Rate: 0.001, Burst: 2})
	r := testEngine(RateLimit(rl))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := range 2 {
		if w := serve(r, "/"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := serve(r, "/")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if code := errorCode(t, w); code != errors.ErrCodeUnavailable {
		t.Errorf("expected UNAVAILABLE, got %s", code)
	}
}

func TestBulkhead(t *testing.T) {
	b := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "streams", MaxConcurrent: 1})
	entered := make(chan struct{})
	unblock := make(chan struct{})

	r := testEngine(Bulkhead(b))
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-unblock
		c.Status(http.StatusOK)
	})
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	done := make(chan int, 1)
	go func() { done <- serve(r, "/slow").Code }()
	<-entered

	if w := serve(r, "/fast"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 while slot held, got %d", w.Code)
	}
	close(unblock)
	if code := <-done; code != http.StatusOK {
		t.Errorf("expected 200 for slow request, got %d", code)
	}
	if b.InUse() != 0 {
		t.Errorf("expected slot released, %d in use", b.InUse())
	}
}

type fixedHealth observability.Health

func (f fixedHealth) CheckHealth(context.Context) observability.Health {
	return observability.Health(f)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		checkers []observability.HealthChecker
		want     int
	}{
		{"no checkers", nil, http.StatusOK},
		{"degraded", []observability.HealthChecker{fixedHealth{Name: "store", Status: observability.HealthStatusDegraded}}, http.StatusOK},
		{"down", []observability.HealthChecker{
			fixedHealth{Name: "store", Status: observability.HealthStatusUp},
			fixedHealth{Name: "feed", Status: observability.HealthStatusDown},
		}, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := testEngine()
			r.GET("/healthz", Health("seqdemo", tc.checkers...))
			w := serve(r, "/healthz")
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestServer_StartServesH2C(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 0}
	cfg.ApplyDefaults()
	cfg.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	s := New(cfg, logger.Nop())
	s.ApplyMiddleware()
	s.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.Request.Proto) })

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		if err := s.Stop(context.Background()); err != nil {
			t.Errorf("stop: %v", err)
		}
	}()

	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http2.Transport{AllowHTTP: true, DialTLSContext: dialCleartext},
	}
	resp, err := client.Get("http://" + s.Addr() + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "HTTP/2.0" {
		t.Errorf("expected HTTP/2.0, got %q", body)
	}
}

func TestServer_StartServesTLS(t *testing.T) {
	certs := tlstest.Generate(t)
	cfg := Config{Host: "127.0.0.1", TLS: security.TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile}}
	cfg.ApplyDefaults()
	cfg.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	s := New(cfg, logger.Nop())
	s.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.Request.Proto) })
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()

	client, err := (&security.TLSConfig{CAFile: certs.CAFile}).HTTPClient(5 * time.Second)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	resp, err := client.Get("https://" + s.Addr() + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "HTTP/2.0" {
		t.Errorf("expected HTTP/2.0, got %q", body)
	}
}

func TestServer_StartRejectsBadCertificate(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", TLS: security.TLSConfig{CertFile: "missing.pem", KeyFile: "missing.key"}}
	cfg.ApplyDefaults()
	cfg.Port = 0

	err := New(cfg, logger.Nop()).Start(context.Background())
	if errors.CodeOf(err) != errors.ErrCodeInvalidArgument {
		t.Errorf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Addr() != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Addr())
	}
	cfg.Port = 70000
	if errors.CodeOf(cfg.Validate()) != errors.ErrCodeInvalidArgument {
		t.Error("expected port out of range to fail validation")
	}
}

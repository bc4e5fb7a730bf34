package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apperrors "github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
)

// Server is a gin engine served over HTTP/1.1 and HTTP/2, cleartext or TLS.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     Config
	log        *logger.Logger
	listener   net.Listener
}

// New creates a Server. No middleware is applied; see ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	h2s := &http2.Server{
		MaxConcurrentStreams: cfg.MaxStreams,
		IdleTimeout:          cfg.IdleTimeout,
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           h2c.NewHandler(engine, h2s),
			ReadHeaderTimeout: cfg.ReadTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		engine: engine,
		config: cfg,
		log:    log.WithComponent("server"),
	}
}

// Engine returns the gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the h2c-wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ApplyMiddleware installs recovery, request ids and request logging.
func (s *Server) ApplyMiddleware() {
	s.engine.Use(Recovery(s.log), RequestID(), RequestLogger(s.log))
}

// Start binds the port and serves in the background. It returns once the
// listener is bound. With a TLS certificate configured it serves HTTPS.
func (s *Server) Start(context.Context) error {
	tlsCfg, err := s.config.TLS.ServerConfig()
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return apperrors.Unavailable("http "+s.httpServer.Addr, err.Error()).WithCause(err)
	}
	s.listener = ln

	serve := s.httpServer.Serve
	if tlsCfg != nil {
		s.httpServer.TLSConfig = tlsCfg
		serve = func(ln net.Listener) error { return s.httpServer.ServeTLS(ln, "", "") }
	}
	go func() {
		if err := serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("HTTP server started", logger.Fields("addr", ln.Addr().String(), "tls", tlsCfg != nil))
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Stop shuts the server down, waiting up to 5 seconds for open streams.
// Streams still open after that are cut, which disposes their iterators.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("graceful shutdown timed out", logger.Fields(logger.FieldError, err.Error()))
		return s.httpServer.Close()
	}
	s.log.Info("HTTP server stopped")
	return nil
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"partscope/internal/config"
	"partscope/internal/imagestore"
	"partscope/internal/logging"
	"partscope/internal/metrics"
)

const imagesPrefix = imagestore.PublicPrefix

// readTimeout covers the largest upload body at modest link speeds.
const readTimeout = 60 * time.Second

type apiServer struct {
	cfg     *config.Config
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		cfg:    cfg,
		bind:   strings.TrimSpace(cfg.Server.Bind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.handler = srv.routes()
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return authMiddleware(s.cfg.Server.APIToken, h)
	}

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/predict", protect(s.handlePredict))
	mux.HandleFunc("GET /api/predictions", protect(s.handlePredictions))
	mux.HandleFunc("GET /api/inventory", protect(s.handleList))
	mux.HandleFunc("POST /api/inventory/upload", protect(s.handleUpload))
	mux.HandleFunc("POST /api/inventory/classify", protect(s.handleClassify))
	mux.HandleFunc("PATCH /api/inventory/{id}", protect(s.handlePatch))
	mux.HandleFunc("POST /api/inventory/batch-update", protect(s.handleBatchUpdate))
	mux.HandleFunc("POST /api/inventory/batch-delete", protect(s.handleBatchDelete))
	mux.HandleFunc("POST /api/inventory/ai-insights", protect(s.handleInsights))
	mux.HandleFunc("POST /api/inventory/ai-insights/apply", protect(s.handleApplyInsight))
	mux.Handle("GET "+imagesPrefix, imageHandler(s.cfg.Paths.ImagesDir))

	if s.cfg.Server.MetricsEnabled && s.daemon.metrics != nil {
		mux.Handle("GET /metrics", s.daemon.metrics.Handler(s.logger))
	}

	handler := instrument(mux, s.logger, s.httpMetrics(), s.cfg.MaxBodyBytes())
	handler = withRequestID(handler)
	return withCORS(handler, s.cfg.Server.CORSOrigins)
}

func (s *apiServer) httpMetrics() *metrics.HTTPMetrics {
	if s.daemon.metrics == nil {
		return nil
	}
	return s.daemon.metrics.HTTP
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := newHTTPServer(ctx, s.handler)

	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
	}
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// newHTTPServer bounds how long a client may take to send a request. There is
// no write timeout: classify runs the whole inventory inside one request.
func newHTTPServer(ctx context.Context, handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

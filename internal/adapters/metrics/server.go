package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the registry over HTTP for Prometheus to scrape.
type Server struct {
	addr   string
	path   string
	logger *slog.Logger
}

// NewServer creates a metrics server bound to host:port serving path.
func NewServer(host string, port int, path string, logger *slog.Logger) *Server {
	if path == "" {
		path = "/metrics"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:   net.JoinHostPort(host, fmt.Sprint(port)),
		path:   path,
		logger: logger,
	}
}

// Handler returns the mux serving the metrics and health endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			s.logger.Warn("failed to write health response", "error", err)
		}
	})
	if Registry != nil {
		mux.Handle(s.path, promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry}))
	}
	return mux
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("metrics server shutdown error", "error", err)
		}
	}()

	s.logger.Info("metrics server started", "addr", s.addr, "path", s.path)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

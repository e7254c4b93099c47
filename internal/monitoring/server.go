package monitoring

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// Server serves /metrics and /health while a search runs
type Server struct {
	srv *http.Server
}

// NewMux wires the metrics and health handlers
func NewMux(health *HealthChecker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", NewMetricsHandler())
	mux.Handle("/health", health)
	return mux
}

// StartMetricsServer starts serving in the background. An empty addr
// returns nil and starts nothing.
func StartMetricsServer(addr string, health *HealthChecker) *Server {
	if addr == "" {
		return nil
	}
	s := &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewMux(health),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	go func() {
		log.Printf("📊 Starting metrics server on %s", addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("❌ Metrics server error: %v", err)
		}
	}()
	return s
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

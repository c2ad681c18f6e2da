package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"smartcopy/pkg/checkpoint"
	"smartcopy/pkg/config"
	"smartcopy/pkg/helper/log"
	"smartcopy/pkg/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a bare liveness and metrics HTTP surface alongside a
// running sync engine. It carries no replication, job-queue, or
// authentication surface: spec scope for this package is /healthz and
// /metrics only.
type Server struct {
	ctx             context.Context
	cancel          context.CancelFunc
	logger          log.Logger
	cfg             *config.Config
	router          *mux.Router
	httpServer      *http.Server
	metricsRegistry *metrics.Registry
	checkpoints     *checkpoint.Manager
}

// NewServer creates a new server instance.
func NewServer(ctx context.Context, cfg *config.Config, logger log.Logger,
	metricsRegistry *metrics.Registry, checkpoints *checkpoint.Manager) (*Server, error) {
	serverCtx, cancel := context.WithCancel(ctx)

	router := mux.NewRouter()

	s := &Server{
		ctx:             serverCtx,
		cancel:          cancel,
		logger:          logger,
		cfg:             cfg,
		router:          router,
		metricsRegistry: metricsRegistry,
		checkpoints:     checkpoints,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	s.registerEndpoints()

	return s, nil
}

// Start runs the HTTP server until the context is cancelled or SIGINT/SIGTERM
// is received, then shuts it down gracefully.
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.logger.WithField("address", s.httpServer.Addr).Info("Starting HTTP server")

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", err)
			select {
			case <-s.ctx.Done():
			default:
				s.cancel()
			}
		}
	}()

	select {
	case <-s.ctx.Done():
		s.logger.Info("Server context canceled")
	case sig := <-sigChan:
		s.logger.WithField("signal", sig.String()).Info("Received signal")
		s.cancel()
	}

	s.logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", err)
	}

	s.logger.Info("Server shutdown complete")
	return nil
}

func (s *Server) registerEndpoints() {
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.metricsMiddleware)

	s.router.HandleFunc(s.cfg.Server.HealthCheckPath, s.handleHealth).Methods("GET")

	if s.metricsRegistry != nil {
		s.router.Handle(s.cfg.Server.MetricsPath,
			promhttp.HandlerFor(s.metricsRegistry.GetRegistry(), promhttp.HandlerOpts{})).Methods("GET")
	}
}

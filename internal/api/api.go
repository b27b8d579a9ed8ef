package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"codeshare-backend/internal/queue"
	"codeshare-backend/internal/service/room"
	"codeshare-backend/internal/websocket"

	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

type RouteRegistrar func(mux *http.ServeMux, s *APIServer)

type APIServer struct {
	listenAddr          string
	allowedOrigins      []string
	requestQueueManager *queue.RequestQueueManager
	rooms               *room.Service
	handler             *websocket.Handler
	routeRegistrars     []RouteRegistrar
	metrics             *metrics
	log                 *slog.Logger
}

func NewAPIServer(
	listenAddr string,
	allowedOrigins []string,
	rqm *queue.RequestQueueManager,
	rooms *room.Service,
	handler *websocket.Handler,
	log *slog.Logger,
	registrars ...RouteRegistrar,
) *APIServer {
	return &APIServer{
		listenAddr:          listenAddr,
		allowedOrigins:      allowedOrigins,
		requestQueueManager: rqm,
		rooms:               rooms,
		handler:             handler,
		routeRegistrars:     registrars,
		metrics:             newMetrics(prometheus.DefaultRegisterer, listenAddr, rqm),
		log:                 log,
	}
}

// Routes builds the instrumented mux with every registrar plus /metrics.
func (s *APIServer) Routes() http.Handler {
	mux := http.NewServeMux()

	for _, reg := range s.routeRegistrars {
		reg(mux, s)
	}

	mux.Handle("/metrics", s.metrics.metricsHandler())

	return s.metrics.instrument(mux)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *APIServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.listenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

func (s *APIServer) Rooms() *room.Service {
	return s.rooms
}

func (s *APIServer) Handler() *websocket.Handler {
	return s.handler
}

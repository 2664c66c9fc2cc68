package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/propmatch/internal/index"
	"github.com/propmatch/internal/matcher"
	"github.com/propmatch/internal/store"
	"github.com/propmatch/internal/web/handlers"
	"github.com/propmatch/internal/web/middleware"
)

// Server hosts the resolution API
type Server struct {
	config     *Config
	log        zerolog.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer wires the handlers onto a router. The engine, store and cache
// are owned by the caller; the server only exposes them over HTTP.
func NewServer(config *Config, engine *matcher.Engine, gw *store.SQLStore, cache *index.Cache, log zerolog.Logger) *Server {
	server := &Server{config: config, log: log}

	server.router = mux.NewRouter()

	matchHandler := &handlers.MatchHandler{Resolver: engine, Log: log}
	apiHandler := &handlers.APIHandler{Store: gw, Cache: cache, Log: log}

	api := server.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/match", matchHandler.Match).Methods("POST")
	api.HandleFunc("/health", apiHandler.Health).Methods("GET")
	api.HandleFunc("/stats", apiHandler.Stats).Methods("GET")

	server.router.Use(middleware.RequestLogging(log))

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("starting server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("server error")
		}
	}()

	<-stop
	s.log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info().Msg("server stopped")
	return nil
}

package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/config"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1/health"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1/listing"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1/ordering"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1/warmup"
)

type Server struct {
	log    *log.Logger
	server *http.Server
	cfg    *config.Config
}

func New(logger *log.Logger, cfg *config.Config, deps Deps) *Server {
	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           NewHandler(logger, cfg, deps),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

// NewHandler собирает роутер; отдельно от New, чтобы гонять его в httptest.
func NewHandler(logger *log.Logger, cfg *config.Config, deps Deps) http.Handler {
	sub := func(name string) *log.Logger {
		return log.New(logger.Writer(), logger.Prefix()+"["+name+"] ", logger.Flags())
	}

	return newRouter(handlers{
		health: &health.Handler{Log: sub("health"), DB: deps.DB, Cache: deps.Cache, Storage: deps.Storage},
		listing: &listing.Handler{
			Log: sub("listing"), Listings: deps.Listings, MaxAge: cfg.HTTPMaxAge,
		},
		ordering: &ordering.Handler{Log: sub("ordering"), Orderings: deps.Orderings},
		warmup:   &warmup.Handler{Log: sub("warmup"), Archive: deps.Archive, Prefix: deps.ArchivePrefix},
	}, logger)
}

func (ws *Server) Run() {
	ws.log.Printf("started on %s", ws.server.Addr)
	if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		ws.log.Fatalf("error: %v", err)
	}
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Printf("forced to shutdown: %v", err)
	}
	ws.log.Println("exited gracefully")
}

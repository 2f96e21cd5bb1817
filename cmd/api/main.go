package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "review_analyzer/internal/adapters/http_server"
	"review_analyzer/internal/adapters/observability"
	"review_analyzer/internal/adapters/seed"
	"review_analyzer/internal/adapters/vader"
	"review_analyzer/internal/app"
	"review_analyzer/internal/domain"
	"review_analyzer/internal/shared"
	"review_analyzer/internal/storage/memory"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve(cfg.MetricsAddr)

	// seed
	rows, err := seed.LoadFile(cfg.SeedPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn().Str("path", cfg.SeedPath).Msg("seed file not found, starting empty")
	case err != nil:
		log.Fatal().Err(err).Msg("seed import failed")
	default:
		log.Info().Str("path", cfg.SeedPath).Int("reviews", len(rows)).Msg("seed import ok")
	}

	// deps
	repo := memory.New(rows)
	observability.SetStoredReviews(len(rows))
	store := app.NewReviewStore(repo, vader.New(), domain.DefaultLocations(),
		app.WithScoreWorkers(cfg.ScoreWorkers))

	// http
	srv := server.New(cfg.RequestTimeout)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Store: store, MaxBodyBytes: cfg.MaxBodyBytes})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", httpSrv.Addr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

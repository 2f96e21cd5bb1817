package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"review_analyzer/internal/adapters/observability"
	"review_analyzer/internal/adapters/reviewclient"
	"review_analyzer/internal/adapters/seed"
	"review_analyzer/internal/app"
	"review_analyzer/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.APIBase).
		Str("file", cfg.IngestFile).
		Int("workers", cfg.Workers).
		Int("rps", cfg.IngestRPS).
		Msg("ingestor starting")

	rows, err := seed.LoadFile(cfg.IngestFile)
	if err != nil {
		log.Fatal().Err(err).Msg("read ingest file failed")
	}

	client, err := reviewclient.New(cfg.APIBase, cfg.IngestRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize review API client")
	}
	ing := app.NewIngestionService(client)
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var (
		wg                 sync.WaitGroup
		ok, missed, failed atomic.Int64
	)

	for _, rv := range rows {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("ingestion interrupted")
			break
		}

		rv := rv // per-iteration copy (go directive < 1.22)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			stored, err := ing.IngestReview(ctx, rv)
			switch {
			case err != nil:
				failed.Add(1)
				log.Warn().Str("source_id", rv.ReviewID).Err(err).Msg("ingest failed")
			case stored:
				ok.Add(1)
			default:
				missed.Add(1)
			}
		}()
	}

	wg.Wait()

	ev := log.Info().Int64("ok", ok.Load()).Int64("rejected", missed.Load()).Int64("failed", failed.Load())
	if n, err := ing.Count(ctx); err == nil {
		ev = ev.Int("served", n)
	}
	ev.Msg("ingestion completed")

	if failed.Load() > 0 {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Roulette/internal/adapters/archive"
	"github.com/dkeye/Roulette/internal/adapters/fanout"
	router "github.com/dkeye/Roulette/internal/adapters/http"
	"github.com/dkeye/Roulette/internal/app"
	"github.com/dkeye/Roulette/internal/config"
	"github.com/dkeye/Roulette/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	arch, pg := setupArchive(ctx, cfg)
	if pg != nil {
		defer pg.Close()
	}

	var bus core.FanoutBus
	if cfg.RedisURL != "" {
		b, err := fanout.NewRedisBus(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("fan-out bus unavailable, running single-process")
		} else {
			bus = b
			defer b.Close()
		}
	}

	orch := app.NewOrchestrator(arch, bus)

	if bus != nil {
		go func() {
			if err := bus.Subscribe(ctx, orch.Notifier.DeliverLocal); err != nil {
				log.Error().Err(err).Msg("fan-out subscriber stopped")
			}
		}()
	}

	r := router.SetupRouter(ctx, cfg, orch)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Roulette server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

// setupArchive picks the archive collaborator: queued writes when both Redis
// and Postgres are configured, direct writes with Postgres alone, noop
// otherwise. The worker consuming queued writes runs in-process.
func setupArchive(ctx context.Context, cfg *config.Config) (core.Archive, *archive.Postgres) {
	if cfg.DatabaseURL == "" {
		return archive.Noop{}, nil
	}

	pg, err := archive.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("archive unavailable, chat sessions will not be persisted")
		return archive.Noop{}, nil
	}

	if cfg.RedisURL == "" {
		return pg, pg
	}

	q, err := archive.NewQueue(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("archive queue unavailable, writing directly")
		return pg, pg
	}

	worker, err := archive.NewWorker(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("archive worker unavailable, writing directly")
		_ = q.Close()
		return pg, pg
	}
	mux := asynq.NewServeMux()
	archive.RegisterTasks(mux, pg)
	go func() {
		if err := worker.Start(mux); err != nil {
			log.Error().Err(err).Msg("archive worker start")
			return
		}
		<-ctx.Done()
		worker.Shutdown()
	}()

	return q, pg
}

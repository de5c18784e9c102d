package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/movie-review/internal/config"     // Internal config loader
	"github.com/iliyamo/movie-review/internal/database"   // DB connection and migrations
	"github.com/iliyamo/movie-review/internal/logger"     // Structured logging
	"github.com/iliyamo/movie-review/internal/repository" // Session cleanup
	"github.com/iliyamo/movie-review/internal/router"     // Internal router setup
	"github.com/iliyamo/movie-review/internal/service"    // Registration notifier
	"github.com/iliyamo/movie-review/internal/storage"    // Poster storage
	"github.com/iliyamo/movie-review/internal/telemetry"  // Tracing
)

// sessionSweepInterval is how often expired sessions are purged.
const sessionSweepInterval = time.Hour

func main() {
	log := logger.NewLogger("server")

	cfg, err := config.Load() // Load environment config
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("flush traces")
		}
	}()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("open database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, cfg.Database.Driver); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn().Str("addr", cfg.Redis.Address()).Msg("redis unavailable; page cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	posters, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("init poster storage")
	}

	notifier, err := service.NewNotifier(cfg.Notifier, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init notifier")
	}

	e, err := router.New(router.Deps{
		Config:   cfg,
		DB:       db,
		Log:      log,
		Redis:    rdb,
		Posters:  posters,
		Notifier: notifier,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build router")
	}

	go sweepSessions(ctx, repository.NewSessionRepo(db), log)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}

// sweepSessions deletes expired sessions until ctx is cancelled.
func sweepSessions(ctx context.Context, sessions *repository.SessionRepo, log *logger.Logger) {
	t := time.NewTicker(sessionSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := sessions.DeleteExpired(ctx, now)
			if err != nil {
				log.Warn().Err(err).Msg("sweep sessions")
				continue
			}
			if n > 0 {
				log.Info().Int64("deleted", n).Msg("expired sessions removed")
			}
		}
	}
}

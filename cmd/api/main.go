package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tripdraft/itinerary-api/internal/adapters/httpapi"
	memstopstore "github.com/tripdraft/itinerary-api/internal/adapters/memory/stopstore"
	postgres "github.com/tripdraft/itinerary-api/internal/adapters/postgres"
	pgstopstore "github.com/tripdraft/itinerary-api/internal/adapters/postgres/stopstore"
	"github.com/tripdraft/itinerary-api/internal/adapters/routeopt"
	sqlitestopstore "github.com/tripdraft/itinerary-api/internal/adapters/sqlite/stopstore"
	"github.com/tripdraft/itinerary-api/internal/app/sessions"
	platformclock "github.com/tripdraft/itinerary-api/internal/platform/clock"
	"github.com/tripdraft/itinerary-api/internal/platform/config"
	"github.com/tripdraft/itinerary-api/internal/platform/logger"
	stopstoreport "github.com/tripdraft/itinerary-api/internal/ports/out/stopstore"
)

func main() {
	log := logger.New("itinerary-api")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	var (
		store   stopstoreport.Store
		cleanup func()
	)
	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(context.Background(), cfg.PostgresDSN, postgres.PoolOptions{})
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection failed")
		}
		cleanup = pool.Close
		store = pgstopstore.NewStore(pool)
	case "sqlite":
		s, err := sqlitestopstore.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("sqlite open failed")
		}
		cleanup = func() { _ = s.Close() }
		store = s
	default:
		store = memstopstore.NewStore()
	}
	if cleanup != nil {
		defer cleanup()
	}

	opt := routeopt.NewClient(cfg.OptimizerURL, cfg.OptimizerTimeout)
	clk := platformclock.NewSystemClock()
	registry := sessions.NewRegistry(store, opt, clk, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpapi.NewRouter(httpapi.NewHandlers(registry, log)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Int("port", cfg.HTTPPort).Str("backend", cfg.StorageBackend).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

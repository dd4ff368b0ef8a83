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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/actuallystonmai/product-recommender/internal/cache"
	"github.com/actuallystonmai/product-recommender/internal/config"
	"github.com/actuallystonmai/product-recommender/internal/handler"
	"github.com/actuallystonmai/product-recommender/internal/logging"
	"github.com/actuallystonmai/product-recommender/internal/oracle"
	"github.com/actuallystonmai/product-recommender/internal/recommend"
	"github.com/actuallystonmai/product-recommender/internal/repository"
	"github.com/actuallystonmai/product-recommender/internal/router"
	"github.com/actuallystonmai/product-recommender/internal/service"
	"github.com/actuallystonmai/product-recommender/seeds"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

//nolint:gocritic // zerolog.Logger is passed by value
func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ------------ PostgreSQL ---------------
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.PoolSize) //nolint:gosec // bounded by validation
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := waitForDB(ctx, pool, logger); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	logger.Info().Msg("connected to PostgreSQL")

	// ------------ Run Migrations ---------------
	// for migrate-down using CLI command
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		if err := migrateDown(ctx, pool, logger); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		return nil
	}

	if err := migrateUp(ctx, pool, logger); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	if len(os.Args) > 1 && os.Args[1] == "migrate-up" {
		return nil
	}

	repo := repository.New(pool)

	// ------------ Setup Seed Data ---------------
	if cfg.Database.SeedOnStart {
		if err := checkSeed(ctx, repo, pool, logger); err != nil {
			return fmt.Errorf("check seed: %w", err)
		}
	}

	// ------------ Redis ---------------
	var candidateCache service.CandidateCache
	if cfg.Cache.Enabled {
		opts, err := redis.ParseURL(cfg.Cache.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable at startup, cache misses until it recovers")
		} else {
			logger.Info().Msg("connected to Redis")
		}
		candidateCache = cache.NewCache(rdb, cfg.Cache.TTL)
	}

	// ------------ Relevance oracle ---------------
	var relevance recommend.Oracle
	oracleClient := oracle.NewClient(oracle.Config{
		Endpoint:    cfg.Oracle.Endpoint,
		APIKey:      cfg.Oracle.APIKey,
		Model:       cfg.Oracle.Model,
		Temperature: cfg.Oracle.Temperature,
		MaxTokens:   cfg.Oracle.MaxTokens,
	}, logger)
	if oracleClient.Configured() {
		relevance = oracleClient
		logger.Info().Str("model", cfg.Oracle.Model).Msg("relevance oracle enabled")
	} else {
		logger.Info().Msg("no oracle api key, recommendations use collaborative and content scores only")
	}

	engine := recommend.NewEngine(recommend.Options{
		OracleTimeout: cfg.Oracle.Timeout,
		StrictBounds:  cfg.Recommend.StrictBounds,
	}, logger)

	svc := service.NewService(repo, candidateCache, relevance, engine, service.Options{
		DefaultLimit:     cfg.Recommend.DefaultLimit,
		MaxLimit:         cfg.Recommend.MaxLimit,
		BatchMaxUsers:    cfg.Recommend.BatchMaxUsers,
		BatchLimit:       cfg.Recommend.BatchLimit,
		BatchConcurrency: cfg.Recommend.BatchConcurrency,
		ActiveWindow:     cfg.Recommend.ActiveWindow,
	}, logger)

	h := handler.NewHandler(svc, logger)
	r := router.Setup(h, router.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		BatchRateLimit: cfg.Recommend.BatchRateLimit,
	}, logger)

	// ---------------- Server --------------------
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

//nolint:gocritic // zerolog.Logger is passed by value
func waitForDB(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	for i := range 30 {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		logger.Info().Int("attempt", i+1).Msg("waiting for database")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("database connection timeout after 30s")
}

//nolint:gocritic // zerolog.Logger is passed by value
func migrateDown(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	return runMigration(ctx, pool, "migrations/create_tables.down.sql", logger)
}

//nolint:gocritic // zerolog.Logger is passed by value
func migrateUp(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	return runMigration(ctx, pool, "migrations/create_tables.up.sql", logger)
}

//nolint:gocritic // zerolog.Logger is passed by value
func runMigration(ctx context.Context, pool *pgxpool.Pool, path string, logger zerolog.Logger) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration %s: %w", path, err)
	}
	logger.Info().Str("file", path).Msg("migration applied")
	return nil
}

//nolint:gocritic // zerolog.Logger is passed by value
func checkSeed(ctx context.Context, repo *repository.Repository, pool *pgxpool.Pool, logger zerolog.Logger) error {
	count, err := repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info().Int("users", count).Msg("database already seeded, skipping")
		return nil
	}
	return seeds.Setup(ctx, pool, logger)
}

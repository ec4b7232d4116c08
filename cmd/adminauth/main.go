package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/vrnd369/theubc-admin-api/config"
	"github.com/vrnd369/theubc-admin-api/internal/bootstrap"
	"github.com/vrnd369/theubc-admin-api/internal/migrate"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting admin auth service",
		"auth_mode", string(cfg.Auth.Mode),
		"db_host", cfg.Postgres.Host,
		"db_name", cfg.Postgres.Name,
	)

	db, redisClient, err := initInfrastructure(&cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	if cfg.Postgres.RunMigrationsOnStart {
		if err = migrate.Run(ctx, db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	authSvc, identity, err := bootstrap.BuildAuthService(bootstrap.AuthDeps{
		Auth:        cfg.Auth,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
		OnSessionExpired: func(message string) {
			logger.InfoContext(ctx, "session expired notice", "message", message)
		},
	})
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}

	authSvc.Start(ctx)
	defer authSvc.Stop()

	return bootstrap.RunHTTPServer(ctx, bootstrap.HTTPServerDeps{
		Config:   &cfg,
		Auth:     authSvc,
		Identity: identity,
		Logger:   logger,
	})
}

// initInfrastructure connects shared dependencies. Redis is optional: the
// profile cache fallback degrades cleanly without it.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(cfg *config.AppConfig, logger *slog.Logger) (*sql.DB, redis.UniversalClient, error) {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cfg.Postgres,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}

	redisClient, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cfg.Redis,
		Logger:      logger,
	})
	if err != nil {
		logger.Warn("redis unavailable, continuing without profile cache", "error", err)
		redisClient = nil
	}

	return db, redisClient, nil
}

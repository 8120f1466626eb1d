package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ms-calendar/internal/calendar/db"
	"ms-calendar/internal/config"
	"ms-calendar/internal/database/migrations"
	"ms-calendar/internal/logger"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const retryDelay = 2 * time.Second

// Open connects to the configured database, retrying while it comes up.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	switch cfg.Driver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN not set")
		}
		sqldb, err := connect(ctx, "postgres", cfg.PostgresDSN, cfg.ConnRetries, log)
		if err != nil {
			return nil, err
		}
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
		sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
		return bun.NewDB(sqldb, pgdialect.New()), nil

	case "sqlite":
		sqldb, err := connect(ctx, sqliteshim.ShimName, cfg.SQLiteDSN, 1, log)
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer at a time
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
}

func connect(ctx context.Context, driver, dsn string, retries int, log *logger.Logger) (*sql.DB, error) {
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for i := 0; i < retries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to %s (attempt %d/%d)", driver, i+1, retries))

		sqldb, err := sql.Open(driver, dsn)
		if err == nil {
			if err = sqldb.PingContext(ctx); err == nil {
				log.Info("DATABASE", fmt.Sprintf("Connected to %s", driver))
				return sqldb, nil
			}
			sqldb.Close()
		}
		lastErr = err
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to %s: %v", driver, err))

		if i < retries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("connect to %s after %d attempts: %w", driver, retries, lastErr)
}

// PrepareSchema brings the schema up to date: embedded migrations on
// Postgres (over a dedicated connection), table creation on SQLite.
func PrepareSchema(ctx context.Context, bunDB *bun.DB, cfg config.DatabaseConfig, log *logger.Logger) error {
	if !cfg.AutoMigrate {
		log.Info("MIGRATE", "AUTO_MIGRATE disabled, skipping schema setup")
		return nil
	}

	if cfg.Driver != "postgres" {
		if err := db.CreateSchema(ctx, bunDB); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		log.LogDatabase("SCHEMA", "events", "SQLite schema ready")
		return nil
	}

	sqldb, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	runner := migrations.NewRunner(sqldb, log)
	defer runner.Close()

	return runner.MigrateUp()
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection error: %w", err)
	}
	log.Info("REDIS", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Addr, client.Options().DB))
	return client, nil
}

package main

import (
	"context"
	"database/sql"
	"fmt"

	"ksk-service/config"
	"ksk-service/internal/repository"

	"go.uber.org/zap"
)

// stores holds the durable backend and the view sessions are written through.
type stores struct {
	durable  repository.Storage
	sessions repository.Storage
	close    func() error
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*stores, error) {
	switch cfg.Backend {
	case "memory":
		s := repository.NewMemoryStorage()
		logger.Warn("using in-memory storage, data is lost on restart")
		return &stores{durable: s, sessions: s, close: func() error { return nil }}, nil

	case "postgres", "sqlite":
		driver, dsn := "postgres", cfg.DatabaseURL
		if cfg.Backend == "sqlite" {
			driver, dsn = "sqlite", cfg.SQLitePath
		}
		dialect, err := repository.DialectFor(driver)
		if err != nil {
			return nil, err
		}

		db, err := sql.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", driver, err)
		}
		if driver == "sqlite" {
			db.SetMaxOpenConns(1)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping %s: %w", driver, err)
		}

		s := repository.NewSQLStorage(db, dialect)
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("connected to database", zap.String("driver", driver))
		return &stores{durable: s, sessions: s, close: db.Close}, nil

	case "redis":
		s, err := repository.NewRedisStorage(cfg.RedisURL, 0)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to redis", zap.Duration("session_ttl", cfg.SessionTTL.Duration))
		return &stores{durable: s, sessions: s.WithTTL(cfg.SessionTTL.Duration), close: s.Close}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

package main

import (
	"context"

	"ksk-service/config"
	"ksk-service/internal/repository"

	"go.uber.org/zap"
)

func runSeed(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Storage.Backend == "memory" {
		logger.Warn("seeding in-memory storage has no lasting effect")
	}

	st, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer st.close()

	n, err := repository.NewRequestRepository(st.durable, repository.MockRequests()).Reseed(ctx)
	if err != nil {
		return err
	}
	logger.Info("request list seeded", zap.Int("count", n))
	return nil
}

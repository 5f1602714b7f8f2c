// Package service wires the configured storage adapter behind one
// explicitly constructed Office instance. There are no singletons; the
// entry point owns the lifecycle and passes the instance down.
package service

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/LuisSandoval96/office-layout-manager/internal/config"
	"github.com/LuisSandoval96/office-layout-manager/internal/repository"
)

// Office exposes the full operation set of whichever adapter the
// configuration selected. Both adapters implement repository.Manager in
// full, so callers never probe for capabilities.
type Office struct {
	repository.Manager

	mode        string
	logger      *zap.Logger
	redisClient *redis.Client
}

// New constructs the service for the configured storage mode.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Office, error) {
	policy := repository.AssignPolicy(cfg.Storage.AssignPolicy)

	switch cfg.Storage.Mode {
	case config.ModeLocal:
		db, err := repository.OpenLocalDB(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		manager, err := repository.NewLocalManager(db, logger, policy)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create local manager: %w", err)
		}
		logger.Info("Using local storage adapter",
			zap.String("path", cfg.Storage.SQLitePath))
		return &Office{Manager: manager, mode: cfg.Storage.Mode, logger: logger}, nil

	case config.ModeRemote:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		manager, err := repository.NewRemoteManager(ctx, client, logger, cfg.Storage.StateKey, policy)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("create remote manager: %w", err)
		}
		logger.Info("Using remote sync adapter",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("key", cfg.Storage.StateKey))
		return &Office{Manager: manager, mode: cfg.Storage.Mode, logger: logger, redisClient: client}, nil

	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Storage.Mode)
	}
}

// Mode reports which adapter is active.
func (o *Office) Mode() string {
	return o.mode
}

// Close releases the adapter and, in remote mode, the redis client.
func (o *Office) Close() error {
	err := o.Manager.Close()
	if o.redisClient != nil {
		if cerr := o.redisClient.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

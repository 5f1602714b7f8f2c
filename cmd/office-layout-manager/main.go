package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/LuisSandoval96/office-layout-manager/internal/config"
	"github.com/LuisSandoval96/office-layout-manager/internal/logger"
	"github.com/LuisSandoval96/office-layout-manager/internal/models"
	"github.com/LuisSandoval96/office-layout-manager/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "office-layout-manager")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting office-layout-manager", zap.String("mode", cfg.Storage.Mode))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	office, err := service.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create office service", zap.Error(err))
	}

	unsubscribe := office.Subscribe(func(state models.ApplicationState) {
		stats := office.GetStatistics()
		log.Info("State replaced",
			zap.Int("employees", len(state.Employees)),
			zap.Int("occupied", stats.OccupiedPositions),
			zap.Float64("occupancy_rate", stats.OccupancyRate),
			zap.Time("last_updated", state.LastUpdated),
		)
	})
	defer unsubscribe()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	if err := office.Close(); err != nil {
		log.Error("Error closing office service", zap.Error(err))
	}
	log.Info("Service stopped")
}

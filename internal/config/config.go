package config

import (
	"fmt"
	"os"
	"strconv"
)

// Storage modes.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Config is the full service configuration, loaded from environment
// variables with defaults.
type Config struct {
	Storage struct {
		// Mode selects the adapter: "local" (embedded sqlite document
		// store) or "remote" (shared redis document with push sync).
		Mode string

		// SQLitePath is the local document store file (local mode).
		SQLitePath string

		// StateKey is the redis key of the shared document (remote mode).
		StateKey string

		// AssignPolicy overrides the adapter's occupied-desk policy:
		// "reject" or "evict". Empty keeps the adapter default
		// (local rejects, remote evicts).
		AssignPolicy string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Storage.Mode = getEnv("STORAGE_MODE", ModeLocal)
	if cfg.Storage.Mode != ModeLocal && cfg.Storage.Mode != ModeRemote {
		return nil, fmt.Errorf("invalid STORAGE_MODE %q (want %q or %q)",
			cfg.Storage.Mode, ModeLocal, ModeRemote)
	}
	cfg.Storage.SQLitePath = getEnv("SQLITE_PATH", "office-layout.db")
	cfg.Storage.StateKey = getEnv("STATE_KEY", "office-layout:state")
	cfg.Storage.AssignPolicy = getEnv("ASSIGN_POLICY", "")
	switch cfg.Storage.AssignPolicy {
	case "", "reject", "evict":
	default:
		return nil, fmt.Errorf("invalid ASSIGN_POLICY %q (want \"reject\" or \"evict\")",
			cfg.Storage.AssignPolicy)
	}

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	if db := getEnv("REDIS_DB", "0"); db != "" {
		v, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", db, err)
		}
		cfg.Redis.DB = v
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

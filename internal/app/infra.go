package app

import (
	"fmt"

	"taskmarket-client/internal/config"
	"taskmarket-client/internal/logger"
	"taskmarket-client/internal/storage"
)

// setupStorage picks the persistence backend for session state. The file
// backend is the default and needs no external services.
func setupStorage(cfg config.Config) (storage.KV, func() error, error) {
	switch cfg.Storage {
	case "file", "":
		kv, err := storage.NewFileStore(cfg.StateFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("file storage ready", map[string]any{"path": cfg.StateFile})
		return kv, nil, nil

	case "redis":
		kv, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("redis storage ready", map[string]any{"addr": cfg.RedisAddr})
		return kv, kv.Close, nil

	case "memory":
		return storage.NewMemoryStore(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

package database

import (
	"context"
	"fmt"
	"log/slog"
)

// Open selects the Store backend once at startup. A MySQL backend that
// can't be reached degrades to the memory store rather than failing.
func Open(ctx context.Context, backend, mysqlDSN, sqlitePath string, logger *slog.Logger) (Store, error) {
	switch backend {
	case "mysql":
		store, err := NewMySQLStore(ctx, mysqlDSN)
		if err != nil {
			logger.Error("mysql unavailable, falling back to in-memory store", "error", err)
			return NewMemoryStore(), nil
		}
		logger.Info("✓ connected to mysql")
		return store, nil
	case "sqlite":
		store, err := NewSQLiteStore(ctx, sqlitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("✓ opened sqlite database", "path", sqlitePath)
		return store, nil
	case "memory", "":
		logger.Warn("using in-memory store; data will not survive a restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

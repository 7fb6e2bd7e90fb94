package repository

import (
	"context"
	"strings"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/adapters/repository/redis"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
)

// Open picks the slot storage backend from the URL scheme.
// Anything that is not memory:// or redis:// is handed to the SQL drivers.
func Open(ctx context.Context, sessionURL string) (ports.SlotStorage, error) {
	switch {
	case sessionURL == "" || strings.HasPrefix(sessionURL, "memory://"):
		return memory.NewMemoryRepository(), nil
	case strings.HasPrefix(sessionURL, "redis://"), strings.HasPrefix(sessionURL, "rediss://"):
		return redis.NewRedisRepository(ctx, sessionURL)
	default:
		return sqlite.NewSQLiteRepository(sessionURL)
	}
}

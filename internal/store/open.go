package store

import (
	"context"
	"strings"
)

// Open connects to the store named by databaseURL.
//
//	sqlite:////data/app.db   absolute path /data/app.db
//	sqlite:///./app.db       relative path ./app.db
//	postgres://...           PostgreSQL (postgresql:// also accepted)
//	redis://...              Redis (rediss:// also accepted)
//	anything else            treated as a SQLite file path
func Open(ctx context.Context, databaseURL string) (DataStore, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgresStore(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "redis://"), strings.HasPrefix(databaseURL, "rediss://"):
		return NewRedisStore(ctx, databaseURL)
	default:
		return NewSQLiteStore(ctx, SQLitePath(databaseURL))
	}
}

// SQLitePath extracts the filesystem path from a sqlite: URL.
func SQLitePath(databaseURL string) string {
	for _, prefix := range []string{"sqlite:///", "sqlite://", "sqlite:"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}

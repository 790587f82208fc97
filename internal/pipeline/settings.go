package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rbright/assist/internal/config"
	"github.com/rbright/assist/internal/settings"
)

// OpenSettings opens the configured settings backend. The returned closer
// releases the underlying connection.
func OpenSettings(ctx context.Context, cfg config.SettingsConfig) (*settings.Store, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "sqlite":
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			resolved, err := config.DefaultSQLitePath()
			if err != nil {
				return nil, nil, err
			}
			path = resolved
		}
		db, err := settings.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return settings.NewStore(db.Secure(), db.Plain()), db, nil
	case "redis":
		rdb, err := settings.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return settings.NewStore(rdb.Secure(), rdb.Plain()), rdb, nil
	case "memory":
		return settings.NewStore(settings.NewMemory(), settings.NewMemory()), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported settings backend %q", cfg.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

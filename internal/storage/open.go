package storage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Options selects and configures a Store implementation.
type Options struct {
	Driver         string // memory, sqlite, postgres or redis
	DSN            string
	RedisURL       string
	RedisNamespace string
}

// Open builds the Store named by opts.Driver.
func Open(ctx context.Context, opts Options, log *logrus.Logger) (Store, error) {
	entry := log.WithField("component", "storage").WithField("driver", opts.Driver)

	switch opts.Driver {
	case "memory":
		entry.Warn("using in-memory storage; carts will not survive a restart")
		return NewMemoryStore(), nil
	case "sqlite", "postgres":
		var dialector gorm.Dialector
		if opts.Driver == "sqlite" {
			dialector = sqlite.Open(opts.DSN)
		} else {
			dialector = postgres.Open(opts.DSN)
		}
		db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		store, err := NewGormStore(db)
		if err != nil {
			return nil, err
		}
		entry.Info("storage ready")
		return store, nil
	case "redis":
		store, err := NewRedisStore(ctx, opts.RedisURL, opts.RedisNamespace)
		if err != nil {
			return nil, err
		}
		entry.Info("storage ready")
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", opts.Driver)
	}
}

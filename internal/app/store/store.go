// internal/app/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/formdrop/internal/app/intake"
	"github.com/dalemusser/formdrop/internal/domain/models"
	"github.com/dalemusser/formdrop/metrics"
	"go.uber.org/zap"
)

// Store is the submission log. Implementations are safe for concurrent use
// within one process.
type Store interface {
	// Append assigns the next ID and persists sub.
	Append(ctx context.Context, sub models.Submission) (models.Submission, error)
	// List returns every submission in append order. Never nil.
	List(ctx context.Context) ([]models.Submission, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// SchemaEnsurer is implemented by backends that need tables or indexes.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// Backend names accepted in Config.Driver.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Driver string

	// file
	File string

	// sqlite path, mysql DSN or postgres URL
	DatabaseURL string

	// redis
	RedisURL      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// mongo
	MongoURI      string
	MongoDatabase string
}

// DegradedFunc observes read failures that were downgraded to an empty or
// partial result. err is a *intake.StoreError.
type DegradedFunc func(err error)

// LogDegraded logs each degraded read at warn and counts it by kind.
func LogDegraded(logger *zap.Logger) DegradedFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(err error) {
		reason := "unknown"
		var se *intake.StoreError
		if errors.As(err, &se) {
			reason = string(se.Kind)
		}
		logger.Warn("store degraded", zap.String("reason", reason), zap.Error(err))
		metrics.ObserveStoreDegraded(reason)
	}
}

// Open connects the configured backend. The returned Store owns the
// connection; Close releases it.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	degraded := LogDegraded(logger)

	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case "", DriverFile:
		path := cfg.File
		if path == "" {
			path = DefaultFile
		}
		return NewFileStore(path, WithDegraded(degraded)), nil
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.DatabaseURL)
	case DriverMySQL:
		return OpenMySQL(ctx, cfg.DatabaseURL)
	case DriverPostgres, "postgresql", "pgx":
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case DriverRedis:
		return OpenRedis(ctx, cfg, degraded)
	case DriverMongo, "mongodb":
		return OpenMongo(ctx, cfg, degraded)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func connectError(op, where string, err error) error {
	return &intake.StoreError{Op: op, Kind: intake.KindConnect, Path: where, Err: err}
}

// app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/formdrop/config"
	"github.com/dalemusser/formdrop/httputil"
	"github.com/dalemusser/formdrop/logging"
	"github.com/dalemusser/formdrop/metrics"
	"github.com/dalemusser/formdrop/pantry/version"
	"github.com/dalemusser/formdrop/server"
	"go.uber.org/zap"
)

// Hooks are the integration points an application provides to Run.
type Hooks[C any, D any] struct {
	// Name is used only for logging.
	Name string

	// LoadConfig returns the core config and the app config.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// ConnectDB opens the app's backends. It should respect core.DBConnectTimeout.
	ConnectDB func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (D, error)

	// EnsureSchema creates tables and indexes. Optional.
	EnsureSchema func(ctx context.Context, core *config.CoreConfig, appCfg C, db D, logger *zap.Logger) error

	// BuildHandler builds the root http.Handler (router, middleware, routes).
	BuildHandler func(core *config.CoreConfig, appCfg C, db D, logger *zap.Logger) (http.Handler, error)

	// Shutdown releases what ConnectDB opened. Optional; runs after the
	// server has stopped.
	Shutdown func(ctx context.Context, core *config.CoreConfig, appCfg C, db D, logger *zap.Logger) error
}

// Run executes the startup sequence:
//
//  1. bootstrap logger
//  2. Hooks.LoadConfig
//  3. final logger from log_level and env
//  4. default metrics (when enable_metrics)
//  5. Hooks.ConnectDB
//  6. Hooks.EnsureSchema, bounded by index_boot_timeout
//  7. shutdown signals wired to the context
//  8. Hooks.BuildHandler
//  9. serve until shutdown, then Hooks.Shutdown
//
// It returns the first error; main decides the exit code.
func Run[C any, D any](ctx context.Context, hooks Hooks[C, D]) error {
	// 1) Bootstrap logger for early startup
	bootstrap := logging.BootstrapLogger()
	defer func() { _ = bootstrap.Sync() }()
	bootstrap.Info("bootstrap logger initialized", zap.String("app", hooks.Name))

	if hooks.LoadConfig == nil || hooks.ConnectDB == nil || hooks.BuildHandler == nil {
		return errors.New("app: LoadConfig, ConnectDB and BuildHandler hooks are required")
	}

	// 2) Load config (core + app-specific)
	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	// 3) Build final logger
	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("logger initialized", append([]zap.Field{zap.String("app", hooks.Name)}, version.Fields()...)...)
	logger.Debug("core config", zap.String("config", coreCfg.Dump()))
	httputil.SetJSONLogger(logger)

	// 4) Register default metrics (Go, process, HTTP histograms)
	if coreCfg.EnableMetrics {
		metrics.RegisterDefault(logger)
	}

	// 5) Connect the store and mailer
	connectCtx, cancelConnect := context.WithTimeout(ctx, coreCfg.DBConnectTimeout)
	db, err := hooks.ConnectDB(connectCtx, coreCfg, appCfg, logger)
	cancelConnect()
	if err != nil {
		logger.Error("store connect failed", zap.Error(err))
		return fmt.Errorf("connect: %w", err)
	}

	if hooks.Shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), coreCfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := hooks.Shutdown(shutdownCtx, coreCfg, appCfg, db, logger); err != nil {
				logger.Warn("shutdown hook failed", zap.Error(err))
			}
		}()
	}

	// 6) Ensure schema (optional)
	if hooks.EnsureSchema != nil {
		schemaCtx, cancel := context.WithTimeout(ctx, coreCfg.IndexBootTimeout)
		err := hooks.EnsureSchema(schemaCtx, coreCfg, appCfg, db, logger)
		cancel()
		if err != nil {
			logger.Error("schema ensure failed", zap.Error(err))
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	// 7) Wire shutdown signals to the context
	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	// 8) Build HTTP handler (router + middleware + routes)
	handler, err := hooks.BuildHandler(coreCfg, appCfg, db, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	// 9) Serve until shutdown
	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

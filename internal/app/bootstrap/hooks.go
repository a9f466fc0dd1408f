// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/formdrop/app"
	"github.com/dalemusser/formdrop/config"
	"github.com/dalemusser/formdrop/internal/app/features/contact"
	"github.com/dalemusser/formdrop/internal/app/intake"
	"github.com/dalemusser/formdrop/internal/app/notify"
	"github.com/dalemusser/formdrop/internal/app/store"
	"github.com/dalemusser/formdrop/metrics"
	"github.com/dalemusser/formdrop/pantry/fileserver"
	"github.com/dalemusser/formdrop/pantry/health"
	"github.com/dalemusser/formdrop/pantry/ratelimit"
	"github.com/dalemusser/formdrop/pantry/version"
	"github.com/dalemusser/formdrop/router"
	"go.uber.org/zap"
)

// LoadConfig loads the core config and formdrop's app keys.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, values, err := config.LoadWithAppConfig(logger, EnvPrefix, appKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}
	return coreCfg, appConfigFrom(values), nil
}

// ConnectDB opens the store and prepares the notifier, the field aliases
// and the submit rate limiter.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	aliases := intake.DefaultAliases()
	if appCfg.FieldAliasesFile != "" {
		a, err := intake.LoadAliases(appCfg.FieldAliasesFile)
		if err != nil {
			return DBDeps{}, err
		}
		aliases = a
		logger.Info("field aliases loaded", zap.String("path", appCfg.FieldAliasesFile))
	}

	st, err := store.Open(ctx, appCfg.Store, logger)
	if err != nil {
		return DBDeps{}, err
	}
	logger.Info("store opened", zap.String("driver", appCfg.Store.Driver))

	n, err := notify.FromSettings(ctx, appCfg.Mail, logger)
	if err != nil {
		_ = st.Close(context.Background())
		return DBDeps{}, fmt.Errorf("mail settings: %w", err)
	}

	deps := DBDeps{Store: st, Notifier: n, Aliases: aliases}
	if appCfg.SubmitRatePerMin > 0 {
		deps.SubmitLimiter = ratelimit.NewKeyLimiter(float64(appCfg.SubmitRatePerMin)/60, appCfg.SubmitBurst, 0)
		logger.Info("submit rate limit enabled",
			zap.Int("per_minute", appCfg.SubmitRatePerMin),
			zap.Int("burst", appCfg.SubmitBurst))
	}
	return deps, nil
}

// EnsureSchema creates tables or indexes for backends that need them.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	se, ok := deps.Store.(store.SchemaEnsurer)
	if !ok {
		return nil
	}
	return se.EnsureSchema(ctx)
}

// BuildHandler assembles the router: health, version, metrics, the contact
// routes and, when static_dir is set, the static site.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := router.New(coreCfg, logger)

	health.Mount(r, map[string]health.Check{"store": deps.Store.Ping}, logger)
	version.Mount(r)
	if coreCfg.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	svc := intake.NewService(intake.NewNormalizer(deps.Aliases), deps.Store, deps.Notifier, logger)
	contact.NewHandler(svc, deps.Store, logger).Mount(r, contact.Options{
		CoreCfg: coreCfg,
		APIKey:  appCfg.MessagesAPIKey,
		Limiter: deps.SubmitLimiter,
	})

	if appCfg.StaticDir != "" {
		r.Handle("/*", fileserver.SPA(appCfg.StaticDir))
		logger.Info("serving static site", zap.String("dir", appCfg.StaticDir))
	}
	return r, nil
}

// Shutdown stops the limiter and closes the store.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	deps.SubmitLimiter.Stop()
	if deps.Store == nil {
		return nil
	}
	if err := deps.Store.Close(ctx); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// Hooks wires formdrop into the app lifecycle.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:         "formdrop",
	LoadConfig:   LoadConfig,
	ConnectDB:    ConnectDB,
	EnsureSchema: EnsureSchema,
	BuildHandler: BuildHandler,
	Shutdown:     Shutdown,
}

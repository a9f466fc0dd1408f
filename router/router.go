// router/router.go
package router

import (
	"github.com/dalemusser/formdrop/config"
	"github.com/dalemusser/formdrop/logging"
	"github.com/dalemusser/formdrop/metrics"
	"github.com/dalemusser/formdrop/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New creates a chi.Router with the standard middleware stack:
// RequestID, RealIP, Recoverer, security headers, body size limit,
// compression, metrics (when enabled), access logging and JSON
// NotFound/MethodNotAllowed handlers.
//
// Routes, CORS and auth are left to the features that mount on it.
func New(coreCfg *config.CoreConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))
	r.Use(middleware.CompressFromConfig(coreCfg))
	if coreCfg.EnableMetrics {
		r.Use(metrics.HTTPMetrics)
	}
	r.Use(logging.RequestLogger(logger, "/health", "/metrics"))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}

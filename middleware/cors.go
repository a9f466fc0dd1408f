// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/formdrop/config"
	"github.com/go-chi/cors"
)

// PublicFormCORS is the policy used by embeddable form endpoints when no
// custom CORS policy is configured: any origin may POST JSON or form data.
// Preflight requests reach the route's own OPTIONS handler after the CORS
// headers are set. Like every go-chi/cors policy it only answers requests
// that carry an Origin header.
func PublicFormCORS() cors.Options {
	return cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type"},
		OptionsPassthrough: true,
	}
}

// CORSOrDefault applies the configured CORS policy when enable_cors is set
// and def otherwise.
func CORSOrDefault(coreCfg *config.CoreConfig, def cors.Options) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return cors.Handler(def)
	}
	return cors.Handler(optionsFromConfig(coreCfg))
}

func optionsFromConfig(coreCfg *config.CoreConfig) cors.Options {
	return cors.Options{
		AllowedOrigins:   coreCfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   coreCfg.CORS.CORSAllowedMethods,
		AllowedHeaders:   coreCfg.CORS.CORSAllowedHeaders,
		ExposedHeaders:   coreCfg.CORS.CORSExposedHeaders,
		AllowCredentials: coreCfg.CORS.CORSAllowCredentials,
		MaxAge:           coreCfg.CORS.CORSMaxAge,
	}
}

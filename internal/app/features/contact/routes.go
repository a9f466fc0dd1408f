// internal/app/features/contact/routes.go
package contact

import (
	"github.com/dalemusser/formdrop/auth/apikey"
	"github.com/dalemusser/formdrop/config"
	"github.com/dalemusser/formdrop/logging"
	"github.com/dalemusser/formdrop/middleware"
	"github.com/dalemusser/formdrop/pantry/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Options configures Mount.
type Options struct {
	// CoreCfg supplies the CORS policy for /api/contact when enable_cors
	// is set. Nil uses the public form policy.
	CoreCfg *config.CoreConfig

	// APIKey protects the /api/messages endpoints. Empty leaves them open.
	APIKey string

	// Limiter is shared by both submit routes. Nil disables limiting.
	Limiter *ratelimit.KeyLimiter
}

// Mount registers the contact routes on r:
//
//	POST    /submit-message
//	POST    /api/contact
//	OPTIONS /api/contact
//	GET     /api/messages
//	GET     /api/messages.csv
//	GET     /api/messages.xlsx
func (h *Handler) Mount(r chi.Router, opts Options) {
	r.With(
		logging.RecoverWith(h.logger, h.recovered(submitContract)),
		opts.Limiter.Wrap(nil, h.limited(submitContract)),
	).Post("/submit-message", h.submit(submitContract))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.CORSOrDefault(opts.CoreCfg, middleware.PublicFormCORS()))
			r.With(
				logging.RecoverWith(h.logger, h.recovered(apiContract)),
				opts.Limiter.Wrap(nil, h.limited(apiContract)),
			).Post("/contact", h.submit(apiContract))
			r.Options("/contact", h.preflight)
		})

		r.Group(func(r chi.Router) {
			r.Use(apikey.Optional(opts.APIKey, apikey.Options{}, h.logger))
			r.Get("/messages", h.listJSON)
			r.Get("/messages.csv", h.listCSV)
			r.Get("/messages.xlsx", h.listExcel)
		})
	})
}

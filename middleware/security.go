// middleware/security.go
package middleware

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/formdrop/config"
)

// SecurityHeadersOptions configures SecurityHeaders. An empty string
// disables the corresponding header; HSTSMaxAge 0 disables HSTS.
type SecurityHeadersOptions struct {
	XFrameOptions         string
	XContentTypeOptions   string
	ReferrerPolicy        string
	HSTSMaxAge            int
	HSTSIncludeSubDomains bool
	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// DefaultSecurityHeadersOptions returns the defaults used when no config is given.
func DefaultSecurityHeadersOptions() SecurityHeadersOptions {
	return SecurityHeadersOptions{
		XFrameOptions:         "SAMEORIGIN",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: true,
	}
}

type header struct{ name, value string }

// SecurityHeaders returns middleware that sets the configured security
// headers on every response. Strict-Transport-Security is only sent on TLS
// requests.
func SecurityHeaders(opts SecurityHeadersOptions) func(next http.Handler) http.Handler {
	var static []header
	add := func(name, value string) {
		if value != "" {
			static = append(static, header{name, value})
		}
	}
	add("X-Frame-Options", opts.XFrameOptions)
	add("X-Content-Type-Options", opts.XContentTypeOptions)
	add("Referrer-Policy", opts.ReferrerPolicy)
	add("Content-Security-Policy", opts.ContentSecurityPolicy)
	add("Permissions-Policy", opts.PermissionsPolicy)

	var hsts string
	if opts.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(opts.HSTSMaxAge)
		if opts.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, sh := range static {
				h.Set(sh.name, sh.value)
			}
			if hsts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersFromConfig builds SecurityHeaders from coreCfg.Security.
// It is a no-op when coreCfg is nil or enable_security_headers is false.
func SecurityHeadersFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.Security.EnableSecurityHeaders {
		return passthrough
	}
	s := coreCfg.Security
	return SecurityHeaders(SecurityHeadersOptions{
		XFrameOptions:         s.XFrameOptions,
		XContentTypeOptions:   s.XContentTypeOptions,
		ReferrerPolicy:        s.ReferrerPolicy,
		HSTSMaxAge:            s.HSTSMaxAge,
		HSTSIncludeSubDomains: s.HSTSIncludeSubDomains,
		ContentSecurityPolicy: s.ContentSecurityPolicy,
		PermissionsPolicy:     s.PermissionsPolicy,
	})
}

func passthrough(next http.Handler) http.Handler { return next }

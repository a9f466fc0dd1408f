// auth/apikey/apikey.go
package apikey

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dalemusser/formdrop/httputil"
	"go.uber.org/zap"
)

// Options control how the API-key middleware behaves.
type Options struct {
	// Realm is used in the WWW-Authenticate header. Defaults to "formdrop".
	Realm string
}

// Optional returns Require(expected) when expected is set and a pass-through
// middleware otherwise, so read endpoints stay open unless a key is configured.
func Optional(expected string, opts Options, logger *zap.Logger) func(next http.Handler) http.Handler {
	if strings.TrimSpace(expected) == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	return Require(expected, opts, logger)
}

// Require enforces a static API key. The key is read from, in order:
//  1. Authorization: Bearer <token>
//  2. X-API-Key header
//  3. api_key query param
func Require(expected string, opts Options, logger *zap.Logger) func(next http.Handler) http.Handler {
	expected = strings.TrimSpace(expected)
	if logger == nil {
		logger = zap.NewNop()
	}
	realm := strings.TrimSpace(opts.Realm)
	if realm == "" {
		realm = "formdrop"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				logger.Warn("apikey.Require used with empty expected key")
				httputil.JSONError(w, http.StatusInternalServerError, "server_misconfigured", "API key is not configured")
				return
			}

			key, ok := fromRequest(r)
			if !ok || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
				logger.Warn("API key unauthorized",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.String("remote_ip", r.RemoteAddr),
					zap.Bool("key_present", ok),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="`+realm+`"`)
				httputil.JSONError(w, http.StatusUnauthorized, "unauthorized", "A valid API key is required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func fromRequest(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > len("bearer ") && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		if token := strings.TrimSpace(auth[len("bearer "):]); token != "" {
			return token, true
		}
	}
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key, true
	}
	if key := strings.TrimSpace(r.URL.Query().Get("api_key")); key != "" {
		return key, true
	}
	return "", false
}

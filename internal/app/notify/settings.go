// internal/app/notify/settings.go
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/formdrop/pantry/email"
	"go.uber.org/zap"
)

// Settings is the mail configuration as loaded from config.
type Settings struct {
	// Service names a well-known provider (see LookupService). Host/Port
	// take precedence when Host is set.
	Service string
	Host    string
	Port    int

	From     string
	FromName string

	// Auth is "password" (default) or "oauth2".
	Auth     email.Auth
	Password string
	OAuth    OAuthConfig

	// AdminEmail receives notifications. Defaults to From.
	AdminEmail string
	SiteName   string
	Timeout    time.Duration
}

// FromSettings builds the production Notifier. Missing sender, credential or
// endpoint yields a disabled Notifier, not an error; an unknown auth mode or
// OAuth provider is an error. ctx is used by the OAuth token source.
func FromSettings(ctx context.Context, s Settings, logger *zap.Logger) (*Notifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	disabled := func(reason string) (*Notifier, error) {
		logger.Info("mail notifications disabled", zap.String("reason", reason))
		return Disabled(reason, logger), nil
	}

	from := strings.TrimSpace(s.From)
	if from == "" {
		return disabled("no sender address (email_from)")
	}

	ep := Endpoint{Host: strings.TrimSpace(s.Host), Port: s.Port}
	if ep.Host == "" {
		if s.Service == "" {
			return disabled("no SMTP endpoint (smtp_host or email_service)")
		}
		known, ok := LookupService(s.Service)
		if !ok {
			logger.Warn("unknown email_service", zap.String("email_service", s.Service))
			return disabled("unknown email service " + s.Service)
		}
		ep = known
	}

	cfg := email.Config{
		Host:        ep.Host,
		Port:        ep.Port,
		Username:    from,
		FromAddress: from,
		FromName:    s.FromName,
		Timeout:     s.Timeout,
	}

	switch s.Auth {
	case "", email.AuthPassword:
		if s.Password == "" {
			return disabled("no credential (email_password)")
		}
		cfg.Auth = email.AuthPassword
		cfg.Password = s.Password
	case email.AuthXOAUTH2:
		if s.OAuth.ClientID == "" || s.OAuth.RefreshToken == "" {
			return disabled("no oauth credential (oauth_client_id, oauth_refresh_token)")
		}
		ts, err := TokenSource(ctx, s.OAuth)
		if err != nil {
			return nil, err
		}
		cfg.Auth = email.AuthXOAUTH2
		cfg.TokenSource = ts
	default:
		return nil, fmt.Errorf("notify: unknown email_auth %q (want password or oauth2)", s.Auth)
	}

	to := strings.TrimSpace(s.AdminEmail)
	if to == "" {
		to = from
	}

	logger.Info("mail notifications enabled",
		zap.String("smtp_host", ep.Host),
		zap.Int("smtp_port", ep.Port),
		zap.String("auth", string(cfg.Auth)),
		zap.String("to", to),
	)
	return New(email.NewSender(cfg), to, s.SiteName, s.Timeout, logger), nil
}

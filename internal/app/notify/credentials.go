// internal/app/notify/credentials.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuthConfig holds the refresh-token grant used for XOAUTH2.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string

	// Provider is "google" or "microsoft". Ignored when TokenURL is set.
	Provider string
	// Tenant is the Microsoft tenant. Default "common".
	Tenant string
	// TokenURL overrides the provider's token endpoint.
	TokenURL string
}

// Scopes needed to send mail over SMTP per provider.
var (
	googleMailScopes    = []string{"https://mail.google.com/"}
	microsoftMailScopes = []string{"https://outlook.office.com/SMTP.Send", "offline_access"}
)

// TokenSource returns a caching source of access tokens minted from the
// refresh token. ctx may carry an *http.Client under oauth2.HTTPClient for
// the refresh calls; its deadline and cancellation are ignored.
func TokenSource(ctx context.Context, cfg OAuthConfig) (oauth2.TokenSource, error) {
	if cfg.ClientID == "" || cfg.RefreshToken == "" {
		return nil, errors.New("notify: oauth2 needs a client id and a refresh token")
	}

	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}
	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); {
	case cfg.TokenURL != "":
		oc.Endpoint = oauth2.Endpoint{TokenURL: cfg.TokenURL}
	case provider == "google" || provider == "gmail":
		oc.Endpoint = google.Endpoint
		oc.Scopes = googleMailScopes
	case provider == "microsoft" || provider == "outlook" || provider == "office365":
		tenant := cfg.Tenant
		if tenant == "" {
			tenant = "common"
		}
		oc.Endpoint = oauth2.Endpoint{
			AuthURL:  fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/authorize", tenant),
			TokenURL: fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenant),
		}
		oc.Scopes = microsoftMailScopes
	default:
		return nil, fmt.Errorf("notify: unknown oauth provider %q (set oauth_token_url)", cfg.Provider)
	}

	return oc.TokenSource(context.WithoutCancel(ctx), &oauth2.Token{RefreshToken: cfg.RefreshToken}), nil
}

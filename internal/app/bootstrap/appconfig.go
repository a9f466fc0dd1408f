// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"github.com/dalemusser/formdrop/config"
	"github.com/dalemusser/formdrop/internal/app/notify"
	"github.com/dalemusser/formdrop/internal/app/store"
	"github.com/dalemusser/formdrop/pantry/email"
)

// EnvPrefix prefixes every environment variable (FORMDROP_EMAIL_FROM, ...).
const EnvPrefix = "FORMDROP"

// AppConfig holds formdrop's service-specific configuration.
type AppConfig struct {
	Mail  notify.Settings
	Store store.Config

	StaticDir        string
	MessagesAPIKey   string
	FieldAliasesFile string

	SubmitRatePerMin int
	SubmitBurst      int
}

// appKeys are loaded alongside the core config. The Env aliases keep the
// deployment variable names used by earlier versions of the form backend.
var appKeys = []config.AppKey{
	// mail
	{Name: "email_service", Default: "", Desc: "Well-known mail provider (gmail, outlook, sendgrid, ...)", Env: []string{"EMAIL_SERVICE"}},
	{Name: "email_from", Default: "", Desc: "Sender address; also the SMTP username", Env: []string{"EMAIL_FROM", "GMAIL_USER"}},
	{Name: "email_from_name", Default: "", Desc: "Sender display name"},
	{Name: "email_password", Default: "", Desc: "SMTP password or app password", Env: []string{"EMAIL_PASSWORD", "GMAIL_APP_PASSWORD"}, Secret: true},
	{Name: "admin_email", Default: "", Desc: "Notification recipient (defaults to email_from)", Env: []string{"ADMIN_EMAIL"}},
	{Name: "smtp_host", Default: "", Desc: "SMTP host; overrides email_service"},
	{Name: "smtp_port", Default: 0, Desc: "SMTP port (defaults per provider, else 587)"},
	{Name: "email_auth", Default: "password", Desc: "SMTP auth: password or oauth2"},
	{Name: "oauth_provider", Default: "", Desc: "OAuth2 provider: google or microsoft"},
	{Name: "oauth_tenant", Default: "", Desc: "Microsoft tenant (default common)"},
	{Name: "oauth_client_id", Default: "", Desc: "OAuth2 client id"},
	{Name: "oauth_client_secret", Default: "", Desc: "OAuth2 client secret", Secret: true},
	{Name: "oauth_refresh_token", Default: "", Desc: "OAuth2 refresh token", Secret: true},
	{Name: "oauth_token_url", Default: "", Desc: "Override the provider token endpoint"},
	{Name: "site_name", Default: "Website", Desc: "Site name shown in notification mails"},
	{Name: "mail_timeout", Default: "30s", Desc: "Upper bound on one notification send"},

	// storage
	{Name: "store_driver", Default: store.DriverFile, Desc: "file, sqlite, mysql, postgres, redis or mongo"},
	{Name: "messages_file", Default: store.DefaultFile, Desc: "JSON file used by the file store"},
	{Name: "database_url", Default: "", Desc: "sqlite path, MySQL DSN or Postgres URL", Env: []string{"DATABASE_URL"}, Secret: true},
	{Name: "redis_url", Default: "", Desc: "Redis URL (redis://...); overrides redis_addr", Env: []string{"REDIS_URL"}, Secret: true},
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis host:port"},
	{Name: "redis_password", Default: "", Desc: "Redis password", Secret: true},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "redis_prefix", Default: "formdrop", Desc: "Prefix for Redis keys"},
	{Name: "mongo_uri", Default: "", Desc: "MongoDB connection string", Env: []string{"MONGODB_URI"}, Secret: true},
	{Name: "mongo_database", Default: "formdrop", Desc: "MongoDB database name"},

	// HTTP surface
	{Name: "static_dir", Default: "", Desc: "Serve this directory at / with index.html fallback"},
	{Name: "messages_api_key", Default: "", Desc: "API key for /api/messages (empty leaves it open)", Secret: true},
	{Name: "field_aliases_file", Default: "", Desc: "YAML file with extra form field aliases"},
	{Name: "submit_rate_per_min", Default: 0, Desc: "Submissions per minute per client IP (0 disables)"},
	{Name: "submit_burst", Default: 5, Desc: "Submissions a client may send at once before limiting"},
}

func appConfigFrom(v config.AppConfigValues) AppConfig {
	return AppConfig{
		Mail: notify.Settings{
			Service:    v.String("email_service"),
			Host:       v.String("smtp_host"),
			Port:       v.Int("smtp_port"),
			From:       v.String("email_from"),
			FromName:   v.String("email_from_name"),
			Auth:       email.Auth(v.String("email_auth")),
			Password:   v.String("email_password"),
			AdminEmail: v.String("admin_email"),
			SiteName:   v.String("site_name"),
			Timeout:    v.Duration("mail_timeout", notify.DefaultTimeout),
			OAuth: notify.OAuthConfig{
				ClientID:     v.String("oauth_client_id"),
				ClientSecret: v.String("oauth_client_secret"),
				RefreshToken: v.String("oauth_refresh_token"),
				Provider:     v.String("oauth_provider"),
				Tenant:       v.String("oauth_tenant"),
				TokenURL:     v.String("oauth_token_url"),
			},
		},
		Store: store.Config{
			Driver:        v.String("store_driver"),
			File:          v.String("messages_file"),
			DatabaseURL:   v.String("database_url"),
			RedisURL:      v.String("redis_url"),
			RedisAddr:     v.String("redis_addr"),
			RedisPassword: v.String("redis_password"),
			RedisDB:       v.Int("redis_db"),
			RedisPrefix:   v.String("redis_prefix"),
			MongoURI:      v.String("mongo_uri"),
			MongoDatabase: v.String("mongo_database"),
		},
		StaticDir:        v.String("static_dir"),
		MessagesAPIKey:   v.String("messages_api_key"),
		FieldAliasesFile: v.String("field_aliases_file"),
		SubmitRatePerMin: v.Int("submit_rate_per_min"),
		SubmitBurst:      v.Int("submit_burst"),
	}
}

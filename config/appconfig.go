// config/appconfig.go
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppKey defines a configuration key for an application.
// Apps register their config keys using this type, and the config package
// handles loading from config files, environment variables, and command-line flags.
type AppKey struct {
	// Name is the key name (e.g., "email_from", "messages_file").
	// This is used as-is for config files and CLI flags.
	// For env vars, it's uppercased and prefixed (e.g., FORMDROP_EMAIL_FROM).
	Name string

	// Default is the default value if not set elsewhere.
	// Supported types: string, int, int64, bool, []string.
	Default any

	// Desc is a short description for --help output.
	Desc string

	// Env lists additional environment variable names accepted for this key,
	// checked after the prefixed name (e.g., "EMAIL_FROM", "GMAIL_USER").
	Env []string

	// Secret keys are redacted when the loaded config is logged.
	Secret bool
}

// AppConfigValues holds the loaded app configuration values.
// Keys are the AppKey.Name values, values are the loaded configuration.
type AppConfigValues map[string]any

// String returns a string value or empty string if not found/wrong type.
func (a AppConfigValues) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Int returns an int value or 0 if not found/wrong type.
// Handles both int and int64 (TOML/Viper returns int64 for integers).
func (a AppConfigValues) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Int64 returns an int64 value or 0 if not found/wrong type.
// Handles both int64 and int for flexibility.
func (a AppConfigValues) Int64(key string) int64 {
	switch v := a[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// Bool returns a bool value or false if not found/wrong type.
func (a AppConfigValues) Bool(key string) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return false
}

// StringSlice returns a []string value or nil if not found/wrong type.
func (a AppConfigValues) StringSlice(key string) []string {
	if v, ok := a[key].([]string); ok {
		return v
	}
	return nil
}

// Duration parses a duration value from the config.
// Accepts:
//   - Duration strings: "10m", "1h30m", "90s", "2h"
//   - Numeric values: interpreted as seconds (e.g., 600 = 10 minutes)
//   - Plain numeric strings: "600" = 600 seconds
//
// Returns the default value if the key is not found, empty, or invalid.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	raw := a[key]
	if raw == nil {
		return def
	}
	dur, err := parseDurationFlexible(raw, def)
	if err != nil {
		return def
	}
	return dur
}

// loadAppConfig loads app-specific configuration using the same precedence
// as the core config: flags > env > config files > defaults.
//
// The envPrefix is used for environment variables (e.g., "FORMDROP" means
// the key "email_from" maps to env var "FORMDROP_EMAIL_FROM").
//
// Config files have already been merged into v; flags in fs must be parsed.
func loadAppConfig(logger *zap.Logger, v *viper.Viper, fs *pflag.FlagSet, envPrefix string, keys []AppKey) (AppConfigValues, error) {
	if len(keys) == 0 {
		return make(AppConfigValues), nil
	}

	// Create a child viper for app config with the app's env prefix
	appV := viper.New()
	appV.SetEnvPrefix(envPrefix)
	appV.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	appV.AutomaticEnv()

	// Register each key
	for _, key := range keys {
		appV.SetDefault(key.Name, key.Default)

		_ = appV.BindEnv(append([]string{key.Name}, envNames(envPrefix, key.Name, key.Env)...)...)

		// Copy value from main viper if it was set in config file
		// (config files are loaded into the main viper instance)
		if v.InConfig(key.Name) {
			appV.Set(key.Name, v.Get(key.Name))
		}

		// Bind pflag if it was explicitly set
		if f := fs.Lookup(key.Name); f != nil && f.Changed {
			_ = appV.BindPFlag(key.Name, f)
		}
	}

	// Build result map, typed by each key's default.
	result := make(AppConfigValues, len(keys))
	for _, key := range keys {
		switch key.Default.(type) {
		case string:
			result[key.Name] = strings.TrimSpace(appV.GetString(key.Name))
		case int:
			result[key.Name] = appV.GetInt(key.Name)
		case int64:
			result[key.Name] = appV.GetInt64(key.Name)
		case bool:
			result[key.Name] = appV.GetBool(key.Name)
		case []string:
			arr, err := stringSlice(appV.Get(key.Name))
			if err != nil {
				return nil, fmt.Errorf("config key %q: %w", key.Name, err)
			}
			result[key.Name] = arr
		default:
			result[key.Name] = appV.Get(key.Name)
		}
	}

	if logger != nil {
		// Log loaded app config (never log secrets)
		fields := make([]zap.Field, 0, len(keys))
		for _, key := range keys {
			if key.Secret || looksSecret(key.Name) {
				if result.String(key.Name) != "" {
					fields = append(fields, zap.String(key.Name, "[REDACTED]"))
				} else {
					fields = append(fields, zap.String(key.Name, ""))
				}
				continue
			}
			fields = append(fields, zap.Any(key.Name, result[key.Name]))
		}
		logger.Info("app config loaded", fields...)
	}

	return result, nil
}

func looksSecret(name string) bool {
	nameLower := strings.ToLower(name)
	return strings.Contains(nameLower, "key") ||
		strings.Contains(nameLower, "secret") ||
		strings.Contains(nameLower, "password") ||
		strings.Contains(nameLower, "token")
}

// stringSlice accepts a []string, a []any, or a JSON array string.
func stringSlice(raw any) ([]string, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return t, nil
	case []any:
		arr := make([]string, 0, len(t))
		for _, e := range t {
			arr = append(arr, fmt.Sprint(e))
		}
		return arr, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		var arr []string
		if err := json.Unmarshal([]byte(s), &arr); err != nil {
			return nil, fmt.Errorf("expects a JSON array string, got %q: %w", s, err)
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported list value %T", raw)
	}
}

// registerAppFlags registers command-line flags for app config keys.
// Must be called before fs.Parse().
func registerAppFlags(fs *pflag.FlagSet, keys []AppKey) error {
	for _, key := range keys {
		// Check if flag already exists
		if fs.Lookup(key.Name) != nil {
			return fmt.Errorf("config key %q conflicts with existing flag", key.Name)
		}

		switch d := key.Default.(type) {
		case string:
			fs.String(key.Name, d, key.Desc)
		case int:
			fs.Int(key.Name, d, key.Desc)
		case int64:
			fs.Int64(key.Name, d, key.Desc)
		case bool:
			fs.Bool(key.Name, d, key.Desc)
		case []string:
			// For string slices, accept JSON array on command line
			fs.String(key.Name, "", key.Desc+" (JSON array)")
		default:
			return fmt.Errorf("config key %q has unsupported default type %T", key.Name, key.Default)
		}
	}
	return nil
}

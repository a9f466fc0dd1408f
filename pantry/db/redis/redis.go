// db/redis/redis.go
package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Client is re-exported for callers that only import this package.
type Client = redis.Client

// Config selects a Redis server. URL, when set, wins over Addr/Password/DB.
type Config struct {
	URL      string // redis://:password@host:6379/0 or rediss://…
	Addr     string // host:port
	Password string
	DB       int
}

// Connect opens a client for cfg and pings it.
// The caller is responsible for calling client.Close().
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	var opts *redis.Options
	if u := strings.TrimSpace(cfg.URL); u != "" {
		var err error
		if opts, err = redis.ParseURL(u); err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
	} else {
		opts = &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// internal/app/store/redis.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dalemusser/formdrop/internal/app/intake"
	"github.com/dalemusser/formdrop/internal/domain/models"
	redisdb "github.com/dalemusser/formdrop/pantry/db/redis"
	"github.com/redis/go-redis/v9"
)

// appendScript allocates the id and pushes the record in one step so the
// list stays in id order under concurrent appends. ARGV[1] is the record's
// JSON with its leading {"id":0 removed.
var appendScript = redis.NewScript(`
local id = redis.call('INCR', KEYS[1])
redis.call('RPUSH', KEYS[2], '{"id":' .. id .. ARGV[1])
return id
`)

// RedisStore keeps submissions as JSON strings in a Redis list, with ids
// from a counter key.
type RedisStore struct {
	client   *redis.Client
	seqKey   string
	listKey  string
	degraded DegradedFunc
}

var _ Store = (*RedisStore)(nil)

// OpenRedis connects using cfg's Redis fields. Keys are prefixed with
// cfg.RedisPrefix (default "formdrop").
func OpenRedis(ctx context.Context, cfg Config, degraded DegradedFunc) (*RedisStore, error) {
	addr := cfg.RedisAddr
	if addr == "" && cfg.RedisURL == "" {
		addr = "localhost:6379"
	}
	client, err := redisdb.Connect(ctx, redisdb.Config{
		URL:      cfg.RedisURL,
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, connectError("redis.connect", addr, err)
	}
	return NewRedisStore(client, cfg.RedisPrefix, degraded), nil
}

// NewRedisStore wraps an open client.
func NewRedisStore(client *redis.Client, prefix string, degraded DegradedFunc) *RedisStore {
	if prefix == "" {
		prefix = "formdrop"
	}
	if degraded == nil {
		degraded = func(error) {}
	}
	return &RedisStore{
		client:   client,
		seqKey:   prefix + ":seq",
		listKey:  prefix + ":submissions",
		degraded: degraded,
	}
}

var idZeroPrefix = []byte(`{"id":0`)

// Append implements Store.
func (s *RedisStore) Append(ctx context.Context, sub models.Submission) (models.Submission, error) {
	sub.ID = 0
	b, err := json.Marshal(sub)
	if err != nil {
		return models.Submission{}, &intake.StoreError{Op: "redis.encode", Kind: intake.KindWrite, Err: err}
	}
	if !bytes.HasPrefix(b, idZeroPrefix) {
		return models.Submission{}, &intake.StoreError{Op: "redis.encode", Kind: intake.KindWrite, Err: fmt.Errorf("unexpected encoding %.20q", b)}
	}

	id, err := appendScript.Run(ctx, s.client, []string{s.seqKey, s.listKey}, string(b[len(idZeroPrefix):])).Int64()
	if err != nil {
		return models.Submission{}, &intake.StoreError{Op: "redis.append", Kind: intake.KindWrite, Path: s.listKey, Err: err}
	}
	sub.ID = int(id)
	return sub, nil
}

// List implements Store. Entries that fail to decode are skipped and
// reported as degraded.
func (s *RedisStore) List(ctx context.Context) ([]models.Submission, error) {
	raw, err := s.client.LRange(ctx, s.listKey, 0, -1).Result()
	if err != nil {
		return nil, &intake.StoreError{Op: "redis.list", Kind: intake.KindRead, Path: s.listKey, Err: err}
	}
	subs := make([]models.Submission, 0, len(raw))
	for i, r := range raw {
		var sub models.Submission
		if err := json.Unmarshal([]byte(r), &sub); err != nil {
			s.degraded(&intake.StoreError{Op: "redis.decode", Kind: intake.KindCorrupt, Path: s.listKey + "[" + strconv.Itoa(i) + "]", Err: err})
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Count implements Store.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, s.listKey).Result()
	if err != nil {
		return 0, &intake.StoreError{Op: "redis.count", Kind: intake.KindRead, Path: s.listKey, Err: err}
	}
	return int(n), nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements Store.
func (s *RedisStore) Close(ctx context.Context) error {
	return s.client.Close()
}

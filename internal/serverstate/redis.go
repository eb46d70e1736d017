package serverstate

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
)

// RedisStore keeps the lifecycle state under one Redis key.
type RedisStore struct {
	client  redis.UniversalClient
	key     string
	timeout time.Duration
}

// RedisKey is the key holding the JSON-encoded State.
const RedisKey = "llmrouter:state"

// NewRedisStore connects to addr (host:port or a redis://, rediss:// or
// redis-sentinel:// URL). The key is seeded with not_ready when absent so an
// existing drain flag set by another replica is kept.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	opts, err := parseRedisURL(addr)
	if err != nil {
		return nil, err
	}
	c := redis.NewUniversalClient(opts)
	rs := &RedisStore{client: c, key: RedisKey, timeout: 2 * time.Second}
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	b, _ := json.Marshal(State{Status: StatusNotReady, Since: time.Now().UTC()})
	if err := c.SetNX(ctx, rs.key, b, 0).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis seed state: %w", err)
	}
	return rs, nil
}

// parseRedisURL maps addr onto UniversalOptions. A bare host:port selects a
// single node; comma-separated hosts select a cluster; the sentinel schemes
// take the master name from the path.
func parseRedisURL(addr string) (*redis.UniversalOptions, error) {
	if !strings.Contains(addr, "://") {
		return &redis.UniversalOptions{Addrs: []string{addr}}, nil
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	opts := &redis.UniversalOptions{Addrs: strings.Split(u.Host, ",")}
	if u.User != nil {
		opts.Username = u.User.Username()
		opts.Password, _ = u.User.Password()
	}
	q := u.Query()
	path := strings.TrimPrefix(u.Path, "/")
	dbStr := q.Get("db")
	switch u.Scheme {
	case "redis", "rediss":
		if path != "" {
			dbStr = path
		}
	case "redis-sentinel", "rediss-sentinel":
		opts.MasterName = path
		opts.SentinelUsername = q.Get("sentinel_username")
		opts.SentinelPassword = q.Get("sentinel_password")
	default:
		return nil, fmt.Errorf("redis: invalid URL scheme: %s", u.Scheme)
	}
	if dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("redis: invalid db: %w", err)
		}
		opts.DB = db
	}
	if strings.HasPrefix(u.Scheme, "rediss") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

// Load reads the shared state. Unreachable or corrupt state reads as unknown.
func (r *RedisStore) Load() State {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	b, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{Status: StatusNotReady}
		}
		logx.Log.Warn().Err(err).Msg("redis state load")
		return State{Status: StatusUnknown}
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return State{Status: StatusUnknown}
	}
	return st
}

// Store writes the shared state.
func (r *RedisStore) Store(s State) {
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, r.key, b, 0).Err(); err != nil {
		logx.Log.Warn().Err(err).Msg("redis state store")
	}
}

// Close releases the Redis connection pool.
func (r *RedisStore) Close() error { return r.client.Close() }

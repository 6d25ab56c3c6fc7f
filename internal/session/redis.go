package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces actor keys.
const DefaultRedisPrefix = "rowgate:session:"

// RedisClient is the subset of *redis.Client used by RedisProbe.
type RedisClient interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisProbe treats an actor as active while its key exists. Sessions
// expire through the key TTL set by Touch.
type RedisProbe struct {
	client RedisClient
	prefix string
}

// NewRedisProbe creates a probe. An empty prefix uses DefaultRedisPrefix.
func NewRedisProbe(client RedisClient, prefix string) *RedisProbe {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisProbe{client: client, prefix: prefix}
}

// DialRedis connects to a single Redis node and verifies it answers.
func DialRedis(ctx context.Context, addr string, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: timeout,
	})

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Key returns the Redis key for an actor.
func (p *RedisProbe) Key(actorID int64) string {
	return p.prefix + strconv.FormatInt(actorID, 10)
}

// Active implements record.SessionProbe.
func (p *RedisProbe) Active(ctx context.Context, actorID int64) (bool, error) {
	n, err := p.client.Exists(ctx, p.Key(actorID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", p.Key(actorID), err)
	}
	return n > 0, nil
}

// Touch marks an actor active for ttl.
func (p *RedisProbe) Touch(ctx context.Context, actorID int64, ttl time.Duration) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := p.client.Set(ctx, p.Key(actorID), now, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", p.Key(actorID), err)
	}
	return nil
}

// End removes an actor's session.
func (p *RedisProbe) End(ctx context.Context, actorID int64) error {
	if err := p.client.Del(ctx, p.Key(actorID)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", p.Key(actorID), err)
	}
	return nil
}

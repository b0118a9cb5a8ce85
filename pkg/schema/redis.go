package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisPrefix namespaces column lists stored in Redis
const DefaultRedisPrefix = "querykit:columns:"

// OpenRedis connects to the Redis server at url and pings it
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisInspector shares column lists between processes through Redis.
// Redis failures fall through to the wrapped inspector.
type RedisInspector struct {
	next   Inspector
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisInspector wraps next with a Redis-backed cache. A zero ttl
// stores entries without expiry.
func NewRedisInspector(next Inspector, client *redis.Client, ttl time.Duration) *RedisInspector {
	return &RedisInspector{
		next:   next,
		client: client,
		prefix: DefaultRedisPrefix,
		ttl:    ttl,
	}
}

func (i *RedisInspector) key(table string) string {
	return i.prefix + table
}

// Columns returns the cached columns for table, inspecting on a miss
func (i *RedisInspector) Columns(ctx context.Context, table string) ([]string, error) {
	key := i.key(table)

	data, err := i.client.Get(ctx, key).Bytes()
	if err == nil {
		var cols []string
		if err := json.Unmarshal(data, &cols); err == nil {
			return cols, nil
		}
		// corrupt entry
		i.client.Del(ctx, key)
	}

	cols, err := i.next.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	if cols == nil {
		cols = []string{}
	}

	if data, err := json.Marshal(cols); err == nil {
		i.client.Set(ctx, key, data, i.ttl)
	}
	return cols, nil
}

// Invalidate removes cached tables, or every cached table when none are given
func (i *RedisInspector) Invalidate(ctx context.Context, tables ...string) error {
	if len(tables) > 0 {
		keys := make([]string, len(tables))
		for n, t := range tables {
			keys[n] = i.key(t)
		}
		return i.client.Del(ctx, keys...).Err()
	}

	iter := i.client.Scan(ctx, 0, i.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := i.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan failed for %s*: %w", i.prefix, err)
	}
	return nil
}

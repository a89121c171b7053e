package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rakhulsr/go-ecommerce-api/app/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	scanBatch = 100

	// generationTTL only has to outlive a single store load.
	generationTTL = time.Hour
)

// hsetIfExists only writes into a hash that is already present, so a
// single write-through never creates a partial copy of a collection. The
// generation moves either way.
var hsetIfExists = redis.NewScript(`
redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ARGV[4])
if redis.call('EXISTS', KEYS[1]) == 1 then
  redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
  return 1
end
return 0
`)

var setIfGeneration = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// ARGV[3:] holds field/value pairs.
var hashReplaceIfGeneration = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
  return 0
end
redis.call('DEL', KEYS[1])
if #ARGV > 2 then
  redis.call('HSET', KEYS[1], unpack(ARGV, 3))
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

var memberReplaceIfGeneration = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
  return 0
end
redis.call('DEL', KEYS[1])
if #ARGV > 2 then
  redis.call('SADD', KEYS[1], unpack(ARGV, 3))
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

func generationKey(key string) string {
	return key + ":gen"
}

type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, c.fail("get", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
		_ = c.client.Del(ctx, key).Err()
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return c.fail("set", key, err)
	}
	return nil
}

func (c *RedisCache) SetIfGeneration(ctx context.Context, key string, value any, ttl time.Duration, gen int64) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	n, err := setIfGeneration.Run(ctx, c.client, []string{key, generationKey(key)}, gen, data, ttl.Milliseconds()).Int()
	if err != nil {
		return false, c.fail("set", key, err)
	}
	return n == 1, nil
}

// Delete removes the keys and moves their generations so loads already in
// flight do not put the old values back.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		bump(ctx, pipe, keys...)
		return nil
	})
	if err != nil {
		return c.fail("delete", fmt.Sprint(keys), err)
	}
	return nil
}

// DeletePattern removes every key matching a glob pattern using SCAN.
func (c *RedisCache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return deleted, c.fail("scan", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, c.fail("delete", pattern, err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, c.fail("exists", key, err)
	}
	return n == 1, nil
}

// Generation reports the write counter of key, zero when it has none.
func (c *RedisCache) Generation(ctx context.Context, key string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, c.fail("generation", key, err)
	}
	return gen, nil
}

func (c *RedisCache) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, c.fail("hgetall", key, err)
	}
	return fields, nil
}

// HashReplaceIfGeneration swaps the whole hash when key is still at gen.
// An empty field set only removes the key.
func (c *RedisCache) HashReplaceIfGeneration(ctx context.Context, key string, fields map[string]string, ttl time.Duration, gen int64) (bool, error) {
	args := make([]interface{}, 0, 2+2*len(fields))
	args = append(args, gen, ttl.Milliseconds())
	for k, v := range fields {
		args = append(args, k, v)
	}
	n, err := hashReplaceIfGeneration.Run(ctx, c.client, []string{key, generationKey(key)}, args...).Int()
	if err != nil {
		return false, c.fail("hreplace", key, err)
	}
	return n == 1, nil
}

func (c *RedisCache) HashSetIfExists(ctx context.Context, key, field, value string, ttl time.Duration) (bool, error) {
	keys := []string{key, generationKey(key)}
	n, err := hsetIfExists.Run(ctx, c.client, keys, field, value, ttl.Milliseconds(), generationTTL.Milliseconds()).Int()
	if err != nil {
		return false, c.fail("hset", key, err)
	}
	return n == 1, nil
}

func (c *RedisCache) HashDelete(ctx context.Context, key string, fields ...string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, key, fields...)
		bump(ctx, pipe, key)
		return nil
	})
	if err != nil {
		return c.fail("hdel", key, err)
	}
	return nil
}

func (c *RedisCache) MemberReplaceIfGeneration(ctx context.Context, key string, members []string, ttl time.Duration, gen int64) (bool, error) {
	args := make([]interface{}, 0, 2+len(members))
	args = append(args, gen, ttl.Milliseconds())
	for _, m := range members {
		args = append(args, m)
	}
	n, err := memberReplaceIfGeneration.Run(ctx, c.client, []string{key, generationKey(key)}, args...).Int()
	if err != nil {
		return false, c.fail("sreplace", key, err)
	}
	return n == 1, nil
}

func (c *RedisCache) MemberAdd(ctx context.Context, key, member string, ttl time.Duration) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, member)
		pipe.Expire(ctx, key, ttl)
		bump(ctx, pipe, key)
		return nil
	})
	if err != nil {
		return c.fail("sadd", key, err)
	}
	return nil
}

func (c *RedisCache) MemberRemove(ctx context.Context, key, member string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, key, member)
		bump(ctx, pipe, key)
		return nil
	})
	if err != nil {
		return c.fail("srem", key, err)
	}
	return nil
}

func (c *RedisCache) MemberTest(ctx context.Context, key, member string) (bool, error) {
	ok, err := c.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, c.fail("sismember", key, err)
	}
	return ok, nil
}

func bump(ctx context.Context, pipe redis.Pipeliner, keys ...string) {
	for _, key := range keys {
		pipe.Incr(ctx, generationKey(key))
		pipe.PExpire(ctx, generationKey(key), generationTTL)
	}
}

func (c *RedisCache) fail(op, key string, err error) error {
	c.logger.Warn("cache operation failed", "op", op, "key", key, "error", err)
	return fmt.Errorf("cache %s %s: %w", op, key, err)
}

func RecordHit(key string) {
	metrics.CacheRequests.WithLabelValues(family(key), "hit").Inc()
}

func RecordMiss(key string) {
	metrics.CacheRequests.WithLabelValues(family(key), "miss").Inc()
}

package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	automationKey = "betbot:automation_enabled"
	betCountKey   = "betbot:bets_placed:" // + YYYY-MM-DD
)

// RedisCache holds the pipeline's shared mutable state: the odds cache,
// the automation flag and the daily bet counter.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
	}, nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// GetOdds looks up a cached odds value. The second return reports a hit.
func (rc *RedisCache) GetOdds(ctx context.Context, key string) (float64, bool, error) {
	val, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	odds, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, err
	}

	return odds, true, nil
}

// SetOdds stores an odds value with TTL
func (rc *RedisCache) SetOdds(ctx context.Context, key string, value float64, ttl time.Duration) error {
	return rc.client.Set(ctx, key, strconv.FormatFloat(value, 'f', -1, 64), ttl).Err()
}

// AutomationEnabled reports whether automatic bet placement is on.
// Defaults to true when the flag was never set.
func (rc *RedisCache) AutomationEnabled(ctx context.Context) (bool, error) {
	val, err := rc.client.Get(ctx, automationKey).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return val == "1" || val == "true", nil
}

// SetAutomationEnabled flips the automation flag.
func (rc *RedisCache) SetAutomationEnabled(ctx context.Context, enabled bool) error {
	val := "0"
	if enabled {
		val = "1"
	}
	return rc.client.Set(ctx, automationKey, val, 0).Err()
}

// BetsPlacedToday returns today's bet counter.
func (rc *RedisCache) BetsPlacedToday(ctx context.Context) (int, error) {
	key := betCountKey + time.Now().UTC().Format("2006-01-02")

	val, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(val)
}

// IncrementBetsPlaced bumps today's bet counter. The key expires after
// 48h so stale counters clean themselves up.
func (rc *RedisCache) IncrementBetsPlaced(ctx context.Context) error {
	key := betCountKey + time.Now().UTC().Format("2006-01-02")

	if err := rc.client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return rc.client.Expire(ctx, key, 48*time.Hour).Err()
}

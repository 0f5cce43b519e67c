// Package cache provides the Redis-backed response cache for Planner
// results, plus the distributed lock / wait-for-result pattern that avoids
// a cache-stampede of identical in-flight queries.
package cache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/transitplan/journeyplanner/internal/config"
	"github.com/transitplan/journeyplanner/internal/models"
)

var (
	client     *redis.Client
	clientOnce sync.Once
	clientErr  error
)

// Get returns the global Redis client (singleton pattern), initializing
// it from cfg on first call.
func Get(cfg *config.Config) (*redis.Client, error) {
	clientOnce.Do(func() {
		opts := &redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}

		client = redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			clientErr = fmt.Errorf("failed to connect to Redis: %w", err)
		}
	})
	return client, clientErr
}

// Close closes the Redis client.
func Close() {
	if client != nil {
		client.Close()
	}
}

// PlanKey generates a deterministic cache key for a plan query.
func PlanKey(fromLat, fromLon, toLat, toLon float64, alternatives int) string {
	data := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,%d", fromLat, fromLon, toLat, toLon, alternatives)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("plan:%x", hash[:8])
}

// LockKey generates the mutex lock key for a plan key.
func LockKey(planKey string) string {
	return fmt.Sprintf("lock:%s", planKey)
}

// GetPlan retrieves a cached list of alternatives, or nil on a cache miss.
func GetPlan(ctx context.Context, cfg *config.Config, key string) ([]models.Alternative, error) {
	c, err := Get(cfg)
	if err != nil {
		return nil, err
	}

	data, err := c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var alts []models.Alternative
	if err := json.Unmarshal(data, &alts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached plan: %w", err)
	}
	return alts, nil
}

// SetPlan caches a list of alternatives under key with the given TTL.
func SetPlan(ctx context.Context, cfg *config.Config, key string, alts []models.Alternative, ttl time.Duration) error {
	c, err := Get(cfg)
	if err != nil {
		return err
	}

	data, err := json.Marshal(alts)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	return c.Set(ctx, key, data, ttl).Err()
}

// AcquireLock attempts to acquire a distributed lock, returning true if it
// was free.
func AcquireLock(ctx context.Context, cfg *config.Config, key string, ttl time.Duration) (bool, error) {
	c, err := Get(cfg)
	if err != nil {
		return false, err
	}
	return c.SetNX(ctx, key, "1", ttl).Result()
}

// ReleaseLock releases a distributed lock.
func ReleaseLock(ctx context.Context, cfg *config.Config, key string) error {
	c, err := Get(cfg)
	if err != nil {
		return err
	}
	return c.Del(ctx, key).Err()
}

// WaitForLock waits for a lock to be released and then retrieves the
// result it was guarding — the "wait for result" pattern that avoids a
// thundering herd of concurrent identical queries.
func WaitForLock(ctx context.Context, cfg *config.Config, planKey string, maxWait time.Duration) ([]models.Alternative, error) {
	c, err := Get(cfg)
	if err != nil {
		return nil, err
	}

	lockKey := LockKey(planKey)
	deadline := time.Now().Add(maxWait)

	for time.Now().Before(deadline) {
		exists, err := c.Exists(ctx, lockKey).Result()
		if err != nil {
			return nil, err
		}
		if exists == 0 {
			return GetPlan(ctx, cfg, planKey)
		}
		time.Sleep(100 * time.Millisecond)
	}

	return nil, fmt.Errorf("timeout waiting for lock")
}

// HealthCheck pings the Redis connection.
func HealthCheck(ctx context.Context, cfg *config.Config) error {
	c, err := Get(cfg)
	if err != nil {
		return fmt.Errorf("Redis client not initialized: %w", err)
	}
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}
	return nil
}

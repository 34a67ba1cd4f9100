package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON documents under a namespaced key
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Key returns the fully qualified key for k
func (c *Cache) Key(k string) string {
	return fmt.Sprintf("%s:%s", c.prefix, k)
}

// Get retrieves a value. Missing keys report (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// SetRaw stores pre-encoded bytes. ttl 0 means no expiry.
func (c *Cache) SetRaw(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Set(ctx, c.Key(key), data, ttl).Err()
}

// Set stores a value as JSON
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.SetRaw(ctx, key, data, ttl)
}

// Delete removes a value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.Key(key)).Err()
}

// Predefined TTLs
const (
	TTLDaily  = 24 * time.Hour
	TTLWeekly = 7 * 24 * time.Hour
)

// LatestResultKey is the key of the most recent publication of a screen artifact
func LatestResultKey(artifact string) string {
	return fmt.Sprintf("latest:%s", artifact)
}

// DatedResultKey is the key of a screen artifact for one trading date
func DatedResultKey(artifact, asOf string) string {
	return fmt.Sprintf("%s:%s", asOf, artifact)
}

package output

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/screener/pkg/redis"
)

// RedisSink publishes the rendered envelope to Redis under
// <ns>:latest:<artifact> and <ns>:<asOf>:<artifact>
type RedisSink struct {
	client   *redis.Client
	cache    *redis.Cache
	datedTTL time.Duration
}

// NewRedisSink creates a Redis sink. Dated keys expire after datedTTL (0 = never).
func NewRedisSink(client *redis.Client, namespace string, datedTTL time.Duration) *RedisSink {
	return &RedisSink{
		client:   client,
		cache:    redis.NewCache(client, namespace),
		datedTTL: datedTTL,
	}
}

// Publish stores the dated key first, then latest. A disabled client is a no-op.
func (s *RedisSink) Publish(ctx context.Context, pub *Publication) ([]string, error) {
	if !s.client.Enabled() {
		return nil, nil
	}

	name := pub.Artifact.Name()
	dated := redis.DatedResultKey(name, pub.Envelope.AsOf)
	latest := redis.LatestResultKey(name)

	if err := s.cache.SetRaw(ctx, dated, pub.Body, s.datedTTL); err != nil {
		return nil, fmt.Errorf("redis publish %s: %w", dated, err)
	}
	if err := s.cache.SetRaw(ctx, latest, pub.Body, 0); err != nil {
		return nil, fmt.Errorf("redis publish %s: %w", latest, err)
	}
	return []string{"redis://" + s.cache.Key(dated), "redis://" + s.cache.Key(latest)}, nil
}

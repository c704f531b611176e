package ema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/types"
)

const redisKeyPrefix = "ema:"

// RedisCache shares scores between runs and hosts. Entries expire with
// the configured ttl.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ interfaces.ScoreCache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func redisKey(symbol, exchange, date string) string {
	return redisKeyPrefix + strings.ToUpper(exchange) + ":" + strings.ToUpper(symbol) + ":" + date
}

func (r *RedisCache) Get(ctx context.Context, symbol, exchange, date string) (*types.EMAScore, bool, error) {
	payload, err := r.client.Get(ctx, redisKey(symbol, exchange, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ema score: %w", err)
	}

	var s types.EMAScore
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, false, fmt.Errorf("failed to decode ema score: %w", err)
	}
	return &s, true, nil
}

func (r *RedisCache) Put(ctx context.Context, s types.EMAScore) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode ema score: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(s.Symbol, s.Exchange, s.Date), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save ema score: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

package ema

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/types"
)

// NewCache builds the score cache selected by ema.cache.backend.
func NewCache(cfg *store.Config) (interfaces.ScoreCache, error) {
	ttl := time.Duration(cfg.EMA.Cache.TTLHours) * time.Hour

	switch strings.ToUpper(cfg.EMA.Cache.Backend) {
	case "SQLITE", "":
		c, err := NewSQLiteCache(cfg.EMA.Cache.SQLitePath, ttl)
		if err != nil {
			return nil, err
		}
		return c, nil

	case "REDIS":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.EMA.Cache.RedisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       cfg.EMA.Cache.RedisDB,
		})
		return NewRedisCache(client, ttl), nil

	case "NONE":
		return noopCache{}, nil

	default:
		return nil, fmt.Errorf("unsupported ema cache backend: %s (supported: SQLITE, REDIS, NONE)", cfg.EMA.Cache.Backend)
	}
}

type noopCache struct{}

var _ interfaces.ScoreCache = noopCache{}

func (noopCache) Get(context.Context, string, string, string) (*types.EMAScore, bool, error) {
	return nil, false, nil
}

func (noopCache) Put(context.Context, types.EMAScore) error { return nil }

func (noopCache) Close() error { return nil }

// expired reports whether a score computed at t is older than ttl. A zero
// ttl never expires.
func expired(t time.Time, ttl time.Duration) bool {
	return ttl > 0 && time.Since(t) > ttl
}

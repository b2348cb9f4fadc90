// Package cache keeps the payment configuration in Redis so checkout does not hit the
// database on every QR request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/playvault/services/payment/internal/models"
)

const (
	ConfigKey  = "payment:config"
	DefaultTTL = 5 * time.Minute
)

func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

type ConfigCache struct {
	Client redis.Cmdable
	TTL    time.Duration
}

func NewConfigCache(client redis.Cmdable) *ConfigCache {
	return &ConfigCache{Client: client, TTL: DefaultTTL}
}

// Get returns nil without an error on a cache miss.
func (c *ConfigCache) Get(ctx context.Context) (*models.PaymentConfig, error) {
	data, err := c.Client.Get(ctx, ConfigKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg models.PaymentConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode cached config: %w", err)
	}
	return &cfg, nil
}

func (c *ConfigCache) Set(ctx context.Context, cfg *models.PaymentConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return c.Client.Set(ctx, ConfigKey, data, ttl).Err()
}

func (c *ConfigCache) Invalidate(ctx context.Context) error {
	return c.Client.Del(ctx, ConfigKey).Err()
}

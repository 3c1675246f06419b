package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/agrihealth-server/internal/domain"
)

const weatherKeyPrefix = "agrihealth:weather:"

// WeatherCache stores formatted weather responses. It uses Redis when a
// Redis URL is configured and an in-process cache otherwise.
type WeatherCache struct {
	redis      *redis.Client
	local      *cache.Cache
	defaultTTL time.Duration
}

// cachedEntry wraps a cached payload with its metadata
type cachedEntry struct {
	Data      json.RawMessage `json:"data"`
	CachedAt  time.Time       `json:"cached_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// NewWeatherCache creates a weather cache
func NewWeatherCache(config domain.CacheConfig, ttl time.Duration) (*WeatherCache, error) {
	if config.RedisURL == "" {
		return &WeatherCache{
			local:      cache.New(ttl, ttl*2),
			defaultTTL: ttl,
		}, nil
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &WeatherCache{
		redis:      client,
		defaultTTL: ttl,
	}, nil
}

// Backend names the storage in use
func (c *WeatherCache) Backend() string {
	if c.redis != nil {
		return "redis"
	}
	return "memory"
}

// Get decodes the entry stored under key into dst. A miss, an expired or a
// corrupt entry all report false.
func (c *WeatherCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, ok, err := c.load(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	var cached cachedEntry
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.Delete(ctx, key)
		return false, nil
	}
	if time.Now().After(cached.ExpiresAt) {
		c.Delete(ctx, key)
		return false, nil
	}
	if err := json.Unmarshal(cached.Data, dst); err != nil {
		c.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// Set stores value under key. A zero ttl uses the default.
func (c *WeatherCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	now := time.Now()
	payload, err := json.Marshal(cachedEntry{
		Data:      data,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if c.redis != nil {
		return c.redis.Set(ctx, weatherKeyPrefix+key, payload, ttl).Err()
	}
	c.local.Set(key, payload, ttl)
	return nil
}

// Delete removes key
func (c *WeatherCache) Delete(ctx context.Context, key string) {
	if c.redis != nil {
		c.redis.Del(ctx, weatherKeyPrefix+key)
		return
	}
	c.local.Delete(key)
}

// Close releases the Redis connection pool
func (c *WeatherCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

func (c *WeatherCache) load(ctx context.Context, key string) ([]byte, bool, error) {
	if c.redis == nil {
		v, ok := c.local.Get(key)
		if !ok {
			return nil, false, nil
		}
		raw, ok := v.([]byte)
		return raw, ok, nil
	}

	val, err := c.redis.Get(ctx, weatherKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get weather cache: %w", err)
	}
	return val, true, nil
}

// CachedWeatherProvider decorates a provider with a WeatherCache. Lookups
// are keyed on coordinates rounded to two decimals. Cache failures are
// logged and fall through to the provider.
type CachedWeatherProvider struct {
	next   domain.WeatherProvider
	cache  *WeatherCache
	logger *logrus.Logger
}

// NewCachedWeatherProvider wraps next with cache
func NewCachedWeatherProvider(next domain.WeatherProvider, cache *WeatherCache, logger *logrus.Logger) *CachedWeatherProvider {
	return &CachedWeatherProvider{next: next, cache: cache, logger: logger}
}

// CurrentWeather implements domain.WeatherProvider
func (p *CachedWeatherProvider) CurrentWeather(ctx context.Context, lat, lon float64) (*domain.CurrentWeather, error) {
	key := coordinateKey("current", lat, lon)

	var cached domain.CurrentWeather
	if p.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	weather, err := p.next.CurrentWeather(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, weather)
	return weather, nil
}

// Forecast implements domain.WeatherProvider
func (p *CachedWeatherProvider) Forecast(ctx context.Context, lat, lon float64) (*domain.Forecast, error) {
	key := coordinateKey("forecast", lat, lon)

	var cached domain.Forecast
	if p.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	forecast, err := p.next.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, forecast)
	return forecast, nil
}

func (p *CachedWeatherProvider) lookup(ctx context.Context, key string, dst interface{}) bool {
	hit, err := p.cache.Get(ctx, key, dst)
	if err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Weather cache read failed")
		return false
	}
	return hit
}

func (p *CachedWeatherProvider) store(ctx context.Context, key string, value interface{}) {
	if err := p.cache.Set(ctx, key, value, 0); err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Weather cache write failed")
	}
}

func coordinateKey(kind string, lat, lon float64) string {
	return fmt.Sprintf("%s:%.2f:%.2f", kind, roundCoordinate(lat), roundCoordinate(lon))
}

func roundCoordinate(v float64) float64 {
	v = math.Round(v*100) / 100
	if v == 0 {
		return 0 // no "-0.00" keys
	}
	return v
}

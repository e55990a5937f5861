package di

import (
	"testing"

	icache "SignalForge/internal/service/cache"
	"SignalForge/pkg/config"
)

func TestProvideBytesCachePicksRedisWhenConfigured(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Addr = "redis.internal:6379"

	c := ProvideBytesCache(cfg)
	if _, ok := c.(*icache.RedisCache); !ok {
		t.Fatalf("expected redis-backed cache, got %T", c)
	}
}

func TestProvideBytesCacheDefaultsToTTL(t *testing.T) {
	c := ProvideBytesCache(&config.Config{})
	if _, ok := c.(*icache.TTLCache); !ok {
		t.Fatalf("expected in-process TTL cache, got %T", c)
	}
}

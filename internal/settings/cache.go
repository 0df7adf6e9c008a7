package settings

import (
	"fmt"
	"path"
	"strings"

	"github.com/eugenenazirov/weblate-settings/internal/env"
)

// Cache names used in CACHES.
const (
	DefaultCacheName = "default"
	AvatarCacheName  = "avatar"
)

func resolveCaches(r *env.Reader, dataDir string) (map[string]Cache, Celery) {
	timeout := avatarCacheTTL
	caches := map[string]Cache{
		AvatarCacheName: {
			Backend:  fileCacheBackend,
			Location: path.Join(dataDir, "avatar-cache"),
			Timeout:  &timeout,
			Options:  map[string]any{"MAX_ENTRIES": 1000},
		},
	}

	celery := Celery{
		WorkerPrefetchMultiplier: 0,
		BeatScheduleFilename:     path.Join(dataDir, "celery", "beat-schedule"),
	}

	if r.Has("MEMCACHED_HOST") {
		caches[DefaultCacheName] = Cache{
			Backend: memcachedBackend,
			Location: fmt.Sprintf("%s:%s",
				r.String("MEMCACHED_HOST", "cache"),
				r.String("MEMCACHED_PORT", "11211"),
			),
			KeyPrefix: cacheKeyPrefix,
		}
		// Memcached deployments have no broker, tasks run inline.
		celery.TaskAlwaysEager = true
		celery.BrokerURL = "memory://"
		return caches, celery
	}

	location := redisURL(r)
	caches[DefaultCacheName] = Cache{
		Backend:  redisBackend,
		Location: location,
		Options: map[string]any{
			"CLIENT_CLASS": "django_redis.client.DefaultClient",
			"PARSER_CLASS": "redis.connection.HiredisParser",
		},
		KeyPrefix: cacheKeyPrefix,
	}
	celery.BrokerURL = location
	return caches, celery
}

func redisURL(r *env.Reader) string {
	return fmt.Sprintf("redis://%s:%s/%s",
		r.String("REDIS_HOST", "cache"),
		r.String("REDIS_PORT", "6379"),
		r.String("REDIS_DB", "1"),
	)
}

// IsRedis reports whether the cache is served by django-redis.
func (c Cache) IsRedis() bool {
	return c.Backend == redisBackend || strings.HasPrefix(c.Location, "redis://")
}

// IsMemcached reports whether the cache is served by memcached.
func (c Cache) IsMemcached() bool {
	return strings.Contains(c.Backend, ".memcached.")
}

package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every redis key this service writes (scan queue,
// cached stats) so a shared redis instance stays untangled.
const keyPrefix = "eventcheck:"

// Key builds a namespaced redis key.
func Key(suffix string) string {
	return keyPrefix + suffix
}

// Redis wraps the redis client used for the scan queue and the stats cache.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis. Timeouts are short: a slow cache or queue must
// not stall a scan at the entrance.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

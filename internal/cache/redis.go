package cache

import (
	"github.com/redis/go-redis/v9"
)

// NewRedis creates the client used for reference-data caching.
func NewRedis(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

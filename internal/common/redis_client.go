package common

import (
	"context"
	"time"

	"scf-community/governor/internal/logging"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates the shared client. A failed ping is logged, not fatal;
// the pool keeps reconnecting.
func NewRedisClient(addr, password string, db int) *redis.Client {
	logging.Info("[Redis] Initializing Redis client", "addr", addr, "db", db)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logging.Error("[Redis] Failed to ping Redis", "error", err.Error())
		return client
	}

	logging.Info("[Redis] Successfully connected to Redis")
	return client
}

// RedisPinger adapts a client to the health check
type RedisPinger struct {
	Client *redis.Client
}

func (p RedisPinger) PingContext(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}

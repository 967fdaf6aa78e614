package redis_client

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/travigo/livetreinen/pkg/config"
)

var Client *redis.Client

// Connect opens the shared client and checks the server answers a PING
func Connect(ctx context.Context, cfg config.RedisConfig) error {
	options := &redis.Options{
		Addr: cfg.Address,
		DB:   cfg.Database,
	}

	if cfg.Password != "" {
		options.Password = cfg.Password
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("connecting to redis at %s: %w", cfg.Address, err)
	}

	Client = client

	return nil
}

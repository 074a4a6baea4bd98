package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fractalschool/recsys-backend/internal/logger"
	"github.com/fractalschool/recsys-backend/internal/utils"
)

// Client wraps the shared Redis connection. It backs the mastery estimator's
// attempt counters and Beta posteriors.
type Client struct {
	rdb *goredis.Client
	log *logger.Logger
}

// NewClient connects using REDIS_ADDR / REDIS_PASSWORD / REDIS_DB and
// verifies the connection with a ping.
func NewClient(ctx context.Context, baseLog *logger.Logger) (*Client, error) {
	log := baseLog.With("client", "Redis")
	addr := utils.GetEnv("REDIS_ADDR", "localhost:6379", log)
	password := utils.GetEnv("REDIS_PASSWORD", "", log)
	db := utils.GetEnvAsInt("REDIS_DB", 0, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Info("Connected to Redis", "addr", addr, "db", db)
	return &Client{rdb: rdb, log: log}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get implements services.MasteryCache. A missing key is not an error.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

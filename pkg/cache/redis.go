package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/runningwild/kneedle/pkg/knee"
)

const keyPrefix = "knee:"

// Redis is a Cache shared by every agent pointed at the same server.
type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     50,
		MinIdleConns: 10,
		MaxRetries:   3,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return &Redis{client: rdb}, nil
}

func (rc *Redis) Close() error {
	return rc.client.Close()
}

func (rc *Redis) Get(ctx context.Context, key string) (*knee.Result, bool, error) {
	val, err := rc.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var r knee.Result
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, false, err
	}
	return &r, true, nil
}

func (rc *Redis) Set(ctx context.Context, key string, r knee.Result, ttl time.Duration) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return rc.client.Set(ctx, keyPrefix+key, data, ttl).Err()
}

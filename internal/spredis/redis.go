package spredis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps captcha answers in Redis so verification survives restarts
// and works across replicas. Implements base64Captcha.Store.
type Store struct {
	client     *redis.Client
	expiration time.Duration
}

func New(client *redis.Client) *Store {
	return &Store{
		client:     client,
		expiration: 5 * time.Minute,
	}
}

func (r *Store) Set(id string, value string) error {
	ctx := context.Background()
	return r.client.Set(ctx, "captcha:"+id, value, r.expiration).Err()
}

func (r *Store) Get(id string, clear bool) string {
	ctx := context.Background()
	key := "captcha:" + id
	val, _ := r.client.Get(ctx, key).Result()
	if clear {
		r.client.Del(ctx, key)
	}
	return val
}

func (r *Store) Verify(id, answer string, clear bool) bool {
	v := r.Get(id, clear)
	return v == answer
}

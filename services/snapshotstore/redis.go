package snapshotstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const updatedAtField = "updated_at"

// RedisStore keeps snapshots in a hash per key: body plus update time
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisStore stores keys under prefix. A zero ttl keeps them forever.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Object, error) {
	vals, err := s.client.HGetAll(ctx, s.prefix+key).Result()
	if err != nil {
		return Object{}, err
	}
	body, ok := vals["body"]
	if !ok {
		return Object{}, ErrNotFound
	}
	obj := Object{Body: []byte(body)}
	if unix, err := strconv.ParseInt(vals[updatedAtField], 10, 64); err == nil {
		obj.UpdatedAt = time.Unix(0, unix)
	}
	return obj, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, obj Object) error {
	k := s.prefix + key
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, "body", obj.Body, updatedAtField, strconv.FormatInt(obj.UpdatedAt.UnixNano(), 10))
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	err := s.client.Del(ctx, s.prefix+key).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisPrefix = "portfolio-admin:session:"

// RedisStore keeps sessions in redis. Keys expire with their session, so DeleteExpired
// has nothing to do.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(addr, password string) *RedisStore {
	return &RedisStore{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})}
}

// Ping checks the connection, so a bad REDIS_ADDR fails at startup.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "failed to reach redis")
	}
	return nil
}

func (r *RedisStore) Create(ctx context.Context, s Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}
	if err = r.rdb.Set(ctx, redisPrefix+s.ID, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store session")
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (s Session, err error) {
	var data []byte
	data, err = r.rdb.Get(ctx, redisPrefix+id).Bytes()
	if err == redis.Nil {
		err = ErrNotFound
		return s, err
	}
	if err != nil {
		err = errors.Wrap(err, "failed to load session")
		return s, err
	}
	if err = json.Unmarshal(data, &s); err != nil {
		err = errors.Wrap(err, "failed to decode session")
	}
	return s, err
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, redisPrefix+id).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}
	return nil
}

func (r *RedisStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}

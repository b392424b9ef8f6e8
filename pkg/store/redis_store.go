package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"growskill/pkg/domain"
)

// RedisStore keeps the session in Redis under a namespace. Keys carry no TTL;
// the session lives until logout.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(addr, password, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "growskill:session"
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
	}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

// SaveSession writes token and user atomically.
func (s *RedisStore) SaveSession(ctx context.Context, token string, user domain.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(KeyToken), token, 0)
		pipe.Set(ctx, s.key(KeyUser), userJSON, 0)
		return nil
	})
	return err
}

// Token returns the persisted token.
func (s *RedisStore) Token(ctx context.Context) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(KeyToken)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, val != "", nil
}

// User returns the persisted user record.
func (s *RedisStore) User(ctx context.Context) (domain.User, bool, error) {
	val, err := s.client.Get(ctx, s.key(KeyUser)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	var user domain.User
	if err := json.Unmarshal(val, &user); err != nil {
		return domain.User{}, false, fmt.Errorf("decode user: %w", err)
	}
	return user, true, nil
}

// ClearSession removes the token key.
func (s *RedisStore) ClearSession(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(KeyToken)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

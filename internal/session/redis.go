package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dukerupert/jotter/internal/model"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "jotter:"

// RedisStore keeps sessions in Redis so several app instances can share them.
// Each session is a string key holding the user id with a native TTL; a
// per-user set of digests makes DeleteByUserID possible.
type RedisStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisStore(rdb redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func sessionKey(hash string) string {
	return redisKeyPrefix + "session:" + hash
}

func userSessionsKey(userID int64) string {
	return redisKeyPrefix + "user-sessions:" + strconv.FormatInt(userID, 10)
}

func (s *RedisStore) Create(ctx context.Context, userID int64) (*model.Session, error) {
	token, hash, err := NewToken()
	if err != nil {
		return nil, err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(hash), userID, s.ttl)
		pipe.SAdd(ctx, userSessionsKey(userID), hash)
		pipe.Expire(ctx, userSessionsKey(userID), s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &model.Session{
		Token:     token,
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	hash := Hash(token)

	var get *redis.StringCmd
	var pttl *redis.DurationCmd
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, sessionKey(hash))
		pttl = pipe.PTTL(ctx, sessionKey(hash))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get session: %w", err)
	}

	userID, err := get.Int64()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	remaining := pttl.Val()
	if remaining <= 0 {
		return nil, ErrNotFound
	}

	return &model.Session{
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(remaining),
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	hash := Hash(token)

	userID, err := s.rdb.GetDel(ctx, sessionKey(hash)).Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := s.rdb.SRem(ctx, userSessionsKey(userID), hash).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteByUserID(ctx context.Context, userID int64) error {
	setKey := userSessionsKey(userID)
	hashes, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, sessionKey(h))
	}
	keys = append(keys, setKey)

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis expires session keys itself.
func (s *RedisStore) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

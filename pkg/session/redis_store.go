package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"catalog-service/internal/model"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in Redis; entries expire with the session
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore returns a Store backed by client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Connect opens a Redis client and checks it answers
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Create(ctx context.Context, sess *model.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}
	fields := map[string]interface{}{
		"user_id":    strconv.FormatUint(uint64(sess.UserID), 10),
		"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339Nano),
		"created_at": sess.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, redisKeyPrefix+sess.ID, fields)
	pipe.Expire(ctx, redisKeyPrefix+sess.ID, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Lookup(ctx context.Context, id string) (*model.Session, error) {
	vals, err := s.client.HGetAll(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, ErrNotFound
	}

	userID, err := strconv.ParseUint(vals["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, vals["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, vals["created_at"])

	sess := &model.Session{ID: id, UserID: uint(userID), ExpiresAt: expiresAt, CreatedAt: createdAt}
	if !sess.Active(s.now()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *RedisStore) Revoke(ctx context.Context, id string) error {
	err := s.client.Del(ctx, redisKeyPrefix+id).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

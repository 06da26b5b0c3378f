package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

const redisKeyPrefix = "draft:"

// RedisStore shares drafts across instances as JSON state.
type RedisStore struct {
	log *logger.Logger
	rdb goredis.UniversalClient
	ttl time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedisStore(log *logger.Logger, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreWithClient(log, rdb, cfg.TTL), nil
}

func NewRedisStoreWithClient(log *logger.Logger, rdb goredis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisStore{log: log.With("service", "RedisDraftStore"), rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, d *Draft) error {
	return s.Save(ctx, d)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Draft, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get draft: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		s.log.Warn("Discarding unreadable draft state", "draft_id", id, "error", err)
		return nil, ErrDraftNotFound
	}
	return FromState(st), nil
}

func (s *RedisStore) Save(ctx context.Context, d *Draft) error {
	raw, err := json.Marshal(d.State())
	if err != nil {
		return fmt.Errorf("encode draft state: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+d.ID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+id).Err()
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) Client() goredis.UniversalClient { return s.rdb }

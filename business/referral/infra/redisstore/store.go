// Package redisstore persists the referral in Redis so several client
// instances share one upline.
package redisstore

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/sam-client/business/referral/app"
	"github.com/fd1az/sam-client/business/referral/domain"
)

var _ app.Store = (*Store)(nil)

// Config holds connection parameters.
type Config struct {
	Addr       string
	Password   string
	DB         int
	Key        string
	TLSEnabled bool
}

// commands is the subset of redis.Cmdable the store uses.
type commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store keeps the referral under a single key, written with SETNX.
type Store struct {
	rdb    commands
	key    string
	closer func() error
}

// New connects to Redis and pings it.
func New(ctx context.Context, cfg Config) (*Store, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	s := newStore(rdb, cfg.Key)
	s.closer = rdb.Close
	return s, nil
}

func newStore(rdb commands, key string) *Store {
	if key == "" {
		key = "sam-client:referral"
	}
	return &Store{rdb: rdb, key: key, closer: func() error { return nil }}
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.closer()
}

func (s *Store) Get(ctx context.Context) (domain.Referral, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Referral{}, false, nil
	}
	if err != nil {
		return domain.Referral{}, false, fmt.Errorf("redis: get %s: %w", s.key, err)
	}

	var ref domain.Referral
	if err := json.Unmarshal(raw, &ref); err != nil {
		return domain.Referral{}, false, fmt.Errorf("redis: decode %s: %w", s.key, err)
	}
	return ref, true, nil
}

func (s *Store) SetIfAbsent(ctx context.Context, ref domain.Referral) (bool, error) {
	data, err := json.Marshal(ref)
	if err != nil {
		return false, fmt.Errorf("redis: marshal referral: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, s.key, data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis: setnx %s: %w", s.key, err)
	}
	return ok, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis: del %s: %w", s.key, err)
	}
	return nil
}

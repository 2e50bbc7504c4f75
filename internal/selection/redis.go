package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key; Channel carries change notices.
	Prefix  string
	Channel string
}

// RedisStore shares selections between every process pointed at the same
// Redis, and broadcasts changes over pub/sub.
type RedisStore struct {
	rdb     *goredis.Client
	prefix  string
	channel string
}

func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if opts.Prefix == "" {
		opts.Prefix = "capital-risk:"
	}
	if opts.Channel == "" {
		opts.Channel = "capital-risk:selection"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb, prefix: opts.Prefix, channel: opts.Channel}, nil
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	return raw, err
}

func (s *RedisStore) Save(ctx context.Context, key string, raw []byte) error {
	return s.rdb.Set(ctx, s.prefix+key, raw, 0).Err()
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

func (s *RedisStore) Publish(ctx context.Context, n Notice) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.channel, raw).Err()
}

func (s *RedisStore) Listen(ctx context.Context, onNotice func(Notice)) error {
	if onNotice == nil {
		return fmt.Errorf("onNotice callback required")
	}
	sub := s.rdb.Subscribe(ctx, s.channel)
	defer sub.Close()

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n Notice
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				continue
			}
			onNotice(n)
		}
	}
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

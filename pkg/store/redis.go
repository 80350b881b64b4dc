package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/finquota/finquota/params"
	"github.com/finquota/finquota/pkg/finerr"
)

// RedisStore speaks RedisJSON and RediSearch through go-redis. The client
// is created on Open and verified with a retried PING bounded by the
// configured wait timeout.
type RedisStore struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

// OpenRedis dials the store described by cfg. RedisURL may be a redis://
// URL or a bare host:port.
func OpenRedis(ctx context.Context, cfg params.Config, log *zap.SugaredLogger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.RedisURL}
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisPoolSize > 0 {
		opts.PoolSize = cfg.RedisPoolSize
	}
	if cfg.RedisWaitTimeoutMs > 0 {
		opts.PoolTimeout = cfg.RedisWaitTimeout()
	}

	client := redis.NewClient(opts)
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, client.Ping(ctx).Err()
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(cfg.RedisWaitTimeout()),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %s: %v", finerr.ErrConnectionFailed, opts.Addr, err)
	}

	log.Infow("redis_connected", "addr", opts.Addr, "pool_size", opts.PoolSize)
	return &RedisStore{client: client, log: log}, nil
}

func (r *RedisStore) GetJSON(ctx context.Context, key, path string) (string, error) {
	raw, err := r.client.JSONGet(ctx, key, path).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", finerr.ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("%w: JSON.GET %s: %v", finerr.ErrCommandFailed, key, err)
	}
	if raw == "" {
		return "", fmt.Errorf("%w: %s", finerr.ErrKeyNotFound, key)
	}
	return raw, nil
}

func (r *RedisStore) SetJSON(ctx context.Context, key, path, raw string) error {
	if err := r.client.JSONSet(ctx, key, path, raw).Err(); err != nil {
		return fmt.Errorf("%w: JSON.SET %s: %v", finerr.ErrCommandFailed, key, err)
	}
	return nil
}

func (r *RedisStore) Del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: DEL %s: %v", finerr.ErrCommandFailed, key, err)
	}
	return nil
}

func (r *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: KEYS %s: %v", finerr.ErrCommandFailed, pattern, err)
	}
	return keys, nil
}

// CreateIndex ensures outputIdx exists over summary documents. If the
// engine reports the index already exists it is dropped and recreated, so
// a bootstrap always ends on the current schema.
func (r *RedisStore) CreateIndex(ctx context.Context) error {
	err := r.ftCreate(ctx)
	if err == nil {
		r.log.Infow("search_index_created", "index", IndexName)
		return nil
	}
	if !strings.Contains(err.Error(), "Index already exists") {
		return fmt.Errorf("%w: FT.CREATE %s: %v", finerr.ErrCommandFailed, IndexName, err)
	}

	r.log.Warnw("search_index_exists_recreating", "index", IndexName)
	if err := r.DropIndex(ctx); err != nil {
		return err
	}
	if err := r.ftCreate(ctx); err != nil {
		return fmt.Errorf("%w: FT.CREATE %s after drop: %v", finerr.ErrCommandFailed, IndexName, err)
	}
	r.log.Infow("search_index_recreated", "index", IndexName)
	return nil
}

func (r *RedisStore) ftCreate(ctx context.Context) error {
	return r.client.FTCreate(ctx, IndexName,
		&redis.FTCreateOptions{
			OnJSON: true,
			Prefix: []interface{}{"summary:"},
		},
		&redis.FieldSchema{FieldName: "$.stock_id", As: "stock_id", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "$.area_center", As: "area_center", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "$.belong_branches.*", As: "branches", FieldType: redis.SearchFieldTypeTag},
	).Err()
}

func (r *RedisStore) DropIndex(ctx context.Context) error {
	if err := r.client.FTDropIndex(ctx, IndexName).Err(); err != nil {
		return fmt.Errorf("%w: FT.DROPINDEX %s: %v", finerr.ErrCommandFailed, IndexName, err)
	}
	return nil
}

func (r *RedisStore) Close() error { return r.client.Close() }

var _ Document = (*RedisStore)(nil)

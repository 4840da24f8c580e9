// Package redis wraps go-redis for the short-lived keys of the news service.
package redis

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	gredis "github.com/Laisky/go-redis/v2"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "news/"

// KeyPrefixViews prefixes the view de-duplication markers.
const KeyPrefixViews = keyPrefix + "views/"

// DB is a wrapper for go-redis
type DB struct {
	cli *redis.Client
	db  *gredis.Utils
}

// NewDB creates a new DB instance
func NewDB(opt *redis.Options) *DB {
	rdb := redis.NewClient(opt)
	rutils := gredis.NewRedisUtils(rdb)

	return &DB{
		cli: rdb,
		db:  rutils,
	}
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.db.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "ping redis")
	}

	return nil
}

// MarkOnce sets key with ttl only when it does not exist yet.
//
// It returns true when this call created the key.
func (db *DB) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := db.db.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "setnx %q", key)
	}

	return ok, nil
}

// Close closes the client.
func (db *DB) Close() error {
	return db.cli.Close()
}

// Package rediscache shares resolved oracle prices between processes through Redis
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/screwyprof/hnttax/rewards"
)

// DefaultPrefix namespaces the cache keys
const DefaultPrefix = "hnttax:price:"

var ErrCorruptEntry = errors.New("corrupt price cache entry")

// Cache implements rewards.PriceCache with one Redis hash per requested block
type Cache struct {
	rdb    goredis.UniversalClient
	prefix string
}

// New creates a cache storing keys under prefix
func New(rdb goredis.UniversalClient, prefix string) *Cache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Cache{rdb: rdb, prefix: prefix}
}

// Connect opens a client for addr and checks it answers
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// Get returns the price cached for block
func (c *Cache) Get(ctx context.Context, block int64) (rewards.Price, bool, error) {
	fields, err := c.rdb.HGetAll(ctx, c.key(block)).Result()
	if err != nil {
		return rewards.Price{}, false, err
	}
	if len(fields) == 0 {
		return rewards.Price{}, false, nil
	}

	priced, err := strconv.ParseInt(fields["block"], 10, 64)
	if err != nil {
		return rewards.Price{}, false, fmt.Errorf("%w: block %d: %w", ErrCorruptEntry, block, err)
	}
	usd, err := decimal.NewFromString(fields["usd"])
	if err != nil {
		return rewards.Price{}, false, fmt.Errorf("%w: block %d: %w", ErrCorruptEntry, block, err)
	}
	return rewards.Price{Block: priced, USD: usd}, true, nil
}

// Set stores price for block without expiry
func (c *Cache) Set(ctx context.Context, block int64, price rewards.Price) error {
	return c.rdb.HSet(ctx, c.key(block),
		"block", strconv.FormatInt(price.Block, 10),
		"usd", price.USD.String(),
	).Err()
}

func (c *Cache) key(block int64) string {
	return c.prefix + strconv.FormatInt(block, 10)
}

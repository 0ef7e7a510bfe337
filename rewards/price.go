package rewards

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
)

// PriceCache remembers resolved prices by the block that was requested.
// Oracle history never changes, so entries never expire.
type PriceCache interface {
	Get(ctx context.Context, block int64) (Price, bool, error)
	Set(ctx context.Context, block int64, price Price) error
}

// PriceOption configures the PriceResolver
type PriceOption func(*PriceResolver)

// WithPriceCache replaces the default in-memory cache
func WithPriceCache(c PriceCache) PriceOption {
	return func(r *PriceResolver) { r.cache = c }
}

// WithMaxLookback sets how many earlier blocks are tried when a block has no price
func WithMaxLookback(n int) PriceOption {
	return func(r *PriceResolver) { r.maxLookback = n }
}

// WithPriceLogger sets the logger used for cache failures
func WithPriceLogger(l *slog.Logger) PriceOption {
	return func(r *PriceResolver) { r.log = l }
}

// PriceResolver converts a block height into the USD price of HNT.
// The oracle does not publish a price for every block, so a missing
// price falls back to the closest earlier block.
type PriceResolver struct {
	api         OracleAPI
	cache       PriceCache
	maxLookback int
	log         *slog.Logger
}

// NewPriceResolver creates a resolver with an in-memory cache and a 250 block lookback
func NewPriceResolver(api OracleAPI, opts ...PriceOption) *PriceResolver {
	r := &PriceResolver{
		api:         api,
		cache:       NewMemoryCache(),
		maxLookback: DefaultMaxLookback,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PriceForBlock returns the price at block, or at the closest earlier block
// within the lookback window. Price.Block reports the block actually used.
func (r *PriceResolver) PriceForBlock(ctx context.Context, block int64) (Price, error) {
	if cached, ok, err := r.cache.Get(ctx, block); err != nil {
		r.log.WarnContext(ctx, "Price cache read failed", slog.Int64("block", block), slog.Any("error", err))
	} else if ok {
		return cached, nil
	}

	price, err := r.lookup(ctx, block)
	if err != nil {
		return Price{}, err
	}

	if err := r.cache.Set(ctx, block, price); err != nil {
		r.log.WarnContext(ctx, "Price cache write failed", slog.Int64("block", block), slog.Any("error", err))
	}
	return price, nil
}

// lookup walks back from block until the oracle reports a price
func (r *PriceResolver) lookup(ctx context.Context, block int64) (Price, error) {
	for step := 0; step <= r.maxLookback; step++ {
		b := block - int64(step)
		if b <= 0 {
			return Price{}, fmt.Errorf("%w: no price at or before block %d", ErrPriceUnavailable, block)
		}

		raw, ok, err := r.api.OraclePrice(ctx, b)
		if err != nil {
			return Price{}, fmt.Errorf("price for block %d: %w", b, err)
		}
		if ok {
			if step > 0 {
				r.log.DebugContext(ctx, "Fell back to earlier oracle price",
					slog.Int64("block", block),
					slog.Int64("priced_block", b),
				)
			}
			return Price{Block: b, USD: decimal.New(raw, HNTExponent)}, nil
		}
	}
	return Price{}, fmt.Errorf("%w: no price within %d blocks before %d", ErrPriceUnavailable, r.maxLookback, block)
}

// MemoryCache is a process-local PriceCache
type MemoryCache struct {
	mu     sync.RWMutex
	prices map[int64]Price
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{prices: make(map[int64]Price)}
}

// Get returns the cached price for block
func (c *MemoryCache) Get(_ context.Context, block int64) (Price, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.prices[block]
	return p, ok, nil
}

// Set stores the price for block
func (c *MemoryCache) Set(_ context.Context, block int64, price Price) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[block] = price
	return nil
}

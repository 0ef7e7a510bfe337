package rewards

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/screwyprof/hnttax/pkg/helium"
)

// PriceSource resolves the price of HNT at a block
type PriceSource interface {
	PriceForBlock(ctx context.Context, block int64) (Price, error)
}

// Transformer prices raw rewards
type Transformer struct {
	prices PriceSource
}

// NewTransformer creates a Transformer using prices for lookups
func NewTransformer(prices PriceSource) *Transformer {
	return &Transformer{prices: prices}
}

// Transform converts a raw reward of entity into a priced record for wallet
func (t *Transformer) Transform(ctx context.Context, wallet string, entity Entity, raw helium.Reward) (Record, error) {
	price, err := t.prices.PriceForBlock(ctx, raw.Block)
	if err != nil {
		return Record{}, fmt.Errorf("reward %s: %w", raw.Hash, err)
	}

	hnt := decimal.New(raw.Amount, HNTExponent)
	return Record{
		Timestamp:   raw.Timestamp,
		Wallet:      wallet,
		Entity:      entity,
		RewardBlock: raw.Block,
		Block:       price.Block,
		HNT:         hnt,
		Price:       price.USD,
		USD:         hnt.Mul(price.USD),
		Hash:        raw.Hash,
	}, nil
}

package rewards

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/screwyprof/hnttax/pkg/helium"
)

// CollectorOption configures the Collector
// ----------------------------------------
type CollectorOption func(*Collector)

// WithConcurrency prices up to n rewards of an entity at once
func WithConcurrency(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger used by the Collector and its wallet resolver
func WithLogger(l *slog.Logger) CollectorOption {
	return func(c *Collector) { c.log = l }
}

// Collector assembles the reward income of a wallet for a tax year
// ----------------------------------------------------------------
type Collector struct {
	api         API
	transformer *Transformer
	wallets     *WalletResolver
	concurrency int
	log         *slog.Logger
}

// NewCollector constructs a Collector. By default rewards are priced one at a time.
func NewCollector(api API, prices PriceSource, opts ...CollectorOption) *Collector {
	c := &Collector{
		api:         api,
		transformer: NewTransformer(prices),
		concurrency: 1,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.wallets = NewWalletResolver(api, c.log)
	return c
}

// CollectRewards resolves wallet and gathers every reward its hotspots and
// validators earned in year, priced in USD.
//
// Records are chronological per entity with entities in listing order,
// hotspots first. A wallet that earned nothing yields an empty Set, not an error.
func (c *Collector) CollectRewards(ctx context.Context, wallet string, year int) (Set, error) {
	start := time.Now()

	resolved, err := c.wallets.Validate(ctx, wallet)
	if err != nil {
		return Set{}, err
	}

	entities, err := c.Entities(ctx, resolved)
	if err != nil {
		return Set{}, err
	}

	set := Set{Wallet: resolved, Year: year}
	for _, entity := range entities {
		records, err := c.collectEntity(ctx, resolved, entity, year)
		if err != nil {
			return Set{}, err
		}
		set.Records = append(set.Records, records...)
	}
	set.Income = Income(set.Records)

	c.log.InfoContext(ctx, "Collected rewards",
		slog.String("wallet", resolved),
		slog.Int("year", year),
		slog.Int("entities", len(entities)),
		slog.Int("records", len(set.Records)),
		slog.String("income", set.Income.String()),
		slog.Duration("duration", time.Since(start)),
	)
	return set, nil
}

// Entities lists the hotspots then the validators owned by wallet
func (c *Collector) Entities(ctx context.Context, wallet string) ([]Entity, error) {
	hotspots, err := c.api.AccountHotspots(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: hotspots of %s: %w", ErrListEntities, wallet, err)
	}
	validators, err := c.api.AccountValidators(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: validators of %s: %w", ErrListEntities, wallet, err)
	}

	entities := make([]Entity, 0, len(hotspots)+len(validators))
	for _, h := range hotspots {
		entities = append(entities, Entity{
			Kind:    helium.KindHotspot,
			Address: h.Address,
			Name:    h.Name,
			Location: Location{
				City:    h.Geocode.ShortCity,
				State:   h.Geocode.ShortState,
				Country: h.Geocode.ShortCountry,
			},
		})
	}
	for _, v := range validators {
		entities = append(entities, Entity{
			Kind:    helium.KindValidator,
			Address: v.Address,
			Name:    v.Name,
		})
	}
	return entities, nil
}

// collectEntity streams the rewards of one entity and prices them in chunks
// of the configured concurrency. Rewards outside the year are dropped even
// if the API returns them.
func (c *Collector) collectEntity(ctx context.Context, wallet string, entity Entity, year int) ([]Record, error) {
	from, to := helium.YearWindow(year)

	var (
		records []Record
		pending []helium.Reward
		skipped int
	)
	for raw, err := range c.api.Rewards(ctx, entity.Kind, entity.Address, year) {
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s: %w", ErrFetchRewards, entity.Kind, entity.Address, err)
		}
		if raw.Timestamp.Before(from) || !raw.Timestamp.Before(to) {
			skipped++
			continue
		}

		pending = append(pending, raw)
		if len(pending) < c.concurrency {
			continue
		}
		priced, err := c.transformChunk(ctx, wallet, entity, pending)
		if err != nil {
			return nil, err
		}
		records = append(records, priced...)
		pending = pending[:0]
	}

	priced, err := c.transformChunk(ctx, wallet, entity, pending)
	if err != nil {
		return nil, err
	}
	records = append(records, priced...)

	// The API lists newest first; records are kept oldest first
	slices.SortStableFunc(records, func(a, b Record) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	c.log.DebugContext(ctx, "Collected entity rewards",
		slog.String("kind", string(entity.Kind)),
		slog.String("address", entity.Address),
		slog.Int("records", len(records)),
		slog.Int("skipped", skipped),
	)
	return records, nil
}

// transformChunk prices raws in parallel, keeping their order
func (c *Collector) transformChunk(ctx context.Context, wallet string, entity Entity, raws []helium.Reward) ([]Record, error) {
	if len(raws) == 0 {
		return nil, nil
	}

	records := make([]Record, len(raws))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, raw := range raws {
		g.Go(func() error {
			record, err := c.transformer.Transform(gctx, wallet, entity, raw)
			if err != nil {
				return err
			}
			records[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

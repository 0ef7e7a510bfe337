package helium

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// EntityKind identifies the kind of device that earns rewards
type EntityKind string

const (
	KindHotspot   EntityKind = "hotspot"
	KindValidator EntityKind = "validator"
)

// collection returns the API path segment for the kind
func (k EntityKind) collection() (string, error) {
	switch k {
	case KindHotspot:
		return "hotspots", nil
	case KindValidator:
		return "validators", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", k)
	}
}

// Reward represents a raw reward transaction from the Helium API.
// Amount is expressed in bones (10^-8 HNT).
type Reward struct {
	Timestamp time.Time `json:"timestamp"`
	Hash      string    `json:"hash"`
	Block     int64     `json:"block"`
	Amount    int64     `json:"amount"`
}

// YearWindow returns the [start, end) time range covering the given year in UTC
func YearWindow(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// RewardsURL builds the first-page rewards query for an entity and year.
// max_time is the first instant of the next year so that Dec 31 is fully covered.
func (c *Client) RewardsURL(kind EntityKind, address string, year int) (string, error) {
	collection, err := kind.collection()
	if err != nil {
		return "", err
	}

	start, end := YearWindow(year)
	query := url.Values{}
	query.Set("min_time", start.Format(time.DateOnly))
	query.Set("max_time", end.Format(time.DateOnly))

	return c.cfg.BaseURL + "/" + collection + "/" + url.PathEscape(address) + "/rewards?" + query.Encode(), nil
}

// Rewards walks the cursor-paginated rewards of an entity for a year.
//
// The sequence is lazy: a page is requested only when the consumer reaches it,
// and breaking out of the loop stops pagination. Ranging again restarts from
// the first page. Errors are yielded once and end the sequence.
func (c *Client) Rewards(ctx context.Context, kind EntityKind, address string, year int) iter.Seq2[Reward, error] {
	return func(yield func(Reward, error) bool) {
		u, err := c.RewardsURL(kind, address, year)
		if err != nil {
			yield(Reward{}, err)
			return
		}

		c.log.DebugContext(ctx, "Fetching rewards",
			slog.String("kind", string(kind)),
			slog.String("address", address),
			slog.Int("year", year),
		)

		for batch, err := range pages[Reward](ctx, c, "rewards", u) {
			if err != nil {
				yield(Reward{}, err)
				return
			}
			for _, r := range batch {
				if !yield(r, nil) {
					return
				}
			}
		}
	}
}

// page is the common envelope of list endpoints
type page[T any] struct {
	Data   []T    `json:"data"`
	Cursor string `json:"cursor"`
}

// pages requests baseURL and follows the cursor token until the API stops returning one
func pages[T any](ctx context.Context, c *Client, endpoint, baseURL string) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		u := baseURL
		for n := 1; ; n++ {
			if n > c.cfg.MaxPages {
				yield(nil, fmt.Errorf("%w: %s: more than %d pages", ErrMalformedResponse, baseURL, c.cfg.MaxPages))
				return
			}

			var p page[T]
			if err := c.get(ctx, endpoint, u, &p); err != nil {
				yield(nil, err)
				return
			}

			c.log.DebugContext(ctx, "Retrieved page",
				slog.String("url", u),
				slog.Int("page", n),
				slog.Int("items", len(p.Data)),
			)

			if !yield(p.Data, nil) {
				return
			}

			if p.Cursor == "" {
				return
			}
			u = withCursor(baseURL, p.Cursor)
		}
	}
}

// withCursor appends the pagination cursor to the base query
func withCursor(baseURL, cursor string) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + "cursor=" + url.QueryEscape(cursor)
}

// collect drains a page sequence into a single slice
func collect[T any](seq iter.Seq2[[]T, error]) ([]T, error) {
	var out []T
	for batch, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

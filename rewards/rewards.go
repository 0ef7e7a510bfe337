package rewards

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/screwyprof/hnttax/pkg/helium"
)

// Sentinel errors for failure cases
var (
	ErrInvalidWallet    = errors.New("wallet not found")
	ErrPriceUnavailable = errors.New("oracle price unavailable")
	ErrListEntities     = errors.New("listing owned entities failed")
	ErrFetchRewards     = errors.New("fetching rewards failed")

	ErrPendingRequests  = errors.New("pending requests retrieval failed")
	ErrSaveResultFailed = errors.New("save result failed")
)

// Default configuration values
const (
	// HNTExponent scales raw bones and raw oracle prices to HNT and USD
	HNTExponent = -8
	// IncomePrecision is the number of decimal places the total income is rounded to
	IncomePrecision = 3

	DefaultMaxLookback  = 250
	DefaultChunkSize    = uint64(50)
	DefaultPollInterval = 30 * time.Second
)

// API is the subset of the Helium API the collector relies on
// ------------------------------------------------------------
type API interface {
	AccountAPI
	OracleAPI
	AccountHotspots(ctx context.Context, wallet string) ([]helium.Hotspot, error)
	AccountValidators(ctx context.Context, wallet string) ([]helium.Validator, error)
	Rewards(ctx context.Context, kind helium.EntityKind, address string, year int) iter.Seq2[helium.Reward, error]
}

// AccountAPI looks up wallets and hotspots
type AccountAPI interface {
	Account(ctx context.Context, address string) (helium.Account, error)
	Hotspot(ctx context.Context, address string) (helium.Hotspot, error)
}

// OracleAPI reads historical oracle prices
type OracleAPI interface {
	OraclePrice(ctx context.Context, block int64) (int64, bool, error)
}

// Location is the short geocode of a hotspot
type Location struct {
	City    string
	State   string
	Country string
}

// Entity is a hotspot or validator owned by a wallet
type Entity struct {
	Kind     helium.EntityKind
	Address  string
	Name     string
	Location Location
}

// Price is the USD price of one HNT and the block it was recorded at
type Price struct {
	Block int64
	USD   decimal.Decimal
}

// Record is one priced reward
type Record struct {
	Timestamp time.Time
	Wallet    string
	Entity    Entity
	// RewardBlock is the block the reward was paid in, Block the block it was priced at
	RewardBlock int64
	Block       int64
	HNT         decimal.Decimal
	Price       decimal.Decimal
	USD         decimal.Decimal
	Hash        string
}

// Set is the complete reward income of a wallet for one tax year
type Set struct {
	Wallet  string
	Year    int
	Records []Record
	Income  decimal.Decimal
}

// Empty reports whether the wallet earned nothing in the year
func (s Set) Empty() bool {
	return len(s.Records) == 0
}

// TotalHNT sums the HNT earned across all records
func (s Set) TotalHNT() decimal.Decimal {
	total := decimal.Zero
	for _, r := range s.Records {
		total = total.Add(r.HNT)
	}
	return total
}

// IncomeByState breaks the income down by the state the earning hotspot is in.
// Validators and hotspots without a geocode are grouped under the empty key.
func (s Set) IncomeByState() map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, r := range s.Records {
		sums[r.Entity.Location.State] = sums[r.Entity.Location.State].Add(r.USD)
	}
	for state, sum := range sums {
		sums[state] = sum.Round(IncomePrecision)
	}
	return sums
}

// Income sums fiat values and rounds once at the end
func Income(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.USD)
	}
	return total.Round(IncomePrecision)
}

// ServiceLevel is the filing tier a request was ordered with
type ServiceLevel string

const (
	SingleState ServiceLevel = "single_state"
	MultiState  ServiceLevel = "multi_state"
)

// ServiceLevelFor maps the single-state flag of a request to its tier
func ServiceLevelFor(singleState bool) ServiceLevel {
	if singleState {
		return SingleState
	}
	return MultiState
}

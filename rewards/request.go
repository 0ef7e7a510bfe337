package rewards

import (
	"context"
	"time"
)

// Status is the processing state of a reward request
type Status string

const (
	StatusNew       Status = "new"
	StatusProcessed Status = "processed"
	StatusEmpty     Status = "empty"
	StatusError     Status = "error"
)

// Stage names the step a request failed at
type Stage string

const (
	StageValidate Stage = "validate"
	StageCollect  Stage = "collect"
)

// Request asks for the reward income of a wallet for a tax year
type Request struct {
	ID          int64
	Wallet      string
	Year        int
	SingleState bool
	CreatedAt   time.Time
}

// Result is the outcome of a processed request
type Result struct {
	Set           Set
	Level         ServiceLevel
	IncomeByState map[string]string
}

// NewResult summarises set for the tier the request was ordered with.
// Only multi-state requests get the per-state breakdown.
func NewResult(req Request, set Set) Result {
	res := Result{Set: set, Level: ServiceLevelFor(req.SingleState)}
	if res.Level == MultiState {
		res.IncomeByState = make(map[string]string)
		for state, income := range set.IncomeByState() {
			res.IncomeByState[state] = income.StringFixed(IncomePrecision)
		}
	}
	return res
}

// Store persists reward requests and their outcomes
type Store interface {
	// PendingRequests returns up to limit new requests with an ID above afterID, in ID order
	PendingRequests(ctx context.Context, afterID int64, limit uint64) ([]Request, error)
	// UpdateWallet replaces the submitted address with the resolved wallet
	UpdateWallet(ctx context.Context, id int64, wallet string) error
	// SaveResult stores the records and income and marks the request processed
	SaveResult(ctx context.Context, id int64, result Result) error
	// MarkEmpty marks a request whose wallet earned nothing
	MarkEmpty(ctx context.Context, id int64) error
	// MarkFailed marks a request that could not be processed
	MarkFailed(ctx context.Context, id int64, stage Stage, message string) error
}

// RewardCollector gathers the reward set of a wallet
type RewardCollector interface {
	CollectRewards(ctx context.Context, wallet string, year int) (Set, error)
}

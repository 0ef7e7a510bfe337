package dbrow

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/screwyprof/hnttax/web/hnt"
)

// Reward represents a stored reward record as queried from the database.
// Numeric columns are selected as text to keep their exact scale.
type Reward struct {
	Seq           int32     `db:"seq"`
	Timestamp     time.Time `db:"timestamp"`
	EntityKind    string    `db:"entity_kind"`
	EntityAddress string    `db:"entity_address"`
	EntityName    string    `db:"entity_name"`
	State         string    `db:"state"`
	RewardBlock   int64     `db:"reward_block"`
	Block         int64     `db:"block"`
	HNT           string    `db:"hnt"`
	Price         string    `db:"price"`
	USD           string    `db:"usd"`
	Hash          string    `db:"hash"`
}

// ToReward converts the row to the domain model
func (r Reward) ToReward() (hnt.Reward, error) {
	amounts, err := parseDecimals(r.HNT, r.Price, r.USD)
	if err != nil {
		return hnt.Reward{}, fmt.Errorf("reward %s: %w", r.Hash, err)
	}

	return hnt.Reward{
		Seq:           r.Seq,
		Timestamp:     r.Timestamp,
		EntityKind:    r.EntityKind,
		EntityAddress: r.EntityAddress,
		EntityName:    r.EntityName,
		State:         r.State,
		RewardBlock:   r.RewardBlock,
		Block:         r.Block,
		HNT:           amounts[0],
		Price:         amounts[1],
		USD:           amounts[2],
		Hash:          r.Hash,
	}, nil
}

// Report represents the latest processed request of a wallet and year
type Report struct {
	ID            int64             `db:"id"`
	Wallet        string            `db:"wallet"`
	Year          int32             `db:"year"`
	ServiceLevel  string            `db:"service_level"`
	Income        string            `db:"income"`
	IncomeByState map[string]string `db:"income_by_state"`
	Records       int64             `db:"records"`
	UpdatedAt     time.Time         `db:"updated_at"`
}

// ToReport converts the row to the domain model
func (r Report) ToReport() (*hnt.Report, error) {
	income, err := decimal.NewFromString(r.Income)
	if err != nil {
		return nil, fmt.Errorf("income of request %d: %w", r.ID, err)
	}

	report := &hnt.Report{
		RequestID:    r.ID,
		Wallet:       hnt.Wallet(r.Wallet),
		Year:         hnt.Year(r.Year),
		ServiceLevel: r.ServiceLevel,
		Income:       income,
		Records:      r.Records,
		UpdatedAt:    r.UpdatedAt,
	}

	if r.IncomeByState != nil {
		report.IncomeByState = make(map[string]decimal.Decimal, len(r.IncomeByState))
		for state, value := range r.IncomeByState {
			d, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("income of request %d in %q: %w", r.ID, state, err)
			}
			report.IncomeByState[state] = d
		}
	}

	return report, nil
}

func parseDecimals(values ...string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

package dbrow

import (
	"time"

	"github.com/screwyprof/hnttax/rewards"
)

// Request represents a pending reward request as stored in the database
type Request struct {
	ID          int64     `db:"id"`
	Wallet      string    `db:"wallet"`
	Year        int32     `db:"year"`
	SingleState bool      `db:"single_state"`
	CreatedAt   time.Time `db:"created_at"`
}

// ToRequest converts the row to a rewards.Request
func (r Request) ToRequest() rewards.Request {
	return rewards.Request{
		ID:          r.ID,
		Wallet:      r.Wallet,
		Year:        int(r.Year),
		SingleState: r.SingleState,
		CreatedAt:   r.CreatedAt,
	}
}

// RecordColumns lists the reward_records columns filled by RecordsToRows
var RecordColumns = []string{
	"request_id", "seq", "timestamp", "wallet",
	"entity_kind", "entity_address", "entity_name", "state",
	"reward_block", "block", "hnt", "price", "usd", "hash",
}

// RecordsToRows converts records directly to [][]any for pgx.CopyFromRows.
// Decimals are copied as text and cast to numeric on insert.
func RecordsToRows(requestID int64, records []rewards.Record) [][]any {
	rows := make([][]any, len(records))

	for i, r := range records {
		rows[i] = []any{
			requestID,
			int32(i),
			r.Timestamp,
			r.Wallet,
			string(r.Entity.Kind),
			r.Entity.Address,
			r.Entity.Name,
			r.Entity.Location.State,
			r.RewardBlock,
			r.Block,
			r.HNT.String(),
			r.Price.String(),
			r.USD.String(),
			r.Hash,
		}
	}

	return rows
}

package rewards

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVHeader lists the columns written by WriteCSV
var CSVHeader = []string{
	"timestamp",
	"wallet",
	"entity_address",
	"block",
	"hnt",
	"oracle_price",
	"usd",
	"hash",
	"entity_type",
	"state",
}

// WriteCSV exports the records of set, one row per reward
func WriteCSV(w io.Writer, set Set) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range set.Records {
		row := []string{
			r.Timestamp.UTC().Format(time.RFC3339),
			r.Wallet,
			r.Entity.Address,
			strconv.FormatInt(r.Block, 10),
			r.HNT.String(),
			r.Price.String(),
			r.USD.String(),
			r.Hash,
			string(r.Entity.Kind),
			r.Entity.Location.State,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.Hash, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

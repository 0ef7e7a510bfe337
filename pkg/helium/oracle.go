package helium

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// OraclePrice returns the raw oracle price (10^-8 USD per HNT) recorded for a block.
// ok is false when the API reports no price for that exact block.
func (c *Client) OraclePrice(ctx context.Context, block int64) (price int64, ok bool, err error) {
	u := c.cfg.BaseURL + "/oracle/prices/" + strconv.FormatInt(block, 10)

	var resp struct {
		Data *struct {
			Price *int64 `json:"price"`
			Block int64  `json:"block"`
		} `json:"data"`
		Error json.RawMessage `json:"error"`
	}

	err = c.get(ctx, "oracle_prices", u, &resp)
	switch {
	case IsNotFound(err):
		return 0, false, nil
	case err != nil:
		return 0, false, err
	case resp.Data != nil && resp.Data.Price != nil:
		return *resp.Data.Price, true, nil
	case resp.Error != nil:
		return 0, false, nil
	default:
		return 0, false, fmt.Errorf("%w: %s: neither data nor error", ErrMalformedResponse, u)
	}
}

package helium

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Account represents a Helium wallet account
type Account struct {
	Address string `json:"address"`
	// Block is the block the account was first recorded on. Nil for unknown accounts.
	Block *int64 `json:"block"`
}

// Exists reports whether the account was recorded on chain
func (a Account) Exists() bool {
	return a.Block != nil
}

// Geocode carries the short location names of a hotspot
type Geocode struct {
	ShortCity    string `json:"short_city"`
	ShortState   string `json:"short_state"`
	ShortCountry string `json:"short_country"`
}

// Hotspot represents a Helium hotspot from the API
type Hotspot struct {
	Address string  `json:"address"`
	Name    string  `json:"name"`
	Owner   string  `json:"owner"`
	Geocode Geocode `json:"geocode"`
}

// Validator represents a Helium validator from the API
type Validator struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Owner   string `json:"owner"`
}

// Account retrieves a wallet account
func (c *Client) Account(ctx context.Context, address string) (Account, error) {
	u := c.cfg.BaseURL + "/accounts/" + url.PathEscape(address)

	var resp struct {
		Data *Account `json:"data"`
	}
	if err := c.get(ctx, "accounts", u, &resp); err != nil {
		return Account{}, err
	}
	if resp.Data == nil {
		return Account{}, fmt.Errorf("%w: %s: missing data", ErrMalformedResponse, u)
	}
	return *resp.Data, nil
}

// Hotspot retrieves a single hotspot by address.
// An error body such as {"error":"Not Found"} yields ErrNotFound.
func (c *Client) Hotspot(ctx context.Context, address string) (Hotspot, error) {
	u := c.cfg.BaseURL + "/hotspots/" + url.PathEscape(address)

	var resp struct {
		Data  *Hotspot        `json:"data"`
		Error json.RawMessage `json:"error"`
	}
	if err := c.get(ctx, "hotspots", u, &resp); err != nil {
		return Hotspot{}, err
	}
	switch {
	case resp.Data != nil:
		return *resp.Data, nil
	case resp.Error != nil:
		return Hotspot{}, fmt.Errorf("%w: hotspot %s: %s", ErrNotFound, address, resp.Error)
	default:
		return Hotspot{}, fmt.Errorf("%w: %s: missing data", ErrMalformedResponse, u)
	}
}

// AccountHotspots lists the hotspots owned by a wallet
func (c *Client) AccountHotspots(ctx context.Context, wallet string) ([]Hotspot, error) {
	u := c.cfg.BaseURL + "/accounts/" + url.PathEscape(wallet) + "/hotspots"
	return collect(pages[Hotspot](ctx, c, "account_hotspots", u))
}

// AccountValidators lists the validators owned by a wallet
func (c *Client) AccountValidators(ctx context.Context, wallet string) ([]Validator, error) {
	u := c.cfg.BaseURL + "/accounts/" + url.PathEscape(wallet) + "/validators"
	return collect(pages[Validator](ctx, c, "account_validators", u))
}

package rewards

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/screwyprof/hnttax/pkg/helium"
)

// WalletResolver turns user input into the wallet that owns the rewards.
// Users often submit a hotspot address instead of their wallet, so an
// address that is not a known account is retried as a hotspot.
type WalletResolver struct {
	api AccountAPI
	log *slog.Logger
}

// NewWalletResolver creates a resolver backed by the account endpoints
func NewWalletResolver(api AccountAPI, log *slog.Logger) *WalletResolver {
	if log == nil {
		log = slog.Default()
	}
	return &WalletResolver{api: api, log: log}
}

// Validate returns the owning wallet for address.
//
// A wallet recorded on chain resolves to itself. Otherwise the address is
// looked up as a hotspot and its owner is returned. ErrInvalidWallet means
// neither lookup knows the address; upstream outages surface as
// helium.ErrTransientUpstream instead.
func (r *WalletResolver) Validate(ctx context.Context, address string) (string, error) {
	account, err := r.api.Account(ctx, address)
	switch {
	case err == nil && account.Exists():
		return address, nil
	case err != nil && !helium.IsStatus(err):
		return "", err
	}

	hotspot, err := r.api.Hotspot(ctx, address)
	if helium.IsStatus(err) || helium.IsNotFound(err) {
		return "", fmt.Errorf("%w: %s", ErrInvalidWallet, address)
	}
	if err != nil {
		return "", err
	}
	if hotspot.Owner == "" {
		return "", fmt.Errorf("%w: hotspot %s has no owner", helium.ErrMalformedResponse, address)
	}

	r.log.InfoContext(ctx, "Resolved hotspot address to owner wallet",
		slog.String("hotspot", address),
		slog.String("wallet", hotspot.Owner),
	)
	return hotspot.Owner, nil
}

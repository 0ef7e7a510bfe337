package hnt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Helium addresses are base58check encoded: a zero version byte followed by
// a key type byte and a 32 byte public key.
const (
	addressVersion    = 0
	addressPayloadLen = 33
)

// Wallet validation errors
var (
	ErrWalletRequired   = errors.New("wallet is required")
	ErrWalletNotAddress = errors.New("wallet is not a helium address")
)

// Wallet is a syntactically valid Helium address
type Wallet string

// ParseWallet checks the base58check envelope of a Helium address.
// Whether the address exists on chain is decided by the processor.
func ParseWallet(wallet string) (Wallet, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return "", ErrWalletRequired
	}

	payload, version, err := base58.CheckDecode(wallet)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWalletNotAddress, err)
	}

	if version != addressVersion || len(payload) != addressPayloadLen {
		return "", ErrWalletNotAddress
	}

	return Wallet(wallet), nil
}

// String returns the address
func (w Wallet) String() string {
	return string(w)
}

package hnt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel errors for criteria construction and lookups
var (
	ErrInvalidWallet  = errors.New("invalid wallet")
	ErrInvalidYear    = errors.New("invalid year")
	ErrInvalidPerPage = errors.New("invalid per_page")
	ErrReportNotFound = errors.New("no processed report for wallet and year")
)

// RewardsFinder queries the stored results of processed requests
type RewardsFinder interface {
	FindRewards(ctx context.Context, criteria RewardsCriteria) (*RewardsPage, error)
	FindReport(ctx context.Context, wallet Wallet, year Year) (*Report, error)
}

// RequestSubmitter queues a wallet and year for the processor
type RequestSubmitter interface {
	SubmitRequest(ctx context.Context, req Submission) (int64, error)
}

// Reward is a stored, priced mining reward
type Reward struct {
	Seq           int32
	Timestamp     time.Time
	EntityKind    string
	EntityAddress string
	EntityName    string
	State         string
	RewardBlock   int64
	Block         int64
	HNT           decimal.Decimal
	Price         decimal.Decimal
	USD           decimal.Decimal
	Hash          string
}

// Report summarises the latest processed request of a wallet and year
type Report struct {
	RequestID     int64
	Wallet        Wallet
	Year          Year
	ServiceLevel  string
	Income        decimal.Decimal
	IncomeByState map[string]decimal.Decimal // nil for single-state reports
	Records       int64
	UpdatedAt     time.Time
}

// RewardsCriteria selects a page of rewards of a wallet and year
type RewardsCriteria struct {
	Wallet Wallet
	Year   Year
	Page   Page
	Size   PerPage
}

// ItemsPerPage returns the number of items requested per page
func (c RewardsCriteria) ItemsPerPage() uint64 {
	return c.Size.Uint64()
}

// ItemsToSkip returns the number of items to skip for pagination
func (c RewardsCriteria) ItemsToSkip() uint64 {
	return (c.Page.Uint64() - 1) * c.Size.Uint64()
}

// NewRewardsCriteria creates RewardsCriteria with validation
func NewRewardsCriteria(wallet string, year, page, perPage uint64) (RewardsCriteria, error) {
	w, y, err := ParseWalletYear(wallet, year)
	if err != nil {
		return RewardsCriteria{}, err
	}

	pp, err := ParsePerPageFromUint64(perPage)
	if err != nil {
		return RewardsCriteria{}, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
	}

	return RewardsCriteria{
		Wallet: w,
		Year:   y,
		Page:   ParsePageFromUint64(page),
		Size:   pp,
	}, nil
}

// Submission is a validated request to process a wallet and year
type Submission struct {
	Wallet      Wallet
	Year        Year
	SingleState bool
}

// NewSubmission creates a Submission with validation
func NewSubmission(wallet string, year uint64, singleState bool) (Submission, error) {
	w, y, err := ParseWalletYear(wallet, year)
	if err != nil {
		return Submission{}, err
	}

	return Submission{Wallet: w, Year: y, SingleState: singleState}, nil
}

// ParseWalletYear validates the wallet before the year
func ParseWalletYear(wallet string, year uint64) (Wallet, Year, error) {
	w, err := ParseWallet(wallet)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrInvalidWallet, err)
	}

	y, err := ParseYearFromUint64(year)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrInvalidYear, err)
	}

	return w, y, nil
}

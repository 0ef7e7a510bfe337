package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/screwyprof/hnttax/rewards"
	"github.com/screwyprof/hnttax/web/api"
	"github.com/screwyprof/hnttax/web/hnt"
)

// maxBodyBytes caps POST bodies; a submission is a few dozen bytes
const maxBodyBytes = 4 << 10

// Sentinel errors for request binding
var (
	ErrInvalidWallet  = errors.New("invalid wallet parameter")
	ErrInvalidYear    = errors.New("invalid year parameter")
	ErrInvalidPage    = errors.New("invalid page parameter")
	ErrInvalidPerPage = errors.New("invalid per_page parameter")
	ErrInvalidBody    = errors.New("invalid request body")

	ErrWalletMissing = errors.New("wallet is required")

	// Specific year validation errors
	ErrYearMissing       = errors.New("year is required")
	ErrYearNotYYYYFormat = errors.New("year must be exactly 4 digits (YYYY format)")
	ErrYearNotNumeric    = errors.New("year must be numeric")

	// Specific page validation errors
	ErrPageNotNumeric  = errors.New("page must be numeric")
	ErrPageNotPositive = errors.New("page must be positive")

	// Specific per_page validation errors
	ErrPerPageNotNumeric  = errors.New("per_page must be numeric")
	ErrPerPageNotPositive = errors.New("per_page must be positive")
)

// GetRewardsRequest binds an HTTP request to RewardsRequest with defaults
func GetRewardsRequest(r *http.Request) (api.RewardsRequest, error) {
	req := api.RewardsRequest{
		Page:    hnt.DefaultPage,
		PerPage: hnt.DefaultPerPage,
	}

	wallet, year, err := walletAndYear(r)
	if err != nil {
		return req, err
	}
	req.Wallet, req.Year = wallet, year

	query := r.URL.Query()

	if pageParam := query.Get("page"); pageParam != "" {
		page, err := parsePageNumber(pageParam)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPage, err)
		}
		req.Page = page
	}

	if perPageParam := query.Get("per_page"); perPageParam != "" {
		perPage, err := parsePerPageLimit(perPageParam)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
		}
		req.PerPage = perPage
	}

	return req, nil
}

// GetReportRequest binds an HTTP request to ReportRequest
func GetReportRequest(r *http.Request) (api.ReportRequest, error) {
	wallet, year, err := walletAndYear(r)
	if err != nil {
		return api.ReportRequest{}, err
	}

	return api.ReportRequest{Wallet: wallet, Year: year}, nil
}

// PostSubmitRequest decodes the JSON body of a submission.
// Omitting single_state requests the single-state service level.
func PostSubmitRequest(r *http.Request) (api.SubmitRequest, bool, error) {
	var req api.SubmitRequest

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, false, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	if req.Wallet == "" {
		return req, false, fmt.Errorf("%w: %w", ErrInvalidWallet, ErrWalletMissing)
	}

	if req.Year == 0 {
		return req, false, fmt.Errorf("%w: %w", ErrInvalidYear, ErrYearMissing)
	}

	singleState := true
	if req.SingleState != nil {
		singleState = *req.SingleState
	}

	return req, singleState, nil
}

func walletAndYear(r *http.Request) (string, uint64, error) {
	query := r.URL.Query()

	wallet := query.Get("wallet")
	if wallet == "" {
		return "", 0, fmt.Errorf("%w: %w", ErrInvalidWallet, ErrWalletMissing)
	}

	yearParam := query.Get("year")
	if yearParam == "" {
		return "", 0, fmt.Errorf("%w: %w", ErrInvalidYear, ErrYearMissing)
	}

	year, err := parseYearYYYY(yearParam)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrInvalidYear, err)
	}

	return wallet, year, nil
}

// parseYearYYYY checks the YYYY format; the range is a domain rule
func parseYearYYYY(yearParam string) (uint64, error) {
	if len(yearParam) != 4 {
		return 0, ErrYearNotYYYYFormat
	}

	year, err := strconv.ParseUint(yearParam, 10, 64)
	if err != nil {
		return 0, ErrYearNotNumeric
	}

	return year, nil
}

// parsePageNumber validates that the page parameter is a positive integer
func parsePageNumber(pageParam string) (uint64, error) {
	page, err := strconv.ParseUint(pageParam, 10, 64)
	if err != nil {
		return 0, ErrPageNotNumeric
	}

	if page == 0 {
		return 0, ErrPageNotPositive
	}

	return page, nil
}

// parsePerPageLimit validates that the per_page parameter is a positive integer.
// The upper limit is enforced by hnt.ParsePerPageFromUint64.
func parsePerPageLimit(perPageParam string) (uint64, error) {
	perPage, err := strconv.ParseUint(perPageParam, 10, 64)
	if err != nil {
		return 0, ErrPerPageNotNumeric
	}

	if perPage == 0 {
		return 0, ErrPerPageNotPositive
	}

	return perPage, nil
}

// GetRewardsResponse binds domain rewards to the API response format
func GetRewardsResponse(items []hnt.Reward) api.RewardsResponse {
	data := make([]api.Reward, len(items))
	for i, rw := range items {
		data[i] = api.Reward{
			Timestamp:     rw.Timestamp.UTC().Format(time.RFC3339),
			EntityType:    rw.EntityKind,
			EntityAddress: rw.EntityAddress,
			EntityName:    rw.EntityName,
			State:         rw.State,
			Block:         strconv.FormatInt(rw.Block, 10),
			HNT:           rw.HNT.String(),
			OraclePrice:   rw.Price.String(),
			USD:           rw.USD.String(),
			Hash:          rw.Hash,
		}
	}

	return api.RewardsResponse{Data: data}
}

// GetReportResponse binds a domain report to the API response format
func GetReportResponse(report *hnt.Report) api.ReportResponse {
	resp := api.ReportResponse{
		Wallet:       report.Wallet.String(),
		Year:         report.Year.Uint64(),
		ServiceLevel: report.ServiceLevel,
		Income:       report.Income.StringFixed(rewards.IncomePrecision),
		Records:      report.Records,
		UpdatedAt:    report.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if report.IncomeByState != nil {
		resp.IncomeByState = make(map[string]string, len(report.IncomeByState))
		for state, income := range report.IncomeByState {
			resp.IncomeByState[state] = income.StringFixed(rewards.IncomePrecision)
		}
	}

	return resp
}

// PostSubmitResponse acknowledges a queued request
func PostSubmitResponse(id int64) api.SubmitResponse {
	return api.SubmitResponse{ID: id, Status: string(rewards.StatusNew)}
}

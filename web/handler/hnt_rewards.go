package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/screwyprof/hnttax/pkg/httpkit"
	"github.com/screwyprof/hnttax/web/api"
	"github.com/screwyprof/hnttax/web/handler/bind"
	"github.com/screwyprof/hnttax/web/hnt"
)

const (
	GetRewardsRoute  = http.MethodGet + " " + "/hnt/rewards"
	GetReportRoute   = http.MethodGet + " " + "/hnt/report"
	PostRequestRoute = http.MethodPost + " " + "/hnt/requests"
)

// Sentinel errors
var (
	ErrQueryFailed  = errors.New("failed to query rewards")
	ErrSubmitFailed = errors.New("failed to submit request")
)

// HNTRewards serves processed reward reports and accepts new requests
type HNTRewards struct {
	finder    hnt.RewardsFinder
	submitter hnt.RequestSubmitter
}

func NewHNTRewards(finder hnt.RewardsFinder, submitter hnt.RequestSubmitter) *HNTRewards {
	return &HNTRewards{
		finder:    finder,
		submitter: submitter,
	}
}

func (h *HNTRewards) AddRoutes(m *http.ServeMux) {
	m.Handle(GetRewardsRoute, httpkit.HandlerFunc(h.GetRewards))
	m.Handle(GetReportRoute, httpkit.HandlerFunc(h.GetReport))
	m.Handle(PostRequestRoute, httpkit.HandlerFunc(h.PostRequest))
}

func (h *HNTRewards) GetRewards(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, err := bind.GetRewardsRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	criteria, err := hnt.NewRewardsCriteria(req.Wallet, req.Year, req.Page, req.PerPage)
	if err != nil {
		return httpkit.JsonError(api.Wrap(err))
	}

	page, err := h.finder.FindRewards(r.Context(), criteria)
	if err != nil {
		return httpkit.JsonError(api.Wrap(fmt.Errorf("%w: %w", ErrQueryFailed, err)))
	}

	if linkHeader := buildPaginationLinks(page, r.URL); linkHeader != "" {
		w.Header().Set("Link", linkHeader)
	}

	return httpkit.JSON(bind.GetRewardsResponse(page.Rewards))
}

func (h *HNTRewards) GetReport(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, err := bind.GetReportRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	wallet, year, err := hnt.ParseWalletYear(req.Wallet, req.Year)
	if err != nil {
		return httpkit.JsonError(api.Wrap(err))
	}

	report, err := h.finder.FindReport(r.Context(), wallet, year)
	if err != nil {
		return httpkit.JsonError(api.Wrap(fmt.Errorf("%w: %w", ErrQueryFailed, err)))
	}

	return httpkit.JSON(bind.GetReportResponse(report))
}

func (h *HNTRewards) PostRequest(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, singleState, err := bind.PostSubmitRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	submission, err := hnt.NewSubmission(req.Wallet, req.Year, singleState)
	if err != nil {
		return httpkit.JsonError(api.Wrap(err))
	}

	id, err := h.submitter.SubmitRequest(r.Context(), submission)
	if err != nil {
		return httpkit.JsonError(api.Wrap(fmt.Errorf("%w: %w", ErrSubmitFailed, err)))
	}

	return httpkit.JSONStatus(http.StatusAccepted, bind.PostSubmitResponse(id))
}

// buildPaginationLinks creates a GitHub-style Link header with prev and next.
// first and last are omitted; last would need a count query.
func buildPaginationLinks(page *hnt.RewardsPage, baseURL *url.URL) string {
	var links []string

	u := *baseURL
	query := u.Query()

	if page.HasPrevious() {
		query.Set("page", fmt.Sprintf("%d", page.Number-1))
		query.Set("per_page", fmt.Sprintf("%d", page.Size))
		u.RawQuery = query.Encode()
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, u.String()))
	}

	if page.HasNext() {
		query.Set("page", fmt.Sprintf("%d", page.Number+1))
		query.Set("per_page", fmt.Sprintf("%d", page.Size))
		u.RawQuery = query.Encode()
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, u.String()))
	}

	return strings.Join(links, ", ")
}

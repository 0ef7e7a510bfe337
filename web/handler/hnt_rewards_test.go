package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/hnttax/web/api"
	"github.com/screwyprof/hnttax/web/handler"
	"github.com/screwyprof/hnttax/web/hnt"
)

const wallet = "13buBykFQf5VaQtv7mWj2PBY9Lq4i1DeXhg7C4Vbu3ppzqqNkTH"

func TestHNTRewardsGetRewards(t *testing.T) {
	t.Parallel()

	t.Run("it renders rewards with exact decimals", func(t *testing.T) {
		t.Parallel()

		// Arrange
		finder := &fakeFinder{page: &hnt.RewardsPage{
			Rewards: []hnt.Reward{{
				Timestamp:     time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC),
				EntityKind:    "hotspot",
				EntityAddress: "hotspot1",
				State:         "CA",
				Block:         97,
				HNT:           decimal.RequireFromString("2.5"),
				Price:         decimal.RequireFromString("0.05"),
				USD:           decimal.RequireFromString("0.125"),
				Hash:          "abc",
			}},
			Number: 1,
			Size:   50,
		}}
		server := newServer(t, finder)

		// Act
		resp := get(t, server.URL+"/hnt/rewards?wallet="+wallet+"&year=2021")
		body := decode[api.RewardsResponse](t, resp)

		// Assert
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, body.Data, 1)
		assert.Equal(t, api.Reward{
			Timestamp:     "2021-06-01T12:00:00Z",
			EntityType:    "hotspot",
			EntityAddress: "hotspot1",
			State:         "CA",
			Block:         "97",
			HNT:           "2.5",
			OraclePrice:   "0.05",
			USD:           "0.125",
			Hash:          "abc",
		}, body.Data[0])
		assert.Empty(t, resp.Header.Get("Link"), "Should omit Link header on a single page")
		assert.Equal(t, hnt.Wallet(wallet), finder.lastCriteria().Wallet)
		assert.Equal(t, hnt.Year(2021), finder.lastCriteria().Year)
	})

	t.Run("it links to neighbouring pages", func(t *testing.T) {
		t.Parallel()

		// Arrange
		finder := &fakeFinder{page: &hnt.RewardsPage{HasMore: true, Number: 2, Size: 10}}
		server := newServer(t, finder)

		// Act
		resp := get(t, server.URL+"/hnt/rewards?wallet="+wallet+"&year=2021&page=2&per_page=10")

		// Assert
		link := resp.Header.Get("Link")
		assert.Contains(t, link, `rel="prev"`)
		assert.Contains(t, link, `rel="next"`)
		assert.Contains(t, link, "page=1")
		assert.Contains(t, link, "page=3")
		assert.Contains(t, link, "wallet="+wallet, "Links should keep the wallet filter")
		assert.Contains(t, link, "year=2021", "Links should keep the year filter")
	})

	t.Run("it rejects invalid parameters", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name  string
			query string
		}{
			{name: "missing wallet", query: "year=2021"},
			{name: "missing year", query: "wallet=" + wallet},
			{name: "two digit year", query: "wallet=" + wallet + "&year=21"},
			{name: "year before rewards", query: "wallet=" + wallet + "&year=2018"},
			{name: "malformed wallet", query: "wallet=wallet1&year=2021"},
			{name: "zero page", query: "wallet=" + wallet + "&year=2021&page=0"},
			{name: "per_page too large", query: "wallet=" + wallet + "&year=2021&per_page=101"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				// Arrange
				finder := &fakeFinder{}
				server := newServer(t, finder)

				// Act
				resp := get(t, server.URL+"/hnt/rewards?"+tc.query)
				body := decode[map[string]any](t, resp)

				// Assert
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Equal(t, float64(http.StatusBadRequest), body["code"])
				assert.False(t, finder.wasCalled(), "Store should not be queried for invalid input")
			})
		}
	})

	t.Run("it hides store failures", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := newServer(t, &fakeFinder{err: errors.New("connection refused to 10.0.0.5")})

		// Act
		resp := get(t, server.URL+"/hnt/rewards?wallet="+wallet+"&year=2021")
		body := decode[map[string]any](t, resp)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Internal Server Error", body["message"])
	})
}

func TestHNTRewardsGetReport(t *testing.T) {
	t.Parallel()

	t.Run("it renders income rounded to three places", func(t *testing.T) {
		t.Parallel()

		// Arrange
		finder := &fakeFinder{report: &hnt.Report{
			Wallet:       wallet,
			Year:         2021,
			ServiceLevel: "multi_state",
			Income:       decimal.RequireFromString("0.85"),
			IncomeByState: map[string]decimal.Decimal{
				"CA": decimal.RequireFromString("0.3"),
				"NY": decimal.RequireFromString("0.05"),
			},
			Records:   5,
			UpdatedAt: time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC),
		}}
		server := newServer(t, finder)

		// Act
		resp := get(t, server.URL+"/hnt/report?wallet="+wallet+"&year=2021")
		body := decode[api.ReportResponse](t, resp)

		// Assert
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "0.850", body.Income)
		assert.Equal(t, map[string]string{"CA": "0.300", "NY": "0.050"}, body.IncomeByState)
		assert.Equal(t, int64(5), body.Records)
		assert.Equal(t, "2022-01-02T03:04:05Z", body.UpdatedAt)
	})

	t.Run("it answers not found before processing", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := newServer(t, &fakeFinder{err: hnt.ErrReportNotFound})

		// Act
		resp := get(t, server.URL+"/hnt/report?wallet="+wallet+"&year=2021")

		// Assert
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHNTRewardsPostRequest(t *testing.T) {
	t.Parallel()

	t.Run("it queues a single-state request by default", func(t *testing.T) {
		t.Parallel()

		// Arrange
		finder := &fakeFinder{id: 42}
		server := newServer(t, finder)

		// Act
		resp := post(t, server.URL+"/hnt/requests", `{"wallet":"`+wallet+`","year":2021}`)
		body := decode[api.SubmitResponse](t, resp)

		// Assert
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, api.SubmitResponse{ID: 42, Status: "new"}, body)
		assert.Equal(t, hnt.Submission{Wallet: wallet, Year: 2021, SingleState: true}, finder.lastSubmission())
	})

	t.Run("it queues a multi-state request", func(t *testing.T) {
		t.Parallel()

		// Arrange
		finder := &fakeFinder{id: 7}
		server := newServer(t, finder)

		// Act
		resp := post(t, server.URL+"/hnt/requests", `{"wallet":"`+wallet+`","year":2021,"single_state":false}`)

		// Assert
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.False(t, finder.lastSubmission().SingleState)
	})

	t.Run("it rejects malformed bodies", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name string
			body string
		}{
			{name: "not json", body: "wallet=x"},
			{name: "unknown field", body: `{"wallet":"` + wallet + `","year":2021,"coupon":"free"}`},
			{name: "missing year", body: `{"wallet":"` + wallet + `"}`},
			{name: "malformed wallet", body: `{"wallet":"wallet1","year":2021}`},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				// Arrange
				finder := &fakeFinder{}
				server := newServer(t, finder)

				// Act
				resp := post(t, server.URL+"/hnt/requests", tc.body)

				// Assert
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.False(t, finder.wasCalled())
			})
		}
	})
}

// fakeFinder records the last call and answers with canned values
type fakeFinder struct {
	page   *hnt.RewardsPage
	report *hnt.Report
	id     int64
	err    error

	mu         sync.Mutex
	called     bool
	criteria   hnt.RewardsCriteria
	submission hnt.Submission
}

func (f *fakeFinder) FindRewards(_ context.Context, criteria hnt.RewardsCriteria) (*hnt.RewardsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called, f.criteria = true, criteria
	return f.page, f.err
}

func (f *fakeFinder) FindReport(context.Context, hnt.Wallet, hnt.Year) (*hnt.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = true
	return f.report, f.err
}

func (f *fakeFinder) SubmitRequest(_ context.Context, req hnt.Submission) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called, f.submission = true, req
	return f.id, f.err
}

func (f *fakeFinder) wasCalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.called
}

func (f *fakeFinder) lastCriteria() hnt.RewardsCriteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.criteria
}

func (f *fakeFinder) lastSubmission() hnt.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submission
}

func newServer(t *testing.T, finder *fakeFinder) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	handler.NewHNTRewards(finder, finder).AddRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	require.NoError(t, err)

	return do(t, req)
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	return do(t, req)
}

func do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

package rewards_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/screwyprof/hnttax/pkg/helium"
	"github.com/screwyprof/hnttax/pkg/logger"
)

// fakeHelium serves the slice of the Helium API the collector talks to
type fakeHelium struct {
	mu          sync.Mutex
	wallets     map[string]bool
	owners      map[string]string
	hotspots    map[string][]string
	validators  map[string][]string
	rewards     map[string][][]string
	prices      map[int64]int64
	unavailable bool
	// errorBodies answers unknown hotspots with 200 and an error body instead of 404
	errorBodies bool

	priceCalls  []int64
	rewardCalls int
}

func newFakeHelium() *fakeHelium {
	return &fakeHelium{
		wallets:    make(map[string]bool),
		owners:     make(map[string]string),
		hotspots:   make(map[string][]string),
		validators: make(map[string][]string),
		rewards:    make(map[string][][]string),
		prices:     make(map[int64]int64),
	}
}

// withWallet registers an on-chain wallet
func (f *fakeHelium) withWallet(wallet string) *fakeHelium {
	f.wallets[wallet] = true
	return f
}

// withHotspot registers a hotspot owned by wallet and located in state
func (f *fakeHelium) withHotspot(wallet, address, state string) *fakeHelium {
	f.owners[address] = wallet
	f.hotspots[wallet] = append(f.hotspots[wallet], fmt.Sprintf(
		`{"address":%q,"name":"name-%s","owner":%q,"geocode":{"short_city":"City","short_state":%q,"short_country":"US"}}`,
		address, address, wallet, state))
	return f
}

// withValidator registers a validator owned by wallet
func (f *fakeHelium) withValidator(wallet, address string) *fakeHelium {
	f.validators[wallet] = append(f.validators[wallet], fmt.Sprintf(`{"address":%q,"name":"name-%s","owner":%q}`, address, address, wallet))
	return f
}

// withRewardPages sets the reward pages of an entity; every page but the last carries a cursor
func (f *fakeHelium) withRewardPages(address string, pages ...[]string) *fakeHelium {
	f.rewards[address] = pages
	return f
}

// withPrice records an oracle price for block
func (f *fakeHelium) withPrice(block, price int64) *fakeHelium {
	f.prices[block] = price
	return f
}

func (f *fakeHelium) calledPrices() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.priceCalls...)
}

func (f *fakeHelium) rewardRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rewardCalls
}

func (f *fakeHelium) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unavailable {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 2 && parts[0] == "accounts":
		block := "null"
		if f.wallets[parts[1]] {
			block = "1"
		}
		writeJSON(w, fmt.Sprintf(`{"data":{"address":%q,"block":%s}}`, parts[1], block))

	case len(parts) == 3 && parts[0] == "accounts" && parts[2] == "hotspots":
		writeJSON(w, `{"data":[`+strings.Join(f.hotspots[parts[1]], ",")+`]}`)

	case len(parts) == 3 && parts[0] == "accounts" && parts[2] == "validators":
		writeJSON(w, `{"data":[`+strings.Join(f.validators[parts[1]], ",")+`]}`)

	case len(parts) == 2 && parts[0] == "hotspots":
		owner, ok := f.owners[parts[1]]
		if !ok && f.errorBodies {
			writeJSON(w, `{"error":"Not Found"}`)
			return
		}
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, `{"error":"Not Found"}`)
			return
		}
		writeJSON(w, fmt.Sprintf(`{"data":{"address":%q,"owner":%q}}`, parts[1], owner))

	case len(parts) == 3 && parts[2] == "rewards":
		f.rewardCalls++
		f.writeRewardPage(w, parts[1], r.URL.Query().Get("cursor"))

	case len(parts) == 3 && parts[0] == "oracle" && parts[1] == "prices":
		block, _ := strconv.ParseInt(parts[2], 10, 64)
		f.priceCalls = append(f.priceCalls, block)
		price, ok := f.prices[block]
		if !ok {
			writeJSON(w, `{"error":"No price found for block"}`)
			return
		}
		writeJSON(w, fmt.Sprintf(`{"data":{"price":%d,"block":%d}}`, price, block))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// writeRewardPage serves the page addressed by cursor "pN"
func (f *fakeHelium) writeRewardPage(w http.ResponseWriter, address, cursor string) {
	pages := f.rewards[address]
	n := 0
	if cursor != "" {
		n, _ = strconv.Atoi(strings.TrimPrefix(cursor, "p"))
	}
	if n >= len(pages) {
		writeJSON(w, `{"data":[]}`)
		return
	}

	body := `{"data":[` + strings.Join(pages[n], ",") + `]`
	if n+1 < len(pages) {
		body += fmt.Sprintf(`,"cursor":"p%d"`, n+1)
	}
	writeJSON(w, body+"}")
}

// reward renders one raw reward
func reward(hash, timestamp string, block, amount int64) string {
	return fmt.Sprintf(`{"timestamp":%q,"hash":%q,"block":%d,"amount":%d}`, timestamp, hash, block, amount)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

// heliumClient starts the fake API and returns a client talking to it
func heliumClient(t *testing.T, api *fakeHelium) *helium.Client {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	return helium.NewClient(server.Client(), helium.Config{BaseURL: server.URL, MaxAttempts: 2},
		helium.WithClock(instantClock{}),
		helium.WithLogger(logger.Discard()),
	)
}

// instantClock never waits between retries
type instantClock struct{}

func (instantClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return ch
}

func (instantClock) Now() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

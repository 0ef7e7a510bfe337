package api

// RewardsRequest represents the query parameters for GET /hnt/rewards
type RewardsRequest struct {
	Wallet  string `query:"wallet"`   // Helium wallet address, required
	Year    uint64 `query:"year"`     // Reward year in YYYY format, required
	Page    uint64 `query:"page"`     // Page number for pagination (default: 1)
	PerPage uint64 `query:"per_page"` // Number of items per page (default: 50, max: 100)
}

// Reward represents a single priced reward in the API response.
// Amounts are decimal strings so no precision is lost in JSON.
type Reward struct {
	Timestamp     string `json:"timestamp"`
	EntityType    string `json:"entity_type"`
	EntityAddress string `json:"entity_address"`
	EntityName    string `json:"entity_name,omitempty"`
	State         string `json:"state,omitempty"`
	Block         string `json:"block"`
	HNT           string `json:"hnt"`
	OraclePrice   string `json:"oracle_price"`
	USD           string `json:"usd"`
	Hash          string `json:"hash"`
}

// RewardsResponse represents the API response format for GET /hnt/rewards
type RewardsResponse struct {
	Data []Reward `json:"data"`
}

// ReportRequest represents the query parameters for GET /hnt/report
type ReportRequest struct {
	Wallet string `query:"wallet"`
	Year   uint64 `query:"year"`
}

// ReportResponse summarises the income of a processed wallet and year
type ReportResponse struct {
	Wallet        string            `json:"wallet"`
	Year          uint64            `json:"year"`
	ServiceLevel  string            `json:"service_level"`
	Income        string            `json:"income"`
	IncomeByState map[string]string `json:"income_by_state,omitempty"`
	Records       int64             `json:"records"`
	UpdatedAt     string            `json:"updated_at"`
}

// SubmitRequest is the JSON body of POST /hnt/requests
type SubmitRequest struct {
	Wallet      string `json:"wallet"`
	Year        uint64 `json:"year"`
	SingleState *bool  `json:"single_state,omitempty"` // defaults to true
}

// SubmitResponse acknowledges a queued request
type SubmitResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

package pgxstore

import (
	"fmt"

	"github.com/screwyprof/hnttax/rewards"
	"github.com/screwyprof/hnttax/web/hnt"
)

// SQL queries
const (
	baseRewardsQuery = `SELECT seq, timestamp, entity_kind, entity_address, entity_name, state,
		reward_block, block, hnt::text AS hnt, price::text AS price, usd::text AS usd, hash
		FROM reward_records`

	// Matches the resolved wallet or the address the request was submitted with
	latestFinishedRequest = `request_id = (
		SELECT id FROM reward_requests
		WHERE (wallet = $%[1]d OR submitted_wallet = $%[1]d) AND year = $%[2]d
			AND status IN ('` + string(rewards.StatusProcessed) + `', '` + string(rewards.StatusEmpty) + `')
		ORDER BY id DESC LIMIT 1)`
)

// RewardsQueryBuilder provides a domain-specific language for building reward queries
type RewardsQueryBuilder struct {
	sql  string
	args []any
}

// NewRewardsQuery creates a new reward query builder
func NewRewardsQuery() *RewardsQueryBuilder {
	return &RewardsQueryBuilder{
		sql: baseRewardsQuery,
	}
}

// ForCriteria applies the reward criteria to the query in one fluent call
func (q *RewardsQueryBuilder) ForCriteria(criteria hnt.RewardsCriteria) *RewardsQueryBuilder {
	return q.
		filterByLatestReport(criteria.Wallet, criteria.Year).
		orderBySeq().
		paginateWithDetection(criteria)
}

// filterByLatestReport restricts records to the newest finished request of wallet and year.
// An empty request has no records, so it hides older processed ones.
func (q *RewardsQueryBuilder) filterByLatestReport(wallet hnt.Wallet, year hnt.Year) *RewardsQueryBuilder {
	q.addWhereCondition(latestFinishedRequest, wallet.String(), year.Int())
	return q
}

// orderBySeq keeps the order the records were collected in
func (q *RewardsQueryBuilder) orderBySeq() *RewardsQueryBuilder {
	q.sql += " ORDER BY seq"
	return q
}

// paginateWithDetection adds pagination with "has more" detection using LIMIT n+1
func (q *RewardsQueryBuilder) paginateWithDetection(criteria hnt.RewardsCriteria) *RewardsQueryBuilder {
	limit := criteria.ItemsPerPage() + 1
	offset := criteria.ItemsToSkip()

	q.addParameter("LIMIT $%d", limit)

	if offset > 0 {
		q.addParameter("OFFSET $%d", offset)
	}

	return q
}

// Build returns the final SQL query and arguments
func (q *RewardsQueryBuilder) Build() (string, []any) {
	return q.sql, q.args
}

// addWhereCondition adds a WHERE condition with one placeholder per value
func (q *RewardsQueryBuilder) addWhereCondition(sqlClause string, values ...any) {
	placeholders := make([]any, len(values))
	for i := range values {
		placeholders[i] = q.nextPlaceholder() + i
	}

	if q.hasWhereClause() {
		q.sql += " AND " + fmt.Sprintf(sqlClause, placeholders...)
	} else {
		q.sql += " WHERE " + fmt.Sprintf(sqlClause, placeholders...)
	}

	q.args = append(q.args, values...)
}

// addParameter adds a SQL clause with a parameter
func (q *RewardsQueryBuilder) addParameter(sqlClause string, value any) {
	placeholder := q.nextPlaceholder()
	q.sql += " " + fmt.Sprintf(sqlClause, placeholder)
	q.args = append(q.args, value)
}

// hasWhereClause checks if the query already has a WHERE clause
func (q *RewardsQueryBuilder) hasWhereClause() bool {
	return len(q.args) > 0
}

// nextPlaceholder returns the next PostgreSQL placeholder ($1, $2, etc.)
func (q *RewardsQueryBuilder) nextPlaceholder() int {
	return len(q.args) + 1
}

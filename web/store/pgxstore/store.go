package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/hnttax/rewards"
	"github.com/screwyprof/hnttax/web/hnt"
	"github.com/screwyprof/hnttax/web/store/dbrow"
)

// SQL queries
const (
	// Empty requests are zero-income reports; a hotspot address finds its owner's report
	findReportSQL = `
		SELECT r.id, r.wallet, r.year,
			COALESCE(r.service_level, CASE WHEN r.single_state THEN 'single_state' ELSE 'multi_state' END) AS service_level,
			COALESCE(r.income, 0)::text AS income, r.income_by_state, r.updated_at,
			(SELECT count(*) FROM reward_records WHERE request_id = r.id) AS records
		FROM reward_requests r
		WHERE (r.wallet = $1 OR r.submitted_wallet = $1) AND r.year = $2 AND r.status = ANY($3)
		ORDER BY r.id DESC
		LIMIT 1`

	submitRequestSQL = `
		INSERT INTO reward_requests (wallet, submitted_wallet, year, single_state)
		VALUES ($1, $1, $2, $3)
		RETURNING id`
)

// Sentinel errors for store operations
var (
	ErrQueryFailed  = errors.New("reward query failed")
	ErrSubmitFailed = errors.New("request submission failed")
)

// RewardsFinder implements reward querying and request submission using pgx
type RewardsFinder struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL rewards finder with an existing connection pool
// Returns the finder and a closer function
func New(pool *pgxpool.Pool) (*RewardsFinder, func()) {
	finder := &RewardsFinder{pool: pool}
	closer := func() {
		pool.Close()
	}
	return finder, closer
}

// FindRewards returns a page of records of the latest processed request.
// Uses LIMIT n+1 to detect further pages without a count query.
func (f *RewardsFinder) FindRewards(ctx context.Context, criteria hnt.RewardsCriteria) (*hnt.RewardsPage, error) {
	query, args := NewRewardsQuery().ForCriteria(criteria).Build()

	rows, err := f.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	dbRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[dbrow.Reward])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	items := make([]hnt.Reward, 0, len(dbRows))
	for _, row := range dbRows {
		reward, err := row.ToReward()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		items = append(items, reward)
	}

	hasMore := uint64(len(items)) > criteria.ItemsPerPage()
	if hasMore {
		items = items[:criteria.ItemsPerPage()]
	}

	return &hnt.RewardsPage{
		Rewards: items,
		HasMore: hasMore,
		Number:  criteria.Page,
		Size:    criteria.Size,
	}, nil
}

// FindReport returns the summary of the latest finished request of wallet and year
func (f *RewardsFinder) FindReport(ctx context.Context, wallet hnt.Wallet, year hnt.Year) (*hnt.Report, error) {
	finished := []string{string(rewards.StatusProcessed), string(rewards.StatusEmpty)}
	rows, err := f.pool.Query(ctx, findReportSQL, wallet.String(), year.Int(), finished)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[dbrow.Report])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, hnt.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	report, err := row.ToReport()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return report, nil
}

// SubmitRequest queues a new request for the processor and returns its ID
func (f *RewardsFinder) SubmitRequest(ctx context.Context, req hnt.Submission) (int64, error) {
	var id int64
	err := f.pool.QueryRow(ctx, submitRequestSQL, req.Wallet.String(), req.Year.Int(), req.SingleState).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	return id, nil
}

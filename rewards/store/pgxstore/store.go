package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/hnttax/rewards"
	"github.com/screwyprof/hnttax/rewards/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrTransactionFailed = errors.New("transaction failed")
	ErrTempTableFailed   = errors.New("temporary table operation failed")
	ErrCopyFailed        = errors.New("bulk copy operation failed")
	ErrInsertFailed      = errors.New("insert operation failed")
	ErrUpdateFailed      = errors.New("request update failed")
	ErrQueryFailed       = errors.New("pending requests query failed")
	ErrRequestNotFound   = errors.New("reward request not found")
)

// Store implements rewards.Store interface using pgx
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool) (*Store, func()) {
	store := &Store{pool: pool}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// PendingRequests returns new requests with an ID above afterID, oldest first
func (s *Store) PendingRequests(ctx context.Context, afterID int64, limit uint64) ([]rewards.Request, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, wallet, year, single_state, created_at
		FROM reward_requests
		WHERE status = 'new' AND id > $1
		ORDER BY id
		LIMIT $2
	`, afterID, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	dbRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[dbrow.Request])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	requests := make([]rewards.Request, len(dbRows))
	for i, r := range dbRows {
		requests[i] = r.ToRequest()
	}
	return requests, nil
}

// UpdateWallet replaces the submitted address with the resolved owner wallet
func (s *Store) UpdateWallet(ctx context.Context, id int64, wallet string) error {
	return s.exec(ctx, `
		UPDATE reward_requests SET wallet = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, id, wallet)
}

// MarkEmpty marks a request whose wallet earned nothing in the year
func (s *Store) MarkEmpty(ctx context.Context, id int64) error {
	return s.exec(ctx, `
		UPDATE reward_requests SET status = 'empty', income = 0,
			service_level = CASE WHEN single_state THEN 'single_state' ELSE 'multi_state' END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, id)
}

// MarkFailed records the stage and reason a request failed at
func (s *Store) MarkFailed(ctx context.Context, id int64, stage rewards.Stage, message string) error {
	return s.exec(ctx, `
		UPDATE reward_requests SET status = 'error', stage = $2, message = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, id, string(stage), message)
}

// SaveResult stores the records of a request using pgx CopyFrom and marks it processed.
// Records from an earlier attempt are replaced, so saving twice is safe.
func (s *Store) SaveResult(ctx context.Context, id int64, result rewards.Result) error {
	rows := dbrow.RecordsToRows(id, result.Set.Records)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // No-op if commit succeeds

	// Decimal columns are text here and cast on insert
	_, err = tx.Exec(ctx, `
		CREATE TEMPORARY TABLE temp_reward_records (
			request_id BIGINT,
			seq INTEGER,
			timestamp TIMESTAMP WITH TIME ZONE,
			wallet TEXT,
			entity_kind TEXT,
			entity_address TEXT,
			entity_name TEXT,
			state TEXT,
			reward_block BIGINT,
			block BIGINT,
			hnt TEXT,
			price TEXT,
			usd TEXT,
			hash TEXT
		) ON COMMIT DROP
	`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTempTableFailed, err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"temp_reward_records"}, dbrow.RecordColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM reward_records WHERE request_id = $1`, id); err != nil {
		return fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reward_records (request_id, seq, timestamp, wallet, entity_kind, entity_address,
			entity_name, state, reward_block, block, hnt, price, usd, hash)
		SELECT request_id, seq, timestamp, wallet, entity_kind, entity_address,
			entity_name, state, reward_block, block, hnt::numeric, price::numeric, usd::numeric, hash
		FROM temp_reward_records
	`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}

	var byState any
	if result.IncomeByState != nil {
		byState = result.IncomeByState
	}
	tag, err := tx.Exec(ctx, `
		UPDATE reward_requests
		SET status = 'processed', service_level = $2, income = $3::numeric,
			income_by_state = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, id, string(result.Level), result.Set.Income.String(), byState)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrRequestNotFound, id)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	return nil
}

// exec runs a single-row update of a request
func (s *Store) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %v", ErrRequestNotFound, args[0])
	}
	return nil
}

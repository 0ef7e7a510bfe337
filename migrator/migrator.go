package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/shopspring/decimal"

	"github.com/screwyprof/hnttax/pkg/helium"
	"github.com/screwyprof/hnttax/pkg/pgxdb"
	"github.com/screwyprof/hnttax/rewards"
	"github.com/screwyprof/hnttax/rewards/store/pgxstore"
)

// Migration constants
const (
	migrationsTableName = "schema_migrations"
	schemaHashPrefix    = "schema_only_"
	seededHashPrefix    = "seeded_demo_"
)

// SQL queries
const (
	enqueueRequestSQL = `
		INSERT INTO reward_requests (wallet, submitted_wallet, year, single_state)
		VALUES ($1, $1, $2, $3)
		RETURNING id`
)

// Migration-related errors
var (
	ErrMigrationExecution = errors.New("migration execution failed")
	ErrEnqueueRequest     = errors.New("enqueue reward request failed")
	ErrSeedDemoData       = errors.New("seeding demo rewards failed")
)

// SchemaMigrator applies only database schema migrations
// Used for production and tests that need schema-only setup
type SchemaMigrator struct {
	migrationsDir string
}

// NewSchemaMigrator creates a migrator that applies schema migrations only
func NewSchemaMigrator(migrationsDir string) *SchemaMigrator {
	return &SchemaMigrator{
		migrationsDir: migrationsDir,
	}
}

func (m *SchemaMigrator) Hash() (string, error) {
	baseHash, err := migrationsHash(m.migrationsDir)
	if err != nil {
		return "", err
	}
	return schemaHashPrefix + baseHash, nil
}

func (m *SchemaMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	return applyMigrations(db, m.migrationsDir)
}

// SeededMigrator applies schema migrations and stores a processed demo request
// with a deterministic reward set. Used by read API tests.
type SeededMigrator struct {
	migrationsDir string
	wallet        string
	year          int
	records       int
}

// NewSeededMigrator creates a migrator that applies schema + seeds one processed request
func NewSeededMigrator(migrationsDir, wallet string, year, records int) *SeededMigrator {
	return &SeededMigrator{
		migrationsDir: migrationsDir,
		wallet:        wallet,
		year:          year,
		records:       records,
	}
}

func (m *SeededMigrator) Hash() (string, error) {
	baseHash, err := migrationsHash(m.migrationsDir)
	if err != nil {
		return "", err
	}
	return seededHashPrefix + baseHash + "_" + m.wallet + "_" + strconv.Itoa(m.year) + "_" + strconv.Itoa(m.records), nil
}

func (m *SeededMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	if err := applyMigrations(db, m.migrationsDir); err != nil {
		return err
	}
	return m.seedDemoData(ctx, conf.URL())
}

// seedDemoData stores DemoSet through the processor store
func (m *SeededMigrator) seedDemoData(ctx context.Context, dbURL string) error {
	slog.InfoContext(ctx, "🌱 Seeding demo database with reward data",
		"wallet", m.wallet,
		"year", m.year,
		"records", m.records)

	pool, err := pgxdb.NewConnection(ctx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	id, err := EnqueueRequest(ctx, pool, m.wallet, m.year, false)
	if err != nil {
		return err
	}

	// The pool is closed by the deferred call above
	store, _ := pgxstore.New(pool)

	req := rewards.Request{ID: id, Wallet: m.wallet, Year: m.year}
	if err := store.SaveResult(ctx, id, rewards.NewResult(req, DemoSet(m.wallet, m.year, m.records))); err != nil {
		return fmt.Errorf("%w: %w", ErrSeedDemoData, err)
	}

	slog.InfoContext(ctx, "✅ Demo database seeding completed successfully")
	return nil
}

// DemoSet builds n hotspot rewards of 1 HNT each, one hour apart from the
// start of year, priced at 10 USD. Even rewards come from a CA hotspot,
// odd ones from a TX hotspot.
func DemoSet(wallet string, year, n int) rewards.Set {
	start, _ := helium.YearWindow(year)
	hnt := decimal.NewFromInt(1)
	price := decimal.NewFromInt(10)

	records := make([]rewards.Record, n)
	for i := range records {
		state, address := "CA", "demo-hotspot-ca"
		if i%2 == 1 {
			state, address = "TX", "demo-hotspot-tx"
		}
		block := int64(1_000_000 + i)
		records[i] = rewards.Record{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Wallet:    wallet,
			Entity: rewards.Entity{
				Kind:     helium.KindHotspot,
				Address:  address,
				Name:     address,
				Location: rewards.Location{State: state, Country: "US"},
			},
			RewardBlock: block,
			Block:       block,
			HNT:         hnt,
			Price:       price,
			USD:         hnt.Mul(price),
			Hash:        fmt.Sprintf("demo-%06d", i),
		}
	}
	return rewards.Set{Wallet: wallet, Year: year, Records: records, Income: rewards.Income(records)}
}

// ApplyMigrations applies database migrations using sql-migrate with the provided pgx pool
func ApplyMigrations(pool *pgxpool.Pool, migrationsDir string) error {
	// Create sql.DB from the pgx pool for sql-migrate
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return applyMigrations(db, migrationsDir)
}

// EnqueueRequest stores a new reward request and returns its ID
func EnqueueRequest(ctx context.Context, pool *pgxpool.Pool, wallet string, year int, singleState bool) (int64, error) {
	var id int64
	if err := pool.QueryRow(ctx, enqueueRequestSQL, wallet, year, singleState).Scan(&id); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEnqueueRequest, err)
	}
	return id, nil
}

// applyMigrations applies database migrations using sql-migrate
func applyMigrations(db *sql.DB, migrationsDir string) error {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	_, err := migrationSet.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}
	return nil
}

// migrationsHash fingerprints the migration files so pgtestdb can reuse template databases
func migrationsHash(migrationsDir string) (string, error) {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	hash, err := sqlmigrator.New(source, migrationSet).Hash()
	if err != nil {
		return "", fmt.Errorf("failed to calculate migration hash for %s: %w", migrationsDir, err)
	}
	return hash, nil
}

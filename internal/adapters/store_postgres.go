package adapters

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore backs the deploy ledger, the monitor state and the bot
// user state with a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

var _ ports.LedgerPort = (*PostgresStore)(nil)
var _ ports.MonitorStorePort = (*PostgresStore)(nil)
var _ ports.UserStorePort = (*PostgresStore)(nil)

// NewPostgresStore opens the database at the given URL, configures the
// pool and applies pending migrations.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runStoreMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an already-open connection without
// running migrations. Used by tests with a mock connection.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runStoreMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) InsertDeploy(ctx context.Context, record types.DeployInfo) error {
	return queryInsertDeploy(ctx, s.db, record)
}

func (s *PostgresStore) ListDeploys(ctx context.Context, function string, since time.Time, limit int) ([]types.DeployInfo, error) {
	return queryListDeploys(ctx, s.db, function, since, limit)
}

func (s *PostgresStore) ListAllDeploys(ctx context.Context) ([]types.DeployInfo, error) {
	return queryListAllDeploys(ctx, s.db)
}

func (s *PostgresStore) DeleteDeploys(ctx context.Context, ids []int64) (int, error) {
	return queryDeleteDeploys(ctx, s.db, ids)
}

func (s *PostgresStore) ListCandidates(ctx context.Context) ([]types.SearchCandidate, error) {
	return queryListCandidates(ctx, s.db)
}

func (s *PostgresStore) RecordHealthCheck(ctx context.Context, topicID int, at time.Time, status types.Visibility) error {
	return queryRecordHealthCheck(ctx, s.db, topicID, at, status)
}

func (s *PostgresStore) ActualFirstPost(ctx context.Context, topicID int) (types.FirstPostRecord, bool, error) {
	return queryActualFirstPost(ctx, s.db, topicID)
}

// SaveFirstPost demotes the previous actual rows for the topic and
// inserts the new record in one transaction.
func (s *PostgresStore) SaveFirstPost(ctx context.Context, record types.FirstPostRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := queryDemoteFirstPosts(ctx, tx, record.SearchID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := queryInsertFirstPost(ctx, tx, record); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetUserStatus(ctx context.Context, userID int64, status string, at time.Time) error {
	return querySetUserStatus(ctx, s.db, userID, status, at)
}

func (s *PostgresStore) UpsertCoordinates(ctx context.Context, coords types.UserCoordinates) error {
	return queryUpsertCoordinates(ctx, s.db, coords)
}

func (s *PostgresStore) Coordinates(ctx context.Context, userID int64) (types.UserCoordinates, bool, error) {
	return queryCoordinates(ctx, s.db, userID)
}

func (s *PostgresStore) SetPreference(ctx context.Context, userID int64, prefID int, name string) error {
	return querySetPreference(ctx, s.db, userID, prefID, name)
}

func (s *PostgresStore) DeletePreference(ctx context.Context, userID int64, prefID int) error {
	return queryDeletePreference(ctx, s.db, userID, prefID)
}

func (s *PostgresStore) Preferences(ctx context.Context, userID int64) ([]types.UserPreference, error) {
	return queryPreferences(ctx, s.db, userID)
}

// ToggleRegionalPreference flips a folder subscription inside a
// transaction and reports whether it is now on.
func (s *PostgresStore) ToggleRegionalPreference(ctx context.Context, userID int64, folderID int) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	enabled, err := queryToggleRegionalPreference(ctx, tx, userID, folderID)
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return enabled, nil
}

func (s *PostgresStore) RegionalPreferences(ctx context.Context, userID int64) ([]int, error) {
	return queryRegionalPreferences(ctx, s.db, userID)
}

func (s *PostgresStore) RecentSearches(ctx context.Context, limit int) ([]types.SearchSummary, error) {
	return queryRecentSearches(ctx, s.db, limit)
}

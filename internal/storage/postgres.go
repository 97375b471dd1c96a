package storage

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/michaelberinski/genologics/pkg/models"
	"github.com/michaelberinski/genologics/pkg/storage"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil
}

// SaveRun inserts a new run record
func (s *PostgresStore) SaveRun(r models.RunRecord) error {
	_, err := s.db.Exec("INSERT INTO epp_runs (id, script, log_file, status, error_msg, started_at, finished_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		r.ID, r.Script, r.LogFile, r.Status, r.ErrorMsg, r.StartedAt, r.FinishedAt)
	if err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}
	return nil
}

// GetRun retrieves a run record by ID
func (s *PostgresStore) GetRun(id string) (models.RunRecord, error) {
	var r models.RunRecord
	err := s.db.Get(&r, "SELECT * FROM epp_runs WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.RunRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return models.RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// UpdateRunStatus updates the status and error message of a run; terminal
// statuses also stamp the finish time.
func (s *PostgresStore) UpdateRunStatus(id string, status models.RunStatus, errorMsg string) error {
	res, err := s.db.Exec(`UPDATE epp_runs
		SET status = $1, error_msg = $2,
		    finished_at = CASE WHEN $1 IN ('COMPLETED', 'FAILED') THEN CURRENT_TIMESTAMP ELSE finished_at END
		WHERE id = $3`, status, errorMsg, id)
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListRuns returns all run records, newest first
func (s *PostgresStore) ListRuns() ([]models.RunRecord, error) {
	runs := []models.RunRecord{}
	query := "SELECT id, script, log_file, status, error_msg, started_at, finished_at FROM epp_runs ORDER BY started_at DESC"
	err := s.db.Select(&runs, query)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

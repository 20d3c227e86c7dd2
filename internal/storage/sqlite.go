package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"go-skintone-analyzer/internal/repository"
	"go-skintone-analyzer/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_records (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_id      INTEGER NOT NULL,
	analysis_type   TEXT    NOT NULL,
	analysis_result TEXT    NOT NULL,
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_records_patient ON analysis_records(patient_id);
CREATE INDEX IF NOT EXISTS idx_analysis_records_type ON analysis_records(analysis_type);
`

// SQLiteStore implements repository.RecordRepository backed by SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRecord inserts a new analysis record and returns its id.
func (s *SQLiteStore) SaveRecord(ctx context.Context, record *models.AnalysisRecord) (int64, error) {
	if record == nil || record.AnalysisType == "" || len(record.AnalysisResult) == 0 {
		return 0, repository.ErrInvalidRecord
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_records (patient_id, analysis_type, analysis_result, created_at)
		 VALUES (?, ?, ?, ?)`,
		record.PatientID, record.AnalysisType, string(record.AnalysisResult), createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted record id: %w", err)
	}
	return id, nil
}

// GetRecord retrieves a record by id.
func (s *SQLiteStore) GetRecord(ctx context.Context, id int64) (*models.AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, patient_id, analysis_type, analysis_result, created_at
		 FROM analysis_records WHERE id = ?`, id)

	record, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis record %d: %w", id, err)
	}
	return record, nil
}

// ListRecords retrieves records matching the filter, newest first.
func (s *SQLiteStore) ListRecords(ctx context.Context, filter repository.RecordFilter) ([]*models.AnalysisRecord, error) {
	query := `SELECT id, patient_id, analysis_type, analysis_result, created_at
		FROM analysis_records WHERE 1=1`
	args := []interface{}{}

	if filter.PatientID != 0 {
		query += " AND patient_id = ?"
		args = append(args, filter.PatientID)
	}
	if filter.AnalysisType != "" {
		query += " AND analysis_type = ?"
		args = append(args, filter.AnalysisType)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis records: %w", err)
	}
	defer rows.Close()

	var records []*models.AnalysisRecord
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analysis records: %w", err)
	}
	return records, nil
}

func scanRecord(scan func(dest ...interface{}) error) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	var result string
	if err := scan(&record.ID, &record.PatientID, &record.AnalysisType, &result, &record.CreatedAt); err != nil {
		return nil, err
	}
	record.AnalysisResult = []byte(result)
	return &record, nil
}

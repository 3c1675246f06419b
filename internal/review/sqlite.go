package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agrihealth-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite review store, creating the database
// file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReview(s scanner) (*domain.ExpertReview, error) {
	r := &domain.ExpertReview{}
	err := s.Scan(
		&r.ID, &r.DiagnosisID, &r.ReviewerID,
		&r.ExpertAdvice, &r.TreatmentPlan, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		diagnosis_id TEXT NOT NULL UNIQUE,
		reviewer_id TEXT NOT NULL,
		expert_advice TEXT NOT NULL,
		treatment_plan TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_created_at ON reviews(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Save stores or replaces the review for a diagnosis.
func (s *SQLiteStore) Save(ctx context.Context, review *domain.ExpertReview) error {
	now := time.Now().UTC()

	var existingID int64
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT id, created_at FROM reviews WHERE diagnosis_id = ?",
		review.DiagnosisID,
	).Scan(&existingID, &createdAt)

	if err == nil {
		review.ID = existingID
		review.CreatedAt = createdAt
		review.UpdatedAt = now

		_, err = s.db.ExecContext(ctx, `
			UPDATE reviews SET
				reviewer_id = ?,
				expert_advice = ?,
				treatment_plan = ?,
				updated_at = ?
			WHERE id = ?
		`,
			review.ReviewerID,
			review.ExpertAdvice,
			review.TreatmentPlan,
			now,
			existingID,
		)
		if err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}
		return nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check existing: %w", err)
	}

	review.CreatedAt = now
	review.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (
			diagnosis_id, reviewer_id, expert_advice, treatment_plan, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		review.DiagnosisID,
		review.ReviewerID,
		review.ExpertAdvice,
		review.TreatmentPlan,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	review.ID = id

	return nil
}

// Get retrieves the review for a diagnosis.
func (s *SQLiteStore) Get(ctx context.Context, diagnosisID string) (*domain.ExpertReview, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, diagnosis_id, reviewer_id, expert_advice, treatment_plan, created_at, updated_at
		FROM reviews
		WHERE diagnosis_id = ?
	`, diagnosisID)

	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return r, nil
}

// List returns reviews newest first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*domain.ExpertReview, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, diagnosis_id, reviewer_id, expert_advice, treatment_plan, created_at, updated_at
		FROM reviews
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*domain.ExpertReview
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Count returns the total number of reviews.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews").Scan(&count)
	return count, err
}

// ExportJSON writes every review to writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return exportAll(ctx, s.List, writer)
}

// ImportJSON loads reviews from reader.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (int, int, error) {
	return importAll(ctx, s, reader)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

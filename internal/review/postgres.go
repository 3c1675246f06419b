package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/agrihealth-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL. The
// reviews table is created by the migrations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL opens a connection pool from a URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

const pgReviewColumns = `id, diagnosis_id, reviewer_id, expert_advice, treatment_plan, created_at, updated_at`

// Save stores or replaces the review for a diagnosis.
func (s *PostgresStore) Save(ctx context.Context, review *domain.ExpertReview) error {
	now := time.Now().UTC()

	query := `
		INSERT INTO reviews (
			diagnosis_id, reviewer_id, expert_advice, treatment_plan, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (diagnosis_id) DO UPDATE SET
			reviewer_id = EXCLUDED.reviewer_id,
			expert_advice = EXCLUDED.expert_advice,
			treatment_plan = EXCLUDED.treatment_plan,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		review.DiagnosisID,
		review.ReviewerID,
		review.ExpertAdvice,
		review.TreatmentPlan,
		now,
		now,
	).Scan(&review.ID, &review.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}

	review.UpdatedAt = now
	return nil
}

// Get retrieves the review for a diagnosis.
func (s *PostgresStore) Get(ctx context.Context, diagnosisID string) (*domain.ExpertReview, error) {
	query := `SELECT ` + pgReviewColumns + ` FROM reviews WHERE diagnosis_id = $1`

	r, err := scanReview(s.db.QueryRowContext(ctx, query, diagnosisID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return r, nil
}

// List returns reviews newest first.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*domain.ExpertReview, error) {
	query := `SELECT ` + pgReviewColumns + `
		FROM reviews
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
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
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// ExportJSON writes every review to writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return exportAll(ctx, s.List, writer)
}

// ImportJSON loads reviews from reader.
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (int, int, error) {
	return importAll(ctx, s, reader)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

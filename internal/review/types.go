// Package review stores expert advice attached to diagnoses. Experts,
// veterinarians and admins write one review per diagnosis; saving again
// replaces the previous advice.
package review

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/agrihealth-server/internal/domain"
)

// Store defines the interface for review storage operations.
type Store interface {
	// Save stores or replaces the review for review.DiagnosisID.
	Save(ctx context.Context, review *domain.ExpertReview) error

	// Get retrieves the review for a diagnosis, or nil when none exists.
	Get(ctx context.Context, diagnosisID string) (*domain.ExpertReview, error)

	// List returns reviews newest first with pagination.
	List(ctx context.Context, limit, offset int) ([]*domain.ExpertReview, error)

	// Count returns the total number of reviews.
	Count(ctx context.Context) (int64, error)

	// ExportJSON writes every review to writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON loads reviews from reader, skipping diagnoses that
	// already have one.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string                 `json:"version"`
	ExportedAt time.Time              `json:"exported_at"`
	Count      int                    `json:"count"`
	Reviews    []*domain.ExpertReview `json:"reviews"`
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// Open creates the store selected by the review configuration.
// databaseURL is used when the driver is postgres and no dedicated URL is
// configured.
func Open(cfg domain.ReviewConfig, databaseURL string) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLiteStore(cfg.SQLitePath)
	case "postgres":
		url := cfg.PostgresURL
		if url == "" {
			url = databaseURL
		}
		return NewPostgresStoreFromURL(url)
	default:
		return nil, fmt.Errorf("unknown review store driver: %s", cfg.Driver)
	}
}

type saver interface {
	Save(ctx context.Context, review *domain.ExpertReview) error
	Get(ctx context.Context, diagnosisID string) (*domain.ExpertReview, error)
}

func exportAll(ctx context.Context, list func(ctx context.Context, limit, offset int) ([]*domain.ExpertReview, error), writer io.Writer) error {
	all, err := list(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list reviews: %w", err)
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Reviews:    all,
	}
	return encodeExport(writer, export)
}

func importAll(ctx context.Context, s saver, reader io.Reader) (imported int, skipped int, err error) {
	export, err := decodeExport(reader)
	if err != nil {
		return 0, 0, err
	}

	for _, r := range export.Reviews {
		existing, err := s.Get(ctx, r.DiagnosisID)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}
		if existing != nil {
			skipped++
			continue
		}

		if err := s.Save(ctx, r); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/agrihealth-server/internal/domain"
)

// The disease name is resolved through the join so renaming a catalog
// entry never orphans a stored result.
const diagnosisSelect = `
	SELECT d.id, d.user_id, d.type, d.species_name, d.symptoms,
		   d.image_url, d.temperature, d.notes, d.location,
		   d.disease_id, d.confidence, d.status, d.created_at, d.updated_at,
		   dz.name
	FROM diagnoses d
	LEFT JOIN diseases dz ON dz.id = d.disease_id`

// DiagnosisRepository handles diagnosis record persistence
type DiagnosisRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewDiagnosisRepository creates a new diagnosis repository
func NewDiagnosisRepository(db *pgxpool.Pool, logger *logrus.Logger) *DiagnosisRepository {
	return &DiagnosisRepository{
		db:  db,
		log: logger,
	}
}

// Create inserts a new diagnosis record
func (r *DiagnosisRepository) Create(ctx context.Context, record *domain.DiagnosisRecord) error {
	query := `
		INSERT INTO diagnoses (
			id, user_id, type, species_name, symptoms, image_url, temperature,
			notes, location, disease_id, confidence, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.UserID,
		string(record.Type),
		record.SpeciesName,
		nonNil(record.Symptoms),
		record.ImageURL,
		record.Temperature,
		record.Notes,
		record.Location,
		record.DiseaseID,
		record.Confidence,
		string(record.Status),
		record.CreatedAt,
		record.UpdatedAt,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"diagnosis_id": record.ID,
			"user_id":      record.UserID,
			"error":        err,
		}).Error("Failed to create diagnosis")
		return fmt.Errorf("creating diagnosis: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"diagnosis_id": record.ID,
		"type":         record.Type,
		"species":      record.SpeciesName,
	}).Info("Diagnosis created successfully")

	return nil
}

// Update persists the mutable fields of a record owned by record.UserID
func (r *DiagnosisRepository) Update(ctx context.Context, record *domain.DiagnosisRecord) error {
	query := `
		UPDATE diagnoses SET
			symptoms = $3,
			image_url = $4,
			disease_id = $5,
			confidence = $6,
			status = $7,
			updated_at = $8
		WHERE id = $1 AND user_id = $2`

	tag, err := r.db.Exec(ctx, query,
		record.ID,
		record.UserID,
		nonNil(record.Symptoms),
		record.ImageURL,
		record.DiseaseID,
		record.Confidence,
		string(record.Status),
		record.UpdatedAt,
	)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"diagnosis_id": record.ID,
			"status":       record.Status,
			"error":        err,
		}).Error("Failed to update diagnosis")
		return fmt.Errorf("updating diagnosis: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("diagnosis not found: %w", domain.ErrNotFound)
	}

	r.log.WithFields(logrus.Fields{
		"diagnosis_id": record.ID,
		"status":       record.Status,
	}).Debug("Diagnosis updated")

	return nil
}

// GetForUser retrieves a record only if it belongs to userID
func (r *DiagnosisRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.DiagnosisRecord, error) {
	query := diagnosisSelect + ` WHERE d.id = $1 AND d.user_id = $2`
	return r.getOne(ctx, query, id, userID)
}

// GetByID retrieves a record regardless of owner. Used by reviewers.
func (r *DiagnosisRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DiagnosisRecord, error) {
	query := diagnosisSelect + ` WHERE d.id = $1`
	return r.getOne(ctx, query, id)
}

func (r *DiagnosisRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.DiagnosisRecord, error) {
	record, err := scanDiagnosis(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("diagnosis not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"diagnosis_id": args[0],
			"error":        err,
		}).Error("Failed to get diagnosis")
		return nil, fmt.Errorf("getting diagnosis: %w", err)
	}
	return record, nil
}

// ListForUser returns a user's records, newest first
func (r *DiagnosisRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.DiagnosisRecord, error) {
	query := diagnosisSelect + `
		WHERE d.user_id = $1
		ORDER BY d.created_at DESC, d.id DESC`

	return r.queryRecords(ctx, query, userID)
}

// ListByStatus returns records in a given status, oldest first
func (r *DiagnosisRepository) ListByStatus(ctx context.Context, status domain.DiagnosisStatus, limit, offset int) ([]*domain.DiagnosisRecord, error) {
	query := diagnosisSelect + `
		WHERE d.status = $1
		ORDER BY d.created_at ASC, d.id ASC
		LIMIT $2 OFFSET $3`

	return r.queryRecords(ctx, query, string(status), limit, offset)
}

func (r *DiagnosisRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*domain.DiagnosisRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"error": err,
		}).Error("Failed to list diagnoses")
		return nil, fmt.Errorf("listing diagnoses: %w", err)
	}
	defer rows.Close()

	records := []*domain.DiagnosisRecord{}
	for rows.Next() {
		record, err := scanDiagnosis(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning diagnosis row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating diagnosis rows: %w", err)
	}

	return records, nil
}

func scanDiagnosis(row pgx.Row) (*domain.DiagnosisRecord, error) {
	var (
		record             domain.DiagnosisRecord
		diseaseType, state string
	)

	err := row.Scan(
		&record.ID,
		&record.UserID,
		&diseaseType,
		&record.SpeciesName,
		&record.Symptoms,
		&record.ImageURL,
		&record.Temperature,
		&record.Notes,
		&record.Location,
		&record.DiseaseID,
		&record.Confidence,
		&state,
		&record.CreatedAt,
		&record.UpdatedAt,
		&record.DiagnosisResult,
	)
	if err != nil {
		return nil, err
	}

	record.Type = domain.DiseaseType(diseaseType)
	record.Status = domain.DiagnosisStatus(state)
	return &record, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/agrihealth-server/internal/database"
	"github.com/agrihealth-server/internal/domain"
)

const diseaseColumns = `
	id, type, name, species_key, description, causes,
	symptoms, prevention_methods, treatment_methods, image_urls, severity,
	optimal_temperature, temperature_factors,
	ideal_temperature_min, ideal_temperature_max, zoonotic, incubation_period,
	created_at, updated_at`

// DiseaseRepository reads and seeds the disease catalog
type DiseaseRepository struct {
	conn *database.DB
	db   *pgxpool.Pool
	log  *logrus.Logger
}

// NewDiseaseRepository creates a new disease repository
func NewDiseaseRepository(conn *database.DB, logger *logrus.Logger) *DiseaseRepository {
	return &DiseaseRepository{
		conn: conn,
		db:   conn.Pool,
		log:  logger,
	}
}

// rowQuerier is satisfied by both the pool and a transaction
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Create inserts a catalog entry. A zero ID is replaced with a new one.
func (r *DiseaseRepository) Create(ctx context.Context, entry *domain.DiseaseEntry) error {
	return r.insert(ctx, r.db, entry)
}

// CreateBatch inserts entries in a single transaction. When one insert
// fails nothing is kept.
func (r *DiseaseRepository) CreateBatch(ctx context.Context, entries []*domain.DiseaseEntry) error {
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		for _, entry := range entries {
			if err := r.insert(ctx, tx, entry); err != nil {
				return fmt.Errorf("%q: %w", entry.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.WithField("count", len(entries)).Debug("Disease entries created")
	return nil
}

func (r *DiseaseRepository) insert(ctx context.Context, q rowQuerier, entry *domain.DiseaseEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	var minTemp, maxTemp *float64
	if entry.IdealTemperature != nil {
		minTemp, maxTemp = entry.IdealTemperature[0], entry.IdealTemperature[1]
	}

	query := `
		INSERT INTO diseases (
			id, type, name, species_key, description, causes,
			symptoms, prevention_methods, treatment_methods, image_urls, severity,
			optimal_temperature, temperature_factors,
			ideal_temperature_min, ideal_temperature_max, zoonotic, incubation_period
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
		RETURNING created_at, updated_at`

	err := q.QueryRow(ctx, query,
		entry.ID,
		string(entry.Type),
		entry.Name,
		entry.SpeciesKey,
		entry.Description,
		entry.Causes,
		nonNil(entry.Symptoms),
		nonNil(entry.PreventionMethods),
		nonNil(entry.TreatmentMethods),
		nonNil(entry.ImageURLs),
		nullableString(string(entry.Severity)),
		nullableString(entry.OptimalTemperature),
		nullableString(entry.TemperatureFactors),
		minTemp,
		maxTemp,
		entry.Zoonotic,
		nullableString(entry.IncubationPeriod),
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"disease_name": entry.Name,
			"type":         entry.Type,
			"error":        err,
		}).Error("Failed to create disease entry")
		return fmt.Errorf("creating disease entry: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"disease_id":   entry.ID,
		"disease_name": entry.Name,
		"species":      entry.SpeciesKey,
	}).Debug("Disease entry created")

	return nil
}

// ListByType returns every entry of a partition ordered by name
func (r *DiseaseRepository) ListByType(ctx context.Context, diseaseType domain.DiseaseType) ([]*domain.DiseaseEntry, error) {
	query := `SELECT ` + diseaseColumns + `
		FROM diseases
		WHERE type = $1
		ORDER BY name ASC, id ASC`

	return r.queryEntries(ctx, "listing diseases by type", query, string(diseaseType))
}

// ListBySpecies returns the entries whose species key equals speciesKey
// exactly, ordered by name.
func (r *DiseaseRepository) ListBySpecies(ctx context.Context, diseaseType domain.DiseaseType, speciesKey string) ([]*domain.DiseaseEntry, error) {
	query := `SELECT ` + diseaseColumns + `
		FROM diseases
		WHERE type = $1 AND species_key = $2
		ORDER BY name ASC, id ASC`

	return r.queryEntries(ctx, "listing diseases by species", query, string(diseaseType), speciesKey)
}

// GetByID retrieves a catalog entry within a partition
func (r *DiseaseRepository) GetByID(ctx context.Context, diseaseType domain.DiseaseType, id uuid.UUID) (*domain.DiseaseEntry, error) {
	query := `SELECT ` + diseaseColumns + `
		FROM diseases
		WHERE type = $1 AND id = $2`

	entry, err := scanDisease(r.db.QueryRow(ctx, query, string(diseaseType), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("disease not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"disease_id": id,
			"error":      err,
		}).Error("Failed to get disease by ID")
		return nil, fmt.Errorf("getting disease by ID: %w", err)
	}

	return entry, nil
}

// Search matches query as a case-insensitive substring of the name or the
// description. LIKE wildcards in the query are matched literally.
func (r *DiseaseRepository) Search(ctx context.Context, diseaseType domain.DiseaseType, query string) ([]*domain.DiseaseEntry, error) {
	sql := `SELECT ` + diseaseColumns + `
		FROM diseases
		WHERE type = $1 AND (name ILIKE $2 ESCAPE '\' OR description ILIKE $2 ESCAPE '\')
		ORDER BY name ASC, id ASC`

	pattern := "%" + escapeLike(query) + "%"
	return r.queryEntries(ctx, "searching diseases", sql, string(diseaseType), pattern)
}

// Count returns the number of entries in a partition
func (r *DiseaseRepository) Count(ctx context.Context, diseaseType domain.DiseaseType) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM diseases WHERE type = $1", string(diseaseType)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting diseases: %w", err)
	}
	return count, nil
}

func (r *DiseaseRepository) queryEntries(ctx context.Context, op, query string, args ...interface{}) ([]*domain.DiseaseEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"operation": op,
			"error":     err,
		}).Error("Failed to query diseases")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	entries := []*domain.DiseaseEntry{}
	for rows.Next() {
		entry, err := scanDisease(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning disease row: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating disease rows: %w", err)
	}

	return entries, nil
}

func scanDisease(row pgx.Row) (*domain.DiseaseEntry, error) {
	var (
		entry                                     domain.DiseaseEntry
		diseaseType                               string
		severity, optimalTemp, tempFactors, incub *string
		minTemp, maxTemp                          *float64
	)

	err := row.Scan(
		&entry.ID,
		&diseaseType,
		&entry.Name,
		&entry.SpeciesKey,
		&entry.Description,
		&entry.Causes,
		&entry.Symptoms,
		&entry.PreventionMethods,
		&entry.TreatmentMethods,
		&entry.ImageURLs,
		&severity,
		&optimalTemp,
		&tempFactors,
		&minTemp,
		&maxTemp,
		&entry.Zoonotic,
		&incub,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Type = domain.DiseaseType(diseaseType)
	entry.Severity = domain.Severity(deref(severity))
	entry.OptimalTemperature = deref(optimalTemp)
	entry.TemperatureFactors = deref(tempFactors)
	entry.IncubationPeriod = deref(incub)
	if entry.Type == domain.DiseaseTypeLivestock {
		entry.IdealTemperature = &domain.TemperatureRange{minTemp, maxTemp}
	}

	return &entry, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

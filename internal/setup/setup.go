// Package setup seeds the disease catalog.
package setup

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/agrihealth-server/internal/domain"
)

// PartitionResult describes what seeding did to one catalog partition.
type PartitionResult struct {
	Type     domain.DiseaseType
	Existing int64 // entries found before seeding
	Created  int
}

// Skipped reports whether the partition already had entries
func (p PartitionResult) Skipped() bool {
	return p.Existing > 0
}

// SeedReport is the outcome of a seeding run
type SeedReport struct {
	Plant     PartitionResult
	Livestock PartitionResult
}

// Seeder loads the initial catalog into an empty repository.
type Seeder struct {
	diseases domain.DiseaseRepository
	logger   *logrus.Logger
}

// NewSeeder creates a seeder writing to diseases
func NewSeeder(diseases domain.DiseaseRepository, logger *logrus.Logger) *Seeder {
	return &Seeder{diseases: diseases, logger: logger}
}

// Seed fills each partition that has no entries yet. Partitions that
// already hold data are left untouched, so running it on every start is
// safe.
func (s *Seeder) Seed(ctx context.Context) (*SeedReport, error) {
	plant, err := s.seedPartition(ctx, domain.DiseaseTypePlant, PlantDiseases())
	if err != nil {
		return nil, err
	}

	livestock, err := s.seedPartition(ctx, domain.DiseaseTypeLivestock, LivestockDiseases())
	if err != nil {
		return nil, err
	}

	return &SeedReport{Plant: plant, Livestock: livestock}, nil
}

func (s *Seeder) seedPartition(ctx context.Context, diseaseType domain.DiseaseType, entries []*domain.DiseaseEntry) (PartitionResult, error) {
	result := PartitionResult{Type: diseaseType}

	existing, err := s.diseases.Count(ctx, diseaseType)
	if err != nil {
		return result, fmt.Errorf("counting %s diseases: %w", diseaseType, err)
	}
	result.Existing = existing

	if existing > 0 {
		s.logger.WithFields(logrus.Fields{
			"type":     diseaseType,
			"existing": existing,
		}).Info("Catalog partition already populated, skipping seed")
		return result, nil
	}

	// one batch per partition, so a failed run leaves the partition empty
	// and the next run seeds it again
	if err := s.diseases.CreateBatch(ctx, entries); err != nil {
		return result, fmt.Errorf("seeding %s diseases: %w", diseaseType, err)
	}
	result.Created = len(entries)

	s.logger.WithFields(logrus.Fields{
		"type":    diseaseType,
		"created": result.Created,
	}).Info("Catalog partition seeded")

	return result, nil
}

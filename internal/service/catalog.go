package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/agrihealth-server/internal/domain"
)

// minSearchQueryLength is the shortest accepted catalog search query
const minSearchQueryLength = 2

type speciesKey struct {
	diseaseType domain.DiseaseType
	species     string
}

// CatalogService validates catalog requests and caches species lookups.
// The catalog is read-only after seeding, so cached lists only expire by TTL.
type CatalogService struct {
	logger    *logrus.Logger
	diseases  domain.DiseaseRepository
	bySpecies *expirable.LRU[speciesKey, []*domain.DiseaseEntry]
}

// NewCatalogService creates a catalog service. A non-positive cache size
// disables the species cache.
func NewCatalogService(logger *logrus.Logger, diseases domain.DiseaseRepository, cacheSize int, cacheTTL time.Duration) *CatalogService {
	s := &CatalogService{
		logger:   logger,
		diseases: diseases,
	}
	if cacheSize > 0 {
		s.bySpecies = expirable.NewLRU[speciesKey, []*domain.DiseaseEntry](cacheSize, nil, cacheTTL)
	}
	return s
}

// ListByType returns every entry of a partition ordered by name
func (s *CatalogService) ListByType(ctx context.Context, rawType string) ([]*domain.DiseaseEntry, error) {
	t, err := domain.ParseDiseaseType(rawType)
	if err != nil {
		return nil, err
	}
	return s.diseases.ListByType(ctx, t)
}

// ListBySpecies returns the entries whose species key equals species exactly
func (s *CatalogService) ListBySpecies(ctx context.Context, rawType, species string) ([]*domain.DiseaseEntry, error) {
	t, err := domain.ParseDiseaseType(rawType)
	if err != nil {
		return nil, err
	}
	if species == "" {
		return nil, domain.NewValidationError("species", "Species parameter is required", species)
	}
	return s.candidates(ctx, t, species)
}

// candidates is the cached species lookup shared with the diagnosis workflow
func (s *CatalogService) candidates(ctx context.Context, t domain.DiseaseType, species string) ([]*domain.DiseaseEntry, error) {
	key := speciesKey{diseaseType: t, species: species}
	if s.bySpecies != nil {
		if entries, ok := s.bySpecies.Get(key); ok {
			return entries, nil
		}
	}

	entries, err := s.diseases.ListBySpecies(ctx, t, species)
	if err != nil {
		return nil, err
	}

	if s.bySpecies != nil {
		s.bySpecies.Add(key, entries)
	}
	return entries, nil
}

// GetByID returns one entry. Ids that don't parse are reported as not found.
func (s *CatalogService) GetByID(ctx context.Context, rawType, rawID string) (*domain.DiseaseEntry, error) {
	t, err := domain.ParseDiseaseType(rawType)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("disease %q: %w", rawID, domain.ErrNotFound)
	}
	return s.diseases.GetByID(ctx, t, id)
}

// Search matches query against names and descriptions in the selected
// partitions. The query length is checked before the type.
func (s *CatalogService) Search(ctx context.Context, rawType, query string) (*domain.SearchResult, error) {
	if len([]rune(query)) < minSearchQueryLength {
		return nil, domain.ErrInvalidQuery
	}
	scope, err := domain.ParseSearchScope(rawType)
	if err != nil {
		return nil, err
	}

	result := &domain.SearchResult{
		PlantMatches:     []*domain.DiseaseEntry{},
		LivestockMatches: []*domain.DiseaseEntry{},
	}

	if scope.Includes(domain.DiseaseTypePlant) {
		matches, err := s.diseases.Search(ctx, domain.DiseaseTypePlant, query)
		if err != nil {
			return nil, err
		}
		if matches != nil {
			result.PlantMatches = matches
		}
	}
	if scope.Includes(domain.DiseaseTypeLivestock) {
		matches, err := s.diseases.Search(ctx, domain.DiseaseTypeLivestock, query)
		if err != nil {
			return nil, err
		}
		if matches != nil {
			result.LivestockMatches = matches
		}
	}

	s.logger.WithFields(logrus.Fields{
		"scope":   scope,
		"query":   query,
		"results": result.Total(),
	}).Debug("Catalog search completed")

	return result, nil
}

// DistinctSymptoms returns every non-empty symptom of a partition once,
// sorted by byte order.
func (s *CatalogService) DistinctSymptoms(ctx context.Context, rawType string) ([]string, error) {
	t, err := domain.ParseDiseaseType(rawType)
	if err != nil {
		return nil, err
	}
	entries, err := s.diseases.ListByType(ctx, t)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	symptoms := []string{}
	for _, e := range entries {
		for _, symptom := range e.Symptoms {
			if symptom == "" {
				continue
			}
			if _, dup := seen[symptom]; dup {
				continue
			}
			seen[symptom] = struct{}{}
			symptoms = append(symptoms, symptom)
		}
	}
	sort.Strings(symptoms)
	return symptoms, nil
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrihealth-server/internal/domain"
)

func TestCatalogService_ListByType(t *testing.T) {
	svc := NewCatalogService(testLogger(), testCatalog(), 16, time.Minute)
	ctx := context.Background()

	entries, err := svc.ListByType(ctx, "plant")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Early Blight", entries[0].Name)
	assert.Equal(t, "Powdery Mildew", entries[2].Name)

	_, err = svc.ListByType(ctx, "fungus")
	assert.True(t, errors.Is(err, domain.ErrInvalidType))
}

func TestCatalogService_ListBySpecies(t *testing.T) {
	repo := testCatalog()
	svc := NewCatalogService(testLogger(), repo, 16, time.Minute)
	ctx := context.Background()

	entries, err := svc.ListBySpecies(ctx, "plant", "tomato")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// second lookup is served from the cache
	_, err = svc.ListBySpecies(ctx, "plant", "tomato")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Calls)

	entries, err = svc.ListBySpecies(ctx, "plant", "Tomato")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.ListBySpecies(ctx, "plant", "")
	var vErr *domain.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = svc.ListBySpecies(ctx, "bird", "tomato")
	assert.True(t, errors.Is(err, domain.ErrInvalidType))
}

func TestCatalogService_ListBySpecies_NoCache(t *testing.T) {
	repo := testCatalog()
	svc := NewCatalogService(testLogger(), repo, 0, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := svc.ListBySpecies(context.Background(), "livestock", "cattle")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, repo.Calls)
}

func TestCatalogService_GetByID(t *testing.T) {
	repo := testCatalog()
	svc := NewCatalogService(testLogger(), repo, 16, time.Minute)
	ctx := context.Background()

	plants, err := repo.ListByType(ctx, domain.DiseaseTypePlant)
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, "plant", plants[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, plants[0].Name, got.Name)

	_, err = svc.GetByID(ctx, "livestock", plants[0].ID.String())
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.GetByID(ctx, "plant", "not-a-uuid")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.GetByID(ctx, "plant", uuid.NewString())
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.GetByID(ctx, "trees", plants[0].ID.String())
	assert.True(t, errors.Is(err, domain.ErrInvalidType))
}

func TestCatalogService_Search(t *testing.T) {
	svc := NewCatalogService(testLogger(), testCatalog(), 16, time.Minute)
	ctx := context.Background()

	tests := []struct {
		name          string
		scope         string
		query         string
		wantErr       error
		wantPlant     int
		wantLivestock int
	}{
		{name: "plant scope", scope: "plant", query: "blight", wantPlant: 2},
		{name: "case-insensitive description", scope: "plant", query: "TOMATOES", wantPlant: 1},
		{name: "all scopes", scope: "all", query: "as", wantPlant: 2, wantLivestock: 2},
		{name: "livestock only", scope: "livestock", query: "mastitis", wantLivestock: 1},
		{name: "short query", scope: "plant", query: "b", wantErr: domain.ErrInvalidQuery},
		{name: "short query wins over bad type", scope: "bogus", query: "b", wantErr: domain.ErrInvalidQuery},
		{name: "bad type", scope: "bogus", query: "blight", wantErr: domain.ErrInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Search(ctx, tt.scope, tt.query)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, result.PlantMatches, tt.wantPlant)
			assert.Len(t, result.LivestockMatches, tt.wantLivestock)
			assert.Equal(t, tt.wantPlant+tt.wantLivestock, result.Total())
		})
	}
}

func TestCatalogService_DistinctSymptoms(t *testing.T) {
	svc := NewCatalogService(testLogger(), testCatalog(), 16, time.Minute)

	symptoms, err := svc.DistinctSymptoms(context.Background(), "plant")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Dark brown spots on leaves",
		"Rapid wilting",
		"White fungal growth on undersides of leaves",
		"White powdery spots on leaves",
		"Yellowing lower leaves",
	}, symptoms)

	_, err = svc.DistinctSymptoms(context.Background(), "all")
	assert.True(t, errors.Is(err, domain.ErrInvalidType))
}

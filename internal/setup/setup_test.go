package setup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrihealth-server/internal/domain"
	"github.com/agrihealth-server/internal/testutil"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type failingRepository struct {
	*testutil.DiseaseRepository
	countErr error
	failOn   string // entry name whose insert fails
}

func (r *failingRepository) Count(ctx context.Context, t domain.DiseaseType) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.DiseaseRepository.Count(ctx, t)
}

// CreateBatch fails the whole batch when it contains failOn, like a rolled
// back transaction.
func (r *failingRepository) CreateBatch(ctx context.Context, entries []*domain.DiseaseEntry) error {
	for _, e := range entries {
		if e.Name == r.failOn {
			return fmt.Errorf("%q: %w", e.Name, errInsert)
		}
	}
	return r.DiseaseRepository.CreateBatch(ctx, entries)
}

var errInsert = errors.New("connection refused")

func TestCatalogData(t *testing.T) {
	plant := PlantDiseases()
	livestock := LivestockDiseases()
	require.Len(t, plant, 5)
	require.Len(t, livestock, 5)

	for _, e := range plant {
		assert.Equal(t, domain.DiseaseTypePlant, e.Type, e.Name)
		assert.NotEmpty(t, e.Symptoms, e.Name)
		assert.NotEmpty(t, e.OptimalTemperature, e.Name)
		assert.Nil(t, e.IdealTemperature, e.Name)
	}
	for _, e := range livestock {
		assert.Equal(t, domain.DiseaseTypeLivestock, e.Type, e.Name)
		assert.NotEmpty(t, e.Symptoms, e.Name)
		require.NotNil(t, e.IdealTemperature, e.Name)
		require.NotNil(t, e.Zoonotic, e.Name)
		assert.LessOrEqual(t, *e.IdealTemperature[0], *e.IdealTemperature[1], e.Name)
	}

	// each call hands out fresh entries
	PlantDiseases()[0].Name = "changed"
	assert.Equal(t, "Late Blight", PlantDiseases()[0].Name)
}

func TestSeeder_SeedsEmptyCatalog(t *testing.T) {
	repo := testutil.NewDiseaseRepository()
	seeder := NewSeeder(repo, quietLogger())
	ctx := context.Background()

	report, err := seeder.Seed(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Plant.Created)
	assert.Equal(t, 5, report.Livestock.Created)
	assert.False(t, report.Plant.Skipped())

	entries, err := repo.ListBySpecies(ctx, domain.DiseaseTypeLivestock, "dairy cow")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Mastitis", entries[0].Name)
}

func TestSeeder_IsIdempotent(t *testing.T) {
	repo := testutil.NewDiseaseRepository()
	seeder := NewSeeder(repo, quietLogger())
	ctx := context.Background()

	_, err := seeder.Seed(ctx)
	require.NoError(t, err)

	report, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, report.Plant.Skipped())
	assert.True(t, report.Livestock.Skipped())
	assert.Equal(t, int64(5), report.Plant.Existing)
	assert.Zero(t, report.Livestock.Created)

	n, err := repo.Count(ctx, domain.DiseaseTypePlant)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestSeeder_SkipsPopulatedPartitionOnly(t *testing.T) {
	repo := testutil.NewDiseaseRepository(&domain.DiseaseEntry{
		Type:       domain.DiseaseTypePlant,
		Name:       "Leaf Curl",
		SpeciesKey: "peach",
	})

	report, err := NewSeeder(repo, quietLogger()).Seed(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Plant.Skipped())
	assert.Zero(t, report.Plant.Created)
	assert.Equal(t, 5, report.Livestock.Created)
}

func TestSeeder_Errors(t *testing.T) {
	tests := []struct {
		name string
		repo *failingRepository
		want string
	}{
		{
			name: "count fails",
			repo: &failingRepository{DiseaseRepository: testutil.NewDiseaseRepository(), countErr: errInsert},
			want: "counting plant diseases",
		},
		{
			name: "insert fails",
			repo: &failingRepository{DiseaseRepository: testutil.NewDiseaseRepository(), failOn: "Late Blight"},
			want: `seeding plant diseases: "Late Blight"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := NewSeeder(tt.repo, quietLogger()).Seed(context.Background())
			require.Error(t, err)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, errInsert)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSeeder_RetriesAfterFailedRun(t *testing.T) {
	ctx := context.Background()
	plant := PlantDiseases()
	repo := &failingRepository{DiseaseRepository: testutil.NewDiseaseRepository(), failOn: plant[2].Name}

	_, err := NewSeeder(repo, quietLogger()).Seed(ctx)
	require.Error(t, err)

	n, err := repo.Count(ctx, domain.DiseaseTypePlant)
	require.NoError(t, err)
	assert.Zero(t, n, "a failed partition keeps no entries")

	repo.failOn = ""
	report, err := NewSeeder(repo, quietLogger()).Seed(ctx)
	require.NoError(t, err)
	assert.False(t, report.Plant.Skipped())
	assert.Equal(t, len(plant), report.Plant.Created)

	n, err = repo.Count(ctx, domain.DiseaseTypePlant)
	require.NoError(t, err)
	assert.Equal(t, int64(len(plant)), n)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, &SeedReport{
		Plant:     PartitionResult{Type: domain.DiseaseTypePlant, Existing: 7},
		Livestock: PartitionResult{Type: domain.DiseaseTypeLivestock, Created: 5},
	})

	out := buf.String()
	assert.Contains(t, out, "plant diseases:\n  Status: ✓ Already populated (7 entries)")
	assert.Contains(t, out, "livestock diseases:\n  Status: ✓ Seeded 5 entries")
}

package service

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agrihealth-server/internal/domain"
	"github.com/agrihealth-server/internal/testutil"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func plantEntry(name, species, description string, symptoms ...string) *domain.DiseaseEntry {
	return &domain.DiseaseEntry{
		Type:        domain.DiseaseTypePlant,
		Name:        name,
		SpeciesKey:  species,
		Description: description,
		Symptoms:    symptoms,
	}
}

func livestockEntry(name, species string, symptoms ...string) *domain.DiseaseEntry {
	return &domain.DiseaseEntry{
		Type:       domain.DiseaseTypeLivestock,
		Name:       name,
		SpeciesKey: species,
		Symptoms:   symptoms,
	}
}

func testCatalog() *testutil.DiseaseRepository {
	return testutil.NewDiseaseRepository(
		plantEntry("Late Blight", "tomato", "A devastating disease affecting tomatoes",
			"Dark brown spots on leaves", "White fungal growth on undersides of leaves", "Rapid wilting"),
		plantEntry("Early Blight", "tomato", "Fungal disease with concentric rings",
			"Dark brown spots on leaves", "Yellowing lower leaves"),
		plantEntry("Powdery Mildew", "cucumber", "White powder on leaf surfaces",
			"White powdery spots on leaves"),
		livestockEntry("Foot and Mouth Disease", "cattle", "Fever", "Blisters in mouth", "Lameness"),
		livestockEntry("Mastitis", "cattle", "Swollen udder", "Fever"),
	)
}

func testDiagnosisConfig() domain.DiagnosisConfig {
	return domain.DiagnosisConfig{
		MinSymptomOverlap:  1,
		MatchOnSubmit:      true,
		SymptomConfidence:  domain.Range{Min: 0.6, Max: 1.0},
		ImageConfidence:    domain.Range{Min: 0.7, Max: 1.0},
		ReviewQueuePageMax: 50,
	}
}

type diagnosisFixture struct {
	service   *DiagnosisService
	diseases  *testutil.DiseaseRepository
	diagnoses *testutil.DiagnosisRepository
	images    *testutil.ImageStore
	reviews   *testutil.ReviewStore
	observer  *recordingObserver
}

func newDiagnosisFixture(cfg domain.DiagnosisConfig) *diagnosisFixture {
	f := &diagnosisFixture{
		diseases:  testCatalog(),
		diagnoses: testutil.NewDiagnosisRepository(),
		images:    testutil.NewImageStore(),
		reviews:   testutil.NewReviewStore(),
		observer:  &recordingObserver{},
	}
	logger := testLogger()
	catalog := NewCatalogService(logger, f.diseases, 16, time.Minute)
	f.service = NewDiagnosisService(logger, cfg, DiagnosisDeps{
		Catalog:   catalog,
		Diseases:  f.diseases,
		Diagnoses: f.diagnoses,
		Images:    f.images,
		Backend:   NewRandomPlaceholderBackend(7),
		Scorer:    NewSymptomScorer(cfg.MinSymptomOverlap, cfg.SymptomConfidence, 11),
		Reviews:   f.reviews,
		Observer:  f.observer,
		Seed:      13,
	})
	return f
}

type recordingObserver struct {
	submitted int
	resolved  []domain.DiagnosisStatus
}

func (o *recordingObserver) DiagnosisSubmitted(domain.DiseaseType, bool) { o.submitted++ }

func (o *recordingObserver) DiagnosisResolved(_ domain.DiseaseType, status domain.DiagnosisStatus) {
	o.resolved = append(o.resolved, status)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agrihealth-server/internal/domain"
)

// ReviewStore is the part of the review store the workflow needs
type ReviewStore interface {
	Save(ctx context.Context, review *domain.ExpertReview) error
	Get(ctx context.Context, diagnosisID string) (*domain.ExpertReview, error)
}

// DiagnosisObserver receives workflow events, typically for metrics
type DiagnosisObserver interface {
	DiagnosisSubmitted(diseaseType domain.DiseaseType, withImage bool)
	DiagnosisResolved(diseaseType domain.DiseaseType, status domain.DiagnosisStatus)
}

type noopObserver struct{}

func (noopObserver) DiagnosisSubmitted(domain.DiseaseType, bool) {}

func (noopObserver) DiagnosisResolved(domain.DiseaseType, domain.DiagnosisStatus) {}

// ImageUpload is an uploaded photo attached to a submission
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// SubmitRequest carries the fields of a new diagnosis
type SubmitRequest struct {
	UserID      uuid.UUID
	Type        string
	SpeciesName string
	Symptoms    []string
	Image       *ImageUpload
	Temperature *float64
	Notes       *string
	Location    *string
}

// DiagnosisService drives diagnosis records through
// pending -> completed | expert_review.
type DiagnosisService struct {
	logger    *logrus.Logger
	cfg       domain.DiagnosisConfig
	catalog   *CatalogService
	diseases  domain.DiseaseRepository
	diagnoses domain.DiagnosisRepository
	images    domain.ImageStore
	backend   domain.ScorerBackend
	scorer    *SymptomScorer
	imageConf *confidenceSource
	reviews   ReviewStore
	observer  DiagnosisObserver
}

// DiagnosisDeps groups the collaborators of DiagnosisService
type DiagnosisDeps struct {
	Catalog   *CatalogService
	Diseases  domain.DiseaseRepository
	Diagnoses domain.DiagnosisRepository
	Images    domain.ImageStore
	Backend   domain.ScorerBackend
	Scorer    *SymptomScorer
	Reviews   ReviewStore
	Observer  DiagnosisObserver
	Seed      uint64
}

// NewDiagnosisService creates the workflow controller
func NewDiagnosisService(logger *logrus.Logger, cfg domain.DiagnosisConfig, deps DiagnosisDeps) *DiagnosisService {
	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	return &DiagnosisService{
		logger:    logger,
		cfg:       cfg,
		catalog:   deps.Catalog,
		diseases:  deps.Diseases,
		diagnoses: deps.Diagnoses,
		images:    deps.Images,
		backend:   deps.Backend,
		scorer:    deps.Scorer,
		imageConf: newConfidenceSource(deps.Seed),
		reviews:   deps.Reviews,
		observer:  observer,
	}
}

// Submit validates and stores a new diagnosis. An attached image is stored
// first and handed to the scorer backend; without an image the symptom
// scorer resolves the record when match-on-submit is enabled.
func (s *DiagnosisService) Submit(ctx context.Context, req *SubmitRequest) (*domain.DiagnosisRecord, error) {
	symptoms := cleanSymptoms(req.Symptoms)
	if req.Type == "" || req.SpeciesName == "" || len(symptoms) == 0 {
		return nil, domain.NewValidationError("symptoms", "Missing required fields: type, speciesName, symptoms", nil)
	}
	diseaseType, err := domain.ParseDiseaseType(req.Type)
	if err != nil {
		return nil, domain.NewValidationError("type", `Invalid diagnosis type. Must be "plant" or "livestock"`, req.Type)
	}

	var imageURL *string
	if req.Image != nil {
		url, err := s.images.Save(ctx, req.Image.Filename, req.Image.ContentType, req.Image.Size, req.Image.Content)
		if err != nil {
			return nil, s.uploadError(req, err)
		}
		imageURL = &url
	}

	record := domain.NewDiagnosisRecord(req.UserID, diseaseType, req.SpeciesName, symptoms)
	record.ImageURL = imageURL
	record.Temperature = req.Temperature
	record.Notes = req.Notes
	record.Location = req.Location

	if err := s.diagnoses.Create(ctx, record); err != nil {
		if imageURL != nil {
			if delErr := s.images.Delete(ctx, *imageURL); delErr != nil {
				s.logger.WithError(delErr).WithField("image_url", *imageURL).Warn("Failed to remove orphaned image")
			}
		}
		return nil, fmt.Errorf("failed to store diagnosis: %w", err)
	}
	s.observer.DiagnosisSubmitted(diseaseType, imageURL != nil)

	switch {
	case imageURL != nil:
		// the record is already stored, so a failed identification leaves
		// it pending instead of failing the request
		if err := s.identifyFromImage(ctx, record); err != nil {
			s.logger.WithError(err).WithField("diagnosis_id", record.ID).Warn("Image identification failed, diagnosis left pending")
		}
	case s.cfg.MatchOnSubmit:
		if err := s.resolve(ctx, record); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"diagnosis_id": record.ID,
		"user_id":      record.UserID,
		"type":         record.Type,
		"species":      record.SpeciesName,
		"status":       record.Status,
	}).Info("Diagnosis submitted")

	return record, nil
}

// uploadError keeps client rejections (wrong content type, too large) as
// they are and reports every other storage failure as upstream.
func (s *DiagnosisService) uploadError(req *SubmitRequest, err error) error {
	fields := logrus.Fields{
		"user_id":      req.UserID,
		"content_type": req.Image.ContentType,
		"size":         req.Image.Size,
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) || errors.Is(err, domain.ErrTooLarge) {
		s.logger.WithFields(fields).WithError(err).Info("Image upload rejected")
		return err
	}

	s.logger.WithFields(fields).WithError(err).Error("Image upload failed")
	if errors.Is(err, domain.ErrUpstream) {
		return err
	}
	return fmt.Errorf("image upload: %w: %w", domain.ErrUpstream, err)
}

// identifyFromImage lets the scorer backend pick among the species'
// entries. Without a pick the record stays pending.
func (s *DiagnosisService) identifyFromImage(ctx context.Context, record *domain.DiagnosisRecord) error {
	candidates, err := s.catalog.candidates(ctx, record.Type, record.SpeciesName)
	if err != nil {
		return fmt.Errorf("failed to load candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	pick, err := s.backend.Identify(ctx, *record.ImageURL, candidates)
	if err != nil {
		return fmt.Errorf("image identification failed: %w", err)
	}
	if pick == nil {
		return nil
	}

	record.Complete(pick, s.imageConf.draw(s.cfg.ImageConfidence))
	if err := s.diagnoses.Update(ctx, record); err != nil {
		return fmt.Errorf("failed to store diagnosis result: %w", err)
	}
	s.observer.DiagnosisResolved(record.Type, record.Status)
	return nil
}

// resolve scores the record's symptoms and persists completed or
// expert_review.
func (s *DiagnosisService) resolve(ctx context.Context, record *domain.DiagnosisRecord) error {
	candidates, err := s.catalog.candidates(ctx, record.Type, record.SpeciesName)
	if err != nil {
		return fmt.Errorf("failed to load candidates: %w", err)
	}

	match, err := s.scorer.Score(record.Symptoms, candidates)
	switch {
	case err == nil:
		record.Complete(match.Disease, match.Confidence)
	case errors.Is(err, domain.ErrNoMatch):
		record.SendToExpertReview()
	default:
		return err
	}

	if err := s.diagnoses.Update(ctx, record); err != nil {
		return fmt.Errorf("failed to store diagnosis result: %w", err)
	}
	s.observer.DiagnosisResolved(record.Type, record.Status)

	entry := s.logger.WithFields(logrus.Fields{
		"diagnosis_id": record.ID,
		"status":       record.Status,
		"candidates":   len(candidates),
	})
	if match != nil {
		entry = entry.WithField("match_count", match.MatchCount)
	}
	entry.Debug("Diagnosis resolved")
	return nil
}

// UpdateSymptoms replaces the symptoms of an owned record, resets it to
// pending and resolves it again.
func (s *DiagnosisService) UpdateSymptoms(ctx context.Context, rawID string, userID uuid.UUID, symptoms []string) (*domain.DiagnosisDetail, error) {
	symptoms = cleanSymptoms(symptoms)
	if len(symptoms) == 0 {
		return nil, domain.NewValidationError("symptoms", "Symptoms array is required", nil)
	}

	record, err := s.owned(ctx, rawID, userID)
	if err != nil {
		return nil, err
	}

	record.ResetForReevaluation(symptoms)
	if err := s.diagnoses.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to reset diagnosis: %w", err)
	}

	if err := s.resolve(ctx, record); err != nil {
		return nil, err
	}

	return s.detail(ctx, record, false)
}

// Get returns an owned record with its disease details and expert review
func (s *DiagnosisService) Get(ctx context.Context, rawID string, userID uuid.UUID) (*domain.DiagnosisDetail, error) {
	record, err := s.owned(ctx, rawID, userID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, record, true)
}

// ListForUser returns the user's records, newest first
func (s *DiagnosisService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.DiagnosisRecord, error) {
	return s.diagnoses.ListForUser(ctx, userID)
}

// ReviewQueue returns records waiting for an expert, oldest first
func (s *DiagnosisService) ReviewQueue(ctx context.Context, limit, offset int) ([]*domain.DiagnosisRecord, error) {
	if limit <= 0 || limit > s.cfg.ReviewQueuePageMax {
		limit = s.cfg.ReviewQueuePageMax
	}
	if offset < 0 {
		offset = 0
	}
	return s.diagnoses.ListByStatus(ctx, domain.StatusExpertReview, limit, offset)
}

// SubmitReview attaches expert advice to any diagnosis. The diagnosis
// status is left unchanged.
func (s *DiagnosisService) SubmitReview(ctx context.Context, rawID string, reviewerID uuid.UUID, advice, plan string) (*domain.ExpertReview, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("diagnosis %q: %w", rawID, domain.ErrNotFound)
	}
	if strings.TrimSpace(advice) == "" {
		return nil, domain.NewValidationError("expertAdvice", "Expert advice is required", nil)
	}
	if _, err := s.diagnoses.GetByID(ctx, id); err != nil {
		return nil, err
	}

	review := &domain.ExpertReview{
		DiagnosisID:   id.String(),
		ReviewerID:    reviewerID.String(),
		ExpertAdvice:  advice,
		TreatmentPlan: plan,
	}
	if err := s.reviews.Save(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"diagnosis_id": review.DiagnosisID,
		"reviewer_id":  review.ReviewerID,
	}).Info("Expert review saved")

	return review, nil
}

func (s *DiagnosisService) owned(ctx context.Context, rawID string, userID uuid.UUID) (*domain.DiagnosisRecord, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("diagnosis %q: %w", rawID, domain.ErrNotFound)
	}
	return s.diagnoses.GetForUser(ctx, id, userID)
}

func (s *DiagnosisService) detail(ctx context.Context, record *domain.DiagnosisRecord, withReview bool) (*domain.DiagnosisDetail, error) {
	detail := &domain.DiagnosisDetail{Diagnosis: record}

	if record.DiseaseID != nil {
		disease, err := s.diseases.GetByID(ctx, record.Type, *record.DiseaseID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		detail.DiseaseDetails = disease
	}

	if withReview && s.reviews != nil {
		review, err := s.reviews.Get(ctx, record.ID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to load review: %w", err)
		}
		detail.Review = review
	}

	return detail, nil
}

// cleanSymptoms drops blank entries, keeping order
func cleanSymptoms(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

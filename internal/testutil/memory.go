// Package testutil provides in-memory implementations of the repository
// interfaces for service and API tests that don't need Postgres.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrihealth-server/internal/domain"
)

// DiseaseRepository is an in-memory domain.DiseaseRepository
type DiseaseRepository struct {
	mu      sync.RWMutex
	entries []*domain.DiseaseEntry

	// Calls counts ListBySpecies invocations, for cache assertions.
	Calls int
}

// NewDiseaseRepository returns a repository preloaded with entries
func NewDiseaseRepository(entries ...*domain.DiseaseEntry) *DiseaseRepository {
	r := &DiseaseRepository{}
	for _, e := range entries {
		_ = r.Create(context.Background(), e)
	}
	return r
}

func (r *DiseaseRepository) Create(_ context.Context, entry *domain.DiseaseEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now().UTC()
	entry.CreatedAt, entry.UpdatedAt = now, now
	r.entries = append(r.entries, entry)
	return nil
}

// CreateBatch adds every entry under one lock
func (r *DiseaseRepository) CreateBatch(_ context.Context, entries []*domain.DiseaseEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, entry := range entries {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		entry.CreatedAt, entry.UpdatedAt = now, now
	}
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *DiseaseRepository) filter(keep func(*domain.DiseaseEntry) bool) []*domain.DiseaseEntry {
	var out []*domain.DiseaseEntry
	for _, e := range r.entries {
		if keep(e) {
			copied := *e
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *DiseaseRepository) ListByType(_ context.Context, t domain.DiseaseType) ([]*domain.DiseaseEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(e *domain.DiseaseEntry) bool { return e.Type == t }), nil
}

func (r *DiseaseRepository) ListBySpecies(_ context.Context, t domain.DiseaseType, species string) ([]*domain.DiseaseEntry, error) {
	r.mu.Lock()
	r.Calls++
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(e *domain.DiseaseEntry) bool { return e.Type == t && e.SpeciesKey == species }), nil
}

func (r *DiseaseRepository) GetByID(_ context.Context, t domain.DiseaseType, id uuid.UUID) (*domain.DiseaseEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Type == t && e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("disease %s: %w", id, domain.ErrNotFound)
}

func (r *DiseaseRepository) Search(_ context.Context, t domain.DiseaseType, query string) ([]*domain.DiseaseEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(query)
	return r.filter(func(e *domain.DiseaseEntry) bool {
		return e.Type == t && (strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Description), q))
	}), nil
}

func (r *DiseaseRepository) Count(_ context.Context, t domain.DiseaseType) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, e := range r.entries {
		if e.Type == t {
			n++
		}
	}
	return n, nil
}

// DiagnosisRepository is an in-memory domain.DiagnosisRepository
type DiagnosisRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.DiagnosisRecord
	order   []uuid.UUID

	// Updates records every status written, in order.
	Updates []domain.DiagnosisStatus
}

// NewDiagnosisRepository returns an empty repository
func NewDiagnosisRepository() *DiagnosisRepository {
	return &DiagnosisRepository{records: make(map[uuid.UUID]domain.DiagnosisRecord)}
}

func cloneRecord(r domain.DiagnosisRecord) *domain.DiagnosisRecord {
	r.Symptoms = append([]string(nil), r.Symptoms...)
	return &r
}

func (r *DiagnosisRepository) Create(_ context.Context, record *domain.DiagnosisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.ID]; exists {
		return fmt.Errorf("diagnosis %s: %w", record.ID, domain.ErrConflict)
	}
	r.records[record.ID] = *cloneRecord(*record)
	r.order = append(r.order, record.ID)
	return nil
}

func (r *DiagnosisRepository) Update(_ context.Context, record *domain.DiagnosisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[record.ID]
	if !ok || existing.UserID != record.UserID {
		return fmt.Errorf("diagnosis %s: %w", record.ID, domain.ErrNotFound)
	}
	r.records[record.ID] = *cloneRecord(*record)
	r.Updates = append(r.Updates, record.Status)
	return nil
}

func (r *DiagnosisRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.DiagnosisRecord, error) {
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, fmt.Errorf("diagnosis %s: %w", id, domain.ErrNotFound)
	}
	return rec, nil
}

func (r *DiagnosisRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.DiagnosisRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("diagnosis %s: %w", id, domain.ErrNotFound)
	}
	return cloneRecord(rec), nil
}

func (r *DiagnosisRepository) ListForUser(_ context.Context, userID uuid.UUID) ([]*domain.DiagnosisRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.DiagnosisRecord{}
	for i := len(r.order) - 1; i >= 0; i-- {
		rec := r.records[r.order[i]]
		if rec.UserID == userID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *DiagnosisRepository) ListByStatus(_ context.Context, status domain.DiagnosisStatus, limit, offset int) ([]*domain.DiagnosisRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*domain.DiagnosisRecord
	for _, id := range r.order {
		if rec := r.records[id]; rec.Status == status {
			all = append(all, cloneRecord(rec))
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if offset >= len(all) {
		return []*domain.DiagnosisRecord{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// UserRepository is an in-memory domain.UserRepository
type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

// NewUserRepository returns an empty repository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, domain.ErrConflict)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

// ImageStore records uploads in memory. Setting Err makes Save fail.
type ImageStore struct {
	mu      sync.Mutex
	Files   map[string][]byte
	Err     error
	Deleted []string
}

// NewImageStore returns an empty image store
func NewImageStore() *ImageStore {
	return &ImageStore{Files: make(map[string][]byte)}
}

func (s *ImageStore) Save(_ context.Context, filename, _ string, _ int64, r io.Reader) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Files[filename] = buf.Bytes()
	return "/uploads/" + filename, nil
}

func (s *ImageStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Files, strings.TrimPrefix(url, "/uploads/"))
	s.Deleted = append(s.Deleted, url)
	return nil
}

// ReviewStore is an in-memory review store keyed by diagnosis id
type ReviewStore struct {
	mu      sync.Mutex
	reviews map[string]domain.ExpertReview
	nextID  int64
}

// NewReviewStore returns an empty review store
func NewReviewStore() *ReviewStore {
	return &ReviewStore{reviews: make(map[string]domain.ExpertReview)}
}

func (s *ReviewStore) Save(_ context.Context, review *domain.ExpertReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := s.reviews[review.DiagnosisID]; ok {
		review.ID = existing.ID
		review.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		review.ID = s.nextID
		review.CreatedAt = now
	}
	review.UpdatedAt = now
	s.reviews[review.DiagnosisID] = *review
	return nil
}

func (s *ReviewStore) Get(_ context.Context, diagnosisID string) (*domain.ExpertReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[diagnosisID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

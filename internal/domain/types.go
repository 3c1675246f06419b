package domain

import (
	"errors"
	"fmt"
)

// DiseaseType partitions the catalog into plant and livestock diseases
type DiseaseType string

const (
	DiseaseTypePlant     DiseaseType = "plant"
	DiseaseTypeLivestock DiseaseType = "livestock"
)

// SearchScope selects which catalog partitions a search covers
type SearchScope string

const (
	SearchScopePlant     SearchScope = "plant"
	SearchScopeLivestock SearchScope = "livestock"
	SearchScopeAll       SearchScope = "all"
)

// DiagnosisStatus is the workflow state of a diagnosis record
type DiagnosisStatus string

const (
	StatusPending      DiagnosisStatus = "pending"
	StatusCompleted    DiagnosisStatus = "completed"
	StatusExpertReview DiagnosisStatus = "expert_review"
)

// Severity of a catalog disease
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Role determines what an authenticated user is allowed to do
type Role string

const (
	RoleFarmer       Role = "farmer"
	RoleVeterinarian Role = "veterinarian"
	RoleExpert       Role = "expert"
	RoleAdmin        Role = "admin"
)

// Sentinel errors shared by every layer. Callers wrap them with context
// and the API layer maps them to status codes with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidType     = errors.New("invalid disease type")
	ErrInvalidQuery    = errors.New("search query must be at least 2 characters long")
	ErrNoMatch         = errors.New("no matching disease")
	ErrConflict        = errors.New("already exists")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
	ErrUpstream        = errors.New("upstream service failure")
	ErrTooLarge        = errors.New("file too large")
)

// IsValid reports whether t names one of the two catalog partitions
func (t DiseaseType) IsValid() bool {
	switch t {
	case DiseaseTypePlant, DiseaseTypeLivestock:
		return true
	default:
		return false
	}
}

// ParseDiseaseType converts raw input into a DiseaseType.
func ParseDiseaseType(raw string) (DiseaseType, error) {
	t := DiseaseType(raw)
	if !t.IsValid() {
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidType)
	}
	return t, nil
}

// ParseSearchScope converts raw input into a SearchScope.
func ParseSearchScope(raw string) (SearchScope, error) {
	switch s := SearchScope(raw); s {
	case SearchScopePlant, SearchScopeLivestock, SearchScopeAll:
		return s, nil
	default:
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidType)
	}
}

// Includes reports whether the scope covers the given partition
func (s SearchScope) Includes(t DiseaseType) bool {
	return s == SearchScopeAll || string(s) == string(t)
}

// IsValid reports whether s is a known status
func (s DiagnosisStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusExpertReview:
		return true
	default:
		return false
	}
}

// IsValid reports whether s is a known severity
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleFarmer, RoleVeterinarian, RoleExpert, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanReview reports whether the role may attach expert advice to diagnoses
func (r Role) CanReview() bool {
	return r == RoleExpert || r == RoleVeterinarian || r == RoleAdmin
}

package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TemperatureRange is an ideal [min, max] temperature in Celsius.
// Either bound may be unknown and then renders as null.
type TemperatureRange [2]*float64

// DiseaseEntry is one static catalog record. Plant and livestock entries
// share the same struct; partition-specific fields are left empty on the
// other partition.
type DiseaseEntry struct {
	ID                uuid.UUID   `json:"id"`
	Type              DiseaseType `json:"type"`
	Name              string      `json:"name"`
	SpeciesKey        string      `json:"-"`
	Description       string      `json:"description"`
	Causes            string      `json:"causes"`
	Symptoms          []string    `json:"symptoms"`
	PreventionMethods []string    `json:"preventionMethods"`
	TreatmentMethods  []string    `json:"treatmentMethods"`
	ImageURLs         []string    `json:"imageUrls"`
	Severity          Severity    `json:"severity,omitempty"`

	// Plant only
	OptimalTemperature string `json:"optimalTemperature,omitempty"`

	// Livestock only
	TemperatureFactors string            `json:"temperatureFactors,omitempty"`
	IdealTemperature   *TemperatureRange `json:"idealTemperature,omitempty"`
	Zoonotic           *bool             `json:"zoonotic,omitempty"`
	IncubationPeriod   string            `json:"incubationPeriod,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON renders the species key under the name the mobile client
// reads: plantType for plant entries, animalType for livestock entries.
func (d DiseaseEntry) MarshalJSON() ([]byte, error) {
	type entry DiseaseEntry
	out := struct {
		entry
		PlantType  string `json:"plantType,omitempty"`
		AnimalType string `json:"animalType,omitempty"`
	}{entry: entry(d)}

	if d.Type == DiseaseTypeLivestock {
		out.AnimalType = d.SpeciesKey
	} else {
		out.PlantType = d.SpeciesKey
	}
	return json.Marshal(out)
}

// DiagnosisRecord is a user's diagnosis request and its current outcome.
//
// DiseaseID and Confidence are either both set or both nil. Completed
// records always carry both, expert_review records never do. The
// transition methods below are the only code that changes Status.
type DiagnosisRecord struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"userId"`
	Type        DiseaseType     `json:"type"`
	SpeciesName string          `json:"speciesName"`
	Symptoms    []string        `json:"symptoms"`
	ImageURL    *string         `json:"imageUrl"`
	Temperature *float64        `json:"temperature"`
	Notes       *string         `json:"notes"`
	Location    *string         `json:"location"`
	DiseaseID   *uuid.UUID      `json:"diseaseId"`
	Confidence  *float64        `json:"confidence"`
	Status      DiagnosisStatus `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	// DiagnosisResult is the matched disease name, resolved from DiseaseID
	// at read time.
	DiagnosisResult *string `json:"diagnosisResult"`
}

// NewDiagnosisRecord creates a pending record owned by userID
func NewDiagnosisRecord(userID uuid.UUID, diseaseType DiseaseType, speciesName string, symptoms []string) *DiagnosisRecord {
	now := time.Now().UTC()
	return &DiagnosisRecord{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        diseaseType,
		SpeciesName: speciesName,
		Symptoms:    symptoms,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ResetForReevaluation replaces the observed symptoms and drops any
// previous outcome so the record can be re-resolved.
func (r *DiagnosisRecord) ResetForReevaluation(symptoms []string) {
	r.Symptoms = symptoms
	r.DiseaseID = nil
	r.DiagnosisResult = nil
	r.Confidence = nil
	r.Status = StatusPending
	r.UpdatedAt = time.Now().UTC()
}

// Complete records a match.
func (r *DiagnosisRecord) Complete(disease *DiseaseEntry, confidence float64) {
	id := disease.ID
	name := disease.Name
	r.DiseaseID = &id
	r.DiagnosisResult = &name
	r.Confidence = &confidence
	r.Status = StatusCompleted
	r.UpdatedAt = time.Now().UTC()
}

// SendToExpertReview marks the record as having no automated match.
func (r *DiagnosisRecord) SendToExpertReview() {
	r.DiseaseID = nil
	r.DiagnosisResult = nil
	r.Confidence = nil
	r.Status = StatusExpertReview
	r.UpdatedAt = time.Now().UTC()
}

// DiagnosisDetail is a record joined with its matched disease and any
// expert review.
type DiagnosisDetail struct {
	Diagnosis      *DiagnosisRecord `json:"diagnosis"`
	DiseaseDetails *DiseaseEntry    `json:"diseaseDetails"`
	Review         *ExpertReview    `json:"review,omitempty"`
}

// SearchResult holds catalog search matches per partition
type SearchResult struct {
	PlantMatches     []*DiseaseEntry `json:"plantDiseases"`
	LivestockMatches []*DiseaseEntry `json:"livestockDiseases"`
}

// Total returns the number of matches across both partitions
func (r *SearchResult) Total() int {
	return len(r.PlantMatches) + len(r.LivestockMatches)
}

// User is an account of the mobile app
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        *string   `json:"phone"`
	Location     *string   `json:"location"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ExpertReview is advice an expert attached to a diagnosis. There is at
// most one review per diagnosis; saving again replaces it.
type ExpertReview struct {
	ID            int64     `json:"id,omitempty"`
	DiagnosisID   string    `json:"diagnosisId"`
	ReviewerID    string    `json:"reviewerId"`
	ExpertAdvice  string    `json:"expertAdvice"`
	TreatmentPlan string    `json:"treatmentPlan,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

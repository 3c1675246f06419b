package domain

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// DiseaseRepository defines persistence for the disease catalog
type DiseaseRepository interface {
	ListByType(ctx context.Context, diseaseType DiseaseType) ([]*DiseaseEntry, error)
	ListBySpecies(ctx context.Context, diseaseType DiseaseType, speciesKey string) ([]*DiseaseEntry, error)
	GetByID(ctx context.Context, diseaseType DiseaseType, id uuid.UUID) (*DiseaseEntry, error)
	Search(ctx context.Context, diseaseType DiseaseType, query string) ([]*DiseaseEntry, error)
	Count(ctx context.Context, diseaseType DiseaseType) (int64, error)
	Create(ctx context.Context, entry *DiseaseEntry) error
	// CreateBatch inserts every entry or none of them
	CreateBatch(ctx context.Context, entries []*DiseaseEntry) error
}

// DiagnosisRepository defines persistence for diagnosis records
type DiagnosisRepository interface {
	Create(ctx context.Context, record *DiagnosisRecord) error
	Update(ctx context.Context, record *DiagnosisRecord) error
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*DiagnosisRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*DiagnosisRecord, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*DiagnosisRecord, error)
	ListByStatus(ctx context.Context, status DiagnosisStatus, limit, offset int) ([]*DiagnosisRecord, error)
}

// UserRepository defines persistence for user accounts
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// ImageStore persists uploaded diagnosis photos and returns a public URL
type ImageStore interface {
	Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error)
	// Delete removes an image previously returned by Save
	Delete(ctx context.Context, url string) error
}

// ScorerBackend identifies a disease from an image among the candidate
// entries of one species. It returns nil when it cannot pick one.
type ScorerBackend interface {
	Identify(ctx context.Context, imageURL string, candidates []*DiseaseEntry) (*DiseaseEntry, error)
}

// WeatherProvider fetches weather for a coordinate
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (*CurrentWeather, error)
	Forecast(ctx context.Context, lat, lon float64) (*Forecast, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	Reload() error
	Validate() error
	GetDatabaseURL() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/agrihealth-server/internal/domain"
	"github.com/spf13/viper"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	config     *domain.Config
	configFile string
}

var _ domain.ConfigManager = (*Manager)(nil)

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	return newManager(&Manager{})
}

// NewManagerFromFile loads configuration from an explicit file path
// instead of the search path. A missing file is an error.
func NewManagerFromFile(path string) (*Manager, error) {
	return newManager(&Manager{configFile: path})
}

func newManager(m *Manager) (*Manager, error) {
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	viper.SetConfigType("yaml")
	if m.configFile != "" {
		// SetConfigName would clear an explicit file, so it is only used
		// for the search path
		viper.SetConfigFile(m.configFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/agrihealth/")
	}

	viper.SetEnvPrefix("AGRIHEALTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars are enough to boot
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.request_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "agrihealth")
	viper.SetDefault("database.username", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "1h")
	viper.SetDefault("database.conn_max_idle_time", "30m")
	viper.SetDefault("database.migrations_path", "migrations")
	viper.SetDefault("database.auto_migrate", true)

	// Auth defaults
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.token_ttl", "24h")

	// Storage defaults
	viper.SetDefault("storage.upload_dir", "uploads")
	viper.SetDefault("storage.public_base_url", "/uploads")
	viper.SetDefault("storage.max_upload_bytes", 5*1024*1024)

	// Diagnosis defaults
	viper.SetDefault("diagnosis.min_symptom_overlap", 1)
	viper.SetDefault("diagnosis.match_on_submit", true)
	viper.SetDefault("diagnosis.symptom_confidence.min", 0.6)
	viper.SetDefault("diagnosis.symptom_confidence.max", 1.0)
	viper.SetDefault("diagnosis.image_confidence.min", 0.7)
	viper.SetDefault("diagnosis.image_confidence.max", 1.0)
	viper.SetDefault("diagnosis.review_queue_page_max", 100)

	// Catalog defaults
	viper.SetDefault("catalog.cache_size", 256)
	viper.SetDefault("catalog.cache_ttl", "10m")
	viper.SetDefault("catalog.seed_on_start", true)

	// Weather defaults
	viper.SetDefault("weather.enabled", false)
	viper.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5")
	viper.SetDefault("weather.api_key", "")
	viper.SetDefault("weather.timeout", "10s")
	viper.SetDefault("weather.rate_limit", 10)
	viper.SetDefault("weather.cache_ttl", "1h")

	// Cache defaults; an empty redis_url selects the in-process cache
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.max_retries", 3)
	viper.SetDefault("cache.pool_size", 10)
	viper.SetDefault("cache.pool_timeout", "4s")

	// Review store defaults
	viper.SetDefault("review.driver", "sqlite")
	viper.SetDefault("review.sqlite_path", "data/reviews.db")
	viper.SetDefault("review.postgres_url", "")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if config.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if config.Database.Username == "" {
		return fmt.Errorf("database username is required")
	}

	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if config.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid token TTL: %s", config.Auth.TokenTTL)
	}

	if config.Storage.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}
	if config.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid max upload size: %d", config.Storage.MaxUploadBytes)
	}

	if config.Diagnosis.MinSymptomOverlap < 0 {
		return fmt.Errorf("min symptom overlap cannot be negative: %d", config.Diagnosis.MinSymptomOverlap)
	}
	if err := validateRange("symptom confidence", config.Diagnosis.SymptomConfidence); err != nil {
		return err
	}
	if err := validateRange("image confidence", config.Diagnosis.ImageConfidence); err != nil {
		return err
	}

	if config.Weather.Enabled {
		if config.Weather.BaseURL == "" {
			return fmt.Errorf("weather base URL is required")
		}
		if config.Weather.APIKey == "" {
			return fmt.Errorf("weather API key is required when weather is enabled")
		}
	}

	switch config.Review.Driver {
	case "sqlite":
		if config.Review.SQLitePath == "" {
			return fmt.Errorf("review sqlite path is required")
		}
	case "postgres":
	default:
		return fmt.Errorf("invalid review driver: %s", config.Review.Driver)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

func validateRange(name string, r domain.Range) error {
	if r.Min < 0 || r.Max > 1 || r.Min > r.Max {
		return fmt.Errorf("invalid %s range: [%.2f, %.2f]", name, r.Min, r.Max)
	}
	return nil
}

// GetDatabaseURL returns the database connection URL used by migrations
// and the database/sql review store.
func (m *Manager) GetDatabaseURL() string {
	db := m.config.Database
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.Username, db.Password),
		Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:     db.Database,
		RawQuery: "sslmode=" + db.SSLMode,
	}
	return u.String()
}

// GetRedisConnectionString returns the Redis connection string
func (m *Manager) GetRedisConnectionString() string {
	return m.config.Cache.RedisURL
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}

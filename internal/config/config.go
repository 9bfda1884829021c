package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Catalog   CatalogConfig
	Embedding EmbeddingConfig
	Database  DatabaseConfig
	Match     MatchConfig
	Ledger    LedgerConfig
	Web       WebConfig
	Log       LogConfig
}

type CatalogConfig struct {
	Source        string // dir, manifest or postgres (default dir)
	KnownFacesDir string // enrollment images, one per person (default known_faces)
	File          string // YAML manifest path (default catalog.yaml)
}

type EmbeddingConfig struct {
	URL          string // defaults to http://localhost:8000
	MaxImageSize int    // images larger than this are downscaled before upload (default 1280)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type MatchConfig struct {
	Metric         string        // euclidean or cosine (default euclidean)
	Threshold      float64       // maximum accepted distance (default 0.6)
	DetectionDelay time.Duration // debounce window per identity (default 2s)
}

type LedgerConfig struct {
	Backend  string // csv or sqlite (default csv)
	Path     string // ledger file (default Attendance.csv)
	Timezone string // IANA zone for record dates (default local)
}

// Location resolves Timezone, falling back to the local zone when unset.
func (c LedgerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type WebConfig struct {
	Host           string // default 0.0.0.0
	Port           int    // default 8080
	AllowedOrigins string // comma-separated CORS origins for display clients
}

type LogConfig struct {
	Level  string // debug, info, warn, error (default info)
	Format string // text or json (default text)
}

// envString reads an environment variable, returning defaultVal when unset or empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a non-negative float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable as a duration ("2s", "500ms").
// A bare number is taken as seconds. Negative or invalid values yield the default.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return time.Duration(f * float64(time.Second))
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Source:        envString("CATALOG_SOURCE", "dir"),
			KnownFacesDir: envString("KNOWN_FACES_DIR", "known_faces"),
			File:          envString("CATALOG_FILE", "catalog.yaml"),
		},
		Embedding: EmbeddingConfig{
			URL:          os.Getenv("EMBEDDING_URL"),
			MaxImageSize: envInt("EMBEDDING_MAX_IMAGE_SIZE", 1280),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Match: MatchConfig{
			Metric:         envString("MATCH_METRIC", "euclidean"),
			Threshold:      envFloat("MATCH_THRESHOLD", 0.6),
			DetectionDelay: envDuration("DETECTION_DELAY", 2*time.Second),
		},
		Ledger: LedgerConfig{
			Backend:  envString("LEDGER_BACKEND", "csv"),
			Path:     envString("LEDGER_PATH", "Attendance.csv"),
			Timezone: os.Getenv("LEDGER_TIMEZONE"),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			AllowedOrigins: os.Getenv("WEB_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "text"),
		},
	}
}

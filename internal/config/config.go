package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Host string
	Port string

	// Database settings
	DatabasePath string

	// Logging settings
	LogLevel  string
	LogFormat string

	// Normalization settings
	DefaultState      string
	MaxPartiesPerType int

	// Quality check settings
	PostalCodePattern *regexp.Regexp
	RequireParty      bool

	// Taxonomy cache settings
	TaxonomyCacheTTL time.Duration

	// Document generation settings
	DocmosisAPIURL    string
	DocmosisAccessKey string
	DocmosisTimeout   time.Duration
	DocmosisRetries   int
	DocumentOutputDir string

	// Cloud backup settings
	DropboxEnabled     bool
	DropboxAccessToken string
	DropboxBasePath    string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not an error if .env doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Host:               getEnv("HOST", "0.0.0.0"),
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./data/case_intake.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		DefaultState:       getEnv("DEFAULT_STATE", "CA"),
		DocmosisAPIURL:     getEnv("DOCMOSIS_API_URL", "https://docs.example.com/api/render"),
		DocmosisAccessKey:  getEnv("DOCMOSIS_ACCESS_KEY", ""),
		DocumentOutputDir:  getEnv("DOCUMENT_OUTPUT_DIR", "./data/documents"),
		DropboxAccessToken: getEnv("DROPBOX_ACCESS_TOKEN", ""),
		DropboxBasePath:    getEnv("DROPBOX_BASE_PATH", "/Apps/CaseIntake"),
	}

	pattern := getEnv("POSTAL_CODE_PATTERN", `^\d{5}(-\d{4})?$`)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid POSTAL_CODE_PATTERN: %w", err)
	}
	cfg.PostalCodePattern = re

	cfg.RequireParty = getEnv("REQUIRE_PARTY", "true") == "true"
	cfg.DropboxEnabled = getEnv("DROPBOX_ENABLED", "false") == "true"

	cfg.MaxPartiesPerType, err = strconv.Atoi(getEnv("MAX_PARTIES_PER_TYPE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_PARTIES_PER_TYPE: %w", err)
	}

	cacheTTL, err := strconv.Atoi(getEnv("TAXONOMY_CACHE_TTL", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid TAXONOMY_CACHE_TTL: %w", err)
	}
	cfg.TaxonomyCacheTTL = time.Duration(cacheTTL) * time.Minute

	docmosisTimeout, err := strconv.Atoi(getEnv("DOCMOSIS_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid DOCMOSIS_TIMEOUT: %w", err)
	}
	cfg.DocmosisTimeout = time.Duration(docmosisTimeout) * time.Second

	cfg.DocmosisRetries, err = strconv.Atoi(getEnv("DOCMOSIS_RETRY_ATTEMPTS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid DOCMOSIS_RETRY_ATTEMPTS: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Dataset
	DatasetPath string

	// AMQP (optional; empty URL disables the refresh worker and publish)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets (ingest source for grant tables)
	GoogleSpreadsheetID   string
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
	RizeSheet             string
	MosaicCoreSheet       string
	FamilyResilienceSheet string
	CountySheet           string

	// HTTP response caches
	SearchCacheSize int
	SearchCacheTTL  time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8082"),
		DatasetPath: getEnv("DATASET_PATH", "./data/opioid_settlement.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "orrf"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "dataset_refresh"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		RizeSheet:             getEnv("RIZE_SHEET_NAME", "RIZE Grants"),
		MosaicCoreSheet:       getEnv("MOSAIC_CORE_SHEET_NAME", "Mosaic CORE"),
		FamilyResilienceSheet: getEnv("FAMILY_RESILIENCE_SHEET_NAME", "Family Resilience"),
		CountySheet:           getEnv("COUNTY_SHEET_NAME", "County Mapping"),

		SearchCacheSize: getEnvInt("SEARCH_CACHE_SIZE", 200),
		SearchCacheTTL:  getEnvDuration("SEARCH_CACHE_TTL", 5*time.Minute),
	}
}

// Validate checks the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DatasetPath == "" {
		errs = append(errs, "dataset path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SearchCacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid search cache size %d: must be at least 1", c.SearchCacheSize))
	}
	if c.SearchCacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid search cache TTL %v: must be at least 1 second", c.SearchCacheTTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateIngest checks the additional settings the ingest tool needs.
func (c *Config) ValidateIngest() error {
	var errs []string

	if c.GoogleSpreadsheetID == "" {
		errs = append(errs, "GOOGLE_SPREADSHEET_ID is required for ingest")
	}
	// Missing credentials fall back to application default credentials,
	// so only an explicit path that points nowhere is an error.
	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}
	for name, v := range map[string]string{
		"RIZE_SHEET_NAME":              c.RizeSheet,
		"MOSAIC_CORE_SHEET_NAME":       c.MosaicCoreSheet,
		"FAMILY_RESILIENCE_SHEET_NAME": c.FamilyResilienceSheet,
		"COUNTY_SHEET_NAME":            c.CountySheet,
	} {
		if v == "" {
			errs = append(errs, fmt.Sprintf("%s cannot be empty", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("ingest configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port   string
	APIKey string

	// Logging
	LogLevel  string
	LogFormat string

	// Backend selection
	DataBackend string

	// Google Sheets
	SpreadsheetID            string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Collections
	RawSheetName       string
	ContractsSheetName string
	HistorySheetName   string

	// Database
	SQLiteDBPath string

	// Holiday calendar
	HolidayAPIURL  string
	HolidayCountry string
	HolidayTimeout time.Duration

	// Destination accounts: "Name=pattern|pattern;Name=pattern"
	DestinationPatterns string

	// AMQP, optional for the server
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		APIKey: getEnv("API_KEY", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend: getEnv("DATA_BACKEND", "sheets"),

		SpreadsheetID:            getEnv("SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		RawSheetName:       getEnv("RAW_SHEET_NAME", "Informacion imagenes"),
		ContractsSheetName: getEnv("CONTRACTS_SHEET_NAME", "Pro"),
		HistorySheetName:   getEnv("HISTORY_SHEET_NAME", "Historico"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/conciliador.db"),

		HolidayAPIURL:  getEnv("HOLIDAY_API_URL", "https://date.nager.at/api/v3/PublicHolidays"),
		HolidayCountry: getEnv("HOLIDAY_COUNTRY", "AR"),
		HolidayTimeout: getEnvDuration("HOLIDAY_TIMEOUT", 5*time.Second),

		DestinationPatterns: getEnv("DESTINATION_PATTERNS", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "conciliador"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "procesar_pagos"),
	}

	return cfg
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.APIKey == "" {
		errors = append(errors, "API_KEY is required")
	}

	// Validate data backend
	validBackends := []string{"memory", "sheets"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Service account credentials are needed to open any spreadsheet
	if c.DataBackend == "sheets" {
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if hasFile && !hasJSON {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.RawSheetName == "" || c.ContractsSheetName == "" || c.HistorySheetName == "" {
		errors = append(errors, "sheet names cannot be empty")
	}

	// Validate SQLite path
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate holiday source
	if c.HolidayAPIURL != "" {
		if u, err := url.Parse(c.HolidayAPIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid holiday API URL '%s': must be http or https", c.HolidayAPIURL))
		}
	}
	if len(c.HolidayCountry) != 2 {
		errors = append(errors, fmt.Sprintf("invalid holiday country '%s': must be an ISO 3166-1 alpha-2 code", c.HolidayCountry))
	}
	if c.HolidayTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid holiday timeout %v: must be at least 100ms", c.HolidayTimeout))
	} else if c.HolidayTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid holiday timeout %v: must be at most 1 minute", c.HolidayTimeout))
	}

	if _, err := ParseDestinationPatterns(c.DestinationPatterns); err != nil {
		errors = append(errors, err.Error())
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// DestinationPattern is one configured destination group.
type DestinationPattern struct {
	Name     string
	Patterns []string
}

// minAccountDigits keeps short numbers from matching inside unrelated amounts.
const minAccountDigits = 6

// ParseDestinationPatterns parses the DESTINATION_PATTERNS value. Groups are
// separated by ";" and patterns by "|". Blank input yields no groups.
func ParseDestinationPatterns(raw string) ([]DestinationPattern, error) {
	var out []DestinationPattern
	for _, group := range strings.Split(raw, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		name, list, ok := strings.Cut(group, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid destination group '%s': want Name=pattern|pattern", group)
		}
		dp := DestinationPattern{Name: name}
		for _, p := range strings.Split(list, "|") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if isDigits(p) && len(p) < minAccountDigits {
				return nil, fmt.Errorf("invalid destination pattern '%s' for %s: numbers need at least %d digits", p, name, minAccountDigits)
			}
			dp.Patterns = append(dp.Patterns, p)
		}
		if len(dp.Patterns) == 0 {
			return nil, fmt.Errorf("destination group '%s' has no patterns", name)
		}
		out = append(out, dp)
	}
	return out, nil
}

// Destinations returns the parsed destination groups. Validate reports
// malformed input; here it yields nil.
func (c *Config) Destinations() []DestinationPattern {
	out, err := ParseDestinationPatterns(c.DestinationPatterns)
	if err != nil {
		return nil
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

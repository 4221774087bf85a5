// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${VAR} expansion
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	serverURL := cfg.Actual.ServerURL
//	window := cfg.Link.WindowHours
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration.
type Config struct {
	Actual        ActualConfig        `yaml:"actual"`
	Link          LinkConfig          `yaml:"link"`
	Repair        RepairConfig        `yaml:"repair"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ActualConfig holds the Actual Budget server connection settings.
type ActualConfig struct {
	ServerURL          string `yaml:"server_url"`
	Password           string `yaml:"password"`
	SyncID             string `yaml:"sync_id"`
	EncryptionPassword string `yaml:"encryption_password"`
}

// LinkConfig holds the link-run settings. StartDate/EndDate override
// LookbackDays when set; both are date-only strings.
type LinkConfig struct {
	LookbackDays     int      `yaml:"lookback_days"`
	StartDate        string   `yaml:"start_date"`
	EndDate          string   `yaml:"end_date"`
	WindowHours      int      `yaml:"window_hours"`
	MinScore         float64  `yaml:"min_score"`
	ClearedOnly      bool     `yaml:"cleared_only"`
	SkipReconciled   bool     `yaml:"skip_reconciled"`
	PreferReconciled bool     `yaml:"prefer_reconciled"`
	Keep             string   `yaml:"keep"`
	PairMultiples    bool     `yaml:"pair_multiples"`
	MergeNotes       bool     `yaml:"merge_notes"`
	DeleteDuplicate  bool     `yaml:"delete_duplicate"`
	MaxLinksPerRun   int      `yaml:"max_links_per_run"`
	IncludeAccounts  []string `yaml:"include_accounts"`
	ExcludeAccounts  []string `yaml:"exclude_accounts"`
	DryRun           bool     `yaml:"dry_run"`
	IntervalMins     int      `yaml:"interval_mins"`
}

// RepairConfig holds the repair-run settings.
type RepairConfig struct {
	LookbackDays     int     `yaml:"lookback_days"`
	WindowHours      int     `yaml:"window_hours"`
	MinScore         float64 `yaml:"min_score"`
	ClearedOnly      bool    `yaml:"cleared_only"`
	SkipReconciled   bool    `yaml:"skip_reconciled"`
	PreferReconciled bool    `yaml:"prefer_reconciled"`
	Keep             string  `yaml:"keep"`
	DeleteDuplicate  bool    `yaml:"delete_duplicate"`
	MaxRepairsPerRun int     `yaml:"max_repairs_per_run"`
	DryRun           bool    `yaml:"dry_run"`
}

// StorageConfig holds run-history database configuration.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// APIConfig holds HTTP API server configuration.
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	Logging   LoggingConfig `yaml:"logging"`
	SentryDSN string        `yaml:"sentry_dsn"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g. ${ACTUAL_PASSWORD})
	expanded := os.ExpandEnv(string(data))

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	cfg := defaults()
	cfg.Actual = ActualConfig{
		ServerURL:          os.Getenv("ACTUAL_SERVER_URL"),
		Password:           os.Getenv("ACTUAL_PASSWORD"),
		SyncID:             os.Getenv("ACTUAL_SYNC_ID"),
		EncryptionPassword: os.Getenv("ACTUAL_BUDGET_ENCRYPTION_PASSWORD"),
	}
	cfg.Link = LinkConfig{
		LookbackDays:     getEnvInt("LOOKBACK_DAYS", 14),
		StartDate:        os.Getenv("START_DATE"),
		EndDate:          os.Getenv("END_DATE"),
		WindowHours:      getEnvInt("WINDOW_HOURS", 72),
		MinScore:         getEnvFloat("MIN_SCORE", 0.2),
		ClearedOnly:      getEnvBool("CLEARED_ONLY", true),
		SkipReconciled:   getEnvBool("SKIP_RECONCILED", true),
		PreferReconciled: getEnvBool("PREFER_RECONCILED", true),
		Keep:             getEnvKeep("KEEP", "outgoing"),
		PairMultiples:    getEnvBool("PAIR_MULTIPLES", true),
		MergeNotes:       getEnvBool("MERGE_NOTES", true),
		DeleteDuplicate:  getEnvBool("DELETE_DUPLICATE", true),
		MaxLinksPerRun:   getEnvInt("MAX_LINKS_PER_RUN", 50),
		IncludeAccounts:  getEnvList("INCLUDE_ACCOUNTS"),
		ExcludeAccounts:  getEnvList("EXCLUDE_ACCOUNTS"),
		DryRun:           getEnvBool("DRY_RUN", true),
		IntervalMins:     getEnvInt("INTERVAL_MINS", 60),
	}
	cfg.Repair = RepairConfig{
		LookbackDays:     getEnvInt("REPAIR_LOOKBACK_DAYS", 30),
		WindowHours:      getEnvInt("REPAIR_WINDOW_HOURS", 96),
		MinScore:         getEnvFloat("REPAIR_MIN_SCORE", 0),
		ClearedOnly:      getEnvBool("REPAIR_CLEARED_ONLY", false),
		SkipReconciled:   getEnvBool("REPAIR_SKIP_RECONCILED", false),
		PreferReconciled: getEnvBool("REPAIR_PREFER_RECONCILED", true),
		Keep:             getEnvKeep("REPAIR_KEEP", "outgoing"),
		DeleteDuplicate:  getEnvBool("REPAIR_DELETE_DUPLICATE", true),
		MaxRepairsPerRun: getEnvInt("MAX_REPAIRS_PER_RUN", 100),
		DryRun:           getEnvBool("REPAIR_DRY_RUN", true),
	}
	cfg.Storage.DatabasePath = getEnv("LINKER_DB_PATH", "actual_tx_linker.db")
	cfg.API.Port = getEnvInt("API_PORT", 8080)
	cfg.Observability.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "text"),
	}
	cfg.Observability.SentryDSN = os.Getenv("SENTRY_DSN")
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment
// variables.
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from the given path, falls back to
// environment variables.
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// defaults returns a config carrying every default value, so a partial
// YAML file only overrides what it mentions.
func defaults() *Config {
	return &Config{
		Link: LinkConfig{
			LookbackDays:     14,
			WindowHours:      72,
			MinScore:         0.2,
			ClearedOnly:      true,
			SkipReconciled:   true,
			PreferReconciled: true,
			Keep:             "outgoing",
			PairMultiples:    true,
			MergeNotes:       true,
			DeleteDuplicate:  true,
			MaxLinksPerRun:   50,
			DryRun:           true,
			IntervalMins:     60,
		},
		Repair: RepairConfig{
			LookbackDays:     30,
			WindowHours:      96,
			PreferReconciled: true,
			Keep:             "outgoing",
			DeleteDuplicate:  true,
			MaxRepairsPerRun: 100,
			DryRun:           true,
		},
		Storage: StorageConfig{DatabasePath: "actual_tx_linker.db"},
		API: APIConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback
// default.
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvBool treats anything except "false", "0" and "no" as true.
func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "false", "0", "no":
		return false
	}
	return true
}

// getEnvKeep accepts only the two valid keep-side policies.
func getEnvKeep(key, fallback string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "outgoing" || v == "incoming" {
		return v
	}
	return fallback
}

// getEnvList splits a comma-separated environment variable, dropping
// empty entries.
func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitList normalizes CLI list flags: each value may itself be a
// comma-separated list.
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Validate checks the structural configuration. Only validation errors are
// fatal to a run.
func (c *Config) Validate() error {
	if c.Link.Keep != "outgoing" && c.Link.Keep != "incoming" {
		return fmt.Errorf("link.keep must be outgoing or incoming, got %q", c.Link.Keep)
	}
	if c.Repair.Keep != "outgoing" && c.Repair.Keep != "incoming" {
		return fmt.Errorf("repair.keep must be outgoing or incoming, got %q", c.Repair.Keep)
	}
	return nil
}

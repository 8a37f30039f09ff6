// =============================================================================
// Abstract Preprocessor - Configuration Module
// =============================================================================
//
// This module loads the application configuration file (config.yaml).
// Per-journal defaults live in the journal store, not here.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults (applyMainConfigDefaults)
//   2. config.yaml, when present
//   3. ABSTRACTFIX_* environment variables, including those loaded from .env
//
// EXAMPLE config.yaml:
//
//   journal_config_dir: ./config
//   store_backend: file          # file | sqlite | memory
//   sqlite_path: ./config/journals.db
//   species_list: ./species.txt
//   backup_dir: ./backup
//   log_level: info
//   log_file: ./logs/abstractfix.log
//   report_xlsx: false
//   max_prompt_attempts: 3
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ABSTRACTFIX_"

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// =============================================================================
// MAIN CONFIGURATION
// =============================================================================

// MainConfig holds application-wide settings.
type MainConfig struct {
	// JournalConfigDir holds one YAML (or legacy .config) file per journal.
	JournalConfigDir string `yaml:"journal_config_dir" validate:"required"`

	// StoreBackend selects where journal configs are kept.
	StoreBackend string `yaml:"store_backend" validate:"oneof=file sqlite memory"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path" validate:"required_if=StoreBackend sqlite"`

	// SpeciesList is a plain-text list of "Genus species" names, one per
	// line. Empty disables species links.
	SpeciesList string `yaml:"species_list"`

	// BackupDir receives a copy of every document before it is rewritten.
	// Empty disables backups.
	BackupDir string `yaml:"backup_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// LogFile receives JSON logs in addition to stderr. Optional.
	LogFile string `yaml:"log_file"`

	// ReportXLSX also writes the problems report as a spreadsheet.
	ReportXLSX bool `yaml:"report_xlsx"`

	// MaxPromptAttempts bounds re-asking for a malformed answer.
	MaxPromptAttempts int `yaml:"max_prompt_attempts" validate:"gte=1,lte=20"`
}

// =============================================================================
// LOADING
// =============================================================================

// LoadMainConfig reads configPath, applies defaults and environment
// overrides, and validates the result. A missing file is not an error.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyMainConfigDefaults(&config)

	if err := applyEnvOverrides(&config, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.JournalConfigDir == "" {
		config.JournalConfigDir = "./config"
	}
	if config.StoreBackend == "" {
		config.StoreBackend = BackendFile
	}
	if config.SQLitePath == "" && config.StoreBackend == BackendSQLite {
		config.SQLitePath = config.JournalConfigDir + "/journals.db"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.MaxPromptAttempts == 0 {
		config.MaxPromptAttempts = 3
	}
}

// applyEnvOverrides replaces values from ABSTRACTFIX_<KEY> variables, where
// KEY is the upper-cased YAML key.
func applyEnvOverrides(config *MainConfig, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"journal_config_dir": &config.JournalConfigDir,
		"store_backend":      &config.StoreBackend,
		"sqlite_path":        &config.SQLitePath,
		"species_list":       &config.SpeciesList,
		"backup_dir":         &config.BackupDir,
		"log_level":          &config.LogLevel,
		"log_file":           &config.LogFile,
	}
	for key, target := range strs {
		if value, ok := lookup(envName(key)); ok {
			*target = value
		}
	}

	if value, ok := lookup(envName("report_xlsx")); ok {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envName("report_xlsx"), err)
		}
		config.ReportXLSX = b
	}
	if value, ok := lookup(envName("max_prompt_attempts")); ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envName("max_prompt_attempts"), err)
		}
		config.MaxPromptAttempts = n
	}

	// An override may switch to sqlite after defaults were applied.
	applyMainConfigDefaults(config)
	return nil
}

func envName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// validateMainConfig checks the struct tags and creates the journal config
// directory for the file backend.
func validateMainConfig(config *MainConfig) error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}

	if config.StoreBackend == BackendFile {
		if err := os.MkdirAll(config.JournalConfigDir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", config.JournalConfigDir, err)
		}
	}
	return nil
}

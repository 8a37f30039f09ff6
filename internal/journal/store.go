// =============================================================================
// Abstract Preprocessor - Journal Config Store
// =============================================================================
//
// This module persists per-journal default values (publisher, copyright,
// issue metadata, formatting options) keyed by the two-letter journal code.
//
// CONTRACT:
//   Load(journalID)           -> *Config, or ErrNotFound
//   Create(journalID, values) -> *Config (persisted immediately)
//   Save(config)              -> replaces the stored config wholesale
//
// There is no merge logic: a saved config is authoritative until it is
// explicitly replaced.
//
// BACKENDS:
//   - FileStore   : one YAML file per journal (legacy .config files are read)
//   - SQLiteStore : a single SQLite database
//   - MemoryStore : in-process only (tests, --no-save runs)
//
// =============================================================================

package journal

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNotFound is returned by Store.Load when no config exists for a journal.
var ErrNotFound = errors.New("journal config not found")

// =============================================================================
// WELL-KNOWN KEYS
// =============================================================================

const (
	KeyCopyright      = "copyright"
	KeyPublisher      = "publisher"
	KeyIssueDate      = "issue-date"
	KeyTextSubs       = "text-subs"
	KeyNewlinesBefore = "newlines-before"
	KeyNewlinesAfter  = "newlines-after"
	KeyBoldHeaders    = "bold-headers"
	KeyItalicHeaders  = "italic-headers"
	KeySpeciesLinks   = "species-links"
	KeySplitKeywords  = "split-keywords"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store loads and persists journal configs.
type Store interface {
	// Load returns the stored config for journalID or ErrNotFound.
	Load(journalID string) (*Config, error)

	// Create stores a new config for journalID and returns it.
	Create(journalID string, values map[string]string) (*Config, error)

	// Save replaces the stored config.
	Save(cfg *Config) error
}

// =============================================================================
// CONFIG
// =============================================================================

// Config maps field names to default values for one journal.
type Config struct {
	JournalID string
	Values    map[string]string
}

// NewConfig creates a config holding a copy of values.
func NewConfig(journalID string, values map[string]string) *Config {
	cfg := &Config{JournalID: journalID, Values: make(map[string]string, len(values))}
	for k, v := range values {
		cfg.Values[k] = v
	}
	return cfg
}

// Get returns the value for key, or "" if unset.
func (c *Config) Get(key string) string {
	if c == nil {
		return ""
	}
	return c.Values[key]
}

// Set stores a value. Callers must Save the config for it to persist.
func (c *Config) Set(key, value string) {
	if c.Values == nil {
		c.Values = make(map[string]string)
	}
	c.Values[key] = value
}

// Bool interprets the value as a yes/no answer ("y", "yes", "true").
func (c *Config) Bool(key string) bool {
	return ParseBool(c.Get(key))
}

// Int interprets the value as an integer, returning 0 if unset or invalid.
func (c *Config) Int(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Get(key)))
	if err != nil {
		return 0
	}
	return n
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	return NewConfig(c.JournalID, c.Values)
}

// Keys returns the config keys in sorted order.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.Values))
	for k := range c.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseBool accepts the answers operators type at the prompt.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes", "true":
		return true
	default:
		return false
	}
}

// validateConfig rejects configs no backend can store: a bad journal id or
// a blank key.
func validateConfig(cfg *Config) error {
	if err := validateJournalID(cfg.JournalID); err != nil {
		return err
	}
	for key := range cfg.Values {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("journal %s: config key is empty", cfg.JournalID)
		}
	}
	return nil
}

// validateJournalID rejects identifiers that cannot be used as file names.
func validateJournalID(journalID string) error {
	if journalID == "" {
		return fmt.Errorf("journal id is empty")
	}
	if strings.ContainsAny(journalID, `/\.`) {
		return fmt.Errorf("invalid journal id %q", journalID)
	}
	return nil
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore keeps configs in memory. Configs are copied on the way in and
// out so callers never share state with the store.
type MemoryStore struct {
	configs map[string]map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{configs: make(map[string]map[string]string)}
}

// Load implements Store.
func (s *MemoryStore) Load(journalID string) (*Config, error) {
	values, ok := s.configs[journalID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", journalID, ErrNotFound)
	}
	return NewConfig(journalID, values), nil
}

// Create implements Store.
func (s *MemoryStore) Create(journalID string, values map[string]string) (*Config, error) {
	if err := validateJournalID(journalID); err != nil {
		return nil, err
	}
	cfg := NewConfig(journalID, values)
	if err := s.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save implements Store.
func (s *MemoryStore) Save(cfg *Config) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	s.configs[cfg.JournalID] = NewConfig(cfg.JournalID, cfg.Values).Values
	return nil
}

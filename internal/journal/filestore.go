package journal

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// legacyKeys maps the upper-case tokens of the old KEY=value .config files
// to current config keys.
var legacyKeys = map[string]string{
	"COPYRIGHT":      KeyCopyright,
	"TEXTSUBS":       KeyTextSubs,
	"NEWLINESBEFORE": KeyNewlinesBefore,
	"NEWLINESAFTER":  KeyNewlinesAfter,
	"BOLD":           KeyBoldHeaders,
	"ITALIC":         KeyItalicHeaders,
	"SPECIESLINKS":   KeySpeciesLinks,
	"SPLITKEYWORDS":  KeySplitKeywords,
}

// FileStore keeps one YAML file per journal in a directory:
//
//	config/
//	  ab.yaml
//	  cs.yaml
//
// A journal with only a legacy "<id>.config" file is still loadable; the
// next Save writes it out as YAML.
type FileStore struct {
	dir string
}

// fileConfig is the on-disk YAML layout.
type fileConfig struct {
	Journal string            `yaml:"journal"`
	Values  map[string]string `yaml:"values"`
}

// NewFileStore creates a FileStore rooted at dir, creating the directory if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal config directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) yamlPath(journalID string) string {
	return filepath.Join(s.dir, journalID+".yaml")
}

func (s *FileStore) legacyPath(journalID string) string {
	return filepath.Join(s.dir, journalID+".config")
}

// Load implements Store.
func (s *FileStore) Load(journalID string) (*Config, error) {
	if err := validateJournalID(journalID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.yamlPath(journalID))
	if errors.Is(err, os.ErrNotExist) {
		return s.loadLegacy(journalID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journal config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse journal config %s: %w", s.yamlPath(journalID), err)
	}
	if fc.Journal != "" && fc.Journal != journalID {
		return nil, fmt.Errorf("journal config %s belongs to %q", s.yamlPath(journalID), fc.Journal)
	}

	return NewConfig(journalID, fc.Values), nil
}

// loadLegacy reads the KEY=value format written by older releases.
func (s *FileStore) loadLegacy(journalID string) (*Config, error) {
	data, err := os.ReadFile(s.legacyPath(journalID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", journalID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy journal config: %w", err)
	}

	values, err := parseLegacy(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.legacyPath(journalID), err)
	}
	return NewConfig(journalID, values), nil
}

func parseLegacy(data []byte) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		token, value, _ := strings.Cut(line, "=")
		token = strings.TrimSpace(token)
		key, known := legacyKeys[token]
		if !known {
			return nil, fmt.Errorf("line %d: unknown token %q", lineNum, token)
		}
		values[key] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// Create implements Store.
func (s *FileStore) Create(journalID string, values map[string]string) (*Config, error) {
	cfg := NewConfig(journalID, values)
	if err := s.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save implements Store. The file is written to a temporary name and renamed
// so a crash never leaves a half-written config behind.
func (s *FileStore) Save(cfg *Config) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(fileConfig{Journal: cfg.JournalID, Values: cfg.Values})
	if err != nil {
		return fmt.Errorf("failed to encode journal config: %w", err)
	}

	target := s.yamlPath(cfg.JournalID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write journal config: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to replace journal config: %w", err)
	}
	return nil
}

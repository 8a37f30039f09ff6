package prompt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/abstract-preprocessor/internal/resolver"
)

// Scripted answers every question from a fixed table. Fields without an
// answer are skipped.
//
// Example answers file:
//
//	answers:
//	  issue-date: "2020-03"
//	  publisher: Sociedade Brasileira de Zoologia
//	persist: true
//	save: false
type Scripted struct {
	Answers map[string]string `yaml:"answers"`
	Persist bool              `yaml:"persist"`
	Save    bool              `yaml:"save"`
}

// LoadScripted reads an answers file.
func LoadScripted(path string) (*Scripted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers file: %w", err)
	}

	var s Scripted
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse answers file %s: %w", path, err)
	}
	return &s, nil
}

// RequestValue implements resolver.Prompter. A rejected answer is not
// offered twice.
func (s *Scripted) RequestValue(req resolver.Request) (resolver.Response, error) {
	value, ok := s.Answers[req.Field]
	if !ok || value == "" || (req.Reason != "" && req.Previous == value) {
		return resolver.Response{Skip: true}, nil
	}
	return resolver.Response{Value: value}, nil
}

// OfferPersist implements resolver.Prompter.
func (s *Scripted) OfferPersist(journalID, field, value string) (bool, error) {
	return s.Persist, nil
}

// ConfirmSave implements resolver.Prompter.
func (s *Scripted) ConfirmSave(journalID string) (bool, error) {
	return s.Save, nil
}

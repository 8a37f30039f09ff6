package resolver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ginjaninja78/abstract-preprocessor/internal/journal"
)

// Option is one question of the journal questionnaire asked the first time
// a journal is seen.
type Option struct {
	Key      string
	Question string
	Kind     AnswerKind
}

// Questionnaire lists the journal formatting options in the order they are
// asked.
var Questionnaire = []Option{
	{Key: journal.KeyCopyright, Question: `Enter the journal copyright holder (or "default" if unsure)`, Kind: AnswerText},
	{Key: journal.KeyTextSubs, Question: "Apply chemical and unit text substitutions?", Kind: AnswerYesNo},
	{Key: journal.KeyNewlinesBefore, Question: "Line breaks before abstract section headers", Kind: AnswerNumber},
	{Key: journal.KeyNewlinesAfter, Question: "Line breaks after abstract section headers", Kind: AnswerNumber},
	{Key: journal.KeyBoldHeaders, Question: "Make abstract section headers bold?", Kind: AnswerYesNo},
	{Key: journal.KeyItalicHeaders, Question: "Make abstract section headers italic?", Kind: AnswerYesNo},
	{Key: journal.KeySpeciesLinks, Question: "Link species names?", Kind: AnswerYesNo},
	{Key: journal.KeySplitKeywords, Question: "Split keywords on commas?", Kind: AnswerYesNo},
}

// Bootstrap returns the config for journalID.
//
// When the journal has no stored config and the resolver is interactive,
// the operator answers the questionnaire and decides whether to save it.
// Otherwise an empty, unsaved config is returned so a non-interactive run
// never blocks.
func (r *Resolver) Bootstrap(journalID string) (*journal.Config, error) {
	if r.store != nil {
		cfg, err := r.store.Load(journalID)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, journal.ErrNotFound) {
			return nil, fmt.Errorf("failed to load journal config: %w", err)
		}
	}

	if r.prompter == nil {
		r.logger.Warn("no journal config, continuing without defaults", zap.String("journal", journalID))
		return journal.NewConfig(journalID, nil), nil
	}

	values, err := r.questionnaire(journalID)
	if err != nil {
		return nil, err
	}

	save, err := r.prompter.ConfirmSave(journalID)
	if err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}
	if !save || r.store == nil {
		return journal.NewConfig(journalID, values), nil
	}

	cfg, err := r.store.Create(journalID, values)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal config: %w", err)
	}
	r.logger.Info("journal config created", zap.String("journal", journalID), zap.Int("values", len(values)))
	return cfg, nil
}

func (r *Resolver) questionnaire(journalID string) (map[string]string, error) {
	values := make(map[string]string)

	for _, opt := range Questionnaire {
		req := Request{JournalID: journalID, Field: opt.Key, Question: opt.Question, Kind: opt.Kind}

		for attempt := 1; attempt <= r.maxAttempts; attempt++ {
			resp, err := r.prompter.RequestValue(req)
			if err != nil {
				return nil, fmt.Errorf("prompt failed: %w", err)
			}
			if resp.Skip {
				break
			}
			if value, ok := normalizeOption(opt.Kind, resp.Value); ok {
				values[opt.Key] = value
				break
			}
			req.Previous = resp.Value
			req.Reason = fmt.Sprintf("expected %s", opt.Kind)
		}
	}

	return values, nil
}

// normalizeOption converts an answer to its stored form.
func normalizeOption(kind AnswerKind, answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	switch kind {
	case AnswerYesNo:
		switch strings.ToLower(answer) {
		case "y", "yes", "true":
			return "true", true
		case "n", "no", "false":
			return "false", true
		}
		return "", false
	case AnswerNumber:
		n, err := strconv.Atoi(answer)
		if err != nil || n < 0 {
			return "", false
		}
		return strconv.Itoa(n), true
	default:
		return answer, answer != ""
	}
}

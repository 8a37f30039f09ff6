// =============================================================================
// Abstract Preprocessor - Field Resolver
// =============================================================================
//
// This module makes sure every required field of an abstract record either
// holds a usable value or is reported as a Problem.
//
// RESOLUTION ORDER (per field, fixed):
//   1. Document value, if present and well-formed     -> kept as-is
//   2. Issue folder value (volume, number, year)      -> filled in
//   3. Journal config default (shared fields only)    -> filled in
//   4. Operator answer through the Prompter           -> filled in,
//      shared fields optionally saved as the new journal default
//   5. Nothing                                        -> FieldMissing problem
//
// A value that is present in the document but not well-formed is never
// replaced. It produces a FieldMalformed problem instead.
//
// =============================================================================

package resolver

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ginjaninja78/abstract-preprocessor/internal/abstractxml"
	"github.com/ginjaninja78/abstract-preprocessor/internal/journal"
	"github.com/ginjaninja78/abstract-preprocessor/internal/types"
)

// DefaultMaxAttempts bounds how often a malformed answer is re-requested.
const DefaultMaxAttempts = 3

// =============================================================================
// PROMPTER INTERFACE
// =============================================================================

// AnswerKind tells the prompter what shape of answer is expected.
type AnswerKind string

const (
	AnswerText   AnswerKind = "text"
	AnswerYesNo  AnswerKind = "yes/no"
	AnswerNumber AnswerKind = "number"
)

// Request is one question put to the operator.
type Request struct {
	JournalID string
	RecordID  string // empty for journal-level questions
	Field     string
	Question  string
	Kind      AnswerKind

	// Previous is shown as a hint (the last answer given for this field,
	// or the value that was rejected).
	Previous string

	// Reason explains why the question is asked again, if it is.
	Reason string
}

// Response is the operator's answer. Skip means "leave it unresolved".
type Response struct {
	Value string
	Skip  bool
}

// Prompter is the interactive boundary. Implementations may block
// indefinitely waiting for the operator.
type Prompter interface {
	// RequestValue asks for a value.
	RequestValue(req Request) (Response, error)

	// OfferPersist asks whether value should become the journal default for
	// field.
	OfferPersist(journalID, field, value string) (bool, error)

	// ConfirmSave asks whether a newly answered journal questionnaire should
	// be saved.
	ConfirmSave(journalID string) (bool, error)
}

// =============================================================================
// RESOLVER
// =============================================================================

// Source records where a resolved value came from.
type Source string

const (
	SourceDocument   Source = "document"
	SourceIssue      Source = "issue"
	SourceConfig     Source = "config"
	SourceOperator   Source = "operator"
	SourceUnresolved Source = "unresolved"
)

// Resolution is the outcome for one field of one record.
type Resolution struct {
	Field  string
	Value  string
	Source Source
}

// IssueValues maps per-issue field names (volume, number, year) to the
// values derived from the issue folder. They apply to one run only.
type IssueValues map[string]string

// answerKey identifies a remembered operator answer.
type answerKey struct {
	journalID string
	field     string
}

// Options configures a Resolver.
type Options struct {
	// Prompter is nil in non-interactive mode.
	Prompter Prompter

	// MaxAttempts defaults to DefaultMaxAttempts.
	MaxAttempts int

	Logger *zap.Logger
}

// Resolver fills required fields of abstract records.
type Resolver struct {
	store       journal.Store
	prompter    Prompter
	validate    *validator.Validate
	maxAttempts int
	logger      *zap.Logger

	// lastAnswers holds the most recent operator answer per journal and
	// field so the prompt can offer it again for the next record.
	lastAnswers map[answerKey]string
}

// New creates a Resolver. store receives journal defaults the operator
// chooses to persist.
func New(store journal.Store, opts Options) *Resolver {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Resolver{
		store:       store,
		prompter:    opts.Prompter,
		validate:    newValidator(),
		maxAttempts: opts.MaxAttempts,
		logger:      opts.Logger,
		lastAnswers: make(map[answerKey]string),
	}
}

// Interactive reports whether the resolver may ask the operator.
func (r *Resolver) Interactive() bool {
	return r.prompter != nil
}

// Resolve runs the resolution order over every required field of rec.
// issue may be nil. cfg is updated (and saved) when the operator persists a
// new default.
//
// The returned error is only set when the prompter or the store fail;
// unresolved fields are reported as problems.
func (r *Resolver) Resolve(rec *abstractxml.Record, cfg *journal.Config, issue IssueValues) ([]Resolution, []types.Problem, error) {
	var resolutions []Resolution
	var problems []types.Problem

	for _, field := range Fields {
		res, problem, err := r.resolveField(rec, cfg, issue, field)
		if err != nil {
			return resolutions, problems, fmt.Errorf("failed to resolve %s for %s: %w", field.Name, rec.ID, err)
		}
		resolutions = append(resolutions, res)
		if problem != nil {
			problems = append(problems, *problem)
		}
	}

	return resolutions, problems, nil
}

func (r *Resolver) resolveField(rec *abstractxml.Record, cfg *journal.Config, issue IssueValues, field Field) (Resolution, *types.Problem, error) {
	current := field.current(rec)

	// 1. Document value.
	if current != "" && !abstractxml.IsPlaceholder(current) {
		if wellFormed(r.validate, field, current) {
			return Resolution{Field: field.Name, Value: current, Source: SourceDocument}, nil, nil
		}
		problem := types.Problem{
			RecordID: rec.ID,
			Field:    field.Name,
			Kind:     types.KindFieldMalformed,
			Severity: types.SeverityError,
			Location: field.Location(),
			Raw:      current,
			Message:  fmt.Sprintf("value does not match the expected format (%s)", field.Rule),
		}
		return Resolution{Field: field.Name, Value: current, Source: SourceUnresolved}, &problem, nil
	}

	previous := current

	// 2. Issue folder.
	if value := strings.TrimSpace(issue[field.Name]); field.PerIssue && value != "" {
		if wellFormed(r.validate, field, value) {
			field.fill(rec, value)
			r.logger.Debug("field filled from issue folder",
				zap.String("record", rec.ID), zap.String("field", field.Name), zap.String("value", value))
			return Resolution{Field: field.Name, Value: value, Source: SourceIssue}, nil, nil
		}
		previous = value
	}

	// 3. Journal default.
	if value := defaultFor(cfg, field); value != "" {
		if wellFormed(r.validate, field, value) {
			field.fill(rec, value)
			r.logger.Debug("field filled from journal config",
				zap.String("record", rec.ID), zap.String("field", field.Name), zap.String("value", value))
			return Resolution{Field: field.Name, Value: value, Source: SourceConfig}, nil, nil
		}
		r.logger.Warn("ignoring malformed journal default",
			zap.String("journal", cfg.JournalID), zap.String("field", field.Name), zap.String("value", value))
		previous = value
	}

	// 4. Operator.
	if r.prompter != nil {
		key := answerKey{journalID: cfg.JournalID, field: field.Name}
		if last, ok := r.lastAnswers[key]; ok {
			previous = last
		}
		value, ok, err := r.ask(rec, cfg, field, previous)
		if err != nil {
			return Resolution{}, nil, err
		}
		if ok {
			field.fill(rec, value)
			r.lastAnswers[key] = value
			if field.Shared {
				if err := r.offerPersist(cfg, field, value); err != nil {
					return Resolution{}, nil, err
				}
			}
			return Resolution{Field: field.Name, Value: value, Source: SourceOperator}, nil, nil
		}
	}

	// 5. Unresolved.
	problem := types.Problem{
		RecordID: rec.ID,
		Field:    field.Name,
		Kind:     types.KindFieldMissing,
		Severity: types.SeverityError,
		Location: field.Location(),
		Raw:      current,
		Message:  "required field is missing",
	}
	return Resolution{Field: field.Name, Source: SourceUnresolved}, &problem, nil
}

// ask requests a value until a well-formed one is given, the operator
// skips, or the attempt budget runs out.
func (r *Resolver) ask(rec *abstractxml.Record, cfg *journal.Config, field Field, previous string) (string, bool, error) {
	req := Request{
		JournalID: cfg.JournalID,
		RecordID:  rec.ID,
		Field:     field.Name,
		Question:  field.Prompt,
		Kind:      AnswerText,
		Previous:  previous,
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		resp, err := r.prompter.RequestValue(req)
		if err != nil {
			return "", false, fmt.Errorf("prompt failed: %w", err)
		}
		if resp.Skip {
			r.logger.Debug("operator skipped field", zap.String("record", rec.ID), zap.String("field", field.Name))
			return "", false, nil
		}
		if wellFormed(r.validate, field, abstractxml.EscapeText(resp.Value)) {
			return resp.Value, true, nil
		}

		req.Previous = resp.Value
		req.Reason = fmt.Sprintf("%q is not a valid %s", resp.Value, field.Name)
	}

	r.logger.Warn("no valid answer after maximum attempts",
		zap.String("record", rec.ID), zap.String("field", field.Name), zap.Int("attempts", r.maxAttempts))
	return "", false, nil
}

// offerPersist asks whether value becomes the journal default and saves the
// config right away when it does, so the next record reads it.
func (r *Resolver) offerPersist(cfg *journal.Config, field Field, value string) error {
	if cfg.Get(field.Name) == value {
		return nil
	}

	persist, err := r.prompter.OfferPersist(cfg.JournalID, field.Name, value)
	if err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	if !persist {
		return nil
	}

	cfg.Set(field.Name, value)
	if r.store == nil {
		return nil
	}
	if err := r.store.Save(cfg); err != nil {
		return fmt.Errorf("failed to save journal config: %w", err)
	}

	r.logger.Info("journal default saved",
		zap.String("journal", cfg.JournalID), zap.String("field", field.Name), zap.String("value", value))
	return nil
}

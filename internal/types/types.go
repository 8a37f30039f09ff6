// =============================================================================
// Abstract Preprocessor - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - resolver
//   - corrector
//   - report
//   - processor
//
// =============================================================================

package types

import "fmt"

// =============================================================================
// PROBLEM TYPES
// =============================================================================

// Kind classifies why a Problem was raised.
type Kind string

const (
	// KindFieldMissing means a required field could not be resolved from the
	// document, the journal config, or the operator.
	KindFieldMissing Kind = "field_missing"

	// KindFieldMalformed means the document carries a non-empty value that
	// does not match the field's format. The value is left untouched.
	KindFieldMalformed Kind = "field_malformed"

	// KindDefectAmbiguous means a known defect was detected but more than one
	// fix is plausible (or the fix could lose data).
	KindDefectAmbiguous Kind = "defect_ambiguous"
)

// Severity mirrors the "error"/"warning" split used for validation output.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Problem is one unresolved condition that needs manual attention.
// Problems are created during resolution or correction and never mutated.
type Problem struct {
	// RecordID is the identifier of the abstract record (the file stem).
	RecordID string

	// Field is the field or element the problem refers to (e.g. "issue-date").
	Field string

	// Check is the name of the defect check that raised the problem.
	// Empty for problems raised by the field resolver.
	Check string

	// Kind classifies the problem.
	Kind Kind

	// Severity is "error" for missing or malformed required data and
	// "warning" for ambiguous defects.
	Severity Severity

	// Location is a slash-separated element path such as
	// "article/authors/author[2]" or "article@pages".
	Location string

	// Raw is the value as found in the document.
	Raw string

	// Message is a human-readable description.
	Message string
}

// String formats the problem as a single report line.
func (p Problem) String() string {
	line := fmt.Sprintf("%s: [%s] %s: %s", p.RecordID, p.Severity, p.Field, p.Message)

	var context string
	switch {
	case p.Check != "" && p.Location != "":
		context = fmt.Sprintf("%s at %s", p.Check, p.Location)
	case p.Check != "":
		context = p.Check
	case p.Location != "":
		context = "at " + p.Location
	}
	if context != "" {
		line += " (" + context + ")"
	}
	if p.Raw != "" {
		line += fmt.Sprintf(" value: %q", p.Raw)
	}
	return line
}

// =============================================================================
// PROBLEM SET
// =============================================================================

// ProblemSet is an ordered list of problems that ignores exact duplicates.
// Running the same check twice over an unchanged record therefore never adds
// a second entry for the same condition.
type ProblemSet struct {
	items []Problem
	seen  map[Problem]struct{}
}

// Add appends problems that are not already present.
// It returns the number of problems actually added.
func (s *ProblemSet) Add(problems ...Problem) int {
	if s.seen == nil {
		s.seen = make(map[Problem]struct{})
	}
	added := 0
	for _, p := range problems {
		if _, dup := s.seen[p]; dup {
			continue
		}
		s.seen[p] = struct{}{}
		s.items = append(s.items, p)
		added++
	}
	return added
}

// Items returns the problems in insertion order.
func (s *ProblemSet) Items() []Problem {
	out := make([]Problem, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of problems in the set.
func (s *ProblemSet) Len() int {
	return len(s.items)
}

// =============================================================================
// DOCUMENT STAGES
// =============================================================================

// Stage is the processing state of one document. Stages only move forward:
//
//	Loaded -> FieldsResolved -> DefectsScanned -> {Clean, HasProblems}
type Stage int

const (
	StageLoaded Stage = iota
	StageFieldsResolved
	StageDefectsScanned
	StageClean
	StageHasProblems
)

// String returns the stage name used in logs.
func (s Stage) String() string {
	switch s {
	case StageLoaded:
		return "loaded"
	case StageFieldsResolved:
		return "fields_resolved"
	case StageDefectsScanned:
		return "defects_scanned"
	case StageClean:
		return "clean"
	case StageHasProblems:
		return "has_problems"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageClean || s == StageHasProblems
}

// Next returns the stage that follows s. For DefectsScanned the outcome
// depends on whether problems were recorded.
func (s Stage) Next(hasProblems bool) (Stage, error) {
	switch s {
	case StageLoaded:
		return StageFieldsResolved, nil
	case StageFieldsResolved:
		return StageDefectsScanned, nil
	case StageDefectsScanned:
		if hasProblems {
			return StageHasProblems, nil
		}
		return StageClean, nil
	default:
		return s, fmt.Errorf("no transition from terminal stage %s", s)
	}
}

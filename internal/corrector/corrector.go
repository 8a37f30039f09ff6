// =============================================================================
// Abstract Preprocessor - Error Corrector
// =============================================================================
//
// This module runs a fixed, ordered catalogue of defect checks over one
// abstract record.
//
// FOR EACH CHECK (in catalogue order):
//   1. Detect findings in the record
//   2. Unambiguous finding -> fixed in place, nothing reported
//   3. Ambiguous finding   -> record left unchanged, one Problem emitted
//
// Every check is idempotent: running the catalogue on an already corrected
// record changes nothing and yields the same problems again, which the
// problem set ignores as duplicates.
//
// CATALOGUE:
//   record-id, index-id, whitespace, hyphenation-break, na-placeholder,
//   escaped-markup, empty-inline-tag, mojibake, unicode-normalization,
//   keyword-delimiters, redundant-page-range, duplicate-author,
//   issue-discrepancy, copyright-notice
//
// Journal formatting passes (text-subs, section-headers, species-links)
// run after the catalogue when the journal config enables them.
//
// =============================================================================

package corrector

import (
	"go.uber.org/zap"

	"github.com/ginjaninja78/abstract-preprocessor/internal/abstractxml"
	"github.com/ginjaninja78/abstract-preprocessor/internal/journal"
	"github.com/ginjaninja78/abstract-preprocessor/internal/species"
	"github.com/ginjaninja78/abstract-preprocessor/internal/types"
)

// =============================================================================
// CHECK INTERFACE
// =============================================================================

// Check detects one kind of defect.
type Check interface {
	// Name identifies the check in problems and logs.
	Name() string

	// Detect returns the defects present in rec.
	Detect(rec *abstractxml.Record) []Finding

	// AttemptFix applies the fix for f. It returns false, leaving the record
	// unchanged, when the finding is ambiguous.
	AttemptFix(f Finding) bool

	// DescribeProblem turns an unfixed finding into a Problem.
	DescribeProblem(rec *abstractxml.Record, f Finding) types.Problem
}

// Finding is one detected defect.
type Finding struct {
	// Field is the element or attribute name, e.g. "keyword" or "pages".
	Field string

	// Location is the element path, e.g. "article/keywords/keyword[2]".
	Location string

	// Raw is the value as found.
	Raw string

	// Fixed is the corrected value. Unused when Ambiguous is set.
	Fixed string

	// Ambiguous findings are reported instead of fixed.
	Ambiguous bool

	// Reason describes an ambiguous finding.
	Reason string

	node *abstractxml.Node
	attr string
}

// textFix builds a finding that replaces the raw inner XML of a leaf.
func textFix(loc abstractxml.Located, fixed string) Finding {
	return Finding{
		Field:    loc.Node.Name(),
		Location: loc.Path,
		Raw:      loc.Node.Text(),
		Fixed:    fixed,
		node:     loc.Node,
	}
}

// attrFix builds a finding that replaces an <article> attribute.
func attrFix(rec *abstractxml.Record, attr, fixed string) Finding {
	return Finding{
		Field:    attr,
		Location: "article@" + attr,
		Raw:      rec.ArticleAttr(attr),
		Fixed:    fixed,
		node:     rec.Article(),
		attr:     attr,
	}
}

// ambiguous builds a finding that can only be reported.
func ambiguous(field, location, raw, reason string) Finding {
	return Finding{Field: field, Location: location, Raw: raw, Ambiguous: true, Reason: reason}
}

// base implements AttemptFix and DescribeProblem for checks whose fixes are
// plain value replacements.
type base struct {
	name string
}

func (b base) Name() string {
	return b.name
}

func (b base) AttemptFix(f Finding) bool {
	if f.Ambiguous || f.node == nil {
		return false
	}
	if f.attr != "" {
		f.node.SetAttr(f.attr, f.Fixed)
	} else {
		f.node.SetText(f.Fixed)
	}
	return true
}

func (b base) DescribeProblem(rec *abstractxml.Record, f Finding) types.Problem {
	reason := f.Reason
	if reason == "" {
		reason = "could not be corrected automatically"
	}
	return types.Problem{
		RecordID: rec.ID,
		Field:    f.Field,
		Check:    b.name,
		Kind:     types.KindDefectAmbiguous,
		Severity: types.SeverityWarning,
		Location: f.Location,
		Raw:      f.Raw,
		Message:  reason,
	}
}

// =============================================================================
// CORRECTOR
// =============================================================================

// Context carries what the checks need to know beyond the record itself.
type Context struct {
	// JournalID is the two-letter journal code (e.g. "ab").
	JournalID string

	// Config enables the formatting passes and keyword splitting.
	Config *journal.Config

	// Volume, Number and Year are the values expected from the issue folder
	// and file name. Empty values are not compared.
	Volume string
	Number string
	Year   string
}

// Result summarizes one Correct run.
type Result struct {
	Fixed    int
	Problems []types.Problem
}

// Corrector runs the defect catalogue.
type Corrector struct {
	species *species.List
	logger  *zap.Logger
}

// New creates a Corrector. speciesList may be nil, which disables species
// links regardless of the journal config.
func New(speciesList *species.List, logger *zap.Logger) *Corrector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Corrector{species: speciesList, logger: logger}
}

// Checks returns the catalogue followed by the enabled formatting passes.
func (c *Corrector) Checks(ctx Context) []Check {
	cfg := ctx.Config

	checks := []Check{
		recordIDCheck{base{"record-id"}},
		indexIDCheck{base{"index-id"}},
		whitespaceCheck{base{"whitespace"}},
		hyphenationCheck{base{"hyphenation-break"}},
		placeholderCheck{base{"na-placeholder"}},
		escapedMarkupCheck{base{"escaped-markup"}},
		emptyInlineTagCheck{base{"empty-inline-tag"}},
		mojibakeCheck{base{"mojibake"}},
		normalizationCheck{base{"unicode-normalization"}},
		keywordDelimiterCheck{base{"keyword-delimiters"}, cfg.Bool(journal.KeySplitKeywords)},
		pageRangeCheck{base{"redundant-page-range"}},
		duplicateAuthorCheck{base{"duplicate-author"}},
		issueDiscrepancyCheck{base{"issue-discrepancy"}, ctx},
		copyrightNoticeCheck{base{"copyright-notice"}, ctx.Year},
	}

	if cfg.Bool(journal.KeyTextSubs) {
		checks = append(checks, textSubsCheck{base{"text-subs"}})
	}
	if headers := newSectionHeaderCheck(cfg); headers != nil {
		checks = append(checks, *headers)
	}
	if cfg.Bool(journal.KeySpeciesLinks) && c.species.Len() > 0 {
		checks = append(checks, speciesLinkCheck{base{"species-links"}, c.species})
	}

	return checks
}

// Correct runs every check over rec, fixing what it can.
func (c *Corrector) Correct(rec *abstractxml.Record, ctx Context) Result {
	var result Result
	var problems types.ProblemSet

	for _, check := range c.Checks(ctx) {
		for _, finding := range check.Detect(rec) {
			if check.AttemptFix(finding) {
				result.Fixed++
				c.logger.Debug("defect fixed",
					zap.String("record", rec.ID),
					zap.String("check", check.Name()),
					zap.String("location", finding.Location))
				continue
			}
			problems.Add(check.DescribeProblem(rec, finding))
		}
	}

	result.Problems = problems.Items()
	return result
}

package corrector

import (
	"regexp"
	"strings"

	"github.com/ginjaninja78/abstract-preprocessor/internal/abstractxml"
	"github.com/ginjaninja78/abstract-preprocessor/internal/journal"
	"github.com/ginjaninja78/abstract-preprocessor/internal/species"
)

// =============================================================================
// TEXT SUBSTITUTIONS
// =============================================================================

// formulaReplacer formats common chemical formulas. H2O2 is listed before
// H2O so the longer formula wins.
var formulaReplacer = strings.NewReplacer(
	"H2O2", "H<sub>2</sub>O<sub>2</sub>",
	"H2SO4", "H<sub>2</sub>SO<sub>4</sub>",
	"H2O", "H<sub>2</sub>O",
)

var (
	halfDose        = regexp.MustCompile(`\b(LC|LD|IC|EC)50\b`)
	ammonium        = regexp.MustCompile(`\bNH([34])(\+)?`)
	oxide           = regexp.MustCompile(`\b([CNSP])O([234])\b`)
	inverseUnit     = regexp.MustCompile(`\b(mg|kg|g|ha|L|ml|mL)-1\b`)
	metreUnit       = regexp.MustCompile(`\b(cm|km|mm|m)([23])\b`)
	scientificPower = regexp.MustCompile(`(\d(?:[.,]\d+)?\s?(?:x|×|&#215;|&times;)\s?10)(?:\^(-?\d+)|(-\d+))`)
)

// substituteText applies the chemical, unit and notation substitutions.
// Every substitution produces markup its own pattern no longer matches.
func substituteText(s string) string {
	s = formulaReplacer.Replace(s)
	s = halfDose.ReplaceAllString(s, "${1}<sub>50</sub>")
	s = ammonium.ReplaceAllStringFunc(s, func(m string) string {
		parts := ammonium.FindStringSubmatch(m)
		out := "NH<sub>" + parts[1] + "</sub>"
		if parts[2] != "" {
			out += "<sup>+</sup>"
		}
		return out
	})
	s = oxide.ReplaceAllString(s, "${1}O<sub>${2}</sub>")
	s = inverseUnit.ReplaceAllString(s, "${1}<sup>-1</sup>")
	s = metreUnit.ReplaceAllString(s, "${1}<sup>${2}</sup>")
	s = scientificPower.ReplaceAllStringFunc(s, func(m string) string {
		parts := scientificPower.FindStringSubmatch(m)
		exponent := parts[2]
		if exponent == "" {
			exponent = parts[3]
		}
		return parts[1] + "<sup>" + exponent + "</sup>"
	})
	return s
}

type textSubsCheck struct{ base }

func (c textSubsCheck) Detect(rec *abstractxml.Record) []Finding {
	return rewriteLeaves(leavesNamed(rec, "title", "abstract"), substituteText)
}

// =============================================================================
// SECTION HEADERS
// =============================================================================

// sectionHeader matches structured-abstract headings followed by a colon,
// in English, Spanish, Portuguese and French.
var sectionHeader = regexp.MustCompile(`(?i)\b(?:background|context|introduction|purpose|case presentation|aims?|objectives?|` +
	`(?:materials|data) and methods?|data sources? (?:&amp;|and) methods?|methodology|methods?|results?|findings?|` +
	`discussions?|conclusions?|main conclusions?|antecedentes?|objetivos?|` +
	`m(?:é|&#233;|&eacute;)todos|resultados|conclusiones|objectif|` +
	`m(?:é|&#233;|&eacute;)thodologie|r(?:é|&#233;|&eacute;)sultats)\s*:`)

// sectionHeaderCheck wraps headings in the journal's chosen markup.
// The heading at the very start of the abstract gets no leading breaks.
type sectionHeaderCheck struct {
	base
	introFront string
	front      string
	back       string
}

func newSectionHeaderCheck(cfg *journal.Config) *sectionHeaderCheck {
	bold := cfg.Bool(journal.KeyBoldHeaders)
	italic := cfg.Bool(journal.KeyItalicHeaders)
	before := cfg.Int(journal.KeyNewlinesBefore)
	after := cfg.Int(journal.KeyNewlinesAfter)
	if !bold && !italic && before <= 0 && after <= 0 {
		return nil
	}

	var open, closing string
	if bold {
		open += "<b>"
	}
	if italic {
		open += "<i>"
		closing += "</i>"
	}
	if bold {
		closing += "</b>"
	}

	return &sectionHeaderCheck{
		base:       base{"section-headers"},
		introFront: open,
		front:      strings.Repeat("<br/>", max(before, 0)) + open,
		back:       closing + strings.Repeat("<br/>", max(after, 0)),
	}
}

func (c sectionHeaderCheck) Detect(rec *abstractxml.Record) []Finding {
	return rewriteLeaves(leavesNamed(rec, "abstract"), c.wrap)
}

func (c sectionHeaderCheck) wrap(s string) string {
	spans := sectionHeader.FindAllStringIndex(s, -1)

	for i := len(spans) - 1; i >= 0; i-- {
		start, end := spans[i][0], spans[i][1]
		before, after := s[:start], s[end:]
		if c.alreadyWrapped(before, after) {
			continue
		}

		front := c.front
		if strings.TrimSpace(before) == "" {
			front = c.introFront
		}
		s = before + front + s[start:end] + c.back + after
	}
	return s
}

func (c sectionHeaderCheck) alreadyWrapped(before, after string) bool {
	for _, tag := range []string{"<b>", "<i>", "<br/>"} {
		if strings.HasSuffix(before, tag) {
			return true
		}
	}
	return c.back != "" && strings.HasPrefix(after, c.back)
}

// =============================================================================
// SPECIES LINKS
// =============================================================================

type speciesLinkCheck struct {
	base
	list *species.List
}

func (c speciesLinkCheck) Detect(rec *abstractxml.Record) []Finding {
	return rewriteLeaves(leavesNamed(rec, "title", "abstract"), func(s string) string {
		out, _ := c.list.Annotate(s)
		return out
	})
}

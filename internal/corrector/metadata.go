package corrector

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/abstract-preprocessor/internal/abstractxml"
	"github.com/ginjaninja78/abstract-preprocessor/internal/resolver"
)

// =============================================================================
// KEYWORDS
// =============================================================================

var (
	// delimiterRun matches a run of delimiters containing at least one
	// semicolon, e.g. ";;", ",;" or " ; ,".
	delimiterRun      = regexp.MustCompile(`(?:\s*,)*\s*;(?:\s*[;,])*`)
	trailingDelimiter = regexp.MustCompile(`\s*[;,]+\s*$`)
	entityPattern     = regexp.MustCompile(`&[#\w]+;`)
)

// entityMark stands in for character references while delimiters are
// rewritten, so the ";" of "&#233;" is never taken for a separator.
const entityMark = "\uE000"

type keywordDelimiterCheck struct {
	base
	split bool
}

func (c keywordDelimiterCheck) Detect(rec *abstractxml.Record) []Finding {
	var findings []Finding

	for _, leaf := range leavesNamed(rec, "keyword") {
		raw := leaf.Node.Text()
		masked, entities := maskEntities(raw)

		fixed := fixDelimiters(masked, c.split)
		if !c.split && strings.Contains(fixed, ",") && strings.Contains(fixed, ";") {
			findings = append(findings, ambiguous(leaf.Node.Name(), leaf.Path, raw,
				"keywords mix commas and semicolons"))
			continue
		}
		if fixed != masked {
			findings = append(findings, textFix(leaf, unmaskEntities(fixed, entities)))
		}
	}

	return findings
}

func fixDelimiters(s string, split bool) string {
	if split {
		s = strings.ReplaceAll(s, ",", ";")
	}
	s = delimiterRun.ReplaceAllLiteralString(s, ";")
	return trailingDelimiter.ReplaceAllString(s, "")
}

func maskEntities(s string) (string, []string) {
	entities := entityPattern.FindAllString(s, -1)
	if len(entities) == 0 {
		return s, nil
	}
	return entityPattern.ReplaceAllLiteralString(s, entityMark), entities
}

func unmaskEntities(s string, entities []string) string {
	for _, entity := range entities {
		s = strings.Replace(s, entityMark, entity, 1)
	}
	return s
}

// =============================================================================
// PAGES
// =============================================================================

var pageRange = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+)\s*$`)

type pageRangeCheck struct{ base }

func (c pageRangeCheck) Detect(rec *abstractxml.Record) []Finding {
	pages := rec.ArticleAttr("pages")
	m := pageRange.FindStringSubmatch(pages)
	if m == nil {
		return nil
	}

	first, _ := strconv.Atoi(m[1])
	last, _ := strconv.Atoi(m[2])
	switch {
	case first == last:
		return []Finding{attrFix(rec, "pages", m[1])}
	case first > last:
		return []Finding{ambiguous("pages", "article@pages", pages, "page range is reversed")}
	default:
		return nil
	}
}

// =============================================================================
// AUTHORS
// =============================================================================

type duplicateAuthorCheck struct{ base }

func (c duplicateAuthorCheck) Detect(rec *abstractxml.Record) []Finding {
	type occurrence struct {
		display string
		path    string
		count   int
	}

	var order []string
	seen := make(map[string]*occurrence)

	for _, author := range rec.Find("author") {
		display := authorName(author.Node)
		key := strings.ToLower(display)
		if key == "" {
			continue
		}
		if o, ok := seen[key]; ok {
			o.count++
			if o.count == 2 {
				o.path = author.Path
			}
			continue
		}
		seen[key] = &occurrence{display: display, path: author.Path, count: 1}
		order = append(order, key)
	}

	var findings []Finding
	for _, key := range order {
		o := seen[key]
		if o.count < 2 {
			continue
		}
		findings = append(findings, ambiguous("author", o.path, o.display,
			fmt.Sprintf("author listed %d times", o.count)))
	}
	return findings
}

// authorName returns "Lastname, Firstname" for structured authors or the
// normalized text of a plain <author> element.
func authorName(node *abstractxml.Node) string {
	if node.IsLeaf() {
		return normalizeSpace(abstractxml.UnescapeText(node.Text()))
	}

	var parts []string
	for _, name := range []string{"lastname", "firstname"} {
		if found := node.Find(name); len(found) > 0 {
			if text := normalizeSpace(abstractxml.UnescapeText(found[0].Node.Text())); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// ISSUE METADATA
// =============================================================================

type issueDiscrepancyCheck struct {
	base
	ctx Context
}

func (c issueDiscrepancyCheck) Detect(rec *abstractxml.Record) []Finding {
	expected := []struct{ attr, value string }{
		{"volume", c.ctx.Volume},
		{"number", c.ctx.Number},
		{"year", c.ctx.Year},
	}

	var findings []Finding
	for _, e := range expected {
		actual := strings.TrimSpace(rec.ArticleAttr(e.attr))
		if e.value == "" || actual == "" || sameIssueValue(actual, e.value) {
			continue
		}
		// A value that breaks the field's format is already reported by
		// the resolver.
		if !resolver.WellFormed(e.attr, actual) {
			continue
		}
		findings = append(findings, ambiguous(e.attr, "article@"+e.attr, actual,
			fmt.Sprintf("does not match the issue folder (expected %s)", e.value)))
	}
	return findings
}

// sameIssueValue compares ignoring case and leading zeros ("03" == "3").
func sameIssueValue(a, b string) bool {
	trim := func(s string) string {
		s = strings.TrimLeft(s, "0")
		if s == "" {
			return "0"
		}
		return strings.ToLower(s)
	}
	return trim(a) == trim(b)
}

// =============================================================================
// COPYRIGHT
// =============================================================================

var (
	copyrightPrefix = regexp.MustCompile(`(?i)^\s*(?:copyright\b|©|&copy;|&#169;|\(c\))`)
	fourDigitYear   = regexp.MustCompile(`^\d{4}$`)
)

type copyrightNoticeCheck struct {
	base
	year string
}

func (c copyrightNoticeCheck) Detect(rec *abstractxml.Record) []Finding {
	year := strings.TrimSpace(rec.ArticleAttr("year"))
	if !fourDigitYear.MatchString(year) {
		year = c.year
	}
	if year == "" {
		return nil
	}

	return rewriteLeaves(leavesNamed(rec, "copyright"), func(s string) string {
		holder := strings.TrimSpace(s)
		if holder == "" || abstractxml.IsPlaceholder(holder) || copyrightPrefix.MatchString(holder) {
			return s
		}
		return fmt.Sprintf("Copyright %s - %s", year, holder)
	})
}

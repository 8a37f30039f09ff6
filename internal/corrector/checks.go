package corrector

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/abstract-preprocessor/internal/abstractxml"
)

// leavesNamed returns the text leaves with one of the given names.
func leavesNamed(rec *abstractxml.Record, names ...string) []abstractxml.Located {
	var out []abstractxml.Located
	for _, leaf := range rec.Leaves() {
		for _, name := range names {
			if leaf.Node.Name() == name {
				out = append(out, leaf)
				break
			}
		}
	}
	return out
}

// rewriteLeaves returns a fix for every leaf whose text fn changes.
func rewriteLeaves(leaves []abstractxml.Located, fn func(string) string) []Finding {
	var findings []Finding
	for _, leaf := range leaves {
		raw := leaf.Node.Text()
		if fixed := fn(raw); fixed != raw {
			findings = append(findings, textFix(leaf, fixed))
		}
	}
	return findings
}

// =============================================================================
// RECORD AND INDEX IDENTIFIERS
// =============================================================================

// placeholderID matches the "<journal>xxx" id templates use before an
// abstract is numbered, e.g. "abxxx".
var placeholderID = regexp.MustCompile(`(?i)\b[a-z]{2}xxx\b`)

type recordIDCheck struct{ base }

func (c recordIDCheck) Detect(rec *abstractxml.Record) []Finding {
	id := strings.TrimSpace(rec.ArticleAttr("id"))

	switch {
	case id == rec.ID:
		return nil
	case id == "" || placeholderID.FindString(id) == id:
		return []Finding{attrFix(rec, "id", rec.ID)}
	default:
		return []Finding{ambiguous("id", "article@id", id,
			fmt.Sprintf("record id differs from file name %s", rec.ID))}
	}
}

type indexIDCheck struct{ base }

func (c indexIDCheck) Detect(rec *abstractxml.Record) []Finding {
	return rewriteLeaves(leavesNamed(rec, "index"), func(s string) string {
		return placeholderID.ReplaceAllLiteralString(s, rec.ID)
	})
}

// =============================================================================
// WHITESPACE AND LINE BREAKS
// =============================================================================

var spaceRun = regexp.MustCompile(`[ \t]*\t[ \t]*| {2,}`)

func normalizeSpace(s string) string {
	return spaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

type whitespaceCheck struct{ base }

func (c whitespaceCheck) Detect(rec *abstractxml.Record) []Finding {
	var findings []Finding
	for _, attr := range rec.Article().Attrs {
		if fixed := normalizeSpace(attr.Value); fixed != attr.Value {
			findings = append(findings, attrFix(rec, attr.Name.Local, fixed))
		}
	}
	return append(findings, rewriteLeaves(rec.Leaves(), normalizeSpace)...)
}

var hyphenBreak = regexp.MustCompile(`-\r?\n[ \t]*`)

type hyphenationCheck struct{ base }

func (c hyphenationCheck) Detect(rec *abstractxml.Record) []Finding {
	return rewriteLeaves(leavesNamed(rec, "title", "abstract"), func(s string) string {
		return hyphenBreak.ReplaceAllString(s, "-")
	})
}

// =============================================================================
// PLACEHOLDERS
// =============================================================================

type placeholderCheck struct{ base }

func (c placeholderCheck) Detect(rec *abstractxml.Record) []Finding {
	return rewriteLeaves(leavesNamed(rec, "author", "lastname", "title"), func(s string) string {
		if abstractxml.IsPlaceholder(s) {
			return ""
		}
		return s
	})
}

// =============================================================================
// MARKUP
// =============================================================================

var (
	escapedTag   = regexp.MustCompile(`(?i)&lt;(/?)(i|b|sup|sub)&gt;|&lt;br\s*/?&gt;`)
	balancedTags = regexp.MustCompile(`<(/?)(i|b|sup|sub)>`)
)

type escapedMarkupCheck struct{ base }

func (c escapedMarkupCheck) Detect(rec *abstractxml.Record) []Finding {
	var findings []Finding

	for _, leaf := range leavesNamed(rec, "title", "abstract", "keyword") {
		raw := leaf.Node.Text()
		if !escapedTag.MatchString(raw) {
			continue
		}

		unescaped := escapedTag.ReplaceAllStringFunc(raw, func(m string) string {
			parts := escapedTag.FindStringSubmatch(m)
			if parts[2] == "" {
				return "<br/>"
			}
			return "<" + parts[1] + strings.ToLower(parts[2]) + ">"
		})

		fixed, ok := closeTags(unescaped)
		if !ok {
			findings = append(findings, ambiguous(leaf.Node.Name(), leaf.Path, raw,
				"escaped formatting tags are unbalanced"))
			continue
		}
		findings = append(findings, textFix(leaf, fixed))
	}

	return findings
}

// closeTags verifies that i/b/sup/sub tags nest properly. Tags left open at
// the end are closed; a stray or crossing close tag makes the text
// ambiguous.
func closeTags(s string) (string, bool) {
	var open []string
	for _, m := range balancedTags.FindAllStringSubmatch(s, -1) {
		closing, name := m[1] == "/", m[2]
		if !closing {
			open = append(open, name)
			continue
		}
		if len(open) == 0 || open[len(open)-1] != name {
			return s, false
		}
		open = open[:len(open)-1]
	}

	for i := len(open) - 1; i >= 0; i-- {
		s += "</" + open[i] + ">"
	}
	return s, true
}

var emptyInlineTag = func() *regexp.Regexp {
	var alternatives []string
	for _, tag := range []string{"i", "b", "u", "em", "strong", "sup", "sub"} {
		alternatives = append(alternatives, fmt.Sprintf(`<%s>\s*</%s>|<%s\s*/>`, tag, tag, tag))
	}
	return regexp.MustCompile(strings.Join(alternatives, "|"))
}()

type emptyInlineTagCheck struct{ base }

func (c emptyInlineTagCheck) Detect(rec *abstractxml.Record) []Finding {
	return rewriteLeaves(leavesNamed(rec, "title", "abstract"), removeEmptyTags)
}

// removeEmptyTags repeats until stable so <b><i></i></b> goes away entirely.
// The spaces that surrounded a removed tag are collapsed again.
func removeEmptyTags(s string) string {
	out := s
	for {
		next := emptyInlineTag.ReplaceAllString(out, "")
		if next == out {
			break
		}
		out = next
	}
	if out == s {
		return s
	}
	return normalizeSpace(out)
}

// =============================================================================
// ENCODING
// =============================================================================

// mojibakeReplacer undoes UTF-8 text that was decoded as Windows-1252 once,
// e.g. "Ã©" -> "é" and "â€™" -> "’". The table is derived from the code page
// so it covers every Latin-1 letter and the usual typographic punctuation.
var mojibakeReplacer = buildMojibakeReplacer()

// mojibakeResidue matches damage the table cannot undo.
var mojibakeResidue = regexp.MustCompile(`\x{FFFD}|â€|Ã[\x{80}-\x{9F}]`)

func buildMojibakeReplacer() *strings.Replacer {
	candidates := []rune("’‘“”–—…•€°±µºª¿¡«»·©®")
	for r := rune(0xC0); r <= 0xFF; r++ {
		candidates = append(candidates, r)
	}

	type pair struct{ garbled, fixed string }
	var pairs []pair
	for _, r := range candidates {
		fixed := string(r)
		garbled, err := charmap.Windows1252.NewDecoder().String(fixed)
		if err != nil || garbled == fixed || !printable(garbled) {
			continue
		}
		pairs = append(pairs, pair{garbled, fixed})
	}

	// Longest first: the replacer prefers earlier arguments.
	sort.SliceStable(pairs, func(i, j int) bool {
		return utf8.RuneCountInString(pairs[i].garbled) > utf8.RuneCountInString(pairs[j].garbled)
	})

	args := make([]string, 0, len(pairs)*2)
	for _, p := range pairs {
		args = append(args, p.garbled, p.fixed)
	}
	return strings.NewReplacer(args...)
}

func printable(s string) bool {
	for _, r := range s {
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) || r == utf8.RuneError {
			return false
		}
	}
	return true
}

type mojibakeCheck struct{ base }

func (c mojibakeCheck) Detect(rec *abstractxml.Record) []Finding {
	var findings []Finding

	for _, leaf := range rec.Leaves() {
		raw := leaf.Node.Text()
		fixed := mojibakeReplacer.Replace(raw)
		if fixed != raw {
			findings = append(findings, textFix(leaf, fixed))
		}
		if mojibakeResidue.MatchString(fixed) {
			findings = append(findings, ambiguous(leaf.Node.Name(), leaf.Path, fixed,
				"text contains undecodable characters (possible data loss)"))
		}
	}

	return findings
}

type normalizationCheck struct{ base }

func (c normalizationCheck) Detect(rec *abstractxml.Record) []Finding {
	return rewriteLeaves(rec.Leaves(), norm.NFC.String)
}

// =============================================================================
// Abstract Preprocessor - Species Links
// =============================================================================
//
// This module marks up species names in titles and abstracts.
//
// LIST FORMAT (one species per line):
//   Aedes aegypti
//   *Culex quinquefasciatus      <- pseudospecies: italicised, never linked
//   # comment
//
// MARKUP:
//   The first full mention of a listed species becomes a taxon link:
//     <taxon genus="Aedes" species="aegypti" sub-prefix="" sub-species="">
//       <sp>Aedes</sp> <sp>aegypti</sp></taxon>
//   Later full mentions and abbreviated mentions ("A. aegypti") are
//   italicised. Text already inside <taxon> or <i> is never touched, so
//   annotating twice changes nothing.
//
// =============================================================================

package species

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
)

// Entry is one species from the list.
type Entry struct {
	Genus   string
	Species string

	// Pseudo marks names that have no database entry to link to.
	Pseudo bool

	full  *regexp.Regexp
	short *regexp.Regexp
}

// Name returns "Genus species".
func (e Entry) Name() string {
	return e.Genus + " " + e.Species
}

// List is an ordered species list.
type List struct {
	entries []Entry
}

// Load reads a species list file.
func Load(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open species list: %w", err)
	}
	defer f.Close()

	list, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read species list %s: %w", path, err)
	}
	return list, nil
}

// Parse reads a species list. Lines with fewer than two words (a bare
// genus) are ignored.
func Parse(r io.Reader) (*List, error) {
	list := &List{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pseudo := strings.HasPrefix(line, "*")
		parts := strings.Fields(strings.TrimPrefix(line, "*"))
		if len(parts) < 2 {
			continue
		}

		entry := newEntry(parts[0], strings.Join(parts[1:], " "), pseudo)
		key := strings.ToLower(entry.Name())
		if seen[key] {
			continue
		}
		seen[key] = true
		list.entries = append(list.entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Longer names first so "Aedes aegypti formosus" is not split by
	// "Aedes aegypti".
	sort.SliceStable(list.entries, func(i, j int) bool {
		return len(list.entries[i].Name()) > len(list.entries[j].Name())
	})
	return list, nil
}

func newEntry(genus, species string, pseudo bool) Entry {
	words := strings.Fields(species)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	speciesPattern := strings.Join(words, `\s+`)

	return Entry{
		Genus:   genus,
		Species: species,
		Pseudo:  pseudo,
		full:    regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(genus) + `\s+` + speciesPattern + `\b`),
		short:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(genus[:1]) + `\.\s*` + speciesPattern + `\b`),
	}
}

// Len returns the number of species in the list.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Entries returns the species in matching order.
func (l *List) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// =============================================================================
// ANNOTATION
// =============================================================================

// protectedPattern matches markup whose content must not be annotated again.
var protectedPattern = regexp.MustCompile(`(?is)<taxon\b[^>]*>.*?</taxon>|<i>.*?</i>|<[^>]*>`)

// Annotate adds species markup to raw inner XML and reports whether
// anything changed.
func (l *List) Annotate(text string) (string, bool) {
	if l == nil {
		return text, false
	}

	changed := false
	for _, entry := range l.entries {
		var updated bool
		text, updated = entry.annotate(text)
		changed = changed || updated
	}
	return text, changed
}

func (e Entry) annotate(text string) (string, bool) {
	linked := e.Pseudo || hasLink(text, e.Genus, e.Species)

	full := unprotected(text, e.full)
	out, changed := rewrite(text, full, func(i int, match string) string {
		name := collapseSpaces(match)
		if i == 0 && !linked {
			return Link(name)
		}
		return "<i>" + name + "</i>"
	})

	short := unprotected(out, e.short)
	out, shortChanged := rewrite(out, short, func(_ int, match string) string {
		return "<i>" + collapseSpaces(match) + "</i>"
	})

	return out, changed || shortChanged
}

// unprotected returns the matches of re that do not overlap protected markup.
func unprotected(text string, re *regexp.Regexp) [][]int {
	protected := protectedPattern.FindAllStringIndex(text, -1)

	var matches [][]int
	for _, m := range re.FindAllStringIndex(text, -1) {
		inside := false
		for _, p := range protected {
			if m[0] < p[1] && p[0] < m[1] {
				inside = true
				break
			}
		}
		if !inside {
			matches = append(matches, m)
		}
	}
	return matches
}

// rewrite replaces the given spans, last first so earlier offsets stay valid.
func rewrite(text string, spans [][]int, replace func(i int, match string) string) (string, bool) {
	for i := len(spans) - 1; i >= 0; i-- {
		start, end := spans[i][0], spans[i][1]
		text = text[:start] + replace(i, text[start:end]) + text[end:]
	}
	return text, len(spans) > 0
}

func hasLink(text, genus, species string) bool {
	marker := fmt.Sprintf(`<taxon genus="%s" species="%s"`, strings.ToLower(genus), strings.ToLower(strings.Fields(species)[0]))
	return strings.Contains(strings.ToLower(text), marker)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// =============================================================================
// LINK FORMS
// =============================================================================

// Link converts a species name into taxon markup. The form depends on the
// number of words:
//
//	Brassica                         genus only
//	Brassica spp.                    genus only
//	Brassica oleracea                genus + species
//	Brassica oleracea capitata       genus + species + sub-species
//	Brassica (brassica) oleracea     parenthesised species
//	Brassica (cabbage) oleracea      parenthesised common name
//	Brassica oleracea var capitata   with sub-prefix
//	Brassica oleracea var. nov. cap  merged qualifiers
func Link(name string) string {
	tokens := strings.Fields(name)

	switch {
	case len(tokens) == 0:
		return name
	case len(tokens) == 1, len(tokens) == 2 && (tokens[1] == "sp." || tokens[1] == "spp."):
		return taxon(tokens[0], "", "", "", fmt.Sprintf("<sp>%s</sp>", tokens[0]))
	case len(tokens) == 2:
		return taxon(tokens[0], tokens[1], "", "",
			fmt.Sprintf("<sp>%s</sp> <sp>%s</sp>", tokens[0], tokens[1]))
	case len(tokens) == 3 && enclosedMatch(tokens[0], tokens[1]):
		return taxon(tokens[0], tokens[1][1:len(tokens[1])-1], "", tokens[2],
			fmt.Sprintf("<sp>%s</sp> <sp>%s</sp> <sp>%s</sp>", tokens[0], tokens[1], tokens[2]))
	case len(tokens) == 3 && parenthetical(tokens[1]):
		return taxon(tokens[0], tokens[2], "", "",
			fmt.Sprintf("<sp>%s</sp> %s <sp>%s</sp>", tokens[0], tokens[1], tokens[2]))
	case len(tokens) == 3:
		return taxon(tokens[0], tokens[1], "", tokens[2],
			fmt.Sprintf("<sp>%s</sp> <sp>%s</sp> <sp>%s</sp>", tokens[0], tokens[1], tokens[2]))
	case len(tokens) == 4:
		return taxon(tokens[0], tokens[1], tokens[2], tokens[3],
			fmt.Sprintf("<sp>%s</sp> <sp>%s</sp> %s <sp>%s</sp>", tokens[0], tokens[1], tokens[2], tokens[3]))
	default:
		merged := strings.Join(tokens[2:len(tokens)-1], " ")
		last := tokens[len(tokens)-1]
		return taxon(tokens[0], tokens[1], "", last,
			fmt.Sprintf("<sp>%s</sp> <sp>%s</sp> %s <sp>%s</sp>", tokens[0], tokens[1], merged, last))
	}
}

func taxon(genus, species, subPrefix, subSpecies, body string) string {
	return fmt.Sprintf(`<taxon genus="%s" species="%s" sub-prefix="%s" sub-species="%s">%s</taxon>`,
		genus, species, subPrefix, subSpecies, body)
}

// enclosedMatch reports whether s2 is s1 wrapped in one character on each
// side, e.g. "(brassica)" for "Brassica".
func enclosedMatch(s1, s2 string) bool {
	if len(s2) != len(s1)+2 {
		return false
	}
	return strings.EqualFold(s1, s2[1:len(s2)-1])
}

func parenthetical(s string) bool {
	return len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')'
}

var linkPattern = regexp.MustCompile(`(?s)^<taxon genus="[^"]*" species="[^"]*" sub-prefix="[^"]*" sub-species="[^"]*">.*</taxon>$`)

// IsLink reports whether text is exactly one taxon link.
func IsLink(text string) bool {
	return linkPattern.MatchString(text)
}

var (
	taxonOpenPattern = regexp.MustCompile(`<taxon\b[^>]*>`)
	spTagPattern     = regexp.MustCompile(`</?sp>`)
)

// Unlink strips taxon markup, leaving the plain name.
func Unlink(text string) string {
	text = taxonOpenPattern.ReplaceAllString(text, "")
	text = spTagPattern.ReplaceAllString(text, "")
	return strings.ReplaceAll(text, "</taxon>", "")
}

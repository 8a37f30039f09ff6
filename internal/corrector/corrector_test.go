package corrector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/abstract-preprocessor/internal/abstractxml"
	"github.com/ginjaninja78/abstract-preprocessor/internal/journal"
	"github.com/ginjaninja78/abstract-preprocessor/internal/species"
	"github.com/ginjaninja78/abstract-preprocessor/internal/types"
)

func mustRecord(t *testing.T, data string) *abstractxml.Record {
	t.Helper()
	rec, err := abstractxml.NewRecord("ab20001.xml", []byte(data))
	require.NoError(t, err)
	return rec
}

// article wraps body elements in a minimal abstract document.
func article(attrs, body string) string {
	return `<bioline><article id="ab20001" ` + attrs + `>` + body + `</article></bioline>`
}

const messyAbstract = `<?xml version="1.0" encoding="UTF-8"?>
<bioline>
  <article id="abxxx" volume="20" number="3" year="2020" pages="12-12">
    <title>Effects  of H2O on &lt;i&gt;Aedes aegypti&lt;/i&gt; larvae in S&#227;o Paulo</title>
    <index>abxxx</index>
    <authors>
      <author><lastname>Smith</lastname><firstname>Ann</firstname></author>
      <author><lastname>N/A</lastname></author>
    </authors>
    <abstract>Background: Dengue is trans-
 mitted by Aedes aegypti. Results: CafÃ© <i></i>mosquitoes. Conclusions: done</abstract>
    <keywords><keyword>mosquito,; dengue;; control</keyword></keywords>
    <copyright>Bioline</copyright>
  </article>
</bioline>`

func messyContext() Context {
	return Context{
		JournalID: "ab",
		Config: journal.NewConfig("ab", map[string]string{
			journal.KeyTextSubs:       "true",
			journal.KeyBoldHeaders:    "true",
			journal.KeyNewlinesBefore: "1",
			journal.KeySpeciesLinks:   "true",
		}),
		Volume: "20",
		Number: "4",
		Year:   "2020",
	}
}

func newSpeciesCorrector(t *testing.T) *Corrector {
	t.Helper()
	list, err := species.Parse(strings.NewReader("Aedes aegypti\n"))
	require.NoError(t, err)
	return New(list, nil)
}

func TestCorrect_MessyAbstract(t *testing.T) {
	rec := mustRecord(t, messyAbstract)
	result := newSpeciesCorrector(t).Correct(rec, messyContext())

	assert.Positive(t, result.Fixed)
	assert.Equal(t, "ab20001", rec.ArticleAttr("id"))
	assert.Equal(t, "12", rec.ArticleAttr("pages"))
	assert.Equal(t, "ab20001", rec.First("index").Text())
	assert.Equal(t, "Effects of H<sub>2</sub>O on <i>Aedes aegypti</i> larvae in S&#227;o Paulo", rec.First("title").Text())
	assert.Equal(t, "", rec.Find("lastname")[1].Node.Text())
	assert.Equal(t, "mosquito; dengue; control", rec.First("keyword").Text())
	assert.Equal(t, "Copyright 2020 - Bioline", rec.First("copyright").Text())
	assert.Equal(t,
		"<b>Background:</b> Dengue is trans-mitted by "+species.Link("Aedes aegypti")+
			". <br/><b>Results:</b> Café mosquitoes. <br/><b>Conclusions:</b> done",
		rec.First("abstract").Text())

	// Only the issue number disagrees with the folder.
	require.Len(t, result.Problems, 1)
	p := result.Problems[0]
	assert.Equal(t, "ab20001", p.RecordID)
	assert.Equal(t, "number", p.Field)
	assert.Equal(t, "issue-discrepancy", p.Check)
	assert.Equal(t, types.KindDefectAmbiguous, p.Kind)
	assert.Equal(t, "3", rec.ArticleAttr("number"))
}

func TestCorrect_IsIdempotent(t *testing.T) {
	c := newSpeciesCorrector(t)
	rec := mustRecord(t, messyAbstract)

	first := c.Correct(rec, messyContext())
	afterFirst := string(rec.Bytes())

	second := c.Correct(rec, messyContext())
	assert.Zero(t, second.Fixed)
	assert.Equal(t, afterFirst, string(rec.Bytes()))
	assert.Equal(t, first.Problems, second.Problems)

	var all types.ProblemSet
	all.Add(first.Problems...)
	assert.Zero(t, all.Add(second.Problems...))

	// Reparsing the written output changes nothing either.
	reparsed := mustRecord(t, afterFirst)
	third := c.Correct(reparsed, messyContext())
	assert.Zero(t, third.Fixed)
	assert.Equal(t, afterFirst, string(reparsed.Bytes()))
}

func TestCorrect_EmptyTagBetweenSpacesIsIdempotent(t *testing.T) {
	c := New(nil, nil)
	rec := mustRecord(t, article(`year="2020"`,
		`<title><b></b> Title</title><abstract>Dengue <i></i> mosquitoes</abstract>`))

	first := c.Correct(rec, Context{})
	assert.Positive(t, first.Fixed)
	assert.Equal(t, "Title", rec.First("title").Text())
	assert.Equal(t, "Dengue mosquitoes", rec.First("abstract").Text())

	afterFirst := string(rec.Bytes())
	second := c.Correct(rec, Context{})
	assert.Zero(t, second.Fixed)
	assert.Equal(t, afterFirst, string(rec.Bytes()))
}

func TestCorrect_DuplicateDelimiterFixedSilently(t *testing.T) {
	rec := mustRecord(t, article(`year="2020"`, `<keywords><keyword>mosquito;; dengue</keyword></keywords>`))

	result := New(nil, nil).Correct(rec, Context{})
	assert.Empty(t, result.Problems)
	assert.Equal(t, "mosquito; dengue", rec.First("keyword").Text())
}

func TestCorrect_DuplicateAuthorReportedOnce(t *testing.T) {
	data := article(`year="2020"`, `<authors>
		<author><lastname>Silva</lastname><firstname>Ana</firstname></author>
		<author><lastname>Costa</lastname><firstname>Rui</firstname></author>
		<author><lastname>silva</lastname><firstname>Ana</firstname></author>
	</authors>`)
	rec := mustRecord(t, data)
	before := string(rec.Bytes())

	result := New(nil, nil).Correct(rec, Context{})

	require.Len(t, result.Problems, 1)
	p := result.Problems[0]
	assert.Equal(t, "ab20001", p.RecordID)
	assert.Equal(t, "author", p.Field)
	assert.Equal(t, "duplicate-author", p.Check)
	assert.Equal(t, "article/authors/author[3]", p.Location)
	assert.Equal(t, "Silva, Ana", p.Raw)
	assert.Equal(t, before, string(rec.Bytes()))
}

func TestChecks_CatalogueOrder(t *testing.T) {
	c := New(nil, nil)

	var names []string
	for _, check := range c.Checks(Context{}) {
		names = append(names, check.Name())
	}
	assert.Equal(t, []string{
		"record-id", "index-id", "whitespace", "hyphenation-break", "na-placeholder",
		"escaped-markup", "empty-inline-tag", "mojibake", "unicode-normalization",
		"keyword-delimiters", "redundant-page-range", "duplicate-author",
		"issue-discrepancy", "copyright-notice",
	}, names)

	// Species links need a list even when the journal enables them.
	cfg := journal.NewConfig("ab", map[string]string{
		journal.KeyTextSubs:      "true",
		journal.KeyItalicHeaders: "true",
		journal.KeySpeciesLinks:  "true",
	})
	checks := c.Checks(Context{Config: cfg})
	require.Len(t, checks, 16)
	assert.Equal(t, "text-subs", checks[14].Name())
	assert.Equal(t, "section-headers", checks[15].Name())
}

func TestAttemptFix_AmbiguousLeavesRecordUnchanged(t *testing.T) {
	rec := mustRecord(t, article(`pages="20-12"`, ``))
	check := pageRangeCheck{base{"redundant-page-range"}}

	findings := check.Detect(rec)
	require.Len(t, findings, 1)
	assert.False(t, check.AttemptFix(findings[0]))
	assert.Equal(t, "20-12", rec.ArticleAttr("pages"))

	p := check.DescribeProblem(rec, findings[0])
	assert.Equal(t, "article@pages", p.Location)
	assert.Equal(t, "20-12", p.Raw)
	assert.Equal(t, types.SeverityWarning, p.Severity)
}

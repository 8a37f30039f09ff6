package abstractxml

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAbstract = `<?xml version="1.0" encoding="UTF-8"?>
<bioline>
  <article id="ab20001" volume="20" number="3" year="2020" pages="12-18" xml:lang="en">
    <title>Effects of <i>Aedes aegypti</i> on H2O</title>
    <authors>
      <author><lastname>Smith</lastname><firstname>Ann</firstname></author>
      <author><lastname>Jones</lastname><firstname>Bo</firstname></author>
    </authors>
    <publisher>Bioline &amp; Partners</publisher>
    <abstract>Background: text</abstract>
    <keywords>
      <keyword>mosquito; dengue</keyword>
    </keywords>
  </article>
</bioline>
`

func TestNewRecord_ParsesFields(t *testing.T) {
	rec, err := NewRecord("/issues/ab20(3)/xml/ab20001.xml", []byte(sampleAbstract))
	require.NoError(t, err)

	assert.Equal(t, "ab20001", rec.ID)
	assert.Equal(t, "bioline/article", rec.ArticlePath())
	assert.Equal(t, "20", rec.ArticleAttr("volume"))
	assert.Equal(t, "Effects of <i>Aedes aegypti</i> on H2O", rec.First("title").Text())
	assert.Equal(t, "Bioline &amp; Partners", rec.First("publisher").Text())
	assert.Nil(t, rec.First("copyright"))

	lastnames := rec.Find("lastname")
	require.Len(t, lastnames, 2)
	assert.Equal(t, "article/authors/author[2]/lastname", lastnames[1].Path)
	assert.Equal(t, "Jones", lastnames[1].Node.Text())
}

func TestRecord_LeavesSkipInlineMarkup(t *testing.T) {
	rec, err := NewRecord("ab20001.xml", []byte(sampleAbstract))
	require.NoError(t, err)

	var names []string
	for _, leaf := range rec.Leaves() {
		names = append(names, leaf.Node.Name())
	}
	assert.Equal(t, []string{"title", "lastname", "firstname", "lastname", "firstname", "publisher", "abstract", "keyword"}, names)
}

func TestRecord_RoundTripKeepsContent(t *testing.T) {
	rec, err := NewRecord("ab20001.xml", []byte(sampleAbstract))
	require.NoError(t, err)

	out := string(rec.Bytes())
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `xml:lang="en"`)
	assert.Contains(t, out, `<title>Effects of <i>Aedes aegypti</i> on H2O</title>`)
	assert.Contains(t, out, `<publisher>Bioline &amp; Partners</publisher>`)

	// A second parse/serialize cycle is stable.
	again, err := NewRecord("ab20001.xml", rec.Bytes())
	require.NoError(t, err)
	assert.Equal(t, out, string(again.Bytes()))
}

func TestRecord_RoundTripKeepsProlog(t *testing.T) {
	data := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE bioline SYSTEM "bioline.dtd">
<!-- exported 2020-03-14 -->
<?xml-stylesheet type="text/xsl" href="abstract.xsl"?>
<bioline><article id="ab20001"><title>Text</title></article></bioline>`

	rec, err := NewRecord("ab20001.xml", []byte(data))
	require.NoError(t, err)

	out := string(rec.Bytes())
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE bioline SYSTEM "bioline.dtd">
<!-- exported 2020-03-14 -->
<?xml-stylesheet type="text/xsl" href="abstract.xsl"?>
<bioline>`), out)

	again, err := NewRecord("ab20001.xml", rec.Bytes())
	require.NoError(t, err)
	assert.Equal(t, out, string(again.Bytes()))
}

func TestRecord_EnsureAppendsElement(t *testing.T) {
	rec, err := NewRecord("ab20001.xml", []byte(sampleAbstract))
	require.NoError(t, err)

	node := rec.Ensure("issue-date")
	node.SetText(EscapeText("2020-03"))
	assert.Same(t, node, rec.Ensure("issue-date"))

	rec.Article().SetAttr("volume", "21")
	out := string(rec.Bytes())
	assert.Contains(t, out, "<issue-date>2020-03</issue-date>")
	assert.Contains(t, out, `volume="21"`)
}

func TestNewRecord_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "   "},
		{"syntax error", "<bioline><article></bioline>"},
		{"no article", "<bioline><title>x</title></bioline>"},
		{"two articles", "<bioline><article/><article/></bioline>"},
		{"text article", "<bioline><article>loose text</article></bioline>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecord("ab20009.xml", []byte(tt.data))
			require.Error(t, err)

			var malformed *MalformedError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, "ab20009.xml", malformed.Path)
		})
	}
}

func TestLoad_ConvertsLatin1(t *testing.T) {
	data := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><bioline><article><title>Caf`), 0xe9)
	data = append(data, []byte(`</title></article></bioline>`)...)

	path := filepath.Join(t.TempDir(), "ab20002.xml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	rec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Café", rec.First("title").Text())
	assert.Contains(t, string(rec.Bytes()), `encoding="UTF-8"`)
}

func TestIsPlaceholder(t *testing.T) {
	for _, value := range []string{"NA", "N/A", "n/a", "N.A.", " N. A. ", "na"} {
		assert.True(t, IsPlaceholder(value), value)
	}
	for _, value := range []string{"", "Nash", "NAD", "N/A value"} {
		assert.False(t, IsPlaceholder(value), value)
	}
}

func TestEscapeText(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp; c", EscapeText("a <b> & c"))
	assert.Equal(t, "a <b> & c", UnescapeText("a &lt;b&gt; &amp; c"))
}

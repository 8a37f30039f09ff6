package prompt

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/abstract-preprocessor/internal/abstractxml"
	"github.com/ginjaninja78/abstract-preprocessor/internal/journal"
	"github.com/ginjaninja78/abstract-preprocessor/internal/resolver"
)

var issueDateRequest = resolver.Request{
	JournalID: "ab",
	RecordID:  "ab20001",
	Field:     journal.KeyIssueDate,
	Question:  "Enter the issue date (YYYY-MM)",
	Kind:      resolver.AnswerText,
}

func TestTerminal_RequestValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		previous string
		want     resolver.Response
	}{
		{"value", "2020-03\n", "", resolver.Response{Value: "2020-03"}},
		{"trimmed", "  2020-03  \n", "", resolver.Response{Value: "2020-03"}},
		{"dash skips", "-\n", "", resolver.Response{Skip: true}},
		{"skip word", "SKIP\n", "", resolver.Response{Skip: true}},
		{"empty asks again", "\n\n2020-04\n", "", resolver.Response{Value: "2020-04"}},
		{"empty reuses previous", "\n", "2020-03", resolver.Response{Value: "2020-03"}},
		{"eof skips", "", "", resolver.Response{Skip: true}},
		{"last line without newline", "2020-05", "", resolver.Response{Value: "2020-05"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			term := NewTerminal(strings.NewReader(tt.input), &out)

			req := issueDateRequest
			req.Previous = tt.previous
			got, err := term.RequestValue(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "[ab20001] Enter the issue date (YYYY-MM)")
		})
	}
}

func TestTerminal_ReasonIsShown(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("\n2020-03\n"), &out)

	req := issueDateRequest
	req.Previous = "March"
	req.Reason = `"March" is not a valid issue-date`
	got, err := term.RequestValue(req)
	require.NoError(t, err)

	// A rejected previous value is not reused on Enter.
	assert.Equal(t, resolver.Response{Value: "2020-03"}, got)
	assert.Contains(t, out.String(), `"March" is not a valid issue-date`)
}

func TestTerminal_Confirmations(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("y\nno\n"), &out)

	persist, err := term.OfferPersist("ab", journal.KeyIssueDate, "2020-03")
	require.NoError(t, err)
	assert.True(t, persist)
	assert.Contains(t, out.String(), `Save "2020-03" as the default issue-date for journal ab?`)

	save, err := term.ConfirmSave("ab")
	require.NoError(t, err)
	assert.False(t, save)

	// Input is exhausted: everything after defaults to "no"/skip.
	save, err = term.ConfirmSave("ab")
	require.NoError(t, err)
	assert.False(t, save)

	resp, err := term.RequestValue(issueDateRequest)
	require.NoError(t, err)
	assert.True(t, resp.Skip)
}

func TestTerminal_DrivesResolver(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("2020-03\ny\n"), &out)
	store := journal.NewMemoryStore()
	r := resolver.New(store, resolver.Options{Prompter: term})

	cfg := journal.NewConfig("ab", nil)
	rec := mustRecord(t, `<bioline><article volume="20" number="3" year="2020"><title>T</title><publisher>P</publisher><copyright>C</copyright></article></bioline>`)

	_, problems, err := r.Resolve(rec, cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, problems)
	assert.Equal(t, "2020-03", cfg.Get(journal.KeyIssueDate))
}

func TestScripted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("answers:\n  issue-date: \"2020-03\"\npersist: true\n"), 0644))

	s, err := LoadScripted(path)
	require.NoError(t, err)

	resp, err := s.RequestValue(issueDateRequest)
	require.NoError(t, err)
	assert.Equal(t, resolver.Response{Value: "2020-03"}, resp)

	rejected := issueDateRequest
	rejected.Previous = "2020-03"
	rejected.Reason = "not valid"
	resp, err = s.RequestValue(rejected)
	require.NoError(t, err)
	assert.True(t, resp.Skip)

	resp, err = s.RequestValue(resolver.Request{Field: journal.KeyPublisher})
	require.NoError(t, err)
	assert.True(t, resp.Skip)

	persist, err := s.OfferPersist("ab", journal.KeyIssueDate, "2020-03")
	require.NoError(t, err)
	assert.True(t, persist)

	save, err := s.ConfirmSave("ab")
	require.NoError(t, err)
	assert.False(t, save)
}

func mustRecord(t *testing.T, data string) *abstractxml.Record {
	t.Helper()
	rec, err := abstractxml.NewRecord("ab20001.xml", []byte(data))
	require.NoError(t, err)
	return rec
}

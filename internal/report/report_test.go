package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/abstract-preprocessor/internal/types"
)

func missing(recordID, field string) types.Problem {
	return types.Problem{
		RecordID: recordID,
		Field:    field,
		Kind:     types.KindFieldMissing,
		Severity: types.SeverityError,
		Location: "article/" + field,
		Message:  "required field has no value",
	}
}

func render(t *testing.T, r *Reporter) string {
	t.Helper()
	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	return buf.String()
}

func TestWriteTo_EmptyBatch(t *testing.T) {
	r := New("ab20(3)")
	assert.Zero(t, r.Len())
	assert.Equal(t, "Problems for ab20(3)\nProofed by:\n", render(t, r))
}

func TestWriteTo_GroupsByRecord(t *testing.T) {
	r := New("ab20(3)")
	r.Add("ab20001", missing("ab20001", "issue-date"), missing("ab20001", "publisher"))
	r.Add("ab20002")
	r.Add("ab20003", missing("ab20003", "issue-date"))
	r.Add("ab20001", missing("ab20001", "copyright"))

	want := "Problems for ab20(3)\nProofed by:\n\n" +
		missing("ab20001", "issue-date").String() + "\n" +
		missing("ab20001", "publisher").String() + "\n" +
		missing("ab20001", "copyright").String() + "\n\n" +
		missing("ab20003", "issue-date").String() + "\n"

	assert.Equal(t, want, render(t, r))
	assert.Equal(t, 4, r.Len())
}

func TestAdd_IgnoresDuplicates(t *testing.T) {
	dup := types.Problem{
		RecordID: "ab20007",
		Field:    "author",
		Check:    "duplicate-author",
		Kind:     types.KindDefectAmbiguous,
		Severity: types.SeverityWarning,
		Location: "article/authors/author[3]",
		Raw:      "Silva, Ana",
		Message:  "author listed 2 times",
	}

	r := New("ab20(3)")
	r.Add("ab20007", dup)
	r.Add("ab20007", dup)

	out := render(t, r)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, strings.Count(out, "duplicate-author"))
}

func TestWriteTo_Failures(t *testing.T) {
	r := New("ab20(3)")
	r.AddFailure("/issues/ab20(3)/xml/ab20009.xml", errors.New("unexpected EOF"))

	out := render(t, r)
	assert.True(t, strings.HasSuffix(out, "\nUnprocessed documents:\nab20009.xml: unexpected EOF\n"))
	assert.Zero(t, r.Len())
	require.Len(t, r.Failures(), 1)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName("ab20(3)"))

	r := New("ab20(3)")
	r.Add("ab20001", missing("ab20001", "issue-date"))
	require.NoError(t, r.WriteFile(path))

	// A rerun replaces the previous report.
	require.NoError(t, New("ab20(3)").WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Problems for ab20(3)\nProofed by:\n", string(data))
	assert.Equal(t, "ab20(3) Problems.txt", filepath.Base(path))
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problems.xlsx")

	r := New("ab20(3)")
	r.Add("ab20001", missing("ab20001", "issue-date"))
	r.AddFailure("ab20009.xml", errors.New("unexpected EOF"))
	require.NoError(t, r.WriteXLSX(path, "run-1"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{problemsSheet, failuresSheet}, f.GetSheetList())

	rows, err := f.GetRows(problemsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Record", rows[0][0])
	assert.Equal(t, []string{"ab20001", "error", "field_missing", "issue-date", "", "article/issue-date", "", "required field has no value"}, rows[1])

	failures, err := f.GetRows(failuresSheet)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, []string{"ab20009.xml", "unexpected EOF"}, failures[1])

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, "run-1", props.Identifier)
}

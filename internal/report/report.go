// =============================================================================
// Abstract Preprocessor - Problems Report
// =============================================================================
//
// This module collects every Problem raised while processing one issue and
// writes the per-issue problems file handed to proofers.
//
// FILE LAYOUT:
//
//   Problems for ab20(3)
//   Proofed by:
//
//   ab20001: [error] issue-date: required field has no value (at article/issue-date)
//   ab20001: [warning] number: does not match ... (issue-discrepancy at article@number) value: "4"
//
//   ab20007: [warning] author: author listed 2 times (duplicate-author at ...)
//
//   Unprocessed documents:
//   ab20009.xml: parse ab20009.xml: XML syntax error on line 3: ...
//
// Problems are grouped by record in the order records were added. The
// "Unprocessed documents" section only appears when a document failed to
// load. An empty batch produces the header only.
//
// =============================================================================

package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/abstract-preprocessor/internal/types"
)

// Failure is a document that could not be processed at all.
type Failure struct {
	Path string
	Err  error
}

// group holds the problems of one record.
type group struct {
	recordID string
	problems types.ProblemSet
}

// Reporter accumulates problems for one issue.
type Reporter struct {
	issue    string
	groups   []*group
	index    map[string]*group
	failures []Failure
}

// New creates a reporter for the named issue (e.g. "ab20(3)").
func New(issue string) *Reporter {
	return &Reporter{
		issue: issue,
		index: make(map[string]*group),
	}
}

// Issue returns the issue name used in the header.
func (r *Reporter) Issue() string {
	return r.issue
}

// Add records problems for a record. Problems already recorded for the
// record are ignored. Adding zero problems does not create a group.
func (r *Reporter) Add(recordID string, problems ...types.Problem) {
	if len(problems) == 0 {
		return
	}

	g, ok := r.index[recordID]
	if !ok {
		g = &group{recordID: recordID}
		r.index[recordID] = g
		r.groups = append(r.groups, g)
	}
	g.problems.Add(problems...)
}

// AddFailure records a document that was skipped.
func (r *Reporter) AddFailure(path string, err error) {
	r.failures = append(r.failures, Failure{Path: path, Err: err})
}

// Len returns the number of recorded problems.
func (r *Reporter) Len() int {
	n := 0
	for _, g := range r.groups {
		n += g.problems.Len()
	}
	return n
}

// Failures returns the skipped documents in the order they were added.
func (r *Reporter) Failures() []Failure {
	out := make([]Failure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Problems returns all problems, grouped by record.
func (r *Reporter) Problems() []types.Problem {
	var out []types.Problem
	for _, g := range r.groups {
		out = append(out, g.problems.Items()...)
	}
	return out
}

// =============================================================================
// TEXT OUTPUT
// =============================================================================

// WriteTo writes the plain-text report.
func (r *Reporter) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: bufio.NewWriter(w)}

	fmt.Fprintf(cw, "Problems for %s\n", r.issue)
	fmt.Fprintln(cw, "Proofed by:")

	for _, g := range r.groups {
		fmt.Fprintln(cw)
		for _, p := range g.problems.Items() {
			fmt.Fprintln(cw, p.String())
		}
	}

	if len(r.failures) > 0 {
		fmt.Fprintln(cw)
		fmt.Fprintln(cw, "Unprocessed documents:")
		for _, f := range r.failures {
			fmt.Fprintf(cw, "%s: %v\n", filepath.Base(f.Path), f.Err)
		}
	}

	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, cw.w.Flush()
}

// WriteFile writes the plain-text report to path, replacing any earlier run.
func (r *Reporter) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if _, err := r.WriteTo(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// FileName returns the conventional report file name for an issue.
func FileName(issue string) string {
	return issue + " Problems.txt"
}

// countingWriter keeps the first write error so WriteTo can use fmt
// without checking every call.
type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

// =============================================================================
// Abstract Preprocessor - Batch Processor
// =============================================================================
//
// This module drives one issue folder through the pipeline. It orchestrates
// the other modules for every document, strictly one at a time.
//
// PROCESSING PIPELINE:
//   1. Derive journal, volume, number and year from the folder layout; they
//      fill documents that lack them but are never saved as journal defaults
//   2. Load the journal config (running the questionnaire on first use)
//   3. For each XML file, in name order:
//      a. Parse the document (malformed documents are reported and skipped)
//      b. Resolve required fields (Field Resolver)
//      c. Correct known defects (Error Corrector)
//      d. Back up the original and write the result in place, or print it
//         to the debug stream
//   4. Write "<issue> Problems.txt" next to the xml/ folder
//
// ORDERING:
//   Documents are processed one at a time. A default saved while handling
//   one document is visible to the next, and the report follows file order.
//
// =============================================================================

package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/abstract-preprocessor/internal/abstractxml"
	"github.com/ginjaninja78/abstract-preprocessor/internal/corrector"
	"github.com/ginjaninja78/abstract-preprocessor/internal/journal"
	"github.com/ginjaninja78/abstract-preprocessor/internal/report"
	"github.com/ginjaninja78/abstract-preprocessor/internal/resolver"
	"github.com/ginjaninja78/abstract-preprocessor/internal/species"
	"github.com/ginjaninja78/abstract-preprocessor/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing one issue folder.
type Result struct {
	Issue Issue

	// ReportPath is the problems file written for the issue.
	ReportPath string

	// WorkbookPath is set when the spreadsheet export was requested.
	WorkbookPath string

	Stats ProcessingStats
}

// ProcessingStats contains statistics about the run.
type ProcessingStats struct {
	// Documents is the number of XML files found.
	Documents int

	// Clean and WithProblems split the processed documents by outcome.
	Clean        int
	WithProblems int

	// Failed is the number of documents that could not be parsed.
	Failed int

	// Written is the number of files rewritten in place.
	Written int

	// Fixed is the number of defects corrected automatically.
	Fixed int

	// Problems is the number of report lines.
	Problems int

	ProcessingTime time.Duration
}

// =============================================================================
// PROCESSOR STRUCTURE
// =============================================================================

// Options configures a Processor.
type Options struct {
	// Store holds the journal configs.
	Store journal.Store

	// Prompter asks the operator. Nil runs without input: unresolved
	// fields become problems and nothing is persisted.
	Prompter resolver.Prompter

	// MaxAttempts bounds re-asking for a malformed answer.
	MaxAttempts int

	// Species enables species links for journals that want them.
	Species *species.List

	// Files backs up originals. Nil disables backups.
	Files *utils.FileManager

	// Debug prints corrected documents to Output instead of writing them.
	Debug  bool
	Output io.Writer

	// Workbook also writes the report as a spreadsheet.
	Workbook bool

	Logger *zap.Logger
}

// Processor runs the pipeline over issue folders.
type Processor struct {
	opts      Options
	resolver  *resolver.Resolver
	corrector *corrector.Corrector
	logger    *zap.Logger
}

// New creates a Processor.
func New(opts Options) *Processor {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Processor{
		opts: opts,
		resolver: resolver.New(opts.Store, resolver.Options{
			Prompter:    opts.Prompter,
			MaxAttempts: opts.MaxAttempts,
			Logger:      opts.Logger,
		}),
		corrector: corrector.New(opts.Species, opts.Logger),
		logger:    opts.Logger,
	}
}

// =============================================================================
// BATCH
// =============================================================================

// Run processes every XML document of the issue at path and writes the
// problems report. Documents that fail to parse are recorded in the report
// and do not stop the batch. The returned error is reserved for failures
// that make the rest of the batch meaningless: an unreadable folder, a
// broken config store or prompter, or an unwritable report.
func (p *Processor) Run(ctx context.Context, path string) (*Result, error) {
	startTime := time.Now()

	issue, err := ParseIssuePath(path)
	if err != nil {
		return nil, err
	}

	files, err := utils.DiscoverFiles(issue.XMLDir, ".xml")
	if err != nil {
		return nil, fmt.Errorf("failed to discover documents: %w", err)
	}
	issue.InferYear(files)

	result := &Result{Issue: issue}
	result.Stats.Documents = len(files)

	logger := p.logger.With(zap.String("issue", issue.Name))
	if p.opts.Files != nil {
		logger = logger.With(zap.String("run", p.opts.Files.RunID))
	}
	logger.Info("processing issue",
		zap.String("journal", issue.JournalID),
		zap.String("volume", issue.Volume),
		zap.String("number", issue.Number),
		zap.String("year", issue.Year),
		zap.Int("documents", len(files)))

	cfg, err := p.resolver.Bootstrap(issue.JournalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal config: %w", err)
	}

	correction := corrector.Context{
		JournalID: issue.JournalID,
		Config:    cfg,
		Volume:    issue.Volume,
		Number:    issue.Number,
		Year:      issue.Year,
	}

	reporter := report.New(issue.Name)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := p.processFile(file, cfg, correction)
		var malformed *abstractxml.MalformedError
		switch {
		case errors.As(err, &malformed):
			logger.Error("skipping malformed document", zap.String("file", file), zap.Error(malformed.Cause))
			reporter.AddFailure(file, malformed.Cause)
			result.Stats.Failed++
			continue
		case err != nil:
			return nil, err
		}

		reporter.Add(doc.Record.ID, doc.Problems...)
		result.Stats.Fixed += doc.Fixed
		if len(doc.Problems) > 0 {
			result.Stats.WithProblems++
		} else {
			result.Stats.Clean++
		}

		if err := p.emit(issue, file, doc); err != nil {
			return nil, err
		}
		if doc.Changed && !p.opts.Debug {
			result.Stats.Written++
		}

		logger.Info("document processed",
			zap.String("record", doc.Record.ID),
			zap.Stringer("stage", doc.Stage),
			zap.Int("fixed", doc.Fixed),
			zap.Int("problems", len(doc.Problems)))
	}

	result.ReportPath = filepath.Join(issue.Dir, report.FileName(issue.Name))
	if err := reporter.WriteFile(result.ReportPath); err != nil {
		return nil, err
	}

	if p.opts.Workbook {
		result.WorkbookPath = strings.TrimSuffix(result.ReportPath, ".txt") + ".xlsx"
		runID := ""
		if p.opts.Files != nil {
			runID = p.opts.Files.RunID
		}
		if err := reporter.WriteXLSX(result.WorkbookPath, runID); err != nil {
			return nil, err
		}
	}

	result.Stats.Problems = reporter.Len()
	result.Stats.ProcessingTime = time.Since(startTime)

	logger.Info("issue complete",
		zap.String("report", result.ReportPath),
		zap.Int("problems", result.Stats.Problems),
		zap.Int("failed", result.Stats.Failed),
		zap.Duration("elapsed", result.Stats.ProcessingTime))

	return result, nil
}

// processFile reads, parses and processes one document.
func (p *Processor) processFile(file string, cfg *journal.Config, correction corrector.Context) (*Document, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, &abstractxml.MalformedError{Path: file, Cause: err}
	}

	rec, err := abstractxml.NewRecord(file, data)
	if err != nil {
		return nil, err
	}

	doc, err := p.Process(rec, cfg, correction)
	if err != nil {
		return nil, err
	}
	doc.Changed = !bytes.Equal(data, rec.Bytes())
	return doc, nil
}

// =============================================================================
// SINGLE DOCUMENT
// =============================================================================

// Process resolves and corrects one parsed record. It is the whole
// per-document pipeline minus file I/O.
func (p *Processor) Process(rec *abstractxml.Record, cfg *journal.Config, correction corrector.Context) (*Document, error) {
	doc := newDocument(rec)

	issue := resolver.IssueValues{
		"volume": correction.Volume,
		"number": correction.Number,
		"year":   correction.Year,
	}
	resolutions, problems, err := p.resolver.Resolve(rec, cfg, issue)
	if err != nil {
		return nil, err
	}
	doc.Resolutions = resolutions
	doc.addProblems(problems...)
	if err := doc.advance(); err != nil {
		return nil, err
	}

	corrected := p.corrector.Correct(rec, correction)
	doc.Fixed = corrected.Fixed
	doc.addProblems(corrected.Problems...)
	if err := doc.advance(); err != nil {
		return nil, err
	}

	if err := doc.advance(); err != nil {
		return nil, err
	}
	return doc, nil
}

// emit writes the corrected document in place or to the debug stream.
func (p *Processor) emit(issue Issue, file string, doc *Document) error {
	data := doc.Record.Bytes()

	if p.opts.Debug {
		_, err := fmt.Fprintf(p.opts.Output, "----------\n%s\n----------\n", data)
		return err
	}
	if !doc.Changed {
		return nil
	}

	if p.opts.Files != nil {
		backup, err := p.opts.Files.Backup(issue.Name, file)
		if err != nil {
			return err
		}
		if backup != "" {
			p.logger.Debug("original backed up", zap.String("file", file), zap.String("backup", backup))
		}
	}
	return utils.ReplaceFile(file, data)
}

package processor

import (
	"github.com/ginjaninja78/abstract-preprocessor/internal/abstractxml"
	"github.com/ginjaninja78/abstract-preprocessor/internal/resolver"
	"github.com/ginjaninja78/abstract-preprocessor/internal/types"
)

// Document tracks one abstract through the pipeline.
type Document struct {
	Record *abstractxml.Record
	Stage  types.Stage

	// Resolutions lists how each required field was settled.
	Resolutions []resolver.Resolution

	// Problems holds everything left for manual review, deduplicated.
	Problems []types.Problem

	// Fixed counts the defects corrected automatically.
	Fixed int

	// Changed is set when the serialized document differs from the input.
	Changed bool

	problems types.ProblemSet
}

func newDocument(rec *abstractxml.Record) *Document {
	return &Document{Record: rec, Stage: types.StageLoaded}
}

func (d *Document) addProblems(problems ...types.Problem) {
	d.problems.Add(problems...)
	d.Problems = d.problems.Items()
}

// advance moves to the next stage. Stages are never skipped.
func (d *Document) advance() error {
	next, err := d.Stage.Next(d.problems.Len() > 0)
	if err != nil {
		return err
	}
	d.Stage = next
	return nil
}

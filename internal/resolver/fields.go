package resolver

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ginjaninja78/abstract-preprocessor/internal/abstractxml"
	"github.com/ginjaninja78/abstract-preprocessor/internal/journal"
)

// =============================================================================
// REQUIRED FIELD CATALOGUE
// =============================================================================

// Field describes one required metadata field of an abstract record.
type Field struct {
	// Name is the field name used in problems and as the journal config key.
	Name string

	// Attr is the <article> attribute holding the value. Empty for element
	// fields.
	Attr string

	// Element is the element holding the value. Empty for attribute fields.
	Element string

	// Shared fields have the same value for every abstract of a journal,
	// so a journal config default may fill them.
	Shared bool

	// PerIssue fields are taken from the issue folder when the document has
	// no value. They are never saved as journal defaults.
	PerIssue bool

	// Rule is the validator tag a value must satisfy to be well-formed.
	Rule string

	// Prompt is the question shown to the operator.
	Prompt string
}

// Location returns the element path of the field relative to the record,
// e.g. "article@volume" or "article/issue-date".
func (f Field) Location() string {
	if f.Attr != "" {
		return "article@" + f.Attr
	}
	return "article/" + f.Element
}

// Fields lists the required fields in resolution order.
var Fields = []Field{
	{Name: "title", Element: "title", Rule: "required", Prompt: "Enter the article title"},
	{Name: "volume", Attr: "volume", PerIssue: true, Rule: "numeric", Prompt: "Enter the volume number"},
	{Name: "number", Attr: "number", PerIssue: true, Rule: "alphanum", Prompt: "Enter the issue number"},
	{Name: "year", Attr: "year", PerIssue: true, Rule: "numeric,len=4", Prompt: "Enter the 4-digit publication year"},
	{Name: journal.KeyIssueDate, Element: "issue-date", Shared: true, Rule: "datetime=2006-01", Prompt: "Enter the issue date (YYYY-MM)"},
	{Name: journal.KeyPublisher, Element: "publisher", Shared: true, Rule: "required", Prompt: "Enter the publisher"},
	{Name: journal.KeyCopyright, Element: "copyright", Shared: true, Rule: "required", Prompt: "Enter the copyright holder"},
}

// FieldByName returns the catalogue entry for name.
func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// =============================================================================
// DOCUMENT ACCESS
// =============================================================================

// current returns the field value as stored in the record. Element values
// are returned as raw inner XML, trimmed.
func (f Field) current(rec *abstractxml.Record) string {
	if f.Attr != "" {
		return strings.TrimSpace(rec.ArticleAttr(f.Attr))
	}
	node := rec.First(f.Element)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(node.Text())
}

// fill writes a plain-text value into the record.
func (f Field) fill(rec *abstractxml.Record, value string) {
	if f.Attr != "" {
		rec.Article().SetAttr(f.Attr, value)
		return
	}
	rec.Ensure(f.Element).SetText(abstractxml.EscapeText(value))
}

// =============================================================================
// WELL-FORMEDNESS
// =============================================================================

// newValidator returns the validator used for field values.
func newValidator() *validator.Validate {
	return validator.New()
}

var defaultValidator = newValidator()

// WellFormed reports whether value satisfies the rule of the named field.
// Names outside the catalogue are always well-formed.
func WellFormed(name, value string) bool {
	f, ok := FieldByName(name)
	if !ok {
		return true
	}
	return wellFormed(defaultValidator, f, value)
}

// wellFormed reports whether value satisfies the field's rule.
// Element values are unescaped first so "&amp;" counts as one character.
func wellFormed(validate *validator.Validate, f Field, value string) bool {
	value = strings.TrimSpace(abstractxml.UnescapeText(value))
	if value == "" || abstractxml.IsPlaceholder(value) {
		return false
	}
	return validate.Var(value, f.Rule) == nil
}

// defaultFor returns the journal default for a shared field, or "" when the
// journal has none. A copyright of "default" means "no journal-specific
// notice".
func defaultFor(cfg *journal.Config, f Field) string {
	if !f.Shared {
		return ""
	}
	value := strings.TrimSpace(cfg.Get(f.Name))
	if f.Name == journal.KeyCopyright && strings.EqualFold(value, "default") {
		return ""
	}
	return value
}

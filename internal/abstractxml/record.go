package abstractxml

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// =============================================================================
// MALFORMED DOCUMENT ERROR
// =============================================================================

// MalformedError reports a document that cannot be processed at all.
// It is fatal for that one document only.
type MalformedError struct {
	Path  string
	Cause error
}

func (e *MalformedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed document %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("malformed document %s", e.Path)
}

func (e *MalformedError) Unwrap() error {
	return e.Cause
}

// =============================================================================
// ABSTRACT RECORD
// =============================================================================

// Record is one abstract document plus typed access to the fields the
// preprocessor works on. The identifier is the file name without extension
// (e.g. "ab20001" for ab20001.xml).
type Record struct {
	ID   string
	Path string
	Doc  *Document

	article     *Node
	articlePath string
}

// Load reads and parses an abstract file.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return NewRecord(path, data)
}

// NewRecord parses data as the abstract stored at path.
// Syntax errors and documents without an <article> element are reported as
// *MalformedError.
func NewRecord(path string, data []byte) (*Record, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, &MalformedError{Path: path, Cause: err}
	}

	rec := &Record{
		ID:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path: path,
		Doc:  doc,
	}

	articles := doc.Root.Find("article")
	if len(articles) == 0 {
		return nil, &MalformedError{Path: path, Cause: fmt.Errorf("no <article> element")}
	}
	if len(articles) > 1 {
		return nil, &MalformedError{Path: path, Cause: fmt.Errorf("%d <article> elements, expected one", len(articles))}
	}
	if articles[0].Node.IsLeaf() && strings.TrimSpace(articles[0].Node.Inner) != "" {
		return nil, &MalformedError{Path: path, Cause: fmt.Errorf("<article> holds text instead of metadata elements")}
	}

	rec.article = articles[0].Node
	rec.articlePath = articles[0].Path
	return rec, nil
}

// Bytes serializes the (possibly modified) document.
func (r *Record) Bytes() []byte {
	return r.Doc.Bytes()
}

// Article returns the <article> element.
func (r *Record) Article() *Node {
	return r.article
}

// ArticlePath returns the element path of the <article> element.
func (r *Record) ArticlePath() string {
	return r.articlePath
}

// Find returns every element with the given name inside <article>, with
// paths rooted at the article (e.g. "article/authors/author[2]").
func (r *Record) Find(name string) []Located {
	return r.article.Find(name)
}

// First returns the first element with the given name inside <article>.
func (r *Record) First(name string) *Node {
	found := r.Find(name)
	if len(found) == 0 {
		return nil
	}
	return found[0].Node
}

// Ensure returns the first element with the given name, creating an empty
// one at the end of <article> if none exists.
func (r *Record) Ensure(name string) *Node {
	if node := r.First(name); node != nil {
		return node
	}
	return r.article.AppendChild(name)
}

// Leaves returns every text leaf inside <article> in document order.
func (r *Record) Leaves() []Located {
	var leaves []Located
	r.article.Walk(func(path string, node *Node) {
		if node != r.article && node.IsLeaf() {
			leaves = append(leaves, Located{Path: path, Node: node})
		}
	})
	return leaves
}

// ArticleAttr returns an attribute of the <article> element.
func (r *Record) ArticleAttr(name string) string {
	value, _ := r.article.Attr(name)
	return value
}

// =============================================================================
// TEXT HELPERS
// =============================================================================

// placeholderPattern matches the "not available" markers submitters use for
// empty fields: NA, N/A, N.A., N. A. (case-insensitive, whole value only).
var placeholderPattern = regexp.MustCompile(`(?i)^n ?[/.]? ?a\.?$`)

// IsPlaceholder reports whether the value is an N/A style placeholder.
func IsPlaceholder(value string) bool {
	return placeholderPattern.MatchString(strings.TrimSpace(value))
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeText escapes plain text so it can be stored with SetText.
// Line breaks are kept as-is.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

var textUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", "\"", "&apos;", "'", "&amp;", "&")

// UnescapeText reverses EscapeText for the predefined XML entities.
// Inline markup is left in place.
func UnescapeText(s string) string {
	return textUnescaper.Replace(s)
}

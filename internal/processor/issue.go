package processor

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Issue is what the folder layout says about a batch of abstracts.
//
// Issues are delivered as
//
//	.../jjVV(N)/xml/JJYY###.xml
//
// where jj is the journal code, VV the volume, N the issue number and YY the
// last two digits of the year.
type Issue struct {
	// Name is the issue folder name, e.g. "ab20(3)".
	Name string

	JournalID string
	Volume    string
	Number    string

	// Year is filled from the file names by InferYear.
	Year string

	// Dir is the issue folder; the problems report is written here.
	Dir string

	// XMLDir holds the abstract documents.
	XMLDir string
}

var (
	issueFolder  = regexp.MustCompile(`^([A-Za-z]{2})(\d+)\(([^()]+)\)$`)
	documentName = regexp.MustCompile(`^[A-Za-z]{2}(\d{2})\d+\.xml$`)
)

// ParseIssuePath accepts either the issue folder or its xml/ subfolder.
func ParseIssuePath(path string) (Issue, error) {
	clean := filepath.Clean(path)

	dir, xmlDir := clean, filepath.Join(clean, "xml")
	if strings.EqualFold(filepath.Base(clean), "xml") {
		dir, xmlDir = filepath.Dir(clean), clean
	}

	name := filepath.Base(dir)
	m := issueFolder.FindStringSubmatch(name)
	if m == nil {
		return Issue{}, fmt.Errorf("path %s does not end with jjVV(N)/xml", path)
	}

	return Issue{
		Name:      name,
		JournalID: strings.ToLower(m[1]),
		Volume:    m[2],
		Number:    m[3],
		Dir:       dir,
		XMLDir:    xmlDir,
	}, nil
}

// YearFromFileName derives the four-digit year from a JJYY###.xml name.
// Two-digit years above 80 belong to the 1900s.
func YearFromFileName(name string) (string, bool) {
	m := documentName.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", false
	}

	yy, _ := strconv.Atoi(m[1])
	if yy > 80 {
		return fmt.Sprintf("19%02d", yy), true
	}
	return fmt.Sprintf("20%02d", yy), true
}

// InferYear sets Year from the first file that follows the naming
// convention. It leaves Year empty when none does.
func (i *Issue) InferYear(files []string) {
	for _, file := range files {
		if year, ok := YearFromFileName(file); ok {
			i.Year = year
			return
		}
	}
}

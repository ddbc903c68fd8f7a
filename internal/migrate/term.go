package migrate

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNoTerm is returned for a file whose name does not encode a term.
var ErrNoTerm = errors.New("could not extract term from file name")

// RadGridExport-Fall-2024.csv, RadGridExport-Spring-2021-GC.csv
var termPattern = regexp.MustCompile(`RadGridExport-([A-Za-z]+)-(\d{4})(-GC)?`)

// ExtractTerm derives the term label stored on every row of a file, e.g.
// "Fall 2024" or "Spring 2021-GC".
func ExtractTerm(fileName string) (string, error) {
	m := termPattern.FindStringSubmatch(fileName)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrNoTerm, fileName)
	}
	return m[1] + " " + m[2] + m[3], nil
}

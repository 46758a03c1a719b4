package extract

import (
	"fmt"
	"strings"
)

// MissingSourceFileError reports that no extract matched the expected names.
type MissingSourceFileError struct {
	Kind     Kind
	Year     int // zero for the cumulative individual file
	Prefix   string
	Patterns []string
}

func (e MissingSourceFileError) Error() string {
	where := e.Prefix
	if where == "" {
		where = "."
	}
	what := string(e.Kind) + " file"
	if e.Year != 0 {
		what = fmt.Sprintf("%s for %d", what, e.Year)
	}
	return fmt.Sprintf("psid %s not found under %q; expected one of %s", what, where, strings.Join(e.Patterns, ", "))
}

// MissingColumnError reports a column the pipeline cannot proceed without.
type MissingColumnError struct {
	File   string
	Column string
	Year   int
}

func (e MissingColumnError) Error() string {
	if e.Year != 0 {
		return fmt.Sprintf("%s: required column %s for %d not present", e.File, e.Column, e.Year)
	}
	return fmt.Sprintf("%s: required column %s not present", e.File, e.Column)
}

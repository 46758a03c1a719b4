package panel

import "fmt"

// DuplicateObservationError reports two rows for the same person and year.
type DuplicateObservationError struct {
	PersonID int64
	Year     int
}

func (e DuplicateObservationError) Error() string {
	return fmt.Sprintf("duplicate observation for person %d in %d", e.PersonID, e.Year)
}

// UnknownColumnError reports a column name that is neither a spine field
// nor a value column of the panel.
type UnknownColumnError struct {
	Column string
}

func (e UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown panel column %q", e.Column)
}

// UnsupportedYearError reports a survey year the individual-file layout
// has no linkage column for.
type UnsupportedYearError struct {
	Year int
}

func (e UnsupportedYearError) Error() string {
	return fmt.Sprintf("no individual-file linkage column is known for %d", e.Year)
}

// ConflictingVariableError reports a canonical name resolved from two
// extracts in the same year.
type ConflictingVariableError struct {
	Name    string
	Year    int
	Sources []string
}

func (e ConflictingVariableError) Error() string {
	return fmt.Sprintf("variable %s has codes in more than one extract for %d: %v", e.Name, e.Year, e.Sources)
}

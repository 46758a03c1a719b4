// Package variables maps canonical variable names to the year-specific
// source codes used by PSID extracts, and carries the built-in crosswalk of
// commonly used family-file variables.
package variables

import (
	"fmt"
	"sort"
	"strings"
)

// Spec maps a canonical variable name to its source code for each survey
// year. A year with no entry means the variable was not collected that year;
// callers get an all-missing column for it rather than an error.
type Spec map[string]map[int]string

// Code returns the normalised source code for name in year.
func (s Spec) Code(name string, year int) (string, bool) {
	codes, ok := s[name]
	if !ok {
		return "", false
	}
	code, ok := codes[year]
	if !ok {
		return "", false
	}
	code = NormalizeCode(code)
	if code == "" {
		return "", false
	}
	return code, true
}

// Codes returns canonical name -> source code for every variable defined in year.
func (s Spec) Codes(year int) map[string]string {
	out := make(map[string]string, len(s))
	for name := range s {
		if code, ok := s.Code(name, year); ok {
			out[name] = code
		}
	}
	return out
}

// Columns lists the source codes needed for year, sorted.
func (s Spec) Columns(year int) []string {
	codes := s.Codes(year)
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Names returns the canonical names in lexicographic order.
func (s Spec) Names() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Years returns the years for which name has a code.
func (s Spec) Years(name string) []int {
	var out []int
	for year := range s[name] {
		if _, ok := s.Code(name, year); ok {
			out = append(out, year)
		}
	}
	sort.Ints(out)
	return out
}

// Clone returns a deep copy.
func (s Spec) Clone() Spec {
	if s == nil {
		return nil
	}
	out := make(Spec, len(s))
	for name, codes := range s {
		dup := make(map[int]string, len(codes))
		for year, code := range codes {
			dup[year] = code
		}
		out[name] = dup
	}
	return out
}

// Merge combines specs. A canonical name defined in more than one input is
// rejected because the resulting column would be ambiguous.
func Merge(specs ...Spec) (Spec, error) {
	out := Spec{}
	for _, spec := range specs {
		for name, codes := range spec {
			if _, exists := out[name]; exists {
				return nil, fmt.Errorf("variable %q defined more than once", name)
			}
			dup := make(map[int]string, len(codes))
			for year, code := range codes {
				dup[year] = code
			}
			out[name] = dup
		}
	}
	return out, nil
}

// NormalizeCode upper-cases and trims a source code so it matches extract headers.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

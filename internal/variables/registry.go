package variables

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Crosswalk categories used by the built-in table.
const (
	CategoryID           = "id"
	CategoryIncome       = "income"
	CategoryWealth       = "wealth"
	CategoryDemographics = "demographics"
	CategoryWeight       = "weight"
)

// Entry is one crosswalk row: a canonical variable and its code per year.
type Entry struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Category    string         `json:"category" yaml:"category"`
	Codes       map[int]string `json:"codes" yaml:"codes"`
}

// AvailableYears lists the years with a code, ascending.
func (e Entry) AvailableYears() []int {
	out := make([]int, 0, len(e.Codes))
	for year := range e.Codes {
		out = append(out, year)
	}
	sort.Ints(out)
	return out
}

func (e Entry) clone() Entry {
	dup := e
	dup.Codes = make(map[int]string, len(e.Codes))
	for year, code := range e.Codes {
		dup.Codes[year] = code
	}
	return dup
}

// Registry is an immutable set of crosswalk entries. It exposes no mutation
// methods; every accessor hands out copies so concurrent readers never race.
type Registry struct {
	entries map[string]Entry
	names   []string
}

// NewRegistry builds a registry from entries. Names must be unique and non-empty.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("crosswalk entry without name")
		}
		if _, exists := r.entries[name]; exists {
			return nil, fmt.Errorf("duplicate crosswalk entry %q", name)
		}
		entry.Name = name
		r.entries[name] = entry.clone()
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(commonVariables()...)
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the built-in crosswalk of common PSID family variables.
func Default() *Registry { return defaultRegistry() }

// Lookup returns year -> code for name, restricted to years when given.
func (r *Registry) Lookup(name string, years ...int) (map[int]string, error) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, UnknownVariableError{Name: name}
	}
	out := make(map[int]string, len(entry.Codes))
	if len(years) == 0 {
		for year, code := range entry.Codes {
			out[year] = code
		}
		return out, nil
	}
	for _, year := range years {
		if code, ok := entry.Codes[year]; ok {
			out[year] = code
		}
	}
	return out, nil
}

// Describe returns a copy of the entry for name.
func (r *Registry) Describe(name string) (Entry, error) {
	entry, ok := r.entries[name]
	if !ok {
		return Entry{}, UnknownVariableError{Name: name}
	}
	return entry.clone(), nil
}

// Search returns names whose name or description contains keyword
// (case-insensitive) and whose category equals category. Empty arguments
// match everything.
func (r *Registry) Search(keyword, category string) []string {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	out := []string{}
	for _, name := range r.names {
		entry := r.entries[name]
		if category != "" && entry.Category != category {
			continue
		}
		if keyword != "" {
			haystack := strings.ToLower(entry.Name + " " + entry.Description)
			if !strings.Contains(haystack, keyword) {
				continue
			}
		}
		out = append(out, name)
	}
	return out
}

// Names returns all canonical names in lexicographic order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Categories returns the distinct categories, sorted.
func (r *Registry) Categories() []string {
	seen := map[string]struct{}{}
	for _, entry := range r.entries {
		seen[entry.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for category := range seen {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Spec resolves names into a Spec limited to years. An unknown name fails the
// whole call with UnknownVariableError.
func (r *Registry) Spec(names []string, years []int) (Spec, error) {
	out := make(Spec, len(names))
	for _, name := range names {
		codes, err := r.Lookup(name, years...)
		if err != nil {
			return nil, err
		}
		out[name] = codes
	}
	return out, nil
}

// Availability is one cell of the coverage matrix.
type Availability struct {
	Name string `json:"name"`
	Year int    `json:"year"`
	Code string `json:"code,omitempty"`
}

// Available reports whether the variable has a code that year.
func (a Availability) Available() bool { return a.Code != "" }

// Coverage returns the name x year availability matrix in name, then year
// order, so thin years can be spotted before a build.
func (r *Registry) Coverage(names []string, years []int) ([]Availability, error) {
	sorted := append([]int(nil), years...)
	sort.Ints(sorted)
	out := make([]Availability, 0, len(names)*len(sorted))
	for _, name := range names {
		entry, ok := r.entries[name]
		if !ok {
			return nil, UnknownVariableError{Name: name}
		}
		for _, year := range sorted {
			out = append(out, Availability{Name: name, Year: year, Code: NormalizeCode(entry.Codes[year])})
		}
	}
	return out, nil
}

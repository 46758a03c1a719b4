package extract

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"

	"psidpanel/internal/blob"
)

// Kind names an extract family.
type Kind string

const (
	Family     Kind = "family"
	Individual Kind = "individual"
	Wealth     Kind = "wealth"
	dictionary Kind = "dictionary"
)

// Supported suffixes in preference order.
var extensions = []string{".csv", ".csv.gz", ".txt"}

func stems(kind Kind, year int) []string {
	switch kind {
	case Family:
		return []string{fmt.Sprintf("FAM%dER", year), fmt.Sprintf("FAM%d", year)}
	case Wealth:
		return []string{fmt.Sprintf("WLT%dER", year), fmt.Sprintf("WLT%d", year)}
	default:
		return nil
	}
}

// Patterns lists the file names searched for kind and year, case-insensitively.
func Patterns(kind Kind, year int) []string {
	if kind == Individual {
		out := make([]string, 0, len(extensions))
		for _, ext := range extensions {
			out = append(out, "IND*"+ext)
		}
		return out
	}
	var out []string
	for _, stem := range stems(kind, year) {
		for _, ext := range extensions {
			out = append(out, stem+ext)
		}
	}
	return out
}

// Source locates and parses extracts stored under a key prefix.
type Source struct {
	store  blob.Store
	prefix string
	logger *slog.Logger
}

// NewSource reads extracts from store under prefix.
func NewSource(store blob.Store, prefix string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Source{store: store, prefix: prefix, logger: logger}
}

// Family loads the family file for year, keeping only columns (all when empty).
func (s *Source) Family(ctx context.Context, year int, columns []string) (*Frame, error) {
	return s.load(ctx, Family, year, columns)
}

// Wealth loads the wealth supplement for year.
func (s *Source) Wealth(ctx context.Context, year int, columns []string) (*Frame, error) {
	return s.load(ctx, Wealth, year, columns)
}

// Individual loads the cumulative individual file. When several releases
// are present the lexicographically last one wins.
func (s *Source) Individual(ctx context.Context, columns []string) (*Frame, error) {
	return s.load(ctx, Individual, 0, columns)
}

// Locate returns the object key serving kind and year.
func (s *Source) Locate(ctx context.Context, kind Kind, year int) (string, error) {
	infos, err := s.store.List(ctx, s.prefix)
	if err != nil {
		return "", fmt.Errorf("list %q: %w", s.prefix, err)
	}
	byBase := make(map[string]string, len(infos))
	var individual []string
	for _, info := range infos {
		rel := strings.TrimPrefix(info.Key, s.prefix)
		if strings.Contains(rel, "/") {
			continue
		}
		base := strings.ToUpper(rel)
		byBase[base] = info.Key
		if kind == Individual && strings.HasPrefix(base, "IND") && hasExtension(base) {
			individual = append(individual, base)
		}
	}
	if kind == Individual {
		if len(individual) > 0 {
			sort.Strings(individual)
			return byBase[individual[len(individual)-1]], nil
		}
	} else {
		for _, name := range Patterns(kind, year) {
			if key, ok := byBase[strings.ToUpper(name)]; ok {
				return key, nil
			}
		}
	}
	return "", MissingSourceFileError{Kind: kind, Year: year, Prefix: s.prefix, Patterns: Patterns(kind, year)}
}

func hasExtension(base string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(base, strings.ToUpper(ext)) {
			return true
		}
	}
	return false
}

func (s *Source) load(ctx context.Context, kind Kind, year int, columns []string) (*Frame, error) {
	key, err := s.Locate(ctx, kind, year)
	if err != nil {
		return nil, err
	}
	sel := Columns(columns...)
	upper := strings.ToUpper(key)
	s.logger.Debug("reading extract", "kind", kind, "year", year, "key", key)
	switch {
	case strings.HasSuffix(upper, ".TXT"):
		fields, err := s.dictionary(ctx, key)
		if err != nil {
			return nil, err
		}
		return s.read(ctx, key, func(r io.Reader) (*Frame, error) {
			return ReadFixedWidth(r, key, fields, sel)
		})
	default:
		return s.read(ctx, key, func(r io.Reader) (*Frame, error) {
			return ReadCSV(r, key, sel)
		})
	}
}

// dictionary finds the .do file next to a fixed-width extract.
func (s *Source) dictionary(ctx context.Context, key string) ([]Field, error) {
	want := strings.ToUpper(strings.TrimSuffix(key, path.Ext(key)) + ".do")
	infos, err := s.store.List(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", s.prefix, err)
	}
	for _, info := range infos {
		if strings.ToUpper(info.Key) != want {
			continue
		}
		_, rc, err := s.store.Get(ctx, info.Key)
		if err != nil {
			return nil, fmt.Errorf("open dictionary %s: %w", info.Key, err)
		}
		defer func() { _ = rc.Close() }()
		fields, err := ParseDictionary(rc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", info.Key, err)
		}
		return fields, nil
	}
	return nil, MissingSourceFileError{Kind: dictionary, Prefix: s.prefix, Patterns: []string{path.Base(strings.TrimSuffix(key, path.Ext(key))) + ".do"}}
}

func (s *Source) read(ctx context.Context, key string, parse func(io.Reader) (*Frame, error)) (*Frame, error) {
	_, rc, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	var r io.Reader = rc
	if strings.HasSuffix(strings.ToLower(key), ".gz") {
		gz, err := gzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("gunzip %s: %w", key, err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	frame, err := parse(r)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("extract loaded", "key", key, "rows", frame.Len(), "columns", len(frame.Columns()))
	return frame, nil
}

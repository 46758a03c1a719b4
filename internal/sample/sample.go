// Package sample classifies PSID respondents into sampling strata by their
// 1968 interview number (ER30001).
package sample

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Type is a sampling stratum tag.
type Type string

const (
	SRC       Type = "SRC"       // Survey Research Center national sample
	SEO       Type = "SEO"       // Survey of Economic Opportunity low-income oversample
	Immigrant Type = "IMMIGRANT" // 1997, 1999 and 2017 refresher samples
	Latino    Type = "LATINO"    // optional, only when configured
	Unknown   Type = "UNKNOWN"
)

// Range is a closed interval of baseline family ids.
type Range struct {
	Low, High int64
}

func (r Range) contains(id int64) bool { return id >= r.Low && id <= r.High }

// Stratum pairs a tag with its ranges.
type Stratum struct {
	Type   Type
	Ranges []Range
}

// OverlappingRangeError reports two strata claiming the same ids.
type OverlappingRangeError struct {
	A, B   Type
	RangeA Range
	RangeB Range
}

func (e OverlappingRangeError) Error() string {
	return fmt.Sprintf("sample range %s [%d,%d] overlaps %s [%d,%d]", e.A, e.RangeA.Low, e.RangeA.High, e.B, e.RangeB.Low, e.RangeB.High)
}

// Classifier scans strata in priority order. It is immutable after construction.
type Classifier struct {
	strata []Stratum
}

func standardStrata() []Stratum {
	return []Stratum{
		{Type: SRC, Ranges: []Range{{1, 2999}}},
		{Type: SEO, Ranges: []Range{{5001, 6872}}},
		{Type: Immigrant, Ranges: []Range{{3001, 3511}, {4001, 4462}, {7001, 9308}}},
	}
}

// NewClassifier returns the standard PSID classifier. Latino ranges, when
// given, are appended after the immigrant refresher ranges.
func NewClassifier(latino ...Range) (*Classifier, error) {
	strata := standardStrata()
	if len(latino) > 0 {
		strata = append(strata, Stratum{Type: Latino, Ranges: append([]Range(nil), latino...)})
	}
	return NewCustomClassifier(strata...)
}

// NewCustomClassifier validates that ranges are well formed and pairwise disjoint.
func NewCustomClassifier(strata ...Stratum) (*Classifier, error) {
	type tagged struct {
		t Type
		r Range
	}
	var all []tagged
	for _, s := range strata {
		if s.Type == "" || s.Type == Unknown {
			return nil, fmt.Errorf("invalid sample type %q", s.Type)
		}
		for _, r := range s.Ranges {
			if r.Low > r.High {
				return nil, fmt.Errorf("sample range %s [%d,%d] is empty", s.Type, r.Low, r.High)
			}
			all = append(all, tagged{t: s.Type, r: r})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].r.Low < all[j].r.Low })
	for i := 1; i < len(all); i++ {
		if all[i].r.Low <= all[i-1].r.High {
			return nil, OverlappingRangeError{A: all[i-1].t, B: all[i].t, RangeA: all[i-1].r, RangeB: all[i].r}
		}
	}
	out := make([]Stratum, len(strata))
	for i, s := range strata {
		out[i] = Stratum{Type: s.Type, Ranges: append([]Range(nil), s.Ranges...)}
	}
	return &Classifier{strata: out}, nil
}

var standard = sync.OnceValue(func() *Classifier {
	c, err := NewClassifier()
	if err != nil {
		panic(err)
	}
	return c
})

// Standard returns the shared classifier without Latino ranges.
func Standard() *Classifier { return standard() }

// Classify returns the stratum of a baseline family id using the standard table.
func Classify(familyID int64) Type { return Standard().Classify(familyID) }

// Classify returns the first stratum containing familyID, or Unknown.
func (c *Classifier) Classify(familyID int64) Type {
	for _, s := range c.strata {
		for _, r := range s.Ranges {
			if r.contains(familyID) {
				return s.Type
			}
		}
	}
	return Unknown
}

// Types lists the configured strata in priority order.
func (c *Classifier) Types() []Type {
	out := make([]Type, len(c.strata))
	for i, s := range c.strata {
		out[i] = s.Type
	}
	return out
}

// Strata returns a copy of the configured table.
func (c *Classifier) Strata() []Stratum {
	out := make([]Stratum, len(c.strata))
	for i, s := range c.strata {
		out[i] = Stratum{Type: s.Type, Ranges: append([]Range(nil), s.Ranges...)}
	}
	return out
}

// ParseType parses a tag case-insensitively.
func ParseType(raw string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(raw))); t {
	case SRC, SEO, Immigrant, Latino, Unknown:
		return t, nil
	default:
		return "", fmt.Errorf("unknown sample type %q", raw)
	}
}

// ParseTypes parses several tags into a set.
func ParseTypes(raw ...string) (Set, error) {
	set := Set{}
	for _, r := range raw {
		t, err := ParseType(r)
		if err != nil {
			return nil, err
		}
		set[t] = struct{}{}
	}
	return set, nil
}

// Set is a set of strata. An empty set selects everything.
type Set map[Type]struct{}

// NewSet builds a set from tags.
func NewSet(types ...Type) Set {
	set := make(Set, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

// Has reports membership; an empty set contains every tag.
func (s Set) Has(t Type) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[t]
	return ok
}

// Filter keeps rows whose classified stratum is in types. idOf extracts the
// baseline family id; tag, when non-nil, receives each kept row together with
// its computed stratum and returns the row to keep.
func Filter[R any](c *Classifier, rows []R, types Set, idOf func(R) int64, tag func(R, Type) R) []R {
	out := make([]R, 0, len(rows))
	for _, row := range rows {
		t := c.Classify(idOf(row))
		if !types.Has(t) {
			continue
		}
		if tag != nil {
			row = tag(row, t)
		}
		out = append(out, row)
	}
	return out
}

package panel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"psidpanel/internal/extract"
	"psidpanel/internal/metrics"
	"psidpanel/internal/sample"
	"psidpanel/internal/variables"
)

// Source supplies parsed extracts. *extract.Source satisfies it.
type Source interface {
	Family(ctx context.Context, year int, columns []string) (*extract.Frame, error)
	Wealth(ctx context.Context, year int, columns []string) (*extract.Frame, error)
	Individual(ctx context.Context, columns []string) (*extract.Frame, error)
}

// Request describes one panel build.
type Request struct {
	Years          []int
	FamilyVars     variables.Spec
	IndividualVars variables.Spec
	WealthVars     variables.Spec
	// Crosswalk names are resolved through the registry. Codes of the form
	// S<digits> live in the wealth supplement; all others in the family file.
	Crosswalk []string
	HeadsOnly bool
	Balanced  bool
	Samples   sample.Set
	TagSample bool
}

// BuilderConfig carries the builder's collaborators. Zero fields get defaults.
type BuilderConfig struct {
	Registry   *variables.Registry
	Classifier *sample.Classifier
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
	Workers    int
}

// Builder assembles panels from a Source.
type Builder struct {
	source     Source
	registry   *variables.Registry
	classifier *sample.Classifier
	logger     *slog.Logger
	metrics    *metrics.Recorder
	workers    int
}

// NewBuilder returns a builder reading from source.
func NewBuilder(source Source, cfg BuilderConfig) *Builder {
	b := &Builder{
		source:     source,
		registry:   cfg.Registry,
		classifier: cfg.Classifier,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		workers:    cfg.Workers,
	}
	if b.registry == nil {
		b.registry = variables.Default()
	}
	if b.classifier == nil {
		b.classifier = sample.Standard()
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.workers <= 0 {
		b.workers = 4
	}
	return b
}

// resolved is one canonical variable bound to a source column for a year.
type resolved struct {
	name string
	code string
}

// plan is the per-year column resolution, computed before any I/O.
type plan struct {
	year       int
	family     []resolved
	wealth     []resolved
	individual []resolved
	gaps       []CoverageGap
	link       string // family-file interview number column, if known
}

type yearResult struct {
	obs  []Observation
	gaps []CoverageGap
}

// Build loads every requested year and returns the stacked panel. Any
// error aborts the build; a partial panel is never returned.
func (b *Builder) Build(ctx context.Context, req Request) (p *Panel, err error) {
	started := time.Now()
	defer func() { b.metrics.Observe(ctx, "build", err == nil, time.Since(started)) }()

	years := slices.Clone(req.Years)
	sort.Ints(years)
	years = slices.Compact(years)
	if len(years) == 0 {
		return nil, fmt.Errorf("no years requested")
	}
	for _, y := range years {
		if _, ok := extract.InterviewColumn(y); !ok {
			return nil, UnsupportedYearError{Year: y}
		}
	}
	family, wealth, err := b.specs(req, years)
	if err != nil {
		return nil, err
	}
	columns := unionNames(family, wealth, req.IndividualVars)
	plans := make([]plan, len(years))
	for i, y := range years {
		if plans[i], err = b.plan(y, columns, family, wealth, req.IndividualVars); err != nil {
			return nil, err
		}
	}

	b.logger.Info("building panel", "years", years, "variables", len(columns), "heads_only", req.HeadsOnly, "balanced", req.Balanced)
	indCols := extract.IndividualColumns(years)
	for _, pl := range plans {
		for _, r := range pl.individual {
			indCols = append(indCols, r.code)
		}
	}
	ind, err := b.source.Individual(ctx, indCols)
	if err != nil {
		return nil, fmt.Errorf("load individual file: %w", err)
	}
	for _, col := range []string{extract.FamilyIDColumn, extract.PersonNumberColumn} {
		if !ind.Has(col) {
			return nil, extract.MissingColumnError{File: ind.Name(), Column: col}
		}
	}
	for _, y := range years {
		col, _ := extract.InterviewColumn(y)
		if !ind.Has(col) {
			return nil, extract.MissingColumnError{File: ind.Name(), Column: col, Year: y}
		}
	}

	results := make([]yearResult, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range plans {
		i := i
		g.Go(func() error {
			res, err := b.buildYear(gctx, plans[i], ind, req)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		obs  []Observation
		gaps []CoverageGap
	)
	for i, res := range results {
		obs = append(obs, res.obs...)
		gaps = append(gaps, res.gaps...)
		b.metrics.Rows(plans[i].year, len(res.obs))
	}
	for _, gap := range gaps {
		b.metrics.CoverageGap(gap.Variable, gap.Reason)
		if gap.Reason == ReasonHeadshipUnknown {
			b.logger.Warn("heads-only filter skipped", "year", gap.Year, "reason", gap.Reason)
			continue
		}
		b.logger.Warn("variable unavailable", "variable", gap.Variable, "year", gap.Year, "reason", gap.Reason, "code", gap.Code)
	}
	p, err = New(columns, obs, gaps...)
	if err != nil {
		return nil, err
	}
	p.waves = years
	if req.Balanced {
		p = p.Balanced()
	}
	b.logger.Info("panel built", "individuals", p.NumIndividuals(), "observations", p.Len(), "gaps", len(gaps))
	return p, nil
}

// specs folds crosswalk names into the caller's family and wealth specs.
func (b *Builder) specs(req Request, years []int) (family, wealth variables.Spec, err error) {
	family, wealth = req.FamilyVars.Clone(), req.WealthVars.Clone()
	if family == nil {
		family = variables.Spec{}
	}
	if wealth == nil {
		wealth = variables.Spec{}
	}
	if len(req.Crosswalk) == 0 {
		return family, wealth, nil
	}
	cross, err := b.registry.Spec(req.Crosswalk, years)
	if err != nil {
		return nil, nil, err
	}
	crossFamily, crossWealth := variables.Spec{}, variables.Spec{}
	for name, codes := range cross {
		for year, code := range codes {
			dst := crossFamily
			if isSupplementCode(code) {
				dst = crossWealth
			}
			if dst[name] == nil {
				dst[name] = map[int]string{}
			}
			dst[name][year] = code
		}
		if _, ok := crossFamily[name]; !ok {
			if _, ok := crossWealth[name]; !ok {
				// known to the registry but coded in none of the years
				crossFamily[name] = map[int]string{}
			}
		}
	}
	if family, err = variables.Merge(family, crossFamily); err != nil {
		return nil, nil, err
	}
	if wealth, err = variables.Merge(wealth, crossWealth); err != nil {
		return nil, nil, err
	}
	return family, wealth, nil
}

func isSupplementCode(code string) bool {
	code = variables.NormalizeCode(code)
	return len(code) > 1 && code[0] == 'S' && code[1] >= '0' && code[1] <= '9'
}

func unionNames(specs ...variables.Spec) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range specs {
		for name := range s {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (b *Builder) plan(year int, columns []string, family, wealth, individual variables.Spec) (plan, error) {
	pl := plan{year: year}
	if link, err := b.registry.Lookup(variables.InterviewNumber, year); err == nil {
		pl.link = variables.NormalizeCode(link[year])
	}
	for _, name := range columns {
		var sources []string
		if code, ok := family.Code(name, year); ok {
			pl.family = append(pl.family, resolved{name, code})
			sources = append(sources, string(extract.Family))
		}
		if code, ok := wealth.Code(name, year); ok {
			pl.wealth = append(pl.wealth, resolved{name, code})
			sources = append(sources, string(extract.Wealth))
		}
		if code, ok := individual.Code(name, year); ok {
			pl.individual = append(pl.individual, resolved{name, code})
			sources = append(sources, string(extract.Individual))
		}
		switch len(sources) {
		case 0:
			pl.gaps = append(pl.gaps, CoverageGap{Variable: name, Year: year, Reason: ReasonNoCode})
		case 1:
		default:
			return plan{}, ConflictingVariableError{Name: name, Year: year, Sources: sources}
		}
	}
	return pl, nil
}

func codes(rs []resolved) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.code
	}
	return out
}

// household is one loaded family (or wealth) extract indexed by interview number.
type household struct {
	frame *extract.Frame
	rows  map[int64]int
}

func index(frame *extract.Frame, link string) household {
	h := household{frame: frame, rows: make(map[int64]int, frame.Len())}
	for r := 0; r < frame.Len(); r++ {
		id, ok := frame.Int(link, r)
		if !ok {
			continue
		}
		if _, dup := h.rows[id]; !dup {
			h.rows[id] = r
		}
	}
	return h
}

// present splits rs into the columns frame carries and gaps for the rest.
func present(frame *extract.Frame, rs []resolved, year int, kind extract.Kind) ([]resolved, []CoverageGap) {
	var ok []resolved
	var gaps []CoverageGap
	for _, r := range rs {
		if frame.Has(r.code) {
			ok = append(ok, r)
			continue
		}
		gaps = append(gaps, CoverageGap{Variable: r.name, Year: year, Source: string(kind), Code: r.code, Reason: ReasonColumnAbsent})
	}
	return ok, gaps
}

func (b *Builder) buildYear(ctx context.Context, pl plan, ind *extract.Frame, req Request) (yearResult, error) {
	res := yearResult{gaps: slices.Clone(pl.gaps)}
	famCols := codes(pl.family)
	if pl.link != "" {
		famCols = append(famCols, pl.link)
	}
	famFrame, err := b.source.Family(ctx, pl.year, famCols)
	if err != nil {
		return yearResult{}, fmt.Errorf("load %d family file: %w", pl.year, err)
	}
	link := pl.link
	if link == "" || !famFrame.Has(link) {
		link = famFrame.First()
	}
	fam := index(famFrame, link)
	famVars, gaps := present(famFrame, pl.family, pl.year, extract.Family)
	res.gaps = append(res.gaps, gaps...)

	var (
		wlt       household
		wltVars   []resolved
		hasWealth = len(pl.wealth) > 0
	)
	if hasWealth {
		wltFrame, err := b.source.Wealth(ctx, pl.year, codes(pl.wealth))
		if err != nil {
			return yearResult{}, fmt.Errorf("load %d wealth file: %w", pl.year, err)
		}
		wlt = index(wltFrame, wltFrame.First())
		wltVars, gaps = present(wltFrame, pl.wealth, pl.year, extract.Wealth)
		res.gaps = append(res.gaps, gaps...)
	}
	indVars, gaps := present(ind, pl.individual, pl.year, extract.Individual)
	res.gaps = append(res.gaps, gaps...)

	interviewCol, _ := extract.InterviewColumn(pl.year)
	seqCol, hasSeq := extract.SequenceColumn(pl.year)
	hasSeq = hasSeq && ind.Has(seqCol)
	relCol, hasRel := extract.RelationshipColumn(pl.year)
	hasRel = hasRel && ind.Has(relCol)
	headsOnly := req.HeadsOnly
	if headsOnly && !hasSeq && !hasRel {
		// Nothing identifies the head; keep everyone and report it.
		headsOnly = false
		res.gaps = append(res.gaps, CoverageGap{Variable: FieldRelationship, Year: pl.year, Source: string(extract.Individual), Reason: ReasonHeadshipUnknown})
	}

	for r := 0; r < ind.Len(); r++ {
		if r%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return yearResult{}, err
			}
		}
		interview, ok := ind.Int(interviewCol, r)
		if !ok || interview <= 0 {
			continue
		}
		famRow, ok := fam.rows[interview]
		if !ok {
			continue
		}
		familyID, ok1 := ind.Int(extract.FamilyIDColumn, r)
		personNumber, ok2 := ind.Int(extract.PersonNumberColumn, r)
		if !ok1 || !ok2 {
			continue
		}
		o := Observation{
			PersonID:     PersonID(familyID, int(personNumber)),
			Year:         pl.year,
			HouseholdID:  interview,
			Sequence:     NoSequence,
			FamilyID:     familyID,
			PersonNumber: int(personNumber),
			Values:       make(map[string]float64, len(famVars)+len(wltVars)+len(indVars)),
		}
		if hasSeq {
			if seq, ok := ind.Int(seqCol, r); ok {
				o.Sequence = int(seq)
			}
		}
		if hasRel {
			if rel, ok := ind.Int(relCol, r); ok {
				o.Relationship = NormalizeRelationship(int(rel))
			}
		}
		if headsOnly && !o.IsHead() {
			continue
		}
		for _, v := range famVars {
			if x, ok := fam.frame.Value(v.code, famRow); ok {
				o.Values[v.name] = x
			}
		}
		if hasWealth {
			if wr, ok := wlt.rows[interview]; ok {
				for _, v := range wltVars {
					if x, ok := wlt.frame.Value(v.code, wr); ok {
						o.Values[v.name] = x
					}
				}
			}
		}
		for _, v := range indVars {
			if x, ok := ind.Value(v.code, r); ok {
				o.Values[v.name] = x
			}
		}
		res.obs = append(res.obs, o)
	}

	var tag func(Observation, sample.Type) Observation
	if req.TagSample {
		tag = func(o Observation, t sample.Type) Observation {
			o.Sample = t
			return o
		}
	}
	if len(req.Samples) > 0 || tag != nil {
		res.obs = sample.Filter(b.classifier, res.obs, req.Samples, func(o Observation) int64 { return o.FamilyID }, tag)
	}
	b.logger.Info("year loaded", "year", pl.year, "rows", len(res.obs), "family_file", famFrame.Name(), "link", strings.ToUpper(link))
	return res, nil
}

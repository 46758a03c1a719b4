// Package config loads psidpanel job files. A job names the waves and
// variables to build, where extracts live, where panels are saved and how
// output is written. Environment variables override the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"psidpanel/internal/blob"
	"psidpanel/internal/export"
	"psidpanel/internal/logging"
	"psidpanel/internal/panel"
	"psidpanel/internal/sample"
	"psidpanel/internal/storage"
	"psidpanel/internal/transition"
	"psidpanel/internal/variables"
)

const defaultWorkers = 4

// Job is the decoded job file.
type Job struct {
	Years          []int          `yaml:"years"`
	HeadsOnly      bool           `yaml:"heads_only"`
	Balanced       bool           `yaml:"balanced"`
	MinPeriods     int            `yaml:"min_periods"`
	Sample         []string       `yaml:"sample"`
	TagSample      bool           `yaml:"tag_sample"`
	Crosswalk      []string       `yaml:"crosswalk"`
	FamilyVars     variables.Spec `yaml:"family_vars"`
	IndividualVars variables.Spec `yaml:"individual_vars"`
	WealthVars     variables.Spec `yaml:"wealth_vars"`

	Source      blob.Config    `yaml:"source"`
	Storage     storage.Config `yaml:"storage"`
	Workers     int            `yaml:"workers"`
	Log         logging.Config `yaml:"log"`
	Output      Output         `yaml:"output"`
	Transitions Transitions    `yaml:"transitions"`
}

// Output controls where and how results are written.
type Output struct {
	// Formats for stored artifacts; empty means csv.
	Formats []string `yaml:"formats"`
	// Prefix is the blob key prefix for exports.
	Prefix string `yaml:"prefix"`
	// Save names the panel (and transition set) in storage; empty skips saving.
	Save string `yaml:"save"`
}

// Transitions configures the transition extraction.
type Transitions struct {
	HouseholdColumn       string   `yaml:"household_column"`
	RelationshipColumn    string   `yaml:"relationship_column"`
	MaritalColumn         string   `yaml:"marital_column"`
	AgeColumn             string   `yaml:"age_column"`
	NormalizeRelationship bool     `yaml:"normalize_relationship"`
	By                    []string `yaml:"by"`
}

// ValidationError lists every problem found in a job.
type ValidationError struct {
	Problems []string
}

func (e ValidationError) Error() string {
	return "invalid job: " + strings.Join(e.Problems, "; ")
}

// Default returns a job with defaults applied and no waves.
func Default() Job {
	return Job{
		Workers: defaultWorkers,
		Source:  blob.Config{Driver: string(blob.DriverFilesystem), Root: "./data"},
		Storage: storage.Config{Driver: string(storage.DriverSQLite), SQLitePath: "./psidpanel.db"},
		Log:     logging.Config{Level: "info"},
	}
}

// Load reads path, overlays the environment and validates the result.
func Load(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read job file: %w", err)
	}
	job, err := Parse(data)
	if err != nil {
		return Job{}, fmt.Errorf("%s: %w", path, err)
	}
	return job, nil
}

// Parse decodes data over Default, applies the environment and validates.
// Unknown keys are rejected so typos do not silently drop settings.
func Parse(data []byte) (Job, error) {
	return parse(data, os.Getenv)
}

func parse(data []byte, getenv func(string) string) (Job, error) {
	job := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&job); err != nil && !errors.Is(err, io.EOF) {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	job = job.ApplyEnv(getenv)
	if err := job.Validate(); err != nil {
		return Job{}, err
	}
	return job, nil
}

// ApplyEnv overlays PSIDPANEL_* variables. Blob and storage variables are
// documented on their packages; this adds
//
//	PSIDPANEL_WORKERS: extract loading parallelism
//	PSIDPANEL_LOG_LEVEL: debug|info|warn|error
//	PSIDPANEL_LOG_JSON: true for JSON logs
func (j Job) ApplyEnv(getenv func(string) string) Job {
	if getenv == nil {
		getenv = os.Getenv
	}
	j.Source = j.Source.ApplyEnv(getenv)
	j.Storage = j.Storage.ApplyEnv(getenv)
	if v := getenv("PSIDPANEL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			j.Workers = n
		}
	}
	if v := getenv("PSIDPANEL_LOG_LEVEL"); v != "" {
		j.Log.Level = v
	}
	if v := getenv("PSIDPANEL_LOG_JSON"); v != "" {
		j.Log.JSON = strings.EqualFold(v, "true")
	}
	return j
}

// Validate checks everything that can be checked without opening sources.
func (j Job) Validate() error {
	var problems []string
	if len(j.Years) == 0 {
		problems = append(problems, "years: at least one wave required")
	}
	for _, y := range j.Years {
		if y < 1968 {
			problems = append(problems, fmt.Sprintf("years: %d precedes the first wave (1968)", y))
		}
	}
	if j.Workers < 1 {
		problems = append(problems, "workers: must be at least 1")
	}
	if j.MinPeriods < 0 {
		problems = append(problems, "min_periods: must not be negative")
	}
	if _, err := sample.ParseTypes(j.Sample...); err != nil {
		problems = append(problems, "sample: "+err.Error())
	}
	if _, err := logging.ParseLevel(j.Log.Level); err != nil {
		problems = append(problems, "log.level: "+err.Error())
	}
	for _, f := range j.Output.Formats {
		if _, err := export.ParseFormat(f); err != nil {
			problems = append(problems, "output.formats: "+err.Error())
		}
	}
	known := make(map[string]bool)
	for _, f := range transition.Fields() {
		known[f] = true
	}
	for _, f := range j.Transitions.By {
		if !known[f] {
			problems = append(problems, fmt.Sprintf("transitions.by: unknown field %q", f))
		}
	}
	if len(problems) > 0 {
		return ValidationError{Problems: problems}
	}
	return nil
}

// Request converts the job into a builder request.
func (j Job) Request() (panel.Request, error) {
	samples, err := sample.ParseTypes(j.Sample...)
	if err != nil {
		return panel.Request{}, err
	}
	return panel.Request{
		Years:          append([]int(nil), j.Years...),
		FamilyVars:     j.FamilyVars.Clone(),
		IndividualVars: j.IndividualVars.Clone(),
		WealthVars:     j.WealthVars.Clone(),
		Crosswalk:      append([]string(nil), j.Crosswalk...),
		HeadsOnly:      j.HeadsOnly,
		Balanced:       j.Balanced,
		Samples:        samples,
		TagSample:      j.TagSample,
	}, nil
}

// Formats returns the parsed output formats, csv when none are set.
func (j Job) Formats() []export.Format {
	if len(j.Output.Formats) == 0 {
		return []export.Format{export.FormatCSV}
	}
	out := make([]export.Format, 0, len(j.Output.Formats))
	for _, raw := range j.Output.Formats {
		if f, err := export.ParseFormat(raw); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// TransitionOptions maps the transitions block onto extractor options.
func (j Job) TransitionOptions() transition.Options {
	return transition.Options{
		HouseholdColumn:       j.Transitions.HouseholdColumn,
		RelationshipColumn:    j.Transitions.RelationshipColumn,
		MaritalColumn:         j.Transitions.MaritalColumn,
		AgeColumn:             j.Transitions.AgeColumn,
		NormalizeRelationship: j.Transitions.NormalizeRelationship,
	}
}

package blob

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const module = "psidpanel/"

// facades lists infra trees and the only packages allowed to import them.
var facades = map[string]string{
	module + "internal/infra/blob":        module + "internal/blob",
	module + "internal/infra/persistence": module + "internal/storage",
}

// The panel and transition core never reaches outward.
var (
	corePackages = []string{
		module + "internal/panel",
		module + "internal/transition",
		module + "internal/variables",
		module + "internal/sample",
	}
	outerPackages = []string{
		module + "internal/cli",
		module + "internal/config",
		module + "internal/export",
		module + "internal/storage",
	}
)

// TestImportBoundaries ensures that only the blob and storage facades wrap
// the infra-backed implementations, and that core packages do not import
// the CLI, config, export or storage layers.
func TestImportBoundaries(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, module+"...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			if violates(pkg.PkgPath, importPath) {
				pos := filepath.Join(pkg.PkgPath, "...")
				seen[pos+": "+importPath] = struct{}{}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import: %s", v)
		}
		t.Fatalf("found %d forbidden imports", len(violations))
	}
}

func violates(importer, imported string) bool {
	for infra, facade := range facades {
		if hasPrefix(imported, infra) && !hasPrefix(importer, infra) && !hasPrefix(importer, facade) {
			return true
		}
	}
	if anyPrefix(importer, corePackages) && anyPrefix(imported, outerPackages) {
		return true
	}
	return false
}

func TestViolates(t *testing.T) {
	cases := []struct {
		importer, imported string
		want               bool
	}{
		{module + "internal/blob", module + "internal/infra/blob/s3", false},
		{module + "internal/infra/persistence/postgres", module + "internal/infra/persistence/memory", false},
		{module + "internal/export", module + "internal/infra/blob/fs", true},
		{module + "internal/cli", module + "internal/infra/persistence/sqlite", true},
		{module + "internal/panel", module + "internal/storage", true},
		{module + "internal/storage", module + "internal/panel", false},
	}
	for _, tc := range cases {
		if got := violates(tc.importer, tc.imported); got != tc.want {
			t.Fatalf("violates(%s, %s) = %v, want %v", tc.importer, tc.imported, got, tc.want)
		}
	}
}

func anyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if hasPrefix(path, p) {
			return true
		}
	}
	return false
}

func hasPrefix(importPath, prefix string) bool {
	return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
}

package integration

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"psidpanel/internal/blob"
	"psidpanel/internal/export"
	"psidpanel/internal/extract"
	"psidpanel/internal/logging"
	"psidpanel/internal/panel"
	"psidpanel/internal/storage"
	"psidpanel/internal/transition"
	"psidpanel/internal/variables"
)

var extracts = map[string]string{
	"raw/IND2019ER.csv": "ER30001,ER30002,ER34101,ER34102,ER34103,ER34301,ER34302,ER34303\n" +
		"7,1,70,1,10,71,1,10\n" +
		"7,2,70,2,20,71,2,20\n" +
		"7,3,70,3,30,72,1,10\n",
	"raw/FAM2017ER.csv": "ER66002,ER71426\n70,41000\n",
	"raw/FAM2019ER.csv": "ER72002,ER77448\n71,45000\n72,18000\n",
}

// TestIntegrationSmoke runs a build, save, load, classify and export cycle
// for each in-process storage and blob backend. It keeps scope tiny so it can
// act as a fast CI health check.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()

	storageVariants := []struct {
		name string
		open func(t *testing.T) storage.Store
	}{
		{name: "memory-store", open: func(*testing.T) storage.Store { return storage.NewMemory() }},
		{name: "sqlite-store", open: func(t *testing.T) storage.Store {
			s, err := storage.Open(ctx, storage.Config{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "smoke.db")})
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		}},
	}
	blobVariants := []struct {
		name string
		open func(t *testing.T) blob.Store
	}{
		{name: "memory-blob", open: func(*testing.T) blob.Store { return blob.NewMemory() }},
		{name: "fs-blob", open: func(t *testing.T) blob.Store {
			s, err := blob.Open(ctx, blob.Config{Driver: "fs", Root: t.TempDir()})
			if err != nil {
				t.Fatalf("open fs: %v", err)
			}
			return s
		}},
	}

	for _, sv := range storageVariants {
		for _, bv := range blobVariants {
			t.Run(sv.name+"/"+bv.name, func(t *testing.T) {
				blobs := bv.open(t)
				for key, body := range extracts {
					if _, err := blobs.Put(ctx, key, strings.NewReader(body), blob.PutOptions{ContentType: "text/csv"}); err != nil {
						t.Fatalf("seed %s: %v", key, err)
					}
				}
				logger := logging.Discard()
				builder := panel.NewBuilder(extract.NewSource(blobs, "raw", logger), panel.BuilderConfig{Logger: logger})
				p, err := builder.Build(ctx, panel.Request{Years: []int{2017, 2019}, Crosswalk: []string{"total_family_income"}})
				if err != nil {
					t.Fatalf("build: %v", err)
				}
				if p.Len() != 6 || len(p.Coverage()) != 0 {
					t.Fatalf("unexpected panel: %d rows, coverage %v", p.Len(), p.Coverage())
				}

				catalog := storage.NewCatalog(sv.open(t))
				if err := catalog.SavePanel(ctx, "smoke", p); err != nil {
					t.Fatalf("save: %v", err)
				}
				loaded, err := catalog.LoadPanel(ctx, "smoke")
				if err != nil {
					t.Fatalf("load: %v", err)
				}
				records, err := transition.Extract(loaded, transition.Options{})
				if err != nil {
					t.Fatalf("extract: %v", err)
				}
				if len(transition.Splitoffs(records)) != 1 {
					t.Fatalf("expected one split-off, got %+v", records)
				}
				if err := catalog.SaveTransitions(ctx, "smoke-moves", records); err != nil {
					t.Fatalf("save transitions: %v", err)
				}

				artifacts, err := export.New(blobs, "out", logger).Export(ctx, transition.RecordsTable(records), export.FormatCSV)
				if err != nil {
					t.Fatalf("export: %v", err)
				}
				_, rc, err := blobs.Get(ctx, artifacts[0].Key)
				if err != nil {
					t.Fatalf("get artifact: %v", err)
				}
				defer func() { _ = rc.Close() }()
				body, _ := io.ReadAll(rc)
				if !bytes.HasPrefix(body, []byte("person_id,")) {
					t.Fatalf("unexpected export %q", body)
				}
			})
		}
	}
}

func TestCrosswalkCodesMatchFixture(t *testing.T) {
	codes, err := variables.Default().Lookup("total_family_income", 2017, 2019)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if codes[2017] != "ER71426" || codes[2019] != "ER77448" {
		t.Fatalf("fixture codes out of date: %v", codes)
	}
}

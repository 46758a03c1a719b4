// Package blob is the single entry point to object storage. Callers depend
// on the Store interface; only this package wires the concrete backends.
package blob

import (
	"context"
	"fmt"
	"os"
	"strings"

	"psidpanel/internal/blob/core"
	fsstore "psidpanel/internal/infra/blob/fs"
	memstore "psidpanel/internal/infra/blob/memory"
	s3store "psidpanel/internal/infra/blob/s3"
)

type (
	Store            = core.Store
	Driver           = core.Driver
	Info             = core.Info
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
	S3Config         = s3store.Config
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
)

// Config selects and parameterises a backend.
type Config struct {
	Driver string   `yaml:"driver"`
	Root   string   `yaml:"root"`   // fs driver directory
	Prefix string   `yaml:"prefix"` // key prefix applied by callers
	S3     S3Config `yaml:"s3"`
}

// ApplyEnv overlays PSIDPANEL_BLOB_* variables onto c.
//
//	PSIDPANEL_BLOB_DRIVER: fs|s3|memory (default fs)
//	PSIDPANEL_BLOB_FS_ROOT: directory when driver=fs
//	PSIDPANEL_BLOB_PREFIX: key prefix
//	PSIDPANEL_BLOB_S3_BUCKET / _REGION / _ENDPOINT / _PATH_STYLE
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY are honoured by the default chain
func (c Config) ApplyEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Driver, "PSIDPANEL_BLOB_DRIVER")
	set(&c.Root, "PSIDPANEL_BLOB_FS_ROOT")
	set(&c.Prefix, "PSIDPANEL_BLOB_PREFIX")
	set(&c.S3.Bucket, "PSIDPANEL_BLOB_S3_BUCKET")
	set(&c.S3.Region, "PSIDPANEL_BLOB_S3_REGION")
	set(&c.S3.Endpoint, "PSIDPANEL_BLOB_S3_ENDPOINT")
	if v := getenv("PSIDPANEL_BLOB_S3_PATH_STYLE"); v != "" {
		c.S3.PathStyle = strings.EqualFold(v, "true")
	}
	return c
}

// Open constructs the configured store. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(cfg.Driver)))
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fsstore.New(cfg.Root)
	case DriverS3:
		return s3store.New(ctx, cfg.S3)
	case DriverMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewMemory returns an empty in-memory store.
func NewMemory() Store { return memstore.New() }

package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"psidpanel/internal/blob"
	"psidpanel/internal/config"
	"psidpanel/internal/export"
	"psidpanel/internal/extract"
	"psidpanel/internal/logging"
	"psidpanel/internal/metrics"
	"psidpanel/internal/panel"
	"psidpanel/internal/storage"
)

// loadJob reads path. Without a path, commands that only touch storage get
// the defaults overlaid with the environment.
func (a *app) loadJob(path string, required bool) (config.Job, error) {
	if path == "" {
		if required {
			return config.Job{}, fmt.Errorf("a job file is required (-c job.yaml)")
		}
		return config.Default().ApplyEnv(a.getenv), nil
	}
	return config.Load(path)
}

func (a *app) logger(job config.Job) (*slog.Logger, error) {
	cfg := job.Log
	cfg.Output = a.stderr
	if cfg.Service == "" {
		cfg.Service = "psidpanel"
	}
	return logging.New(cfg)
}

// session holds the collaborators opened for one job.
type session struct {
	job      config.Job
	logger   *slog.Logger
	blobs    blob.Store
	metrics  *metrics.Recorder
	registry *prometheus.Registry
}

func (a *app) openSession(ctx context.Context, job config.Job) (*session, error) {
	logger, err := a.logger(job)
	if err != nil {
		return nil, err
	}
	blobs, err := blob.Open(ctx, job.Source)
	if err != nil {
		return nil, fmt.Errorf("open extract store: %w", err)
	}
	reg := prometheus.NewRegistry()
	return &session{job: job, logger: logger, blobs: blobs, metrics: metrics.New(reg), registry: reg}, nil
}

func (s *session) build(ctx context.Context) (*panel.Panel, error) {
	req, err := s.job.Request()
	if err != nil {
		return nil, err
	}
	cfg := panel.BuilderConfig{Logger: s.logger, Metrics: s.metrics, Workers: s.job.Workers}
	source := extract.NewSource(s.blobs, s.job.Source.Prefix, s.logger)
	p, err := panel.NewBuilder(source, cfg).Build(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.job.MinPeriods > 0 {
		p = p.MinPeriods(s.job.MinPeriods)
	}
	return p, nil
}

func (s *session) exporter() *export.Exporter {
	return export.New(s.blobs, s.job.Output.Prefix, s.logger)
}

func openCatalog(ctx context.Context, job config.Job) (*storage.Catalog, func(), error) {
	store, err := storage.Open(ctx, job.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return storage.NewCatalog(store), func() { _ = store.Close() }, nil
}

// flushMetrics writes the session's collectors in the node exporter
// textfile format when --metrics-file is set.
func (a *app) flushMetrics(s *session) error {
	if a.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.metricsFile, s.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

package cli

import (
	"github.com/spf13/cobra"

	"psidpanel/internal/table"
)

func (a *app) buildCmd() *cobra.Command {
	var (
		jobPath string
		save    string
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a panel from a job file and export it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			job, err := a.loadJob(jobPath, true)
			if err != nil {
				return err
			}
			if save != "" {
				job.Output.Save = save
			}
			s, err := a.openSession(ctx, job)
			if err != nil {
				return err
			}
			p, err := s.build(ctx)
			if err != nil {
				return err
			}
			exp := s.exporter()
			artifacts := table.New("artifacts", "table", "format", "key", "rows")
			for _, t := range []*table.Table{p.Table(), p.CoverageTable()} {
				stored, err := exp.Export(ctx, t, job.Formats()...)
				if err != nil {
					return err
				}
				for _, art := range stored {
					artifacts.Append(art.Table, string(art.Format), art.Key, art.Rows)
				}
			}
			if job.Output.Save != "" {
				catalog, closeFn, err := openCatalog(ctx, job)
				if err != nil {
					return err
				}
				defer closeFn()
				if err := catalog.SavePanel(ctx, job.Output.Save, p); err != nil {
					return err
				}
				a.success("saved panel %s (%d rows)\n", job.Output.Save, p.Len())
			}
			if gaps := len(p.Coverage()); gaps > 0 {
				a.warn("%d coverage gaps; see the coverage export\n", gaps)
			}
			a.success("built panel: %d rows, %d individuals, years %v\n", p.Len(), p.NumIndividuals(), p.Years())
			if err := a.flushMetrics(s); err != nil {
				return err
			}
			if summary {
				return a.render(p.SummaryTable())
			}
			return a.render(artifacts)
		},
	}
	cmd.Flags().StringVarP(&jobPath, "config", "c", "", "job file (yaml)")
	cmd.Flags().StringVar(&save, "save", "", "save the panel under this name (overrides output.save)")
	cmd.Flags().BoolVar(&summary, "summary", false, "print per-year summary statistics instead of the artifact list")
	return cmd
}

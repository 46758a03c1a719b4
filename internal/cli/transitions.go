package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"psidpanel/internal/panel"
	"psidpanel/internal/table"
	"psidpanel/internal/transition"
)

func (a *app) transitionsCmd() *cobra.Command {
	var (
		jobPath   string
		panelName string
		by        []string
		types     []string
		summary   bool
		pivot     bool
		save      string
		exportOut bool
	)
	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Classify household transitions between consecutive waves",
		Long: `Classify every pair of consecutive valid observations of each person.
The panel is built from the job file, or loaded from storage with --panel.
Without --by or --summary the classified records are printed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			job, err := a.loadJob(jobPath, panelName == "")
			if err != nil {
				return err
			}
			s, err := a.openSession(ctx, job)
			if err != nil {
				return err
			}
			var p *panel.Panel
			if panelName != "" {
				catalog, closeFn, err := openCatalog(ctx, job)
				if err != nil {
					return err
				}
				defer closeFn()
				if p, err = catalog.LoadPanel(ctx, panelName); err != nil {
					return err
				}
			} else if p, err = s.build(ctx); err != nil {
				return err
			}

			opts := job.TransitionOptions()
			opts.Metrics = s.metrics
			records, err := transition.Extract(p, opts)
			if err != nil {
				return err
			}
			if len(types) > 0 {
				parsed := make([]transition.Type, 0, len(types))
				for _, raw := range types {
					t, err := transition.ParseType(raw)
					if err != nil {
						return err
					}
					parsed = append(parsed, t)
				}
				records = transition.OfType(records, parsed...)
			}
			if save != "" {
				catalog, closeFn, err := openCatalog(ctx, job)
				if err != nil {
					return err
				}
				defer closeFn()
				if err := catalog.SaveTransitions(ctx, save, records); err != nil {
					return err
				}
				a.success("saved %d transitions as %s\n", len(records), save)
			}

			if len(by) == 0 {
				by = job.Transitions.By
			}
			var out *table.Table
			switch {
			case summary:
				out = transition.SummaryTable(transition.Summarize(records))
			case len(by) > 0:
				rates, err := transition.ComputeRates(records, by...)
				if err != nil {
					return err
				}
				if pivot {
					out = transition.PivotRates(rates, by...)
				} else {
					out = transition.RatesTable(rates, by...)
				}
			case pivot:
				return fmt.Errorf("--pivot needs --by")
			default:
				out = transition.RecordsTable(records)
			}
			if err := a.flushMetrics(s); err != nil {
				return err
			}
			if exportOut {
				if _, err := s.exporter().Export(ctx, out, job.Formats()...); err != nil {
					return err
				}
			}
			return a.render(out)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&jobPath, "config", "c", "", "job file (yaml)")
	f.StringVar(&panelName, "panel", "", "classify a saved panel instead of building one")
	f.StringSliceVar(&by, "by", nil, "group rates by these record fields")
	f.StringSliceVar(&types, "type", nil, "keep only these transition types")
	f.BoolVar(&summary, "summary", false, "print per-type summary")
	f.BoolVar(&pivot, "pivot", false, "print rates wide, one column per type")
	f.StringVar(&save, "save", "", "save the records under this name")
	f.BoolVar(&exportOut, "export", false, "also store the printed table through the exporter")
	return cmd
}

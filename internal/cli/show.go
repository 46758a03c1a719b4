package cli

import (
	"github.com/spf13/cobra"

	"psidpanel/internal/panel"
	"psidpanel/internal/storage"
	"psidpanel/internal/table"
	"psidpanel/internal/transition"
)

func (a *app) showCmd() *cobra.Command {
	var (
		jobPath    string
		rows       bool
		coverage   bool
		year       int
		latest     bool
		individual int64
	)
	cmd := &cobra.Command{
		Use:   "show [NAME]",
		Short: "List saved panels or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			job, err := a.loadJob(jobPath, false)
			if err != nil {
				return err
			}
			catalog, closeFn, err := openCatalog(ctx, job)
			if err != nil {
				return err
			}
			defer closeFn()

			if len(args) == 0 {
				docs, err := catalog.List(ctx, "")
				if err != nil {
					return err
				}
				t := table.New("saved", "name", "kind", "bytes", "updated_at")
				for _, d := range docs {
					t.Append(d.Name, string(d.Kind), len(d.Payload), d.UpdatedAt)
				}
				return a.render(t)
			}

			name := args[0]
			doc, err := catalog.Store().Load(ctx, name)
			if err != nil {
				return err
			}
			if doc.Kind == storage.KindTransitions {
				records, err := catalog.LoadTransitions(ctx, name)
				if err != nil {
					return err
				}
				return a.render(transition.RecordsTable(records))
			}
			p, err := catalog.LoadPanel(ctx, name)
			if err != nil {
				return err
			}
			switch {
			case individual != 0:
				p = p.Filter(func(o panel.Observation) bool { return o.PersonID == individual })
			case year != 0:
				p = p.CrossSection(year)
			case latest:
				p = p.LatestCrossSection()
			}
			switch {
			case coverage:
				return a.render(p.CoverageTable())
			case rows:
				return a.render(p.Table())
			default:
				return a.render(p.SummaryTable())
			}
		},
	}
	f := cmd.Flags()
	f.StringVarP(&jobPath, "config", "c", "", "job file naming the storage backend")
	f.BoolVar(&rows, "rows", false, "print observations instead of the summary")
	f.BoolVar(&coverage, "coverage", false, "print the coverage report")
	f.IntVar(&year, "year", 0, "restrict to one wave")
	f.BoolVar(&latest, "latest", false, "keep each person's most recent observation")
	f.Int64Var(&individual, "person", 0, "restrict to one person id")
	return cmd
}

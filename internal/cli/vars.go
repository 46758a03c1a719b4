package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"psidpanel/internal/table"
)

func (a *app) varsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vars",
		Short: "Query the variable crosswalk",
	}
	cmd.AddCommand(a.varsSearchCmd(), a.varsDescribeCmd(), a.varsLookupCmd(), a.varsCoverageCmd())
	return cmd
}

func (a *app) varsSearchCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Find crosswalk variables by name or description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			keyword := ""
			if len(args) == 1 {
				keyword = args[0]
			}
			t := table.New("variables", "name", "category", "description", "years")
			for _, name := range a.registry.Search(keyword, category) {
				entry, err := a.registry.Describe(name)
				if err != nil {
					return err
				}
				t.Append(entry.Name, entry.Category, entry.Description, len(entry.Codes))
			}
			if t.Len() == 0 {
				a.warn("no variables match %q\n", keyword)
			}
			return a.render(t)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "restrict to a category")
	return cmd
}

func (a *app) varsDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe NAME",
		Short: "Show a variable's description and per-year codes",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			entry, err := a.registry.Describe(args[0])
			if err != nil {
				return err
			}
			t := table.New(fmt.Sprintf("%s (%s): %s", entry.Name, entry.Category, entry.Description), "year", "code")
			for _, year := range entry.AvailableYears() {
				t.Append(year, entry.Codes[year])
			}
			return a.render(t)
		},
	}
}

func (a *app) varsLookupCmd() *cobra.Command {
	var years []int
	cmd := &cobra.Command{
		Use:   "lookup NAME",
		Short: "Resolve a variable to its source codes",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			codes, err := a.registry.Lookup(args[0], years...)
			if err != nil {
				return err
			}
			entry, err := a.registry.Describe(args[0])
			if err != nil {
				return err
			}
			t := table.New(args[0], "year", "code")
			for _, year := range entry.AvailableYears() {
				if code, ok := codes[year]; ok {
					t.Append(year, code)
				}
			}
			return a.render(t)
		},
	}
	cmd.Flags().IntSliceVar(&years, "years", nil, "limit to these years")
	return cmd
}

func (a *app) varsCoverageCmd() *cobra.Command {
	var years []int
	cmd := &cobra.Command{
		Use:   "coverage NAME...",
		Short: "Show which years each variable is available in",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(years) == 0 {
				return fmt.Errorf("--years is required")
			}
			cells, err := a.registry.Coverage(args, years)
			if err != nil {
				return err
			}
			t := table.New("availability", "variable", "year", "code", "available")
			missing := 0
			for _, c := range cells {
				t.Append(c.Name, c.Year, c.Code, c.Available())
				if !c.Available() {
					missing++
				}
			}
			if missing > 0 {
				a.warn("%d variable-years have no code\n", missing)
			}
			return a.render(t)
		},
	}
	cmd.Flags().IntSliceVar(&years, "years", nil, "survey years to check")
	return cmd
}

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"psidpanel/internal/sample"
	"psidpanel/internal/table"
)

func (a *app) sampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Sampling strata of the 1968 family id",
	}
	var latino []string
	classify := &cobra.Command{
		Use:   "classify FAMILY_ID...",
		Short: "Tag baseline family ids with their sample",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ranges, err := parseRanges(latino)
			if err != nil {
				return err
			}
			classifier, err := sample.NewClassifier(ranges...)
			if err != nil {
				return err
			}
			t := table.New("samples", "family_id", "sample")
			for _, raw := range args {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return fmt.Errorf("family id %q: %w", raw, err)
				}
				t.Append(id, string(classifier.Classify(id)))
			}
			return a.render(t)
		},
	}
	classify.Flags().StringSliceVar(&latino, "latino", nil, "Latino sample id ranges as LOW-HIGH")
	cmd.AddCommand(classify)
	return cmd
}

func parseRanges(raw []string) ([]sample.Range, error) {
	out := make([]sample.Range, 0, len(raw))
	for _, r := range raw {
		lo, hi, ok := strings.Cut(r, "-")
		if !ok {
			return nil, fmt.Errorf("range %q: want LOW-HIGH", r)
		}
		low, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", r, err)
		}
		high, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", r, err)
		}
		out = append(out, sample.Range{Low: low, High: high})
	}
	return out, nil
}

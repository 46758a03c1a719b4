// Package cli implements the psidpanel command tree.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"psidpanel/internal/variables"
)

// app carries the state shared by every command.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	getenv   func(string) string
	registry *variables.Registry

	output      string
	noColor     bool
	metricsFile string
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, getenv: os.Getenv, registry: variables.Default()}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		a.failure("Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "psidpanel",
		Short: "Build PSID longitudinal panels and household transitions",
		Long: `psidpanel merges per-wave PSID family, individual and wealth extracts into a
long-format panel keyed by person, and classifies household transitions
(marriage, divorce, widowhood, leaving home, split-offs) between waves.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if _, err := parseOutput(a.output); err != nil {
				return err
			}
			if a.noColor {
				color.NoColor = true
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.output, "output", "o", outputTable, "output format: table|json|csv|html")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored status lines")
	root.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics here after build and transitions")

	root.AddCommand(a.varsCmd())
	root.AddCommand(a.sampleCmd())
	root.AddCommand(a.buildCmd())
	root.AddCommand(a.transitionsCmd())
	root.AddCommand(a.showCmd())
	return root
}

func (a *app) success(format string, args ...any) {
	_, _ = color.New(color.FgGreen).Fprintf(a.stderr, format, args...)
}

func (a *app) warn(format string, args ...any) {
	_, _ = color.New(color.FgYellow).Fprintf(a.stderr, format, args...)
}

func (a *app) failure(format string, args ...any) {
	_, _ = color.New(color.FgRed).Fprintf(a.stderr, format, args...)
}

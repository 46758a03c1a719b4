// Command psidpanel builds longitudinal PSID panels and classifies household
// transitions between survey waves.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"psidpanel/internal/cli"
)

var exitFunc = os.Exit

func main() {
	code := run(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cli.Execute(ctx, args, stdout, stderr)
}

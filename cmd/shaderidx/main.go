package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"github.com/roach88/shaderidx/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		// Command failures were already written in the selected format.
		if !cli.IsReported(err) {
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}

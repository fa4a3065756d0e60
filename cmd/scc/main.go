// Command scc loads, validates and inspects SCC scheduling instances.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MSOLab/scc-process-scheduling-instances/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		// Commands print their own results; stderr gets the summary.
		fmt.Fprintf(os.Stderr, "scc: %v\n", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}

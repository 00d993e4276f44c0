// Command report runs one consolidation cycle against the configured source
// and prints the summary, a pivot, or a CSV export.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(defaultFetcher).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

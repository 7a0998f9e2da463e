// Command taskflow signs in to a task API and inspects the local session.
//
// The credential is kept in a per-server file under the user config
// directory unless --store selects memory or redis. Every flag can also be
// set in a YAML config file (--config) or as TASKFLOW_<KEY> in the
// environment, e.g. TASKFLOW_API_BASE_URL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := BuildRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

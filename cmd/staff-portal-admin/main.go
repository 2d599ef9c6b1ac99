// Command staff-portal-admin runs schema migrations and manages users and stored claims
// without going through the web UI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(Execute()) //nolint:forbidigo // CLI must propagate command status to the shell.
}

// Execute runs the root command against os.Args and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(openEnvironment)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

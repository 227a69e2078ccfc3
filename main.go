package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/progress/internal/cli"
)

func main() {
	// Cancel on SIGINT/SIGTERM so remind can stop its scheduler cleanly.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

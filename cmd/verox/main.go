// Package main is the entry point for the verox CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/verox-wallet/verox/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], nil)
	stop()
	os.Exit(code)
}

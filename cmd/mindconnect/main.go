// Command mindconnect is a terminal client for the MindConnect platform.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mindconnect/internal/config"
	"mindconnect/internal/logging"
)

// set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, closeState, err := openState(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: open state:", err)
		os.Exit(1)
	}
	a, err := newApp(ctx, cfg, log, kv, os.Stdout, os.Stdin)
	if err != nil {
		closeState()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	registry := NewCommandRegistry(VersionInfo{Version: version, Commit: commit, Date: date}, os.Stdout)
	registerCommands(ctx, registry, a)

	err = registry.Execute(os.Args[1:])
	closeState()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

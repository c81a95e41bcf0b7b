package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/synconf/synconf/cmd/synconf/commands"
	"github.com/synconf/synconf/pkg/signature"
	"github.com/synconf/synconf/pkg/sweep"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	// Create context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Embedding applications register their descriptors and sweep
	// generators here before handing the registries to the commands.
	descriptors := signature.NewRegistry()
	generators := sweep.NewRegistry()

	if err := commands.Execute(ctx, descriptors, generators, Version, Commit, BuildDate); err != nil {
		log.Error().Err(err).Msg("Command execution failed")
		os.Exit(1)
	}
}

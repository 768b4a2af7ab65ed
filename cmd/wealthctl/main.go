// Command wealthctl edits the persisted financial snapshot from the shell.
// It reads the same environment configuration as the server and should not
// run against a file that a live server is writing.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"wealth_manager/internal/app"
	"wealth_manager/internal/config"
	"wealth_manager/internal/store"

	"github.com/google/subcommands"
)

// A CLI run is short lived, so shared state stays in package variables.
var (
	stdout         io.Writer = os.Stdout
	openRepository           = app.OpenRepository
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&snapshotCmd{}, "inspect")
	c.Register(&summaryCmd{}, "inspect")

	c.Register(&addIncomeCmd{}, "edit")
	c.Register(&addAssetCmd{}, "edit")
	c.Register(&addLiabilityCmd{}, "edit")
	c.Register(&addCardCmd{}, "edit")
	c.Register(&deleteCmd{}, "edit")

	c.Register(&setStatusCmd{}, "recommendations")
	c.Register(&compactCmd{}, "recommendations")
}

// withStore loads the store described by the environment and runs fn on
// it. Mutations log save failures instead of returning them, so the store is
// saved once more on the way out and a failure there fails the command.
func withStore(ctx context.Context, fn func(*store.FinancialStore) error) subcommands.ExitStatus {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open storage: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeRepo()

	s, err := app.NewStore(ctx, cfg, repo, nil, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load financial data: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := fn(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := s.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

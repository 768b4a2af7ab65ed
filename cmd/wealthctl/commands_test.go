package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"path/filepath"
	"testing"
	"wealth_manager/internal/config"
	"wealth_manager/internal/domain"
	"wealth_manager/internal/repository"
	"wealth_manager/internal/repository/memory"

	"github.com/google/subcommands"
)

func useTempData(t *testing.T) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("DATA_FILE", filepath.Join(t.TempDir(), "data.json"))
	t.Setenv("LOG_LEVEL", "error")
}

// run executes cmd with args and returns what it printed.
func run(t *testing.T, cmd subcommands.Command, args ...string) (subcommands.ExitStatus, *bytes.Buffer) {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("parse flags failed: %v", err)
	}

	var out bytes.Buffer
	old := stdout
	stdout = &out
	defer func() { stdout = old }()

	return cmd.Execute(context.Background(), f), &out
}

func loadSnapshot(t *testing.T) domain.FinancialData {
	t.Helper()
	status, out := run(t, &snapshotCmd{})
	if status != subcommands.ExitSuccess {
		t.Fatalf("snapshot failed with %v", status)
	}
	var data domain.FinancialData
	if err := json.Unmarshal(out.Bytes(), &data); err != nil {
		t.Fatalf("decode snapshot failed: %v", err)
	}
	return data
}

func TestAddCardCreatesRecommendation(t *testing.T) {
	useTempData(t)

	if status, _ := run(t, &addIncomeCmd{}, "-source", "Salary", "-amount", "1000"); status != subcommands.ExitSuccess {
		t.Fatalf("add-income failed with %v", status)
	}
	status, out := run(t, &addCardCmd{}, "-name", "Visa", "-balance", "900", "-limit", "1000")
	if status != subcommands.ExitSuccess {
		t.Fatalf("add-card failed with %v", status)
	}

	var card domain.CreditCard
	if err := json.Unmarshal(out.Bytes(), &card); err != nil {
		t.Fatalf("decode card failed: %v", err)
	}
	if card.ID == "" || card.CreditLimit != 1000 {
		t.Errorf("unexpected card %+v", card)
	}

	data := loadSnapshot(t)
	if len(data.Recommendations) != 4 {
		t.Errorf("expected 4 recommendations, got %d", len(data.Recommendations))
	}
}

func TestAddIncomeRejectsInvalidInput(t *testing.T) {
	useTempData(t)

	status, _ := run(t, &addIncomeCmd{}, "-source", "Salary", "-amount", "100", "-frequency", "hourly")
	if status != subcommands.ExitUsageError {
		t.Errorf("expected usage error, got %v", status)
	}
}

func TestDeleteAndSetStatus(t *testing.T) {
	useTempData(t)

	_, out := run(t, &addAssetCmd{}, "-name", "Car", "-category", "vehicle", "-value", "12000")
	var asset domain.Asset
	if err := json.Unmarshal(out.Bytes(), &asset); err != nil {
		t.Fatalf("decode asset failed: %v", err)
	}

	if status, _ := run(t, &deleteCmd{}, "-kind", "asset", asset.ID); status != subcommands.ExitSuccess {
		t.Fatalf("delete failed with %v", status)
	}
	if status, _ := run(t, &deleteCmd{}, "-kind", "boat", asset.ID); status != subcommands.ExitUsageError {
		t.Errorf("expected usage error for unknown kind, got %v", status)
	}

	data := loadSnapshot(t)
	if len(data.Assets) != 0 {
		t.Fatalf("expected asset to be deleted, got %+v", data.Assets)
	}

	id := data.Recommendations[0].ID
	if status, _ := run(t, &setStatusCmd{}, id, "completed"); status != subcommands.ExitSuccess {
		t.Fatalf("set-status failed with %v", status)
	}
	if status, _ := run(t, &setStatusCmd{}, id, "pending"); status != subcommands.ExitFailure {
		t.Errorf("expected failure moving a completed recommendation back, got %v", status)
	}
	if got := loadSnapshot(t).Recommendations[0].Status; got != domain.StatusCompleted {
		t.Errorf("expected completed, got %s", got)
	}
}

func TestCompact(t *testing.T) {
	useTempData(t)

	id := loadSnapshot(t).Recommendations[0].ID
	run(t, &setStatusCmd{}, id, "dismissed")

	status, out := run(t, &compactCmd{}, "-days", "0")
	if status != subcommands.ExitSuccess {
		t.Fatalf("compact failed with %v", status)
	}
	if out.String() != "removed 1 recommendation(s)\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestFailedSaveFailsCommand(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")

	repo := memory.NewSnapshotRepository()
	repo.FailSaves(errors.New("disk full"))
	old := openRepository
	openRepository = func(context.Context, *config.Config, *slog.Logger) (repository.SnapshotRepository, func() error, error) {
		return repo, func() error { return nil }, nil
	}
	defer func() { openRepository = old }()

	status, _ := run(t, &addIncomeCmd{}, "-source", "Salary", "-amount", "1000")

	if status != subcommands.ExitFailure {
		t.Errorf("expected failure when the snapshot cannot be saved, got %v", status)
	}
}

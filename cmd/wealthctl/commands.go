package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
	"wealth_manager/internal/domain"
	"wealth_manager/internal/processor"
	"wealth_manager/internal/store"
	"wealth_manager/pkg/validator"

	"github.com/google/subcommands"
)

var entityValidator = validator.NewEntityValidator()

type snapshotCmd struct{}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "prints the current financial snapshot as JSON" }
func (*snapshotCmd) Usage() string {
	return `wealthctl snapshot

  Prints income, assets, liabilities, credit cards and recommendations.
`
}
func (*snapshotCmd) SetFlags(*flag.FlagSet) {}

func (*snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withStore(ctx, func(s *store.FinancialStore) error {
		return printJSON(s.Snapshot())
	})
}

type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "prints monthly income, debt and net worth" }
func (*summaryCmd) Usage() string {
	return `wealthctl summary
`
}
func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (*summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withStore(ctx, func(s *store.FinancialStore) error {
		summary, err := processor.Summarize(s.Snapshot(), s.Thresholds())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		return printJSON(summary)
	})
}

type addIncomeCmd struct {
	in        domain.IncomeInput
	frequency string
}

func (*addIncomeCmd) Name() string     { return "add-income" }
func (*addIncomeCmd) Synopsis() string { return "records an income source" }
func (*addIncomeCmd) Usage() string {
	return `wealthctl add-income -source <name> -amount <n> [-frequency monthly]

Usage Examples:
$ wealthctl add-income -source Salary -amount 4200
`
}

func (c *addIncomeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in.Source, "source", "", "Where the income comes from")
	f.Float64Var(&c.in.Amount, "amount", 0, "Amount per period")
	f.StringVar(&c.frequency, "frequency", string(domain.FrequencyMonthly), "weekly, biweekly, monthly, quarterly, annually or one-time")
}

func (c *addIncomeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c.in.Frequency = domain.Frequency(c.frequency)
	if err := entityValidator.ValidateIncome(c.in); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withStore(ctx, func(s *store.FinancialStore) error {
		return printJSON(s.AddIncome(ctx, c.in))
	})
}

type addAssetCmd struct {
	in       domain.AssetInput
	category string
}

func (*addAssetCmd) Name() string     { return "add-asset" }
func (*addAssetCmd) Synopsis() string { return "records an asset" }
func (*addAssetCmd) Usage() string {
	return `wealthctl add-asset -name <name> -category <category> -value <n> [-liquid] [-growth <rate>]
`
}

func (c *addAssetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in.Name, "name", "", "Asset name")
	f.StringVar(&c.category, "category", string(domain.AssetSavings), "Asset category, e.g. savings, investment, real-estate")
	f.Float64Var(&c.in.Value, "value", 0, "Current value")
	f.BoolVar(&c.in.Liquid, "liquid", false, "Counts toward the emergency fund regardless of category")
	f.Float64Var(&c.in.GrowthRate, "growth", 0, "Expected yearly growth as a fraction")
}

func (c *addAssetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c.in.Category = domain.AssetCategory(c.category)
	if err := entityValidator.ValidateAsset(c.in); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withStore(ctx, func(s *store.FinancialStore) error {
		return printJSON(s.AddAsset(ctx, c.in))
	})
}

type addLiabilityCmd struct {
	in       domain.LiabilityInput
	category string
}

func (*addLiabilityCmd) Name() string     { return "add-liability" }
func (*addLiabilityCmd) Synopsis() string { return "records a loan or other liability" }
func (*addLiabilityCmd) Usage() string {
	return `wealthctl add-liability -name <name> -category <category> -balance <n> [-rate <fraction>] [-payment <n>]
`
}

func (c *addLiabilityCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in.Name, "name", "", "Liability name")
	f.StringVar(&c.category, "category", string(domain.LiabilityOther), "mortgage, auto-loan, student-loan, personal-loan or other")
	f.Float64Var(&c.in.Balance, "balance", 0, "Outstanding balance")
	f.Float64Var(&c.in.InterestRate, "rate", 0, "Yearly interest rate as a fraction")
	f.Float64Var(&c.in.MonthlyPayment, "payment", 0, "Monthly payment")
}

func (c *addLiabilityCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c.in.Category = domain.LiabilityCategory(c.category)
	if err := entityValidator.ValidateLiability(c.in); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withStore(ctx, func(s *store.FinancialStore) error {
		return printJSON(s.AddLiability(ctx, c.in))
	})
}

type addCardCmd struct {
	in domain.CreditCardInput
}

func (*addCardCmd) Name() string     { return "add-card" }
func (*addCardCmd) Synopsis() string { return "records a credit card" }
func (*addCardCmd) Usage() string {
	return `wealthctl add-card -name <name> -balance <n> -limit <n> [-rate <fraction>] [-payment <n>]
`
}

func (c *addCardCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in.Name, "name", "", "Card name")
	f.Float64Var(&c.in.Balance, "balance", 0, "Current balance")
	f.Float64Var(&c.in.CreditLimit, "limit", 0, "Credit limit")
	f.Float64Var(&c.in.InterestRate, "rate", 0, "Yearly interest rate as a fraction")
	f.Float64Var(&c.in.MonthlyPayment, "payment", 0, "Monthly payment")
}

func (c *addCardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := entityValidator.ValidateCreditCard(c.in); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withStore(ctx, func(s *store.FinancialStore) error {
		return printJSON(s.AddCreditCard(ctx, c.in))
	})
}

type deleteCmd struct {
	kind string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "removes a record by id" }
func (*deleteCmd) Usage() string {
	return `wealthctl delete -kind <income|asset|liability|card> <id>

  Deleting an id that does not exist is not an error.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "", "income, asset, liability or card")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: delete takes exactly one id")
		return subcommands.ExitUsageError
	}
	id := f.Arg(0)

	deleters := map[string]func(*store.FinancialStore){
		"income":    func(s *store.FinancialStore) { s.DeleteIncome(ctx, id) },
		"asset":     func(s *store.FinancialStore) { s.DeleteAsset(ctx, id) },
		"liability": func(s *store.FinancialStore) { s.DeleteLiability(ctx, id) },
		"card":      func(s *store.FinancialStore) { s.DeleteCreditCard(ctx, id) },
	}
	del, ok := deleters[c.kind]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown kind %q\n", c.kind)
		return subcommands.ExitUsageError
	}

	return withStore(ctx, func(s *store.FinancialStore) error {
		del(s)
		return nil
	})
}

type setStatusCmd struct{}

func (*setStatusCmd) Name() string     { return "set-status" }
func (*setStatusCmd) Synopsis() string { return "moves a recommendation to a new status" }
func (*setStatusCmd) Usage() string {
	return `wealthctl set-status <id> <pending|in-progress|completed|dismissed>
`
}
func (*setStatusCmd) SetFlags(*flag.FlagSet) {}

func (*setStatusCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: set-status takes an id and a status")
		return subcommands.ExitUsageError
	}
	id, status := f.Arg(0), domain.RecommendationStatus(f.Arg(1))
	if err := entityValidator.ValidateStatus(status); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withStore(ctx, func(s *store.FinancialStore) error {
		return s.UpdateRecommendationStatus(ctx, id, status)
	})
}

type compactCmd struct {
	days int
}

func (*compactCmd) Name() string { return "compact" }
func (*compactCmd) Synopsis() string {
	return "drops completed and dismissed recommendations older than -days"
}
func (*compactCmd) Usage() string {
	return `wealthctl compact [-days 90]
`
}

func (c *compactCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 90, "Keep finished recommendations younger than this many days")
}

func (c *compactCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.days < 0 {
		fmt.Fprintln(os.Stderr, "Error: -days must not be negative")
		return subcommands.ExitUsageError
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -c.days)

	return withStore(ctx, func(s *store.FinancialStore) error {
		removed := s.CompactRecommendations(ctx, cutoff)
		fmt.Fprintf(stdout, "removed %d recommendation(s)\n", removed)
		return nil
	})
}

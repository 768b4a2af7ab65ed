package processor

import (
	"context"
	"fmt"
	"log/slog"
	"wealth_manager/internal/domain"
)

// FailureRecorder is told about every rule that fails to evaluate.
type FailureRecorder interface {
	RecordRuleFailure(rule string)
}

// RuleEngine derives the recommendations currently due from a snapshot. It
// keeps no state between calls: the same snapshot always yields the same
// drafts.
type RuleEngine struct {
	rules      []Rule
	thresholds Thresholds
	failures   FailureRecorder
	logger     *slog.Logger
}

func NewRuleEngine(thresholds Thresholds, failures FailureRecorder, logger *slog.Logger) *RuleEngine {
	if logger == nil {
		logger = slog.Default()
	}

	return &RuleEngine{
		rules:      DefaultRules(),
		thresholds: thresholds,
		failures:   failures,
		logger:     logger,
	}
}

// WithRules replaces the rule set; used to extend or isolate rules.
func (e *RuleEngine) WithRules(rules ...Rule) *RuleEngine {
	e.rules = rules
	return e
}

func (e *RuleEngine) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate runs every rule against data. A rule that fails is logged and
// skipped; the others still run.
func (e *RuleEngine) Evaluate(ctx context.Context, data *domain.FinancialData) []domain.Draft {
	var drafts []domain.Draft

	for _, rule := range e.rules {
		draft, err := e.evaluateRule(rule, data)
		if err != nil {
			e.logger.ErrorContext(ctx, "Failed to evaluate rule",
				slog.String("rule", rule.Name),
				slog.String("error", err.Error()))
			if e.failures != nil {
				e.failures.RecordRuleFailure(rule.Name)
			}
			continue
		}

		if draft != nil {
			drafts = append(drafts, *draft)
			e.logger.DebugContext(ctx, "Rule triggered",
				slog.String("rule", rule.Name),
				slog.String("title", draft.Title))
		}
	}

	return drafts
}

func (e *RuleEngine) evaluateRule(rule Rule, data *domain.FinancialData) (draft *domain.Draft, err error) {
	defer func() {
		if r := recover(); r != nil {
			draft, err = nil, fmt.Errorf("rule panicked: %v", r)
		}
	}()
	return rule.Evaluate(data, e.thresholds)
}
